// Package applets maps applet names, as used in deployment manifests, to
// their contract definitions.
package applets

import (
	"sort"

	"contractkit/applets/asciiart"
	"contractkit/applets/counter"
	"contractkit/applets/xpod"
	"contractkit/applets/yutaka"
	nativeledger "contractkit/native/ledger"
	"contractkit/runtime"
)

var registry = map[string]func() *runtime.Contract{
	"ledger":        nativeledger.Contract,
	"yutaka":        yutaka.Contract,
	"asciiart":      asciiart.Contract,
	"xpod_first":    xpod.First,
	"xpod_second":   xpod.Second,
	"counter":       counter.Counter,
	"cross_counter": counter.CrossCounter,
}

// Lookup returns a fresh definition of the named applet.
func Lookup(name string) (*runtime.Contract, bool) {
	build, ok := registry[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
