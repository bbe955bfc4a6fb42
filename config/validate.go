package config

import (
	"fmt"
	"strings"
)

var storeBackends = map[string]struct{}{
	"memory":  {},
	"leveldb": {},
	"bolt":    {},
	"sqlite":  {},
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if _, ok := storeBackends[c.StoreBackend]; !ok {
		return fmt.Errorf("config: unknown StoreBackend %q", c.StoreBackend)
	}
	if c.StoreBackend != "memory" && strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required for %s backend", c.StoreBackend)
	}
	if c.LedgerContractID == "" {
		return fmt.Errorf("config: LedgerContractID must not be empty")
	}
	if strings.Contains(c.LedgerContractID, "/") {
		return fmt.Errorf("config: LedgerContractID must not contain '/'")
	}
	if c.DeferredDeliveryInterval.Duration < 0 {
		return fmt.Errorf("config: DeferredDeliveryInterval must not be negative")
	}
	if c.DeferredBatchLimit < 0 {
		return fmt.Errorf("config: DeferredBatchLimit must not be negative")
	}
	if c.InvocationsPerSecond < 0 || c.InvocationBurst < 0 {
		return fmt.Errorf("config: invocation limits must not be negative")
	}
	return nil
}
