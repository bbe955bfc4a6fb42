// Package counter holds a plain counter applet and a second applet that
// drives it through synchronous calls.
package counter

import (
	"contractkit/runtime"
)

const (
	MethodGetCount  = "get_count"
	MethodIncrement = "increment"
	MethodSetValue  = "set_value"
)

type State struct {
	Val uint32 `json:"inner"`
}

type setValueArgs struct {
	Val uint32 `json:"val"`
}

func Counter() *runtime.Contract {
	return &runtime.Contract{
		Name: "counter",
		Init: runtime.Init(func(runtime.Context, runtime.NoArgs) (*State, error) {
			return &State{}, nil
		}),
		Methods: map[string]runtime.Method{
			MethodGetCount: runtime.Query(func(_ runtime.Context, s *State, _ runtime.NoArgs) (uint32, error) {
				return s.Val, nil
			}),
			MethodIncrement: runtime.Mutate(func(_ runtime.Context, s *State, _ runtime.NoArgs) (runtime.Unit, error) {
				s.Val++
				return runtime.Unit{}, nil
			}),
			MethodSetValue: runtime.Mutate(func(_ runtime.Context, s *State, a setValueArgs) (runtime.Unit, error) {
				s.Val = a.Val
				return runtime.Unit{}, nil
			}),
		},
	}
}
