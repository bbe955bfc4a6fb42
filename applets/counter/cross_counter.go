package counter

import (
	"contractkit/runtime"
)

type CrossState struct{}

type targetArgs struct {
	ContractID string `json:"contract_id"`
}

// CrossCounter reads and increments counters deployed elsewhere.
func CrossCounter() *runtime.Contract {
	return &runtime.Contract{
		Name: "cross_counter",
		Init: runtime.Init(func(runtime.Context, runtime.NoArgs) (*CrossState, error) {
			return &CrossState{}, nil
		}),
		Methods: map[string]runtime.Method{
			// An unreachable counter reads as 0.
			"fetch_counter_from": runtime.Query(func(ctx runtime.Context, _ *CrossState, a targetArgs) (uint32, error) {
				count, err := runtime.CallContract[uint32](ctx, a.ContractID, MethodGetCount, nil)
				if err != nil {
					ctx.Logger().Debug("counter fetch failed", "target", a.ContractID, "error", err)
					return 0, nil
				}
				return count, nil
			}),
			"increment_counter_of": runtime.Mutate(func(ctx runtime.Context, _ *CrossState, a targetArgs) (runtime.Unit, error) {
				_, err := runtime.CallContract[runtime.Unit](ctx, a.ContractID, MethodIncrement, nil)
				return runtime.Unit{}, err
			}),
		},
	}
}
