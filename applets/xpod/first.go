// Package xpod holds a pair of applets exercising deferred calls. First asks
// Second to append values to a list and counts, per logical id, how many of
// those requests completed.
package xpod

import (
	"contractkit/collections"
	cerrors "contractkit/core/errors"
	"contractkit/runtime"
)

const (
	MethodSetListInSecond = "set_list_in_second"
	MethodCounter         = "counter"
)

type FirstState struct {
	Pending runtime.PendingCalls                `json:"pending"`
	Totals  collections.Mapping[string, uint32] `json:"total_mapping"`
}

type counterArgs struct {
	ID string `json:"id"`
}

type setListArgs struct {
	ContractID string `json:"contract_id"`
	ID         string `json:"id"`
	Val        int8   `json:"val"`
}

// First returns the issuing applet.
func First() *runtime.Contract {
	return &runtime.Contract{
		Name: "xpod_first",
		Init: runtime.Init(func(runtime.Context, runtime.NoArgs) (*FirstState, error) {
			return &FirstState{
				Pending: runtime.NewPendingCalls(0),
				Totals:  collections.NewMapping[string, uint32](1),
			}, nil
		}),
		Methods: map[string]runtime.Method{
			"health_check": runtime.Query(func(runtime.Context, *FirstState, runtime.NoArgs) (string, error) {
				return "Success!", nil
			}),
			MethodCounter:         runtime.Query(counter),
			MethodSetListInSecond: runtime.Mutate(setListInSecond),
			runtime.CallbackMethod(MethodSetListInSecond): runtime.Mutate(setListInSecondCallback),
		},
	}
}

func counter(ctx runtime.Context, s *FirstState, a counterArgs) (uint32, error) {
	total, found, err := s.Totals.Lookup(ctx.Store(), a.ID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, cerrors.KeyNotFound(a.ID)
	}
	return total, nil
}

func setListInSecond(ctx runtime.Context, s *FirstState, a setListArgs) (runtime.Unit, error) {
	token, err := runtime.CallDeferred(ctx, a.ContractID, MethodSetVal, setValArgs{ID: a.ID, Val: a.Val})
	if err != nil {
		return runtime.Unit{}, err
	}
	store := ctx.Store()
	known, err := s.Totals.Contains(store, a.ID)
	if err != nil {
		return runtime.Unit{}, err
	}
	if !known {
		if err := s.Totals.Insert(store, a.ID, 0); err != nil {
			return runtime.Unit{}, err
		}
	}
	return runtime.Unit{}, s.Pending.Track(store, token, a.ID)
}

// setListInSecondCallback counts successful deliveries. Failed ones and
// unknown tokens change nothing.
func setListInSecondCallback(ctx runtime.Context, s *FirstState, cb runtime.Callback) (runtime.Unit, error) {
	store := ctx.Store()
	resumed, err := runtime.Resume(store, s.Pending, cb, func(id string, result runtime.CallResult) error {
		if _, ok, err := runtime.DecodeOk[[]int8](result); err != nil {
			return cerrors.CallResultDecoding("", MethodSetVal, err)
		} else if !ok {
			return nil
		}
		total, err := s.Totals.Get(store, id)
		if err != nil {
			return err
		}
		return s.Totals.Insert(store, id, total+1)
	})
	if err != nil {
		return runtime.Unit{}, err
	}
	if !resumed {
		ctx.Logger().Debug("ignoring callback for unknown correlation token", "xpod_id", cb.XpodID)
	}
	return runtime.Unit{}, nil
}
