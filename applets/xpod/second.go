package xpod

import (
	"contractkit/collections"
	cerrors "contractkit/core/errors"
	"contractkit/runtime"
)

const (
	MethodSetVal  = "set_val"
	MethodGetList = "get_list"
)

type SecondState struct {
	Lists collections.Mapping[string, []int8] `json:"map"`
}

type setValArgs struct {
	ID  string `json:"id"`
	Val int8   `json:"val"`
}

type listArgs struct {
	ID string `json:"id"`
}

// Second returns the list-keeping applet that First calls.
func Second() *runtime.Contract {
	return &runtime.Contract{
		Name: "xpod_second",
		Init: runtime.Init(func(runtime.Context, runtime.NoArgs) (*SecondState, error) {
			return &SecondState{Lists: collections.NewMapping[string, []int8](0)}, nil
		}),
		Methods: map[string]runtime.Method{
			MethodGetList: runtime.Query(func(ctx runtime.Context, s *SecondState, a listArgs) ([]int8, error) {
				list, found, err := s.Lists.Lookup(ctx.Store(), a.ID)
				if err != nil {
					return nil, err
				}
				if !found {
					return nil, cerrors.KeyNotFound(a.ID)
				}
				return list, nil
			}),
			MethodSetVal: runtime.Mutate(func(ctx runtime.Context, s *SecondState, a setValArgs) ([]int8, error) {
				store := ctx.Store()
				list, err := s.Lists.Get(store, a.ID)
				if err != nil {
					return nil, err
				}
				list = append(list, a.Val)
				if err := s.Lists.Insert(store, a.ID, list); err != nil {
					return nil, err
				}
				return list, nil
			}),
		},
	}
}
