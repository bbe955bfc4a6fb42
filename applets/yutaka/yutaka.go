// Package yutaka is a fungible token applet. The full supply is minted to
// the deployer at init.
package yutaka

import (
	"contractkit/contracts/fungible"
	"contractkit/runtime"
)

const (
	Name     = "Yutaka"
	Symbol   = "YTK"
	Decimals = uint8(6)

	InitialSupply uint64 = 100_000_000_000
)

type State struct {
	Inner fungible.Token `json:"inner"`
}

type addrArgs struct {
	Addr string `json:"addr"`
}

type transferArgs struct {
	ToAddr string `json:"to_addr"`
	Amount uint64 `json:"amount"`
}

type approveArgs struct {
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

type transferFromArgs struct {
	FromAddr string `json:"from_addr"`
	ToAddr   string `json:"to_addr"`
	Amount   uint64 `json:"amount"`
}

type allowanceArgs struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

// Contract returns the deployable applet.
func Contract() *runtime.Contract {
	return &runtime.Contract{
		Name: "yutaka",
		Init: runtime.Init(initState),
		Methods: map[string]runtime.Method{
			"name": runtime.Query(func(_ runtime.Context, s *State, _ runtime.NoArgs) (string, error) {
				return s.Inner.Name, nil
			}),
			"symbol": runtime.Query(func(_ runtime.Context, s *State, _ runtime.NoArgs) (string, error) {
				return s.Inner.Symbol, nil
			}),
			"decimals": runtime.Query(func(runtime.Context, *State, runtime.NoArgs) (uint8, error) {
				return Decimals, nil
			}),
			"details": runtime.Query(details),
			"total_supply": runtime.Query(func(_ runtime.Context, s *State, _ runtime.NoArgs) (uint64, error) {
				return s.Inner.TotalSupply, nil
			}),
			"balance_for": runtime.Query(func(ctx runtime.Context, s *State, a addrArgs) (uint64, error) {
				return s.Inner.BalanceFor(ctx, a.Addr)
			}),
			"allowance": runtime.Query(func(ctx runtime.Context, s *State, a allowanceArgs) (uint64, error) {
				return s.Inner.Allowance(ctx, a.Owner, a.Spender)
			}),
			"transfer": runtime.Mutate(func(ctx runtime.Context, s *State, a transferArgs) (runtime.Unit, error) {
				return runtime.Unit{}, s.Inner.Transfer(ctx, a.ToAddr, a.Amount)
			}),
			"approve": runtime.Mutate(func(ctx runtime.Context, s *State, a approveArgs) (runtime.Unit, error) {
				return runtime.Unit{}, s.Inner.Approve(ctx, a.Spender, a.Amount)
			}),
			"transfer_from": runtime.Mutate(func(ctx runtime.Context, s *State, a transferFromArgs) (runtime.Unit, error) {
				return runtime.Unit{}, s.Inner.TransferFrom(ctx, a.FromAddr, a.ToAddr, a.Amount)
			}),
		},
	}
}

func initState(ctx runtime.Context, _ runtime.NoArgs) (*State, error) {
	s := &State{Inner: fungible.New(Name, Symbol)}
	if err := s.Inner.Mint(ctx, InitialSupply); err != nil {
		return nil, err
	}
	return s, nil
}

// details encodes as [name, symbol, decimals].
func details(_ runtime.Context, s *State, _ runtime.NoArgs) ([3]any, error) {
	return [3]any{s.Inner.Name, s.Inner.Symbol, Decimals}, nil
}
