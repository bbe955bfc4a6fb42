// Package ledger is the ledger contract run by the in-process host. It owns
// every balance; token contracts reach it through synchronous calls.
//
// The first mint of a symbol makes the calling contract its mint authority.
// Transfers must come from the debited address itself or from that
// authority.
package ledger

import (
	"fmt"

	"github.com/holiman/uint256"

	client "contractkit/ledger"
	"contractkit/runtime"
)

// State is empty: ledger records live in the contract store.
type State struct{}

// Contract returns the deployable ledger definition.
func Contract() *runtime.Contract {
	return &runtime.Contract{
		Name: "ledger",
		Init: runtime.Init(func(runtime.Context, runtime.NoArgs) (*State, error) {
			return &State{}, nil
		}),
		Methods: map[string]runtime.Method{
			client.MethodBalanceFor: runtime.Query(balanceFor),
			client.MethodTransfer:   runtime.Mutate(transfer),
			client.MethodMint:       runtime.Mutate(mint),
			"tokens":                runtime.Query(tokens),
			"supply":                runtime.Query(supply),
		},
	}
}

func balanceFor(ctx runtime.Context, _ *State, args client.BalanceForArgs) (uint64, error) {
	if args.Symbol == "" {
		return 0, ErrEmptySymbol
	}
	amount, err := accounts{ctx.Store()}.balance(args.Addr, args.Symbol)
	if err != nil {
		return 0, err
	}
	return amount.Uint64(), nil
}

func mint(ctx runtime.Context, _ *State, args client.MintArgs) (runtime.Unit, error) {
	if args.Symbol == "" {
		return runtime.Unit{}, ErrEmptySymbol
	}
	if args.ToAddr == "" {
		return runtime.Unit{}, ErrEmptyAddress
	}
	acc := accounts{ctx.Store()}
	caller := ctx.Sender()

	meta, err := acc.token(args.Symbol)
	if err != nil {
		return runtime.Unit{}, err
	}
	if meta == nil {
		if meta, err = acc.registerToken(args.Symbol, caller); err != nil {
			return runtime.Unit{}, err
		}
	} else if meta.MintAuthority != caller {
		return runtime.Unit{}, fmt.Errorf("%w: %s is minted by %s", ErrMintAuthority, args.Symbol, meta.MintAuthority)
	}

	next, overflow := new(uint256.Int).AddOverflow(meta.Supply, uint256.NewInt(args.Amount))
	if overflow || !next.IsUint64() {
		return runtime.Unit{}, fmt.Errorf("%w: supply of %s", ErrBalanceOverflow, args.Symbol)
	}
	if err := acc.credit(args.ToAddr, args.Symbol, args.Amount); err != nil {
		return runtime.Unit{}, err
	}
	meta.Supply = next
	return runtime.Unit{}, acc.writeToken(meta)
}

func transfer(ctx runtime.Context, _ *State, args client.TransferArgs) (runtime.Unit, error) {
	if args.Symbol == "" {
		return runtime.Unit{}, ErrEmptySymbol
	}
	if args.FromAddr == "" || args.ToAddr == "" {
		return runtime.Unit{}, ErrEmptyAddress
	}
	acc := accounts{ctx.Store()}
	meta, err := acc.token(args.Symbol)
	if err != nil {
		return runtime.Unit{}, err
	}
	if meta == nil {
		return runtime.Unit{}, fmt.Errorf("%w: %s", ErrUnknownToken, args.Symbol)
	}
	caller := ctx.Sender()
	if caller != args.FromAddr && caller != meta.MintAuthority {
		return runtime.Unit{}, fmt.Errorf("%w: %s on behalf of %s", ErrUnauthorized, caller, args.FromAddr)
	}
	if args.FromAddr == args.ToAddr {
		// Still fails for an overdrawn sender.
		current, err := acc.balance(args.FromAddr, args.Symbol)
		if err != nil {
			return runtime.Unit{}, err
		}
		if current.Lt(uint256.NewInt(args.Amount)) {
			return runtime.Unit{}, fmt.Errorf("%w: %s", ErrInsufficientBalance, args.FromAddr)
		}
		return runtime.Unit{}, nil
	}
	if err := acc.debit(args.FromAddr, args.Symbol, args.Amount); err != nil {
		return runtime.Unit{}, err
	}
	return runtime.Unit{}, acc.credit(args.ToAddr, args.Symbol, args.Amount)
}

func tokens(ctx runtime.Context, _ *State, _ runtime.NoArgs) ([]string, error) {
	list, err := accounts{ctx.Store()}.loadTokenList()
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

type supplyArgs struct {
	Symbol string `json:"symbol"`
}

func supply(ctx runtime.Context, _ *State, args supplyArgs) (uint64, error) {
	meta, err := accounts{ctx.Store()}.token(args.Symbol)
	if err != nil {
		return 0, err
	}
	if meta == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownToken, args.Symbol)
	}
	return meta.Supply.Uint64(), nil
}
