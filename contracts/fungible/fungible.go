// Package fungible implements a fungible token over an external ledger.
//
// The token tracks metadata, a local total supply and allowances. Balances
// live in the ledger contract and are only ever changed through it.
package fungible

import (
	"errors"
	"fmt"

	"contractkit/collections"
	"contractkit/core/events"
	"contractkit/ledger"
	"contractkit/runtime"
)

// AllowancesNamespace is the collection namespace holding allowances.
const AllowancesNamespace collections.Namespace = 0

var (
	ErrInsufficientAllowance = errors.New("fungible: allowance is insufficient")
	ErrTransferFailed        = errors.New("fungible: ledger transfer failed")
)

type Token struct {
	Name        string                              `json:"name"`
	Symbol      string                              `json:"symbol"`
	TotalSupply uint64                              `json:"total_supply"`
	Allowances  collections.Mapping[string, uint64] `json:"allowances"`
}

func New(name, symbol string) Token {
	return Token{
		Name:       name,
		Symbol:     symbol,
		Allowances: collections.NewMapping[string, uint64](AllowancesNamespace),
	}
}

func allowanceKey(owner, spender string) string {
	return fmt.Sprintf("%s$%s", owner, spender)
}

func (t *Token) BalanceFor(ctx runtime.Context, addr string) (uint64, error) {
	return ledger.BalanceFor(ctx, addr, t.Symbol)
}

// Transfer moves amount from the sender to to.
func (t *Token) Transfer(ctx runtime.Context, to string, amount uint64) error {
	from := ctx.Sender()
	if err := ledger.Transfer(ctx, t.Symbol, from, to, amount); err != nil {
		return err
	}
	ctx.Emit(events.FungibleTransfer{Symbol: t.Symbol, From: from, To: to, Amount: amount})
	return nil
}

// Approve sets the sender's allowance for spender to amount, replacing any
// earlier value.
func (t *Token) Approve(ctx runtime.Context, spender string, amount uint64) error {
	owner := ctx.Sender()
	if err := t.Allowances.Insert(ctx.Store(), allowanceKey(owner, spender), amount); err != nil {
		return err
	}
	ctx.Emit(events.FungibleApproval{Symbol: t.Symbol, Owner: owner, Spender: spender, Amount: amount})
	return nil
}

// Mint credits amount to the sender. TotalSupply grows before the ledger is
// asked and is not restored if the ledger refuses.
func (t *Token) Mint(ctx runtime.Context, amount uint64) error {
	t.TotalSupply += amount
	to := ctx.Sender()
	if err := ledger.Mint(ctx, t.Symbol, to, amount); err != nil {
		return err
	}
	ctx.Emit(events.FungibleMint{Symbol: t.Symbol, To: to, Amount: amount, TotalSupply: t.TotalSupply})
	return nil
}

// TransferFrom moves amount from from to to against the allowance from has
// granted the sender. The allowance is reduced only after the ledger accepts
// the transfer.
func (t *Token) TransferFrom(ctx runtime.Context, from, to string, amount uint64) error {
	spender := ctx.Sender()
	store := ctx.Store()
	key := allowanceKey(from, spender)

	allowance, err := t.Allowances.Get(store, key)
	if err != nil {
		return err
	}
	if allowance < amount {
		return fmt.Errorf("%w: `%s` may spend %d of `%s`, requested %d", ErrInsufficientAllowance, spender, allowance, from, amount)
	}
	if err := ledger.Transfer(ctx, t.Symbol, from, to, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := t.Allowances.Insert(store, key, allowance-amount); err != nil {
		return err
	}
	ctx.Emit(events.FungibleTransfer{Symbol: t.Symbol, From: from, To: to, Amount: amount, Spender: spender})
	return nil
}

// Allowance returns what spender may still move on behalf of owner, 0 when
// nothing was approved.
func (t *Token) Allowance(ctx runtime.Context, owner, spender string) (uint64, error) {
	return t.Allowances.Get(ctx.Store(), allowanceKey(owner, spender))
}
