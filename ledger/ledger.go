// Package ledger is the contract-side client of the ledger contract, which
// owns all token balances. It is reached only through synchronous calls.
package ledger

import (
	cerrors "contractkit/core/errors"
	"contractkit/runtime"
)

const (
	MethodBalanceFor = "balance_for"
	MethodTransfer   = "transfer"
	MethodMint       = "mint"
)

type BalanceForArgs struct {
	Addr   string `json:"addr"`
	Symbol string `json:"symbol"`
}

type TransferArgs struct {
	Symbol   string `json:"symbol"`
	FromAddr string `json:"from_addr"`
	ToAddr   string `json:"to_addr"`
	Amount   uint64 `json:"amount"`
}

type MintArgs struct {
	Symbol string `json:"symbol"`
	ToAddr string `json:"to_addr"`
	Amount uint64 `json:"amount"`
}

// BalanceFor returns addr's balance of symbol.
func BalanceFor(ctx runtime.Context, addr, symbol string) (uint64, error) {
	balance, err := runtime.CallContract[uint64](ctx, ctx.LedgerContractID(), MethodBalanceFor, BalanceForArgs{
		Addr:   addr,
		Symbol: symbol,
	})
	if err != nil {
		return 0, cerrors.FunctionReturned(MethodBalanceFor, err)
	}
	return balance, nil
}

// Transfer moves amount of symbol between two addresses. A nil error means
// the ledger accepted the transfer.
func Transfer(ctx runtime.Context, symbol, from, to string, amount uint64) error {
	_, err := runtime.CallContract[runtime.Unit](ctx, ctx.LedgerContractID(), MethodTransfer, TransferArgs{
		Symbol:   symbol,
		FromAddr: from,
		ToAddr:   to,
		Amount:   amount,
	})
	if err != nil {
		return cerrors.FunctionReturned(MethodTransfer, err)
	}
	return nil
}

// Mint creates amount of symbol credited to to.
func Mint(ctx runtime.Context, symbol, to string, amount uint64) error {
	_, err := runtime.CallContract[runtime.Unit](ctx, ctx.LedgerContractID(), MethodMint, MintArgs{
		Symbol: symbol,
		ToAddr: to,
		Amount: amount,
	})
	if err != nil {
		return cerrors.FunctionReturned(MethodMint, err)
	}
	return nil
}
