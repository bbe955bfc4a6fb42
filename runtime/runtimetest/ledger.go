package runtimetest

import (
	"encoding/json"
	"errors"
	"sync"
)

var errInsufficientBalance = errors.New("insufficient balance")

// Ledger is a stub ledger contract keeping balances in memory. Setting
// FailMint or FailTransfer makes the corresponding method fail.
type Ledger struct {
	mu        sync.Mutex
	balances  map[string]uint64
	Mints     int
	Transfers int

	FailMint     error
	FailTransfer error
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]uint64)}
}

func balanceKey(symbol, addr string) string { return symbol + ":" + addr }

// Balance returns the stored balance of addr in symbol.
func (l *Ledger) Balance(symbol, addr string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[balanceKey(symbol, addr)]
}

// Credit sets up a balance without going through mint.
func (l *Ledger) Credit(symbol, addr string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[balanceKey(symbol, addr)] += amount
}

// Install registers the ledger methods on c's ledger contract id.
func (l *Ledger) Install(c *Context) *Ledger {
	c.Handle(c.LedgerContractID(), "balance_for", l.balanceFor)
	c.Handle(c.LedgerContractID(), "transfer", l.transfer)
	c.Handle(c.LedgerContractID(), "mint", l.mint)
	return l
}

func (l *Ledger) balanceFor(_ string, raw []byte) ([]byte, error) {
	var args struct {
		Addr   string `json:"addr"`
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return json.Marshal(l.Balance(args.Symbol, args.Addr))
}

func (l *Ledger) transfer(_ string, raw []byte) ([]byte, error) {
	var args struct {
		Symbol   string `json:"symbol"`
		FromAddr string `json:"from_addr"`
		ToAddr   string `json:"to_addr"`
		Amount   uint64 `json:"amount"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailTransfer != nil {
		return nil, l.FailTransfer
	}
	from := balanceKey(args.Symbol, args.FromAddr)
	if l.balances[from] < args.Amount {
		return nil, errInsufficientBalance
	}
	l.balances[from] -= args.Amount
	l.balances[balanceKey(args.Symbol, args.ToAddr)] += args.Amount
	l.Transfers++
	return []byte("null"), nil
}

func (l *Ledger) mint(_ string, raw []byte) ([]byte, error) {
	var args struct {
		Symbol string `json:"symbol"`
		ToAddr string `json:"to_addr"`
		Amount uint64 `json:"amount"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailMint != nil {
		return nil, l.FailMint
	}
	l.balances[balanceKey(args.Symbol, args.ToAddr)] += args.Amount
	l.Mints++
	return []byte("null"), nil
}
