package ledger

import (
	"errors"
	"fmt"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"contractkit/storage"
)

var (
	ErrEmptySymbol         = errors.New("ledger: symbol must not be empty")
	ErrEmptyAddress        = errors.New("ledger: address must not be empty")
	ErrUnknownToken        = errors.New("ledger: token not registered")
	ErrMintAuthority       = errors.New("ledger: caller is not the mint authority")
	ErrUnauthorized        = errors.New("ledger: caller may not move these funds")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrBalanceOverflow     = errors.New("ledger: balance overflow")
)

// TokenMetadata is registered on the first mint of a symbol.
type TokenMetadata struct {
	Symbol        string
	MintAuthority string
	Supply        *uint256.Int
}

var (
	tokenPrefix   = []byte("token:")
	tokenListKey  = ethcrypto.Keccak256([]byte("token-list"))
	balancePrefix = []byte("balance:")
)

func tokenMetadataKey(symbol string) []byte {
	buf := make([]byte, len(tokenPrefix)+len(symbol))
	copy(buf, tokenPrefix)
	copy(buf[len(tokenPrefix):], symbol)
	return ethcrypto.Keccak256(buf)
}

func balanceKey(addr, symbol string) []byte {
	buf := make([]byte, len(balancePrefix)+len(symbol)+1+len(addr))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], symbol)
	buf[len(balancePrefix)+len(symbol)] = ':'
	copy(buf[len(balancePrefix)+len(symbol)+1:], addr)
	return ethcrypto.Keccak256(buf)
}

// accounts reads and writes ledger records in a contract key space.
type accounts struct {
	store storage.KeyedStore
}

func (a accounts) loadTokenList() ([]string, error) {
	data, found, err := a.store.Read(tokenListKey)
	if err != nil || !found {
		return nil, err
	}
	var list []string
	if err := rlp.DecodeBytes(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (a accounts) writeTokenList(list []string) error {
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	return a.store.Write(tokenListKey, encoded)
}

func (a accounts) token(symbol string) (*TokenMetadata, error) {
	data, found, err := a.store.Read(tokenMetadataKey(symbol))
	if err != nil || !found {
		return nil, err
	}
	meta := new(TokenMetadata)
	if err := rlp.DecodeBytes(data, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (a accounts) writeToken(meta *TokenMetadata) error {
	encoded, err := rlp.EncodeToBytes(meta)
	if err != nil {
		return err
	}
	return a.store.Write(tokenMetadataKey(meta.Symbol), encoded)
}

// registerToken records symbol with authority as its only minter.
func (a accounts) registerToken(symbol, authority string) (*TokenMetadata, error) {
	list, err := a.loadTokenList()
	if err != nil {
		return nil, err
	}
	list = append(list, symbol)
	sort.Strings(list)
	if err := a.writeTokenList(list); err != nil {
		return nil, err
	}
	meta := &TokenMetadata{Symbol: symbol, MintAuthority: authority, Supply: new(uint256.Int)}
	return meta, a.writeToken(meta)
}

func (a accounts) balance(addr, symbol string) (*uint256.Int, error) {
	data, found, err := a.store.Read(balanceKey(addr, symbol))
	if err != nil {
		return nil, err
	}
	amount := new(uint256.Int)
	if !found || len(data) == 0 {
		return amount, nil
	}
	if err := rlp.DecodeBytes(data, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (a accounts) setBalance(addr, symbol string, amount *uint256.Int) error {
	if addr == "" {
		return ErrEmptyAddress
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return a.store.Write(balanceKey(addr, symbol), encoded)
}

// credit adds amount to addr. Balances are kept within uint64 because that is
// what callers can observe.
func (a accounts) credit(addr, symbol string, amount uint64) error {
	current, err := a.balance(addr, symbol)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(current, uint256.NewInt(amount))
	if overflow || !next.IsUint64() {
		return fmt.Errorf("%w: %s of %s", ErrBalanceOverflow, addr, symbol)
	}
	return a.setBalance(addr, symbol, next)
}

func (a accounts) debit(addr, symbol string, amount uint64) error {
	current, err := a.balance(addr, symbol)
	if err != nil {
		return err
	}
	delta := uint256.NewInt(amount)
	if current.Lt(delta) {
		return fmt.Errorf("%w: %s holds %s %s, needs %d", ErrInsufficientBalance, addr, current.Dec(), symbol, amount)
	}
	return a.setBalance(addr, symbol, new(uint256.Int).Sub(current, delta))
}
