// Package nonfungible implements a non-fungible token collection. Each token
// id is also a ledger symbol with a supply of one, so ownership is mirrored in
// the ledger.
package nonfungible

import (
	"fmt"
	"unicode/utf8"

	"contractkit/collections"
	cerrors "contractkit/core/errors"
	"contractkit/core/events"
	"contractkit/ledger"
	"contractkit/runtime"
)

// Collection namespaces. Zero is left free for the embedding contract.
const (
	TokensNamespace     collections.Namespace = 1
	OwnersNamespace     collections.Namespace = 2
	OwnedNamespace      collections.Namespace = 3
	AllowancesNamespace collections.Namespace = 4
)

// maxIDLength bounds token ids in characters, exclusive.
const maxIDLength = 256

// Metadata is fixed at mint time.
type Metadata struct {
	Title       string `json:"title"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Payload     string `json:"payload"`
}

// Token is the collection state. Allowances uses two key shapes:
// "owner$tokenId" for single-token approvals and "owner$" for the owner's
// operator.
type Token struct {
	Name       string                                `json:"name"`
	Creator    string                                `json:"creator"`
	Tokens     collections.Mapping[string, Metadata] `json:"tokens"`
	Owners     collections.Mapping[string, string]   `json:"owners"`
	Owned      collections.Mapping[string, []string] `json:"owned"`
	Allowances collections.Mapping[string, string]   `json:"allowances"`
}

// New creates an empty collection whose creator is the current sender.
func New(ctx runtime.Context, name string) Token {
	return Token{
		Name:       name,
		Creator:    ctx.Sender(),
		Tokens:     collections.NewMapping[string, Metadata](TokensNamespace),
		Owners:     collections.NewMapping[string, string](OwnersNamespace),
		Owned:      collections.NewMapping[string, []string](OwnedNamespace),
		Allowances: collections.NewMapping[string, string](AllowancesNamespace),
	}
}

func isValidID(id string) bool {
	n := utf8.RuneCountInString(id)
	return n > 0 && n < maxIDLength
}

func invalidID(id string) error {
	return fmt.Errorf("`%s` is not a valid token id", id)
}

func tokenAllowanceKey(owner, id string) string { return fmt.Sprintf("%s$%s", owner, id) }

func operatorKey(owner string) string { return fmt.Sprintf("%s$", owner) }

// ownerOf runs the id-format and minted checks shared by every operation.
func (t *Token) ownerOf(ctx runtime.Context, id string) (string, error) {
	if !isValidID(id) {
		return "", invalidID(id)
	}
	owner, found, err := t.Owners.Lookup(ctx.Store(), id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("owner of `%s` is not identified", id)
	}
	return owner, nil
}

func (t *Token) BalanceOf(ctx runtime.Context, addr string) (uint64, error) {
	owned, err := t.Owned.Get(ctx.Store(), addr)
	if err != nil {
		return 0, err
	}
	return uint64(len(owned)), nil
}

func (t *Token) OwnerOf(ctx runtime.Context, id string) (string, error) {
	return t.ownerOf(ctx, id)
}

func (t *Token) Details(ctx runtime.Context, id string) (Metadata, error) {
	if !isValidID(id) {
		return Metadata{}, invalidID(id)
	}
	store := ctx.Store()
	minted, err := t.Owners.Contains(store, id)
	if err != nil {
		return Metadata{}, err
	}
	if !minted {
		return Metadata{}, fmt.Errorf("token `%s` has not been minted", id)
	}
	meta, found, err := t.Tokens.Lookup(store, id)
	if err != nil {
		return Metadata{}, err
	}
	if !found {
		return Metadata{}, fmt.Errorf("token `%s` not found", id)
	}
	return meta, nil
}

// Mint creates id owned by the sender. The ledger mint happens first; if it
// fails nothing is written.
func (t *Token) Mint(ctx runtime.Context, id string, meta Metadata) error {
	if !isValidID(id) {
		return invalidID(id)
	}
	store := ctx.Store()
	minted, err := t.Owners.Contains(store, id)
	if err != nil {
		return err
	}
	if minted {
		return fmt.Errorf("token `%s` is already minted", id)
	}
	owner := ctx.Sender()
	if err := ledger.Mint(ctx, id, owner, 1); err != nil {
		return fmt.Errorf("`%s` could not be minted by the Ledger: %w", id, err)
	}
	if err := t.Tokens.Insert(store, id, meta); err != nil {
		return err
	}
	if err := t.Owners.Insert(store, id, owner); err != nil {
		return err
	}
	if err := t.addOwned(ctx, owner, id); err != nil {
		return err
	}
	ctx.Emit(events.NFTMint{Collection: t.Name, TokenID: id, Owner: owner})
	return nil
}

// Transfer moves id from the sender to to.
func (t *Token) Transfer(ctx runtime.Context, to, id string) error {
	from := ctx.Sender()
	owner, err := t.ownerOf(ctx, id)
	if err != nil {
		return err
	}
	if owner != from {
		return cerrors.Authorization("", fmt.Sprintf("token `%s` not owned by `%s`", id, from))
	}
	return t.move(ctx, id, from, to)
}

// TransferFrom moves id from from to to on behalf of the sender, who must be
// the owner, hold the single-token approval or be the owner's operator.
func (t *Token) TransferFrom(ctx runtime.Context, from, to, id string) error {
	spender := ctx.Sender()
	owner, err := t.ownerOf(ctx, id)
	if err != nil {
		return err
	}
	if owner != from {
		return cerrors.Authorization("", fmt.Sprintf("token `%s` not owned by `%s`", id, from))
	}
	allowed, err := t.mayTransfer(ctx, owner, spender, id)
	if err != nil {
		return err
	}
	if !allowed {
		return cerrors.Authorization("", fmt.Sprintf("transfer of token `%s` not authorized", id))
	}
	return t.move(ctx, id, from, to)
}

func (t *Token) mayTransfer(ctx runtime.Context, owner, spender, id string) (bool, error) {
	if spender == owner {
		return true, nil
	}
	store := ctx.Store()
	for _, key := range []string{tokenAllowanceKey(owner, id), operatorKey(owner)} {
		approved, found, err := t.Allowances.Lookup(store, key)
		if err != nil {
			return false, err
		}
		if found && approved == spender {
			return true, nil
		}
	}
	return false, nil
}

// move is the shared transfer routine. Each step writes immediately, so a
// failure part way leaves the earlier steps applied.
func (t *Token) move(ctx runtime.Context, id, from, to string) error {
	store := ctx.Store()
	if err := ledger.Transfer(ctx, id, from, to, 1); err != nil {
		return fmt.Errorf("`%s` could not be transferred by the Ledger: %w", id, err)
	}
	if err := t.Owners.Insert(store, id, to); err != nil {
		return err
	}
	if err := t.removeOwned(ctx, from, id); err != nil {
		return err
	}
	if err := t.addOwned(ctx, to, id); err != nil {
		return err
	}
	if _, err := t.Allowances.Remove(store, tokenAllowanceKey(from, id)); err != nil {
		return err
	}
	ctx.Emit(events.NFTTransfer{Collection: t.Name, TokenID: id, From: from, To: to})
	return nil
}

func (t *Token) addOwned(ctx runtime.Context, owner, id string) error {
	store := ctx.Store()
	owned, err := t.Owned.Get(store, owner)
	if err != nil {
		return err
	}
	for _, have := range owned {
		if have == id {
			return nil
		}
	}
	return t.Owned.Insert(store, owner, append(owned, id))
}

func (t *Token) removeOwned(ctx runtime.Context, owner, id string) error {
	store := ctx.Store()
	owned, err := t.Owned.Get(store, owner)
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		return cerrors.InternalInconsistency("", fmt.Sprintf("owned token set of `%s` is empty", owner))
	}
	kept := owned[:0]
	for _, have := range owned {
		if have != id {
			kept = append(kept, have)
		}
	}
	return t.Owned.Insert(store, owner, kept)
}

// Approve grants spender the right to move id. An empty spender clears the
// approval.
func (t *Token) Approve(ctx runtime.Context, spender, id string) error {
	sender := ctx.Sender()
	owner, err := t.ownerOf(ctx, id)
	if err != nil {
		return err
	}
	if owner != sender {
		return cerrors.Authorization("", fmt.Sprintf("allowance of token `%s` not authorized", id))
	}
	store := ctx.Store()
	key := tokenAllowanceKey(sender, id)
	if spender == "" {
		if _, err := t.Allowances.Remove(store, key); err != nil {
			return err
		}
	} else if err := t.Allowances.Insert(store, key, spender); err != nil {
		return err
	}
	ctx.Emit(events.NFTApproval{Collection: t.Name, TokenID: id, Owner: sender, Spender: spender})
	return nil
}

// SetApproveForAll sets or clears the sender's operator. An owner has at most
// one operator.
func (t *Token) SetApproveForAll(ctx runtime.Context, spender string, approval bool) error {
	sender := ctx.Sender()
	store := ctx.Store()
	key := operatorKey(sender)
	if approval {
		if err := t.Allowances.Insert(store, key, spender); err != nil {
			return err
		}
	} else if _, err := t.Allowances.Remove(store, key); err != nil {
		return err
	}
	ctx.Emit(events.NFTApprovalForAll{Collection: t.Name, Owner: sender, Operator: spender, Approved: approval})
	return nil
}

// GetApproved lists the single-token approval followed by the owner's
// operator, each only when present.
func (t *Token) GetApproved(ctx runtime.Context, id string) ([]string, error) {
	owner, err := t.ownerOf(ctx, id)
	if err != nil {
		return nil, err
	}
	store := ctx.Store()
	approved := make([]string, 0, 2)
	for _, key := range []string{tokenAllowanceKey(owner, id), operatorKey(owner)} {
		who, found, err := t.Allowances.Lookup(store, key)
		if err != nil {
			return nil, err
		}
		if found {
			approved = append(approved, who)
		}
	}
	return approved, nil
}

func (t *Token) IsApprovedForAll(ctx runtime.Context, owner, spender string) (bool, error) {
	operator, found, err := t.Allowances.Lookup(ctx.Store(), operatorKey(owner))
	if err != nil {
		return false, err
	}
	return found && operator == spender, nil
}
