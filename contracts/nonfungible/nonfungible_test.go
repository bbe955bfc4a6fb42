package nonfungible

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	cerrors "contractkit/core/errors"
	"contractkit/runtime/runtimetest"
)

var fish = Metadata{Title: "A fish going left!", Name: "fish 1", Description: "ascii fish", Payload: "<><"}

func setup(t *testing.T) (*runtimetest.Context, *runtimetest.Ledger, *Token) {
	t.Helper()
	ctx := runtimetest.New("asciiart")
	stub := runtimetest.NewLedger().Install(ctx)
	tok := New(ctx, "AsciiArt")
	return ctx, stub, &tok
}

func owned(t *testing.T, ctx *runtimetest.Context, tok *Token, addr string) []string {
	t.Helper()
	ids, err := tok.Owned.Get(ctx.Store(), addr)
	require.NoError(t, err)
	return ids
}

func TestMintTwiceFails(t *testing.T) {
	ctx, stub, tok := setup(t)

	require.NoError(t, tok.Mint(ctx, "42", fish))
	err := tok.Mint(ctx.As("bob"), "42", fish)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already minted")

	owner, err := tok.OwnerOf(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, "alice", owner)
	require.Equal(t, 1, stub.Mints)
	require.Equal(t, uint64(1), stub.Balance("42", "alice"))
}

func TestMintRejectsInvalidIDs(t *testing.T) {
	ctx, stub, tok := setup(t)

	require.Error(t, tok.Mint(ctx, "", fish))
	require.Error(t, tok.Mint(ctx, strings.Repeat("x", 256), fish))
	require.NoError(t, tok.Mint(ctx, strings.Repeat("x", 255), fish))
	require.Equal(t, 1, stub.Mints)
}

func TestMintLedgerFailureWritesNothing(t *testing.T) {
	ctx, stub, tok := setup(t)
	stub.FailMint = errors.New("symbol taken")

	require.Error(t, tok.Mint(ctx, "7", fish))
	minted, err := tok.Owners.Contains(ctx.Store(), "7")
	require.NoError(t, err)
	require.False(t, minted)
	require.Zero(t, ctx.DB().Len())
}

func TestTransferByNonOwner(t *testing.T) {
	ctx, _, tok := setup(t)
	require.NoError(t, tok.Mint(ctx, "1", fish))

	err := tok.Transfer(ctx.As("mallory"), "mallory", "1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not owned by")
	require.ErrorIs(t, err, cerrors.ErrAuthorization)

	require.Equal(t, []string{"1"}, owned(t, ctx, tok, "alice"))
	require.Empty(t, owned(t, ctx, tok, "mallory"))
}

func TestTransferClearsSingleTokenApprovalOnly(t *testing.T) {
	ctx, stub, tok := setup(t)
	require.NoError(t, tok.Mint(ctx, "1", fish))
	require.NoError(t, tok.Mint(ctx, "2", fish))
	require.NoError(t, tok.Approve(ctx, "bob", "1"))
	require.NoError(t, tok.SetApproveForAll(ctx, "operator", true))

	approved, err := tok.GetApproved(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, []string{"bob", "operator"}, approved)

	require.NoError(t, tok.TransferFrom(ctx.As("bob"), "alice", "carol", "1"))
	require.Equal(t, uint64(1), stub.Balance("1", "carol"))
	require.Equal(t, []string{"2"}, owned(t, ctx, tok, "alice"))
	require.Equal(t, []string{"1"}, owned(t, ctx, tok, "carol"))

	approved, err = tok.GetApproved(ctx, "1")
	require.NoError(t, err)
	require.Empty(t, approved)

	// alice's operator still covers her remaining token.
	require.NoError(t, tok.TransferFrom(ctx.As("operator"), "alice", "dave", "2"))
	ok, err := tok.IsApprovedForAll(ctx, "alice", "operator")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTransferFromUnauthorized(t *testing.T) {
	ctx, _, tok := setup(t)
	require.NoError(t, tok.Mint(ctx, "1", fish))

	err := tok.TransferFrom(ctx.As("bob"), "alice", "bob", "1")
	require.ErrorIs(t, err, cerrors.ErrAuthorization)
	require.Contains(t, err.Error(), "not authorized")

	err = tok.TransferFrom(ctx.As("bob"), "carol", "bob", "1")
	require.Contains(t, err.Error(), "not owned by")
}

func TestApproveRequiresOwnerAndEmptySpenderClears(t *testing.T) {
	ctx, _, tok := setup(t)
	require.NoError(t, tok.Mint(ctx, "1", fish))

	require.ErrorIs(t, tok.Approve(ctx.As("bob"), "bob", "1"), cerrors.ErrAuthorization)

	require.NoError(t, tok.Approve(ctx, "bob", "1"))
	require.NoError(t, tok.Approve(ctx, "", "1"))
	approved, err := tok.GetApproved(ctx, "1")
	require.NoError(t, err)
	require.Empty(t, approved)
}

func TestQueriesCheckIDThenMinted(t *testing.T) {
	ctx, _, tok := setup(t)

	_, err := tok.Details(ctx, "")
	require.ErrorContains(t, err, "not a valid token id")
	_, err = tok.Details(ctx, "9")
	require.ErrorContains(t, err, "has not been minted")
	_, err = tok.OwnerOf(ctx, "9")
	require.ErrorContains(t, err, "is not identified")
	_, err = tok.GetApproved(ctx, "9")
	require.Error(t, err)

	require.NoError(t, tok.Mint(ctx, "9", fish))
	meta, err := tok.Details(ctx.ReadOnly(), "9")
	require.NoError(t, err)
	require.Equal(t, fish, meta)

	balance, err := tok.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, uint64(1), balance)
	balance, err = tok.BalanceOf(ctx, "nobody")
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestTransferWithEmptyOwnedSetIsInconsistent(t *testing.T) {
	ctx, stub, tok := setup(t)
	require.NoError(t, tok.Mint(ctx, "1", fish))
	_, err := tok.Owned.Remove(ctx.Store(), "alice")
	require.NoError(t, err)

	err = tok.Transfer(ctx, "bob", "1")
	require.ErrorIs(t, err, cerrors.ErrInternalInconsistent)

	// The ledger and owners steps already ran.
	require.Equal(t, uint64(1), stub.Balance("1", "bob"))
	owner, err := tok.OwnerOf(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "bob", owner)
}
