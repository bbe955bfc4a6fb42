package asciiart

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"contractkit/contracts/nonfungible"
	cerrors "contractkit/core/errors"
	"contractkit/runtime/runtimetest"
)

func deploy(t *testing.T) (*runtimetest.Context, *runtimetest.Instance) {
	t.Helper()
	ctx := runtimetest.New("asciiart")
	runtimetest.NewLedger().Install(ctx)
	inst, err := runtimetest.Deploy(ctx, Contract(), nil)
	require.NoError(t, err)
	return ctx, inst
}

func TestInitialMint(t *testing.T) {
	ctx, inst := deploy(t)

	n, err := runtimetest.InvokeAs[uint64](inst, ctx, "balance_of", `{"addr":"alice"}`)
	require.NoError(t, err)
	require.EqualValues(t, InitialTokenCount, n)

	for i := 0; i < InitialTokenCount; i++ {
		owner, err := runtimetest.InvokeAs[string](inst, ctx, "owner_of", map[string]string{"token_id": strconv.Itoa(i)})
		require.NoError(t, err)
		require.Equal(t, "alice", owner)
	}

	meta, err := runtimetest.InvokeAs[nonfungible.Metadata](inst, ctx, "details", `{"token_id":"0"}`)
	require.NoError(t, err)
	require.Equal(t, "<><", meta.Payload)

	creator, err := runtimetest.InvokeAs[string](inst, ctx, "creator", nil)
	require.NoError(t, err)
	require.Equal(t, "alice", creator)
}

func TestMintIsControllerGated(t *testing.T) {
	ctx, inst := deploy(t)
	args := `{"token_id":"shark","title":"t","name":"n","description":"d","payload":">==>"}`

	_, err := inst.Invoke(ctx.As("mallory"), "mint", args)
	require.ErrorIs(t, err, cerrors.ErrAuthorization)

	_, err = inst.Invoke(ctx, "mint", args)
	require.NoError(t, err)
	_, err = inst.Invoke(ctx, "mint", args)
	require.ErrorIs(t, err, cerrors.ErrFunctionReturned)
}

func TestOperatorTransfer(t *testing.T) {
	ctx, inst := deploy(t)
	bob := ctx.As("bob")

	_, err := inst.Invoke(bob, "transfer_from", `{"from_addr":"alice","to_addr":"bob","token_id":"1"}`)
	require.ErrorIs(t, err, cerrors.ErrAuthorization)

	_, err = inst.Invoke(ctx, "set_approve_for_all", `{"spender":"bob","approval":true}`)
	require.NoError(t, err)
	ok, err := runtimetest.InvokeAs[bool](inst, ctx, "is_approved_for_all", `{"owner":"alice","spender":"bob"}`)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = inst.Invoke(bob, "transfer_from", `{"from_addr":"alice","to_addr":"bob","token_id":"1"}`)
	require.NoError(t, err)
	owner, err := runtimetest.InvokeAs[string](inst, ctx, "owner_of", `{"token_id":"1"}`)
	require.NoError(t, err)
	require.Equal(t, "bob", owner)
}

func TestUnknownTokenHasNoOwner(t *testing.T) {
	ctx, inst := deploy(t)
	_, err := inst.Invoke(ctx, "owner_of", `{"token_id":"99"}`)
	require.Error(t, err)
	_, err = inst.Invoke(ctx, "name", nil)
	require.NoError(t, err)
}
