package yutaka

import (
	"testing"

	"github.com/stretchr/testify/require"

	cerrors "contractkit/core/errors"
	"contractkit/runtime/runtimetest"
)

func deploy(t *testing.T) (*runtimetest.Context, *runtimetest.Ledger, *runtimetest.Instance) {
	t.Helper()
	ctx := runtimetest.New("yutaka")
	l := runtimetest.NewLedger().Install(ctx)
	inst, err := runtimetest.Deploy(ctx, Contract(), nil)
	require.NoError(t, err)
	return ctx, l, inst
}

func TestInitMintsSupplyToDeployer(t *testing.T) {
	ctx, l, inst := deploy(t)

	require.EqualValues(t, InitialSupply, l.Balance(Symbol, "alice"))
	supply, err := runtimetest.InvokeAs[uint64](inst, ctx, "total_supply", nil)
	require.NoError(t, err)
	require.Equal(t, InitialSupply, supply)

	raw, err := inst.Invoke(ctx, "details", nil)
	require.NoError(t, err)
	require.JSONEq(t, `["Yutaka","YTK",6]`, string(raw))

	name, err := runtimetest.InvokeAs[string](inst, ctx, "name", nil)
	require.NoError(t, err)
	require.Equal(t, Name, name)
}

func TestTransferAndBalance(t *testing.T) {
	ctx, l, inst := deploy(t)

	_, err := inst.Invoke(ctx, "transfer", `{"to_addr":"bob","amount":250}`)
	require.NoError(t, err)
	require.EqualValues(t, 250, l.Balance(Symbol, "bob"))

	bal, err := runtimetest.InvokeAs[uint64](inst, ctx, "balance_for", map[string]string{"addr": "bob"})
	require.NoError(t, err)
	require.EqualValues(t, 250, bal)

	_, err = inst.Invoke(ctx.As("carol"), "transfer", `{"to_addr":"bob","amount":1}`)
	require.ErrorIs(t, err, cerrors.ErrFunctionReturned)
}

func TestAllowanceFlow(t *testing.T) {
	ctx, l, inst := deploy(t)

	_, err := inst.Invoke(ctx, "approve", `{"spender":"bob","amount":100}`)
	require.NoError(t, err)

	bob := ctx.As("bob")
	_, err = inst.Invoke(bob, "transfer_from", `{"from_addr":"alice","to_addr":"carol","amount":60}`)
	require.NoError(t, err)
	require.EqualValues(t, 60, l.Balance(Symbol, "carol"))

	left, err := runtimetest.InvokeAs[uint64](inst, ctx, "allowance", `{"owner":"alice","spender":"bob"}`)
	require.NoError(t, err)
	require.EqualValues(t, 40, left)

	_, err = inst.Invoke(bob, "transfer_from", `{"from_addr":"alice","to_addr":"carol","amount":41}`)
	require.ErrorIs(t, err, cerrors.ErrFunctionReturned)
}

func TestMissingArgs(t *testing.T) {
	ctx, _, inst := deploy(t)
	_, err := inst.Invoke(ctx, "transfer", "")
	require.ErrorIs(t, err, cerrors.ErrArgumentDecoding)

	_, err = inst.Invoke(ctx, "burn", nil)
	require.ErrorIs(t, err, cerrors.ErrMethodNotFound)
}
