package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"contractkit/config"
	"contractkit/host"
	"contractkit/observability/logging"
	"contractkit/storage"
)

func TestDeployAllFromManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "deployments.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`deployments:
  - id: bank
    applet: ledger
  - id: yutaka
    applet: yutaka
    sender: alice
  - id: first
    applet: xpod_first
    sender: alice
  - id: second
    applet: xpod_second
    sender: alice
`), 0o644))

	cfg := config.Default()
	cfg.StoreBackend = "memory"
	cfg.LedgerContractID = "bank"
	cfg.DeploymentsFile = manifest

	h := host.New(storage.NewMemDB(), host.WithLogger(logging.Discard()), host.WithLedgerID(cfg.LedgerContractID))
	require.NoError(t, deployAll(context.Background(), h, cfg, logging.Discard()))
	require.Equal(t, []string{"bank", "first", "second", "yutaka"}, h.Contracts())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		deliverLoop(ctx, h, 10*time.Millisecond, 0, logging.Discard())
		close(done)
	}()
	_, err := h.Invoke(context.Background(), host.Request{
		ContractID: "first",
		Method:     "set_list_in_second",
		Sender:     "alice",
		Args:       []byte(`{"contract_id":"second","id":"a","val":1}`),
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.Pending() == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestDeployAllRejectsUnknownApplet(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "deployments.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("deployments:\n  - id: x\n    applet: nope\n"), 0o644))

	cfg := config.Default()
	cfg.DeploymentsFile = manifest
	h := host.New(storage.NewMemDB(), host.WithLogger(logging.Discard()))
	require.Error(t, deployAll(context.Background(), h, cfg, logging.Discard()))
}
