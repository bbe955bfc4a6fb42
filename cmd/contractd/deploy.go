package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contractkit/applets"
	"contractkit/config"
	"contractkit/host"
)

// deployAll deploys the ledger under its configured id followed by every
// manifest entry. Entries whose state already exists are attached.
func deployAll(ctx context.Context, h *host.Host, cfg *config.Config, logger *slog.Logger) error {
	deployments := []config.Deployment{{ID: cfg.LedgerContractID, Applet: "ledger", Sender: "system"}}
	if cfg.DeploymentsFile != "" {
		manifest, err := config.LoadDeployments(cfg.DeploymentsFile)
		if err != nil {
			return fmt.Errorf("load deployments: %w", err)
		}
		for _, d := range manifest {
			if d.ID == cfg.LedgerContractID {
				continue
			}
			deployments = append(deployments, d)
		}
	}

	for _, d := range deployments {
		contract, ok := applets.Lookup(d.Applet)
		if !ok {
			return fmt.Errorf("deploy %s: unknown applet %q", d.ID, d.Applet)
		}
		args, err := d.ArgsJSON()
		if err != nil {
			return fmt.Errorf("deploy %s: encode args: %w", d.ID, err)
		}
		resp, err := h.Deploy(ctx, d.ID, contract, d.Sender, args)
		if err != nil {
			return err
		}
		if resp.Err != nil {
			return fmt.Errorf("deploy %s: %w", d.ID, resp.Err)
		}
		logger.Info("contract ready", slog.String("contract", d.ID), slog.String("applet", d.Applet))
	}
	return nil
}

// deliverLoop delivers deferred calls every interval until ctx ends.
func deliverLoop(ctx context.Context, h *host.Host, interval time.Duration, limit int, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := h.DeliverPending(ctx, limit)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("deferred delivery interrupted", slog.Any("error", err))
				}
				continue
			}
			if n > 0 {
				logger.Debug("delivered deferred calls", slog.Int("count", n), slog.Int("pending", h.Pending()))
			}
		}
	}
}
