package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pdfcraft-gateway/config"
	"pdfcraft-gateway/logging"
	"pdfcraft-gateway/middleware/quota/application"
	"pdfcraft-gateway/middleware/quota/domain"
	"pdfcraft-gateway/middleware/quota/infra"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"
)

var usageKey string

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Inspect or change a caller's usage record",
	Long: `Read or upgrade the usage record of one caller directly in the configured storage.
A bolt database is locked while "gateway serve" runs; stop the server first or
use the HTTP endpoints (GET /v1/usage, POST /v1/upgrade).`,
}

var usageShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show a caller's quota state",
	Example: `  gateway -c config.yaml usage show --key alice`,
	RunE:    runUsageShow,
}

var usageUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Mark a caller as premium (unlimited)",
	Long: `Mark a caller as premium directly in the configured storage.

With storage.type=bolt (the default) the database file is locked by a running
"gateway serve", so this command only works while the server is stopped. To
upgrade callers on a live server, set quota.upgrade_token and call
POST /v1/upgrade with the X-Upgrade-Token header, or use redis/valkey storage.`,
	Example: `  gateway -c config.yaml usage upgrade --key alice`,
	RunE:    runUsageUpgrade,
}

func init() {
	for _, c := range []*cobra.Command{usageShowCmd, usageUpgradeCmd} {
		c.Flags().StringVar(&usageKey, "key", "", "Caller key, as sent in the key header (required)")
		_ = c.MarkFlagRequired("key")
		usageCmd.AddCommand(c)
	}
	rootCmd.AddCommand(usageCmd)
}

// withTracker abre só o storage (sem stats) e monta o Tracker do chamador.
func withTracker(fn func(ctx context.Context, tr application.Tracker) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b := &backends{}
	if _, err := openRecords(ctx, cfg, b, logger); err != nil {
		return storageOpenError(cfg, err)
	}
	defer func() { _ = b.Close() }()

	key := strings.TrimSpace(usageKey)
	if key == "" {
		return errors.New("--key must not be empty")
	}

	return fn(ctx, application.Tracker{
		Store:      b.records,
		Key:        cfg.Quota.KeyPrefix + ":" + key,
		DailyLimit: cfg.Quota.DailyLimit,
		Clock:      infra.SystemClock{Location: cfg.Location()},
		Logger:     &logger,
	})
}

// storageOpenError explica o caso comum: o arquivo bolt está preso por um serve rodando.
func storageOpenError(cfg *config.Config, err error) error {
	if cfg.Storage.Type == "bolt" && errors.Is(err, bbolt.ErrTimeout) {
		return fmt.Errorf("bolt database %s is locked, probably by a running \"gateway serve\": "+
			"stop it first or use POST /v1/upgrade with quota.upgrade_token: %w", cfg.Storage.Bolt.Path, err)
	}
	return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Type, err)
}

func runUsageShow(cmd *cobra.Command, args []string) error {
	return withTracker(func(ctx context.Context, tr application.Tracker) error {
		rec := tr.Initialize(ctx)
		printUsage(tr, rec)
		return nil
	})
}

func runUsageUpgrade(cmd *cobra.Command, args []string) error {
	return withTracker(func(ctx context.Context, tr application.Tracker) error {
		rec := tr.Initialize(ctx)
		rec = tr.UpgradeToPremium(ctx, rec)
		color.New(color.FgGreen, color.Bold).Println("✓ Upgraded to premium")
		printUsage(tr, rec)
		return nil
	})
}

func printUsage(tr application.Tracker, rec domain.UsageRecord) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	fmt.Println()
	cyan.Println("Usage Record")
	fmt.Println(strings.Repeat("─", 40))
	fmt.Printf("  Key:      %s\n", tr.Key)
	fmt.Printf("  Date:     %s\n", rec.Date)
	fmt.Printf("  Count:    %d\n", rec.Count)

	remaining := tr.RemainingUses(rec)
	switch {
	case rec.IsPremium:
		fmt.Print("  Plan:     ")
		green.Println("premium (unlimited)")
	case remaining == 0:
		fmt.Print("  Plan:     free, ")
		red.Println("limit reached")
	default:
		fmt.Print("  Plan:     free, ")
		yellow.Printf("%d remaining today\n", remaining)
	}
	fmt.Println()
}
