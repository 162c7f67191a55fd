package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/BradenHooton/calcvault/internal/clock"
	"github.com/BradenHooton/calcvault/internal/config"
	"github.com/BradenHooton/calcvault/internal/gate"
	"github.com/BradenHooton/calcvault/internal/links"
	"github.com/BradenHooton/calcvault/internal/store"
	pkglogger "github.com/BradenHooton/calcvault/pkg/logger"
)

// vault is what every command operates on
type vault struct {
	gate     *gate.Gate
	registry *links.Registry
	audit    *pkglogger.AuditLogger
	close    func()
}

type openFunc func(ctx context.Context) (*vault, error)

// openConfigured opens the store named by the environment, the same one
// the server uses
func openConfigured(ctx context.Context) (*vault, error) {
	cfg, err := config.LoadStore()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: pkglogger.ParseLevel(cfg.Server.LogLevel),
	}))

	kv, closeStore, err := store.Open(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	clk := clock.New()
	audit := pkglogger.NewAuditLogger(logger)
	return &vault{
		gate:     gate.New(kv, gate.Config{DefaultPIN: cfg.Vault.DefaultPIN}, clk, logger, audit),
		registry: links.NewRegistry(kv, clk, logger, audit),
		audit:    audit,
		close:    closeStore,
	}, nil
}

func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "vaultctl",
		Short: "Administer the calculator vault out of band",
		Long: `vaultctl changes the vault PIN and curates vault links directly against
the configured store, without going through the web admin page.

It reads the same environment as the server (STORE_DRIVER, SQLITE_PATH,
DB_* and VAULT_DEFAULT_PIN).

Examples:
  # Show lockout state and link counts
  vaultctl status

  # Change the PIN
  vaultctl pin change --current 1234 --new 5678

  # Add a Google Drive link
  vaultctl links add https://drive.google.com/file/d/FILE_ID/view --name beach.jpg`,
		SilenceUsage: true,
	}

	root.AddCommand(newStatusCmd(open))
	root.AddCommand(newPinCmd(open))
	root.AddCommand(newLinksCmd(open))
	return root
}

func main() {
	if err := newRootCmd(openConfigured).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withVault opens the vault for the duration of fn
func withVault(cmd *cobra.Command, open openFunc, fn func(ctx context.Context, v *vault) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	v, err := open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open vault store: %w", err)
	}
	defer v.close()

	return fn(ctx, v)
}
