package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ericfisherdev/keychainquery/internal/adapter/driven/host"
	"github.com/ericfisherdev/keychainquery/internal/application"
	"github.com/ericfisherdev/keychainquery/internal/config"
	"github.com/ericfisherdev/keychainquery/internal/domain/model"
)

// errUsage marks command-line mistakes.
var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// app carries what PersistentPreRunE resolves for the subcommands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	platform model.Platform
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "keychainctl",
		Short: "Manage generic-password keychain items",
		Long: `keychainctl saves, fetches, lists and deletes generic-password items.

Items are kept in a local encrypted SQLite database by default, or in the
operating system keyring with --store oskeyring. Every flag can also be set
with a KEYCHAINQUERY_* environment variable or a YAML file named by
KEYCHAINQUERY_CONFIG.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = a.logger.Sync() },
	}

	pf := root.PersistentFlags()
	pf.String("store", "", "secure store backend: sqlite or oskeyring")
	pf.String("db-path", "", "SQLite database path")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-file", "", "also write JSON logs to this rotating file")
	pf.String("platform", "", "override the detected OS family (macos, ios, linux, windows)")
	pf.String("platform-version", "", "override the detected OS version")
	pf.String("accessibility", "", "default accessibility for saved items")

	root.AddCommand(
		newSaveCmd(a),
		newFetchCmd(a),
		newDeleteCmd(a),
		newListCmd(a),
		newProbeCmd(a),
		newResetKeyCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFile, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.platform = cfg.Platform(host.Detect())

	logger.Debug("config loaded",
		zap.String("store", cfg.Store),
		zap.String("db_path", cfg.DBPath),
		zap.Stringer("platform", a.platform),
		zap.Strings("access_groups", cfg.AccessGroups),
	)
	return nil
}

// withKeychain opens the configured store, runs fn against a Keychain over
// it and closes the store again.
func (a *app) withKeychain(ctx context.Context, fn func(*application.Keychain) error) error {
	store, closeStore, err := openStore(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			a.logger.Error("error closing store", zap.Error(closeErr))
		}
	}()

	kc := application.NewKeychain(store,
		application.WithPlatform(a.platform),
		application.WithDefaultAccessibility(a.cfg.DefaultAccessibility),
		application.WithLogger(a.logger),
	)
	return fn(kc)
}
