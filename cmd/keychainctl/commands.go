package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/keychainquery/internal/adapter/driven/keyprovider"
	"github.com/ericfisherdev/keychainquery/internal/application"
	"github.com/ericfisherdev/keychainquery/internal/config"
	"github.com/ericfisherdev/keychainquery/internal/domain/model"
)

// queryFlags are the item attributes shared by every store command.
type queryFlags struct {
	service       string
	account       string
	group         string
	label         string
	comment       string
	accessibility string
	sync          string
	legacy        bool
}

func (f *queryFlags) register(fs *pflag.FlagSet, describe bool) {
	fs.StringVarP(&f.service, "service", "s", "", "service name")
	fs.StringVarP(&f.account, "account", "a", "", "account name")
	fs.StringVar(&f.group, "access-group", "", "access group")
	fs.StringVar(&f.sync, "sync", "any", "synchronization mode: any, yes or no")
	fs.BoolVar(&f.legacy, "legacy", false, "target the file-based keychain (macOS 10.15+)")
	if describe {
		fs.StringVar(&f.label, "label", "", "item label")
		fs.StringVar(&f.comment, "comment", "", "item comment")
		fs.StringVar(&f.accessibility, "item-accessibility", "", "accessibility for this item")
	}
}

func (f *queryFlags) query() (*model.Query, error) {
	mode, err := model.ParseSynchronizationMode(f.sync)
	if err != nil {
		return nil, usageError("%v", err)
	}
	access, err := model.ParseAccessibility(f.accessibility)
	if err != nil {
		return nil, usageError("%v", err)
	}

	q := &model.Query{
		Service:             f.service,
		Account:             f.account,
		AccessGroup:         f.group,
		Label:               f.label,
		Comment:             f.comment,
		Accessibility:       access,
		SynchronizationMode: mode,
	}
	if f.legacy {
		q.Backend = model.BackendLegacy
	}
	return q, nil
}

func newSaveCmd(a *app) *cobra.Command {
	var (
		qf        queryFlags
		password  string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save an item, replacing any item with the same identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}

			switch {
			case fromStdin && cmd.Flags().Changed("password"):
				return usageError("--password and --stdin are mutually exclusive")
			case fromStdin:
				secret, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				q.SetSecretText(secret)
			case cmd.Flags().Changed("password"):
				q.SetSecretText(password)
			default:
				return usageError("one of --password or --stdin is required")
			}

			return a.withKeychain(cmd.Context(), func(kc *application.Keychain) error {
				return kc.Save(cmd.Context(), q)
			})
		},
	}
	qf.register(cmd.Flags(), true)
	cmd.Flags().StringVarP(&password, "password", "p", "", "secret to store")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the secret from the first line of stdin")
	return cmd
}

func newFetchCmd(a *app) *cobra.Command {
	var (
		qf     queryFlags
		asHex  bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Print the secret of the first matching item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}

			err = a.withKeychain(cmd.Context(), func(kc *application.Keychain) error {
				return kc.Fetch(cmd.Context(), q)
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != "" {
				return writeFormatted(out, format, fetchedItem(q, asHex))
			}
			if asHex {
				_, err = fmt.Fprintln(out, hex.EncodeToString(q.SecretBytes))
				return err
			}
			secret, err := q.SecretText()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, secret)
			return err
		},
	}
	qf.register(cmd.Flags(), false)
	cmd.Flags().BoolVar(&asHex, "hex", false, "print the secret hex-encoded")
	cmd.Flags().StringVarP(&format, "output", "o", "", "print the item as json or yaml instead of the bare secret")
	return cmd
}

// fetchedOutput is the structured form of a fetched item.
type fetchedOutput struct {
	Service     string `json:"service,omitempty" yaml:"service,omitempty"`
	Account     string `json:"account,omitempty" yaml:"account,omitempty"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Comment     string `json:"comment,omitempty" yaml:"comment,omitempty"`
	AccessGroup string `json:"access_group,omitempty" yaml:"access_group,omitempty"`
	Secret      string `json:"secret,omitempty" yaml:"secret,omitempty"`
	SecretHex   string `json:"secret_hex,omitempty" yaml:"secret_hex,omitempty"`
}

func fetchedItem(q *model.Query, asHex bool) fetchedOutput {
	out := fetchedOutput{
		Service:     q.Service,
		Account:     q.Account,
		Label:       q.Label,
		Comment:     q.Comment,
		AccessGroup: q.AccessGroup,
	}
	if text, err := q.SecretText(); err == nil && !asHex {
		out.Secret = text
	} else {
		out.SecretHex = hex.EncodeToString(q.SecretBytes)
	}
	return out
}

func newDeleteCmd(a *app) *cobra.Command {
	var qf queryFlags

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete every item matching the identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			return a.withKeychain(cmd.Context(), func(kc *application.Keychain) error {
				return kc.Delete(cmd.Context(), q)
			})
		},
	}
	qf.register(cmd.Flags(), false)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		qf     queryFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the attributes of matching items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}

			var items []model.Item
			err = a.withKeychain(cmd.Context(), func(kc *application.Keychain) error {
				items, err = kc.FetchAll(cmd.Context(), q)
				return err
			})
			if err != nil {
				return err
			}
			return writeFormatted(cmd.OutOrStdout(), format, items)
		},
	}
	qf.register(cmd.Flags(), false)
	cmd.Flags().StringVarP(&format, "output", "o", "json", "output format: json or yaml")
	return cmd
}

// probeOutput reports what the effective platform supports.
type probeOutput struct {
	Family               model.OSFamily `json:"family" yaml:"family"`
	Version              string         `json:"version,omitempty" yaml:"version,omitempty"`
	Synchronization      bool           `json:"synchronization" yaml:"synchronization"`
	LegacyMode           bool           `json:"legacy_mode" yaml:"legacy_mode"`
	DefaultAccessibility string         `json:"default_accessibility,omitempty" yaml:"default_accessibility,omitempty"`
}

func newProbeCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report synchronization and legacy-mode support on this platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeFormatted(cmd.OutOrStdout(), format, probeOutput{
				Family:               a.platform.Family,
				Version:              a.platform.Version,
				Synchronization:      model.IsSynchronizationAvailable(a.platform),
				LegacyMode:           model.IsLegacyModeAvailable(a.platform),
				DefaultAccessibility: a.cfg.DefaultAccessibility.Name(),
			})
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func newResetKeyCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset-key",
		Short: "Delete the SQLite master key kept in the OS keyring",
		Long: `reset-key removes the master key that encrypts SQLite item payloads.
Items saved under the old key can no longer be fetched; a new key is
generated on the next save.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.cfg.Store != config.StoreSQLite {
				return usageError("reset-key only applies to the %s store", config.StoreSQLite)
			}
			if a.cfg.SecretKey != nil {
				return usageError("the master key is set by %s_SECRET_KEY, not kept in the keyring", config.EnvPrefix)
			}
			if !force {
				return usageError("pass --force to delete the master key")
			}

			if err := keyprovider.New(a.cfg.KeyringService).Reset(); err != nil {
				return err
			}
			a.logger.Info("master key deleted", zap.String("service", a.cfg.KeyringService))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm that existing secrets become unreadable")
	return cmd
}

func writeFormatted(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return usageError("unknown output format %q", format)
	}
}

// readSecret returns the first line of r without its line terminator.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
