package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litreview/internal/logging"
	"github.com/pdiddy/litreview/internal/secrets"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/internal/templates"
	"github.com/pdiddy/litreview/pkg/types"
)

// commandContext carries configuration shared by every subcommand.
type commandContext struct {
	v          *viper.Viper
	configFile string
	secretsDir string

	cfg    types.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "litreview",
		Short: "Manage systematic literature reviews",
		Long: `litreview tracks papers through dual screening, records structured data
extraction against YAML templates, computes inter-rater reliability
(Cohen's kappa), and suggests themes by clustering extracted findings.

Paper metadata lives elsewhere; litreview refers to papers by opaque id.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.configFile, "config", "", "config file (default: ./litreview.yaml or ~/.config/litreview/litreview.yaml)")
	flags.StringVar(&ctx.secretsDir, "secrets-dir", secrets.DefaultDir, "directory of secret files")
	flags.String("db", "", "review database path (overrides store.path)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = ctx.v.BindPFlag("store.path", flags.Lookup("db"))
	_ = ctx.v.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(
		newReviewCommand(ctx),
		newScreenCommand(ctx),
		newExtractCommand(ctx),
		newTemplatesCommand(ctx),
		newReliabilityCommand(ctx),
		newThemesCommand(ctx),
		newVersionCommand(),
	)
	return rootCmd
}

// load reads configuration from defaults, the config file, LITREVIEW_*
// environment variables and flags, in increasing precedence.
func (c *commandContext) load(cmd *cobra.Command) error {
	setDefaults(c.v, types.DefaultConfig())

	if c.configFile != "" {
		c.v.SetConfigFile(c.configFile)
	} else {
		c.v.SetConfigName("litreview")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			c.v.AddConfigPath(filepath.Join(home, ".config", "litreview"))
		}
	}

	c.v.SetEnvPrefix("LITREVIEW")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if err := c.v.Unmarshal(&c.cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	logger, err := logging.Setup(logging.Options{
		Level:  c.cfg.Log.Level,
		Format: c.cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	c.logger = logger
	if used := c.v.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", "path", used)
	}

	if c.cfg.Embedding.APIKey == "" {
		key, err := secrets.Lookup(c.secretsDir, secrets.EmbeddingAPIKey)
		if err != nil {
			return err
		}
		c.cfg.Embedding.APIKey = key
	}
	return nil
}

func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("templates.dir", d.Templates.Dir)
	v.SetDefault("themes.eps", d.Themes.Eps)
	v.SetDefault("themes.min_points", d.Themes.MinPoints)
	v.SetDefault("themes.max_quotes", d.Themes.MaxQuotes)
	v.SetDefault("themes.default_field", d.Themes.DefaultField)
	v.SetDefault("themes.snapshot_dir", d.Themes.SnapshotDir)
	v.SetDefault("embedding.base_url", d.Embedding.BaseURL)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)
	v.SetDefault("embedding.concurrency", d.Embedding.Concurrency)
	v.SetDefault("embedding.max_retries", d.Embedding.MaxRetries)
	v.SetDefault("embedding.timeout", d.Embedding.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func (c *commandContext) openStore() (*store.Store, error) {
	return store.Open(c.cfg.Store.Path)
}

func (c *commandContext) templateLoader() *templates.Loader {
	return templates.NewLoader(c.cfg.Templates.Dir)
}

// withStore opens the review database for the duration of fn.
func (c *commandContext) withStore(fn func(*store.Store) error) error {
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
