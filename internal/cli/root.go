// Package cli implements the seogen command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/FranksOps/seogen/internal/config"
	"github.com/FranksOps/seogen/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context) error {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Each call gets its own viper
// instance so commands can be run repeatedly in tests.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "seogen",
		Short: "Generate H1, title and meta description from competitor results",
		Long: `seogen scrapes the top search results for up to ten keywords, summarizes
competitor titles and snippets, and asks a chat-completion model for an H1,
title tag and meta description per keyword. Results are exported as CSV,
a Word document or JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./seogen.yaml if present)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")

	root.AddCommand(
		newRunCommand(a),
		newSummarizeCommand(a),
		newConvertCommand(a),
		newVersionCommand(a),
	)
	return root
}

// init reads the config file and environment, then builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	config.SetDefaults(a.v)
	config.BindEnv(a.v)
	if err := a.bindFlags(cmd); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.SetConfigName("seogen")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.New(a.stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(a.logger)

	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("loaded config file", "path", used)
	}
	return nil
}

// flagKeys maps flag names to the config keys they override. Flags are
// bound for the executing command only, since several commands share names.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"log-format":     "log.format",
	"format":         "output.format",
	"output":         "output.path",
	"engine":         "serp.engine",
	"results":        "serp.results",
	"model":          "openai.model",
	"sink":           "sink.dsn",
	"metrics-port":   "metrics.port",
	"fingerprint":    "serp.fingerprint",
	"proxy-file":     "serp.proxy_file",
	"rps":            "serp.rps",
	"respect-robots": "serp.respect_robots",
}

// bindFlags ties cmd's flags to their config keys. A flag wins over the
// environment and the config file only when it was set explicitly.
func (a *app) bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && err == nil {
			err = a.v.BindPFlag(key, f)
		}
	})
	return err
}
