package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goliatone/go-appstate/internal/app"
	"github.com/goliatone/go-appstate/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	format     string

	cfg    *config.Config
	logger *slog.Logger
	app    *app.App
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "appstate",
		Short:         "Inspect and drive persisted app preferences",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Config file (default ~/.appstate/config.yaml then ./.appstate/config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.format, "format", "yaml", "Output format: yaml or json")

	root.AddCommand(
		c.showCmd(),
		c.localeCmd(),
		c.themeCmd(),
		c.onboardingCmd(),
		c.userCmd(),
		c.authCmd(),
		c.translateCmd(),
		c.gateCmd(),
		c.schemaCmd(),
		c.configCmd(),
	)
	return root
}

// open loads config, wires the app and waits for hydration.
func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	c.cfg = cfg
	c.logger = newLogger(c.stderr, cfg.Log)

	a, err := app.New(cfg, app.Deps{Logger: c.logger})
	if err != nil {
		return err
	}
	if err := a.Start(cmd.Context()); err != nil {
		a.Close()
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		c.logger.Warn("close storage", "error", err)
	}
	c.app = nil
}

// withApp runs fn against a started app.
func (c *cli) withApp(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := c.open(cmd); err != nil {
			return err
		}
		defer c.close()
		return fn(cmd, args)
	}
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *cli) print(value any) error {
	switch strings.ToLower(c.format) {
	case "json":
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case "yaml", "":
		enc := yaml.NewEncoder(c.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", c.format)
	}
}
