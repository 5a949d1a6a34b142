package main

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-appstate/internal/config"
	"github.com/goliatone/go-appstate/pkg/theme"
	"github.com/spf13/cobra"
)

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every store's state",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			return c.print(c.app.Snapshot())
		}),
	}
}

func (c *cli) localeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locale",
		Short: "Manage the selected language",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <code>",
		Short: "Select a language",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			c.app.Locale.ChangeLocale(cmd.Context(), args[0])
			return c.print(c.app.Locale.Fields())
		}),
	})
	return cmd
}

func (c *cli) themeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Manage the color theme",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "set <light|dark>",
		Short:     "Select a theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(theme.Light), string(theme.Dark)},
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			mode, err := theme.ParseMode(strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			if err := c.app.Theme.ChangeTheme(cmd.Context(), mode); err != nil {
				return err
			}
			return c.print(c.app.Theme.Fields())
		}),
	})
	return cmd
}

func (c *cli) onboardingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Manage the onboarding flag",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "seen",
		Short: "Mark onboarding as seen",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			c.app.User.SetIsOnboardingSeen(true)
			return c.print(c.app.User.Fields())
		}),
	})
	return cmd
}

func (c *cli) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Account operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Delete the stored authentication token",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			if err := c.app.DeleteUser(cmd.Context()); err != nil {
				return err
			}
			return c.print(c.app.Snapshot())
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "wipe",
		Short: "Delete all stored data, including the onboarding flag",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			if err := c.app.WipeData(cmd.Context()); err != nil {
				return err
			}
			return c.print(c.app.Snapshot())
		}),
	})
	return cmd
}

func (c *cli) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in or out",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "login <token>",
		Short: "Store a token and mark the session authenticated",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			if err := c.app.Auth.SignIn(cmd.Context(), c.app.KV(), args[0]); err != nil {
				return err
			}
			return c.print(c.app.Auth.Fields())
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Remove the token",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			if err := c.app.Auth.SignOut(cmd.Context(), c.app.KV()); err != nil {
				return err
			}
			return c.print(c.app.Auth.Fields())
		}),
	})
	return cmd
}

func (c *cli) translateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "t <key> [name=value...]",
		Short: "Translate a message key in the selected language",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			params := map[string]any{}
			for _, pair := range args[1:] {
				name, value, ok := strings.Cut(pair, "=")
				if !ok || name == "" {
					return fmt.Errorf("invalid parameter %q, want name=value", pair)
				}
				params[name] = value
			}
			_, err := fmt.Fprintln(c.stdout, c.app.I18n.T(args[0], params))
			return err
		}),
	}
}

func (c *cli) gateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gate",
		Short: "Print the startup destination: onboarding, auth or home",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			destination, err := c.app.Gate()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.stdout, destination)
			return err
		}),
	}
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GlobalConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			_, err := fmt.Fprintln(c.stdout, path)
			return err
		},
	})
	return cmd
}

func (c *cli) schemaCmd() *cobra.Command {
	var flat bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Describe every store record",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			if flat {
				return c.print(c.app.Paths())
			}
			return c.print(c.app.Schemas())
		}),
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "Print dotted field paths and types instead of JSON Schema")
	return cmd
}
