package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/offlinefirst/guidecast/pkg/describe"
)

var describeProviders = []string{"anthropic", "openai"}

func authCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API keys for hosted description backends",
	}
	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authStatusCmd())
	cmd.AddCommand(authLogoutCmd())
	return cmd
}

func authLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <provider>",
		Short: "Store an API key in the OS keychain",
		Long: `Store an API key for a hosted description backend.

Example:
  guidecast auth login anthropic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.TrimSpace(args[0])
			if !validProvider(provider) {
				return fmt.Errorf("unknown provider %q (anthropic, openai)", provider)
			}

			key, err := cmd.Flags().GetString("key")
			if err != nil {
				return err
			}
			key = strings.TrimSpace(key)
			if key == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Enter API key: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				key = strings.TrimSpace(string(raw))
			}
			if key == "" {
				return fmt.Errorf("api key cannot be empty")
			}

			if err := describe.NewKeyStore().SetAPIKey(provider, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved API key for %s\n", provider)
			return nil
		},
	}
	cmd.Flags().String("key", "", "API key (optional, overrides prompt)")
	return cmd
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which providers have stored keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := describe.NewKeyStore()
			for _, provider := range describeProviders {
				state := "not configured"
				if keys.HasAPIKey(provider) {
					state = "key stored"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", provider, state)
			}
			return nil
		},
	}
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <provider>",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.TrimSpace(args[0])
			if !validProvider(provider) {
				return fmt.Errorf("unknown provider %q (anthropic, openai)", provider)
			}
			if err := describe.NewKeyStore().DeleteAPIKey(provider); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed API key for %s\n", provider)
			return nil
		},
	}
}

func validProvider(provider string) bool {
	for _, p := range describeProviders {
		if p == provider {
			return true
		}
	}
	return false
}
