package cmd

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arin/locus/internal/ai"
	"github.com/arin/locus/internal/config"
	"github.com/arin/locus/internal/lens"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage provider, credential and model settings",
}

var setProviderCmd = &cobra.Command{
	Use:   "set-provider <openai|gemini|anthropic|custom>",
	Short: "Choose which provider answers queries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := ai.ParseProviderKind(args[0])
		if err != nil {
			return err
		}
		if err := config.DefaultStore().Set(config.KeyProvider, string(p)); err != nil {
			return fmt.Errorf("failed to save provider: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Provider set to %s.\n", p)
		return nil
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Save the API key for the selected provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DefaultStore().Set(config.KeyAPIKey, strings.TrimSpace(args[0])); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key saved successfully.")
		return nil
	},
}

var clearKeyCmd = &cobra.Command{
	Use:   "clear-key",
	Short: "Forget the saved API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DefaultStore().Delete(config.KeyAPIKey); err != nil {
			return fmt.Errorf("failed to clear API key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
		return nil
	},
}

var setCustomCmd = &cobra.Command{
	Use:   "set-custom <base-url> <model>",
	Short: "Point the custom provider at an OpenAI-compatible endpoint",
	Long: `Configure an OpenAI-compatible server (Ollama, LM Studio, vLLM, a proxy).
The base URL is the part before /chat/completions, for example
http://localhost:11434/v1. An API key is optional for custom endpoints.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := strings.TrimSpace(args[0])
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base URL %q: expected something like http://localhost:11434/v1", base)
		}
		store := config.DefaultStore()
		if err := store.Set(config.KeyCustomBaseURL, base); err != nil {
			return fmt.Errorf("failed to save base URL: %w", err)
		}
		if err := store.Set(config.KeyCustomModelName, strings.TrimSpace(args[1])); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Custom endpoint set to %s (model %s).\n", base, args[1])
		return nil
	},
}

var setGeminiModelCmd = &cobra.Command{
	Use:   "set-gemini-model <model-name>",
	Short: "Set the Gemini model (default: gemini-1.5-flash)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DefaultStore().Set(config.KeyGeminiModelName, strings.TrimSpace(args[0])); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Gemini model set to %s.\n", args[0])
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.DefaultStore())
		if err != nil {
			return err
		}
		p := cfg.Profile()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Provider:   %s\n", cfg.Provider)
		fmt.Fprintf(out, "API Key:    %s\n", cfg.MaskedKey())
		fmt.Fprintf(out, "Model:      %s\n", displayOr(p.Model, "(default)"))
		if cfg.Provider == ai.ProviderCustom {
			fmt.Fprintf(out, "Endpoint:   %s\n", displayOr(p.Endpoint, "(not set)"))
		}
		fmt.Fprintf(out, "Config Dir: %s\n", config.Dir())
		fmt.Fprintf(out, "Lenses:     %s\n", filepath.Join(config.Dir(), lens.OverrideFile))
		return nil
	},
}

func displayOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func init() {
	configCmd.AddCommand(setProviderCmd)
	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(clearKeyCmd)
	configCmd.AddCommand(setCustomCmd)
	configCmd.AddCommand(setGeminiModelCmd)
	configCmd.AddCommand(showCmd)
}
