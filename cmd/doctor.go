package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/locus/internal/ai"
	"github.com/arin/locus/internal/config"
	"github.com/arin/locus/internal/history"
	"github.com/arin/locus/internal/lens"
	"github.com/arin/locus/internal/logging"
	"github.com/arin/locus/internal/ui"
)

var doctorProbe bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and provider health",
	Long: `Run a health check on your locus setup: settings, credentials, the custom
endpoint, lens overrides, the reading log and clipboard support.

With --probe, a one-line query is sent to the configured provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		dim := color.New(color.FgHiBlack)
		cyan := color.New(color.FgCyan, color.Bold)

		cyan.Fprintf(os.Stderr, "\n  🩺 locus doctor\n\n")

		pass, fail, warn := 0, 0, 0

		check := func(name string, fn func() (string, error)) {
			detail, err := fn()
			if err != nil {
				if strings.HasPrefix(err.Error(), "warn:") {
					yellow.Fprintf(os.Stderr, "  ⚠ %s\n", name)
					dim.Fprintf(os.Stderr, "    %s\n", strings.TrimPrefix(err.Error(), "warn:"))
					warn++
				} else {
					red.Fprintf(os.Stderr, "  ✗ %s\n", name)
					dim.Fprintf(os.Stderr, "    %s\n", err.Error())
					fail++
				}
			} else {
				green.Fprintf(os.Stderr, "  ✓ %s", name)
				if detail != "" {
					dim.Fprintf(os.Stderr, " (%s)", detail)
				}
				fmt.Fprintln(os.Stderr)
				pass++
			}
		}

		check("Config directory", func() (string, error) {
			dir := config.Dir()
			info, err := os.Stat(dir)
			if err != nil {
				return "", fmt.Errorf("warn:%s not found; it will be created on first use", dir)
			}
			if !info.IsDir() {
				return "", fmt.Errorf("%s exists but is not a directory", dir)
			}
			return dir, nil
		})

		cfg, cfgErr := config.Load(config.DefaultStore())
		check("Settings", func() (string, error) {
			if cfgErr != nil {
				return "", cfgErr
			}
			return "provider " + string(cfg.Provider), nil
		})
		if cfgErr == nil {
			check("API key", func() (string, error) {
				return checkCredential(cfg)
			})
			if cfg.Provider == ai.ProviderCustom {
				check("Custom endpoint reachable", func() (string, error) {
					return checkEndpoint(cmd.Context(), cfg.CustomBaseURL)
				})
			}
		}

		check("Lens overrides", func() (string, error) {
			path := filepath.Join(config.Dir(), lens.OverrideFile)
			catalog, err := lens.Load(config.Dir())
			if err != nil {
				return "", err
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Sprintf("%d builtin lenses", len(catalog.List())), nil
			}
			return fmt.Sprintf("%d lenses, %s", len(catalog.List()), path), nil
		})

		check("Reading log", func() (string, error) {
			l, err := history.Open(history.DefaultPath())
			if err != nil {
				return "", err
			}
			defer l.Close()
			n, err := l.Count()
			if err != nil {
				return "", err
			}
			return humanize.Comma(int64(n)) + " entries", nil
		})

		check("Clipboard", func() (string, error) {
			if clipboard.Unsupported {
				return "", fmt.Errorf("warn:no clipboard utility found; /copy will be unavailable")
			}
			return "", nil
		})

		check("System info", func() (string, error) {
			return fmt.Sprintf("%s/%s, %s", runtime.GOOS, runtime.GOARCH, version), nil
		})

		if doctorProbe && cfgErr == nil {
			check("Provider probe", func() (string, error) {
				return probeProvider(cmd.Context(), cfg, dim)
			})
		}

		fmt.Fprintln(os.Stderr)
		total := pass + fail + warn
		if fail == 0 && warn == 0 {
			green.Fprintf(os.Stderr, "  All %d checks passed. Happy reading.\n\n", total)
		} else if fail == 0 {
			yellow.Fprintf(os.Stderr, "  %d passed, %d warnings. Everything works, but some things could be better.\n\n", pass, warn)
		} else {
			red.Fprintf(os.Stderr, "  %d passed, %d failed, %d warnings. Fix the failures above.\n\n", pass, fail, warn)
		}
		return nil
	},
}

func checkCredential(cfg *config.Settings) (string, error) {
	if cfg.APIKey != nil && *cfg.APIKey != "" {
		return cfg.MaskedKey(), nil
	}
	if cfg.Provider == ai.ProviderCustom {
		return "", fmt.Errorf("warn:no key set; fine for local servers that need none")
	}
	return "", fmt.Errorf("no key set; run: locus config set-key <key>")
}

// checkEndpoint lists models on an OpenAI-compatible server. Any HTTP
// response counts as reachable.
func checkEndpoint(ctx context.Context, base string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("no endpoint set; run: locus config set-custom <base-url> <model>")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/models", nil)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %v", base, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not connect to %s", base)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return fmt.Sprintf("%s, status %d", base, resp.StatusCode), nil
}

func probeProvider(ctx context.Context, cfg *config.Settings, dim *color.Color) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	engine := ai.NewEngine(ai.WithLogger(logging.Logger()))
	req := cfg.Profile().Request("Answer in one short sentence.", []ai.Turn{
		{Role: ai.RoleUser, Content: "Name one book worth rereading."},
	})

	start := time.Now()
	var reply strings.Builder
	_, err := ui.RenderStream(&reply, engine.Stream(ctx, req), "")
	if err != nil {
		return "", err
	}
	dim.Fprintf(os.Stderr, "    %s\n", strings.TrimSpace(reply.String()))
	return time.Since(start).Round(time.Millisecond).String(), nil
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorProbe, "probe", false, "Send a test query to the provider")
}
