package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitepulse/sitepulse/internal/analytics"
	"github.com/sitepulse/sitepulse/internal/event"
	"github.com/sitepulse/sitepulse/internal/platform/cache"
	"github.com/sitepulse/sitepulse/internal/platform/config"
	"github.com/sitepulse/sitepulse/internal/platform/observability"
	"github.com/sitepulse/sitepulse/internal/settings"
	"github.com/sitepulse/sitepulse/internal/transport"
)

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Query the sitepulse daemon for traffic analytics",
	Long: `pulse talks to a running pulsed daemon over its websocket protocol.

Data commands (traffic, analytics, routes) go through the caching
coordinator, so a request the daemon fails to answer degrades to a
fallback payload instead of an error. Control commands (visit, refresh,
settings) fail loudly.`,
	SilenceUsage: true,
}

var (
	flagConfig    string
	flagDaemonURL string
	flagTimeout   time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagDaemonURL, "daemon-url", "", "daemon websocket URL (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 10*time.Second, "per-request timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL() string {
	if flagDaemonURL != "" {
		return flagDaemonURL
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fatalf("load config: %v", err)
	}
	return cfg.Client.DaemonURL
}

// dialDaemon connects a messenger and a local bus. The caller owns the
// returned messenger and must Close it.
func dialDaemon(ctx context.Context) (*transport.Messenger, *event.Bus) {
	bus := event.NewBus()
	m, err := transport.Dial(ctx, daemonURL(), bus, cliLogger())
	if err != nil {
		fatalf("%v", err)
	}
	return m, bus
}

// fetchAndPrint runs req through a coordinator backed by the daemon, so
// the CLI gets the same cache/fallback semantics the daemon's own
// consumers do.
func fetchAndPrint(req analytics.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()

	m, bus := dialDaemon(ctx)
	defer m.Close()

	coord, err := analytics.NewCoordinator(analytics.CoordinatorConfig{
		Cache:     cache.New(settings.MinRefreshInterval),
		Transport: m,
		Settings:  analytics.StaticSettings(settings.MinRefreshInterval),
		Bus:       bus,
		Logger:    cliLogger(),
	})
	if err != nil {
		fatalf("%v", err)
	}

	printJSON(coord.Fetch(ctx, req))
}

func cliLogger() *observability.Logger {
	return observability.NewLogger("error", "text")
}

func printJSON(raw json.RawMessage) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(buf.String())
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
