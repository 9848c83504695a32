package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitepulse/sitepulse/internal/message"
	"github.com/sitepulse/sitepulse/internal/settings"
)

var visitCmd = &cobra.Command{
	Use:   "visit <url>",
	Short: "Record a page visit in the daemon's history",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		send(message.Message{
			Type: message.TypePageVisit,
			Payload: message.MustMarshal(message.VisitPayload{
				Data: message.VisitData{
					URL:       args[0],
					Timestamp: time.Now().UnixMilli(),
				},
			}),
		})
		fmt.Println("recorded")
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Clear the daemon's cache and trigger a refresh cycle",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		send(message.Message{Type: message.TypeRefreshData})
		fmt.Println("refresh scheduled")
	},
}

var (
	setInterval int
	setDomains  []string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage daemon settings",
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the daemon's settings",
	Long: `Replace the daemon's settings. This is a whole update: the daemon
validates every field and rejects the update as a unit if any is invalid.

Examples:
  pulse settings set --interval 60000 --domains example.com,github.com
  pulse settings set --interval 30000`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		send(message.Message{
			Type: message.TypeUpdateSettings,
			Payload: message.MustMarshal(settings.Settings{
				RefreshIntervalMs: setInterval,
				TrackedDomains:    setDomains,
			}),
		})
		fmt.Println("settings applied")
	},
}

func init() {
	settingsSetCmd.Flags().IntVar(&setInterval, "interval", 30000, "refresh interval in milliseconds (min 30000)")
	settingsSetCmd.Flags().StringSliceVar(&setDomains, "domains", nil, "domains the daemon refreshes in the background")
	settingsCmd.AddCommand(settingsSetCmd)

	rootCmd.AddCommand(visitCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(settingsCmd)
}

// send performs one control exchange with the daemon and exits on failure.
func send(msg message.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()

	m, _ := dialDaemon(ctx)
	defer m.Close()

	if _, err := m.Send(ctx, msg); err != nil {
		fatalf("%v", err)
	}
}
