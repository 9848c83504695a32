package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sitepulse/sitepulse/internal/analytics"
)

var trafficCmd = &cobra.Command{
	Use:   "traffic <domain>",
	Short: "Show the traffic snapshot for a domain",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fetchAndPrint(analytics.Request{
			Kind:   analytics.KindTraffic,
			Params: map[string]string{analytics.ParamDomain: args[0]},
		})
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics <domain>",
	Short: "Show engagement analytics for a domain",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fetchAndPrint(analytics.Request{
			Kind:   analytics.KindAnalytics,
			Params: map[string]string{analytics.ParamDomain: args[0]},
		})
	},
}

var routeDepart string

var routesCmd = &cobra.Command{
	Use:   "routes <from> <to>",
	Short: "Show route suggestions between two points",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		params := map[string]string{
			analytics.ParamFrom: args[0],
			analytics.ParamTo:   args[1],
		}
		if routeDepart != "" {
			if _, err := time.Parse(time.RFC3339, routeDepart); err != nil {
				fatalf("--depart must be RFC 3339 (e.g. 2026-08-30T09:00:00Z): %v", err)
			}
			params[analytics.ParamDepartureTime] = routeDepart
		}
		fetchAndPrint(analytics.Request{
			Kind:   analytics.KindRoutes,
			Params: params,
		})
	},
}

func init() {
	routesCmd.Flags().StringVar(&routeDepart, "depart", "", "departure time, RFC 3339 (default: now)")

	rootCmd.AddCommand(trafficCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(routesCmd)
}
