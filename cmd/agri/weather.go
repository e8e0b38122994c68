package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newWeatherCmd(opts *rootOptions) *cobra.Command {
	var location string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "weather [location]",
		Short: "Show recent weather, the forecast and farming insights for a location",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if location == "" {
				location = strings.Join(args, " ")
			}
			if strings.TrimSpace(location) == "" {
				return fmt.Errorf("a location is required: agri weather <location>")
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Weather.Report(cmd.Context(), location)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			fmt.Fprintln(out, report.Summary())
			return nil
		},
	}
	cmd.Flags().StringVarP(&location, "location", "l", "", "city or district name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}
