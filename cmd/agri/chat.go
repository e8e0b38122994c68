package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kisanmitra/agri-advisor/internal/nlp"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var details bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive query analysis with session statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Agricultural query analyzer. Type 'help' for commands.")
			var history []*nlp.Result
			return repl(cmd.InOrStdin(), out, "you> ", func(line string) bool {
				switch strings.ToLower(line) {
				case "quit", "exit", "q":
					fmt.Fprintf(out, "Analyzed %d queries. Goodbye!\n", len(history))
					return false
				case "help":
					printChatHelp(out)
				case "stats":
					printStatistics(out, nlp.ComputeStatistics(history))
				case "clear":
					history = nil
					fmt.Fprintln(out, "Session history cleared.")
				default:
					res := a.Pipeline.Process(cmd.Context(), line)
					history = append(history, res)
					printResult(out, res, details)
				}
				return true
			})
		},
	}
	cmd.Flags().BoolVarP(&details, "details", "d", false, "show per-intent scores and entity details")
	return cmd
}

func printChatHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  help   show this help")
	fmt.Fprintln(w, "  stats  show statistics for this session")
	fmt.Fprintln(w, "  clear  forget this session's queries")
	fmt.Fprintln(w, "  quit   exit")
	fmt.Fprintln(w, "Anything else is analyzed as a query, for example:")
	fmt.Fprintln(w, "  gehun ka bhav kya hai Ludhiana mandi mein")
	fmt.Fprintln(w, "  मेरी फसल में कीड़े लग गए हैं")
	fmt.Fprintln(w, "  Will it rain in Pune tomorrow?")
}

func printStatistics(w io.Writer, s nlp.Statistics) {
	if s.TotalQueries == 0 {
		fmt.Fprintln(w, "No queries analyzed yet.")
		return
	}
	fmt.Fprintf(w, "Queries:            %d (code-mixed %d, low confidence %d)\n", s.TotalQueries, s.CodeMixedCount, s.LowConfidenceCount)
	fmt.Fprintf(w, "Languages:          %s\n", formatCounts(s.LanguageDistribution))
	fmt.Fprintf(w, "Intents:            %s\n", formatCounts(s.IntentDistribution))
	fmt.Fprintf(w, "Average confidence: %.2f\n", s.AverageConfidence)
	fmt.Fprintf(w, "Entities:           %d total, %.1f per query (%s)\n", s.TotalEntities, s.AverageEntitiesPerQuery, formatCounts(s.EntitiesByCategory))
	fmt.Fprintf(w, "Processing time:    avg %.2f ms, min %.2f ms, max %.2f ms\n",
		s.ProcessingTime.AverageMS, s.ProcessingTime.MinMS, s.ProcessingTime.MaxMS)
	if len(s.DegradedStages) > 0 {
		fmt.Fprintf(w, "Degraded stages:    %s\n", formatCounts(s.DegradedStages))
	}
}

// formatCounts renders a count map as "a=2, b=1", largest first then by key.
func formatCounts[K ~string](m map[K]int) string {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
