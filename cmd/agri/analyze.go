package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kisanmitra/agri-advisor/internal/nlp"
	"github.com/kisanmitra/agri-advisor/internal/nlp/intent"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var text string
	var details, asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Detect language, intent and entities of a query",
		Long:  "Analyze one query given with --text, or read queries interactively when no text is given.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			show := func(q string) error {
				res := a.Pipeline.Process(cmd.Context(), q)
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(res)
				}
				printResult(out, res, details)
				return nil
			}
			if text != "" {
				return show(text)
			}
			fmt.Fprintln(out, "Enter a query to analyze, or 'quit' to exit.")
			var showErr error
			err = repl(cmd.InOrStdin(), out, "query> ", func(line string) bool {
				if isQuit(line) {
					return false
				}
				showErr = show(line)
				return showErr == nil
			})
			if showErr != nil {
				return showErr
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "query to analyze")
	cmd.Flags().BoolVarP(&details, "details", "d", false, "show per-intent scores and entity details")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func printResult(w io.Writer, res *nlp.Result, details bool) {
	lang := string(res.PrimaryLanguage)
	if res.IsCodeMixed {
		lang += " (code-mixed)"
	}
	fmt.Fprintf(w, "Query:      %s\n", res.Query)
	fmt.Fprintf(w, "Normalized: %s\n", res.NormalizedText)
	fmt.Fprintf(w, "Language:   %s  hi=%.2f en=%.2f\n", lang, res.Language[nlp.Hindi], res.Language[nlp.English])
	fmt.Fprintf(w, "Intent:     %s (%.2f, %s)\n", res.PrimaryIntent, res.IntentConfidence, res.ConfidenceLevel)

	var ents []string
	for _, cat := range nlp.Categories {
		if vals := res.Entities[cat]; len(vals) > 0 {
			ents = append(ents, fmt.Sprintf("%s=%s", cat, strings.Join(vals, ", ")))
		}
	}
	if len(ents) == 0 {
		ents = []string{"none"}
	}
	fmt.Fprintf(w, "Entities:   %s\n", strings.Join(ents, "; "))
	if len(res.Degraded) > 0 {
		fmt.Fprintf(w, "Degraded:   %s\n", strings.Join(res.Degraded, ", "))
	}

	if !details {
		return
	}
	fmt.Fprintf(w, "Scorers:    %s\n", strings.Join(res.ScorersUsed, ", "))
	fmt.Fprintln(w, "Intent scores:")
	for _, in := range sortedIntents(res.Intents) {
		fmt.Fprintf(w, "  %-18s %.3f\n", in, res.Intents[in])
	}
	if len(res.EntityDetails) > 0 {
		fmt.Fprintln(w, "Entity details:")
		for _, e := range res.EntityDetails {
			fmt.Fprintf(w, "  %-9s %-20q -> %-15s %.2f %s\n", e.Category, e.Text, e.Normalized, e.Confidence, e.Source)
		}
	}
	fmt.Fprintf(w, "Time:       %.2f ms\n", res.ProcessingTimeMS)
}

// sortedIntents orders by score, highest first, then by declaration order.
func sortedIntents(scores intent.Scores) []intent.Intent {
	out := append([]intent.Intent(nil), intent.All...)
	sort.SliceStable(out, func(i, j int) bool { return scores[out[i]] > scores[out[j]] })
	return out
}
