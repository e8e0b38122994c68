package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kisanmitra/agri-advisor/internal/core"
)

func newAdviseCmd(opts *rootOptions) *cobra.Command {
	var query, city string
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Answer a farmer's query with weather, price, policy or general advice",
		Long: "Answer one query given with --query, or start an interactive session.\n" +
			"In a session, 'city <name>' sets the location used when a query names none.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if query != "" {
				printAdvice(out, a.Advisor.Advise(cmd.Context(), query, city))
				return nil
			}

			fmt.Fprintln(out, "Namaste! Ask about weather, mandi prices, schemes or your crops. Type 'help' for commands.")
			if city != "" {
				fmt.Fprintf(out, "City set to %s.\n", city)
			}
			counts := make(map[string]int)
			return repl(cmd.InOrStdin(), out, "kisan> ", func(line string) bool {
				fields := strings.Fields(line)
				switch strings.ToLower(fields[0]) {
				case "quit", "exit", "q":
					fmt.Fprintln(out, "Dhanyavaad! Goodbye.")
					return false
				case "help":
					printAdviseHelp(out)
					return true
				case "stats":
					fmt.Fprintf(out, "Answers by responder: %s\n", formatCounts(counts))
					return true
				case "city":
					if len(fields) == 1 {
						if city == "" {
							fmt.Fprintln(out, "No city set. Use: city <name>")
						} else {
							fmt.Fprintf(out, "Current city: %s\n", city)
						}
						return true
					}
					city = strings.Join(fields[1:], " ")
					fmt.Fprintf(out, "City set to %s.\n", city)
					return true
				}
				adv := a.Advisor.Advise(cmd.Context(), line, city)
				counts[adv.Responder]++
				printAdvice(out, adv)
				return true
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "query to answer")
	cmd.Flags().StringVarP(&city, "city", "c", "", "location used when the query names none")
	return cmd
}

func printAdvice(w io.Writer, adv *core.Advice) {
	fmt.Fprintf(w, "[%s | %s %.2f | %s]\n", adv.Responder, adv.Intent, adv.Confidence, adv.Language)
	fmt.Fprintln(w, adv.Answer)
	if len(adv.Degraded) > 0 {
		fmt.Fprintf(w, "(degraded: %s)\n", strings.Join(adv.Degraded, ", "))
	}
}

func printAdviseHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  city <name>  set the location for weather and price questions")
	fmt.Fprintln(w, "  city         show the current location")
	fmt.Fprintln(w, "  stats        show how many answers each responder gave")
	fmt.Fprintln(w, "  help         show this help")
	fmt.Fprintln(w, "  quit         exit")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  kal barish hogi kya?")
	fmt.Fprintln(w, "  Nashik mandi mein pyaz ka bhav")
	fmt.Fprintln(w, "  PM-KISAN ke liye kaise apply karein")
}
