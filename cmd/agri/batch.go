package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kisanmitra/agri-advisor/internal/nlp"
)

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var input, output, format string
	var showStats bool
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze a file of queries, one per line, and export the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("unsupported format %q: use json or csv", format)
			}
			queries, err := readQueries(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				return fmt.Errorf("no queries found in %s", inputName(input))
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			results := a.Pipeline.ProcessBatch(cmd.Context(), queries)

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}
			if format == "csv" {
				err = nlp.WriteCSV(out, results)
			} else {
				err = nlp.WriteJSON(out, results)
			}
			if err != nil {
				return err
			}

			if showStats {
				stats := nlp.ComputeStatistics(results)
				errOut := cmd.ErrOrStderr()
				if output != "" {
					fmt.Fprintf(errOut, "Wrote %d results to %s\n", len(results), output)
				}
				printStatistics(errOut, stats)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "file with one query per line, or - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write results to this file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format: json or csv")
	cmd.Flags().BoolVar(&showStats, "stats", true, "print batch statistics to stderr")
	return cmd
}

// readQueries reads non-empty lines. A .json input may instead hold an array of strings.
func readQueries(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f

		if strings.HasSuffix(strings.ToLower(path), ".json") {
			var queries []string
			if err := json.NewDecoder(f).Decode(&queries); err != nil {
				return nil, fmt.Errorf("failed to decode %s: expected a JSON array of strings: %w", path, err)
			}
			return queries, nil
		}
	}

	var queries []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", inputName(path), err)
	}
	return queries, nil
}

func inputName(path string) string {
	if path == "-" || path == "" {
		return "stdin"
	}
	return path
}
