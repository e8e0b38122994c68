package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kisanmitra/agri-advisor/internal/core"
	"github.com/kisanmitra/agri-advisor/internal/store"
)

const dbRowLimit = 50

func newDBCmd(opts *rootOptions) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the local database with read-only SQL",
		Long: "Run one read-only query with --query, or start a shell.\n" +
			"Shell commands: tables, schema <table>, quit. Anything else runs as SQL.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if query != "" {
				return runDBLine(cmd, a.Store, out, query)
			}
			fmt.Fprintln(out, "Read-only SQL shell. Commands: tables, schema <table>, quit.")
			return repl(cmd.InOrStdin(), out, "sql> ", func(line string) bool {
				if isQuit(line) {
					return false
				}
				if err := runDBLine(cmd, a.Store, out, line); err != nil {
					fmt.Fprintln(out, "Error:", err)
				}
				return true
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "e", "", "run one statement or shell command and exit")
	return cmd
}

func runDBLine(cmd *cobra.Command, s *store.SQLiteStore, out io.Writer, line string) error {
	ctx := cmd.Context()
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "tables":
		names, err := s.Tables(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	case "schema":
		if len(fields) != 2 {
			return fmt.Errorf("usage: schema <table>")
		}
		ddl, err := s.Schema(ctx, fields[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ddl)
		return nil
	}
	res, err := s.Query(ctx, strings.TrimSuffix(line, ";"), dbRowLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, core.RenderTable(res))
	return nil
}
