package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kisanmitra/agri-advisor/internal/app"
	"github.com/kisanmitra/agri-advisor/internal/config"
	"github.com/kisanmitra/agri-advisor/internal/logger"
)

// loadConfig is replaced in tests.
var loadConfig = config.Load

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "agri",
		Short:         "Understand and answer farmers' queries in Hindi, English and Hinglish",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warnings only")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newChatCmd(opts),
		newAdviseCmd(opts),
		newBatchCmd(opts),
		newCompareCmd(opts),
		newWeatherCmd(opts),
		newIngestCmd(opts),
		newDBCmd(opts),
		newTokenCmd(),
	)
	return root
}

// openApp loads configuration and builds every service. The caller closes it.
func openApp(cmd *cobra.Command, opts *rootOptions) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if opts.verbose {
		level = cfg.Log.Level
	}
	return app.New(cmd.Context(), cfg, logger.NewStructured(level, cfg.Log.Format))
}

// repl reads trimmed, non-empty lines until EOF or handle returns false.
func repl(in io.Reader, out io.Writer, prompt string, handle func(line string) bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !handle(line) {
			return nil
		}
	}
}

func isQuit(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return true
	}
	return false
}
