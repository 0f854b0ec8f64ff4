package sweep

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codexbridge/codexbridge/internal/config"
	"github.com/codexbridge/codexbridge/internal/watcher"
)

var (
	cfgPath  string
	flagJSON bool
)

// Cmd represents the `codexbridge sweep` command: one complete pass over the
// pending plan files. Plan rejections are expected, successfully-handled
// outcomes; the exit code is non-zero only when the sweep itself cannot run.
var Cmd = &cobra.Command{
	Use:           "sweep",
	Short:         "Process all pending plan files once",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		w, err := watcher.New(cfg)
		if err != nil {
			return err
		}
		report, err := w.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		if flagJSON {
			return encodeJSON(os.Stdout, report)
		}
		printSummary(report)
		return nil
	},
}

func printSummary(report watcher.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	for _, o := range report.Outcomes {
		switch o.Status {
		case "processed":
			fmt.Printf("%s: %s\n", o.Filename, green(o.Status))
		default:
			fmt.Printf("%s: %s (%s)\n", o.Filename, red(o.Status), o.Reason)
		}
	}
	fmt.Printf("%d plan(s) processed\n", len(report.Outcomes))
}

// encodeJSON writes the report as a single JSON line with HTML escaping
// disabled.
func encodeJSON(w *os.File, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func init() {
	Cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to config file (.yaml)")
	Cmd.Flags().BoolVar(&flagJSON, "json", false, "Print the full sweep report as JSON")
}
