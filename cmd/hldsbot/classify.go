package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hldsbot/hldsbot-go/internal/dispatch"
	"github.com/hldsbot/hldsbot-go/internal/safefile"
	"github.com/hldsbot/hldsbot-go/pkg/hldslog"
	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

// maxLineSize bounds a single log line read from a file or stdin.
const maxLineSize = 64 * 1024

var (
	// output flags shared by classify and tail
	format        string
	eventKinds    []string
	disabledKinds []string
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Classify HLDS log lines from a file or stdin",
	Long: `Classify HLDS log lines and print the resulting events.

Reads the given file, or stdin if no file (or "-") is given. Events are
printed as JSON Lines by default; --format pretty prints the notification
each event would send.

Examples:
  # Classify a finished log file
  hldsbot classify valve/logs/L0101000.log

  # Show what would be posted for kills only
  hldsbot classify --format pretty --types kill < L0101000.log

  # Include the events that are suppressed by default
  hldsbot classify --disabled "" L0101000.log`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	addOutputFlags(classifyCmd)
	rootCmd.AddCommand(classifyCmd)
}

// addOutputFlags registers the flags that control event output.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&format, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	cmd.Flags().StringSliceVarP(&eventKinds, "types", "t", nil,
		"Event kinds to show (comma-separated, e.g. kill,say)")
	cmd.Flags().StringSliceVar(&disabledKinds, "disabled", kindNames(hldslog.DefaultDisabledKinds()),
		"Event kinds to suppress (comma-separated, empty for none)")

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = cmd.RegisterFlagCompletionFunc("types", completeEventKinds)
	_ = cmd.RegisterFlagCompletionFunc("disabled", completeEventKinds)
}

func runClassify(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, _, err := safefile.OpenRegular(args[0])
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		in = f
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		if err := p.Print(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// printer classifies lines and writes the selected events.
type printer struct {
	classifier *hldslog.Classifier
	show       event.Set
	format     string
	out        io.Writer
}

// newPrinter builds a printer from the output flags.
func newPrinter(out io.Writer) (*printer, error) {
	if !ValidFormats[format] {
		return nil, fmt.Errorf("invalid --format %q (valid: jsonl, pretty)", format)
	}
	show, err := NormalizeEventKinds(eventKinds)
	if err != nil {
		return nil, fmt.Errorf("invalid --types: %w", err)
	}
	disabled, err := NormalizeEventKinds(disabledKinds)
	if err != nil {
		return nil, fmt.Errorf("invalid --disabled: %w", err)
	}
	return &printer{
		classifier: hldslog.NewClassifier(hldslog.WithDisabledKinds(disabled...)),
		show:       event.NewSet(show...),
		format:     format,
		out:        out,
	}, nil
}

// Print classifies one raw line. Disabled events and events filtered out by
// --types print nothing.
func (p *printer) Print(raw string) error {
	ev := p.classifier.Classify(dispatch.Decode([]byte(raw)))
	if ev.Kind == event.Disabled {
		return nil
	}
	if p.show.Len() > 0 && !p.show.Has(ev.Kind) {
		return nil
	}
	if err := OutputEvent(p.format, ev, p.out); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}

func kindNames(kinds []event.Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
