package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"github.com/hldsbot/hldsbot-go/internal/logfinder"
	"github.com/hldsbot/hldsbot-go/internal/logging"
)

// rotationCheckInterval is how often tail looks for a newer log file.
// HLDS starts a new file on every map change.
const rotationCheckInterval = 5 * time.Second

var (
	// tail flags
	logDir    string
	fromStart bool
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow HLDS log files and output events",
	Long: `Follow the newest HLDS log file and print classified events as they are
written. When the server starts a new log file (on map change), tail
switches to it.

This reads the server's log directory directly and needs no UDP log
forwarding or Telegram configuration.

Examples:
  # Follow logs under ./valve/logs, ./cstrike/logs or ./logs
  hldsbot tail

  # Specify log directory
  hldsbot tail --log-dir /srv/hlds/valve/logs

  # Human-readable output of chat only
  hldsbot tail --format pretty --types say

  # Pipe to jq for filtering
  hldsbot tail | jq 'select(.kind == "kill")'`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVarP(&logDir, "log-dir", "d", "",
		"HLDS log directory (auto-detected if not specified)")
	tailCmd.Flags().BoolVar(&fromStart, "from-start", false,
		"Print the current log file from its beginning before following")
	addOutputFlags(tailCmd)
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := newPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	dir, err := logfinder.FindLogDir(logDir)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, "text")
	if err != nil {
		return err
	}

	return followLatest(ctx, dir, fromStart, p, logger)
}

// followLatest tails the newest log file in dir and moves to a newer file
// when one appears. Files picked up after rotation are read from the start.
func followLatest(ctx context.Context, dir string, fromStart bool, p *printer, logger *slog.Logger) error {
	path, err := logfinder.FindLatestLogFile(dir)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(rotationCheckInterval)
	defer ticker.Stop()

	for {
		t, err := openTail(path, fromStart)
		if err != nil {
			return err
		}
		logger.Debug("following log file", "path", path)

		next, err := follow(ctx, t, dir, path, ticker.C, p, logger)
		t.Stop()
		t.Cleanup()
		if err != nil || next == "" {
			return err
		}
		path, fromStart = next, true
	}
}

func openTail(path string, fromStart bool) (*tail.Tail, error) {
	whence := io.SeekEnd
	if fromStart {
		whence = io.SeekStart
	}
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("tail log file: %w", err)
	}
	return t, nil
}

// follow prints lines from t until ctx is done (returns "") or a newer log
// file shows up in dir (returns its path).
func follow(ctx context.Context, t *tail.Tail, dir, current string, tick <-chan time.Time, p *printer, logger *slog.Logger) (string, error) {
	for {
		select {
		case line, ok := <-t.Lines:
			if !ok {
				return "", t.Err()
			}
			if line.Err != nil {
				logger.Warn("read log line", "error", line.Err)
				continue
			}
			if err := p.Print(line.Text); err != nil {
				return "", err
			}

		case <-tick:
			latest, err := logfinder.FindLatestLogFile(dir)
			if err != nil {
				logger.Debug("rotation check failed", "error", err)
				continue
			}
			if latest != current {
				return latest, nil
			}

		case <-ctx.Done():
			return "", nil
		}
	}
}
