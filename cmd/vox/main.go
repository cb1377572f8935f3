// Command vox is a terminal client for a local streaming chat daemon.
//
// Usage:
//
//	vox [flags]
//
// Flags:
//
//	-addr string     Base URL of the chat daemon (default: built-in local endpoint)
//	-capacity int    Conversation buffer capacity (default 10)
//	-debug           Write debug logs to vox.log
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	charmlog "github.com/charmbracelet/log"
	"github.com/kswierk/vox"
	bt "github.com/kswierk/vox/bubbletea"
	"github.com/kswierk/vox/chatd"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vox: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr     = flag.String("addr", "", "Base URL of the chat daemon (default: built-in local endpoint)")
		capacity = flag.Int("capacity", 0, "Conversation buffer capacity (default 10)")
		debug    = flag.Bool("debug", false, "Write debug logs to vox.log")
	)
	flag.Parse()

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The TUI owns the terminal, so debug logs go to a file.
	logger := slog.New(slog.DiscardHandler)
	if *debug {
		f, err := os.OpenFile("vox.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = slog.New(charmlog.NewWithOptions(f, charmlog.Options{
			Level:           charmlog.DebugLevel,
			ReportTimestamp: true,
		}))
	}

	opts := []chatd.Option{chatd.WithLogger(logger)}
	if *addr != "" {
		opts = append(opts, chatd.WithBaseURL(*addr))
	}
	client := chatd.New(opts...)

	notifier := bt.NewNotifier()
	conv := vox.NewConversation(client, notifier,
		vox.WithCapacity(*capacity),
		vox.WithLogger(logger),
	)
	defer conv.Close()

	m := bt.New(conv, vox.DefaultTheme())
	if err := bt.Run(ctx, m, notifier); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}
