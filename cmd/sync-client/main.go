package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	synchub "storefront/internal/sync"
	"storefront/pkg/logging"
)

type event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Action    string    `json:"action"`
	ItemCount int       `json:"item_count"`
	Lines     int       `json:"lines"`
	Products  int       `json:"products"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	session := flag.String("session", "", "only show events for this cart session")
	raw := flag.Bool("raw", false, "print events as received")
	flag.Parse()

	logger := logging.Must(os.Getenv("STOREFRONT_LOG_LEVEL"), true)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for ctx.Err() == nil {
		if err := run(ctx, *addr, os.Stdout, *session, *raw, logger); err != nil && ctx.Err() == nil {
			logger.Warn("disconnected", zap.String("addr", *addr), zap.Error(err))
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Second): // reconnect
		}
	}
}

func run(ctx context.Context, addr string, out io.Writer, session string, raw bool, logger *zap.Logger) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	logger.Info("connected", zap.String("addr", addr))
	if session != "" {
		b, _ := json.Marshal(synchub.SubscribeMessage{Type: "subscribe", SessionID: session})
		if _, err := conn.Write(append(b, '\n')); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		if line, ok := format(sc.Bytes(), session, raw); ok {
			fmt.Fprintln(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// format renders one event line; ok is false when the session filter
// rejects it.
func format(line []byte, session string, raw bool) (string, bool) {
	var ev event
	if err := json.Unmarshal(line, &ev); err != nil {
		return string(line), session == ""
	}
	if session != "" && ev.Type == synchub.EventCartUpdated && ev.SessionID != session {
		return "", false
	}
	if raw {
		return string(line), true
	}

	switch ev.Type {
	case synchub.EventCartUpdated:
		return fmt.Sprintf("%s cart %s %s: %d items in %d lines",
			ev.At.Local().Format(time.TimeOnly), ev.SessionID, ev.Action, ev.ItemCount, ev.Lines), true
	case synchub.EventCatalogUpdated:
		return fmt.Sprintf("%s catalog saved from %s: %d products",
			ev.At.Local().Format(time.TimeOnly), ev.Source, ev.Products), true
	case synchub.EventWelcome:
		return "connected: " + ev.Message, true
	case synchub.EventSubscribed:
		return "following cart " + ev.SessionID, true
	}
	return string(line), true
}
