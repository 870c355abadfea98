// Package cli is the interactive front end. It is a thin shell over the
// services layer: every command maps onto one or two service operations and
// prints the outcome.
package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dkarpov/handin/internal/config"
	"github.com/dkarpov/handin/internal/gateway"
	"github.com/dkarpov/handin/internal/identity"
	"github.com/dkarpov/handin/internal/logging"
	"github.com/dkarpov/handin/internal/services"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

type App struct {
	config      *config.Config
	auth        services.AuthService
	assignments services.AssignmentService
	submissions services.SubmissionService
	store       *identity.SQLiteStore
	log         logging.Logger

	reader *bufio.Reader
	out    io.Writer

	// mu guards username and Mode; the session watcher goroutine touches
	// both concurrently with the REPL.
	mu       sync.Mutex
	username string
	Mode     Mode
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := logging.NewText(os.Stderr, level)

	store, err := identity.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	gw := gateway.NewHTTPGateway(cfg.ServerAddr, store, log)

	return &App{
		config:      cfg,
		auth:        services.NewAuthService(gw, store, log),
		assignments: services.NewAssignmentService(gw),
		submissions: services.NewSubmissionService(gw, store, log),
		store:       store,
		log:         log,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.username != ""
}

func (a *App) setUsername(name string) {
	a.mu.Lock()
	a.username = name
	a.mu.Unlock()
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()
	if changed && mode != ModeUnknown {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := "not logged in"
	if a.username != "" {
		s = a.username
	}
	if a.Mode != ModeUnknown {
		s += " (" + string(a.Mode) + ")"
	}
	return s
}

// Run restores a persisted session if the server still accepts it, then
// hands control to the REPL.
func (a *App) Run(ctx context.Context) {
	defer a.store.Close()

	if username, ok := a.auth.CheckSession(ctx); ok {
		a.setUsername(username)
		if _, err := a.submissions.RestoreSelection(ctx); err != nil {
			a.log.Warn(ctx, "could not restore assignment selection", "error", err)
		}
		printlnFn("Welcome back,", username)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.watchSession(watchCtx, a.config.SessionCheckInterval)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

// watchSession periodically verifies the session token so the prompt can
// show whether the server is reachable. It only probes while logged in.
func (a *App) watchSession(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !a.isLoggedIn() {
				continue
			}
			checkCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			_, ok := a.auth.CheckSession(checkCtx)
			cancel()
			if ok {
				a.setMode(ModeOnline)
			} else {
				a.setMode(ModeOffline)
			}
		case <-ctx.Done():
			return
		}
	}
}
