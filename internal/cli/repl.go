package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkarpov/handin/internal/gateway"
	"github.com/dkarpov/handin/internal/services"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Profile(ctx context.Context) error
	Assignments(ctx context.Context) error
	Select(ctx context.Context, args []string) error
	Show(ctx context.Context) error
	Status(ctx context.Context) error
	Submit(ctx context.Context, args []string) error
	Submissions(ctx context.Context) error
	Feedback(ctx context.Context) error
}

// friendlyError rewrites core errors into something a student can act on.
func friendlyError(err error) string {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	var serr *gateway.ServerError
	if errors.As(err, &serr) {
		if serr.Message != "" {
			return serr.Message
		}
		return "the server rejected the request, please try again"
	}
	switch {
	case errors.Is(err, gateway.ErrUnauthenticated):
		return "not logged in (or the session expired), run 'login'"
	case errors.Is(err, gateway.ErrNotFound):
		return "nothing found"
	case errors.Is(err, gateway.ErrUnavailable):
		return "server unreachable, check the address and your connection"
	default:
		return err.Error()
	}
}

// runREPL reads a line, dispatches the first token as a command, and loops
// until EOF or exit/quit. Handler errors are reported to the user here; the
// loop itself never fails.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	report := func(err error) {
		if err != nil {
			printlnFn("Error:", friendlyError(err))
		}
	}

	for {
		printlnFn(fmt.Sprintf("handin> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: assignments, select <id>, show, status, submit <video> [comment], submissions, feedback, whoami, profile, logout, exit")
			} else {
				printlnFn("Available commands: login, help, exit")
			}

		case "login":
			report(a.Login(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "whoami":
			report(a.Whoami(ctx))

		case "profile":
			report(a.Profile(ctx))

		case "a", "assignments":
			report(a.Assignments(ctx))

		case "select":
			report(a.Select(ctx, args))

		case "show":
			report(a.Show(ctx))

		case "status":
			report(a.Status(ctx))

		case "submit":
			report(a.Submit(ctx, args))

		case "submissions":
			report(a.Submissions(ctx))

		case "feedback":
			report(a.Feedback(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
