package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/John-Robertt/free-servers/internal/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command tree and returns the process exit code. Errors not
// already logged by the command are reported on stderr.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.Version = Version + " (built " + BuildTime + ")"
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

// loggedError marks an error that the command has already written to its logger.
type loggedError struct{ err error }

func (e *loggedError) Error() string { return e.err.Error() }
func (e *loggedError) Unwrap() error { return e.err }

func reportError(w io.Writer, err error) {
	var le *loggedError
	if errors.As(err, &le) {
		return
	}
	logError(logger.NewWriter(w, "console", slog.LevelError), "执行失败", err)
}

// logError logs err with its AppError fields when it carries one.
func logError(log *slog.Logger, fallback string, err error) {
	if app, ok := appErrorOf(err); ok {
		log.Error(app.Message, append(app.Attrs(), "error", err)...)
		return
	}
	log.Error(fallback, "error", err)
}
