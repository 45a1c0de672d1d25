// Package shell runs external commands (git, cmake, ctest, tar, scp) for the installer.
//
// Commands never return a Go error for an ordinary failure: the exit status is the
// result. A cancelled context (Ctrl-C) is reported as retcode.Interrupted, and a
// binary that cannot be started is reported as 127 with the reason as output.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"suite-installer/internal/logger"
	"suite-installer/internal/retcode"
)

// NotFound is the exit status reported when a binary cannot be executed.
const NotFound = 127

// Command describes one external process.
type Command struct {
	Name       string
	Args       []string
	Dir        string   // working directory, "" for the current one
	Env        []string // extra KEY=VALUE pairs on top of the inherited environment
	ShowOutput bool     // echo captured stdout once the command exits
	ShowError  bool     // echo captured stderr once the command exits
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner is implemented by Executor and by test fakes.
type Runner interface {
	// Run executes the command and returns its exit code with the captured
	// stdout and stderr.
	Run(ctx context.Context, cmd Command) (int, string)
	// Stream executes the command printing its output live and returns the exit code.
	Stream(ctx context.Context, cmd Command) int
}

// Executor is the Runner backed by os/exec.
type Executor struct {
	Log *logger.Logger
}

// NewExecutor returns an Executor that reports through log.
func NewExecutor(log *logger.Logger) *Executor {
	return &Executor{Log: log}
}

// Run executes cmd and captures its output.
func (e *Executor) Run(ctx context.Context, cmd Command) (int, string) {
	e.Log.Debug("Running command: %s (in %q)", cmd, cmd.Dir)

	c := e.build(ctx, cmd)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	code, startErr := exitCode(ctx, c.Run())
	if startErr != nil {
		return code, startErr.Error()
	}

	if cmd.ShowOutput && stdout.Len() > 0 {
		e.Log.Print(stdout.String())
	}
	if cmd.ShowError && stderr.Len() > 0 {
		e.Log.Print(stderr.String())
	}

	captured := strings.TrimSpace(stdout.String())
	if errText := strings.TrimSpace(stderr.String()); errText != "" {
		if captured != "" {
			captured += "\n"
		}
		captured += errText
	}
	e.Log.Debug("Command %q exited with %d", cmd.Name, code)
	return code, captured
}

// Stream executes cmd with stdout and stderr forwarded line by line to the logger,
// so tool output reaches both the console and the log file as it is produced.
func (e *Executor) Stream(ctx context.Context, cmd Command) int {
	e.Log.Debug("Streaming command: %s (in %q)", cmd, cmd.Dir)

	c := e.build(ctx, cmd)
	w := &lineWriter{print: e.Log.Print}
	c.Stdout = w
	c.Stderr = w

	code, startErr := exitCode(ctx, c.Run())
	w.Flush()
	if startErr != nil {
		e.Log.Errorf("%v", startErr)
	}
	return code
}

func (e *Executor) build(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	return c
}

// exitCode maps the error returned by exec.Cmd.Run to an exit status.
// The second value is non-nil only when the process could not be started.
func exitCode(ctx context.Context, err error) (int, error) {
	if ctx.Err() != nil {
		return retcode.Interrupted, nil
	}
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return NotFound, err
}

// lineWriter buffers writes and hands complete lines to print.
type lineWriter struct {
	buf   bytes.Buffer
	print func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line: put it back for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			return len(p), nil
		}
		w.print(line)
	}
}

// Flush prints whatever partial line is left.
func (w *lineWriter) Flush() {
	if w.buf.Len() > 0 {
		w.print(w.buf.String())
		w.buf.Reset()
	}
}
