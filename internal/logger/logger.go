// Package logger is the installer's single logging sink.
//
// A Logger is created once by the CLI and handed to every component that prints.
// Console output is colored with fatih/color, using the same palette everywhere:
// green for info, bright magenta for warnings, red for errors and cyan for debug.
// When a log file has been started, every line is also written there without
// color codes and with a timestamp.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"suite-installer/internal/retcode"
)

// eraseLine moves the cursor to column 0 and clears the line.
const eraseLine = "\r\x1b[2K"

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// Options configures a new Logger.
type Options struct {
	Stdout  io.Writer // defaults to os.Stdout
	Stderr  io.Writer // defaults to os.Stderr
	Debug   bool      // print [DEBUG] lines to the console
	DocsURL string    // documentation portal shown after errors
}

// Logger writes leveled lines to the console and, once StartLogFile was called,
// to a persistent log file.
type Logger struct {
	mu sync.Mutex

	out    io.Writer
	errOut io.Writer

	debug    bool
	docsURL  string
	terminal bool

	file     io.WriteCloser
	filePath string

	allowSubstitution bool
	pending           bool // the last console write was a progress line awaiting substitution

	info  *color.Color
	warn  *color.Color
	fail  *color.Color
	trace *color.Color
}

// New returns a Logger writing to the writers in opts.
func New(opts Options) *Logger {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Logger{
		out:      opts.Stdout,
		errOut:   opts.Stderr,
		debug:    opts.Debug,
		docsURL:  opts.DocsURL,
		terminal: isTerminal(opts.Stdout),
		info:     color.New(color.FgGreen),
		warn:     color.New(color.FgHiMagenta),
		fail:     color.New(color.FgRed),
		trace:    color.New(color.FgCyan),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetDocsURL changes the documentation link printed after errors.
func (l *Logger) SetDocsURL(url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docsURL = url
}

// StartLogFile opens path for appending and mirrors all subsequent lines into it.
// A previously opened log file is closed first.
func (l *Logger) StartLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = f
	l.filePath = path
	return nil
}

// LogFile returns the path of the active log file, or "" when none was started.
func (l *Logger) LogFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filePath
}

// SetAllowSubstitution enables or disables progress lines that overwrite the
// previous console line. Substitution only takes effect on a terminal.
func (l *Logger) SetAllowSubstitution(allow bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowSubstitution = allow
}

// AllowsSubstitution reports whether SetAllowSubstitution(true) was called.
func (l *Logger) AllowsSubstitution() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowSubstitution
}

// Info logs an informational line in green.
func (l *Logger) Info(format string, a ...any) {
	l.emit(l.out, l.info, "[INFO] ", fmt.Sprintf(format, a...))
}

// Warn logs a warning in bright magenta.
func (l *Logger) Warn(format string, a ...any) {
	l.emit(l.out, l.warn, "[WARN] ", fmt.Sprintf(format, a...))
}

// Errorf logs an error line in red on stderr.
func (l *Logger) Errorf(format string, a ...any) {
	l.emit(l.errOut, l.fail, "[ERROR] ", fmt.Sprintf(format, a...))
}

// Debug logs a cyan line when debug output is enabled.
// Debug lines always reach the log file.
func (l *Logger) Debug(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if l.debug {
		l.emit(l.out, l.trace, "[DEBUG] ", msg)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("[DEBUG] ", msg)
}

// Print writes text as-is to the console and the log file. It is used for
// output captured from external tools.
func (l *Logger) Print(text string) {
	l.emit(l.out, nil, "", strings.TrimRight(text, "\n"))
}

// Progress prints a status line that the next console line replaces when
// substitution is allowed and stdout is a terminal. Otherwise it is an ordinary line.
func (l *Logger) Progress(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("", msg)

	if !l.allowSubstitution || !l.terminal {
		l.clearPending(l.out)
		fmt.Fprintln(l.out, msg)
		return
	}
	fmt.Fprint(l.out, eraseLine+msg)
	l.pending = true
}

// Error reports a failed run: the code with its description, the message when
// there is one, and pointers to the log file and documentation.
func (l *Logger) Error(message string, code int) {
	l.emit(l.errOut, l.fail, "[ERROR] ", fmt.Sprintf("Error %d: %s", code, retcode.Describe(code)))
	if message = strings.TrimSpace(message); message != "" {
		l.emit(l.errOut, l.fail, "", message)
	}
	if path := l.LogFile(); path != "" {
		l.emit(l.errOut, nil, "", "The full log is available at "+path)
	}
	l.mu.Lock()
	docs := l.docsURL
	l.mu.Unlock()
	if docs != "" {
		l.emit(l.errOut, nil, "", "See "+docs+" for help with this error.")
	}
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearPending(l.out)
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) emit(w io.Writer, c *color.Color, prefix, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.clearPending(w)
	if c != nil {
		c.Fprintln(w, prefix+msg)
	} else {
		fmt.Fprintln(w, prefix+msg)
	}
	l.writeFile(prefix, msg)
}

// clearPending erases a progress line before regular output is written.
// Callers hold l.mu.
func (l *Logger) clearPending(w io.Writer) {
	if !l.pending {
		return
	}
	if w == l.out {
		fmt.Fprint(l.out, eraseLine)
	} else {
		fmt.Fprintln(l.out)
	}
	l.pending = false
}

// writeFile appends one plain-text line to the log file. Callers hold l.mu.
func (l *Logger) writeFile(prefix, msg string) {
	if l.file == nil {
		return
	}
	stamp := time.Now().Format("2006-01-02 15:04:05")
	for _, line := range strings.Split(ansiPattern.ReplaceAllString(msg, ""), "\n") {
		fmt.Fprintf(l.file, "%s %s%s\n", stamp, prefix, line)
	}
}
