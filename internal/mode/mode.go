// Package mode implements the installer's commands ("modes").
//
// Every mode is an Executor: a unit of work with a fixed Capabilities record and
// a single Run method returning a Result. Capabilities are decided when the executor
// is constructed and applied right away (a log file is attached, progress-line
// substitution is switched on), so by the time anything runs the shared logger is
// already in the state the mode asked for.
//
// Expected failures (a tool exited non-zero, a file is missing, the user declined a
// confirmation) are reported through the Result, never through a panic. Panics are
// reserved for programming errors such as an unknown mode name.
package mode

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"suite-installer/internal/buildconfig"
	"suite-installer/internal/cmake"
	"suite-installer/internal/git"
	"suite-installer/internal/logger"
	"suite-installer/internal/manifest"
	"suite-installer/internal/models"
	"suite-installer/internal/retcode"
	"suite-installer/internal/shell"
)

// Capabilities declares the side effects the installer applies around a mode.
// The zero value disables all of them.
type Capabilities struct {
	LogsToFile             bool // mirror console output into a log file
	PrintsWithSubstitution bool // progress lines may overwrite the previous line
	PrintsBannerOnExit     bool // print the success banner when Run succeeds
	SendsInstallationInfo  bool // send telemetry after Run, whatever the outcome
}

// Result is the outcome of Run. Code 0 is success; Message carries detail for a
// failure and is empty when the mode already reported the problem itself.
type Result struct {
	Code    int
	Message string
}

// Ok reports whether the result is a success.
func (r Result) Ok() bool { return r.Code == retcode.Success }

// Executor is one mode, constructed once and run once.
type Executor interface {
	Capabilities() Capabilities
	Run(ctx context.Context) Result
}

// Env carries the collaborators shared by every mode of one installer run.
type Env struct {
	Log      *logger.Logger
	Shell    shell.Runner
	Manifest *manifest.Manifest
	Config   *buildconfig.Handler
	Git      *git.Client
	CMake    *cmake.Client
	Models   *models.Store
	Prompt   Prompter
	Version  string // installer version
	Now      func() time.Time
}

// NewEnv wires the collaborators described by m.
func NewEnv(log *logger.Logger, sh shell.Runner, m *manifest.Manifest, prompt Prompter, version string) *Env {
	return &Env{
		Log:      log,
		Shell:    sh,
		Manifest: m,
		Config:   buildconfig.NewHandler(m.ConfigFile()),
		Git:      git.New(sh, log, m.CloneRetries()),
		CMake:    cmake.New(sh, m.Build.Generator),
		Models:   models.NewStore(m, sh, log),
		Prompt:   prompt,
		Version:  version,
		Now:      time.Now,
	}
}

// now returns the current time, overridable in tests through Now.
func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// base holds the capability record every executor embeds.
type base struct {
	caps Capabilities
}

// Capabilities implements Executor.
func (b base) Capabilities() Capabilities { return b.caps }

// newBase records caps and applies them to the shared logger. A log file already
// attached by an enclosing mode is kept, so a whole pipeline writes to one file.
func newBase(env *Env, name string, caps Capabilities) base {
	if caps.LogsToFile && env.Log.LogFile() == "" {
		path := filepath.Join(env.Manifest.LogDir(), fmt.Sprintf("%s-%s.log", name, env.now().Format("20060102-150405")))
		if err := env.Log.StartLogFile(path); err != nil {
			env.Log.Warn("Could not start log file: %v", err)
		}
	}
	if caps.PrintsWithSubstitution {
		env.Log.SetAllowSubstitution(true)
	}
	return base{caps: caps}
}

// failure maps a wrapper's exit code to category, keeping the interrupt sentinel.
func failure(code, category int, message string) Result {
	if code == retcode.Interrupted {
		return Result{Code: retcode.Interrupted}
	}
	return Result{Code: category, Message: message}
}

// tail keeps the last n lines of tool output for an error message.
func tail(output string, n int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return "...\n" + strings.Join(lines[len(lines)-n:], "\n")
}

// InstallPrefix returns where the suite is installed: the build configuration's
// CMAKE_INSTALL_PREFIX when it has been read, otherwise the manifest's install directory.
func InstallPrefix(env *Env) string {
	if v, ok := env.Config.Get("CMAKE_INSTALL_PREFIX"); ok && v != "" {
		return v
	}
	return env.Manifest.InstallDir()
}
