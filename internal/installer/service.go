// Package installer runs one installer invocation: it selects the mode, runs it
// once and then performs the post-run actions the mode's capabilities ask for.
package installer

import (
	"context"

	"suite-installer/internal/mode"
)

// Reporter sends the outcome of a run to the telemetry endpoint.
type Reporter interface {
	Report(ctx context.Context, mode string, code int) error
}

// Service ties the mode executors to error reporting, telemetry and the exit banner.
type Service struct {
	Env       *mode.Env
	Telemetry Reporter

	// WarnOnTelemetryFailure surfaces telemetry errors as warnings instead of
	// debug lines. The exit code is never affected.
	WarnOnTelemetryFailure bool

	// Select constructs the executor; mode.Select when nil.
	Select func(mode.Options, *mode.Env) mode.Executor
}

// New returns a Service using mode.Select.
func New(env *mode.Env, telemetry Reporter) *Service {
	return &Service{Env: env, Telemetry: telemetry, Select: mode.Select}
}

// RunInstaller runs the mode named by opts and returns the process exit code.
func (s *Service) RunInstaller(ctx context.Context, opts mode.Options) int {
	log := s.Env.Log
	name := mode.Resolve(opts.Mode)
	opts.Mode = name

	selectMode := s.Select
	if selectMode == nil {
		selectMode = mode.Select
	}
	// Construction applies the mode's capabilities to the logger.
	executor := selectMode(opts, s.Env)
	caps := executor.Capabilities()
	log.Debug("Running %s with %+v", name, caps)

	// One run, one result: every decision below reads res.
	res := executor.Run(ctx)

	if !res.Ok() {
		log.Error(res.Message, res.Code)
	}

	if caps.SendsInstallationInfo && s.Telemetry != nil {
		// Detached from ctx so an interrupted run is still reported.
		if err := s.Telemetry.Report(context.WithoutCancel(ctx), name, res.Code); err != nil {
			if s.WarnOnTelemetryFailure {
				log.Warn("Could not send installation report: %v", err)
			} else {
				log.Debug("Could not send installation report: %v", err)
			}
		}
	}

	if res.Ok() && caps.PrintsBannerOnExit {
		s.printBanner()
	}
	return res.Code
}

// printBanner shows the suite name, install prefix and log file in a box.
func (s *Service) printBanner() {
	env := s.Env
	title := env.Manifest.Suite.Name + " was installed successfully"
	lines := []string{"Installed into " + mode.InstallPrefix(env)}
	if path := env.Log.LogFile(); path != "" {
		lines = append(lines, "Log file: "+path)
	}
	env.Log.Banner(title, lines...)
}
