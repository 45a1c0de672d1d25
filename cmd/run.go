package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"suite-installer/internal/installer"
	"suite-installer/internal/logger"
	"suite-installer/internal/manifest"
	"suite-installer/internal/mode"
	"suite-installer/internal/retcode"
	"suite-installer/internal/shell"
	"suite-installer/internal/telemetry"
)

// runMode wires the installer for one invocation and runs the named mode.
func runMode(name string) int {
	log := logger.New(logger.Options{Debug: debug})
	defer log.Close()

	m, err := manifest.Load(manifestPath)
	if err != nil {
		log.Error(err.Error(), retcode.ConfigError)
		return retcode.ConfigError
	}
	log.SetDocsURL(m.DocsURL)
	log.Debug("Using manifest rooted at %s", m.Root())

	run := opts
	run.Mode = name
	run.AssumeYes = assumeYes

	env := mode.NewEnv(log, shell.NewExecutor(log), m, mode.NewLinePrompter(os.Stdin, os.Stdout), Version)
	svc := installer.New(env, newReporter(env))
	svc.WarnOnTelemetryFailure = m.Telemetry.WarnOnFailure

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return svc.RunInstaller(ctx, run)
}

func newReporter(env *mode.Env) *telemetry.Reporter {
	m := env.Manifest
	repoDir := ""
	if repo, ok := m.MainRepository(); ok {
		repoDir = m.RepoDir(repo)
	}
	return &telemetry.Reporter{
		Enabled: m.TelemetryEnabled(),
		Assembler: &telemetry.Assembler{
			Suite:            m.Suite.Name,
			SuiteVersion:     m.Suite.Version,
			InstallerVersion: Version,
			Probes:           telemetry.DefaultProbes(env.Shell, env.Git, repoDir),
			Log:              env.Log,
		},
		Client: telemetry.NewClient(m.Telemetry.Endpoint, m.TelemetryTimeout()),
	}
}
