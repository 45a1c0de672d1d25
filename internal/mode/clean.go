package mode

import (
	"context"
	"fmt"
	"os"
	"strings"

	"suite-installer/internal/retcode"
)

// CleanMode deletes installer-managed paths after a typed confirmation.
// cleanBin removes the build and install trees; cleanAll also removes the sources
// and the build configuration.
type CleanMode struct {
	base
	name    string
	targets []string
	params  CleanParams
	env     *Env
}

// NewCleanBin returns the cleanBin mode.
func NewCleanBin(params CleanParams, env *Env) *CleanMode {
	m := env.Manifest
	return &CleanMode{
		base:    newBase(env, CleanBin, Capabilities{}),
		name:    CleanBin,
		targets: []string{m.BuildDir(), m.InstallDir()},
		params:  params,
		env:     env,
	}
}

// NewCleanAll returns the cleanAll mode.
func NewCleanAll(params CleanParams, env *Env) *CleanMode {
	m := env.Manifest
	return &CleanMode{
		base:    newBase(env, CleanAll, Capabilities{}),
		name:    CleanAll,
		targets: []string{m.SourceDir(), m.BuildDir(), m.InstallDir(), env.Config.Path()},
		params:  params,
		env:     env,
	}
}

// Targets returns the paths the mode deletes.
func (c *CleanMode) Targets() []string { return c.targets }

// Run implements Executor.
func (c *CleanMode) Run(ctx context.Context) Result {
	log := c.env.Log

	// Only ask about paths that are actually there.
	var existing []string
	for _, path := range c.targets {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		log.Info("Nothing to clean")
		return Result{}
	}

	question := "The following paths will be permanently deleted:\n  " + strings.Join(existing, "\n  ")
	if !confirm(ctx, c.env, c.params.AssumeYes, question) {
		log.Warn("%s aborted, nothing was deleted", c.name)
		return Result{Code: retcode.Interrupted}
	}

	for _, path := range existing {
		if err := os.RemoveAll(path); err != nil {
			return Result{Code: retcode.IOError, Message: fmt.Sprintf("failed to remove %s: %v", path, err)}
		}
		log.Info("Removed %s", path)
	}
	return Result{}
}
