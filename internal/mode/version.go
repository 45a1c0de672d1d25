package mode

import (
	"context"
	"os"

	"suite-installer/internal/logger"
)

// VersionMode prints the installer version and the state of each checkout.
type VersionMode struct {
	base
	env *Env
}

// NewVersion returns the version mode.
func NewVersion(env *Env) *VersionMode {
	return &VersionMode{base: newBase(env, Version, Capabilities{}), env: env}
}

// Run implements Executor. It always succeeds.
func (v *VersionMode) Run(ctx context.Context) Result {
	log := v.env.Log
	m := v.env.Manifest

	log.Info("suite-installer %s", logger.Bold(v.env.Version))
	if m.Suite.Version != "" {
		log.Info("%s %s", m.Suite.Name, m.Suite.Version)
	}

	for _, repo := range m.Repositories {
		dir := m.RepoDir(repo)
		if _, err := os.Stat(dir); err != nil {
			log.Info("  %s: not cloned", repo.Name)
			continue
		}
		branch, err := v.env.Git.CurrentBranch(ctx, dir)
		if err != nil {
			log.Warn("  %s: %v", repo.Name, err)
			continue
		}
		head, _ := v.env.Git.Head(ctx, dir)
		log.Info("  %s: %s (%s)", repo.Name, logger.Green(branch), head)
	}

	if err := v.env.Config.Read(); err == nil {
		log.Info("Build configuration %s, last modified %s", v.env.Config.Path(), v.env.Config.LastModified())
	} else {
		log.Debug("Build configuration not readable: %v", err)
	}
	return Result{}
}
