package mode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"suite-installer/internal/logger"
	"suite-installer/internal/retcode"
)

// GetSourcesMode clones every repository of the suite that is not present yet and,
// when a branch was requested, switches every checkout to it.
type GetSourcesMode struct {
	base
	params SourcesParams
	env    *Env
}

// NewGetSources returns the getSources mode.
func NewGetSources(params SourcesParams, env *Env) *GetSourcesMode {
	return &GetSourcesMode{
		base:   newBase(env, GetSources, Capabilities{LogsToFile: true, PrintsWithSubstitution: true}),
		params: params,
		env:    env,
	}
}

// Run implements Executor.
func (g *GetSourcesMode) Run(ctx context.Context) Result {
	log := g.env.Log
	m := g.env.Manifest

	if len(m.Repositories) == 0 {
		log.Errorf("No source repositories are listed in the manifest.")
		log.Errorf("Add a %s section to %s and run the installer again.", logger.Bold("repositories"), m.Root())
		return Result{Code: retcode.ConfigError}
	}
	if err := os.MkdirAll(m.SourceDir(), 0755); err != nil {
		return Result{Code: retcode.IOError, Message: fmt.Sprintf("failed to create %s: %v", m.SourceDir(), err)}
	}

	for _, repo := range m.Repositories {
		dir := m.RepoDir(repo)

		// Not cloned yet: clone directly on the requested branch.
		if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
			branch := repo.Branch
			if g.params.Branch != "" {
				branch = g.params.Branch
			}
			log.Progress("Cloning %s...", repo.Name)
			code, out := g.env.Git.Clone(ctx, repo.URL, branch, dir)
			if code != 0 {
				return failure(code, retcode.CloneError, fmt.Sprintf("git clone of %s failed:\n%s", repo.URL, tail(out, 10)))
			}
			log.Info("Cloned %s into %s", repo.Name, dir)
			continue
		}

		// Already cloned: only switch branches when asked to.
		if g.params.Branch == "" {
			log.Info("%s is already present, skipping clone", repo.Name)
			continue
		}
		log.Progress("Checking out %s in %s...", g.params.Branch, repo.Name)
		code, out := g.env.Git.Checkout(ctx, dir, g.params.Branch)
		if code != 0 {
			return failure(code, retcode.CheckoutError, fmt.Sprintf("checkout of %s in %s failed:\n%s", g.params.Branch, repo.Name, tail(out, 10)))
		}
		log.Info("%s is now on %s", repo.Name, logger.Bold(g.params.Branch))
	}
	return Result{}
}
