package mode

import (
	"context"
	"fmt"
	"os"
	"strings"

	"suite-installer/internal/logger"
	"suite-installer/internal/retcode"
)

// GitMode runs one git command in every repository of the suite.
type GitMode struct {
	base
	params GitParams
	env    *Env
}

// NewGit returns the git mode. It panics without arguments: the command line
// requires at least one.
func NewGit(params GitParams, env *Env) *GitMode {
	if len(params.Args) == 0 {
		panic("mode: git requires at least one argument")
	}
	return &GitMode{base: newBase(env, Git, Capabilities{}), params: params, env: env}
}

// Run implements Executor. Every repository is visited even after a failure; the
// failing ones are listed in the result.
func (g *GitMode) Run(ctx context.Context) Result {
	log := g.env.Log
	m := g.env.Manifest
	command := "git " + strings.Join(g.params.Args, " ")

	var failed []string
	for _, repo := range m.Repositories {
		dir := m.RepoDir(repo)
		if _, err := os.Stat(dir); err != nil {
			log.Warn("%s is not cloned, skipping", repo.Name)
			continue
		}

		log.Info("%s:", logger.Bold(repo.Name))
		code, out := g.env.Git.Run(ctx, dir, g.params.Args, false)
		if out != "" {
			log.Print(out)
		}
		// Ctrl-C stops the loop; other failures are collected.
		if code == retcode.Interrupted {
			return Result{Code: retcode.Interrupted}
		}
		if code != 0 {
			failed = append(failed, repo.Name)
		}
	}

	if len(failed) > 0 {
		return Result{Code: retcode.GitCommandError, Message: fmt.Sprintf("%q failed in: %s", command, strings.Join(failed, ", "))}
	}
	return Result{}
}
