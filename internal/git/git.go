// Package git wraps the git command line for the installer.
package git

import (
	"context"
	"fmt"
	"os"
	"time"

	"suite-installer/internal/logger"
	"suite-installer/internal/retcode"
	"suite-installer/internal/shell"
)

// Client runs git through a shell.Runner.
type Client struct {
	Shell      shell.Runner
	Log        *logger.Logger
	Retries    int           // extra clone attempts after a failure
	RetryDelay time.Duration // pause between clone attempts
}

// New returns a Client with the given retry budget.
func New(sh shell.Runner, log *logger.Logger, retries int) *Client {
	return &Client{Shell: sh, Log: log, Retries: retries, RetryDelay: 3 * time.Second}
}

// Run executes `git <args>` inside dir.
func (c *Client) Run(ctx context.Context, dir string, args []string, show bool) (int, string) {
	return c.Shell.Run(ctx, shell.Command{Name: "git", Args: args, Dir: dir, ShowOutput: show, ShowError: show})
}

// Clone clones url into dir, checking out branch when it is not empty.
// Transient failures are retried; a partially created dir is removed before each retry.
func (c *Client) Clone(ctx context.Context, url, branch, dir string) (int, string) {
	args := []string{"clone", "--recurse-submodules"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, dir)

	var code int
	var out string
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			c.Log.Warn("Clone of %s failed, retrying (%d/%d)...", url, attempt, c.Retries)
			if err := os.RemoveAll(dir); err != nil {
				return code, fmt.Sprintf("failed to clean up %s before retrying: %v", dir, err)
			}
			select {
			case <-ctx.Done():
				return retcode.Interrupted, ""
			case <-time.After(c.RetryDelay):
			}
		}
		code, out = c.Shell.Run(ctx, shell.Command{Name: "git", Args: args})
		if code == 0 || code == retcode.Interrupted {
			return code, out
		}
	}
	return code, out
}

// Checkout fetches from origin and switches dir to branch, fast-forwarding it.
func (c *Client) Checkout(ctx context.Context, dir, branch string) (int, string) {
	steps := [][]string{
		{"fetch", "--prune", "origin"},
		{"checkout", branch},
		{"pull", "--ff-only"},
	}
	for _, args := range steps {
		if code, out := c.Run(ctx, dir, args, false); code != 0 {
			return code, out
		}
	}
	return 0, ""
}

// CurrentBranch returns the checked-out branch of dir.
func (c *Client) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return c.output(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// Head returns the short hash of HEAD in dir.
func (c *Client) Head(ctx context.Context, dir string) (string, error) {
	return c.output(ctx, dir, "rev-parse", "--short", "HEAD")
}

func (c *Client) output(ctx context.Context, dir string, args ...string) (string, error) {
	code, out := c.Run(ctx, dir, args, false)
	if code != 0 {
		return "", fmt.Errorf("git %v: exit %d: %s", args, code, out)
	}
	return out, nil
}
