package telemetry

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"suite-installer/internal/git"
	"suite-installer/internal/shell"
)

// DefaultProbes returns the facts reported with every installation attempt.
// repoDir is the main source checkout; its branch and commit are reported when present.
func DefaultProbes(sh shell.Runner, gitClient *git.Client, repoDir string) []Probe {
	return []Probe{
		{Name: "os", Run: func(context.Context) (string, error) { return runtime.GOOS, nil }},
		{Name: "arch", Run: func(context.Context) (string, error) { return runtime.GOARCH, nil }},
		{Name: "cpus", Run: func(context.Context) (string, error) { return strconv.Itoa(runtime.NumCPU()), nil }},
		{Name: "os_release", Run: func(context.Context) (string, error) { return osRelease("/etc/os-release") }},
		{Name: "git_branch", Run: inCheckout(repoDir, gitClient.CurrentBranch)},
		{Name: "git_commit", Run: inCheckout(repoDir, gitClient.Head)},
		{Name: "cmake_version", Run: toolVersion(sh, "cmake", "--version")},
		{Name: "c_compiler", Run: toolVersion(sh, "cc", "--version")},
		{Name: "fortran_compiler", Run: toolVersion(sh, "gfortran", "--version")},
	}
}

// inCheckout runs query in repoDir, failing when there is no checkout there yet.
func inCheckout(repoDir string, query func(context.Context, string) (string, error)) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if repoDir == "" {
			return "", fmt.Errorf("no main repository")
		}
		if _, err := os.Stat(repoDir); err != nil {
			return "", err
		}
		return query(ctx, repoDir)
	}
}

// toolVersion returns a probe reporting the first output line of `name args...`.
func toolVersion(sh shell.Runner, name string, args ...string) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		code, out := sh.Run(ctx, shell.Command{Name: name, Args: args})
		if code != 0 {
			return "", fmt.Errorf("%s exited with %d", name, code)
		}
		return strings.TrimSpace(strings.SplitN(out, "\n", 2)[0]), nil
	}
}

// osRelease reads PRETTY_NAME from an os-release file.
func osRelease(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if ok && key == "PRETTY_NAME" {
			return strings.Trim(value, `"`), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("PRETTY_NAME not found in %s", path)
}
