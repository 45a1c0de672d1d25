// Package cmake builds CMake and CTest command lines and runs them.
package cmake

import (
	"context"
	"strconv"
	"strings"

	"suite-installer/internal/shell"
)

// Client drives one CMake build tree.
type Client struct {
	Shell     shell.Runner
	Generator string // optional -G value
}

// New returns a Client running commands through sh.
func New(sh shell.Runner, generator string) *Client {
	return &Client{Shell: sh, Generator: generator}
}

// ConfigureArgs returns the arguments of the configure step.
func (c *Client) ConfigureArgs(sourceDir, buildDir string, definitions []string) []string {
	args := []string{"-S", sourceDir, "-B", buildDir}
	if c.Generator != "" {
		args = append(args, "-G", c.Generator)
	}
	return append(args, definitions...)
}

// Configure generates the build tree.
func (c *Client) Configure(ctx context.Context, sourceDir, buildDir string, definitions []string, stream bool) (int, string) {
	return c.run(ctx, shell.Command{Name: "cmake", Args: c.ConfigureArgs(sourceDir, buildDir, definitions)}, stream)
}

// Build compiles the tree with jobs parallel jobs (0 lets the generator decide).
func (c *Client) Build(ctx context.Context, buildDir string, jobs int, stream bool) (int, string) {
	args := []string{"--build", buildDir}
	if jobs > 0 {
		args = append(args, "--parallel", strconv.Itoa(jobs))
	}
	return c.run(ctx, shell.Command{Name: "cmake", Args: args}, stream)
}

// Install installs the compiled tree into the configured prefix.
func (c *Client) Install(ctx context.Context, buildDir string, stream bool) (int, string) {
	return c.run(ctx, shell.Command{Name: "cmake", Args: []string{"--install", buildDir}}, stream)
}

// ListTests prints the names of the registered tests without running them.
func (c *Client) ListTests(ctx context.Context, buildDir string) (int, string) {
	return c.Shell.Run(ctx, shell.Command{Name: "ctest", Args: []string{"-N"}, Dir: buildDir})
}

// Test runs the tests whose names match any of names (all tests when empty),
// streaming their output.
func (c *Client) Test(ctx context.Context, buildDir string, names []string, jobs int) int {
	args := []string{"--output-on-failure"}
	if jobs > 0 {
		args = append(args, "--parallel", strconv.Itoa(jobs))
	}
	if len(names) > 0 {
		args = append(args, "-R", TestRegex(names))
	}
	return c.Shell.Stream(ctx, shell.Command{Name: "ctest", Args: args, Dir: buildDir})
}

// TestRegex builds a ctest -R expression matching exactly the given test names.
func TestRegex(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexQuote(n)
	}
	return "^(" + strings.Join(quoted, "|") + ")$"
}

func regexQuote(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (c *Client) run(ctx context.Context, cmd shell.Command, stream bool) (int, string) {
	if stream {
		return c.Shell.Stream(ctx, cmd), ""
	}
	return c.Shell.Run(ctx, cmd)
}
