package mode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"suite-installer/internal/buildconfig"
	"suite-installer/internal/logger"
	"suite-installer/internal/retcode"
)

// ConfigBuildMode runs the CMake configure step with the values of the build
// configuration file.
type ConfigBuildMode struct {
	base
	params ConfigureParams
	env    *Env
}

// NewConfigBuild returns the configBuild mode.
func NewConfigBuild(params ConfigureParams, env *Env) *ConfigBuildMode {
	return &ConfigBuildMode{base: newBase(env, ConfigBuild, Capabilities{LogsToFile: true}), params: params, env: env}
}

// Run implements Executor.
func (c *ConfigBuildMode) Run(ctx context.Context) Result {
	log := c.env.Log
	m := c.env.Manifest

	if err := c.env.Config.Read(); err != nil {
		if errors.Is(err, buildconfig.ErrMissing) {
			log.Errorf("No build configuration found at %s.", c.env.Config.Path())
			log.Errorf("Run %s first to generate it.", logger.Bold("suite-installer config"))
			return Result{Code: retcode.ConfigError}
		}
		return Result{Code: retcode.ConfigError, Message: err.Error()}
	}

	// The top-level CMake project lives in the main repository.
	repo, ok := m.MainRepository()
	if !ok {
		return Result{Code: retcode.ConfigError, Message: "no source repositories are listed in the manifest"}
	}
	sourceDir := m.RepoDir(repo)
	if _, err := os.Stat(filepath.Join(sourceDir, "CMakeLists.txt")); err != nil {
		log.Errorf("The sources of %s were not found in %s.", repo.Name, sourceDir)
		log.Errorf("Run %s to clone them.", logger.Bold("suite-installer getSources"))
		return Result{Code: retcode.IOError}
	}

	log.Progress("Configuring the build in %s...", m.BuildDir())
	code, out := c.env.CMake.Configure(ctx, sourceDir, m.BuildDir(), c.env.Config.CMakeDefinitions(), c.params.KeepOutput)
	if code != 0 {
		return failure(code, retcode.CMakeConfigureError, tail(out, 20))
	}
	log.Info("Build configured in %s", m.BuildDir())
	return Result{}
}

// CompileAndInstallMode compiles the configured build tree and installs it.
type CompileAndInstallMode struct {
	base
	params CompileParams
	env    *Env
}

// NewCompileAndInstall returns the compileAndInstall mode.
func NewCompileAndInstall(params CompileParams, env *Env) *CompileAndInstallMode {
	return &CompileAndInstallMode{
		base: newBase(env, CompileAndInstall, Capabilities{
			LogsToFile:             true,
			PrintsWithSubstitution: true,
			PrintsBannerOnExit:     true,
			SendsInstallationInfo:  true,
		}),
		params: params,
		env:    env,
	}
}

// Params returns the parameters the mode was built with.
func (c *CompileAndInstallMode) Params() CompileParams { return c.params }

// Run implements Executor.
func (c *CompileAndInstallMode) Run(ctx context.Context) Result {
	log := c.env.Log
	m := c.env.Manifest

	// Standalone runs may switch branches first; the all pipeline never sets Branch here.
	if c.params.Branch != "" {
		for _, repo := range m.Repositories {
			log.Progress("Checking out %s in %s...", c.params.Branch, repo.Name)
			code, out := c.env.Git.Checkout(ctx, m.RepoDir(repo), c.params.Branch)
			if code != 0 {
				return failure(code, retcode.CheckoutError, fmt.Sprintf("checkout of %s in %s failed:\n%s", c.params.Branch, repo.Name, tail(out, 10)))
			}
		}
	}

	// CMakeCache.txt only exists after a successful configBuild.
	if _, err := os.Stat(filepath.Join(m.BuildDir(), "CMakeCache.txt")); err != nil {
		log.Errorf("The build directory %s is not configured.", m.BuildDir())
		log.Errorf("Run %s before compiling.", logger.Bold("suite-installer configBuild"))
		return Result{Code: retcode.IOError}
	}

	jobs := c.params.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	log.Progress("Compiling with %d jobs, this can take a while...", jobs)
	if code, out := c.env.CMake.Build(ctx, m.BuildDir(), jobs, c.params.KeepOutput); code != 0 {
		return failure(code, retcode.CMakeCompileError, tail(out, 20))
	}
	log.Info("Compilation finished")

	log.Progress("Installing...")
	if code, out := c.env.CMake.Install(ctx, m.BuildDir(), c.params.KeepOutput); code != 0 {
		return failure(code, retcode.CMakeInstallError, tail(out, 20))
	}
	log.Info("Installed into %s", InstallPrefix(c.env))
	return Result{}
}
