package mode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"suite-installer/internal/logger"
	"suite-installer/internal/retcode"
)

// TestMode lists or runs the suite's CTest tests.
type TestMode struct {
	base
	params TestParams
	env    *Env
}

// NewTest returns the test mode.
func NewTest(params TestParams, env *Env) *TestMode {
	return &TestMode{base: newBase(env, Test, Capabilities{LogsToFile: true}), params: params, env: env}
}

// Run implements Executor.
func (t *TestMode) Run(ctx context.Context) Result {
	log := t.env.Log
	buildDir := t.env.Manifest.BuildDir()

	if _, err := os.Stat(filepath.Join(buildDir, "CTestTestfile.cmake")); err != nil {
		log.Errorf("No tests were found in %s.", buildDir)
		log.Errorf("Build the suite with %s first.", logger.Bold("suite-installer compileAndInstall"))
		return Result{Code: retcode.IOError}
	}

	if t.params.ShowTests {
		code, out := t.env.CMake.ListTests(ctx, buildDir)
		if code != 0 {
			return failure(code, retcode.TestError, tail(out, 20))
		}
		log.Print(out)
		return Result{}
	}

	code := t.env.CMake.Test(ctx, buildDir, t.params.Names, t.params.Jobs)
	if code != 0 {
		return failure(code, retcode.TestError, fmt.Sprintf("ctest exited with status %d", code))
	}
	log.Info("All selected tests passed")
	return Result{}
}
