package mode

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suite-installer/internal/logger"
	"suite-installer/internal/manifest"
	"suite-installer/internal/retcode"
	"suite-installer/internal/shell/shelltest"
)

type fakePrompter struct {
	answer bool
	asked  []string
}

func (p *fakePrompter) Confirm(ctx context.Context, question, expected string) bool {
	p.asked = append(p.asked, question)
	return p.answer && ctx.Err() == nil
}

type testEnv struct {
	*Env
	fake   *shelltest.Fake
	prompt *fakePrompter
	out    *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	m := manifest.Default()
	m.SetRoot(t.TempDir())
	m.Repositories = []manifest.Repository{
		{Name: "utils", URL: "https://git.example.org/utils.git", Branch: "main"},
		{Name: "core", URL: "https://git.example.org/core.git", Branch: "main", Main: true},
	}

	var out bytes.Buffer
	log := logger.New(logger.Options{Stdout: &out, Stderr: &out})
	fake := shelltest.NewFake()
	prompt := &fakePrompter{}

	env := NewEnv(log, fake, m, prompt, "1.2.3")
	env.Git.RetryDelay = 0
	env.Now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	t.Cleanup(func() { _ = log.Close() })
	return &testEnv{Env: env, fake: fake, prompt: prompt, out: &out}
}

// cloneRepos creates checkouts that look already cloned.
func (e *testEnv) cloneRepos(t *testing.T) {
	t.Helper()
	for _, repo := range e.Manifest.Repositories {
		dir := e.Manifest.RepoDir(repo)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "CMakeLists.txt"), []byte("project(x)\n"), 0644))
	}
}

func (e *testEnv) touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
}

// recorder is a scripted Executor counting its runs.
type recorder struct {
	base
	result Result
	runs   int
}

func (r *recorder) Run(context.Context) Result {
	r.runs++
	return r.result
}

func TestDefaultCapabilitiesAreAllFalse(t *testing.T) {
	env := newTestEnv(t)

	b := newBase(env.Env, "plain", Capabilities{})

	assert.Equal(t, Capabilities{}, b.Capabilities())
	assert.Empty(t, env.Log.LogFile())
	assert.False(t, env.Log.AllowsSubstitution())

	for _, ex := range []Executor{
		NewConfig(ConfigParams{}, env.Env),
		NewCleanAll(CleanParams{}, env.Env),
		NewCleanBin(CleanParams{}, env.Env),
		NewGit(GitParams{Args: []string{"status"}}, env.Env),
		NewVersion(env.Env),
	} {
		assert.Equal(t, Capabilities{}, ex.Capabilities())
	}
}

func TestAllStopsAtFirstFailure(t *testing.T) {
	steps := []*recorder{
		{result: Result{}},
		{result: Result{Code: 1, Message: "x"}},
		{result: Result{}},
		{result: Result{}},
	}
	a := &AllMode{}
	for _, s := range steps {
		a.steps = append(a.steps, s)
	}

	res := a.Run(context.Background())

	assert.Equal(t, Result{Code: 1, Message: "x"}, res)
	assert.Equal(t, []int{1, 1, 0, 0}, []int{steps[0].runs, steps[1].runs, steps[2].runs, steps[3].runs})
}

func TestAllReturnsSuccessWhenEveryStepSucceeds(t *testing.T) {
	a := &AllMode{steps: []Executor{&recorder{}, &recorder{}, &recorder{}, &recorder{}}}

	assert.Equal(t, Result{}, a.Run(context.Background()))
	for _, s := range a.steps {
		assert.Equal(t, 1, s.(*recorder).runs)
	}
}

func TestAllForwardsInterruptUnchanged(t *testing.T) {
	last := &recorder{}
	a := &AllMode{steps: []Executor{&recorder{result: Result{Code: retcode.Interrupted}}, last}}

	assert.Equal(t, Result{Code: retcode.Interrupted}, a.Run(context.Background()))
	assert.Zero(t, last.runs)
}

func TestNewAllBuildsPipelineAndDropsBranchForCompile(t *testing.T) {
	env := newTestEnv(t)
	opts := Options{Branch: "dev", Jobs: 4, KeepOutput: true, Overwrite: true}

	a := NewAll(opts, env.Env)

	require.Len(t, a.Steps(), 4)
	assert.IsType(t, &ConfigMode{}, a.Steps()[0])
	sources := a.Steps()[1].(*GetSourcesMode)
	assert.IsType(t, &ConfigBuildMode{}, a.Steps()[2])
	compile := a.Steps()[3].(*CompileAndInstallMode)

	assert.Equal(t, "dev", sources.params.Branch)
	assert.Equal(t, CompileParams{Branch: "", Jobs: 4, KeepOutput: true}, compile.Params())
	assert.True(t, a.Steps()[0].(*ConfigMode).params.Overwrite)
	assert.Equal(t, "dev", opts.Branch)
}

func TestNewAllAppliesCapabilitiesAtConstruction(t *testing.T) {
	env := newTestEnv(t)

	a := NewAll(Options{}, env.Env)

	assert.Equal(t, Capabilities{true, true, true, true}, a.Capabilities())
	assert.True(t, env.Log.AllowsSubstitution())
	assert.Equal(t, filepath.Join(env.Manifest.LogDir(), "all-20260304-050607.log"), env.Log.LogFile())
	assert.FileExists(t, env.Log.LogFile())
}

func TestCompileAndInstallStandaloneChecksOutBranch(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)
	env.touch(t, filepath.Join(env.Manifest.BuildDir(), "CMakeCache.txt"))

	res := NewCompileAndInstall(CompileParams{Branch: "dev", Jobs: 2}, env.Env).Run(context.Background())

	require.True(t, res.Ok(), res.Message)
	lines := env.fake.Lines()
	assert.Contains(t, lines, "git checkout dev")
	assert.Contains(t, lines, "cmake --build "+env.Manifest.BuildDir()+" --parallel 2")
	assert.Equal(t, "cmake --install "+env.Manifest.BuildDir(), lines[len(lines)-1])
}

func TestCompileAndInstallWithoutBranchNeverChecksOut(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)
	env.touch(t, filepath.Join(env.Manifest.BuildDir(), "CMakeCache.txt"))

	res := NewAll(Options{Branch: "dev"}, env.Env).Steps()[3].Run(context.Background())

	require.True(t, res.Ok())
	for _, line := range env.fake.Lines() {
		assert.False(t, strings.HasPrefix(line, "git"), "unexpected git command %q", line)
	}
}

func TestCompileAndInstallRequiresConfiguredBuild(t *testing.T) {
	env := newTestEnv(t)

	res := NewCompileAndInstall(CompileParams{}, env.Env).Run(context.Background())

	assert.Equal(t, Result{Code: retcode.IOError}, res)
	assert.Contains(t, env.out.String(), "is not configured")
	assert.Empty(t, env.fake.Commands)
}

func TestCompileAndInstallMapsFailures(t *testing.T) {
	env := newTestEnv(t)
	env.touch(t, filepath.Join(env.Manifest.BuildDir(), "CMakeCache.txt"))
	env.fake.On("cmake --build", 2, "main.f90:3: Error: Unclassifiable statement")

	res := NewCompileAndInstall(CompileParams{}, env.Env).Run(context.Background())

	assert.Equal(t, retcode.CMakeCompileError, res.Code)
	assert.Contains(t, res.Message, "Unclassifiable statement")

	env.fake.On("cmake --build", retcode.Interrupted, "")
	res = NewCompileAndInstall(CompileParams{}, env.Env).Run(context.Background())
	assert.Equal(t, Result{Code: retcode.Interrupted}, res)
}

func TestConfigWritesBuildConfiguration(t *testing.T) {
	env := newTestEnv(t)

	res := NewConfig(ConfigParams{}, env.Env).Run(context.Background())

	require.True(t, res.Ok())
	assert.FileExists(t, env.Manifest.ConfigFile())
	v, ok := env.Config.Get("CMAKE_INSTALL_PREFIX")
	assert.True(t, ok)
	assert.Equal(t, env.Manifest.InstallDir(), v)
	assert.Contains(t, env.out.String(), "Wrote build configuration")
}

func TestConfigKeepsExistingFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.Manifest.ConfigFile(), []byte("CMAKE_BUILD_TYPE = \"Debug\"\n"), 0644))

	res := NewConfig(ConfigParams{}, env.Env).Run(context.Background())

	require.True(t, res.Ok())
	assert.Contains(t, env.out.String(), "Using existing build configuration")
	assert.Equal(t, []string{"CMAKE_BUILD_TYPE"}, env.Config.Keys())
}

func TestGetSourcesClonesMissingRepositories(t *testing.T) {
	env := newTestEnv(t)

	res := NewGetSources(SourcesParams{}, env.Env).Run(context.Background())

	require.True(t, res.Ok())
	src := env.Manifest.SourceDir()
	assert.Equal(t, []string{
		"git clone --recurse-submodules --branch main https://git.example.org/utils.git " + filepath.Join(src, "utils"),
		"git clone --recurse-submodules --branch main https://git.example.org/core.git " + filepath.Join(src, "core"),
	}, env.fake.Lines())
}

func TestGetSourcesChecksOutExistingRepositories(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)

	res := NewGetSources(SourcesParams{Branch: "release-5"}, env.Env).Run(context.Background())

	require.True(t, res.Ok())
	assert.Equal(t, []string{
		"git fetch --prune origin", "git checkout release-5", "git pull --ff-only",
		"git fetch --prune origin", "git checkout release-5", "git pull --ff-only",
	}, env.fake.Lines())
}

func TestGetSourcesCloneFailure(t *testing.T) {
	env := newTestEnv(t)
	env.Git.Retries = 0
	env.fake.On("git clone", 128, "fatal: repository not found")

	res := NewGetSources(SourcesParams{}, env.Env).Run(context.Background())

	assert.Equal(t, retcode.CloneError, res.Code)
	assert.Contains(t, res.Message, "repository not found")
	assert.Len(t, env.fake.Commands, 1)
}

func TestGetSourcesWithoutRepositories(t *testing.T) {
	env := newTestEnv(t)
	env.Manifest.Repositories = nil

	res := NewGetSources(SourcesParams{}, env.Env).Run(context.Background())

	assert.Equal(t, Result{Code: retcode.ConfigError}, res)
	assert.Contains(t, env.out.String(), "No source repositories")
}

func TestConfigBuildRequiresConfigurationFile(t *testing.T) {
	env := newTestEnv(t)

	res := NewConfigBuild(ConfigureParams{}, env.Env).Run(context.Background())

	assert.Equal(t, Result{Code: retcode.ConfigError}, res)
	assert.Contains(t, env.out.String(), "No build configuration found")
}

func TestConfigBuildRequiresSources(t *testing.T) {
	env := newTestEnv(t)
	require.True(t, NewConfig(ConfigParams{}, env.Env).Run(context.Background()).Ok())

	res := NewConfigBuild(ConfigureParams{}, env.Env).Run(context.Background())

	assert.Equal(t, Result{Code: retcode.IOError}, res)
}

func TestConfigBuildRunsCMake(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)
	require.NoError(t, os.WriteFile(env.Manifest.ConfigFile(), []byte("CMAKE_BUILD_TYPE = \"Debug\"\nUSE_MPI = true\n"), 0644))

	res := NewConfigBuild(ConfigureParams{KeepOutput: true}, env.Env).Run(context.Background())

	require.True(t, res.Ok())
	core := filepath.Join(env.Manifest.SourceDir(), "core")
	assert.Equal(t, []string{
		"cmake -S " + core + " -B " + env.Manifest.BuildDir() + " -DCMAKE_BUILD_TYPE=Debug -DUSE_MPI=ON",
	}, env.fake.Lines())
	assert.Equal(t, []bool{true}, env.fake.Streamed)
}

func TestConfigBuildFailure(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)
	require.NoError(t, os.WriteFile(env.Manifest.ConfigFile(), []byte("A = \"1\"\n"), 0644))
	env.fake.On("cmake -S", 1, "CMake Error: Could not find MPI")

	res := NewConfigBuild(ConfigureParams{}, env.Env).Run(context.Background())

	assert.Equal(t, retcode.CMakeConfigureError, res.Code)
	assert.Contains(t, res.Message, "Could not find MPI")
}

func TestCleanBinDeclined(t *testing.T) {
	env := newTestEnv(t)
	env.touch(t, filepath.Join(env.Manifest.BuildDir(), "CMakeCache.txt"))

	res := NewCleanBin(CleanParams{}, env.Env).Run(context.Background())

	assert.Equal(t, Result{Code: retcode.Interrupted}, res)
	assert.Len(t, env.prompt.asked, 1)
	assert.Contains(t, env.prompt.asked[0], env.Manifest.BuildDir())
	assert.DirExists(t, env.Manifest.BuildDir())
}

func TestCleanAllConfirmed(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)
	env.touch(t, filepath.Join(env.Manifest.InstallDir(), "bin", "solver"))
	env.touch(t, env.Manifest.ConfigFile())
	env.prompt.answer = true

	res := NewCleanAll(CleanParams{}, env.Env).Run(context.Background())

	require.True(t, res.Ok())
	assert.NoDirExists(t, env.Manifest.SourceDir())
	assert.NoDirExists(t, env.Manifest.InstallDir())
	assert.NoFileExists(t, env.Manifest.ConfigFile())
}

func TestCleanAssumeYesSkipsPrompt(t *testing.T) {
	env := newTestEnv(t)
	env.touch(t, filepath.Join(env.Manifest.BuildDir(), "x"))

	res := NewCleanBin(CleanParams{AssumeYes: true}, env.Env).Run(context.Background())

	require.True(t, res.Ok())
	assert.Empty(t, env.prompt.asked)
	assert.NoDirExists(t, env.Manifest.BuildDir())
}

func TestCleanNothingToDo(t *testing.T) {
	env := newTestEnv(t)

	res := NewCleanAll(CleanParams{}, env.Env).Run(context.Background())

	require.True(t, res.Ok())
	assert.Empty(t, env.prompt.asked)
}

func TestGitRunsInEveryRepository(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)
	env.fake.On("git status", 0, "On branch main")

	res := NewGit(GitParams{Args: []string{"status", "-s"}}, env.Env).Run(context.Background())

	require.True(t, res.Ok())
	assert.Equal(t, []string{"git status -s", "git status -s"}, env.fake.Lines())
	assert.Equal(t, filepath.Join(env.Manifest.SourceDir(), "utils"), env.fake.Commands[0].Dir)
	assert.Contains(t, env.out.String(), "On branch main")
}

func TestGitAggregatesFailures(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)
	env.fake.On("git pull", 1, "conflict")

	res := NewGit(GitParams{Args: []string{"pull"}}, env.Env).Run(context.Background())

	assert.Equal(t, retcode.GitCommandError, res.Code)
	assert.Contains(t, res.Message, "utils, core")
	assert.Len(t, env.fake.Commands, 2)
}

func TestGitWithoutArgumentsPanics(t *testing.T) {
	env := newTestEnv(t)
	assert.Panics(t, func() { NewGit(GitParams{}, env.Env) })
}

func TestAddModelMissingPath(t *testing.T) {
	env := newTestEnv(t)

	res := NewAddModel(AddModelParams{Login: "jdoe", ModelPath: filepath.Join(t.TempDir(), "nope")}, env.Env).Run(context.Background())

	assert.Equal(t, Result{Code: retcode.IOError}, res)
	assert.Contains(t, env.out.String(), "does not exist")
	assert.Empty(t, env.prompt.asked)
}

func TestAddModelUploads(t *testing.T) {
	env := newTestEnv(t)
	env.Models.Host = "models.example.org"
	env.Models.RemoteDir = "/srv/models"
	model := filepath.Join(t.TempDir(), "ocean-grid")
	env.touch(t, filepath.Join(model, "weights.bin"))

	ex := NewAddModel(AddModelParams{Login: "jdoe", ModelPath: model, AssumeYes: true}, env.Env)
	res := ex.Run(context.Background())

	require.True(t, res.Ok(), res.Message)
	require.Len(t, env.fake.Commands, 1)
	cmd := env.fake.Commands[0]
	assert.Equal(t, "scp", cmd.Name)
	assert.True(t, strings.HasSuffix(cmd.Args[1], "ocean-grid.tar.gz"))
	assert.Equal(t, "jdoe@models.example.org:/srv/models/", cmd.Args[2])
	assert.Equal(t, Capabilities{LogsToFile: true}, ex.Capabilities())
}

func TestAddModelDeclinedAndFailedUpload(t *testing.T) {
	env := newTestEnv(t)
	env.Models.Host = "models.example.org"
	env.Models.RemoteDir = "/srv/models"
	model := filepath.Join(t.TempDir(), "ocean-grid")
	env.touch(t, filepath.Join(model, "weights.bin"))

	res := NewAddModel(AddModelParams{Login: "jdoe", ModelPath: model}, env.Env).Run(context.Background())
	assert.Equal(t, Result{Code: retcode.Interrupted}, res)
	assert.Empty(t, env.fake.Commands)

	env.fake.On("scp", 1, "Permission denied (publickey)")
	res = NewAddModel(AddModelParams{Login: "jdoe", ModelPath: model, AssumeYes: true}, env.Env).Run(context.Background())
	assert.Equal(t, retcode.UploadError, res.Code)
	assert.Contains(t, res.Message, "Permission denied")
}

func TestAddModelWithoutArgumentsPanics(t *testing.T) {
	env := newTestEnv(t)
	assert.Panics(t, func() { NewAddModel(AddModelParams{Login: "jdoe"}, env.Env) })
}

func TestGetModelsWithoutArchives(t *testing.T) {
	env := newTestEnv(t)

	res := NewGetModels(env.Env).Run(context.Background())

	require.True(t, res.Ok())
	assert.Contains(t, env.out.String(), "No model archives")
}

func TestGetModelsDownloadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.Manifest.Models.Archives = []manifest.ModelArchive{{Name: "grid", File: "grid.tar.gz"}}

	res := NewGetModels(env.Env).Run(context.Background())

	assert.Equal(t, retcode.DownloadError, res.Code)
	assert.Contains(t, res.Message, "no model base URL")
}

func TestTestModeRequiresBuild(t *testing.T) {
	env := newTestEnv(t)

	res := NewTest(TestParams{}, env.Env).Run(context.Background())

	assert.Equal(t, Result{Code: retcode.IOError}, res)
}

func TestTestModeListsAndRuns(t *testing.T) {
	env := newTestEnv(t)
	env.touch(t, filepath.Join(env.Manifest.BuildDir(), "CTestTestfile.cmake"))
	env.fake.On("ctest -N", 0, "Test #1: io\nTotal Tests: 1")

	res := NewTest(TestParams{ShowTests: true}, env.Env).Run(context.Background())
	require.True(t, res.Ok())
	assert.Contains(t, env.out.String(), "Total Tests: 1")

	env.fake.On("ctest --output-on-failure", 8, "")
	res = NewTest(TestParams{Names: []string{"io"}}, env.Env).Run(context.Background())
	assert.Equal(t, retcode.TestError, res.Code)
	assert.Equal(t, "ctest --output-on-failure -R ^(io)$", env.fake.Lines()[1])
}

func TestVersionReportsCheckouts(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)
	env.fake.On("git rev-parse --abbrev-ref", 0, "main").On("git rev-parse --short", 0, "abc1234")

	res := NewVersion(env.Env).Run(context.Background())

	require.True(t, res.Ok())
	assert.Contains(t, env.out.String(), "1.2.3")
	assert.Contains(t, env.out.String(), "abc1234")
}

func TestAllPipelineEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)
	env.touch(t, filepath.Join(env.Manifest.BuildDir(), "CMakeCache.txt"))

	res := NewAll(Options{Jobs: 3}, env.Env).Run(context.Background())

	require.True(t, res.Ok(), res.Message)
	build := env.Manifest.BuildDir()
	core := filepath.Join(env.Manifest.SourceDir(), "core")
	lines := env.fake.Lines()
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "cmake -S "+core+" -B "+build))
	assert.Equal(t, "cmake --build "+build+" --parallel 3", lines[1])
	assert.Equal(t, "cmake --install "+build, lines[2])
}

func TestAllPipelineStopsBeforeBuildOnConfigureFailure(t *testing.T) {
	env := newTestEnv(t)
	env.cloneRepos(t)
	env.fake.On("cmake -S", 1, "CMake Error")

	res := NewAll(Options{}, env.Env).Run(context.Background())

	assert.Equal(t, retcode.CMakeConfigureError, res.Code)
	for _, line := range env.fake.Lines() {
		assert.False(t, strings.HasPrefix(line, "cmake --build"))
	}
}

func TestTail(t *testing.T) {
	assert.Equal(t, "a\nb", tail("a\nb\n", 5))
	assert.Equal(t, "...\nc\nd", tail("a\nb\nc\nd", 2))
}

func TestCleanInterruptedAtPrompt(t *testing.T) {
	env := newTestEnv(t)
	env.touch(t, filepath.Join(env.Manifest.BuildDir(), "x"))
	env.prompt.answer = true
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewCleanBin(CleanParams{}, env.Env).Run(ctx)

	assert.Equal(t, Result{Code: retcode.Interrupted}, res)
	assert.DirExists(t, env.Manifest.BuildDir())
}
