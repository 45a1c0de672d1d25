package mode

import "context"

// AllMode runs the complete installation: write or read the build configuration,
// fetch the sources, configure the build, then compile and install.
type AllMode struct {
	base
	steps []Executor
}

// NewAll builds the pipeline. The compile step never receives the branch: switching
// branches belongs to getSources alone.
func NewAll(opts Options, env *Env) *AllMode {
	a := &AllMode{base: newBase(env, All, Capabilities{
		LogsToFile:             true,
		PrintsWithSubstitution: true,
		PrintsBannerOnExit:     true,
		SendsInstallationInfo:  true,
	})}

	compile := opts.CompileParams()
	compile.Branch = ""

	a.steps = []Executor{
		NewConfig(opts.ConfigParams(), env),
		NewGetSources(opts.SourcesParams(), env),
		NewConfigBuild(opts.ConfigureParams(), env),
		NewCompileAndInstall(compile, env),
	}
	return a
}

// Steps returns the pipeline in execution order.
func (a *AllMode) Steps() []Executor { return a.steps }

// Run executes the steps in order and stops at the first failure, returning that
// step's result unchanged.
func (a *AllMode) Run(ctx context.Context) Result {
	for _, step := range a.steps {
		if res := step.Run(ctx); !res.Ok() {
			return res
		}
	}
	return Result{}
}
