package mode

import "fmt"

// Mode names as typed on the command line.
const (
	All               = "all"
	Config            = "config"
	ConfigBuild       = "configBuild"
	GetSources        = "getSources"
	CompileAndInstall = "compileAndInstall"
	CleanAll          = "cleanAll"
	CleanBin          = "cleanBin"
	Git               = "git"
	GetModels         = "getModels"
	AddModel          = "addModel"
	Test              = "test"
	Version           = "version"
)

// Factory constructs the executor of one mode.
type Factory func(opts Options, env *Env) Executor

// names lists the modes in the order the CLI presents them.
var names = []string{
	All, Config, ConfigBuild, GetSources, CompileAndInstall,
	CleanAll, CleanBin, Git, GetModels, AddModel, Test, Version,
}

var factories = map[string]Factory{
	All:               func(o Options, env *Env) Executor { return NewAll(o, env) },
	Config:            func(o Options, env *Env) Executor { return NewConfig(o.ConfigParams(), env) },
	ConfigBuild:       func(o Options, env *Env) Executor { return NewConfigBuild(o.ConfigureParams(), env) },
	GetSources:        func(o Options, env *Env) Executor { return NewGetSources(o.SourcesParams(), env) },
	CompileAndInstall: func(o Options, env *Env) Executor { return NewCompileAndInstall(o.CompileParams(), env) },
	CleanAll:          func(o Options, env *Env) Executor { return NewCleanAll(o.CleanParams(), env) },
	CleanBin:          func(o Options, env *Env) Executor { return NewCleanBin(o.CleanParams(), env) },
	Git:               func(o Options, env *Env) Executor { return NewGit(o.GitParams(), env) },
	GetModels:         func(o Options, env *Env) Executor { return NewGetModels(env) },
	AddModel:          func(o Options, env *Env) Executor { return NewAddModel(o.AddModelParams(), env) },
	Test:              func(o Options, env *Env) Executor { return NewTest(o.TestParams(), env) },
	Version:           func(o Options, env *Env) Executor { return NewVersion(env) },
}

// Names returns every mode name in CLI order.
func Names() []string {
	return append([]string(nil), names...)
}

// Resolve returns name, or All when name is empty.
func Resolve(name string) string {
	if name == "" {
		return All
	}
	return name
}

// Select constructs the executor for opts.Mode (All when empty). An unknown name
// means the command line let through something it should have rejected, so it panics.
func Select(opts Options, env *Env) Executor {
	name := Resolve(opts.Mode)
	factory, ok := factories[name]
	if !ok {
		panic(fmt.Sprintf("mode: no executor registered for %q", name))
	}
	return factory(opts, env)
}
