package mode

// Options is the parsed command line of one installer run. It is never modified;
// each mode receives only the parameters it owns through the methods below.
type Options struct {
	Mode       string
	Branch     string
	Jobs       int
	KeepOutput bool
	Overwrite  bool
	Login      string
	ModelPath  string
	ShowTests  bool
	TestNames  []string
	GitArgs    []string
	AssumeYes  bool
}

// ConfigParams configures the config mode.
type ConfigParams struct {
	Overwrite bool
}

// SourcesParams configures getSources.
type SourcesParams struct {
	Branch string // "" keeps each repository's default branch
}

// ConfigureParams configures configBuild.
type ConfigureParams struct {
	KeepOutput bool
}

// CompileParams configures compileAndInstall.
type CompileParams struct {
	Branch     string // checked out in every repository before building when set
	Jobs       int
	KeepOutput bool
}

// CleanParams configures cleanAll and cleanBin.
type CleanParams struct {
	AssumeYes bool
}

// GitParams configures the git mode.
type GitParams struct {
	Args []string
}

// AddModelParams configures addModel.
type AddModelParams struct {
	Login     string
	ModelPath string
	AssumeYes bool
}

// TestParams configures the test mode.
type TestParams struct {
	ShowTests bool
	Names     []string
	Jobs      int
}

// ConfigParams returns the config mode's share of o.
func (o Options) ConfigParams() ConfigParams { return ConfigParams{Overwrite: o.Overwrite} }

// SourcesParams returns the getSources share of o.
func (o Options) SourcesParams() SourcesParams { return SourcesParams{Branch: o.Branch} }

// ConfigureParams returns the configBuild share of o.
func (o Options) ConfigureParams() ConfigureParams { return ConfigureParams{KeepOutput: o.KeepOutput} }

// CompileParams returns the compileAndInstall share of o, branch included.
// The all pipeline clears the branch on its copy.
func (o Options) CompileParams() CompileParams {
	return CompileParams{Branch: o.Branch, Jobs: o.Jobs, KeepOutput: o.KeepOutput}
}

// CleanParams returns the parameters shared by cleanAll and cleanBin.
func (o Options) CleanParams() CleanParams { return CleanParams{AssumeYes: o.AssumeYes} }

// GitParams returns a copy of the git arguments.
func (o Options) GitParams() GitParams {
	return GitParams{Args: append([]string(nil), o.GitArgs...)}
}

// AddModelParams returns the addModel share of o.
func (o Options) AddModelParams() AddModelParams {
	return AddModelParams{Login: o.Login, ModelPath: o.ModelPath, AssumeYes: o.AssumeYes}
}

// TestParams returns the test mode's share of o; the name list is copied.
func (o Options) TestParams() TestParams {
	return TestParams{ShowTests: o.ShowTests, Names: append([]string(nil), o.TestNames...), Jobs: o.Jobs}
}
