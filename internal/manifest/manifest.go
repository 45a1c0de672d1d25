// Package manifest loads the installer's own settings: where the suite's sources come
// from, where things are built and installed, the model host and the metrics endpoint.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the manifest looked up when --manifest is not given.
const DefaultFile = "suite.yaml"

// Default values applied to fields left empty in the manifest.
const (
	DefaultCloneRetries     = 2
	DefaultTelemetryTimeout = 10 * time.Second
)

// Manifest is the parsed suite.yaml.
type Manifest struct {
	Suite        Suite        `yaml:"suite"`
	Directories  Directories  `yaml:"directories"`
	Build        Build        `yaml:"build"`
	Git          Git          `yaml:"git"`
	Repositories []Repository `yaml:"repositories"`
	Models       Models       `yaml:"models"`
	Telemetry    Telemetry    `yaml:"telemetry"`
	DocsURL      string       `yaml:"docs_url"`

	// root is the directory relative paths are resolved against.
	root string
}

// Suite names the software being installed.
type Suite struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Directories holds the working directories, relative to the manifest's directory
// unless absolute.
type Directories struct {
	Sources string `yaml:"sources"`
	Build   string `yaml:"build"`
	Install string `yaml:"install"`
	Logs    string `yaml:"logs"`
	Models  string `yaml:"models"`
}

// Build configures the CMake invocation.
type Build struct {
	ConfigFile string `yaml:"config_file"` // key = value build configuration written by `config`
	Generator  string `yaml:"generator"`   // optional CMake generator, e.g. "Ninja"
}

// Git tunes the git wrapper.
type Git struct {
	RawCloneRetries *int `yaml:"clone_retries"` // nil means DefaultCloneRetries; 0 disables retries
}

// Repository is one source repository of the suite.
type Repository struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Branch string `yaml:"branch"` // default branch to clone
	Main   bool   `yaml:"main"`   // holds the top-level CMakeLists.txt
}

// Models describes where model artifacts are published.
type Models struct {
	Host      string         `yaml:"host"`       // ssh host receiving uploads
	RemoteDir string         `yaml:"remote_dir"` // directory on Host
	BaseURL   string         `yaml:"base_url"`   // HTTP(S) prefix for downloads
	Archives  []ModelArchive `yaml:"archives"`
}

// ModelArchive is one downloadable model archive.
type ModelArchive struct {
	Name   string `yaml:"name"`
	File   string `yaml:"file"`   // archive file name under BaseURL
	SHA256 string `yaml:"sha256"` // optional checksum
}

// Telemetry configures anonymized installation reports.
type Telemetry struct {
	Enabled       *bool  `yaml:"enabled"`
	Endpoint      string `yaml:"endpoint"`
	WarnOnFailure bool   `yaml:"warn_on_failure"`
	RawTimeout    string `yaml:"timeout"` // e.g. "10s"
}

// Default returns the manifest used when no file exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load reads the manifest at path. A missing file yields Default rooted at the
// file's directory; any other read or parse failure is returned.
func Load(path string) (*Manifest, error) {
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest directory: %w", err)
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		m := Default()
		m.root = root
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest %s: %w", path, err)
	}
	m.root = root
	m.applyDefaults()
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Suite.Name == "" {
		m.Suite.Name = "suite"
	}
	if m.Directories.Sources == "" {
		m.Directories.Sources = "sources"
	}
	if m.Directories.Build == "" {
		m.Directories.Build = "build"
	}
	if m.Directories.Install == "" {
		m.Directories.Install = "install"
	}
	if m.Directories.Logs == "" {
		m.Directories.Logs = "logs"
	}
	if m.Directories.Models == "" {
		m.Directories.Models = "models"
	}
	if m.Build.ConfigFile == "" {
		m.Build.ConfigFile = "build.conf"
	}
	if m.root == "" {
		m.root = "."
	}
}

// Root returns the directory relative paths are resolved against.
func (m *Manifest) Root() string { return m.root }

// SetRoot overrides the base directory, mainly for tests.
func (m *Manifest) SetRoot(dir string) { m.root = dir }

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.root, p)
}

// SourceDir is where the repositories are cloned.
func (m *Manifest) SourceDir() string { return m.resolve(m.Directories.Sources) }

// BuildDir is the CMake build tree.
func (m *Manifest) BuildDir() string { return m.resolve(m.Directories.Build) }

// InstallDir is the default install prefix written into a fresh build configuration.
func (m *Manifest) InstallDir() string { return m.resolve(m.Directories.Install) }

// LogDir receives one log file per run of a mode that logs to file.
func (m *Manifest) LogDir() string { return m.resolve(m.Directories.Logs) }

// ModelDir is where downloaded model archives are unpacked.
func (m *Manifest) ModelDir() string { return m.resolve(m.Directories.Models) }

// ConfigFile is the path of the key = value build configuration.
func (m *Manifest) ConfigFile() string { return m.resolve(m.Build.ConfigFile) }

// RepoDir returns the checkout directory of repo.
func (m *Manifest) RepoDir(repo Repository) string {
	return filepath.Join(m.SourceDir(), repo.Name)
}

// MainRepository returns the repository holding the top-level CMake project:
// the one flagged main, otherwise the first one.
func (m *Manifest) MainRepository() (Repository, bool) {
	for _, r := range m.Repositories {
		if r.Main {
			return r, true
		}
	}
	if len(m.Repositories) > 0 {
		return m.Repositories[0], true
	}
	return Repository{}, false
}

// CloneRetries returns how many times a failed clone is retried. An unset or
// negative value yields DefaultCloneRetries; an explicit 0 disables retries.
func (m *Manifest) CloneRetries() int {
	if m.Git.RawCloneRetries == nil || *m.Git.RawCloneRetries < 0 {
		return DefaultCloneRetries
	}
	return *m.Git.RawCloneRetries
}

// TelemetryEnabled reports whether reports should be sent at all. The
// SUITE_INSTALLER_NO_TELEMETRY environment variable always wins.
func (m *Manifest) TelemetryEnabled() bool {
	if os.Getenv("SUITE_INSTALLER_NO_TELEMETRY") != "" {
		return false
	}
	if m.Telemetry.Endpoint == "" {
		return false
	}
	return m.Telemetry.Enabled == nil || *m.Telemetry.Enabled
}

// TelemetryTimeout returns the configured timeout or the default.
func (m *Manifest) TelemetryTimeout() time.Duration {
	if m.Telemetry.RawTimeout != "" {
		d, err := time.ParseDuration(m.Telemetry.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTelemetryTimeout
}
