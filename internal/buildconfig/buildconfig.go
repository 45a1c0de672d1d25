// Package buildconfig reads and writes the user-editable build configuration file.
//
// The file is a flat list of KEY = value pairs (TOML syntax). Every key is handed
// to CMake as -DKEY=VALUE when the build is configured.
package buildconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

const header = `# Build configuration generated by suite-installer.
# Each KEY = value pair is passed to CMake as -DKEY=VALUE.
# Edit the values and run "suite-installer configBuild" to apply them.

`

// Handler owns one build configuration file.
type Handler struct {
	path    string
	values  map[string]string
	modTime time.Time
}

// NewHandler returns a Handler for the file at path. Nothing is read yet.
func NewHandler(path string) *Handler {
	return &Handler{path: path}
}

// Path returns the configuration file location.
func (h *Handler) Path() string { return h.path }

// Exists reports whether the file is present on disk.
func (h *Handler) Exists() bool {
	_, err := os.Stat(h.path)
	return err == nil
}

// Write creates the file from defaults. An existing file is kept unless overwrite
// is set; either way the file is read back afterwards. It reports whether the file
// was (re)written.
func (h *Handler) Write(overwrite bool, defaults map[string]string) (bool, error) {
	if h.Exists() && !overwrite {
		return false, h.Read()
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	if err := toml.NewEncoder(&buf).Encode(defaults); err != nil {
		return false, fmt.Errorf("failed to encode build configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory for %s: %w", h.path, err)
	}
	if err := os.WriteFile(h.path, buf.Bytes(), 0644); err != nil {
		return false, fmt.Errorf("failed to write build configuration %s: %w", h.path, err)
	}
	return true, h.Read()
}

// ErrMissing is returned by Read when the file does not exist.
var ErrMissing = errors.New("build configuration file does not exist")

// Read parses the file. Values of any TOML scalar type are kept as strings;
// booleans become ON/OFF as CMake expects.
func (h *Handler) Read() error {
	info, err := os.Stat(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", h.path, ErrMissing)
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", h.path, err)
	}

	raw := map[string]any{}
	if _, err := toml.DecodeFile(h.path, &raw); err != nil {
		return fmt.Errorf("failed to parse build configuration %s: %w", h.path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		s, err := scalar(v)
		if err != nil {
			return fmt.Errorf("%s: key %s: %w", h.path, k, err)
		}
		values[k] = s
	}
	h.values = values
	h.modTime = info.ModTime()
	return nil
}

func scalar(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		if t {
			return "ON", nil
		}
		return "OFF", nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value type %T, only plain values are allowed", v)
	}
}

// Values returns a copy of the parsed pairs.
func (h *Handler) Values() map[string]string {
	out := make(map[string]string, len(h.values))
	for k, v := range h.values {
		out[k] = v
	}
	return out
}

// Get returns the value of key.
func (h *Handler) Get(key string) (string, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Keys returns the parsed keys sorted.
func (h *Handler) Keys() []string {
	keys := make([]string, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LastModified returns the file's modification date, or "" before a successful Read.
func (h *Handler) LastModified() string {
	if h.modTime.IsZero() {
		return ""
	}
	return h.modTime.Format("2006-01-02 15:04:05")
}

// CMakeDefinitions renders the pairs as sorted -DKEY=VALUE arguments.
func (h *Handler) CMakeDefinitions() []string {
	keys := h.Keys()
	defs := make([]string, len(keys))
	for i, k := range keys {
		defs[i] = fmt.Sprintf("-D%s=%s", k, h.values[k])
	}
	return defs
}

// Defaults returns the initial configuration for a fresh install into installDir.
// Compilers found on PATH are recorded so the user can see and change them.
func Defaults(installDir string) map[string]string {
	values := map[string]string{
		"CMAKE_BUILD_TYPE":     "Release",
		"CMAKE_INSTALL_PREFIX": installDir,
		"BUILD_TESTING":        "ON",
	}
	compilers := map[string][]string{
		"CMAKE_C_COMPILER":       {"gcc", "cc", "clang"},
		"CMAKE_CXX_COMPILER":     {"g++", "c++", "clang++"},
		"CMAKE_Fortran_COMPILER": {"gfortran", "flang"},
	}
	for key, candidates := range compilers {
		for _, name := range candidates {
			if p, err := exec.LookPath(name); err == nil {
				values[key] = p
				break
			}
		}
	}
	return values
}
