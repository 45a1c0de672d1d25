// Package retcode defines the installer's process exit codes.
//
// Every mode returns one of these codes. Zero is success, the small positive
// integers are predefined error categories, and Interrupted is the sentinel used
// when the user pressed Ctrl-C or declined a typed confirmation.
package retcode

import "fmt"

const (
	Success             = 0
	IOError             = 1
	ConfigError         = 2
	CloneError          = 3
	CheckoutError       = 4
	CMakeConfigureError = 5
	CMakeCompileError   = 6
	CMakeInstallError   = 7
	TestError           = 8
	GitCommandError     = 9
	DownloadError       = 10
	ArchiveError        = 11
	UploadError         = 12

	// Interrupted is returned when the user aborted the run.
	Interrupted = -1
)

// descriptions maps each known code to the sentence shown next to "Error <code>:".
var descriptions = map[int]string{
	Success:             "success",
	IOError:             "a required file or directory is missing or unreadable",
	ConfigError:         "the build configuration is missing or invalid",
	CloneError:          "a source repository could not be cloned",
	CheckoutError:       "a branch could not be checked out",
	CMakeConfigureError: "CMake failed to configure the build",
	CMakeCompileError:   "the suite failed to compile",
	CMakeInstallError:   "CMake failed to install the suite",
	TestError:           "one or more tests failed",
	GitCommandError:     "a git command failed in at least one repository",
	DownloadError:       "a model artifact could not be downloaded",
	ArchiveError:        "an archive could not be created or extracted",
	UploadError:         "the model artifact could not be uploaded",
	Interrupted:         "interrupted by the user",
}

// Describe returns a human-readable description for code.
// Unknown codes (e.g. a raw exit status passed through from a tool) get a generic text.
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return fmt.Sprintf("an external command exited with status %d", code)
}
