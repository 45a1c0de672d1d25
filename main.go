package main

import (
	"os"

	"suite-installer/cmd"
)

// main delegates to cmd.Execute and exits with the code of the mode that ran.
//
// suite-installer builds a scientific suite from source:
//   - reads a YAML manifest listing the repositories, directories and model archives
//   - writes a user-editable build configuration passed to CMake
//   - clones or updates the sources, configures, compiles and installs them
//   - fetches and publishes model archives
//   - optionally sends an anonymized report of each installation attempt
//
// Every failure maps to a documented exit code so scripts and support can tell
// a failed clone from a failed compile; Ctrl-C exits with -1.
func main() {
	os.Exit(cmd.Execute())
}
