// Package telemetry builds and sends anonymized installation reports.
//
// A report says which mode ran, how it ended and what kind of machine it ran on.
// It never contains user names, host names or paths: the installation is identified
// by a name-based UUID derived from them, which is stable across runs on the same
// account but cannot be reversed.
package telemetry

import (
	"context"
	"os"
	"os/user"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"suite-installer/internal/logger"
)

// Payload is the JSON document posted to the metrics endpoint.
type Payload struct {
	InstallationID   string            `json:"installation_id"`
	RunID            string            `json:"run_id"`
	Mode             string            `json:"mode"`
	ReturnCode       int               `json:"return_code"`
	Suite            string            `json:"suite"`
	SuiteVersion     string            `json:"suite_version,omitempty"`
	InstallerVersion string            `json:"installer_version"`
	Timestamp        string            `json:"timestamp"`
	Environment      map[string]string `json:"environment"`
}

// Probe gathers one environment fact. Probes run concurrently and must be independent.
type Probe struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

// Assembler collects environment facts and builds a Payload.
type Assembler struct {
	Suite            string
	SuiteVersion     string
	InstallerVersion string
	Probes           []Probe
	Workers          int                   // concurrent probes, defaults to runtime.NumCPU()
	Identity         func() (string, bool) // defaults to AnonymousID
	Now              func() time.Time
	Log              *logger.Logger
}

// Assemble runs every probe and returns the payload, or nil when no stable
// installation identifier could be determined. Failing probes are left out.
func (a *Assembler) Assemble(ctx context.Context, mode string, code int) *Payload {
	identity := a.Identity
	if identity == nil {
		identity = AnonymousID
	}
	id, ok := identity()
	if !ok {
		a.Log.Debug("No stable installation identifier, telemetry payload skipped")
		return nil
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return &Payload{
		InstallationID:   id,
		RunID:            uuid.New().String(),
		Mode:             mode,
		ReturnCode:       code,
		Suite:            a.Suite,
		SuiteVersion:     a.SuiteVersion,
		InstallerVersion: a.InstallerVersion,
		Timestamp:        now().UTC().Format(time.RFC3339),
		Environment:      a.gather(ctx),
	}
}

// gather runs the probes on a pool bounded by Workers.
func (a *Assembler) gather(ctx context.Context) map[string]string {
	workers := a.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	facts := make(map[string]string, len(a.Probes))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers) // bounds concurrent probes

	for _, p := range a.Probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			value, err := p.Run(ctx)
			// A failing probe only drops its own fact.
			if err != nil {
				a.Log.Debug("Telemetry probe %s failed: %v", p.Name, err)
				return
			}
			mu.Lock()
			facts[p.Name] = value
			mu.Unlock()
		}(p)
	}

	wg.Wait()
	return facts
}

// AnonymousID derives a stable identifier from the account and host names.
func AnonymousID() (string, bool) {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "", false
	}
	usr, err := user.Current()
	if err != nil || usr.Username == "" {
		return "", false
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(usr.Username+"@"+host)).String(), true
}
