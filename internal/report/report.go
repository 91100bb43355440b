// Package report defines the gate's output artifacts and the exit-code
// contract shared by every stage and by the process itself.
package report

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"archgate/internal/model"
)

// Exit codes. Stages reuse the same scale for their exit indicators.
const (
	ExitPass        = 0 // gate passed
	ExitConfigError = 1 // invocation or configuration error, nothing evaluated
	ExitViolations  = 2 // evaluation completed, blocking findings present
	ExitFault       = 3 // internal engine fault
)

// Stage statuses.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusErrored = "errored"
)

// Stage is one orchestrated unit in the gate report.
type Stage struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	ExitCode   int    `json:"exitCode"`
	Note       string `json:"note"`
	OutputPath string `json:"outputPath,omitempty"`
}

// GateReport is the aggregate artifact written at the end of a run.
type GateReport struct {
	GeneratedAtUTC string  `json:"generatedAtUtc"`
	RunID          string  `json:"runId"`
	RootPath       string  `json:"rootPath"`
	Stages         []Stage `json:"stages"`
	GatePassed     bool    `json:"gatePassed"`
}

// CodeReport is the per-stage artifact carrying the findings themselves.
type CodeReport struct {
	GeneratedAtUTC string          `json:"generatedAtUtc"`
	RootPath       string          `json:"rootPath"`
	Dialect        string          `json:"dialect"`
	ErrorsCount    int             `json:"errorsCount"`
	WarningsCount  int             `json:"warningsCount"`
	Findings       []model.Finding `json:"findings"`
}

// New starts a gate report. The timestamp and run id are the only
// non-deterministic fields in the artifact.
func New(rootPath string) *GateReport {
	return &GateReport{
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		RunID:          uuid.NewString(),
		RootPath:       rootPath,
		Stages:         []Stage{},
		GatePassed:     true,
	}
}

// AddStage appends a stage result. A skipped stage never affects the gate
// verdict; failed and errored stages sink it.
func (r *GateReport) AddStage(s Stage) {
	r.Stages = append(r.Stages, s)
	if s.Status == StatusFailed || s.Status == StatusErrored {
		r.GatePassed = false
	}
}

// ExitCode maps the stage outcomes onto the process contract: any errored
// stage dominates, then any failed stage, otherwise pass.
func (r *GateReport) ExitCode() int {
	code := ExitPass
	for _, s := range r.Stages {
		switch s.Status {
		case StatusErrored:
			return ExitFault
		case StatusFailed:
			code = ExitViolations
		}
	}
	return code
}

// NewCodeReport builds the per-dialect findings artifact with counts split
// by severity. Findings must already be sorted.
func NewCodeReport(rootPath, dialect string, findings []model.Finding) *CodeReport {
	if findings == nil {
		findings = []model.Finding{}
	}
	errs := model.CountErrors(findings)
	return &CodeReport{
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		RootPath:       rootPath,
		Dialect:        dialect,
		ErrorsCount:    errs,
		WarningsCount:  len(findings) - errs,
		Findings:       findings,
	}
}

// Write marshals v as indented JSON with a trailing newline.
func Write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
