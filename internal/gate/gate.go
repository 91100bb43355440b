// Package gate orchestrates the conformance stages: documentation hygiene
// plus one code stage per dialect present under the code root. Stages are
// independent; one stage's outcome never changes what another evaluates.
package gate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"archgate/internal/adapter"
	"archgate/internal/builder"
	"archgate/internal/config"
	"archgate/internal/docs"
	"archgate/internal/model"
	"archgate/internal/report"
	"archgate/internal/rules"
)

// Runner drives one gate run end to end.
type Runner struct {
	cfg *config.Config
	log *zap.Logger
	b   *builder.Builder
}

// New creates a Runner with the default adapter registry.
func New(cfg *config.Config, log *zap.Logger) *Runner {
	b := builder.New(adapter.Default(), log,
		builder.WithExcludes(cfg.Exclude),
		builder.WithWorkers(cfg.Workers))
	return &Runner{cfg: cfg, log: log, b: b}
}

// Run executes every stage, writes the per-stage artifacts and the aggregate
// report, and returns the report. Stage failures are results, not errors;
// the error return covers only faults of the run itself (e.g. an unwritable
// report path).
func (r *Runner) Run(ctx context.Context) (*report.GateReport, error) {
	rep := report.New(r.cfg.RepoRoot)

	codeStages, codeSkip, err := r.planCode()
	if err != nil {
		return nil, err
	}

	// Stages run concurrently but land in fixed slots: docs first, then the
	// code stages in dialect order, so the report is deterministic.
	slots := make([]report.Stage, 1+len(codeStages))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slots[0] = r.runDocs()
		return nil
	})
	for i, dialect := range codeStages {
		i, dialect := i, dialect
		eg.Go(func() error {
			slots[1+i] = r.runCode(egCtx, dialect)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if codeSkip != "" {
		// Nothing scanned still shows up in the report as a skipped stage.
		slots = append(slots, report.Stage{
			Name:   "code",
			Status: report.StatusSkipped,
			Note:   codeSkip,
		})
	}

	for _, s := range slots {
		rep.AddStage(s)
		r.log.Info("stage finished",
			zap.String("stage", s.Name),
			zap.String("status", s.Status),
			zap.String("note", s.Note))
	}

	if err := report.Write(r.cfg.ReportPath, rep); err != nil {
		return nil, fmt.Errorf("write gate report: %w", err)
	}
	return rep, nil
}

// planCode decides which code stages run. An absent code root or an empty
// dialect set is a skip, not an error: the gate still reports on docs, and
// the returned note becomes a single skipped "code" stage.
func (r *Runner) planCode() ([]string, string, error) {
	if r.cfg.SkipCode {
		return nil, "skipped by configuration", nil
	}
	if info, err := os.Stat(r.cfg.CodeRoot); err != nil || !info.IsDir() {
		return nil, fmt.Sprintf("code root not found: %s", r.cfg.CodeRoot), nil
	}
	dialects, err := r.b.DetectDialects(r.cfg.CodeRoot)
	if err != nil {
		return nil, "", err
	}
	if len(dialects) == 0 {
		return nil, "no recognized source files under the code root", nil
	}
	return dialects, "", nil
}

func (r *Runner) runDocs() report.Stage {
	s := report.Stage{Name: "docs", Status: report.StatusPassed, ExitCode: report.ExitPass}

	if r.cfg.SkipDocs {
		s.Status, s.Note = report.StatusSkipped, "skipped by configuration"
		return s
	}
	if info, err := os.Stat(r.cfg.DocsRoot); err != nil || !info.IsDir() {
		s.Status = report.StatusSkipped
		s.Note = fmt.Sprintf("docs root not found: %s", r.cfg.DocsRoot)
		return s
	}

	findings, err := docs.Check(r.cfg.RepoRoot, r.cfg.DocsRoot)
	if err != nil {
		s.Status, s.ExitCode = report.StatusErrored, report.ExitFault
		s.Note = fmt.Sprintf("docs check failed: %v", err)
		return s
	}

	out := r.artifactPath("archgate-docs.json")
	if err := report.Write(out, report.NewCodeReport(r.cfg.RepoRoot, "docs", findings)); err != nil {
		s.Status, s.ExitCode = report.StatusErrored, report.ExitFault
		s.Note = fmt.Sprintf("write docs report: %v", err)
		return s
	}
	s.OutputPath = out
	s.Note = summarize(findings)
	if model.CountErrors(findings) > 0 {
		s.Status, s.ExitCode = report.StatusFailed, report.ExitViolations
	}
	return s
}

func (r *Runner) runCode(ctx context.Context, dialect string) report.Stage {
	s := report.Stage{Name: "code-" + dialect, Status: report.StatusPassed, ExitCode: report.ExitPass}

	g, err := r.b.Build(ctx, r.cfg.CodeRoot, dialect)
	if err != nil {
		s.Status, s.ExitCode = report.StatusErrored, report.ExitFault
		s.Note = fmt.Sprintf("model build failed: %v", err)
		return s
	}

	engine := rules.NewEngine(r.log)
	findings, faults := engine.Run(ctx, g)

	out := r.artifactPath("archgate-code-" + dialect + ".json")
	if err := report.Write(out, report.NewCodeReport(r.cfg.CodeRoot, dialect, findings)); err != nil {
		s.Status, s.ExitCode = report.StatusErrored, report.ExitFault
		s.Note = fmt.Sprintf("write code report: %v", err)
		return s
	}
	s.OutputPath = out

	switch {
	case len(faults) > 0:
		s.Status, s.ExitCode = report.StatusErrored, report.ExitFault
		s.Note = fmt.Sprintf("%d rule evaluator fault(s), first: %v", len(faults), faults[0].Err)
	case model.CountErrors(findings) > 0:
		s.Status, s.ExitCode = report.StatusFailed, report.ExitViolations
		s.Note = summarize(findings)
	default:
		s.Note = summarize(findings)
	}
	return s
}

// artifactPath places per-stage artifacts next to the aggregate report.
func (r *Runner) artifactPath(name string) string {
	return filepath.Join(filepath.Dir(r.cfg.ReportPath), name)
}

func summarize(findings []model.Finding) string {
	errs := model.CountErrors(findings)
	return fmt.Sprintf("%d error(s), %d advisory(ies)", errs, len(findings)-errs)
}
