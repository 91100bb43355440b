package gate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archgate/internal/config"
	"archgate/internal/report"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newConfig(t *testing.T, repo string) *config.Config {
	t.Helper()
	return &config.Config{
		RepoRoot:   repo,
		CodeRoot:   repo,
		DocsRoot:   filepath.Join(repo, "specs"),
		ReportPath: filepath.Join(repo, ".archgate-report.json"),
	}
}

func stageByName(rep *report.GateReport, name string) *report.Stage {
	for i := range rep.Stages {
		if rep.Stages[i].Name == name {
			return &rep.Stages[i]
		}
	}
	return nil
}

func TestRunner_DocsPassCodeFail(t *testing.T) {
	repo := t.TempDir()
	write(t, repo, "README.md", "# Project\n")
	write(t, repo, "specs/01_overview.md", "# 1. Overview\n")
	// an Intent file reaching into the capability plane
	write(t, repo, "project/features/color/ida_color.c", "#include \"svc_logger.h\"\n")

	cfg := newConfig(t, repo)
	rep, err := New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	t.Run("stage verdicts are independent", func(t *testing.T) {
		docs := stageByName(rep, "docs")
		require.NotNil(t, docs)
		assert.Equal(t, report.StatusPassed, docs.Status)

		code := stageByName(rep, "code-c")
		require.NotNil(t, code)
		assert.Equal(t, report.StatusFailed, code.Status)
		assert.Equal(t, report.ExitViolations, code.ExitCode)
	})

	t.Run("one failed stage fails the gate", func(t *testing.T) {
		assert.False(t, rep.GatePassed)
		assert.Equal(t, report.ExitViolations, rep.ExitCode())
	})

	t.Run("artifacts are written next to the gate report", func(t *testing.T) {
		_, err := os.Stat(cfg.ReportPath)
		assert.NoError(t, err)

		raw, err := os.ReadFile(filepath.Join(repo, "archgate-code-c.json"))
		require.NoError(t, err)
		var cr report.CodeReport
		require.NoError(t, json.Unmarshal(raw, &cr))
		assert.Equal(t, "c", cr.Dialect)
		assert.Greater(t, cr.ErrorsCount, 0)
	})
}

func TestRunner_MissingRootsSkipStages(t *testing.T) {
	repo := t.TempDir()
	// no specs/, no source files at all

	cfg := newConfig(t, repo)
	rep, err := New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	docs := stageByName(rep, "docs")
	require.NotNil(t, docs)
	assert.Equal(t, report.StatusSkipped, docs.Status)

	t.Run("nothing to scan is still a reported stage", func(t *testing.T) {
		require.Len(t, rep.Stages, 2)
		code := stageByName(rep, "code")
		require.NotNil(t, code)
		assert.Equal(t, report.StatusSkipped, code.Status)
		assert.NotEmpty(t, code.Note)
	})

	assert.True(t, rep.GatePassed)
	assert.Equal(t, report.ExitPass, rep.ExitCode())
}

func TestRunner_MissingCodeRootIsReportedSkipped(t *testing.T) {
	repo := t.TempDir()
	write(t, repo, "README.md", "# Project\n")
	write(t, repo, "specs/01_overview.md", "# 1. Overview\n")

	cfg := newConfig(t, repo)
	cfg.CodeRoot = filepath.Join(repo, "src") // does not exist
	rep, err := New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	code := stageByName(rep, "code")
	require.NotNil(t, code)
	assert.Equal(t, report.StatusSkipped, code.Status)
	assert.Contains(t, code.Note, "code root not found")
	assert.True(t, rep.GatePassed)
}

func TestRunner_SkipFlags(t *testing.T) {
	repo := t.TempDir()
	write(t, repo, "README.md", "# Project\n")
	write(t, repo, "specs/01_overview.md", "# 1. Overview\n")
	write(t, repo, "project/features/color/ida_color.c", "#include \"svc_logger.h\"\n")

	cfg := newConfig(t, repo)
	cfg.SkipCode = true
	rep, err := New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	assert.Nil(t, stageByName(rep, "code-c"))
	code := stageByName(rep, "code")
	require.NotNil(t, code)
	assert.Equal(t, report.StatusSkipped, code.Status)
	assert.Equal(t, "skipped by configuration", code.Note)
	assert.True(t, rep.GatePassed, "skipped code cannot sink the gate")

	cfg = newConfig(t, repo)
	cfg.SkipDocs = true
	rep, err = New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	docs := stageByName(rep, "docs")
	require.NotNil(t, docs)
	assert.Equal(t, report.StatusSkipped, docs.Status)
	assert.False(t, rep.GatePassed, "the code violations still count")
}

func TestRunner_MultiDialect(t *testing.T) {
	repo := t.TempDir()
	write(t, repo, "README.md", "# Project\n")
	write(t, repo, "specs/01_overview.md", "# 1. Overview\n")
	write(t, repo, "native/prx_color.c", "int prx(void) { return 0; }\n")
	write(t, repo, "Forms/Poi_View.cs", "class Poi_View {}\n")

	cfg := newConfig(t, repo)
	rep, err := New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Stages, 3)
	assert.Equal(t, "docs", rep.Stages[0].Name)
	assert.Equal(t, "code-c", rep.Stages[1].Name)
	assert.Equal(t, "code-csharp", rep.Stages[2].Name)
}
