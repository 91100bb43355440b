package rules

import (
	"context"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archgate/internal/builder"
	"archgate/internal/model"
)

// srcFile builds a classified node the way the builder would.
func srcFile(p string, sig model.Signals, refs ...model.Reference) model.SourceFile {
	role, cat, prefix, feature := builder.Classify(p)
	ext := strings.ToLower(path.Ext(p))
	dialect := "c"
	switch ext {
	case ".cs":
		dialect = "csharp"
	case ".vb":
		dialect = "vb"
	}
	return model.SourceFile{
		Path:     p,
		Dialect:  dialect,
		Role:     role,
		Category: cat,
		Prefix:   prefix,
		Feature:  feature,
		Linkable: ext == ".h" || ext == ".hpp" || ext == ".cs" || ext == ".vb",
		Refs:     refs,
		Signals:  sig,
	}
}

func include(stem string, line int) model.Reference {
	return model.Reference{Kind: model.RefInclude, Raw: stem + ".h", Stem: stem, Line: line}
}

func nsImport(ns string, line int) model.Reference {
	return model.Reference{Kind: model.RefImport, Raw: ns, Line: line}
}

// logic is a plausible signal set for a file carrying real judgment.
var logic = model.Signals{CodeLines: 25, Branches: 2}

func fullLayout() model.Layout {
	return model.Layout{HasInfraBootstrap: true, HasDeps: true, HasProjectConfig: true}
}

// testGraph assembles and freezes a graph with the same resolution policy as
// the builder: one candidate resolves, none is external, several ambiguous.
func testGraph(dialect string, layout model.Layout, files ...model.SourceFile) *model.Graph {
	g := model.NewGraph(".")
	g.Dialects = []string{dialect}
	g.Layout = layout
	for _, f := range files {
		g.Add(f)
	}
	for i := range g.Files {
		f := &g.Files[i]
		own := model.Stem(f.Path)
		for _, ref := range f.Refs {
			if ref.Stem == own {
				continue
			}
			var cands []int
			for _, id := range g.Lookup(ref.Stem) {
				if id != f.ID {
					cands = append(cands, id)
				}
			}
			switch len(cands) {
			case 0:
				g.AddEdge(model.Edge{From: f.ID, Ref: ref, Resolution: model.ResolutionExternal, To: -1})
			case 1:
				g.AddEdge(model.Edge{From: f.ID, Ref: ref, Resolution: model.ResolutionResolved, To: cands[0]})
			default:
				g.AddEdge(model.Edge{From: f.ID, Ref: ref, Resolution: model.ResolutionAmbiguous, To: -1, Candidates: cands})
			}
		}
	}
	g.Freeze()
	return g
}

func byRule(findings []model.Finding, rule string) []model.Finding {
	var out []model.Finding
	for _, f := range findings {
		if f.Rule == rule {
			out = append(out, f)
		}
	}
	return out
}

func runEngine(t *testing.T, g *model.Graph) ([]model.Finding, []Fault) {
	t.Helper()
	return NewEngine(zap.NewNop()).Run(context.Background(), g)
}

func cleanTree() []model.SourceFile {
	return []model.SourceFile{
		srcFile("infra/bootstrap/cfg_core.h", model.Signals{}),
		srcFile("project/config/cfg_project.h", model.Signals{}),
		srcFile("project/features/color/ida_color.c", logic,
			include("cfg_core", 1), include("prx_color", 2)),
		srcFile("project/features/color/prx_color.h", model.Signals{}),
		srcFile("project/features/color/prx_color.c", logic, include("cfg_core", 1)),
		srcFile("project/features/color/poi_color.c", logic, include("cfg_core", 1)),
	}
}

func TestEngine_CleanTreePasses(t *testing.T) {
	g := testGraph("c", fullLayout(), cleanTree()...)
	findings, faults := runEngine(t, g)
	assert.Empty(t, faults)
	assert.Empty(t, findings)
}

func TestEngine_IntentReferencingCapability(t *testing.T) {
	files := cleanTree()
	files[2].Refs = append(files[2].Refs, include("svc_logger", 3))
	g := testGraph("c", fullLayout(), files...)

	findings, faults := runEngine(t, g)
	require.Empty(t, faults)

	t.Run("exactly one finding, owned by the self-containment rule", func(t *testing.T) {
		hits := byRule(findings, RuleIntentCapability)
		require.Len(t, hits, 1)
		assert.Equal(t, "project/features/color/ida_color.c", hits[0].File)
		assert.Equal(t, 3, hits[0].Line)
		assert.Equal(t, model.SeverityError, hits[0].Severity)
	})

	t.Run("the direction rule does not double-report the edge", func(t *testing.T) {
		assert.Empty(t, byRule(findings, RuleDirectionViolation))
	})

	t.Run("resolution is irrelevant: the reference alone violates", func(t *testing.T) {
		require.Len(t, findings, 1)
	})
}

func TestEngine_CrossFeatureImport(t *testing.T) {
	files := append(cleanTree(),
		srcFile("project/features/alpha/prx_alpha.h", model.Signals{}),
		srcFile("project/features/beta/ida_beta.c", logic, include("prx_alpha", 1)),
	)
	g := testGraph("c", fullLayout(), files...)

	findings, faults := runEngine(t, g)
	require.Empty(t, faults)
	require.Len(t, findings, 1)
	assert.Equal(t, RuleCrossFeatureImport, findings[0].Rule)
	assert.Equal(t, "project/features/beta/ida_beta.c", findings[0].File)
}

func TestCrossFeature_DataPlaneIsExempt(t *testing.T) {
	g := testGraph("c", fullLayout(),
		srcFile("project/features/alpha/stm_alpha.h", model.Signals{}),
		srcFile("project/features/beta/ida_beta.c", logic, include("stm_alpha", 1)),
	)
	assert.Empty(t, evalCrossFeature(g))
}

func TestLegacyLayout(t *testing.T) {
	t.Run("populated deprecated dir flags each file once", func(t *testing.T) {
		layout := model.Layout{LegacyDirs: []string{"modules"}}
		g := testGraph("c", layout, srcFile("modules/ida_widget.c", logic))
		hits := evalLegacyLayout(g)
		require.Len(t, hits, 1)
		assert.Equal(t, "modules/ida_widget.c", hits[0].File)
	})

	t.Run("empty deprecated dir flags the dir itself", func(t *testing.T) {
		layout := model.Layout{LegacyDirs: []string{"features"}}
		g := testGraph("c", layout, srcFile("project/features/color/ida_color.c", logic))
		hits := evalLegacyLayout(g)
		require.Len(t, hits, 1)
		assert.Equal(t, "features", hits[0].File)
	})
}

func TestEngine_AdvisoriesDoNotBlock(t *testing.T) {
	files := append(cleanTree(),
		srcFile("project/features/shade/prx_color.h", model.Signals{}), // second candidate for prx_color
	)
	g := testGraph("c", fullLayout(), files...)

	findings, faults := runEngine(t, g)
	require.Empty(t, faults)
	require.NotEmpty(t, findings)
	assert.Equal(t, 0, model.CountErrors(findings))

	hits := byRule(findings, RuleUnresolvedAmbiguous)
	require.Len(t, hits, 1)
	assert.Equal(t, model.SeverityAdvisory, hits[0].Severity)
	assert.Equal(t, "project/features/color/ida_color.c", hits[0].File)
}

func TestEngine_PanicIsolation(t *testing.T) {
	e := &Engine{
		log: zap.NewNop(),
		rules: []Rule{
			{ID: "boom", Severity: model.SeverityError, Evaluate: func(g *model.Graph) []model.Finding {
				panic("evaluator bug")
			}},
			{ID: "steady", Severity: model.SeverityAdvisory, Evaluate: func(g *model.Graph) []model.Finding {
				return []model.Finding{{File: "a.c", Message: "ok"}}
			}},
		},
	}
	g := testGraph("c", fullLayout())

	findings, faults := e.Run(context.Background(), g)

	require.Len(t, faults, 1)
	assert.Equal(t, "boom", faults[0].Rule)
	require.Len(t, findings, 1)
	assert.Equal(t, "steady", findings[0].Rule)
}

func TestNamingRules(t *testing.T) {
	g := testGraph("c", fullLayout(),
		srcFile("project/features/color/widget_utils.c", logic),
		srcFile("project/features/color/inf_helpers.c", logic),
		srcFile("tools/codegen.c", logic), // outside managed placements
	)

	t.Run("unrecognized prefix in a managed placement", func(t *testing.T) {
		hits := evalNamingInvalid(g)
		require.Len(t, hits, 1)
		assert.Equal(t, "project/features/color/widget_utils.c", hits[0].File)
	})

	t.Run("reserved folder prefix on a file", func(t *testing.T) {
		hits := evalReservedPrefix(g)
		require.Len(t, hits, 1)
		assert.Equal(t, "project/features/color/inf_helpers.c", hits[0].File)
	})
}

func TestDirection_PlatformPlane(t *testing.T) {
	g := testGraph("c", fullLayout(),
		srcFile("infra/platform/hal/hal_gpio.h", model.Signals{}),
		srcFile("infra/platform/bsp/bsp_board.h", model.Signals{}),
		srcFile("infra/platform/bsp/bsp_board.c", logic, include("hal_gpio", 1)),
		srcFile("infra/platform/hal/hal_gpio.c", logic, include("bsp_board", 1)),
	)
	hits := evalDirection(g)
	require.Len(t, hits, 1)
	assert.Equal(t, "infra/platform/bsp/bsp_board.c", hits[0].File)
}

func TestDirection_ReverseDependencies(t *testing.T) {
	g := testGraph("c", fullLayout(),
		srcFile("project/features/color/ida_color.h", model.Signals{}),
		srcFile("project/features/color/prx_color.h", model.Signals{}),
		srcFile("project/features/color/prx_color.c", logic, include("ida_color", 1)),
		srcFile("project/features/color/poi_color.c", logic,
			include("ida_color", 1), include("prx_color", 2)),
	)
	hits := evalDirection(g)
	require.Len(t, hits, 3)
}

func TestDirection_CorePurity(t *testing.T) {
	g := testGraph("c", fullLayout(),
		srcFile("infra/bootstrap/cfg_core.h", model.Signals{}),
		srcFile("infra/service/svc_logger.h", model.Signals{}),
		srcFile("infra/bootstrap/prx_core.c", logic,
			include("cfg_core", 1), include("svc_logger", 2)),
	)
	hits := evalDirection(g)
	require.Len(t, hits, 1)
	assert.Equal(t, "infra/bootstrap/prx_core.c", hits[0].File)
	assert.Equal(t, 2, hits[0].Line)
}

func TestDirection_DepsPathFromDecisionLayer(t *testing.T) {
	ref := model.Reference{Kind: model.RefInclude, Raw: "deps/vendor/mdw_json.h", Stem: "mdw_json", Line: 4}
	g := testGraph("c", fullLayout(),
		srcFile("project/features/color/prx_color.c", logic, ref),
	)
	hits := evalDirection(g)
	require.Len(t, hits, 1)
	assert.Equal(t, 4, hits[0].Line)
}

func TestIntentCapability_ForbiddenNamespaces(t *testing.T) {
	g := testGraph("csharp", model.Layout{},
		srcFile("Forms/Ida_Panel.cs", logic,
			nsImport("System.Windows.Forms", 1),
			nsImport("System.Drawing.Color", 2),
			nsImport("System.IO.Ports", 3),
			nsImport("System.IO.Compression", 4),
			nsImport("System.Text", 5),
		),
	)
	hits := evalIntentCapability(g)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Line)
	assert.Equal(t, 3, hits[1].Line)
}

func TestForbiddenNamespace(t *testing.T) {
	_, bad := forbiddenNamespace("System.Windows.Forms.Button", "csharp")
	assert.True(t, bad)
	_, bad = forbiddenNamespace("System.IO", "csharp")
	assert.True(t, bad)
	_, bad = forbiddenNamespace("System.IO.Compression", "csharp")
	assert.False(t, bad, "C# tolerates System.IO subnamespaces")
	_, bad = forbiddenNamespace("System.IO.Compression", "vb")
	assert.True(t, bad, "VB bans the whole System.IO subtree")
	_, bad = forbiddenNamespace("System.Drawing.Color", "csharp")
	assert.False(t, bad)
	_, bad = forbiddenNamespace("System.Drawing.Bitmap", "csharp")
	assert.True(t, bad)
}

func TestIntentCapability_VBFileIO(t *testing.T) {
	g := testGraph("vb", model.Layout{},
		srcFile("Forms/Ida_Panel.vb", logic,
			nsImport("System.IO.Compression", 1),
			nsImport("System.Text", 2),
		),
	)
	hits := evalIntentCapability(g)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Line)
}

func TestLayoutRequired(t *testing.T) {
	t.Run("missing anchors are each reported", func(t *testing.T) {
		g := testGraph("c", model.Layout{}, srcFile("project/features/color/ida_color.c", logic))
		hits := evalLayoutRequired(g)
		assert.Len(t, hits, 4)
	})

	t.Run("class dialects carry no mandated shape", func(t *testing.T) {
		g := testGraph("csharp", model.Layout{}, srcFile("Forms/Ida_Panel.cs", logic))
		assert.Empty(t, evalLayoutRequired(g))
	})
}

func TestPlacement(t *testing.T) {
	g := testGraph("c", fullLayout(),
		srcFile("src/ida_stray.c", logic),
		srcFile("deps/vendor/cfg_widget.h", model.Signals{}), // vendored resources are exempt
		srcFile("project/features/color/poi_color.c", logic),
	)
	hits := evalPlacement(g)
	require.Len(t, hits, 1)
	assert.Equal(t, "src/ida_stray.c", hits[0].File)
}

func TestHeuristics(t *testing.T) {
	t.Run("empty intent", func(t *testing.T) {
		g := testGraph("c", fullLayout(),
			srcFile("project/features/color/ida_color.c", model.Signals{CodeLines: 3}),
		)
		hits := evalEmptyIntent(g)
		require.Len(t, hits, 1)
		assert.Equal(t, "project/features/color/ida_color.c", hits[0].File)
	})

	t.Run("fat production via domain conditionals", func(t *testing.T) {
		sig := model.Signals{CodeLines: 40, Branches: 3, DomainBranchLines: []int{7, 12}}
		g := testGraph("c", fullLayout(),
			srcFile("project/features/color/poi_color.c", sig),
		)
		hits := evalFatProduction(g)
		require.Len(t, hits, 1)
		assert.Equal(t, 7, hits[0].Line)
	})

	t.Run("fat production via branch density", func(t *testing.T) {
		sig := model.Signals{CodeLines: 10, Branches: 5}
		g := testGraph("c", fullLayout(),
			srcFile("project/features/color/poi_color.c", sig),
		)
		assert.Len(t, evalFatProduction(g), 1)
	})

	t.Run("parse failure is reported, never silently dropped", func(t *testing.T) {
		g := testGraph("c", fullLayout(),
			srcFile("project/features/color/poi_color.c", model.Signals{ParseFailed: true}),
		)
		hits := evalParseFailure(g)
		require.Len(t, hits, 1)
		// the broken file contributes no other heuristics
		assert.Empty(t, evalFatProduction(g))
		assert.Empty(t, evalEmptyIntent(g))
	})
}
