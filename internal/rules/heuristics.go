package rules

import (
	"fmt"

	"archgate/internal/model"
)

// Heuristic thresholds. Fixed with the catalog; not tunable per run.
const (
	// minIntentLines: an Intent file below this with no branching is likely a
	// pass-through whose judgment lives somewhere else.
	minIntentLines = 10
	// maxBranchDensity: conditionals per code line above which a Production
	// file likely carries interpretation logic.
	maxBranchDensity = 0.3
	// maxParamFieldReads: field reads through externally-shaped parameters
	// tolerated in a Production file.
	maxParamFieldReads = 8
)

// evalEmptyIntent flags Intent files that only delegate: no branching and
// almost no code. Advisory, since a thin Intent can be legitimate.
func evalEmptyIntent(g *model.Graph) []model.Finding {
	var out []model.Finding
	for i := range g.Files {
		f := &g.Files[i]
		if f.Role != model.RoleIntent || f.Category != model.CategoryFeature {
			continue
		}
		if f.Signals.ParseFailed {
			continue
		}
		if f.Signals.Branches == 0 && f.Signals.CodeLines < minIntentLines {
			out = append(out, model.Finding{
				File:    f.Path,
				Message: fmt.Sprintf("possible empty intent: %d code lines and no branching; verify the judgment is not hiding in interpretation or production", f.Signals.CodeLines),
			})
		}
	}
	return out
}

// evalFatProduction flags Production files that look like misplaced
// interpretation: domain-meaningful conditionals, high branch density, or
// heavy field access into externally-shaped structures.
func evalFatProduction(g *model.Graph) []model.Finding {
	var out []model.Finding
	for i := range g.Files {
		f := &g.Files[i]
		if f.Role != model.RoleProduction || f.Category != model.CategoryFeature {
			continue
		}
		if f.Signals.ParseFailed {
			continue
		}

		if n := len(f.Signals.DomainBranchLines); n > 0 {
			out = append(out, model.Finding{
				File:    f.Path,
				Line:    f.Signals.DomainBranchLines[0],
				Message: fmt.Sprintf("possible fat production: %d domain-meaningful conditional(s); consider moving the judgment to intent or interpretation", n),
			})
			continue
		}
		if f.Signals.CodeLines > 0 {
			density := float64(f.Signals.Branches) / float64(f.Signals.CodeLines)
			if density > maxBranchDensity {
				out = append(out, model.Finding{
					File:    f.Path,
					Message: fmt.Sprintf("possible fat production: branch density %.2f exceeds %.2f", density, maxBranchDensity),
				})
				continue
			}
		}
		if f.Signals.ParamFieldReads > maxParamFieldReads {
			out = append(out, model.Finding{
				File:    f.Path,
				Message: fmt.Sprintf("possible fat production: %d field reads through externally-shaped parameters", f.Signals.ParamFieldReads),
			})
		}
	}
	return out
}

// evalParseFailure records files whose adapter could not parse them. The
// report must reflect what could not be checked.
func evalParseFailure(g *model.Graph) []model.Finding {
	var out []model.Finding
	for i := range g.Files {
		f := &g.Files[i]
		if !f.Signals.ParseFailed {
			continue
		}
		out = append(out, model.Finding{
			File:    f.Path,
			Message: "file could not be parsed; it contributes no references to the model",
		})
	}
	return out
}

// evalAmbiguous records references with more than one in-scope candidate.
// The builder never guesses between them, so the edge stays unresolved.
func evalAmbiguous(g *model.Graph) []model.Finding {
	var out []model.Finding
	for _, e := range g.Edges {
		if e.Resolution != model.ResolutionAmbiguous {
			continue
		}
		src := g.File(e.From)
		out = append(out, model.Finding{
			File:    src.Path,
			Line:    e.Ref.Line,
			Message: fmt.Sprintf("reference %q matches %d in-scope files and was not resolved", e.Ref.Raw, len(e.Candidates)),
		})
	}
	return out
}
