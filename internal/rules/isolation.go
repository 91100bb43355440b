package rules

import (
	"fmt"

	"archgate/internal/model"
)

// evalCrossFeature enforces feature isolation: an edge connecting two files
// with different non-empty feature ids is forbidden unless the target is on
// the data plane, the sole permitted cross-feature channel. Fires
// independently of whatever the direction rules say about the same edge.
func evalCrossFeature(g *model.Graph) []model.Finding {
	var out []model.Finding
	for _, e := range g.Edges {
		src := g.File(e.From)
		if src.Feature == "" {
			continue
		}
		t := edgeTarget(g, e)
		if t.feature == "" || t.feature == src.Feature {
			continue
		}
		if t.role == model.RoleDataPlane {
			continue
		}
		out = append(out, model.Finding{
			File:    src.Path,
			Line:    e.Ref.Line,
			Message: fmt.Sprintf("cross-feature reference into feature %q: %s (route shared data through the data plane)", t.feature, t.label),
		})
	}
	return out
}
