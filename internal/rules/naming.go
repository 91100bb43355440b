package rules

import (
	"fmt"
	"path"

	"archgate/internal/builder"
	"archgate/internal/model"
)

// evalNamingInvalid reports files under managed placements whose prefix is
// not in the recognized set. Classification failure is itself a violation,
// never a silent skip.
func evalNamingInvalid(g *model.Graph) []model.Finding {
	var out []model.Finding
	for i := range g.Files {
		f := &g.Files[i]
		if f.Role != model.RoleUnclassified || f.Prefix == model.ReservedPrefix {
			continue
		}
		if !builder.UnderManaged(f.Path) {
			continue
		}
		out = append(out, model.Finding{
			File:    f.Path,
			Message: fmt.Sprintf("unrecognized role prefix in managed placement: %s", path.Base(f.Path)),
		})
	}
	return out
}

// evalReservedPrefix reports the layout-only prefix used as a file prefix.
func evalReservedPrefix(g *model.Graph) []model.Finding {
	var out []model.Finding
	for i := range g.Files {
		f := &g.Files[i]
		if f.Prefix != model.ReservedPrefix {
			continue
		}
		out = append(out, model.Finding{
			File:    f.Path,
			Message: fmt.Sprintf("%q is reserved for folder grouping and must never prefix a file: %s", model.ReservedPrefix+"_", path.Base(f.Path)),
		})
	}
	return out
}
