package builder

import "archgate/internal/model"

// resolve matches every raw reference against the stem index. It runs after
// the build barrier and is the last writer before the graph freezes. One
// candidate resolves the edge; none marks it External; several distinct
// candidates mark it Ambiguous. The builder never guesses between them.
func resolve(g *model.Graph) {
	for i := range g.Files {
		f := &g.Files[i]
		own := model.Stem(f.Path)
		for _, ref := range f.Refs {
			if ref.Stem == own {
				continue // self-reference (e.g. a .c file including its own header)
			}
			if ref.Stem == "" {
				g.AddEdge(model.Edge{From: f.ID, Ref: ref, Resolution: model.ResolutionExternal, To: -1})
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
				g.AddEdge(model.Edge{
					From:       f.ID,
					Ref:        ref,
					Resolution: model.ResolutionAmbiguous,
					To:         -1,
					Candidates: cands,
				})
			}
		}
	}
}
