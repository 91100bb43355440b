package rules

import (
	"fmt"
	"strings"

	"archgate/internal/model"
)

// underShape reports whether rel sits beneath dir, both rooted at the scan
// root.
func underShape(rel, dir string) bool {
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}

// underSegment reports whether rel contains dir as a path segment anywhere,
// covering both root-level placements and placements nested inside vendored
// architecture units under deps/.
func underSegment(rel, dir string) bool {
	return strings.Contains("/"+rel+"/", "/"+dir+"/")
}

func hasDialect(g *model.Graph, dialect string) bool {
	for _, d := range g.Dialects {
		if d == dialect {
			return true
		}
	}
	return false
}

// evalLegacyLayout flags every in-scope file under a deprecated path shape,
// in addition to whatever other findings its content produces. A deprecated
// directory that exists but holds no in-scope files is flagged once itself.
func evalLegacyLayout(g *model.Graph) []model.Finding {
	var out []model.Finding
	populated := make(map[string]bool)

	for i := range g.Files {
		f := &g.Files[i]
		for _, shape := range model.LegacyShapes {
			if underShape(f.Path, shape) {
				populated[shape] = true
				out = append(out, model.Finding{
					File:    f.Path,
					Message: fmt.Sprintf("file lives under deprecated layout %q; migrate per the current layout scheme", shape),
				})
			}
		}
	}
	for _, dir := range g.Layout.LegacyDirs {
		if populated[dir] {
			continue
		}
		out = append(out, model.Finding{
			File:    dir,
			Message: fmt.Sprintf("deprecated layout directory detected: %s", dir),
		})
	}
	return out
}

// evalLayoutRequired checks the required layout anchors. These exist only in
// the C convention; class-dialect projects carry no mandated folder shape.
func evalLayoutRequired(g *model.Graph) []model.Finding {
	if !hasDialect(g, "c") {
		return nil
	}
	var out []model.Finding
	miss := func(msg string) {
		out = append(out, model.Finding{File: ".", Message: msg})
	}

	if len(g.Files) == 0 {
		miss("no source files found under the code root")
		return out
	}
	if !g.Layout.HasInfraBootstrap {
		miss("missing required path: infra/bootstrap")
	}
	if !g.Layout.HasDeps {
		miss("missing required dependency repository path: deps")
	}
	if !g.Layout.HasProjectConfig {
		miss("missing required project config folder: project/config")
	} else if !anyStemUnder(g, "cfg_project", "project/config") {
		miss("missing required project target interface header: project/config/cfg_project.h")
	}
	if !anyStemUnder(g, model.ContractVocabularyStem, "infra/bootstrap") {
		miss("missing required contract vocabulary header: infra/bootstrap/cfg_core.h")
	}
	return out
}

func anyStemUnder(g *model.Graph, stem, dir string) bool {
	for _, id := range g.Lookup(stem) {
		if underSegment(g.File(id).Path, dir) {
			return true
		}
	}
	return false
}

// evalPlacement verifies that recognized roles live in their managed
// placements. Placement is part of the C convention's folder scheme.
func evalPlacement(g *model.Graph) []model.Finding {
	if !hasDialect(g, "c") {
		return nil
	}
	var out []model.Finding
	flag := func(f *model.SourceFile, msg string) {
		out = append(out, model.Finding{File: f.Path, Message: msg})
	}

	for i := range g.Files {
		f := &g.Files[i]
		stem := model.Stem(f.Path)
		underDeps := underShape(f.Path, "deps")

		switch {
		case f.Role == model.RoleContractVocabulary || f.Category == model.CategoryCore:
			if !underSegment(f.Path, "infra/bootstrap") {
				flag(f, "core and contract vocabulary files must live under infra/bootstrap")
			}

		case f.Role == model.RoleIntent, f.Role == model.RoleInterpretation, f.Role == model.RoleProduction:
			if !underSegment(f.Path, "project/features") {
				flag(f, fmt.Sprintf("%s files must live under project/features", f.Role))
			}

		case f.Prefix == "svc":
			if !underSegment(f.Path, "infra/service") {
				flag(f, "svc_ files must live under infra/service")
			}

		case f.Prefix == "mdw":
			if !underSegment(f.Path, "deps/middleware") && !underSegment(f.Path, "deps/extern") {
				flag(f, "mdw_ files must live under deps/middleware or deps/extern")
			}

		case f.Prefix == "hal":
			if !underSegment(f.Path, "infra/platform/hal") {
				flag(f, "hal_ files must live under infra/platform/hal")
			}

		case f.Prefix == "bsp":
			if !underSegment(f.Path, "infra/platform/bsp") {
				flag(f, "bsp_ files must live under infra/platform/bsp")
			}

		case f.Role == model.RoleResource:
			if underDeps {
				break // vendored units carry their own resources
			}
			if stem == "cfg_project" || stem == "db_project" {
				if !underSegment(f.Path, "project/config") {
					flag(f, fmt.Sprintf("%s must live under project/config", stem))
				}
			} else if !underSegment(f.Path, "project/features") && !underSegment(f.Path, "project/config") {
				flag(f, "feature resources (cfg_/db_) must live under project/features or project/config")
			}

		case f.Role == model.RoleDataPlane:
			if !underSegment(f.Path, "project/datastreams") &&
				!underSegment(f.Path, "deps/middleware") && !underSegment(f.Path, "deps/extern") {
				flag(f, "stm_ files must live under project/datastreams, deps/middleware, or deps/extern")
			}
		}
	}
	return out
}
