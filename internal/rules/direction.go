package rules

import (
	"fmt"
	"regexp"
	"strings"

	"archgate/internal/model"
)

// target describes what an edge points at, whether or not it resolved. For
// unresolved and ambiguous edges the role is inferred from the reference's
// prefix, so prefix-decidable rules fire regardless of resolution.
type target struct {
	role    model.Role
	feature string
	core    bool
	prefix  string
	label   string // what to name in the message
}

func edgeTarget(g *model.Graph, e model.Edge) target {
	if e.Resolution == model.ResolutionResolved {
		t := g.File(e.To)
		return target{
			role:    t.Role,
			feature: t.Feature,
			core:    t.Category == model.CategoryCore,
			prefix:  t.Prefix,
			label:   t.Path,
		}
	}
	prefix, role, core := model.PrefixRole(e.Ref.Stem)
	return target{
		role:    role,
		feature: model.FeatureFromStem(e.Ref.Stem),
		core:    core,
		prefix:  prefix,
		label:   e.Ref.Raw,
	}
}

var depsSegmentRE = regexp.MustCompile(`(^|[\\/])deps([\\/]|$)`)

// evalDirection enforces the per-role allowed-target sets. Intent references
// into the Resource/Capability/Platform planes are deliberately left to the
// self-containment rule so each such edge yields exactly one finding.
func evalDirection(g *model.Graph) []model.Finding {
	var out []model.Finding
	flag := func(f *model.SourceFile, e model.Edge, msg string) {
		out = append(out, model.Finding{
			File:    f.Path,
			Line:    e.Ref.Line,
			Message: msg,
		})
	}

	for _, e := range g.Edges {
		src := g.File(e.From)
		t := edgeTarget(g, e)
		if t.role == model.RoleContractVocabulary {
			continue // exempt everywhere
		}

		// Decision layers never reach into the dependency repository by path.
		if e.Ref.Kind == model.RefInclude && depsSegmentRE.MatchString(e.Ref.Raw) {
			switch src.Role {
			case model.RoleIntent, model.RoleInterpretation, model.RoleProduction:
				flag(src, e, fmt.Sprintf("dependency repository paths must not be referenced from decision layers: %s", e.Ref.Raw))
			}
		}

		if t.role == model.RoleUnclassified {
			continue
		}

		switch src.Role {
		case model.RoleIntent:
			// Resource/Capability/Platform handled by intent-capability-violation.
			switch t.role {
			case model.RoleInterpretation, model.RoleProduction, model.RoleIntent:
				if src.Category == model.CategoryCore && !t.core {
					flag(src, e, fmt.Sprintf("core intent may reference only core files and the contract vocabulary: %s", t.label))
				}
			case model.RoleDataPlane:
				flag(src, e, fmt.Sprintf("intent must not reference the data plane directly: %s", t.label))
			}

		case model.RoleInterpretation:
			switch t.role {
			case model.RoleIntent:
				if !(src.Category == model.CategoryCore && t.core) {
					flag(src, e, fmt.Sprintf("interpretation must not reference intent (reverse dependency): %s", t.label))
				}
			case model.RoleInterpretation, model.RoleProduction:
				if src.Category == model.CategoryCore && !t.core {
					flag(src, e, fmt.Sprintf("core interpretation may reference only core files and the contract vocabulary: %s", t.label))
				}
			case model.RolePlatform, model.RoleCapability, model.RoleDataPlane:
				if src.Category == model.CategoryCore {
					flag(src, e, fmt.Sprintf("core interpretation may reference only core files and the contract vocabulary: %s", t.label))
				}
			case model.RoleResource:
				if src.Category == model.CategoryCore {
					flag(src, e, fmt.Sprintf("core interpretation may reference only the contract vocabulary on the resource plane: %s", t.label))
				}
			}

		case model.RoleProduction:
			switch t.role {
			case model.RoleIntent:
				if !(src.Category == model.CategoryCore && t.core) {
					flag(src, e, fmt.Sprintf("production must not reference intent (reverse dependency): %s", t.label))
				}
			case model.RoleInterpretation:
				if !(src.Category == model.CategoryCore && t.core) {
					flag(src, e, fmt.Sprintf("production must not reference interpretation (reverse dependency): %s", t.label))
				}
			case model.RoleProduction:
				if src.Category == model.CategoryCore && !t.core {
					flag(src, e, fmt.Sprintf("core production may reference only core files and the contract vocabulary: %s", t.label))
				}
			case model.RolePlatform, model.RoleCapability, model.RoleDataPlane:
				if src.Category == model.CategoryCore {
					flag(src, e, fmt.Sprintf("core production may reference only core files and the contract vocabulary: %s", t.label))
				}
			case model.RoleResource:
				if src.Category == model.CategoryCore {
					flag(src, e, fmt.Sprintf("core production may reference only the contract vocabulary on the resource plane: %s", t.label))
				}
			}

		case model.RoleResource, model.RoleDataPlane, model.RoleContractVocabulary:
			switch t.role {
			case model.RoleIntent, model.RoleInterpretation, model.RoleProduction:
				flag(src, e, fmt.Sprintf("resources must not reference upper-layer files: %s", t.label))
			}

		case model.RoleCapability:
			switch t.role {
			case model.RoleIntent, model.RoleInterpretation, model.RoleProduction:
				flag(src, e, fmt.Sprintf("capability modules must not reference feature-scoped roles: %s", t.label))
			case model.RoleResource, model.RoleDataPlane:
				flag(src, e, fmt.Sprintf("capability modules must not reference project resources directly: %s", t.label))
			}

		case model.RolePlatform:
			switch t.role {
			case model.RoleIntent, model.RoleInterpretation, model.RoleProduction,
				model.RoleCapability, model.RoleResource, model.RoleDataPlane:
				flag(src, e, fmt.Sprintf("platform must not reference upper-layer, resource, or module files: %s", t.label))
			case model.RolePlatform:
				// Direction inside the platform plane is hal -> bsp, never back.
				if src.Prefix == "bsp" && t.prefix == "hal" {
					flag(src, e, fmt.Sprintf("bsp must not reference hal (direction is hal -> bsp): %s", t.label))
				}
			}
		}
	}
	return out
}

// forbiddenNamespaces is the fixed table of environment namespaces an Intent
// file may never import in the class dialects. System.Drawing.Color alone is
// tolerated as a plain value type. The System.IO entry is exact-match in C#,
// where subnamespaces like Compression are tolerated; the VB convention bans
// the whole System.IO subtree.
var forbiddenNamespaces = []struct {
	prefix  string
	csExact bool
	note    string
}{
	{"System.Windows.Forms", false, "UI layer"},
	{"System.Drawing", false, "graphics API"},
	{"Microsoft.Office.Interop", false, "COM interop"},
	{"System.IO.Ports", false, "serial/hardware access"},
	{"System.IO", true, "file I/O"},
}

func forbiddenNamespace(ns, dialect string) (string, bool) {
	if ns == "System.Drawing.Color" {
		return "", false
	}
	for _, f := range forbiddenNamespaces {
		if f.csExact && dialect != "vb" {
			if ns == f.prefix {
				return f.note, true
			}
			continue
		}
		if ns == f.prefix || strings.HasPrefix(ns, f.prefix+".") {
			return f.note, true
		}
	}
	return "", false
}

// evalIntentCapability is the self-containment rule: an Intent file carrying
// any reference into the Resource/Capability/Platform planes violates
// containment by presence alone, resolved or not, except through the
// contract vocabulary.
func evalIntentCapability(g *model.Graph) []model.Finding {
	var out []model.Finding
	for _, e := range g.Edges {
		src := g.File(e.From)
		if src.Role != model.RoleIntent {
			continue
		}

		if e.Ref.Kind == model.RefImport {
			if note, bad := forbiddenNamespace(e.Ref.Raw, src.Dialect); bad {
				out = append(out, model.Finding{
					File:    src.Path,
					Line:    e.Ref.Line,
					Message: fmt.Sprintf("intent must not import %s (%s)", e.Ref.Raw, note),
				})
			}
			continue
		}

		t := edgeTarget(g, e)
		switch t.role {
		case model.RoleResource, model.RoleCapability, model.RolePlatform:
			out = append(out, model.Finding{
				File:    src.Path,
				Line:    e.Ref.Line,
				Message: fmt.Sprintf("intent must not reference %s-plane files (contract vocabulary excepted): %s", t.role, t.label),
			})
		}
	}
	return out
}
