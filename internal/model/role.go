package model

import (
	"path"
	"strings"
)

// Role is the architectural category a file belongs to, inferred from its
// filename prefix and placement. The set is closed.
type Role string

const (
	RoleIntent             Role = "intent"
	RoleInterpretation     Role = "interpretation"
	RoleProduction         Role = "production"
	RoleResource           Role = "resource"
	RoleCapability         Role = "capability"
	RolePlatform           Role = "platform"
	RoleDataPlane          Role = "dataplane"
	RoleContractVocabulary Role = "contract-vocabulary"
	RoleUnclassified       Role = "unclassified"
)

// Category distinguishes core bootstrap files, feature-scoped files, and
// shared infrastructure.
type Category string

const (
	CategoryCore    Category = "core"
	CategoryFeature Category = "feature"
	CategoryShared  Category = "shared"
	CategoryNone    Category = ""
)

// ReservedPrefix is the layout-only folder prefix. It is never a valid file
// role prefix; a file carrying it is a reserved-prefix-misuse violation.
const ReservedPrefix = "inf"

// ContractVocabularyStem is the reserved shared-type file, exempt from the
// Intent self-containment rule.
const ContractVocabularyStem = "cfg_core"

var rolePrefixes = map[string]Role{
	"ida": RoleIntent,
	"prx": RoleInterpretation,
	"poi": RoleProduction,
	"cfg": RoleResource,
	"db":  RoleResource,
	"svc": RoleCapability,
	"mdw": RoleCapability,
	"hal": RolePlatform,
	"bsp": RolePlatform,
	"stm": RoleDataPlane,
}

var coreStems = map[string]Role{
	"ida_core": RoleIntent,
	"prx_core": RoleInterpretation,
	"poi_core": RoleProduction,
}

// featureLayerPrefixes are the prefixes whose files belong to a feature.
var featureLayerPrefixes = map[string]bool{
	"ida": true,
	"prx": true,
	"poi": true,
}

// featureResourcePrefixes carry a feature id derived from their stem but sit
// on the resource plane.
var featureResourcePrefixes = map[string]bool{
	"cfg": true,
	"db":  true,
}

// Stem returns the lowercased filename without directory or extension.
func Stem(p string) string {
	base := path.Base(p)
	ext := path.Ext(base)
	return strings.ToLower(strings.TrimSuffix(base, ext))
}

// SplitPrefix splits a stem into its role prefix and remainder.
// "ida_color" -> ("ida", "color", true); "main" -> ("", "", false).
func SplitPrefix(stem string) (prefix, rest string, ok bool) {
	i := strings.Index(stem, "_")
	if i <= 0 {
		return "", "", false
	}
	return stem[:i], stem[i+1:], true
}

// PrefixRole classifies a stem by prefix alone, without placement context.
// Used both for classifying files and for inferring the role of unresolved
// reference targets. The contract vocabulary stem and core stems take
// precedence over the plain prefix table.
func PrefixRole(stem string) (prefix string, role Role, isCore bool) {
	stem = strings.ToLower(stem)
	if stem == ContractVocabularyStem {
		return "cfg", RoleContractVocabulary, true
	}
	if r, ok := coreStems[stem]; ok {
		p, _, _ := SplitPrefix(stem)
		return p, r, true
	}
	p, _, ok := SplitPrefix(stem)
	if !ok {
		return "", RoleUnclassified, false
	}
	if p == ReservedPrefix {
		return p, RoleUnclassified, false
	}
	if r, ok := rolePrefixes[p]; ok {
		return p, r, false
	}
	return "", RoleUnclassified, false
}

// FeatureFromStem derives a feature id from a prefixed stem, for files whose
// placement does not determine one. Only feature-layer and feature-resource
// prefixes yield a feature.
func FeatureFromStem(stem string) string {
	p, rest, ok := SplitPrefix(strings.ToLower(stem))
	if !ok || rest == "core" || rest == "project" {
		return ""
	}
	if featureLayerPrefixes[p] || featureResourcePrefixes[p] {
		return rest
	}
	return ""
}

// FeatureLayer reports whether the role participates in feature scoping for
// the cross-feature isolation rule.
func FeatureLayer(r Role) bool {
	switch r {
	case RoleIntent, RoleInterpretation, RoleProduction, RoleResource:
		return true
	}
	return false
}
