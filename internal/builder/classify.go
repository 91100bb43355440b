package builder

import (
	"regexp"
	"strings"

	"archgate/internal/model"
)

var featurePathRE = regexp.MustCompile(`(?:^|/)project/features/([^/]+)(?:/|$)`)

// Classify assigns role, category, prefix, and feature id to a path. It is a
// total, deterministic function of the path and filename: the same path
// always yields the same classification regardless of scan order.
func Classify(relPath string) (model.Role, model.Category, string, string) {
	stem := model.Stem(relPath)
	prefix, role, isCore := model.PrefixRole(stem)

	feature := featureFromPath(relPath)
	if feature == "" {
		feature = model.FeatureFromStem(stem)
	}

	var cat model.Category
	switch {
	case role == model.RoleUnclassified:
		cat = model.CategoryNone
		feature = ""
	case isCore:
		cat = model.CategoryCore
		feature = ""
	case feature != "":
		cat = model.CategoryFeature
	default:
		cat = model.CategoryShared
	}
	return role, cat, prefix, feature
}

// featureFromPath derives the feature id from the enclosing feature folder.
// Placement wins over the filename-derived feature.
func featureFromPath(relPath string) string {
	m := featurePathRE.FindStringSubmatch(relPath)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// UnderManaged reports whether the path sits inside a placement tree where
// every file must carry a recognized role prefix.
func UnderManaged(relPath string) bool {
	for _, dir := range model.ManagedPlacements {
		if relPath == dir || strings.HasPrefix(relPath, dir+"/") {
			return true
		}
	}
	return false
}
