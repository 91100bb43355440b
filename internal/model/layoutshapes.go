package model

// LegacyShapes are the deprecated layout directories, relative to the code
// root. Any in-scope file beneath one is a legacy-layout violation.
var LegacyShapes = []string{
	"core/config",
	"features",
	"modules",
	"platform",
}

// Managed placement anchors. Files under these trees must carry a recognized
// role prefix.
var ManagedPlacements = []string{
	"infra/bootstrap",
	"project/config",
	"project/datastreams",
	"project/features",
}
