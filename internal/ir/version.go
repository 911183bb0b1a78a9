package ir

// Version constants for the manifest schema and the id manager.
const (
	// ManifestVersion is the plan manifest schema version.
	ManifestVersion = "1"

	// ManagerVersion is the idmgr version stamped into manifests.
	ManagerVersion = "0.1.0"
)
