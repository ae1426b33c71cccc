// Package metadata defines the archive layout and generates the build
// metadata module embedded in it.
package metadata

// Source tree and archive layout.
const (
	// SourceEntry is the entry point script in the source tree.
	SourceEntry = "cephadm.py"

	// LibDir is the application's private package.
	LibDir = "cephadmlib"

	// EntryPoint is the module the zipapp runtime executes.
	EntryPoint = "__main__.py"

	// MetaDir holds generated build metadata.
	MetaDir = "_cephadmmeta"

	// MetaInit makes MetaDir an importable package.
	MetaInit = MetaDir + "/__init__.py"

	// VersionFile is the generated version module.
	VersionFile = MetaDir + "/version.py"

	// ManifestFile is the bundled dependency manifest.
	ManifestFile = MetaDir + "/deps.json"
)
