// Package install writes registry items into a project.
//
// Add resolves the requested items, runs the project's transforms over
// each source file, maps every file to an alias directory from uikit.json
// and writes it with a provenance header:
//
//	// Source: acme/button
//	// Registry: https://acme.dev
//	// Checksum: sha256:1f2e3d4c5b6a7988
//
// The checksum covers the body below the header. A file whose body no
// longer matches is treated as edited by the user and is only replaced
// with Options.Overwrite. ListInstalled finds installed files by their
// headers.
package install
