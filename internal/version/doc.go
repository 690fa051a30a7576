// Package version exposes build metadata for the installer.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. Full renders them for the `version` subcommand and UserAgent
// tags requests sent to the admin API.
package version
