// Package config resolves the install configuration of a module project.
//
// Resolve validates the project layout (entry.js, manifest.json with a
// unique_name), then merges the optional local file (.bbugrc, JSON, YAML or
// TOML) with the command-line flags. Local file values win field by field.
// CollectAppConfig turns the optional config.json schema into questions and
// stores the operator's answers on the Configuration.
package config
