// Package installer runs the module install pipeline: validate the project,
// collect app settings, authenticate, bundle, package, upload and, when the
// operator replaced the remote settings, apply the collected ones.
//
// Stages run strictly one after another. Every failure is returned as an
// *install.Error naming the stage and kind; only a post-configure failure
// leaves the run successful.
package installer
