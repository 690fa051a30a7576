// Package module contains the manifest model of a deployable app module.
//
// A Manifest names the module and declares which entry-point categories
// (panels, launchers, extensions) it contributes. Entries maps those
// categories to the scripts the bundler compiles.
package module
