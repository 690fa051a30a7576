// Package bundle drives the external bundler that compiles a module's entry
// scripts into the build directory.
//
// The bundler itself is opaque: ExecProducer hands it a Plan through
// environment variables and reads back errors and warnings from its output.
package bundle
