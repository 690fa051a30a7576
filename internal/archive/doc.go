// Package archive packages the bundler output into the single zip uploaded
// to the admin API. The archive is built in memory, hashed with SHA-512 and
// applied to its target with go-update, which verifies the checksum and
// swaps the file atomically.
package archive
