// Package admin is the client of the platform admin API.
//
// It authenticates the operator, uploads the packaged module as a
// multipart PUT and re-applies app settings. Port 443 selects https, any
// other port plain http. Every request carries the App-Id header and, once
// authenticated, the Auth-Token header.
package admin
