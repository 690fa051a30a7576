// Package prompt asks the operator questions during an install: the
// keep-previous-configuration decision and the app settings derived from the
// project schema. Terminals get huh forms; anything else gets plain lines.
package prompt
