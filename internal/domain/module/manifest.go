package module

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestFilename is the descriptor every module project must ship.
	ManifestFilename = "manifest.json"
	// EntryScript is the mandatory panel entry script.
	EntryScript = "entry.js"
	// LauncherScript is bundled when the manifest declares launchers.
	LauncherScript = "launcher.js"
	// ExtensionScript is bundled when the manifest declares extensions.
	ExtensionScript = "entry-jext.js"
	// LibraryPrefix prefixes the global the bundle is exported under.
	LibraryPrefix = "jrni-app-"
)

// Entry names understood by the bundler.
const (
	EntryPanel     = "panel"
	EntryLauncher  = "launcher"
	EntryExtension = "jext"
)

var (
	// ErrUniqueNameMissing is returned when the manifest has no unique_name.
	ErrUniqueNameMissing = errors.New("manifest.json file must define unique_name property")
	// ErrManifestInvalid is returned when the manifest cannot be parsed.
	ErrManifestInvalid = errors.New("manifest.json is not a valid descriptor")
)

// Manifest describes a module project.
type Manifest struct {
	// UniqueName identifies the module on the platform and in the upload URL.
	UniqueName string `yaml:"unique_name"`
	// Panels lists admin UI panel entry points.
	Panels Section `yaml:"panels"`
	// Launchers lists launcher entry points.
	Launchers Section `yaml:"launchers"`
	// Extensions lists extension (jext) entry points.
	Extensions Section `yaml:"jext"`
}

// Entry is a named script handed to the bundler.
type Entry struct {
	// Name is the bundle chunk name (panel, launcher, jext).
	Name string
	// Script is the entry script path relative to the project root.
	Script string
}

// Section is a list of entry-point declarations. Items are opaque here.
// A mapping is accepted too and counts one item per key.
type Section []any

// UnmarshalYAML accepts sequences, mappings, null and single scalars.
func (s *Section) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []any
		if err := node.Decode(&items); err != nil {
			return err
		}

		*s = items
	case yaml.MappingNode:
		var items map[string]any
		if err := node.Decode(&items); err != nil {
			return err
		}

		section := make(Section, 0, len(items))
		for _, item := range items {
			section = append(section, item)
		}

		*s = section
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" || node.Value == "" {
			*s = nil
			return nil
		}

		*s = Section{node.Value}
	default:
		return fmt.Errorf("%w: unexpected node at line %d", ErrManifestInvalid, node.Line)
	}

	return nil
}

// Populated reports whether the section declares at least one entry point.
func (s Section) Populated() bool {
	return len(s) > 0
}

// Parse decodes a manifest from JSON (or YAML) bytes and validates it.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks the manifest carries a non-empty unique name.
func (m *Manifest) Validate() error {
	if m == nil || strings.TrimSpace(m.UniqueName) == "" {
		return ErrUniqueNameMissing
	}

	return nil
}

// Library returns the global name the bundle is exported under.
func (m *Manifest) Library() string {
	return LibraryPrefix + m.UniqueName
}

// Entries derives the bundler entries from the populated manifest sections.
// The result may be empty: a module contributing no app code is still valid.
func (m *Manifest) Entries() []Entry {
	entries := make([]Entry, 0, 3) //nolint:mnd // One per section.

	if m.Panels.Populated() {
		entries = append(entries, Entry{Name: EntryPanel, Script: EntryScript})
	}

	if m.Launchers.Populated() {
		entries = append(entries, Entry{Name: EntryLauncher, Script: LauncherScript})
	}

	if m.Extensions.Populated() {
		entries = append(entries, Entry{Name: EntryExtension, Script: ExtensionScript})
	}

	return entries
}
