package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/bbug/internal/logger"
)

// SchemaFilename describes the settings the app asks for at install time.
const SchemaFilename = "config.json"

// errSchemaInvalid is returned when the schema has no properties mapping.
var errSchemaInvalid = errors.New("schema must define a properties object")

// Question is one interactive prompt derived from a schema property.
type Question struct {
	// Name is the key the answer is stored under.
	Name string
	// Message is the text shown to the operator.
	Message string
}

// Asker collects answers for a list of questions.
type Asker interface {
	Ask(ctx context.Context, questions []Question) (map[string]string, error)
}

// LoadQuestions reads the schema file from the project root and derives one
// question per property, in declaration order. The boolean is false when the
// project has no schema file.
func LoadQuestions(rootPath string) ([]Question, bool, error) {
	contents, err := os.ReadFile(filepath.Join(rootPath, SchemaFilename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("read schema: %w", err)
	}

	questions, err := parseQuestions(contents)
	if err != nil {
		return nil, false, err
	}

	return questions, true, nil
}

// parseQuestions walks the document node so that property order survives decoding.
func parseQuestions(contents []byte) ([]Question, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errSchemaInvalid
	}

	properties := mappingValue(doc.Content[0], "properties")
	if properties == nil || properties.Kind != yaml.MappingNode {
		return nil, errSchemaInvalid
	}

	questions := make([]Question, 0, len(properties.Content)/2) //nolint:mnd // Key-value pairs.

	for i := 0; i+1 < len(properties.Content); i += 2 {
		var property struct {
			Description string `yaml:"description"`
		}

		name := properties.Content[i].Value
		if err := properties.Content[i+1].Decode(&property); err != nil {
			return nil, fmt.Errorf("decode schema property %q: %w", name, err)
		}

		questions = append(questions, Question{
			Name:    name,
			Message: property.Description,
		})
	}

	return questions, nil
}

// mappingValue returns the value node stored under key, or nil.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}

	return nil
}

// CollectAppConfig asks the schema questions and stores the answers.
// Without a schema file this is a no-op and AppConfig stays nil.
func (c *Configuration) CollectAppConfig(ctx context.Context, asker Asker) error {
	questions, found, err := LoadQuestions(c.RootPath)
	if err != nil {
		logger.WarnKV(ctx, "Ignoring unreadable settings schema", "file", SchemaFilename, "error", err)
		return nil
	}

	if !found {
		logger.Debug(ctx, "No settings schema found, skipping app configuration prompts")
		return nil
	}

	answers, err := asker.Ask(ctx, questions)
	if err != nil {
		return fmt.Errorf("collect app configuration: %w", err)
	}

	if answers == nil {
		answers = make(map[string]string, len(questions))
	}

	c.AppConfig = answers

	return nil
}
