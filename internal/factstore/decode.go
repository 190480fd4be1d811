package factstore

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/factlens/internal/model"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Format is a dataset encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the dataset format from a file name or URL path.
// Anything that is not .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a dataset body into a store, keeping the key order of the document
func Decode(source string, data []byte, format Format) (*Store, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(source, data)
	default:
		return decodeJSON(source, data)
	}
}

func decodeJSON(source string, data []byte) (*Store, error) {
	facts := orderedmap.New[string, model.FactRecord]()
	if err := json.Unmarshal(data, facts); err != nil {
		return nil, fmt.Errorf("decode JSON dataset: %w", err)
	}
	return fromOrderedMap(source, facts)
}

func decodeYAML(source string, data []byte) (*Store, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode YAML dataset: %w", err)
	}

	facts := orderedmap.New[string, model.FactRecord]()
	if len(doc.Content) == 0 {
		return fromOrderedMap(source, facts)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode YAML dataset: top level must be a mapping, got line %d", root.Line)
	}

	// Mapping content alternates key, value
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		var rec model.FactRecord
		if err := valueNode.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode YAML dataset entry %q: %w", keyNode.Value, err)
		}
		facts.Set(keyNode.Value, rec)
	}

	return fromOrderedMap(source, facts)
}
