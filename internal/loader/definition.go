package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings are the scene-wide hints in a definition.
type Settings struct {
	DefaultSelectedID string      `json:"defaultSelectedId,omitempty"`
	CameraPosition    *[3]float32 `json:"cameraPosition,omitempty"`
	CameraLookAt      *[3]float32 `json:"cameraLookAt,omitempty"`
}

// InstanceConfig is one entry of a definition's object list.
type InstanceConfig struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Name       string          `json:"name,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// DisplayName is the name the instance is published under: its name, else its id.
func (c InstanceConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Definition is a parsed scene document.
type Definition struct {
	Settings *Settings        `json:"settings,omitempty"`
	Objects  []InstanceConfig `json:"objects"`
}

// ParseDefinition decodes a scene document. Documents named *.yaml or *.yml
// are YAML; everything else is JSON.
func ParseDefinition(name string, data []byte) (*Definition, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		// Parameters stay raw JSON whatever the document format.
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		data = b
	}
	var def Definition
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if def.Objects == nil {
		return nil, fmt.Errorf("parse %s: missing objects list", name)
	}
	return &def, nil
}
