package assemble

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona is a named agent's prompt preamble, loaded from either a JSON or
// YAML file <personaDir>/<agentID>.{json,yaml,yml} (the Supervisor uses the
// team_members/ directory beside the ontology file). YAML is an
// optional convenience format alongside the canonical JSON shape.
type Persona struct {
	AgentID string `json:"agentId" yaml:"agentId"`
	Text    string `json:"text" yaml:"text"`
}

// LoadPersona looks for personaDir/<agentID>.json, then .yaml, then .yml,
// returning an empty Persona (no error) if none exist — a persona is
// optional context, not a required file.
func LoadPersona(personaDir, agentID string) (Persona, error) {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(personaDir, agentID+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Persona{}, fmt.Errorf("assemble: read persona %s: %w", path, err)
		}

		var p Persona
		if strings.HasSuffix(ext, ".json") {
			err = json.Unmarshal(data, &p)
		} else {
			err = yaml.Unmarshal(data, &p)
		}
		if err != nil {
			return Persona{}, fmt.Errorf("assemble: parse persona %s: %w", path, err)
		}
		if p.AgentID == "" {
			p.AgentID = agentID
		}
		return p, nil
	}
	return Persona{AgentID: agentID}, nil
}
