package assemble

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/dpopsuev/icl/pkg/ontology"
)

// funcMap matches the teacher's FillTemplate function set exactly — only
// the two arithmetic helpers its templates lean on.
var funcMap = template.FuncMap{
	"sub": func(a, b int) int { return a - b },
	"add": func(a, b int) int { return a + b },
}

// FillTemplateString executes a text/template body against params,
// grounded on orchestrate.FillTemplateString.
func FillTemplateString(name, tmplStr string, params *Params) (string, error) {
	tmpl, err := template.New(name).Funcs(funcMap).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("assemble: parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("assemble: execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// FillTemplateFile loads templatePath from disk and executes it, grounded
// on orchestrate.FillTemplate.
func FillTemplateFile(templatePath string, params *Params) (string, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("assemble: read template %s: %w", templatePath, err)
	}
	return FillTemplateString(filepath.Base(templatePath), string(data), params)
}

// Assembled is the Assembler's output: the full prompt text plus the path
// it was written to under the iteration workdir, ready for the Agent
// Runtime to hand on stdin.
type Assembled struct {
	Prompt     string
	PromptPath string
}

// Assemble builds the full prompt for an edge: persona (the persona text
// of the edge's source agent, if any) + the template body + a deterministic
// JSON context block + output-schema instructions, then writes it to
// promptDir so a human inspecting the iteration workdir can see exactly
// what was sent.
//
// persona and templateBody are supplied by the caller (the Supervisor loads
// them from the persona and template directories, falling back to a
// built-in template); targetKind supplies the output schema to render.
func Assemble(persona, templateBody string, params *Params, targetKind ontology.ArtifactType, promptDir string) (Assembled, error) {
	body, err := FillTemplateString(params.EdgeID, templateBody, params)
	if err != nil {
		return Assembled{}, err
	}

	schemaText, err := RenderOutputSchema(targetKind)
	if err != nil {
		return Assembled{}, fmt.Errorf("assemble: render output schema for %s: %w", targetKind.ID, err)
	}

	var full bytes.Buffer
	if persona != "" {
		full.WriteString(persona)
		full.WriteString("\n\n---\n\n")
	}
	full.WriteString(body)
	if params.ContextJSON != "" {
		full.WriteString("\n\n## Context\n\n```json\n")
		full.WriteString(params.ContextJSON)
		full.WriteString("\n```\n")
	}
	if schemaText != "" {
		full.WriteString("\n\n## Output format\n\nRespond with exactly one fenced ```json``` block matching this schema:\n\n```json\n")
		full.WriteString(schemaText)
		full.WriteString("\n```\n")
	}

	if err := os.MkdirAll(promptDir, 0755); err != nil {
		return Assembled{}, fmt.Errorf("assemble: create prompt dir: %w", err)
	}
	promptFile := filepath.Join(promptDir, fmt.Sprintf("prompt-%04d-%s.md", params.AttemptNumber, sanitizeEdgeID(params.EdgeID)))
	if err := os.WriteFile(promptFile, full.Bytes(), 0644); err != nil {
		return Assembled{}, fmt.Errorf("assemble: write prompt file: %w", err)
	}

	return Assembled{Prompt: full.String(), PromptPath: promptFile}, nil
}

func sanitizeEdgeID(edgeID string) string {
	out := make([]byte, 0, len(edgeID))
	for _, c := range edgeID {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, byte(c))
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
