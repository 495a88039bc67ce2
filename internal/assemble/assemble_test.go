package assemble

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dpopsuev/icl/pkg/ontology"
)

func TestFillTemplateString_SubstitutesFields(t *testing.T) {
	params := &Params{EdgeID: "Engineer/creates/Code", TargetKind: "Code", AttemptNumber: 2}
	got, err := FillTemplateString("t", "Edge: {{.EdgeID}} attempt {{.AttemptNumber}} (retry {{sub .AttemptNumber 1}})", params)
	if err != nil {
		t.Fatalf("FillTemplateString: %v", err)
	}
	want := "Edge: Engineer/creates/Code attempt 2 (retry 1)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMarshalContext_IsSortedAndDeterministic(t *testing.T) {
	items := []ContextArtifact{
		{ArtifactTypeID: "Code", Payload: json.RawMessage(`{"v":1}`)},
		{ArtifactTypeID: "DesignSpec", Payload: json.RawMessage(`{"v":2}`)},
	}
	// Reverse order input, should still marshal sorted.
	reversed := []ContextArtifact{items[1], items[0]}

	a, err := MarshalContext(reversed)
	if err != nil {
		t.Fatalf("MarshalContext: %v", err)
	}
	b, err := MarshalContext(items)
	if err != nil {
		t.Fatalf("MarshalContext: %v", err)
	}
	if a != b {
		t.Fatalf("expected order-independent determinism, got:\n%s\nvs\n%s", a, b)
	}
	if strings.Index(a, "Code") > strings.Index(a, "DesignSpec") {
		t.Fatalf("expected Code before DesignSpec in sorted output:\n%s", a)
	}
}

func TestRenderOutputSchema_EmptyForNoSchema(t *testing.T) {
	kind := ontology.ArtifactType{ID: "Code"}
	got, err := RenderOutputSchema(kind)
	if err != nil {
		t.Fatalf("RenderOutputSchema: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty schema text, got %q", got)
	}
}

func TestAssemble_WritesPromptFileWithContextAndSchema(t *testing.T) {
	dir := t.TempDir()
	targetKind := ontology.ArtifactType{
		ID:     "Code",
		Schema: json.RawMessage(`{"type":"object","properties":{"score":{"type":"number"}}}`),
	}
	contextJSON, err := MarshalContext([]ContextArtifact{
		{ArtifactTypeID: "DesignSpec", Payload: json.RawMessage(`{"summary":"build a thing"}`)},
	})
	if err != nil {
		t.Fatalf("MarshalContext: %v", err)
	}
	params := &Params{
		EdgeID:        "Engineer/creates/Code",
		AttemptNumber: 1,
		ContextJSON:   contextJSON,
	}

	got, err := Assemble("You are a careful engineer.", "Write the code for {{.EdgeID}}.", params, targetKind, dir)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if !strings.Contains(got.Prompt, "You are a careful engineer.") {
		t.Fatal("expected persona text in prompt")
	}
	if !strings.Contains(got.Prompt, "Write the code for Engineer/creates/Code.") {
		t.Fatal("expected filled template body in prompt")
	}
	if !strings.Contains(got.Prompt, "DesignSpec") {
		t.Fatal("expected context block in prompt")
	}
	if !strings.Contains(got.Prompt, `"score"`) {
		t.Fatal("expected output schema text in prompt")
	}

	if _, err := os.Stat(got.PromptPath); err != nil {
		t.Fatalf("expected prompt file on disk: %v", err)
	}
	if filepath.Dir(got.PromptPath) != dir {
		t.Fatalf("expected prompt written under %s, got %s", dir, got.PromptPath)
	}
}
