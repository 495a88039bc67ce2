package agentrt

import "testing"

func TestExtractJSON_SingleFencedBlock(t *testing.T) {
	stdout := "Here is my answer:\n```json\n{\"kind\":\"Code\",\"score\":0.9}\n```\nThanks.\n"
	got, err := ExtractJSON("claude", stdout)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	want := `{"kind":"Code","score":0.9}`
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractJSON_NoBlockIsMalformed(t *testing.T) {
	_, err := ExtractJSON("claude", "no code block here at all")
	assertMalformed(t, err)
}

func TestExtractJSON_MultipleBlocksIsMalformed(t *testing.T) {
	stdout := "```json\n{\"a\":1}\n```\nand also\n```json\n{\"b\":2}\n```"
	_, err := ExtractJSON("claude", stdout)
	assertMalformed(t, err)
}

func TestExtractJSON_BareFenceWithoutLangTag(t *testing.T) {
	stdout := "```\n{\"kind\":\"Code\"}\n```"
	got, err := ExtractJSON("gemini", stdout)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if string(got) != `{"kind":"Code"}` {
		t.Fatalf("got %q", got)
	}
}

func assertMalformed(t *testing.T, err error) {
	t.Helper()
	derr, ok := err.(*DispatchError)
	if !ok {
		t.Fatalf("expected *DispatchError, got %T: %v", err, err)
	}
	if derr.Kind != KindMalformed {
		t.Fatalf("expected KindMalformed, got %v", derr.Kind)
	}
}
