package agentrt

import (
	"fmt"
	"regexp"
)

// fencedJSONBlock matches a ```json ... ``` or bare ``` ... ``` fenced code
// block. Agent responses are expected to wrap their single structured
// result in exactly one such block (spec.md §4.4); anything else is a
// Malformed response.
var fencedJSONBlock = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n?```")

// ExtractJSON scans stdout for exactly one fenced code block and returns
// its contents. Zero blocks or more than one is a Malformed error — the
// Retry Policy does not retry Malformed, it re-dispatches with a
// repair-prompt appended instead (S7).
func ExtractJSON(tool, stdout string) ([]byte, error) {
	matches := fencedJSONBlock.FindAllStringSubmatch(stdout, -1)
	switch len(matches) {
	case 0:
		return nil, &DispatchError{Kind: KindMalformed, Tool: tool, Detail: "no fenced code block found in response"}
	case 1:
		return []byte(matches[0][1]), nil
	default:
		return nil, &DispatchError{Kind: KindMalformed, Tool: tool, Detail: fmt.Sprintf("expected exactly one fenced code block, found %d", len(matches))}
	}
}
