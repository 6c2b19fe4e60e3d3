package llm

import (
	"encoding/json"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// ExtractJSON returns the payload of an LLM response, unwrapping an enclosing
// markdown code fence when there is one.
func ExtractJSON(response string) string {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, "```") && !strings.HasPrefix(trimmed, "~~~") {
		return trimmed
	}
	if body, ok := fencedBody(trimmed); ok {
		return strings.TrimSpace(body)
	}

	// single-line fences such as ```json{"a":1}``` are not code blocks in CommonMark
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimPrefix(trimmed, "json")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func fencedBody(src string) (string, bool) {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	var body strings.Builder
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(source))
		}
		found = true
		return ast.WalkStop, nil
	})
	return body.String(), found
}

// ParseJSONObject parses a JSON object from an LLM response, handling markdown
// code blocks. Anything that is not a JSON object is a *ValidationError.
func ParseJSONObject(response string) (map[string]any, error) {
	payload := ExtractJSON(response)
	if payload == "" {
		return nil, &ValidationError{Reason: "empty response", Raw: response}
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, &ValidationError{Reason: err.Error(), Raw: response}
	}
	if result == nil {
		return nil, &ValidationError{Reason: "response is not a JSON object", Raw: response}
	}
	return result, nil
}
