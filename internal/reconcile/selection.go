// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/idea-screener/pkg/types"
)

// ReadSelection parses a selection payload from r. Accepted shapes are
// {"ideas": [...]} or a bare array of entries. Selectors sometimes wrap
// their output in a markdown code fence; the fence is stripped before
// parsing. Anything else is a configuration error.
func ReadSelection(r io.Reader) ([]types.SelectionEntry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading selection: %w", err)
	}
	text := stripMarkdownFence(string(raw))

	var wrapper struct {
		Ideas []types.SelectionEntry `json:"ideas"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err == nil {
		if wrapper.Ideas == nil {
			return nil, fmt.Errorf("selection payload object must include an %q list", "ideas")
		}
		return wrapper.Ideas, nil
	}

	var entries []types.SelectionEntry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil, fmt.Errorf("selection payload must be a JSON object with an %q list or an array: %w", "ideas", err)
	}
	return entries, nil
}

// ReadSelectionFile parses a selection payload from path, or from
// stdin when path is "-".
func ReadSelectionFile(path string, stdin io.Reader) ([]types.SelectionEntry, error) {
	if path == "-" {
		return ReadSelection(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening selection %s: %w", path, err)
	}
	defer f.Close()
	return ReadSelection(f)
}

// stripMarkdownFence removes a surrounding ``` fence, if present.
func stripMarkdownFence(text string) string {
	stripped := strings.TrimSpace(text)
	if !strings.HasPrefix(stripped, "```") {
		return stripped
	}

	lines := strings.Split(stripped, "\n")
	if len(lines) == 0 {
		return stripped
	}
	if strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
