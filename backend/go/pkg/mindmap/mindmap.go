// Package mindmap decodes and renders the node arrays returned by /generate-mindmap/.
package mindmap

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Node is one node of a generated mind map. Nodes are produced by the LLM as-is.
type Node struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Children    []string  `json:"children"`
	Explanation string    `json:"explanation,omitempty"`
	Metadata    *Metadata `json:"metadata,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
}

// Metadata carries presentation hints for a node.
type Metadata struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Decode requires raw to be a JSON array of node objects.
func Decode(raw json.RawMessage) ([]Node, error) {
	var nodes []Node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("mind map is not a node array: %w", err)
	}
	return nodes, nil
}

// RenderTree writes nodes as an indented outline starting from the roots.
func RenderTree(w io.Writer, nodes []Node) {
	byID := make(map[string]Node, len(nodes))
	isChild := make(map[string]bool)
	for _, n := range nodes {
		byID[n.ID] = n
		for _, ch := range n.Children {
			isChild[ch] = true
		}
	}

	seen := make(map[string]bool)
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n, ok := byID[id]
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		fmt.Fprintf(w, "%s- %s\n", strings.Repeat("  ", depth), n.Label)
		for _, ch := range n.Children {
			walk(ch, depth+1)
		}
	}
	for _, n := range nodes {
		if !isChild[n.ID] && n.ParentID == "" {
			walk(n.ID, 0)
		}
	}
	// nodes only reachable through a cycle
	for _, n := range nodes {
		walk(n.ID, 0)
	}
}
