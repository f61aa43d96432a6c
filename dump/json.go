// ABOUTME: JSON codec for heap snapshots
// ABOUTME: Round-trips objects and roots for offline debugging

package dump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prateek/sweepgc/graph"
)

// JSONCodec reads and writes snapshots as JSON
type JSONCodec struct{}

// jsonDump is the serialized snapshot layout
type jsonDump struct {
	Objects []jsonObject  `json:"objects"`
	Roots   []graph.ObjID `json:"roots"`
}

// jsonObject is one serialized object
type jsonObject struct {
	ID       graph.ObjID   `json:"id"`
	TypeName string        `json:"type"`
	Size     uint64        `json:"size"`
	Refs     []graph.ObjID `json:"refs,omitempty"`
}

// Name identifies the format
func (c *JSONCodec) Name() string { return "json" }

// Sniff checks whether the prefix looks like a JSON snapshot.
// The prefix is usually a truncated document, so this looks for the
// objects key rather than parsing.
func (c *JSONCodec) Sniff(prefix []byte) bool {
	trimmed := bytes.TrimLeft(prefix, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return bytes.Contains(prefix, []byte(`"objects"`))
}

// Encode writes the snapshot as one JSON document
func (c *JSONCodec) Encode(w io.Writer, g graph.Graph) error {
	doc := jsonDump{
		Objects: make([]jsonObject, 0, g.Len()),
		Roots:   g.Roots().IDs,
	}
	g.ForEach(func(obj *graph.Object) {
		doc.Objects = append(doc.Objects, jsonObject{
			ID:       obj.ID,
			TypeName: obj.TypeName,
			Size:     obj.Size,
			Refs:     obj.Refs,
		})
	})
	if doc.Roots == nil {
		doc.Roots = []graph.ObjID{}
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode JSON dump: %w", err)
	}
	return nil
}

// Decode reads a JSON snapshot and rebuilds the graph
func (c *JSONCodec) Decode(r io.Reader) (graph.Graph, error) {
	var doc jsonDump
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON dump: %w", err)
	}

	for i, obj := range doc.Objects {
		if obj.ID == graph.SuperRoot {
			return nil, fmt.Errorf("object at index %d has the reserved super-root ID", i)
		}
	}

	g := graph.NewMemGraph()
	for _, obj := range doc.Objects {
		restored := &graph.Object{
			ID:       obj.ID,
			TypeName: obj.TypeName,
			Size:     obj.Size,
			Refs:     obj.Refs,
		}
		if restored.Refs == nil {
			restored.Refs = []graph.ObjID{}
		}
		g.AddObject(restored)
	}

	roots := graph.Roots{IDs: doc.Roots}
	if roots.IDs == nil {
		roots.IDs = []graph.ObjID{}
	}
	g.SetRoots(roots)
	return g, nil
}

// init registers the JSON codec
func init() {
	Register(&JSONCodec{})
}
