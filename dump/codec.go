// ABOUTME: Registry for snapshot dump codecs
// ABOUTME: Manages pluggable formats and selects the right codec when reading

package dump

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/prateek/sweepgc/graph"
)

var (
	// ErrUnknownFormat is returned when no codec can handle the data or
	// the requested format name
	ErrUnknownFormat = errors.New("no codec found for dump format")
)

// Codec serializes heap snapshots in one format
type Codec interface {
	// Name identifies the format (e.g. "json")
	Name() string

	// Sniff reports whether the given prefix of a dump looks like this
	// codec's format. The prefix may be truncated arbitrarily.
	Sniff(prefix []byte) bool

	// Encode writes the snapshot to w
	Encode(w io.Writer, g graph.Graph) error

	// Decode reads a snapshot from r
	Decode(r io.Reader) (graph.Graph, error)
}

// codecRegistry holds registered codecs
type codecRegistry struct {
	mu     sync.RWMutex
	codecs []Codec
}

// Global registry instance
var registry = &codecRegistry{}

// Register adds a codec to the registry
func Register(c Codec) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.codecs = append(registry.codecs, c)
}

// Write encodes the snapshot with the named codec
func Write(w io.Writer, g graph.Graph, format string) error {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	for _, c := range registry.codecs {
		if c.Name() == format {
			return c.Encode(w, g)
		}
	}
	return ErrUnknownFormat
}

// Open reads a snapshot, picking the codec by sniffing a prefix of the data
func Open(r io.Reader) (graph.Graph, error) {
	// Buffer a prefix for format detection, then stitch it back in front
	// of the remaining stream for the codec that claims it.
	prefix := make([]byte, 4096)
	n, err := io.ReadFull(r, prefix)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	prefix = prefix[:n]

	registry.mu.RLock()
	defer registry.mu.RUnlock()
	for _, c := range registry.codecs {
		if c.Sniff(prefix) {
			return c.Decode(io.MultiReader(bytes.NewReader(prefix), r))
		}
	}
	return nil, ErrUnknownFormat
}
