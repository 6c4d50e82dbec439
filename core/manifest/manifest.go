// Package manifest implements the provenance sidecar that carries
// source fragments through a conversion.
//
// Elements the markup dialect cannot express (drawings, field codes,
// unknown XML) are stored here verbatim under stable ids; the IR node
// standing in for the fragment references the id, and the writer
// splices the fragment back on output. Ids are assigned sequentially in
// document order, so identical inputs always produce identical ids.
package manifest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/DocLoom/core/errors"
)

// Version is the manifest format version.
const Version = "1.0"

// Element type names used in manifest entries.
const (
	TypeDrawing   = "drawing"
	TypeField     = "field"
	TypeUnknown   = "unknown"
	TypeTableProp = "table-properties"
	TypeHyperlink = "hyperlink"
)

// Meta describes one preserved element.
type Meta struct {
	// Type classifies the preserved element.
	Type string `json:"type"`

	// Source is the part the fragment came from.
	Source string `json:"source,omitempty"`

	// Raw is the fragment XML, verbatim.
	Raw string `json:"raw"`

	// Hash is the blake3 hash of Raw, for drift detection.
	Hash string `json:"hash"`

	// Description is a short human-readable note.
	Description string `json:"description,omitempty"`
}

type entry struct {
	ID string `json:"id"`
	Meta
}

// Manifest is an ordered collection of preserved elements.
type Manifest struct {
	version   string
	generator string
	generated string
	order     []string
	elements  map[string]*Meta
	nextID    int
}

// New creates an empty manifest.
func New(generator string) *Manifest {
	return &Manifest{
		version:   Version,
		generator: generator,
		generated: time.Now().UTC().Format(time.RFC3339),
		elements:  make(map[string]*Meta),
		nextID:    1,
	}
}

// HashOf computes the content hash used for drift detection.
func HashOf(raw string) string {
	sum := blake3.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Add stores a fragment and returns its assigned id.
func (m *Manifest) Add(elemType, source, raw, description string) string {
	id := fmt.Sprintf("e%d", m.nextID)
	m.nextID++
	m.order = append(m.order, id)
	m.elements[id] = &Meta{
		Type:        elemType,
		Source:      source,
		Raw:         raw,
		Hash:        HashOf(raw),
		Description: description,
	}
	return id
}

// Get returns the element with the given id.
func (m *Manifest) Get(id string) (*Meta, bool) {
	meta, ok := m.elements[id]
	return meta, ok
}

// IDs returns all element ids in assignment order.
func (m *Manifest) IDs() []string {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Len returns the number of elements.
func (m *Manifest) Len() int {
	return len(m.order)
}

// Generator returns the generator string.
func (m *Manifest) Generator() string {
	return m.generator
}

// Verify checks a fragment against the stored hash for the given id.
// It returns an error wrapping ErrManifestMismatch when the content has
// drifted, and a missing-id error when the id is unknown.
func (m *Manifest) Verify(id, raw string) error {
	meta, ok := m.elements[id]
	if !ok {
		return errors.Wrapf(errors.ErrManifestMismatch, "element %s not in manifest", id)
	}
	if HashOf(raw) != meta.Hash {
		return errors.Wrapf(errors.ErrManifestMismatch, "element %s content drifted", id)
	}
	return nil
}

type manifestJSON struct {
	Version     string  `json:"version"`
	Generator   string  `json:"generator"`
	GeneratedAt string  `json:"generated_at"`
	Elements    []entry `json:"elements"`
}

// ToJSON serializes the manifest with elements in assignment order.
func (m *Manifest) ToJSON() ([]byte, error) {
	out := manifestJSON{
		Version:     m.version,
		Generator:   m.generator,
		GeneratedAt: m.generated,
	}
	for _, id := range m.order {
		out.Elements = append(out.Elements, entry{ID: id, Meta: *m.elements[id]})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshaling manifest")
	}
	return data, nil
}

// Parse reads a manifest from its JSON form.
func Parse(data []byte) (*Manifest, error) {
	var in manifestJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.NewMalformed("manifest", -1, err.Error())
	}
	if in.Version == "" {
		return nil, errors.NewMalformed("manifest", -1, "missing version")
	}

	m := &Manifest{
		version:   in.Version,
		generator: in.Generator,
		generated: in.GeneratedAt,
		elements:  make(map[string]*Meta),
		nextID:    1,
	}
	for _, e := range in.Elements {
		if e.ID == "" {
			return nil, errors.NewMalformed("manifest", -1, "element without id")
		}
		if _, dup := m.elements[e.ID]; dup {
			return nil, errors.NewMalformed("manifest", -1, fmt.Sprintf("duplicate element id %s", e.ID))
		}
		meta := e.Meta
		m.order = append(m.order, e.ID)
		m.elements[e.ID] = &meta
		var n int
		if _, err := fmt.Sscanf(e.ID, "e%d", &n); err == nil && n >= m.nextID {
			m.nextID = n + 1
		}
	}
	return m, nil
}
