// Package rels parses and builds OOXML relationship parts.
//
// Relationship parts map rIds to targets (other parts or external
// resources). Source order is preserved through parse and serialize so
// that round-tripping a part does not reorder it.
package rels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/DocLoom/core/encoding"
	"github.com/FocuswithJustin/DocLoom/core/errors"
	"github.com/FocuswithJustin/DocLoom/core/xml"
)

// Well-known relationship type URIs.
const (
	TypeHyperlink = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	TypeImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	TypeStyles    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	TypeNumbering = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	TypeFontTable = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/fontTable"
	TypeSettings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	TypeDocument  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
)

const relsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"

// Relationship is a single entry in a relationship part.
type Relationship struct {
	ID       string
	Type     string
	Target   string
	External bool // TargetMode="External"
}

// Relationships holds the entries of one relationship part in source
// order.
type Relationships struct {
	order  []string
	byID   map[string]*Relationship
	nextID int
}

// New creates an empty relationship set.
func New() *Relationships {
	return &Relationships{byID: make(map[string]*Relationship), nextID: 1}
}

// Parse reads a relationship part. Duplicate ids keep the last
// occurrence. The returned notes describe soft irregularities the
// caller may record as diagnostics.
func Parse(content string) (*Relationships, []string, error) {
	doc, err := xml.ParseString(content)
	if err != nil {
		return nil, nil, errors.NewMalformed("relationships", -1, err.Error())
	}
	root := doc.Root()
	if root == nil || root.Name() != "Relationships" {
		return nil, nil, errors.NewMalformed("relationships", -1, "missing Relationships root element")
	}

	r := New()
	var notes []string
	for _, child := range root.Children() {
		if child.Name() != "Relationship" {
			continue
		}
		rel := &Relationship{
			ID:       child.Attr("Id"),
			Type:     child.Attr("Type"),
			Target:   child.Attr("Target"),
			External: child.Attr("TargetMode") == "External",
		}
		if rel.ID == "" {
			notes = append(notes, "relationship without Id skipped")
			continue
		}
		if _, dup := r.byID[rel.ID]; dup {
			notes = append(notes, fmt.Sprintf("duplicate relationship id %s, keeping last", rel.ID))
			r.byID[rel.ID] = rel
			continue
		}
		r.order = append(r.order, rel.ID)
		r.byID[rel.ID] = rel
		if n, ok := idNumber(rel.ID); ok && n >= r.nextID {
			r.nextID = n + 1
		}
	}
	return r, notes, nil
}

// idNumber extracts the numeric suffix of an rId-style identifier.
func idNumber(id string) (int, bool) {
	for _, prefix := range []string{"rId", "RId", "rid"} {
		if strings.HasPrefix(id, prefix) {
			n, err := strconv.Atoi(id[len(prefix):])
			if err == nil && n >= 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// Get returns the relationship with the given id.
func (r *Relationships) Get(id string) (*Relationship, bool) {
	rel, ok := r.byID[id]
	return rel, ok
}

// ByType returns all relationships of the given type URI in source
// order.
func (r *Relationships) ByType(typeURI string) []*Relationship {
	var result []*Relationship
	for _, id := range r.order {
		if rel := r.byID[id]; rel.Type == typeURI {
			result = append(result, rel)
		}
	}
	return result
}

// IDs returns all relationship ids in source order.
func (r *Relationships) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Len returns the number of relationships.
func (r *Relationships) Len() int {
	return len(r.order)
}

// Add appends an internal relationship and returns its generated id.
func (r *Relationships) Add(typeURI, target string) string {
	return r.add(typeURI, target, false)
}

// AddExternal appends an external relationship (TargetMode="External")
// and returns its generated id.
func (r *Relationships) AddExternal(typeURI, target string) string {
	return r.add(typeURI, target, true)
}

func (r *Relationships) add(typeURI, target string, external bool) string {
	id := fmt.Sprintf("rId%d", r.nextID)
	r.nextID++
	rel := &Relationship{ID: id, Type: typeURI, Target: target, External: external}
	r.order = append(r.order, id)
	r.byID[id] = rel
	return id
}

// Clone returns an independent copy of the relationship set.
func (r *Relationships) Clone() *Relationships {
	out := New()
	out.nextID = r.nextID
	for _, id := range r.order {
		rel := *r.byID[id]
		out.order = append(out.order, id)
		out.byID[id] = &rel
	}
	return out
}

// XML serializes the relationship part in source order.
func (r *Relationships) XML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<Relationships xmlns="` + relsNamespace + `">`)
	for _, id := range r.order {
		rel := r.byID[id]
		b.WriteString(`<Relationship Id="`)
		b.WriteString(encoding.EscapeXMLAttr(rel.ID))
		b.WriteString(`" Type="`)
		b.WriteString(encoding.EscapeXMLAttr(rel.Type))
		b.WriteString(`" Target="`)
		b.WriteString(encoding.EscapeXMLAttr(rel.Target))
		b.WriteString(`"`)
		if rel.External {
			b.WriteString(` TargetMode="External"`)
		}
		b.WriteString(`/>`)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}
