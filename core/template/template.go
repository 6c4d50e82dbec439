// Package template loads the document package a writer builds on. A
// template is an ordinary package archive: its stylesheet decides which
// style ids the writer can reference, and its relationships seed the
// relationship part of the output.
package template

import (
	"github.com/FocuswithJustin/DocLoom/core/errors"
	"github.com/FocuswithJustin/DocLoom/core/opc"
	"github.com/FocuswithJustin/DocLoom/core/rels"
	"github.com/FocuswithJustin/DocLoom/core/styles"
)

// Template is a loaded document template with its stylesheet and
// relationships parsed once.
type Template struct {
	archive *opc.Archive
	sheet   *styles.Sheet
	rels    *rels.Relationships
	notes   []string
}

// Load reads a template from a package file.
func Load(path string) (*Template, error) {
	a, err := opc.Open(path)
	if err != nil {
		return nil, err
	}
	return FromArchive(a)
}

// FromBytes reads a template from package bytes.
func FromBytes(data []byte) (*Template, error) {
	a, err := opc.FromBytes(data)
	if err != nil {
		return nil, err
	}
	return FromArchive(a)
}

// FromArchive wraps an archive as a template. The stylesheet part must
// be present and parseable; a missing relationship part degrades to an
// empty set with a note.
func FromArchive(a *opc.Archive) (*Template, error) {
	t := &Template{archive: a}

	stylesXML, err := a.StylesXML()
	if err != nil {
		return nil, errors.Wrap(err, "template stylesheet")
	}
	t.sheet, err = styles.ParseStyles(stylesXML)
	if err != nil {
		return nil, err
	}

	if relsXML, err := a.DocumentRels(); err == nil {
		r, notes, err := rels.Parse(relsXML)
		if err != nil {
			return nil, err
		}
		t.rels = r
		t.notes = append(t.notes, notes...)
	} else {
		t.rels = rels.New()
		t.rels.Add(rels.TypeStyles, "styles.xml")
		t.notes = append(t.notes, "template relationship part missing, seeded styles relationship")
	}

	return t, nil
}

// Archive returns an independent copy of the template package, safe for
// a writer to mutate.
func (t *Template) Archive() *opc.Archive {
	return t.archive.Clone()
}

// Styles returns the template stylesheet.
func (t *Template) Styles() *styles.Sheet {
	return t.sheet
}

// Relationships returns an independent copy of the document-level
// relationships.
func (t *Template) Relationships() *rels.Relationships {
	return t.rels.Clone()
}

// Notes returns irregularities found while loading the template.
func (t *Template) Notes() []string {
	return t.notes
}

// HasStyle reports whether the template defines the style id.
func (t *Template) HasStyle(id string) bool {
	_, ok := t.sheet.Get(id)
	return ok
}

// StyleIDs returns the defined style ids in sorted order.
func (t *Template) StyleIDs() []string {
	return t.sheet.IDs()
}

// HeadingStyleIDs maps heading levels to the template's style ids for
// them. Levels with no style are absent.
func (t *Template) HeadingStyleIDs() map[int]string {
	out := make(map[int]string)
	for _, id := range t.sheet.IDs() {
		level := t.sheet.HeadingLevel(id)
		if level < 1 {
			continue
		}
		if _, taken := out[level]; !taken {
			out[level] = id
		}
	}
	return out
}

// DefaultParagraphStyle returns the template's default paragraph style
// id, "Normal" when the stylesheet declares none.
func (t *Template) DefaultParagraphStyle() string {
	if id := t.sheet.DefaultParagraph(); id != "" {
		return id
	}
	return "Normal"
}
