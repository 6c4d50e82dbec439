// Package extract converts parsed documents to the IR, producing
// markup text, a style map, a provenance manifest, and a fidelity
// ledger.
//
// The conversion walk is format-generic: it consumes the Source
// interface, not a package directly. A word-processing archive is the
// shipped implementation; any reader that can produce the block model
// plugs in the same way.
package extract

import (
	"github.com/FocuswithJustin/DocLoom/core/opc"
	"github.com/FocuswithJustin/DocLoom/core/rels"
	"github.com/FocuswithJustin/DocLoom/core/styles"
	"github.com/FocuswithJustin/DocLoom/core/wml"
)

// Source supplies the inputs of a conversion.
type Source interface {
	// Blocks returns the document body in source order.
	Blocks() ([]wml.Block, error)

	// Styles returns the stylesheet, never nil.
	Styles() *styles.Sheet

	// Rels returns the document-level relationships, never nil.
	Rels() *rels.Relationships

	// Notes returns soft irregularities found while reading the
	// source, for the ledger.
	Notes() []string
}

// ArchiveSource reads a conversion source from a package archive.
type ArchiveSource struct {
	archive *opc.Archive
	doc     *wml.Document
	sheet   *styles.Sheet
	rels    *rels.Relationships
	notes   []string
}

// NewArchiveSource prepares an archive for extraction. A missing or
// unparseable document part is a hard error; missing stylesheet or
// relationship parts degrade to empty sets with a note.
func NewArchiveSource(a *opc.Archive) (*ArchiveSource, error) {
	src := &ArchiveSource{archive: a}

	docXML, err := a.DocumentXML()
	if err != nil {
		return nil, err
	}
	src.doc, err = wml.ParseDocument(docXML)
	if err != nil {
		return nil, err
	}

	if stylesXML, err := a.StylesXML(); err == nil {
		src.sheet, err = styles.ParseStyles(stylesXML)
		if err != nil {
			return nil, err
		}
	} else {
		src.sheet, _ = styles.ParseStyles(`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`)
		src.notes = append(src.notes, "stylesheet part missing, styles resolve to defaults")
	}

	if relsXML, err := a.DocumentRels(); err == nil {
		r, notes, err := rels.Parse(relsXML)
		if err != nil {
			return nil, err
		}
		src.rels = r
		src.notes = append(src.notes, notes...)
	} else {
		src.rels = rels.New()
		src.notes = append(src.notes, "relationships part missing, external targets cannot resolve")
	}

	return src, nil
}

// Blocks returns the parsed document body.
func (s *ArchiveSource) Blocks() ([]wml.Block, error) {
	return s.doc.Blocks, nil
}

// Styles returns the parsed stylesheet.
func (s *ArchiveSource) Styles() *styles.Sheet {
	return s.sheet
}

// Rels returns the parsed relationships.
func (s *ArchiveSource) Rels() *rels.Relationships {
	return s.rels
}

// Notes returns irregularities found while opening the source.
func (s *ArchiveSource) Notes() []string {
	return s.notes
}
