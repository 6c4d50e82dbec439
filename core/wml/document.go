// Package wml models the content of a word-processing document part.
//
// The model is a faithful, order-preserving view of the document body:
// block-level elements (paragraphs, tables, breaks) appear exactly in
// source order, and paragraph children (runs, hyperlinks, drawings,
// fields, bookmarks) keep their order within the paragraph. Elements
// the model does not understand are captured verbatim so later stages
// can preserve them.
package wml

import "strings"

// Block is a body-level element.
type Block interface {
	isBlock()
}

// Content is a paragraph-level element.
type Content interface {
	isContent()
}

// Paragraph is a w:p element.
type Paragraph struct {
	StyleID  string
	NumID    string // numbering definition id, "" when not a list item
	NumLevel int    // 0-based list level, meaningful only with NumID
	Children []Content
	SectionBreak bool // pPr carried a sectPr
}

func (*Paragraph) isBlock() {}

// Table is a w:tbl element.
type Table struct {
	StyleID  string
	Rows     []*Row
	RawProps string // tblPr serialized verbatim, "" when absent
	Complex  bool   // tblPr carries properties beyond style/width/look
}

func (*Table) isBlock() {}

// Row is a w:tr element.
type Row struct {
	Header bool
	Cells  []*Cell
}

// Cell is a w:tc element. Cells nest arbitrary blocks.
type Cell struct {
	GridSpan int    // columns spanned, 1 for a plain cell
	VMerge   string // "restart", "continue", or ""
	Blocks   []Block
}

// Unknown is a body-level element the model does not understand,
// captured verbatim.
type Unknown struct {
	Name string // qualified element name
	XML  string
}

func (*Unknown) isBlock()   {}
func (*Unknown) isContent() {}

// Run is a w:r element: a span of text with uniform formatting.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Monospace bool
	StyleID   string // character style, "" when unstyled
}

func (*Run) isContent() {}

// Hyperlink is a w:hyperlink element. Exactly one of RelID and Anchor
// is set: RelID references an external target through the relationship
// part, Anchor names an internal bookmark.
type Hyperlink struct {
	RelID  string
	Anchor string
	Runs   []*Run
}

func (*Hyperlink) isContent() {}

// Drawing is a w:drawing element. The XML is captured verbatim for
// preservation; the image relationship id, alt text, and any text-box
// paragraphs are additionally decoded.
type Drawing struct {
	RelID      string // image relationship (r:embed), "" when none
	Alt        string
	XML        string
	TextBlocks []Block // content of embedded text boxes
}

func (*Drawing) isContent() {}

// Field is a field-code sequence (w:fldSimple or a w:fldChar group).
// The instruction text never contributes to document text.
type Field struct {
	Instr string
	XML   string
}

func (*Field) isContent() {}

// Bookmark is a w:bookmarkStart marker.
type Bookmark struct {
	Name string
}

func (*Bookmark) isContent() {}

// Break is an explicit break inside a paragraph.
type Break struct {
	Page bool // w:br w:type="page"; false is a line break
}

func (*Break) isContent() {}

// Document is a parsed document part body.
type Document struct {
	Blocks []Block
}

// Paragraphs returns the top-level paragraphs in order.
func (d *Document) Paragraphs() []*Paragraph {
	var result []*Paragraph
	for _, b := range d.Blocks {
		if p, ok := b.(*Paragraph); ok {
			result = append(result, p)
		}
	}
	return result
}

// IsEmpty reports whether the document has no blocks.
func (d *Document) IsEmpty() bool {
	return len(d.Blocks) == 0
}

// PlainText returns the text of all paragraphs joined by newlines.
// Table and text-box content is included in source order; field
// instructions are not.
func (d *Document) PlainText() string {
	var lines []string
	collectText(d.Blocks, &lines)
	return strings.Join(lines, "\n")
}

func collectText(blocks []Block, lines *[]string) {
	for _, b := range blocks {
		switch block := b.(type) {
		case *Paragraph:
			if text := block.Text(); text != "" {
				*lines = append(*lines, text)
			}
		case *Table:
			for _, row := range block.Rows {
				for _, cell := range row.Cells {
					collectText(cell.Blocks, lines)
				}
			}
		}
	}
}

// Text returns the concatenated text of the paragraph's runs and
// hyperlinks.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, c := range p.Children {
		switch child := c.(type) {
		case *Run:
			b.WriteString(child.Text)
		case *Hyperlink:
			for _, r := range child.Runs {
				b.WriteString(r.Text)
			}
		}
	}
	return b.String()
}

// IsListItem reports whether the paragraph carries numbering.
func (p *Paragraph) IsListItem() bool {
	return p.NumID != ""
}

// SameFormat reports whether two runs carry identical formatting, so
// adjacent runs can merge.
func (r *Run) SameFormat(other *Run) bool {
	return r.Bold == other.Bold &&
		r.Italic == other.Italic &&
		r.Monospace == other.Monospace &&
		r.StyleID == other.StyleID
}
