// Package ir defines the intermediate representation documents convert
// through, plus the fidelity ledger that tracks what each conversion
// preserved.
//
// The block and inline sets are closed: converters switch over them
// exhaustively and new variants are a deliberate API change. Every node
// carries a free-form attribute map; the "ref" key ties a node to a
// manifest entry holding preserved source XML, and "style" records the
// source style id.
package ir

// Attribute keys with defined meaning.
const (
	AttrRef   = "ref"   // manifest element id backing this node
	AttrStyle = "style" // source style id
)

// Block is a block-level IR node.
type Block interface {
	isBlock()
}

// Inline is an inline IR node.
type Inline interface {
	isInline()
}

// Document is the root of the IR.
type Document struct {
	Title  string
	Attrs  map[string]string
	Blocks []Block
}

// Heading is a section heading, level 1 through 6.
type Heading struct {
	Level   int
	Anchor  string
	Inlines []Inline
	Attrs   map[string]string
}

func (*Heading) isBlock() {}

// Paragraph is a plain paragraph of inline content.
type Paragraph struct {
	Inlines []Inline
	Attrs   map[string]string
}

func (*Paragraph) isBlock() {}

// List is an ordered or unordered list.
type List struct {
	Ordered bool
	Items   []*ListItem
	Attrs   map[string]string
}

func (*List) isBlock() {}

// ListItem is one list entry. Items nest blocks so sublists are
// expressed as a List block inside the parent item.
type ListItem struct {
	Blocks []Block
}

// Table is a grid of cells.
type Table struct {
	Rows    []*TableRow
	Caption string
	Attrs   map[string]string
}

func (*Table) isBlock() {}

// TableRow is one table row.
type TableRow struct {
	Header bool
	Cells  []*TableCell
}

// TableCell is one table cell. Span > 1 means the cell covers that many
// columns.
type TableCell struct {
	Span   int
	Blocks []Block
}

// Literal is a block of preformatted text.
type Literal struct {
	Content  string
	Language string
	Attrs    map[string]string
}

func (*Literal) isBlock() {}

// Admonition is a called-out block (note, warning).
type Admonition struct {
	Kind   string
	Title  string
	Blocks []Block
	Attrs  map[string]string
}

func (*Admonition) isBlock() {}

// Break is an explicit page or section break.
type Break struct {
	Page  bool // false means section break
	Attrs map[string]string
}

func (*Break) isBlock() {}

// Text is a plain text span.
type Text struct {
	Value string
}

func (*Text) isInline() {}

// FormatKind enumerates inline formatting.
type FormatKind string

// Inline format kinds.
const (
	FormatBold      FormatKind = "bold"
	FormatItalic    FormatKind = "italic"
	FormatMonospace FormatKind = "monospace"
)

// Format wraps inline content in a formatting span.
type Format struct {
	Kind    FormatKind
	Inlines []Inline
}

func (*Format) isInline() {}

// Link is a hyperlink. Internal links target an anchor in the same
// document; external links target a URL.
type Link struct {
	Target   string
	Internal bool
	Inlines  []Inline
}

func (*Link) isInline() {}

// Image is an inline image reference.
type Image struct {
	Ref   string // manifest element id or media part name
	Alt   string
	Attrs map[string]string
}

func (*Image) isInline() {}

// SetAttr sets an attribute on a map, allocating it when nil.
func SetAttr(attrs *map[string]string, key, value string) {
	if *attrs == nil {
		*attrs = make(map[string]string)
	}
	(*attrs)[key] = value
}

// GetAttr reads an attribute from a possibly-nil map.
func GetAttr(attrs map[string]string, key string) string {
	if attrs == nil {
		return ""
	}
	return attrs[key]
}

// PlainText flattens inline content to its text.
func PlainText(inlines []Inline) string {
	var out string
	for _, in := range inlines {
		switch node := in.(type) {
		case *Text:
			out += node.Value
		case *Format:
			out += PlainText(node.Inlines)
		case *Link:
			out += PlainText(node.Inlines)
		case *Image:
			out += node.Alt
		}
	}
	return out
}

// BlockRefs collects every manifest reference reachable from the given
// blocks, in document order.
func BlockRefs(blocks []Block) []string {
	var refs []string
	walkRefs(blocks, &refs)
	return refs
}

func walkRefs(blocks []Block, refs *[]string) {
	for _, b := range blocks {
		switch node := b.(type) {
		case *Heading:
			appendRef(node.Attrs, refs)
			inlineRefs(node.Inlines, refs)
		case *Paragraph:
			appendRef(node.Attrs, refs)
			inlineRefs(node.Inlines, refs)
		case *List:
			appendRef(node.Attrs, refs)
			for _, item := range node.Items {
				walkRefs(item.Blocks, refs)
			}
		case *Table:
			appendRef(node.Attrs, refs)
			for _, row := range node.Rows {
				for _, cell := range row.Cells {
					walkRefs(cell.Blocks, refs)
				}
			}
		case *Literal:
			appendRef(node.Attrs, refs)
		case *Admonition:
			appendRef(node.Attrs, refs)
			walkRefs(node.Blocks, refs)
		case *Break:
			appendRef(node.Attrs, refs)
		}
	}
}

func appendRef(attrs map[string]string, refs *[]string) {
	if r := GetAttr(attrs, AttrRef); r != "" {
		*refs = append(*refs, r)
	}
}

func inlineRefs(inlines []Inline, refs *[]string) {
	for _, in := range inlines {
		switch node := in.(type) {
		case *Format:
			inlineRefs(node.Inlines, refs)
		case *Link:
			inlineRefs(node.Inlines, refs)
		case *Image:
			appendRef(node.Attrs, refs)
		}
	}
}
