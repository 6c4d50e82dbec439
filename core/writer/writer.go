// Package writer assembles a document package from the IR. The body is
// rendered against a template's stylesheet, preserved fragments are
// spliced back from the manifest, and the style map decides which style
// ids the output references.
package writer

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/DocLoom/core/encoding"
	"github.com/FocuswithJustin/DocLoom/core/errors"
	"github.com/FocuswithJustin/DocLoom/core/ir"
	"github.com/FocuswithJustin/DocLoom/core/manifest"
	"github.com/FocuswithJustin/DocLoom/core/markup"
	"github.com/FocuswithJustin/DocLoom/core/opc"
	"github.com/FocuswithJustin/DocLoom/core/rels"
	"github.com/FocuswithJustin/DocLoom/core/styles"
	"github.com/FocuswithJustin/DocLoom/core/template"
	"github.com/FocuswithJustin/DocLoom/core/xml"
)

const wmlNamespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`

// Numbering definition ids the generated numbering part declares.
const (
	numIDBullet  = 1
	numIDOrdered = 2
)

// Options controls package assembly.
type Options struct {
	// EmbedSidecars writes the manifest and style map into the package
	// under docloom/.
	EmbedSidecars bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{EmbedSidecars: true}
}

// Result is the output of one assembly.
type Result struct {
	Archive *opc.Archive
	Ledger  *ir.Ledger
}

// Write assembles a package from a document. A nil template falls back
// to the built-in one; a nil manifest means no fragments to splice; a
// nil style map means conventional style ids only.
func Write(doc *ir.Document, tpl *template.Template, man *manifest.Manifest, sm *styles.StyleMap) (*Result, error) {
	return WriteWith(doc, tpl, man, sm, DefaultOptions())
}

// WriteWith assembles a package with explicit options.
func WriteWith(doc *ir.Document, tpl *template.Template, man *manifest.Manifest, sm *styles.StyleMap, opts Options) (*Result, error) {
	if tpl == nil {
		tpl = template.Minimal()
	}
	if sm == nil {
		sm = styles.NewStyleMap()
	}

	w := &writer{
		tpl:      tpl,
		man:      man,
		sm:       sm,
		rels:     tpl.Relationships(),
		ledger:   ir.NewLedger("markup", "docx"),
		headings: tpl.HeadingStyleIDs(),
	}

	if doc.Title != "" {
		w.writeStyledParagraph(w.styleFor(styles.RoleTitle, "Title"), "", markup.ParseInlines(doc.Title))
		w.ledger.Preserve("heading")
	}
	w.writeBlocks(doc.Blocks)

	body := w.body.String() + "<w:sectPr/>"
	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		"<w:document " + wmlNamespaces + "><w:body>" + body + "</w:body></w:document>"

	if _, err := xml.ParseString(documentXML); err != nil {
		return nil, errors.NewWriteAssembly("document", "generated document part is not well-formed", err)
	}

	a := tpl.Archive()
	a.SetPartString(opc.PartDocument, documentXML)
	a.SetPartString(opc.PartDocumentRels, w.rels.XML())
	if w.needNumbering {
		if err := w.addNumbering(a); err != nil {
			return nil, err
		}
	}
	if opts.EmbedSidecars {
		if err := w.embedSidecars(a); err != nil {
			return nil, err
		}
	}

	w.ledger.Finalize()
	return &Result{Archive: a, Ledger: w.ledger}, nil
}

type writer struct {
	body          strings.Builder
	tpl           *template.Template
	man           *manifest.Manifest
	sm            *styles.StyleMap
	rels          *rels.Relationships
	ledger        *ir.Ledger
	headings      map[int]string
	bookmarkID    int
	needNumbering bool
}

// styleFor picks the output style id for a role: the mapped id when the
// template defines it, the conventional id when the template defines
// that, the default paragraph style otherwise.
func (w *writer) styleFor(role styles.Role, conventional string) string {
	if id, ok := w.sm.StyleFor(role); ok && w.tpl.HasStyle(id) {
		return id
	}
	if w.tpl.HasStyle(conventional) {
		return conventional
	}
	return w.tpl.DefaultParagraphStyle()
}

func (w *writer) headingStyle(level int) string {
	if id, ok := w.headings[level]; ok {
		return id
	}
	return w.styleFor(styles.Role(fmt.Sprintf("heading%d", level)), fmt.Sprintf("Heading%d", level))
}

func (w *writer) writeBlocks(blocks []ir.Block) {
	for _, block := range blocks {
		w.writeBlock(block)
	}
}

func (w *writer) writeBlock(block ir.Block) {
	switch node := block.(type) {
	case *ir.Heading:
		w.writeHeading(node)
	case *ir.Paragraph:
		w.writeParagraph(node)
	case *ir.List:
		w.writeList(node, 0)
	case *ir.Table:
		w.writeTable(node)
	case *ir.Literal:
		w.writeLiteral(node)
	case *ir.Admonition:
		w.writeAdmonition(node)
	case *ir.Break:
		w.writeBreak(node)
	}
}

func (w *writer) writeHeading(h *ir.Heading) {
	style := w.headingStyle(h.Level)
	w.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + encoding.EscapeXMLAttr(style) + `"/></w:pPr>`)
	if h.Anchor != "" {
		w.writeBookmark(h.Anchor)
	}
	w.writeInlines(h.Inlines, runFormat{})
	w.body.WriteString("</w:p>")
	w.ledger.Preserve("heading")
}

func (w *writer) writeBookmark(name string) {
	w.bookmarkID++
	id := fmt.Sprintf("%d", w.bookmarkID)
	w.body.WriteString(`<w:bookmarkStart w:id="` + id + `" w:name="` + encoding.EscapeXMLAttr(name) + `"/>`)
	w.body.WriteString(`<w:bookmarkEnd w:id="` + id + `"/>`)
}

func (w *writer) writeParagraph(p *ir.Paragraph) {
	if len(p.Inlines) == 0 {
		if ref := ir.GetAttr(p.Attrs, ir.AttrRef); ref != "" {
			w.spliceRef(ref)
			return
		}
		w.body.WriteString("<w:p/>")
		return
	}

	style := ""
	if ir.GetAttr(p.Attrs, "role") == "quote" {
		style = w.styleFor(styles.RoleQuote, "Quote")
	} else if id := ir.GetAttr(p.Attrs, ir.AttrStyle); id != "" && w.tpl.HasStyle(id) {
		style = id
	}
	w.writeStyledParagraph(style, ir.GetAttr(p.Attrs, "anchor"), p.Inlines)
	w.ledger.Preserve("paragraph")
}

func (w *writer) writeStyledParagraph(style, anchor string, inlines []ir.Inline) {
	w.body.WriteString("<w:p>")
	if style != "" {
		w.body.WriteString(`<w:pPr><w:pStyle w:val="` + encoding.EscapeXMLAttr(style) + `"/></w:pPr>`)
	}
	if anchor != "" {
		w.writeBookmark(anchor)
	}
	w.writeInlines(inlines, runFormat{})
	w.body.WriteString("</w:p>")
}

// spliceRef splices a preserved fragment back into the body. A fragment
// that fails verification or cannot be found degrades to nothing but a
// diagnostic.
func (w *writer) spliceRef(ref string) {
	if w.man == nil {
		w.ledger.Drop("fragment")
		w.ledger.Diag(ir.SeverityWarning, ir.CodeManifestMismatch, ref, "no manifest supplied for fragment reference")
		return
	}
	meta, ok := w.man.Get(ref)
	if !ok {
		w.ledger.Drop("fragment")
		w.ledger.Diag(ir.SeverityWarning, ir.CodeManifestMismatch, ref, "fragment reference not in manifest")
		return
	}
	if err := w.man.Verify(ref, meta.Raw); err != nil {
		w.ledger.Degrade("fragment")
		w.ledger.Diag(ir.SeverityWarning, ir.CodeManifestMismatch, ref, err.Error())
		return
	}
	w.body.WriteString(wrapFragment(meta.Raw))
	w.ledger.Preserve("fragment")
}

// wrapFragment lifts run-level preserved XML to block level so it can
// sit in the body. Block-level fragments pass through.
func wrapFragment(raw string) string {
	switch fragmentName(raw) {
	case "w:p", "w:tbl", "w:sdt", "w:tblPr":
		return raw
	case "w:r", "w:hyperlink", "w:fldSimple":
		return "<w:p>" + raw + "</w:p>"
	case "w:drawing":
		return "<w:p><w:r>" + raw + "</w:r></w:p>"
	default:
		return raw
	}
}

// fragmentName returns the qualified name of the fragment's root
// element.
func fragmentName(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "<") {
		return ""
	}
	end := strings.IndexAny(raw[1:], " />\t\n")
	if end < 0 {
		return ""
	}
	return raw[1 : 1+end]
}

type runFormat struct {
	bold, italic, mono bool
	charStyle          string
}

func (f runFormat) rPr() string {
	if !f.bold && !f.italic && !f.mono && f.charStyle == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("<w:rPr>")
	if f.charStyle != "" {
		b.WriteString(`<w:rStyle w:val="` + encoding.EscapeXMLAttr(f.charStyle) + `"/>`)
	}
	if f.mono {
		b.WriteString(`<w:rFonts w:ascii="Consolas" w:hAnsi="Consolas"/>`)
	}
	if f.bold {
		b.WriteString("<w:b/>")
	}
	if f.italic {
		b.WriteString("<w:i/>")
	}
	b.WriteString("</w:rPr>")
	return b.String()
}

func (w *writer) writeInlines(inlines []ir.Inline, format runFormat) {
	for _, in := range inlines {
		switch node := in.(type) {
		case *ir.Text:
			w.writeRun(node.Value, format)

		case *ir.Format:
			inner := format
			switch node.Kind {
			case ir.FormatBold:
				inner.bold = true
			case ir.FormatItalic:
				inner.italic = true
			case ir.FormatMonospace:
				inner.mono = true
			}
			w.writeInlines(node.Inlines, inner)

		case *ir.Link:
			w.writeLink(node, format)

		case *ir.Image:
			w.writeImage(node, format)
		}
	}
}

func (w *writer) writeRun(text string, format runFormat) {
	if text == "" {
		return
	}
	w.body.WriteString("<w:r>")
	w.body.WriteString(format.rPr())
	w.body.WriteString(`<w:t xml:space="preserve">` + encoding.EscapeXMLText(text) + `</w:t>`)
	w.body.WriteString("</w:r>")
}

func (w *writer) writeLink(link *ir.Link, format runFormat) {
	if w.tpl.HasStyle("Hyperlink") {
		format.charStyle = "Hyperlink"
	}
	if link.Internal {
		w.body.WriteString(`<w:hyperlink w:anchor="` + encoding.EscapeXMLAttr(link.Target) + `">`)
	} else {
		id := w.rels.AddExternal(rels.TypeHyperlink, link.Target)
		w.body.WriteString(`<w:hyperlink r:id="` + id + `">`)
	}
	w.writeInlines(link.Inlines, format)
	w.body.WriteString("</w:hyperlink>")
	w.ledger.Preserve("hyperlink")
}

// writeImage splices the preserved drawing when the manifest still has
// it; otherwise the alt text survives as a plain run.
func (w *writer) writeImage(img *ir.Image, format runFormat) {
	ref := ir.GetAttr(img.Attrs, ir.AttrRef)
	if ref != "" {
		switch {
		case w.man == nil:
			w.ledger.Diag(ir.SeverityWarning, ir.CodeManifestMismatch, ref, "no manifest supplied for drawing reference")
		default:
			meta, ok := w.man.Get(ref)
			if !ok || meta.Type != manifest.TypeDrawing {
				w.ledger.Diag(ir.SeverityWarning, ir.CodeManifestMismatch, ref, "drawing reference not in manifest")
				break
			}
			if err := w.man.Verify(ref, meta.Raw); err == nil {
				w.body.WriteString("<w:r>" + meta.Raw + "</w:r>")
				w.ledger.Preserve("drawing")
				return
			}
			w.ledger.Diag(ir.SeverityWarning, ir.CodeManifestMismatch, ref, "drawing fragment failed verification")
		}
	}
	alt := img.Alt
	if alt == "" {
		alt = img.Ref
	}
	w.writeRun("["+alt+"]", format)
	w.ledger.Degrade("drawing")
}

func (w *writer) writeList(list *ir.List, level int) {
	w.needNumbering = true
	numID := numIDBullet
	if list.Ordered {
		numID = numIDOrdered
	}
	style := w.styleFor(styles.RoleNormal, "ListParagraph")

	for _, item := range list.Items {
		for _, block := range item.Blocks {
			switch inner := block.(type) {
			case *ir.Paragraph:
				w.body.WriteString("<w:p><w:pPr>")
				w.body.WriteString(`<w:pStyle w:val="` + encoding.EscapeXMLAttr(style) + `"/>`)
				fmt.Fprintf(&w.body, `<w:numPr><w:ilvl w:val="%d"/><w:numId w:val="%d"/></w:numPr>`, level, numID)
				w.body.WriteString("</w:pPr>")
				w.writeInlines(inner.Inlines, runFormat{})
				w.body.WriteString("</w:p>")
				w.ledger.Preserve("list-item")
			case *ir.List:
				w.writeList(inner, level+1)
			default:
				w.writeBlock(inner)
			}
		}
	}
}

func (w *writer) writeTable(table *ir.Table) {
	if table.Caption != "" {
		style := w.styleFor(styles.Role("caption"), "Caption")
		w.writeStyledParagraph(style, "", []ir.Inline{&ir.Text{Value: table.Caption}})
	}

	w.body.WriteString("<w:tbl>")
	if !w.spliceTableProps(table) {
		w.body.WriteString(`<w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr>`)
	}

	cols := tableWidth(table)
	w.body.WriteString("<w:tblGrid>")
	for i := 0; i < cols; i++ {
		w.body.WriteString("<w:gridCol/>")
	}
	w.body.WriteString("</w:tblGrid>")

	for _, row := range table.Rows {
		w.body.WriteString("<w:tr>")
		if row.Header {
			w.body.WriteString("<w:trPr><w:tblHeader/></w:trPr>")
		}
		for _, cell := range row.Cells {
			w.body.WriteString("<w:tc>")
			if cell.Span > 1 {
				fmt.Fprintf(&w.body, `<w:tcPr><w:gridSpan w:val="%d"/></w:tcPr>`, cell.Span)
			}
			if len(cell.Blocks) == 0 {
				w.body.WriteString("<w:p/>")
			} else {
				w.writeBlocks(cell.Blocks)
			}
			w.body.WriteString("</w:tc>")
		}
		w.body.WriteString("</w:tr>")
	}
	w.body.WriteString("</w:tbl>")
	w.ledger.Preserve("table")
}

// spliceTableProps restores preserved table properties, reporting
// whether it emitted a tblPr. An unresolved reference degrades to the
// synthesized default with a diagnostic naming the manifest id.
func (w *writer) spliceTableProps(table *ir.Table) bool {
	ref := ir.GetAttr(table.Attrs, ir.AttrRef)
	if ref == "" {
		return false
	}
	if w.man == nil {
		w.ledger.Degrade("fragment")
		w.ledger.Diag(ir.SeverityWarning, ir.CodeManifestMismatch, ref, "no manifest supplied for table properties reference")
		return false
	}
	meta, ok := w.man.Get(ref)
	if !ok || meta.Type != manifest.TypeTableProp {
		w.ledger.Degrade("fragment")
		w.ledger.Diag(ir.SeverityWarning, ir.CodeManifestMismatch, ref, "table properties reference not in manifest")
		return false
	}
	if err := w.man.Verify(ref, meta.Raw); err != nil {
		w.ledger.Degrade("fragment")
		w.ledger.Diag(ir.SeverityWarning, ir.CodeManifestMismatch, ref, err.Error())
		return false
	}
	w.body.WriteString(meta.Raw)
	w.ledger.Preserve("fragment")
	return true
}

func tableWidth(table *ir.Table) int {
	cols := 1
	for _, row := range table.Rows {
		width := 0
		for _, cell := range row.Cells {
			span := cell.Span
			if span < 1 {
				span = 1
			}
			width += span
		}
		if width > cols {
			cols = width
		}
	}
	return cols
}

func (w *writer) writeLiteral(lit *ir.Literal) {
	style := w.styleFor(styles.RoleCode, "CodeBlock")
	content := strings.TrimSuffix(lit.Content, "\n")
	for _, line := range strings.Split(content, "\n") {
		w.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + encoding.EscapeXMLAttr(style) + `"/></w:pPr>`)
		w.writeRun(line, runFormat{mono: true})
		w.body.WriteString("</w:p>")
	}
	w.ledger.Preserve("literal")
}

// writeAdmonition renders an admonition with the template's style for
// its kind when one exists; otherwise the kind survives as a bold
// prefix on a quote paragraph.
func (w *writer) writeAdmonition(adm *ir.Admonition) {
	style, conveyed := w.admonitionStyle(adm.Kind)
	prefix := ""
	if !conveyed {
		prefix = strings.ToUpper(adm.Kind) + ": "
	}
	if adm.Title != "" {
		w.writeStyledParagraph(style, "", []ir.Inline{
			&ir.Format{Kind: ir.FormatBold, Inlines: []ir.Inline{&ir.Text{Value: adm.Title}}},
		})
	}

	for _, block := range adm.Blocks {
		p, ok := block.(*ir.Paragraph)
		if !ok {
			w.writeBlock(block)
			continue
		}
		w.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + encoding.EscapeXMLAttr(style) + `"/></w:pPr>`)
		if prefix != "" {
			w.writeRun(prefix, runFormat{bold: true})
			prefix = ""
		}
		w.writeInlines(p.Inlines, runFormat{})
		w.body.WriteString("</w:p>")
	}
	w.ledger.Preserve("admonition")
}

// admonitionStyle picks the paragraph style for an admonition kind and
// reports whether that style alone conveys the kind.
func (w *writer) admonitionStyle(kind string) (string, bool) {
	if id, ok := w.sm.StyleFor(styles.Role(kind)); ok && w.tpl.HasStyle(id) {
		return id, true
	}
	if conventional := conventionalStyleID(kind); w.tpl.HasStyle(conventional) {
		return conventional, true
	}
	return w.styleFor(styles.RoleQuote, "Quote"), false
}

// conventionalStyleID title-cases a kind ("note" -> "Note").
func conventionalStyleID(kind string) string {
	if kind == "" {
		return ""
	}
	return strings.ToUpper(kind[:1]) + strings.ToLower(kind[1:])
}

func (w *writer) writeBreak(br *ir.Break) {
	if br.Page {
		w.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
	} else {
		w.body.WriteString(`<w:p><w:pPr><w:sectPr/></w:pPr></w:p>`)
	}
	w.ledger.Preserve("break")
}
