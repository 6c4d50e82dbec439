package extract

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/DocLoom/core/ir"
	"github.com/FocuswithJustin/DocLoom/core/manifest"
	"github.com/FocuswithJustin/DocLoom/core/markup"
	"github.com/FocuswithJustin/DocLoom/core/rels"
	"github.com/FocuswithJustin/DocLoom/core/styles"
	"github.com/FocuswithJustin/DocLoom/core/wml"
)

// Generator names this engine in manifests and ledgers.
const Generator = "docloom"

// Options controls extraction behavior.
type Options struct {
	// IncludeHeader promotes the first title or level-1 heading to the
	// document title.
	IncludeHeader bool

	// ExtractTables converts tables; when false they are dropped and
	// tallied.
	ExtractTables bool

	// PreserveFormatting keeps bold/italic/monospace spans; when false
	// text flattens.
	PreserveFormatting bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{IncludeHeader: true, ExtractTables: true, PreserveFormatting: true}
}

// Result is the complete output of one extraction.
type Result struct {
	Doc      *ir.Document
	Markup   string
	Map      *styles.StyleMap
	Manifest *manifest.Manifest
	Ledger   *ir.Ledger
}

// Extract converts a source to IR, markup text, style map, manifest,
// and ledger.
func Extract(src Source, opts Options) (*Result, error) {
	blocks, err := src.Blocks()
	if err != nil {
		return nil, err
	}

	sheet := src.Styles()
	sm, mapNotes := styles.MapStyles(sheet)
	ledger := ir.NewLedger("docx", "markup")
	for _, note := range mapNotes {
		ledger.Diag(ir.SeverityInfo, ir.CodeStyleResolution, "", note)
	}
	for _, note := range src.Notes() {
		ledger.Diag(ir.SeverityWarning, ir.CodeSourceIrregularity, "", note)
	}

	c := &converter{
		sheet:  sheet,
		sm:     sm,
		rels:   src.Rels(),
		man:    manifest.New(Generator),
		ledger: ledger,
		opts:   opts,
		doc:    &ir.Document{},
	}

	c.doc.Blocks = c.convertBlocks(blocks)
	ledger.Finalize()

	return &Result{
		Doc:      c.doc,
		Markup:   markup.Generate(c.doc),
		Map:      sm,
		Manifest: c.man,
		Ledger:   ledger,
	}, nil
}

type converter struct {
	sheet      *styles.Sheet
	sm         *styles.StyleMap
	rels       *rels.Relationships
	man        *manifest.Manifest
	ledger     *ir.Ledger
	opts       Options
	doc        *ir.Document
	titleTaken bool
}

func (c *converter) convertBlocks(blocks []wml.Block) []ir.Block {
	var out []ir.Block
	i := 0
	for i < len(blocks) {
		switch block := blocks[i].(type) {
		case *wml.Paragraph:
			role := c.sm.Role(block.StyleID)
			if block.IsListItem() {
				start := i
				for i < len(blocks) {
					p, ok := blocks[i].(*wml.Paragraph)
					if !ok || p.NumID != block.NumID {
						break
					}
					i++
				}
				out = append(out, c.convertList(blocks[start:i]))
				continue
			}
			if role == styles.RoleCode && block.Text() != "" {
				start := i
				for i < len(blocks) {
					p, ok := blocks[i].(*wml.Paragraph)
					if !ok || c.sm.Role(p.StyleID) != styles.RoleCode {
						break
					}
					i++
				}
				out = append(out, c.convertLiteral(blocks[start:i]))
				continue
			}
			out = append(out, c.convertParagraph(block)...)
			i++

		case *wml.Table:
			if !c.opts.ExtractTables {
				c.ledger.Drop("table")
				c.ledger.Diag(ir.SeverityWarning, ir.CodeUnknownElement, "", "table dropped by options")
				i++
				continue
			}
			out = append(out, c.convertTable(block))
			i++

		case *wml.Unknown:
			id := c.man.Add(manifest.TypeUnknown, "word/document.xml", block.XML, block.Name)
			placeholder := &ir.Paragraph{}
			ir.SetAttr(&placeholder.Attrs, ir.AttrRef, id)
			out = append(out, placeholder)
			c.ledger.Preserve("unknown")
			c.ledger.Diag(ir.SeverityInfo, ir.CodeUnknownElement, id,
				fmt.Sprintf("%s preserved verbatim", block.Name))
			i++

		default:
			i++
		}
	}
	return out
}

// convertParagraph converts one paragraph. It can yield several blocks:
// the paragraph itself, placeholders for preserved fragments, text-box
// content, and break markers. Content that cannot stay inline splits
// the paragraph so everything keeps its source position.
func (c *converter) convertParagraph(p *wml.Paragraph) []ir.Block {
	parts, anchor := c.convertContents(p.Children)
	var inlines []ir.Inline
	for _, part := range parts {
		inlines = append(inlines, part.inlines...)
	}
	text := ir.PlainText(inlines)
	role := c.sm.Role(p.StyleID)
	level := role.HeadingLevel()

	var blocks []ir.Block
	trailing := func() {
		for _, part := range parts {
			blocks = append(blocks, part.after...)
		}
	}

	switch {
	case text == "" && len(inlines) == 0:
		// Empty paragraphs carry no content; split-off blocks still
		// surface.
		trailing()

	case c.opts.IncludeHeader && !c.titleTaken && (role == styles.RoleTitle || level == 1):
		c.doc.Title = markup.RenderInlines(inlines)
		c.titleTaken = true
		c.ledger.Preserve("heading")
		trailing()

	case level > 0:
		h := &ir.Heading{Level: level, Inlines: inlines}
		if anchor != "" {
			h.Anchor = anchor
		} else {
			h.Anchor = styles.NormalizeAnchor(text)
			c.sm.SetAnchor(h.Anchor, styles.AnchorHeading)
		}
		c.setStyle(&h.Attrs, p.StyleID)
		blocks = append(blocks, h)
		c.ledger.Preserve("heading")
		trailing()

	case role == styles.RoleQuote:
		para := &ir.Paragraph{Inlines: inlines}
		ir.SetAttr(&para.Attrs, "role", "quote")
		c.setStyle(&para.Attrs, p.StyleID)
		blocks = append(blocks, para)
		c.ledger.Preserve("paragraph")
		trailing()

	case role == styles.RoleNote || role == styles.RoleWarning:
		adm := &ir.Admonition{
			Kind:   string(role),
			Blocks: []ir.Block{&ir.Paragraph{Inlines: inlines}},
		}
		c.setStyle(&adm.Attrs, p.StyleID)
		blocks = append(blocks, adm)
		c.ledger.Preserve("admonition")
		trailing()

	default:
		for _, part := range parts {
			if len(part.inlines) > 0 {
				para := &ir.Paragraph{Inlines: part.inlines}
				c.setStyle(&para.Attrs, p.StyleID)
				if anchor != "" {
					ir.SetAttr(&para.Attrs, "anchor", anchor)
					anchor = ""
				}
				blocks = append(blocks, para)
				c.ledger.Preserve("paragraph")
			}
			blocks = append(blocks, part.after...)
		}
	}

	if p.SectionBreak {
		blocks = append(blocks, &ir.Break{})
		c.ledger.Preserve("break")
	}
	return blocks
}

func (c *converter) setStyle(attrs *map[string]string, styleID string) {
	if styleID != "" {
		ir.SetAttr(attrs, ir.AttrStyle, styleID)
	}
}

// paraPart is a run of inline content followed by the blocks that sat
// after it inside the same source paragraph.
type paraPart struct {
	inlines []ir.Inline
	after   []ir.Block
}

// convertContents converts paragraph children to parts. Each page
// break, field, or unknown element closes the current part so the
// split-off block stays at its source position. The first user-defined
// bookmark becomes the anchor.
func (c *converter) convertContents(children []wml.Content) ([]paraPart, string) {
	var parts []paraPart
	var cur paraPart
	var anchor string
	var pending []*wml.Run

	flushRuns := func() {
		cur.inlines = append(cur.inlines, c.runsToInlines(pending)...)
		pending = nil
	}
	cut := func(after ir.Block) {
		flushRuns()
		cur.after = append(cur.after, after)
		parts = append(parts, cur)
		cur = paraPart{}
	}

	for _, child := range children {
		switch node := child.(type) {
		case *wml.Run:
			pending = append(pending, node)

		case *wml.Hyperlink:
			flushRuns()
			cur.inlines = append(cur.inlines, c.convertHyperlink(node))

		case *wml.Drawing:
			flushRuns()
			img, boxes := c.convertDrawing(node)
			cur.inlines = append(cur.inlines, img)
			cur.after = append(cur.after, boxes...)

		case *wml.Field:
			id := c.man.Add(manifest.TypeField, "word/document.xml", node.XML, node.Instr)
			placeholder := &ir.Paragraph{}
			ir.SetAttr(&placeholder.Attrs, ir.AttrRef, id)
			cut(placeholder)
			c.ledger.Degrade("field")
			c.ledger.Diag(ir.SeverityInfo, ir.CodeFieldExcluded, id,
				fmt.Sprintf("field %q excluded from text, preserved verbatim", node.Instr))

		case *wml.Bookmark:
			class := styles.ClassifyAnchor(node.Name)
			c.sm.SetAnchor(node.Name, class)
			if anchor == "" && class == styles.AnchorUser {
				anchor = node.Name
			}

		case *wml.Break:
			flushRuns()
			if node.Page {
				cut(&ir.Break{Page: true})
				c.ledger.Preserve("break")
			} else if len(cur.inlines) > 0 {
				cur.inlines = append(cur.inlines, &ir.Text{Value: " "})
			}

		case *wml.Unknown:
			id := c.man.Add(manifest.TypeUnknown, "word/document.xml", node.XML, node.Name)
			placeholder := &ir.Paragraph{}
			ir.SetAttr(&placeholder.Attrs, ir.AttrRef, id)
			cut(placeholder)
			c.ledger.Preserve("unknown")
			c.ledger.Diag(ir.SeverityInfo, ir.CodeUnknownElement, id,
				fmt.Sprintf("%s preserved verbatim", node.Name))
		}
	}
	flushRuns()
	if len(cur.inlines) > 0 || len(cur.after) > 0 {
		parts = append(parts, cur)
	}
	return parts, anchor
}

// runsToInlines merges adjacent runs with identical formatting and
// wraps each merged run in its format spans, bold outermost.
func (c *converter) runsToInlines(runs []*wml.Run) []ir.Inline {
	var merged []*wml.Run
	for _, r := range runs {
		if len(merged) > 0 && merged[len(merged)-1].SameFormat(r) {
			prev := merged[len(merged)-1]
			combined := *prev
			combined.Text = prev.Text + r.Text
			merged[len(merged)-1] = &combined
			continue
		}
		dup := *r
		merged = append(merged, &dup)
	}

	var inlines []ir.Inline
	for _, r := range merged {
		if r.Text == "" {
			continue
		}
		inlines = append(inlines, c.runInline(r))
	}
	return inlines
}

func (c *converter) runInline(r *wml.Run) ir.Inline {
	bold, italic, mono := r.Bold, r.Italic, r.Monospace
	if r.StyleID != "" {
		switch c.sm.Character[r.StyleID] {
		case styles.RoleStrong:
			bold = true
		case styles.RoleEmphasis:
			italic = true
		case styles.RoleCode:
			mono = true
		}
	}
	if !c.opts.PreserveFormatting {
		bold, italic, mono = false, false, false
	}

	var node ir.Inline = &ir.Text{Value: r.Text}
	if mono {
		node = &ir.Format{Kind: ir.FormatMonospace, Inlines: []ir.Inline{node}}
	}
	if italic {
		node = &ir.Format{Kind: ir.FormatItalic, Inlines: []ir.Inline{node}}
	}
	if bold {
		node = &ir.Format{Kind: ir.FormatBold, Inlines: []ir.Inline{node}}
	}
	return node
}

func (c *converter) convertHyperlink(h *wml.Hyperlink) ir.Inline {
	var label []ir.Inline
	for _, r := range h.Runs {
		if r.Text != "" {
			label = append(label, c.runInline(r))
		}
	}
	if len(label) == 0 {
		label = []ir.Inline{&ir.Text{Value: ""}}
	}

	if h.Anchor != "" {
		c.sm.SetAnchor(h.Anchor, styles.ClassifyAnchor(h.Anchor))
		c.ledger.Preserve("hyperlink")
		return &ir.Link{Target: h.Anchor, Internal: true, Inlines: label}
	}

	rel, ok := c.rels.Get(h.RelID)
	if !ok {
		c.ledger.Degrade("hyperlink")
		c.ledger.Diag(ir.SeverityWarning, ir.CodeRelationshipMissing, "",
			fmt.Sprintf("hyperlink relationship %s not found", h.RelID))
		return &ir.Link{Target: "#" + h.RelID, Inlines: label}
	}
	c.ledger.Preserve("hyperlink")
	return &ir.Link{Target: rel.Target, Inlines: label}
}

func (c *converter) convertDrawing(d *wml.Drawing) (ir.Inline, []ir.Block) {
	id := c.man.Add(manifest.TypeDrawing, "word/document.xml", d.XML, d.Alt)
	img := &ir.Image{Alt: d.Alt}
	ir.SetAttr(&img.Attrs, ir.AttrRef, id)

	if d.RelID != "" {
		if rel, ok := c.rels.Get(d.RelID); ok {
			img.Ref = rel.Target
			c.ledger.Preserve("drawing")
		} else {
			img.Ref = id
			c.ledger.Degrade("drawing")
			c.ledger.Diag(ir.SeverityWarning, ir.CodeRelationshipMissing, id,
				fmt.Sprintf("image relationship %s not found", d.RelID))
		}
	} else {
		img.Ref = id
		c.ledger.Preserve("drawing")
	}

	return img, c.convertBlocks(d.TextBlocks)
}

func (c *converter) convertLiteral(blocks []wml.Block) ir.Block {
	var lines []string
	var styleID string
	for _, b := range blocks {
		p := b.(*wml.Paragraph)
		lines = append(lines, p.Text())
		if styleID == "" {
			styleID = p.StyleID
		}
		c.ledger.Preserve("literal")
	}
	lit := &ir.Literal{Content: strings.Join(lines, "\n") + "\n"}
	c.setStyle(&lit.Attrs, styleID)
	return lit
}

func (c *converter) convertList(blocks []wml.Block) ir.Block {
	paras := make([]*wml.Paragraph, len(blocks))
	for i, b := range blocks {
		paras[i] = b.(*wml.Paragraph)
	}
	pos := 0
	return c.buildList(paras, &pos, paras[0].NumLevel)
}

func (c *converter) buildList(paras []*wml.Paragraph, pos *int, level int) *ir.List {
	list := &ir.List{Ordered: c.orderedList(paras[*pos])}
	for *pos < len(paras) {
		p := paras[*pos]
		if p.NumLevel < level {
			break
		}
		if p.NumLevel == level {
			parts, _ := c.convertContents(p.Children)
			var inlines []ir.Inline
			item := &ir.ListItem{}
			for _, part := range parts {
				inlines = append(inlines, part.inlines...)
			}
			item.Blocks = append(item.Blocks, &ir.Paragraph{Inlines: inlines})
			for _, part := range parts {
				item.Blocks = append(item.Blocks, part.after...)
			}
			list.Items = append(list.Items, item)
			c.ledger.Preserve("list-item")
			*pos++
			continue
		}
		sub := c.buildList(paras, pos, p.NumLevel)
		if len(list.Items) == 0 {
			list.Items = append(list.Items, &ir.ListItem{})
		}
		last := list.Items[len(list.Items)-1]
		last.Blocks = append(last.Blocks, sub)
	}
	return list
}

// orderedList decides list ordering from the paragraph style name.
// Numbering definitions live in a separate part; the style-name
// convention covers the documents this engine round-trips.
func (c *converter) orderedList(p *wml.Paragraph) bool {
	if st, ok := c.sheet.Get(p.StyleID); ok {
		name := strings.ToLower(st.Name)
		if strings.Contains(name, "number") || strings.Contains(name, "ordered") {
			return true
		}
	}
	return false
}

func (c *converter) convertTable(t *wml.Table) ir.Block {
	table := &ir.Table{}
	c.setStyle(&table.Attrs, t.StyleID)

	if t.Complex {
		id := c.man.Add(manifest.TypeTableProp, "word/document.xml", t.RawProps, "table properties")
		ir.SetAttr(&table.Attrs, ir.AttrRef, id)
	}

	merged := false
	for _, row := range t.Rows {
		irRow := &ir.TableRow{Header: row.Header}
		for _, cell := range row.Cells {
			irCell := &ir.TableCell{Span: cell.GridSpan}
			if cell.VMerge == "continue" {
				merged = true
				irRow.Cells = append(irRow.Cells, irCell)
				continue
			}
			if cell.VMerge == "restart" {
				merged = true
			}
			irCell.Blocks = c.convertBlocks(cell.Blocks)
			irRow.Cells = append(irRow.Cells, irCell)
			c.ledger.Preserve("table-cell")
		}
		table.Rows = append(table.Rows, irRow)
	}

	if merged {
		c.ledger.Degrade("table")
		c.ledger.Diag(ir.SeverityWarning, ir.CodeUnknownElement, "",
			"vertically merged cells flattened")
	} else {
		c.ledger.Preserve("table")
	}
	return table
}
