// Package markup renders the IR to the plain-text dialect and parses it
// back.
//
// The dialect is line-oriented: `= Title` and `== Heading`, `*bold*`,
// `_italic_`, backtick monospace, `----` literal fences, `|===` table
// fences with one cell per line and a blank line between rows, `*`/`.`
// list markers repeated for depth, `NOTE:` admonitions, `<<<` page
// breaks and `'''` section
// breaks. `[...]` attribute lines attach to the following block; the
// generator and parser are mutual inverses on the forms the generator
// emits.
package markup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FocuswithJustin/DocLoom/core/ir"
	"github.com/FocuswithJustin/DocLoom/core/styles"
)

// Generate renders a document to markup text.
func Generate(doc *ir.Document) string {
	var b strings.Builder

	if doc.Title != "" || len(doc.Attrs) > 0 {
		if doc.Title != "" {
			b.WriteString("= " + doc.Title + "\n")
		}
		writeDocAttrs(&b, doc.Attrs)
		b.WriteString("\n")
	}

	for i, block := range doc.Blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		writeBlock(&b, block, 0)
	}
	return b.String()
}

func writeDocAttrs(b *strings.Builder, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, ":%s: %s\n", k, attrs[k])
	}
}

// attrLine renders a `[...]` attribute line. Leading bare tokens come
// first, then key=value pairs in sorted key order. Returns "" when
// there is nothing to say.
func attrLine(bare []string, attrs map[string]string, skip ...string) string {
	skipped := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}
	parts := append([]string{}, bare...)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if !skipped[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func writeBlock(b *strings.Builder, block ir.Block, listDepth int) {
	switch node := block.(type) {
	case *ir.Heading:
		if line := attrLine(nil, node.Attrs, ir.AttrStyle); line != "" {
			b.WriteString(line + "\n")
		}
		text := RenderInlines(node.Inlines)
		if node.Anchor != "" && node.Anchor != styles.NormalizeAnchor(text) {
			b.WriteString("[[" + node.Anchor + "]]\n")
		}
		b.WriteString(strings.Repeat("=", node.Level+1) + " " + text + "\n")

	case *ir.Paragraph:
		if len(node.Inlines) == 0 {
			// A placeholder standing in for preserved source XML.
			if ref := ir.GetAttr(node.Attrs, ir.AttrRef); ref != "" {
				b.WriteString("preserve::" + ref + "[]\n")
			}
			return
		}
		var bare []string
		if role := ir.GetAttr(node.Attrs, "role"); role != "" {
			bare = append(bare, role)
		}
		if line := attrLine(bare, node.Attrs, "role", ir.AttrStyle); line != "" {
			b.WriteString(line + "\n")
		}
		b.WriteString(RenderInlines(node.Inlines) + "\n")

	case *ir.List:
		writeList(b, node, listDepth)

	case *ir.Table:
		writeTable(b, node)

	case *ir.Literal:
		bare := []string{"source"}
		if node.Language != "" {
			bare = append(bare, node.Language)
		}
		if line := attrLine(bare, node.Attrs, ir.AttrStyle); line != "" {
			b.WriteString(line + "\n")
		}
		b.WriteString("----\n")
		b.WriteString(node.Content)
		if !strings.HasSuffix(node.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("----\n")

	case *ir.Admonition:
		writeAdmonition(b, node)

	case *ir.Break:
		if line := attrLine(nil, node.Attrs); line != "" {
			b.WriteString(line + "\n")
		}
		if node.Page {
			b.WriteString("<<<\n")
		} else {
			b.WriteString("'''\n")
		}
	}
}

func writeList(b *strings.Builder, list *ir.List, depth int) {
	marker := "*"
	if list.Ordered {
		marker = "."
	}
	prefix := strings.Repeat(marker, depth+1)
	for _, item := range list.Items {
		for _, block := range item.Blocks {
			switch inner := block.(type) {
			case *ir.Paragraph:
				b.WriteString(prefix + " " + RenderInlines(inner.Inlines) + "\n")
			case *ir.List:
				writeList(b, inner, depth+1)
			default:
				writeBlock(b, inner, depth+1)
			}
		}
	}
}

func writeTable(b *strings.Builder, table *ir.Table) {
	cols := 0
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
	if cols == 0 {
		cols = 1
	}

	specs := make([]string, cols)
	for i := range specs {
		specs[i] = "1"
	}
	attrs := map[string]string{"cols": `"` + strings.Join(specs, ",") + `"`}
	var bare []string
	if len(table.Rows) > 0 && table.Rows[0].Header {
		attrs["options"] = `"header"`
	}
	if ref := ir.GetAttr(table.Attrs, ir.AttrRef); ref != "" {
		attrs[ir.AttrRef] = ref
	}
	if table.Caption != "" {
		b.WriteString("." + table.Caption + "\n")
	}
	b.WriteString(attrLine(bare, attrs) + "\n")
	b.WriteString("|===\n")
	for i, row := range table.Rows {
		if i > 0 {
			// Blank line ends a row, so ragged rows keep their shape.
			b.WriteString("\n")
		}
		for _, cell := range row.Cells {
			if cell.Span > 1 {
				fmt.Fprintf(b, "%d+", cell.Span)
			}
			b.WriteString("|" + cellText(cell) + "\n")
		}
	}
	b.WriteString("|===\n")
}

// cellText flattens a cell to one line; nested block structure beyond
// the first paragraph joins with spaces.
func cellText(cell *ir.TableCell) string {
	var parts []string
	for _, block := range cell.Blocks {
		if p, ok := block.(*ir.Paragraph); ok {
			parts = append(parts, RenderInlines(p.Inlines))
		}
	}
	return strings.Join(parts, " ")
}

func writeAdmonition(b *strings.Builder, adm *ir.Admonition) {
	kind := strings.ToUpper(adm.Kind)
	if len(adm.Blocks) == 1 {
		if p, ok := adm.Blocks[0].(*ir.Paragraph); ok && adm.Title == "" {
			b.WriteString(kind + ": " + RenderInlines(p.Inlines) + "\n")
			return
		}
	}
	b.WriteString("[" + kind + "]\n")
	if adm.Title != "" {
		b.WriteString("." + adm.Title + "\n")
	}
	b.WriteString("====\n")
	for i, block := range adm.Blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		writeBlock(b, block, 0)
	}
	b.WriteString("====\n")
}

// RenderInlines renders inline content to its dialect form.
func RenderInlines(inlines []ir.Inline) string {
	var b strings.Builder
	for _, in := range inlines {
		switch node := in.(type) {
		case *ir.Text:
			b.WriteString(node.Value)
		case *ir.Format:
			inner := RenderInlines(node.Inlines)
			switch node.Kind {
			case ir.FormatBold:
				b.WriteString("*" + inner + "*")
			case ir.FormatItalic:
				b.WriteString("_" + inner + "_")
			case ir.FormatMonospace:
				b.WriteString("`" + inner + "`")
			default:
				b.WriteString(inner)
			}
		case *ir.Link:
			text := RenderInlines(node.Inlines)
			if node.Internal {
				b.WriteString("<<" + node.Target + "," + text + ">>")
			} else {
				b.WriteString(node.Target + "[" + text + "]")
			}
		case *ir.Image:
			b.WriteString("image:" + node.Ref + "[" + node.Alt)
			if ref := ir.GetAttr(node.Attrs, ir.AttrRef); ref != "" {
				b.WriteString(",ref=" + ref)
			}
			b.WriteString("]")
		}
	}
	return b.String()
}
