package markup

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/DocLoom/core/encoding"
	"github.com/FocuswithJustin/DocLoom/core/ir"
	"github.com/FocuswithJustin/DocLoom/core/styles"
)

var admonitionKinds = map[string]bool{
	"NOTE":      true,
	"TIP":       true,
	"IMPORTANT": true,
	"WARNING":   true,
	"CAUTION":   true,
}

// pending holds attribute, anchor, and caption lines waiting for the
// block they precede.
type pending struct {
	bare    []string
	attrs   map[string]string
	anchor  string
	caption string
}

func (p *pending) reset() {
	*p = pending{}
}

func (p *pending) bareIs(token string) bool {
	return len(p.bare) > 0 && p.bare[0] == token
}

// apply copies pending key=value attributes onto a node's attribute
// map. Bare tokens other than structural markers become the role.
func (p *pending) apply(attrs *map[string]string, structural ...string) {
	marker := make(map[string]bool, len(structural))
	for _, s := range structural {
		marker[s] = true
	}
	for _, token := range p.bare {
		if !marker[token] && !admonitionKinds[token] {
			ir.SetAttr(attrs, "role", token)
		}
	}
	for k, v := range p.attrs {
		if k == "cols" || k == "options" {
			continue
		}
		ir.SetAttr(attrs, k, v)
	}
}

// Parse reads markup text into a document.
func Parse(text string) (*ir.Document, error) {
	lines := strings.Split(encoding.NormalizeNewlines(text), "\n")
	doc := &ir.Document{}

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	// Document header: title line then :key: value attributes.
	if i < len(lines) && strings.HasPrefix(lines[i], "= ") {
		doc.Title = strings.TrimSpace(lines[i][2:])
		i++
		for i < len(lines) {
			key, value, ok := parseDocAttr(lines[i])
			if !ok {
				break
			}
			ir.SetAttr(&doc.Attrs, key, value)
			i++
		}
	}

	doc.Blocks = parseBlockLines(lines[i:])
	return doc, nil
}

func parseDocAttr(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":") {
		return "", "", false
	}
	end := strings.Index(trimmed[1:], ":")
	if end < 0 {
		return "", "", false
	}
	key := trimmed[1 : 1+end]
	value := strings.TrimSpace(trimmed[2+end:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

func parseBlockLines(lines []string) []ir.Block {
	var blocks []ir.Block
	var pend pending

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			pend.reset()
			i++

		case strings.HasPrefix(trimmed, "[[") && strings.HasSuffix(trimmed, "]]"):
			pend.anchor = trimmed[2 : len(trimmed)-2]
			i++

		case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
			bare, attrs := parseAttrLine(trimmed)
			pend.bare = bare
			pend.attrs = attrs
			i++

		case strings.HasPrefix(trimmed, ".") && len(trimmed) > 1 && trimmed[1] != ' ' && trimmed[1] != '.':
			pend.caption = trimmed[1:]
			i++

		case trimmed == "----":
			block, next := parseLiteral(lines, i+1, &pend)
			blocks = append(blocks, block)
			pend.reset()
			i = next

		case trimmed == "|===":
			block, next := parseTable(lines, i+1, &pend)
			blocks = append(blocks, block)
			pend.reset()
			i = next

		case trimmed == "====":
			block, next := parseAdmonitionBlock(lines, i+1, &pend)
			blocks = append(blocks, block)
			pend.reset()
			i = next

		case trimmed == "<<<":
			br := &ir.Break{Page: true}
			pend.apply(&br.Attrs)
			blocks = append(blocks, br)
			pend.reset()
			i++

		case trimmed == "'''":
			br := &ir.Break{}
			pend.apply(&br.Attrs)
			blocks = append(blocks, br)
			pend.reset()
			i++

		case isHeadingLine(trimmed):
			blocks = append(blocks, parseHeading(trimmed, &pend))
			pend.reset()
			i++

		case isListLine(trimmed):
			start := i
			for i < len(lines) && isListLine(strings.TrimSpace(lines[i])) {
				i++
			}
			pos := 0
			items := lines[start:i]
			list := buildList(items, &pos, markerDepth(strings.TrimSpace(items[0])))
			pend.apply(&list.Attrs)
			blocks = append(blocks, list)
			pend.reset()

		case isSimpleAdmonition(trimmed):
			kind, rest, _ := strings.Cut(trimmed, ":")
			adm := &ir.Admonition{
				Kind: strings.ToLower(kind),
				Blocks: []ir.Block{
					&ir.Paragraph{Inlines: ParseInlines(strings.TrimSpace(rest))},
				},
			}
			pend.apply(&adm.Attrs)
			blocks = append(blocks, adm)
			pend.reset()
			i++

		case strings.HasPrefix(trimmed, "preserve::"):
			ref, _ := parseImageTarget(trimmed[len("preserve::"):])
			para := &ir.Paragraph{}
			pend.apply(&para.Attrs)
			ir.SetAttr(&para.Attrs, ir.AttrRef, ref)
			blocks = append(blocks, para)
			pend.reset()
			i++

		case strings.HasPrefix(trimmed, "image::"):
			ref, body := parseImageTarget(trimmed[len("image::"):])
			alt, imgAttrs := splitMacroBody(body)
			img := &ir.Image{Ref: ref, Alt: alt}
			for k, v := range imgAttrs {
				ir.SetAttr(&img.Attrs, k, v)
			}
			para := &ir.Paragraph{Inlines: []ir.Inline{img}}
			pend.apply(&para.Attrs)
			if r := ir.GetAttr(para.Attrs, ir.AttrRef); r != "" {
				// The reference belongs to the image itself.
				ir.SetAttr(&img.Attrs, ir.AttrRef, r)
				delete(para.Attrs, ir.AttrRef)
			}
			blocks = append(blocks, para)
			pend.reset()
			i++

		default:
			var textLines []string
			for i < len(lines) {
				t := strings.TrimSpace(lines[i])
				if t == "" || isStructuralLine(t) {
					break
				}
				textLines = append(textLines, t)
				i++
			}
			para := &ir.Paragraph{Inlines: ParseInlines(strings.Join(textLines, " "))}
			pend.apply(&para.Attrs)
			blocks = append(blocks, para)
			pend.reset()
		}
	}
	return blocks
}

func isStructuralLine(trimmed string) bool {
	return trimmed == "----" || trimmed == "|===" || trimmed == "====" ||
		trimmed == "<<<" || trimmed == "'''" ||
		isHeadingLine(trimmed) || isListLine(trimmed) ||
		isSimpleAdmonition(trimmed) ||
		strings.HasPrefix(trimmed, "[") ||
		strings.HasPrefix(trimmed, "image::") ||
		strings.HasPrefix(trimmed, "preserve::")
}

func isHeadingLine(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "=") {
		return false
	}
	rest := strings.TrimLeft(trimmed, "=")
	return strings.HasPrefix(rest, " ") && strings.TrimSpace(rest) != ""
}

func parseHeading(trimmed string, pend *pending) *ir.Heading {
	count := len(trimmed) - len(strings.TrimLeft(trimmed, "="))
	level := count - 1
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	text := strings.TrimSpace(trimmed[count:])
	h := &ir.Heading{Level: level, Inlines: ParseInlines(text)}
	if pend.anchor != "" {
		h.Anchor = pend.anchor
	} else {
		h.Anchor = styles.NormalizeAnchor(text)
	}
	pend.apply(&h.Attrs)
	return h
}

func isListLine(trimmed string) bool {
	return markerDepth(trimmed) > 0
}

// markerDepth returns the nesting depth of a list line, 0 for
// non-list lines.
func markerDepth(trimmed string) int {
	if trimmed == "" {
		return 0
	}
	marker := trimmed[0]
	if marker != '*' && marker != '.' {
		return 0
	}
	depth := 0
	for depth < len(trimmed) && trimmed[depth] == marker {
		depth++
	}
	if depth >= len(trimmed) || trimmed[depth] != ' ' {
		return 0
	}
	return depth
}

func buildList(lines []string, pos *int, depth int) *ir.List {
	first := strings.TrimSpace(lines[*pos])
	list := &ir.List{Ordered: first[0] == '.'}

	for *pos < len(lines) {
		trimmed := strings.TrimSpace(lines[*pos])
		lvl := markerDepth(trimmed)
		if lvl == 0 || lvl < depth {
			break
		}
		if lvl == depth {
			text := strings.TrimSpace(trimmed[lvl:])
			list.Items = append(list.Items, &ir.ListItem{
				Blocks: []ir.Block{&ir.Paragraph{Inlines: ParseInlines(text)}},
			})
			*pos++
			continue
		}
		// Deeper marker: nest under the last item.
		sub := buildList(lines, pos, lvl)
		if len(list.Items) == 0 {
			list.Items = append(list.Items, &ir.ListItem{})
		}
		last := list.Items[len(list.Items)-1]
		last.Blocks = append(last.Blocks, sub)
	}
	return list
}

func isSimpleAdmonition(trimmed string) bool {
	kind, _, found := strings.Cut(trimmed, ":")
	return found && admonitionKinds[kind]
}

func parseAttrLine(trimmed string) ([]string, map[string]string) {
	inner := trimmed[1 : len(trimmed)-1]
	var bare []string
	attrs := make(map[string]string)
	for _, part := range splitAttrParts(inner) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if key, value, found := strings.Cut(part, "="); found {
			attrs[key] = strings.Trim(value, `"`)
		} else {
			bare = append(bare, part)
		}
	}
	return bare, attrs
}

// splitAttrParts splits an attribute list on commas, honoring quoted
// values like cols="1,2,1".
func splitAttrParts(s string) []string {
	var parts []string
	var b strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			b.WriteRune(r)
		case r == ',' && !quoted:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	parts = append(parts, b.String())
	return parts
}

func parseLiteral(lines []string, start int, pend *pending) (ir.Block, int) {
	var content []string
	i := start
	for i < len(lines) && strings.TrimSpace(lines[i]) != "----" {
		content = append(content, lines[i])
		i++
	}
	if i < len(lines) {
		i++ // closing fence
	}
	lit := &ir.Literal{Content: strings.Join(content, "\n") + "\n"}
	if len(content) == 0 {
		lit.Content = ""
	}
	if pend.bareIs("source") && len(pend.bare) > 1 {
		lit.Language = pend.bare[1]
	}
	pend.apply(&lit.Attrs, "source", lit.Language)
	return lit, i
}

func parseTable(lines []string, start int, pend *pending) (ir.Block, int) {
	cols := 1
	if spec, ok := pend.attrs["cols"]; ok {
		cols = len(strings.Split(strings.Trim(spec, `"`), ","))
	}
	header := strings.Contains(pend.attrs["options"], "header")

	table := &ir.Table{Caption: pend.caption}
	pend.apply(&table.Attrs)

	var row *ir.TableRow
	width := 0
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "|===" {
			i++
			break
		}
		if trimmed == "" {
			// A blank line closes the row regardless of its width.
			if row != nil {
				table.Rows = append(table.Rows, row)
				row = nil
				width = 0
			}
			i++
			continue
		}
		span := 1
		cellSrc := trimmed
		if plus := strings.Index(cellSrc, "+|"); plus > 0 {
			if n, err := strconv.Atoi(cellSrc[:plus]); err == nil && n > 0 {
				span = n
				cellSrc = cellSrc[plus+1:]
			}
		}
		if !strings.HasPrefix(cellSrc, "|") {
			i++
			continue
		}
		text := strings.TrimSpace(cellSrc[1:])

		if row == nil {
			row = &ir.TableRow{Header: header && len(table.Rows) == 0}
		}
		cell := &ir.TableCell{Span: span}
		if text != "" {
			cell.Blocks = []ir.Block{&ir.Paragraph{Inlines: ParseInlines(text)}}
		}
		row.Cells = append(row.Cells, cell)
		width += span
		if width >= cols {
			table.Rows = append(table.Rows, row)
			row = nil
			width = 0
		}
		i++
	}
	if row != nil {
		table.Rows = append(table.Rows, row)
	}
	return table, i
}

func parseAdmonitionBlock(lines []string, start int, pend *pending) (ir.Block, int) {
	var inner []string
	i := start
	for i < len(lines) && strings.TrimSpace(lines[i]) != "====" {
		inner = append(inner, lines[i])
		i++
	}
	if i < len(lines) {
		i++ // closing fence
	}

	kind := "note"
	for _, token := range pend.bare {
		if admonitionKinds[token] {
			kind = strings.ToLower(token)
		}
	}
	adm := &ir.Admonition{
		Kind:   kind,
		Title:  pend.caption,
		Blocks: parseBlockLines(inner),
	}
	pend.apply(&adm.Attrs)
	return adm, i
}

func parseImageTarget(s string) (string, string) {
	open := strings.Index(s, "[")
	if open < 0 {
		return strings.TrimSpace(s), ""
	}
	ref := s[:open]
	alt := s[open+1:]
	if end := strings.LastIndex(alt, "]"); end >= 0 {
		alt = alt[:end]
	}
	return ref, alt
}
