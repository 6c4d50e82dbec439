package wml

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/DocLoom/core/errors"
	"github.com/FocuswithJustin/DocLoom/core/styles"
	"github.com/FocuswithJustin/DocLoom/core/xml"
)

const documentPart = "word/document.xml"

// standardTableProps are the tblPr children that carry only visual
// defaults; anything else marks the table as complex.
var standardTableProps = map[string]bool{
	"tblStyle":   true,
	"tblW":       true,
	"tblLook":    true,
	"tblInd":     true,
	"tblBorders": true,
	"tblCellMar": true,
	"jc":         true,
}

// ParseDocument parses a document part into the block model.
func ParseDocument(content string) (*Document, error) {
	doc, err := xml.ParseString(content)
	if err != nil {
		v := xml.Validate([]byte(content))
		return nil, errors.NewMalformed(documentPart, v.Offset, err.Error())
	}
	root := doc.Root()
	if root == nil || !root.Is("w", "document") {
		return nil, errors.NewMalformed(documentPart, -1, "missing w:document root element")
	}
	body := root.Child("w", "body")
	if body == nil {
		return nil, errors.NewMalformed(documentPart, -1, "missing w:body element")
	}
	return &Document{Blocks: parseBlocks(body.Children())}, nil
}

func parseBlocks(nodes []*xml.Node) []Block {
	var blocks []Block
	for _, node := range nodes {
		switch {
		case node.Is("w", "p"):
			blocks = append(blocks, parseParagraph(node))
		case node.Is("w", "tbl"):
			blocks = append(blocks, parseTable(node))
		case node.Is("w", "sectPr"):
			// Trailing body-level section properties, not content.
		default:
			blocks = append(blocks, &Unknown{
				Name: qualifiedName(node),
				XML:  node.OuterXML(),
			})
		}
	}
	return blocks
}

func qualifiedName(node *xml.Node) string {
	if node.Prefix() != "" {
		return node.Prefix() + ":" + node.Name()
	}
	return node.Name()
}

func parseParagraph(node *xml.Node) *Paragraph {
	p := &Paragraph{NumLevel: 0}
	for _, child := range node.Children() {
		switch {
		case child.Is("w", "pPr"):
			parseParagraphProps(child, p)
		case child.Is("w", "r"):
			p.Children = append(p.Children, parseRun(child)...)
		case child.Is("w", "hyperlink"):
			p.Children = append(p.Children, parseHyperlink(child))
		case child.Is("w", "bookmarkStart"):
			if name, ok := child.AttrNS("w", "name"); ok && name != "" {
				p.Children = append(p.Children, &Bookmark{Name: name})
			}
		case child.Is("w", "bookmarkEnd"), child.Is("w", "proofErr"):
			// Markers with no content.
		case child.Is("w", "fldSimple"):
			instr, _ := child.AttrNS("w", "instr")
			p.Children = append(p.Children, &Field{Instr: strings.TrimSpace(instr), XML: child.OuterXML()})
		default:
			p.Children = append(p.Children, &Unknown{
				Name: qualifiedName(child),
				XML:  child.OuterXML(),
			})
		}
	}
	p.Children = mergeFields(p.Children)
	return p
}

func parseParagraphProps(pPr *xml.Node, p *Paragraph) {
	if style := pPr.Child("w", "pStyle"); style != nil {
		p.StyleID, _ = style.AttrNS("w", "val")
	}
	if numPr := pPr.Child("w", "numPr"); numPr != nil {
		if numID := numPr.Child("w", "numId"); numID != nil {
			p.NumID, _ = numID.AttrNS("w", "val")
		}
		if ilvl := numPr.Child("w", "ilvl"); ilvl != nil {
			if val, ok := ilvl.AttrNS("w", "val"); ok {
				if n, err := strconv.Atoi(val); err == nil {
					p.NumLevel = n
				}
			}
		}
	}
	if pPr.HasChild("w", "sectPr") {
		p.SectionBreak = true
	}
}

// isFieldRun reports whether a run belongs to a field-code sequence.
func isFieldRun(node *xml.Node) bool {
	return node.HasChild("w", "instrText") || node.HasChild("w", "fldChar")
}

func parseRun(node *xml.Node) []Content {
	if isFieldRun(node) {
		var instr strings.Builder
		for _, child := range node.Children() {
			if child.Is("w", "instrText") {
				instr.WriteString(child.InnerText())
			}
		}
		return []Content{&Field{Instr: strings.TrimSpace(instr.String()), XML: node.OuterXML()}}
	}

	proto := Run{}
	if rPr := node.Child("w", "rPr"); rPr != nil {
		proto.Bold = toggleOn(rPr.Child("w", "b"))
		proto.Italic = toggleOn(rPr.Child("w", "i"))
		if style := rPr.Child("w", "rStyle"); style != nil {
			proto.StyleID, _ = style.AttrNS("w", "val")
		}
		if fonts := rPr.Child("w", "rFonts"); fonts != nil {
			if ascii, ok := fonts.AttrNS("w", "ascii"); ok && styles.IsMonospaceFont(ascii) {
				proto.Monospace = true
			}
		}
	}

	var result []Content
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			run := proto
			run.Text = text.String()
			result = append(result, &run)
			text.Reset()
		}
	}

	for _, child := range node.Children() {
		switch {
		case child.Is("w", "t"):
			text.WriteString(child.InnerText())
		case child.Is("w", "tab"):
			text.WriteString("\t")
		case child.Is("w", "noBreakHyphen"):
			text.WriteString("-")
		case child.Is("w", "br"):
			flush()
			brType, _ := child.AttrNS("w", "type")
			result = append(result, &Break{Page: brType == "page"})
		case child.Is("w", "cr"):
			flush()
			result = append(result, &Break{})
		case child.Is("w", "drawing"):
			flush()
			result = append(result, parseDrawing(child))
		}
	}
	flush()
	return result
}

// toggleOn interprets a w:val toggle attribute: element absent means
// off, element present without value means on, "0"/"false" mean off.
func toggleOn(n *xml.Node) bool {
	if n == nil {
		return false
	}
	val, ok := n.AttrNS("w", "val")
	if !ok {
		return true
	}
	return val != "0" && val != "false"
}

func parseHyperlink(node *xml.Node) *Hyperlink {
	h := &Hyperlink{}
	h.RelID, _ = node.AttrNS("r", "id")
	h.Anchor, _ = node.AttrNS("w", "anchor")
	for _, child := range node.Children() {
		if !child.Is("w", "r") {
			continue
		}
		for _, c := range parseRun(child) {
			if run, ok := c.(*Run); ok {
				h.Runs = append(h.Runs, run)
			}
		}
	}
	return h
}

func parseDrawing(node *xml.Node) *Drawing {
	d := &Drawing{XML: node.OuterXML()}
	if blip := findDescendant(node, "a", "blip"); blip != nil {
		if id, ok := blip.AttrNS("r", "embed"); ok {
			d.RelID = id
		} else if id, ok := blip.AttrNS("r", "link"); ok {
			d.RelID = id
		}
	}
	if docPr := findDescendant(node, "wp", "docPr"); docPr != nil {
		if descr := docPr.Attr("descr"); descr != "" {
			d.Alt = descr
		} else {
			d.Alt = docPr.Attr("name")
		}
	}
	if txbx := findDescendant(node, "w", "txbxContent"); txbx != nil {
		d.TextBlocks = parseBlocks(txbx.Children())
	}
	return d
}

// findDescendant walks the subtree depth-first for the first element
// with the given prefix and local name.
func findDescendant(node *xml.Node, prefix, local string) *xml.Node {
	for _, child := range node.Children() {
		if child.Is(prefix, local) {
			return child
		}
		if found := findDescendant(child, prefix, local); found != nil {
			return found
		}
	}
	return nil
}

func parseTable(node *xml.Node) *Table {
	t := &Table{}
	if tblPr := node.Child("w", "tblPr"); tblPr != nil {
		t.RawProps = tblPr.OuterXML()
		if style := tblPr.Child("w", "tblStyle"); style != nil {
			t.StyleID, _ = style.AttrNS("w", "val")
		}
		for _, prop := range tblPr.Children() {
			if prop.Prefix() == "w" && !standardTableProps[prop.Name()] {
				t.Complex = true
				break
			}
		}
	}
	for _, child := range node.Children() {
		if !child.Is("w", "tr") {
			continue
		}
		t.Rows = append(t.Rows, parseRow(child))
	}
	return t
}

func parseRow(node *xml.Node) *Row {
	row := &Row{}
	if trPr := node.Child("w", "trPr"); trPr != nil {
		row.Header = trPr.HasChild("w", "tblHeader")
	}
	for _, child := range node.Children() {
		if !child.Is("w", "tc") {
			continue
		}
		row.Cells = append(row.Cells, parseCell(child))
	}
	return row
}

func parseCell(node *xml.Node) *Cell {
	cell := &Cell{GridSpan: 1}
	var content []*xml.Node
	for _, child := range node.Children() {
		if child.Is("w", "tcPr") {
			if span := child.Child("w", "gridSpan"); span != nil {
				if val, ok := span.AttrNS("w", "val"); ok {
					if n, err := strconv.Atoi(val); err == nil && n > 1 {
						cell.GridSpan = n
					}
				}
			}
			if merge := child.Child("w", "vMerge"); merge != nil {
				if val, ok := merge.AttrNS("w", "val"); ok {
					cell.VMerge = val
				} else {
					cell.VMerge = "continue"
				}
			}
			continue
		}
		content = append(content, child)
	}
	cell.Blocks = parseBlocks(content)
	return cell
}

// mergeFields coalesces consecutive field fragments, which a fldChar
// begin/end pair spreads over several runs, into one field node.
func mergeFields(children []Content) []Content {
	var result []Content
	for _, c := range children {
		field, ok := c.(*Field)
		if !ok {
			result = append(result, c)
			continue
		}
		if len(result) > 0 {
			if prev, ok := result[len(result)-1].(*Field); ok {
				if field.Instr != "" {
					if prev.Instr != "" {
						prev.Instr += " "
					}
					prev.Instr += field.Instr
				}
				prev.XML += field.XML
				continue
			}
		}
		result = append(result, field)
	}
	return result
}
