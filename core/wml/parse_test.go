package wml

import (
	"errors"
	"strings"
	"testing"

	dlerrors "github.com/FocuswithJustin/DocLoom/core/errors"
)

const nsAttrs = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`

func wrapBody(inner string) string {
	return `<?xml version="1.0"?><w:document ` + nsAttrs + `><w:body>` + inner + `</w:body></w:document>`
}

func mustParseDoc(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := ParseDocument(content)
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}
	return doc
}

func TestParseParagraphWithFormatting(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p>
  <w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
  <w:r><w:t>Plain </w:t></w:r>
  <w:r><w:rPr><w:b/></w:rPr><w:t>bold</w:t></w:r>
  <w:r><w:rPr><w:i/></w:rPr><w:t> italic</w:t></w:r>
  <w:r><w:rPr><w:b w:val="0"/></w:rPr><w:t> unbold</w:t></w:r>
</w:p>`))

	paras := doc.Paragraphs()
	if len(paras) != 1 {
		t.Fatalf("paragraphs = %d, want 1", len(paras))
	}
	p := paras[0]
	if p.StyleID != "Heading1" {
		t.Errorf("StyleID = %q, want Heading1", p.StyleID)
	}
	if got := p.Text(); got != "Plain bold italic unbold" {
		t.Errorf("Text() = %q", got)
	}

	runs := make([]*Run, 0)
	for _, c := range p.Children {
		if r, ok := c.(*Run); ok {
			runs = append(runs, r)
		}
	}
	if len(runs) != 4 {
		t.Fatalf("runs = %d, want 4", len(runs))
	}
	if runs[0].Bold || runs[0].Italic {
		t.Error("first run should be unformatted")
	}
	if !runs[1].Bold {
		t.Error("second run should be bold")
	}
	if !runs[2].Italic {
		t.Error("third run should be italic")
	}
	if runs[3].Bold {
		t.Error(`w:b w:val="0" should negate bold`)
	}
}

func TestMonospaceFontDetection(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p><w:r><w:rPr><w:rFonts w:ascii="Courier New"/></w:rPr><w:t>code</w:t></w:r></w:p>`))
	run := doc.Paragraphs()[0].Children[0].(*Run)
	if !run.Monospace {
		t.Error("Courier New run should be monospace")
	}
}

func TestSourceOrderPreserved(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p><w:r><w:t>first</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:t>last</w:t></w:r></w:p>`))

	if len(doc.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(doc.Blocks))
	}
	if _, ok := doc.Blocks[0].(*Paragraph); !ok {
		t.Errorf("block 0 = %T, want *Paragraph", doc.Blocks[0])
	}
	if _, ok := doc.Blocks[1].(*Table); !ok {
		t.Errorf("block 1 = %T, want *Table", doc.Blocks[1])
	}
	if got := doc.PlainText(); got != "first\ncell\nlast" {
		t.Errorf("PlainText() = %q, want %q", got, "first\ncell\nlast")
	}
}

func TestHyperlinks(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p>
  <w:hyperlink r:id="rId7"><w:r><w:t>external</w:t></w:r></w:hyperlink>
  <w:hyperlink w:anchor="section-2"><w:r><w:t>internal</w:t></w:r></w:hyperlink>
</w:p>`))

	p := doc.Paragraphs()[0]
	if len(p.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(p.Children))
	}
	ext := p.Children[0].(*Hyperlink)
	if ext.RelID != "rId7" || ext.Anchor != "" {
		t.Errorf("external link = %+v", ext)
	}
	if len(ext.Runs) != 1 || ext.Runs[0].Text != "external" {
		t.Errorf("external link runs = %+v", ext.Runs)
	}
	internal := p.Children[1].(*Hyperlink)
	if internal.Anchor != "section-2" || internal.RelID != "" {
		t.Errorf("internal link = %+v", internal)
	}
}

func TestFieldCodesExcludedFromText(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p>
  <w:r><w:t>before </w:t></w:r>
  <w:r><w:fldChar w:fldCharType="begin"/></w:r>
  <w:r><w:instrText> PAGE </w:instrText></w:r>
  <w:r><w:fldChar w:fldCharType="end"/></w:r>
  <w:r><w:t> after</w:t></w:r>
</w:p>`))

	p := doc.Paragraphs()[0]
	if got := p.Text(); got != "before  after" {
		t.Errorf("Text() = %q, field instruction must not leak into text", got)
	}

	var fields []*Field
	for _, c := range p.Children {
		if f, ok := c.(*Field); ok {
			fields = append(fields, f)
		}
	}
	if len(fields) != 1 {
		t.Fatalf("fields = %d, want 1 merged field", len(fields))
	}
	if fields[0].Instr != "PAGE" {
		t.Errorf("Instr = %q, want PAGE", fields[0].Instr)
	}
	if !strings.Contains(fields[0].XML, "fldChar") {
		t.Error("field XML should capture the raw run sequence")
	}
}

func TestNumberingProps(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p>
  <w:pPr><w:numPr><w:ilvl w:val="1"/><w:numId w:val="3"/></w:numPr></w:pPr>
  <w:r><w:t>item</w:t></w:r>
</w:p>`))

	p := doc.Paragraphs()[0]
	if !p.IsListItem() {
		t.Fatal("paragraph with numPr should be a list item")
	}
	if p.NumID != "3" || p.NumLevel != 1 {
		t.Errorf("NumID=%q NumLevel=%d, want 3/1", p.NumID, p.NumLevel)
	}
}

func TestTableStructure(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:tbl>
  <w:tblPr><w:tblStyle w:val="GridTable"/></w:tblPr>
  <w:tr>
    <w:trPr><w:tblHeader/></w:trPr>
    <w:tc><w:p><w:r><w:t>H1</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>H2</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc>
      <w:tcPr><w:gridSpan w:val="2"/></w:tcPr>
      <w:p><w:r><w:t>span</w:t></w:r></w:p>
    </w:tc>
  </w:tr>
</w:tbl>`))

	tbl, ok := doc.Blocks[0].(*Table)
	if !ok {
		t.Fatalf("block = %T, want *Table", doc.Blocks[0])
	}
	if tbl.StyleID != "GridTable" {
		t.Errorf("StyleID = %q, want GridTable", tbl.StyleID)
	}
	if tbl.Complex {
		t.Error("style-only tblPr should not be complex")
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
	if !tbl.Rows[0].Header {
		t.Error("first row should be a header row")
	}
	if tbl.Rows[1].Cells[0].GridSpan != 2 {
		t.Errorf("GridSpan = %d, want 2", tbl.Rows[1].Cells[0].GridSpan)
	}
}

func TestTableVMergeAndComplexProps(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:tbl>
  <w:tblPr><w:tblStyle w:val="T"/><w:tblpPr w:vertAnchor="page"/></w:tblPr>
  <w:tr><w:tc><w:tcPr><w:vMerge w:val="restart"/></w:tcPr><w:p><w:r><w:t>a</w:t></w:r></w:p></w:tc></w:tr>
  <w:tr><w:tc><w:tcPr><w:vMerge/></w:tcPr><w:p/></w:tc></w:tr>
</w:tbl>`))

	tbl := doc.Blocks[0].(*Table)
	if !tbl.Complex {
		t.Error("floating-position tblPr should mark the table complex")
	}
	if tbl.Rows[0].Cells[0].VMerge != "restart" {
		t.Errorf("VMerge = %q, want restart", tbl.Rows[0].Cells[0].VMerge)
	}
	if tbl.Rows[1].Cells[0].VMerge != "continue" {
		t.Errorf("bare vMerge = %q, want continue", tbl.Rows[1].Cells[0].VMerge)
	}
}

func TestNestedTable(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:tbl><w:tr><w:tc>
  <w:tbl><w:tr><w:tc><w:p><w:r><w:t>inner</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
  <w:p><w:r><w:t>outer</w:t></w:r></w:p>
</w:tc></w:tr></w:tbl>`))

	cell := doc.Blocks[0].(*Table).Rows[0].Cells[0]
	if len(cell.Blocks) != 2 {
		t.Fatalf("cell blocks = %d, want 2", len(cell.Blocks))
	}
	if _, ok := cell.Blocks[0].(*Table); !ok {
		t.Errorf("nested block 0 = %T, want *Table (order preserved)", cell.Blocks[0])
	}
}

func TestDrawing(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p><w:r><w:drawing>
  <wp:inline>
    <wp:docPr id="1" name="Picture 1" descr="A chart"/>
    <a:blip r:embed="rId9"/>
  </wp:inline>
</w:drawing></w:r></w:p>`))

	p := doc.Paragraphs()[0]
	d, ok := p.Children[0].(*Drawing)
	if !ok {
		t.Fatalf("child = %T, want *Drawing", p.Children[0])
	}
	if d.RelID != "rId9" {
		t.Errorf("RelID = %q, want rId9", d.RelID)
	}
	if d.Alt != "A chart" {
		t.Errorf("Alt = %q, want descr text", d.Alt)
	}
	if !strings.Contains(d.XML, "blip") {
		t.Error("drawing XML should be captured verbatim")
	}
}

func TestDrawingTextBox(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p><w:r><w:drawing>
  <wp:anchor>
    <w:txbxContent><w:p><w:r><w:t>boxed text</w:t></w:r></w:p></w:txbxContent>
  </wp:anchor>
</w:drawing></w:r></w:p>`))

	d := doc.Paragraphs()[0].Children[0].(*Drawing)
	if len(d.TextBlocks) != 1 {
		t.Fatalf("TextBlocks = %d, want 1", len(d.TextBlocks))
	}
	if got := d.TextBlocks[0].(*Paragraph).Text(); got != "boxed text" {
		t.Errorf("text box content = %q", got)
	}
}

func TestBreaks(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p><w:r><w:t>a</w:t><w:br w:type="page"/><w:t>b</w:t></w:r></w:p>
<w:p><w:pPr><w:sectPr/></w:pPr></w:p>`))

	p := doc.Paragraphs()[0]
	if len(p.Children) != 3 {
		t.Fatalf("children = %d, want run/break/run", len(p.Children))
	}
	br, ok := p.Children[1].(*Break)
	if !ok || !br.Page {
		t.Errorf("child 1 = %+v, want page break", p.Children[1])
	}
	if !doc.Paragraphs()[1].SectionBreak {
		t.Error("paragraph with pPr/sectPr should flag a section break")
	}
}

func TestBookmarks(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p><w:bookmarkStart w:id="0" w:name="_Toc100"/><w:r><w:t>Heading</w:t></w:r><w:bookmarkEnd w:id="0"/></w:p>`))

	p := doc.Paragraphs()[0]
	bm, ok := p.Children[0].(*Bookmark)
	if !ok {
		t.Fatalf("child 0 = %T, want *Bookmark", p.Children[0])
	}
	if bm.Name != "_Toc100" {
		t.Errorf("Name = %q, want _Toc100", bm.Name)
	}
}

func TestUnknownElementCaptured(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:sdt><w:sdtContent><w:p/></w:sdtContent></w:sdt>
<w:p><w:r><w:t>normal</w:t></w:r></w:p>`))

	unknown, ok := doc.Blocks[0].(*Unknown)
	if !ok {
		t.Fatalf("block 0 = %T, want *Unknown", doc.Blocks[0])
	}
	if unknown.Name != "w:sdt" {
		t.Errorf("Name = %q, want w:sdt", unknown.Name)
	}
	if !strings.Contains(unknown.XML, "sdtContent") {
		t.Error("unknown XML should be captured verbatim")
	}
}

func TestTabAndSpecialChars(t *testing.T) {
	doc := mustParseDoc(t, wrapBody(`
<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:noBreakHyphen/><w:t>c</w:t></w:r></w:p>`))
	if got := doc.Paragraphs()[0].Text(); got != "a\tb-c" {
		t.Errorf("Text() = %q, want %q", got, "a\tb-c")
	}
}

func TestParseMalformedDocument(t *testing.T) {
	_, err := ParseDocument(`<w:document xmlns:w="ns"><w:body><w:p>`)
	if err == nil {
		t.Fatal("truncated document should fail")
	}
	var mce *dlerrors.MalformedContentError
	if !errors.As(err, &mce) {
		t.Fatalf("error = %T, want *MalformedContentError", err)
	}
	if mce.Part != "word/document.xml" {
		t.Errorf("Part = %q", mce.Part)
	}

	if _, err := ParseDocument(`<w:document xmlns:w="ns"/>`); err == nil {
		t.Error("document without body should fail")
	}
}
