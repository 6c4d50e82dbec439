package extract

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/DocLoom/core/ir"
	"github.com/FocuswithJustin/DocLoom/core/manifest"
	"github.com/FocuswithJustin/DocLoom/core/rels"
	"github.com/FocuswithJustin/DocLoom/core/styles"
	"github.com/FocuswithJustin/DocLoom/core/wml"
)

const testStylesXML = `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:style w:type="paragraph" w:styleId="Normal" w:default="1"><w:name w:val="Normal"/></w:style>
  <w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/></w:style>
  <w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="Heading 1"/></w:style>
  <w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="Heading 2"/></w:style>
  <w:style w:type="paragraph" w:styleId="CodeBlock"><w:name w:val="Code Block"/><w:rPr><w:rFonts w:ascii="Consolas"/></w:rPr></w:style>
  <w:style w:type="paragraph" w:styleId="ListNumber"><w:name w:val="List Number"/></w:style>
  <w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/></w:style>
</w:styles>`

const testDocPrefix = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
  xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
  xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><w:body>`

const testDocSuffix = `</w:body></w:document>`

type fakeSource struct {
	doc   *wml.Document
	sheet *styles.Sheet
	rels  *rels.Relationships
	notes []string
}

func (s *fakeSource) Blocks() ([]wml.Block, error) { return s.doc.Blocks, nil }
func (s *fakeSource) Styles() *styles.Sheet        { return s.sheet }
func (s *fakeSource) Rels() *rels.Relationships    { return s.rels }
func (s *fakeSource) Notes() []string              { return s.notes }

func newFakeSource(t *testing.T, body string) *fakeSource {
	t.Helper()
	doc, err := wml.ParseDocument(testDocPrefix + body + testDocSuffix)
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}
	sheet, err := styles.ParseStyles(testStylesXML)
	if err != nil {
		t.Fatalf("ParseStyles() error: %v", err)
	}
	return &fakeSource{doc: doc, sheet: sheet, rels: rels.New()}
}

func extractBody(t *testing.T, body string) *Result {
	t.Helper()
	res, err := Extract(newFakeSource(t, body), DefaultOptions())
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	return res
}

func TestExtractHeadingsBoldAndTable(t *testing.T) {
	body := `
<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Report</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Findings</w:t></w:r></w:p>
<w:p><w:r><w:t>The result is </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>significant</w:t></w:r><w:r><w:t>.</w:t></w:r></w:p>
<w:tbl>
  <w:tr><w:trPr><w:tblHeader/></w:trPr><w:tc><w:p><w:r><w:t>Metric</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Value</w:t></w:r></w:p></w:tc></w:tr>
  <w:tr><w:tc><w:p><w:r><w:t>latency</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>3ms</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>`
	res := extractBody(t, body)

	if res.Doc.Title != "Report" {
		t.Errorf("Title = %q, want Report", res.Doc.Title)
	}
	if len(res.Doc.Blocks) != 3 {
		t.Fatalf("blocks = %d, want heading + paragraph + table", len(res.Doc.Blocks))
	}

	h, ok := res.Doc.Blocks[0].(*ir.Heading)
	if !ok || h.Level != 1 {
		t.Fatalf("block 0 = %#v, want level-1 heading", res.Doc.Blocks[0])
	}
	if h.Anchor != "findings" {
		t.Errorf("Anchor = %q, want findings", h.Anchor)
	}

	para := res.Doc.Blocks[1].(*ir.Paragraph)
	if len(para.Inlines) != 3 {
		t.Fatalf("paragraph inlines = %d, want 3", len(para.Inlines))
	}
	bold, ok := para.Inlines[1].(*ir.Format)
	if !ok || bold.Kind != ir.FormatBold {
		t.Errorf("inline 1 = %#v, want bold span", para.Inlines[1])
	}

	table := res.Doc.Blocks[2].(*ir.Table)
	if len(table.Rows) != 2 || !table.Rows[0].Header || table.Rows[1].Header {
		t.Errorf("table rows = %+v, want header then body row", table.Rows)
	}

	if res.Ledger.Class != ir.ClassL1 {
		t.Errorf("Class = %s, want L1: %s", res.Ledger.Class, res.Ledger.Summary())
	}
	if !strings.Contains(res.Markup, "= Report") || !strings.Contains(res.Markup, "== Findings") {
		t.Errorf("Markup = %q, missing title or heading", res.Markup)
	}
	if !strings.Contains(res.Markup, "*significant*") {
		t.Errorf("Markup = %q, missing bold span", res.Markup)
	}
}

func TestExtractFormattedTitle(t *testing.T) {
	body := `
<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>The </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>Annual</w:t></w:r><w:r><w:t> Report</w:t></w:r></w:p>`
	res := extractBody(t, body)

	if res.Doc.Title != "The *Annual* Report" {
		t.Errorf("Title = %q, want formatting kept in dialect form", res.Doc.Title)
	}
	if !strings.Contains(res.Markup, "= The *Annual* Report") {
		t.Errorf("Markup = %q, missing formatted title line", res.Markup)
	}
}

func TestExtractMidParagraphPageBreak(t *testing.T) {
	body := `
<w:p><w:r><w:t>before</w:t><w:br w:type="page"/><w:t>after</w:t></w:r></w:p>`
	res := extractBody(t, body)

	if len(res.Doc.Blocks) != 3 {
		t.Fatalf("blocks = %d, want paragraph + break + paragraph", len(res.Doc.Blocks))
	}
	first := res.Doc.Blocks[0].(*ir.Paragraph)
	if got := ir.PlainText(first.Inlines); got != "before" {
		t.Errorf("block 0 text = %q, want before", got)
	}
	br := res.Doc.Blocks[1].(*ir.Break)
	if !br.Page {
		t.Error("block 1 should be a page break")
	}
	second := res.Doc.Blocks[2].(*ir.Paragraph)
	if got := ir.PlainText(second.Inlines); got != "after" {
		t.Errorf("block 2 text = %q, want after", got)
	}
}

func TestExtractDrawingPreservedInManifest(t *testing.T) {
	body := `
<w:p><w:r><w:t>Figure follows.</w:t></w:r></w:p>
<w:p><w:r><w:drawing><wp:inline><wp:docPr id="1" name="fig1" descr="system diagram"/><a:blip r:embed="rId5"/></wp:inline></w:drawing></w:r></w:p>`
	src := newFakeSource(t, body)
	for i := 1; i <= 4; i++ {
		src.rels.Add(rels.TypeImage, "media/pad.png")
	}
	src.rels.Add(rels.TypeImage, "media/image1.png")

	res, err := Extract(src, DefaultOptions())
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if res.Manifest.Len() != 1 {
		t.Fatalf("manifest elements = %d, want 1", res.Manifest.Len())
	}
	id := res.Manifest.IDs()[0]
	meta, _ := res.Manifest.Get(id)
	if meta.Type != manifest.TypeDrawing {
		t.Errorf("Type = %q, want %q", meta.Type, manifest.TypeDrawing)
	}
	if !strings.Contains(meta.Raw, "r:embed=\"rId5\"") {
		t.Errorf("Raw = %q, must carry the drawing verbatim", meta.Raw)
	}
	if err := res.Manifest.Verify(id, meta.Raw); err != nil {
		t.Errorf("Verify() error: %v", err)
	}

	refs := ir.BlockRefs(res.Doc.Blocks)
	if len(refs) != 1 || refs[0] != id {
		t.Errorf("refs = %v, want exactly [%s]", refs, id)
	}
	if !strings.Contains(res.Markup, "image:") {
		t.Errorf("Markup = %q, missing image macro", res.Markup)
	}
}

func TestExtractDanglingHyperlinkDegrades(t *testing.T) {
	body := `<w:p><w:r><w:t>see </w:t></w:r><w:hyperlink r:id="rId9"><w:r><w:t>the appendix</w:t></w:r></w:hyperlink></w:p>`
	res := extractBody(t, body)

	para := res.Doc.Blocks[0].(*ir.Paragraph)
	link, ok := para.Inlines[1].(*ir.Link)
	if !ok {
		t.Fatalf("inline 1 = %#v, want link", para.Inlines[1])
	}
	if link.Target != "#rId9" {
		t.Errorf("Target = %q, want #rId9", link.Target)
	}
	if got := ir.PlainText(link.Inlines); got != "the appendix" {
		t.Errorf("link text = %q, want preserved label", got)
	}

	if res.Ledger.Class != ir.ClassL2 {
		t.Errorf("Class = %s, want L2", res.Ledger.Class)
	}
	found := false
	for _, d := range res.Ledger.Diagnostics {
		if d.Code == ir.CodeRelationshipMissing {
			found = true
		}
	}
	if !found {
		t.Error("missing relationship diagnostic not recorded")
	}
}

func TestExtractResolvedHyperlink(t *testing.T) {
	body := `<w:p><w:hyperlink r:id="rId1"><w:r><w:t>docs</w:t></w:r></w:hyperlink></w:p>`
	src := newFakeSource(t, body)
	src.rels.AddExternal(rels.TypeHyperlink, "https://example.com/docs")

	res, err := Extract(src, DefaultOptions())
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	para := res.Doc.Blocks[0].(*ir.Paragraph)
	link := para.Inlines[0].(*ir.Link)
	if link.Target != "https://example.com/docs" || link.Internal {
		t.Errorf("link = %+v, want resolved external target", link)
	}
	if res.Ledger.Class != ir.ClassL1 {
		t.Errorf("Class = %s, want L1", res.Ledger.Class)
	}
}

func TestExtractFieldExcludedButPreserved(t *testing.T) {
	body := `<w:p><w:r><w:t>Page </w:t></w:r><w:fldSimple w:instr=" PAGE "><w:r><w:t>1</w:t></w:r></w:fldSimple></w:p>`
	res := extractBody(t, body)

	para := res.Doc.Blocks[0].(*ir.Paragraph)
	if got := ir.PlainText(para.Inlines); got != "Page " {
		t.Errorf("text = %q, field result must not leak into text", got)
	}
	if res.Manifest.Len() != 1 {
		t.Fatalf("manifest elements = %d, want field entry", res.Manifest.Len())
	}
	if len(res.Doc.Blocks) != 2 {
		t.Fatalf("blocks = %d, want paragraph + placeholder", len(res.Doc.Blocks))
	}
	placeholder := res.Doc.Blocks[1].(*ir.Paragraph)
	if ir.GetAttr(placeholder.Attrs, ir.AttrRef) == "" {
		t.Error("placeholder carries no manifest ref")
	}
	if res.Ledger.Counts["field"].Degraded != 1 {
		t.Errorf("field tally = %+v, want one degraded", res.Ledger.Counts["field"])
	}
}

func TestExtractCodeParagraphsCoalesce(t *testing.T) {
	body := `
<w:p><w:pPr><w:pStyle w:val="CodeBlock"/></w:pPr><w:r><w:t>x := 1</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="CodeBlock"/></w:pPr><w:r><w:t>y := 2</w:t></w:r></w:p>
<w:p><w:r><w:t>after</w:t></w:r></w:p>`
	res := extractBody(t, body)

	if len(res.Doc.Blocks) != 2 {
		t.Fatalf("blocks = %d, want literal + paragraph", len(res.Doc.Blocks))
	}
	lit, ok := res.Doc.Blocks[0].(*ir.Literal)
	if !ok {
		t.Fatalf("block 0 = %T, want *Literal", res.Doc.Blocks[0])
	}
	if lit.Content != "x := 1\ny := 2\n" {
		t.Errorf("Content = %q", lit.Content)
	}
}

func TestExtractLists(t *testing.T) {
	body := `
<w:p><w:pPr><w:pStyle w:val="ListBullet"/><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>one</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="ListBullet"/><w:numPr><w:ilvl w:val="1"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>nested</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="ListBullet"/><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>two</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="ListNumber"/><w:numPr><w:ilvl w:val="0"/><w:numId w:val="2"/></w:numPr></w:pPr><w:r><w:t>first</w:t></w:r></w:p>`
	res := extractBody(t, body)

	if len(res.Doc.Blocks) != 2 {
		t.Fatalf("blocks = %d, want bullet list + numbered list", len(res.Doc.Blocks))
	}
	list := res.Doc.Blocks[0].(*ir.List)
	if list.Ordered {
		t.Error("bullet list should be unordered")
	}
	if !res.Doc.Blocks[1].(*ir.List).Ordered {
		t.Error("second list should be ordered")
	}
	if len(list.Items) != 3 {
		t.Fatalf("items = %d, want 3 (nested hangs off item one)", len(list.Items))
	}
	first := list.Items[0]
	if len(first.Blocks) != 2 {
		t.Fatalf("first item blocks = %d, want paragraph + sublist", len(first.Blocks))
	}
	if _, ok := first.Blocks[1].(*ir.List); !ok {
		t.Errorf("first item block 1 = %T, want nested list", first.Blocks[1])
	}
}

func TestExtractDeterministic(t *testing.T) {
	body := `
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>A</w:t></w:r></w:p>
<w:p><w:r><w:t>text</w:t></w:r></w:p>`
	first := extractBody(t, body)
	second := extractBody(t, body)
	if first.Markup != second.Markup {
		t.Errorf("markup differs between runs:\n%q\n%q", first.Markup, second.Markup)
	}
}

func TestExtractSourceOrderPreserved(t *testing.T) {
	body := `
<w:p><w:r><w:t>alpha</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:t>omega</w:t></w:r></w:p>`
	res := extractBody(t, body)

	if len(res.Doc.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(res.Doc.Blocks))
	}
	if _, ok := res.Doc.Blocks[0].(*ir.Paragraph); !ok {
		t.Errorf("block 0 = %T", res.Doc.Blocks[0])
	}
	if _, ok := res.Doc.Blocks[1].(*ir.Table); !ok {
		t.Errorf("block 1 = %T", res.Doc.Blocks[1])
	}
	if _, ok := res.Doc.Blocks[2].(*ir.Paragraph); !ok {
		t.Errorf("block 2 = %T", res.Doc.Blocks[2])
	}
}

func TestExtractTablesDisabled(t *testing.T) {
	body := `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`
	opts := DefaultOptions()
	opts.ExtractTables = false
	res, err := Extract(newFakeSource(t, body), opts)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(res.Doc.Blocks) != 0 {
		t.Errorf("blocks = %d, want 0", len(res.Doc.Blocks))
	}
	if res.Ledger.Class != ir.ClassL3 {
		t.Errorf("Class = %s, want L3 after drop", res.Ledger.Class)
	}
}
