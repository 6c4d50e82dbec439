package xml

import (
	"strings"
	"testing"
)

const sampleDoc = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <w:body>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
      <w:r><w:t>Intro</w:t></w:r>
    </w:p>
    <w:p>
      <w:hyperlink r:id="rId4"><w:r><w:t>link</w:t></w:r></w:hyperlink>
    </w:p>
  </w:body>
</w:document>`

func TestParseAndRoot(t *testing.T) {
	doc, err := ParseString(sampleDoc)
	if err != nil {
		t.Fatalf("ParseString() error: %v", err)
	}
	root := doc.Root()
	if root == nil {
		t.Fatal("Root() = nil")
	}
	if !root.Is("w", "document") {
		t.Errorf("root = %s:%s, want w:document", root.Prefix(), root.Name())
	}
}

func TestChildNavigation(t *testing.T) {
	doc, err := ParseString(sampleDoc)
	if err != nil {
		t.Fatalf("ParseString() error: %v", err)
	}
	body := doc.Root().Child("w", "body")
	if body == nil {
		t.Fatal("Child(w, body) = nil")
	}
	paras := body.Children()
	if len(paras) != 2 {
		t.Fatalf("body children = %d, want 2", len(paras))
	}
	if !paras[0].HasChild("w", "pPr") {
		t.Error("first paragraph should have pPr")
	}
	style := paras[0].Child("w", "pPr").Child("w", "pStyle")
	if style == nil {
		t.Fatal("pStyle not found")
	}
	if got, _ := style.AttrNS("w", "val"); got != "Heading1" {
		t.Errorf("pStyle w:val = %q, want %q", got, "Heading1")
	}
}

func TestAttrNS(t *testing.T) {
	doc, err := ParseString(sampleDoc)
	if err != nil {
		t.Fatalf("ParseString() error: %v", err)
	}
	links, err := doc.XPath("//w:hyperlink")
	if err != nil {
		t.Fatalf("XPath() error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("hyperlinks = %d, want 1", len(links))
	}
	if got, ok := links[0].AttrNS("r", "id"); !ok || got != "rId4" {
		t.Errorf("r:id = %q (present=%v), want rId4", got, ok)
	}
	if _, ok := links[0].AttrNS("w", "id"); ok {
		t.Error("w:id should not be present on hyperlink")
	}
	if got := links[0].Attr("id"); got != "rId4" {
		t.Errorf("Attr(id) = %q, want rId4", got)
	}
}

func TestInnerText(t *testing.T) {
	doc, err := ParseString(sampleDoc)
	if err != nil {
		t.Fatalf("ParseString() error: %v", err)
	}
	first, err := doc.XPathFirst("//w:p")
	if err != nil {
		t.Fatalf("XPathFirst() error: %v", err)
	}
	if got := strings.TrimSpace(first.InnerText()); got != "Intro" {
		t.Errorf("InnerText() = %q, want %q", got, "Intro")
	}
}

func TestOuterXML(t *testing.T) {
	doc, err := ParseString(`<w:p xmlns:w="ns"><w:r><w:t>x</w:t></w:r></w:p>`)
	if err != nil {
		t.Fatalf("ParseString() error: %v", err)
	}
	out := doc.Root().OuterXML()
	if !strings.Contains(out, "<w:t>x</w:t>") {
		t.Errorf("OuterXML() = %q, should contain run text element", out)
	}
	if !strings.HasPrefix(out, "<w:p") {
		t.Errorf("OuterXML() = %q, should start with the element's own tag", out)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
	}{
		{"well-formed", "<a><b/></a>", true},
		{"mismatched tags", "<a><b></a>", false},
		{"truncated", "<a><b>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate([]byte(tt.input))
			if result.Valid != tt.wantValid {
				t.Errorf("Validate(%q).Valid = %v, want %v", tt.input, result.Valid, tt.wantValid)
			}
			if !tt.wantValid && result.Offset < 0 {
				t.Error("invalid input should report an error offset")
			}
		})
	}
}
