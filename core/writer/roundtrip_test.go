package writer_test

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/DocLoom/core/extract"
	"github.com/FocuswithJustin/DocLoom/core/ir"
	"github.com/FocuswithJustin/DocLoom/core/markup"
	"github.com/FocuswithJustin/DocLoom/core/opc"
	"github.com/FocuswithJustin/DocLoom/core/writer"
)

// Markup -> package -> markup must be stable: extracting a package the
// writer produced yields the text the writer consumed.
func TestMarkupPackageMarkupRoundTrip(t *testing.T) {
	text := `= Project Notes

== Setup

Install the toolchain and *verify* the version.

* clone the repository
* run the bootstrap script

[source]
----
make all
----

NOTE: the bootstrap script is idempotent.

== Results

See https://example.com/dashboard[the dashboard] for details.
`

	doc, err := markup.Parse(text)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	written, err := writer.Write(doc, nil, nil, nil)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	data, err := written.Archive.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	a, err := opc.FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}
	src, err := extract.NewArchiveSource(a)
	if err != nil {
		t.Fatalf("NewArchiveSource() error: %v", err)
	}
	res, err := extract.Extract(src, extract.DefaultOptions())
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if res.Markup != text {
		t.Errorf("round trip not stable:\nwrote:\n%s\nread back:\n%s", text, res.Markup)
	}
	if res.Ledger.Class.Level() > ir.ClassL2.Level() {
		t.Errorf("Class = %s, round trip should not drop content: %s", res.Ledger.Class, res.Ledger.Summary())
	}
}

// A package built by the writer parses as a well-formed document with
// the expected part inventory.
func TestWrittenPackageInventory(t *testing.T) {
	doc := &ir.Document{
		Title: "Inventory",
		Blocks: []ir.Block{
			&ir.Paragraph{Inlines: []ir.Inline{&ir.Text{Value: "body"}}},
		},
	}
	res, err := writer.Write(doc, nil, nil, nil)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	for _, part := range []string{
		opc.PartContentTypes,
		opc.PartRootRels,
		opc.PartDocument,
		opc.PartStyles,
		opc.PartDocumentRels,
	} {
		if !res.Archive.HasPart(part) {
			t.Errorf("part %s missing from written package", part)
		}
	}
	if err := res.Archive.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
	if !strings.Contains(res.Archive.String(), "word/document.xml") {
		t.Error("String() should list the document part")
	}
}
