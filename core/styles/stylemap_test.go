package styles

import (
	"testing"
)

func TestMapStyles(t *testing.T) {
	s := mustParse(t, sampleStyles)
	sm, notes := MapStyles(s)

	tests := []struct {
		id   string
		want Role
	}{
		{"Normal", RoleNormal},
		{"Heading1", RoleHeading1},
		{"Heading2", RoleHeading2},
		{"FancyHeading", RoleHeading3},
		{"CodeBlock", RoleCode},
	}
	for _, tt := range tests {
		if got := sm.Role(tt.id); got != tt.want {
			t.Errorf("Role(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}

	if got := sm.Character["Strong"]; got != RoleStrong {
		t.Errorf("Character[Strong] = %q, want strong", got)
	}
	_ = notes
}

func TestRoleUnknownStyleDefaultsToNormal(t *testing.T) {
	sm := NewStyleMap()
	if got := sm.Role("Mystery"); got != RoleNormal {
		t.Errorf("Role(unknown) = %q, want normal", got)
	}
}

func TestStyleForDeterminism(t *testing.T) {
	sm := NewStyleMap()
	sm.Paragraph["Zebra"] = RoleQuote
	sm.Paragraph["Alpha"] = RoleQuote
	sm.Paragraph["Mid"] = RoleQuote

	for i := 0; i < 10; i++ {
		id, ok := sm.StyleFor(RoleQuote)
		if !ok {
			t.Fatal("StyleFor(quote) not found")
		}
		if id != "Alpha" {
			t.Fatalf("StyleFor(quote) = %q, want Alpha (alphabetical minimum)", id)
		}
	}

	if _, ok := sm.StyleFor(RoleCode); ok {
		t.Error("StyleFor(code) should report absence")
	}
}

func TestHeadingRole(t *testing.T) {
	tests := []struct {
		level int
		want  Role
	}{
		{0, RoleHeading1},
		{1, RoleHeading1},
		{3, RoleHeading3},
		{6, RoleHeading6},
		{9, RoleHeading6},
	}
	for _, tt := range tests {
		if got := HeadingRole(tt.level); got != tt.want {
			t.Errorf("HeadingRole(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
	if got := RoleHeading4.HeadingLevel(); got != 4 {
		t.Errorf("heading4.HeadingLevel() = %d, want 4", got)
	}
	if got := RoleQuote.HeadingLevel(); got != 0 {
		t.Errorf("quote.HeadingLevel() = %d, want 0", got)
	}
}

func TestClassifyAnchor(t *testing.T) {
	tests := []struct {
		name string
		want AnchorClass
	}{
		{"_Toc123456", AnchorTOC},
		{"_Ref98765", AnchorReference},
		{"_Hlk555", AnchorHighlight},
		{"my-bookmark", AnchorUser},
	}
	for _, tt := range tests {
		if got := ClassifyAnchor(tt.name); got != tt.want {
			t.Errorf("ClassifyAnchor(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNormalizeAnchor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1.2 Purpose and Scope", "purpose-and-scope"},
		{"Introduction", "introduction"},
		{"3 Results & Discussion", "results-discussion"},
		{"  Spaced   Out  ", "spaced-out"},
		{"2.3.1 Edge-Cases!", "edge-cases"},
	}
	for _, tt := range tests {
		if got := NormalizeAnchor(tt.input); got != tt.want {
			t.Errorf("NormalizeAnchor(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStyleMapYAMLRoundTrip(t *testing.T) {
	sm := WithDefaults()
	sm.SetAnchor("_Toc12345", AnchorTOC)
	sm.SetAnchor("overview", AnchorHeading)

	data, err := sm.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML() error: %v", err)
	}

	back, err := ParseStyleMap(data)
	if err != nil {
		t.Fatalf("ParseStyleMap() error: %v", err)
	}
	if got := back.Role("Heading3"); got != RoleHeading3 {
		t.Errorf("round-trip Role(Heading3) = %q, want heading3", got)
	}
	if got := back.Anchors["_Toc12345"]; got != AnchorTOC {
		t.Errorf("round-trip anchor class = %q, want toc", got)
	}
	id, ok := back.StyleFor(RoleCode)
	if !ok || id != "CodeBlock" {
		t.Errorf("round-trip StyleFor(code) = %q, want CodeBlock", id)
	}
}

func TestParseStyleMapInvalid(t *testing.T) {
	if _, err := ParseStyleMap([]byte("{not yaml: [")); err == nil {
		t.Error("invalid YAML should fail")
	}
}
