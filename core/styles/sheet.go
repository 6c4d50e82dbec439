// Package styles parses word-processing stylesheets and maps style ids
// to semantic roles.
package styles

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/DocLoom/core/errors"
	"github.com/FocuswithJustin/DocLoom/core/xml"
)

// maxChainDepth bounds the basedOn walk. Real stylesheets nest a
// handful deep; anything past this is treated as a cycle.
const maxChainDepth = 64

// Style type constants matching the w:type attribute.
const (
	TypeParagraph = "paragraph"
	TypeCharacter = "character"
	TypeTable     = "table"
	TypeNumbering = "numbering"
)

// Style is one w:style definition.
type Style struct {
	ID           string
	Name         string
	Type         string
	BasedOn      string
	Next         string
	Default      bool
	OutlineLevel int // 0-based outline level, -1 when absent
	Bold         bool
	Italic       bool
	Monospace    bool
}

// Sheet is a parsed stylesheet part.
type Sheet struct {
	order            []string
	styles           map[string]*Style
	defaultParagraph string
	defaultCharacter string
}

// Effective holds the properties of a style after inheritance
// resolution.
type Effective struct {
	ID           string
	Name         string
	Type         string
	OutlineLevel int
	Bold         bool
	Italic       bool
	Monospace    bool
}

// monospaceFonts are substrings that mark a font name as monospace.
var monospaceFonts = []string{"mono", "courier", "consolas", "menlo", "source code"}

// IsMonospaceFont reports whether a font name indicates a monospace
// face.
func IsMonospaceFont(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range monospaceFonts {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// toggleOn interprets a w:val toggle attribute: absent means on,
// "0" and "false" mean off.
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

// ParseStyles parses a styles.xml part.
func ParseStyles(content string) (*Sheet, error) {
	doc, err := xml.ParseString(content)
	if err != nil {
		return nil, errors.NewMalformed("word/styles.xml", -1, err.Error())
	}
	root := doc.Root()
	if root == nil || !root.Is("w", "styles") {
		return nil, errors.NewMalformed("word/styles.xml", -1, "missing w:styles root element")
	}

	s := &Sheet{styles: make(map[string]*Style)}
	for _, node := range root.Children() {
		if !node.Is("w", "style") {
			continue
		}
		st := parseStyle(node)
		if st.ID == "" {
			continue
		}
		if _, dup := s.styles[st.ID]; !dup {
			s.order = append(s.order, st.ID)
		}
		s.styles[st.ID] = st
		if st.Default {
			switch st.Type {
			case TypeParagraph:
				s.defaultParagraph = st.ID
			case TypeCharacter:
				s.defaultCharacter = st.ID
			}
		}
	}
	return s, nil
}

func parseStyle(node *xml.Node) *Style {
	st := &Style{OutlineLevel: -1}
	st.ID, _ = node.AttrNS("w", "styleId")
	st.Type, _ = node.AttrNS("w", "type")
	if def, ok := node.AttrNS("w", "default"); ok {
		st.Default = def == "1" || def == "true"
	}
	if name := node.Child("w", "name"); name != nil {
		st.Name, _ = name.AttrNS("w", "val")
	}
	if based := node.Child("w", "basedOn"); based != nil {
		st.BasedOn, _ = based.AttrNS("w", "val")
	}
	if next := node.Child("w", "next"); next != nil {
		st.Next, _ = next.AttrNS("w", "val")
	}
	if pPr := node.Child("w", "pPr"); pPr != nil {
		if lvl := pPr.Child("w", "outlineLvl"); lvl != nil {
			if val, ok := lvl.AttrNS("w", "val"); ok {
				if n, err := strconv.Atoi(val); err == nil {
					st.OutlineLevel = n
				}
			}
		}
	}
	if rPr := node.Child("w", "rPr"); rPr != nil {
		st.Bold = toggleOn(rPr.Child("w", "b"))
		st.Italic = toggleOn(rPr.Child("w", "i"))
		if fonts := rPr.Child("w", "rFonts"); fonts != nil {
			if ascii, ok := fonts.AttrNS("w", "ascii"); ok && IsMonospaceFont(ascii) {
				st.Monospace = true
			}
		}
	}
	return st
}

// Get returns the style with the given id.
func (s *Sheet) Get(id string) (*Style, bool) {
	st, ok := s.styles[id]
	return st, ok
}

// IDs returns all style ids in source order.
func (s *Sheet) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Len returns the number of styles.
func (s *Sheet) Len() int {
	return len(s.order)
}

// DefaultParagraph returns the id of the default paragraph style.
func (s *Sheet) DefaultParagraph() string {
	return s.defaultParagraph
}

// DefaultCharacter returns the id of the default character style.
func (s *Sheet) DefaultCharacter() string {
	return s.defaultCharacter
}

// Chain returns the basedOn chain for a style, most derived first. The
// walk is bounded and cycle-safe: on a cycle or depth overflow the
// chain collected so far is returned along with a note describing the
// problem; an unknown id returns an empty chain with a note.
func (s *Sheet) Chain(id string) ([]*Style, []string) {
	var chain []*Style
	var notes []string
	seen := make(map[string]bool)

	current := id
	for i := 0; current != "" && i < maxChainDepth; i++ {
		if seen[current] {
			notes = append(notes, fmt.Sprintf("style inheritance cycle at %q", current))
			return chain, notes
		}
		seen[current] = true
		st, ok := s.styles[current]
		if !ok {
			notes = append(notes, fmt.Sprintf("style %q not defined", current))
			return chain, notes
		}
		chain = append(chain, st)
		current = st.BasedOn
	}
	if current != "" {
		notes = append(notes, fmt.Sprintf("style inheritance chain from %q exceeds %d levels", id, maxChainDepth))
	}
	return chain, notes
}

// Resolve computes the effective properties of a style. Toggle
// properties are inherited from the nearest ancestor that sets them;
// the outline level comes from the nearest ancestor carrying one. When
// the chain is broken (cycle, unknown id) the partial chain still
// resolves and the notes report the fault; a fully unknown id resolves
// to default-paragraph properties.
func (s *Sheet) Resolve(id string) (Effective, []string) {
	chain, notes := s.Chain(id)
	eff := Effective{ID: id, OutlineLevel: -1, Type: TypeParagraph}
	if len(chain) == 0 {
		eff.Name = id
		return eff, notes
	}
	eff.Name = chain[0].Name
	eff.Type = chain[0].Type

	// Walk base-most first so derived styles override.
	for i := len(chain) - 1; i >= 0; i-- {
		st := chain[i]
		if st.OutlineLevel >= 0 {
			eff.OutlineLevel = st.OutlineLevel
		}
		if st.Bold {
			eff.Bold = true
		}
		if st.Italic {
			eff.Italic = true
		}
		if st.Monospace {
			eff.Monospace = true
		}
	}
	return eff, notes
}

// HeadingLevel returns the 1-based heading level for a style, or 0 when
// the style is not a heading. The outline level wins when present;
// otherwise the style name is matched against the "Heading N"
// convention.
func (s *Sheet) HeadingLevel(id string) int {
	eff, _ := s.Resolve(id)
	if eff.OutlineLevel >= 0 && eff.OutlineLevel < 6 {
		return eff.OutlineLevel + 1
	}
	return headingLevelFromName(eff.Name)
}

func headingLevelFromName(name string) int {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "heading") {
		return 0
	}
	rest := strings.TrimSpace(trimmed[len("heading"):])
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}
