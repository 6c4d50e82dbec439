package styles

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/DocLoom/core/errors"
)

// Role is the semantic role a style plays in a document.
type Role string

// Semantic roles.
const (
	RoleNormal   Role = "normal"
	RoleTitle    Role = "title"
	RoleHeading1 Role = "heading1"
	RoleHeading2 Role = "heading2"
	RoleHeading3 Role = "heading3"
	RoleHeading4 Role = "heading4"
	RoleHeading5 Role = "heading5"
	RoleHeading6 Role = "heading6"
	RoleQuote    Role = "quote"
	RoleCode     Role = "code"
	RoleStrong   Role = "strong"
	RoleEmphasis Role = "emphasis"
	RoleNote     Role = "note"
	RoleWarning  Role = "warning"
)

// HeadingRole returns the role for a 1-based heading level, clamped to
// the supported range.
func HeadingRole(level int) Role {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return Role(fmt.Sprintf("heading%d", level))
}

// HeadingLevel returns the 1-based level of a heading role, or 0 when
// the role is not a heading.
func (r Role) HeadingLevel() int {
	switch r {
	case RoleHeading1:
		return 1
	case RoleHeading2:
		return 2
	case RoleHeading3:
		return 3
	case RoleHeading4:
		return 4
	case RoleHeading5:
		return 5
	case RoleHeading6:
		return 6
	case RoleTitle:
		return 1
	}
	return 0
}

// AnchorClass classifies bookmark anchors by origin.
type AnchorClass string

// Anchor classes.
const (
	AnchorTOC       AnchorClass = "toc"
	AnchorReference AnchorClass = "reference"
	AnchorHighlight AnchorClass = "highlight"
	AnchorHeading   AnchorClass = "heading"
	AnchorUser      AnchorClass = "user"
)

// ClassifyAnchor classifies a bookmark name by the conventional
// machine-generated prefixes.
func ClassifyAnchor(name string) AnchorClass {
	switch {
	case strings.HasPrefix(name, "_Toc"):
		return AnchorTOC
	case strings.HasPrefix(name, "_Ref"):
		return AnchorReference
	case strings.HasPrefix(name, "_Hlk"):
		return AnchorHighlight
	default:
		return AnchorUser
	}
}

// NormalizeAnchor derives a stable anchor name from heading text:
// leading list numbering is stripped, the rest is lowercased with runs
// of non-alphanumerics collapsed to single hyphens.
func NormalizeAnchor(text string) string {
	s := strings.TrimSpace(text)
	// Strip leading section numbering like "1.", "2.3", "1.2.3 ".
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i > 0 && i < len(s) && s[i] == ' ' {
		s = s[i+1:]
	}

	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// StyleMap records how source style ids map to semantic roles. It is
// produced during extraction, serialized as a YAML sidecar a user may
// edit, and consumed by the writer to pick output styles.
type StyleMap struct {
	Paragraph map[string]Role        `yaml:"paragraph"`
	Character map[string]Role        `yaml:"character"`
	Anchors   map[string]AnchorClass `yaml:"anchors,omitempty"`
}

// NewStyleMap creates an empty style map.
func NewStyleMap() *StyleMap {
	return &StyleMap{
		Paragraph: make(map[string]Role),
		Character: make(map[string]Role),
		Anchors:   make(map[string]AnchorClass),
	}
}

// WithDefaults creates a style map seeded with the conventional
// built-in style ids.
func WithDefaults() *StyleMap {
	sm := NewStyleMap()
	sm.Paragraph["Normal"] = RoleNormal
	sm.Paragraph["Title"] = RoleTitle
	for i := 1; i <= 6; i++ {
		sm.Paragraph[fmt.Sprintf("Heading%d", i)] = HeadingRole(i)
	}
	sm.Paragraph["Quote"] = RoleQuote
	sm.Paragraph["CodeBlock"] = RoleCode
	sm.Character["Strong"] = RoleStrong
	sm.Character["Emphasis"] = RoleEmphasis
	return sm
}

// MapStyles derives a style map from a stylesheet: every defined style
// gets a role based on heading level, then name conventions. The notes
// report styles that fell back to normal.
func MapStyles(sheet *Sheet) (*StyleMap, []string) {
	sm := NewStyleMap()
	var notes []string
	for _, id := range sheet.IDs() {
		st, _ := sheet.Get(id)
		switch st.Type {
		case TypeParagraph:
			role, known := paragraphRole(sheet, id, st)
			sm.Paragraph[id] = role
			if !known {
				notes = append(notes, fmt.Sprintf("style %q has no recognized role, using normal", id))
			}
		case TypeCharacter:
			sm.Character[id] = characterRole(st)
		}
	}
	return sm, notes
}

func paragraphRole(sheet *Sheet, id string, st *Style) (Role, bool) {
	if level := sheet.HeadingLevel(id); level > 0 {
		return HeadingRole(level), true
	}
	name := strings.ToLower(st.Name)
	switch {
	case name == "title":
		return RoleTitle, true
	case strings.Contains(name, "quote"):
		return RoleQuote, true
	case strings.Contains(name, "code"), strings.Contains(name, "preformatted"):
		return RoleCode, true
	case strings.Contains(name, "warning"), strings.Contains(name, "caution"):
		return RoleWarning, true
	case strings.Contains(name, "note"), strings.Contains(name, "tip"):
		return RoleNote, true
	case name == "normal", st.Default:
		return RoleNormal, true
	}
	return RoleNormal, false
}

func characterRole(st *Style) Role {
	name := strings.ToLower(st.Name)
	switch {
	case strings.Contains(name, "strong"), st.Bold && !st.Italic:
		return RoleStrong
	case strings.Contains(name, "emphasis"), st.Italic:
		return RoleEmphasis
	case st.Monospace, strings.Contains(name, "code"):
		return RoleCode
	}
	return RoleNormal
}

// Role returns the role for a paragraph style id, defaulting to normal.
func (sm *StyleMap) Role(styleID string) Role {
	if role, ok := sm.Paragraph[styleID]; ok {
		return role
	}
	return RoleNormal
}

// StyleFor returns a paragraph style id mapped to the given role. Ties
// resolve to the alphabetically smallest id so the reverse lookup is
// deterministic.
func (sm *StyleMap) StyleFor(role Role) (string, bool) {
	return minimalMatch(sm.Paragraph, role)
}

// CharacterStyleFor returns a character style id mapped to the given
// role, with the same determinism guarantee as StyleFor.
func (sm *StyleMap) CharacterStyleFor(role Role) (string, bool) {
	return minimalMatch(sm.Character, role)
}

func minimalMatch(m map[string]Role, role Role) (string, bool) {
	var ids []string
	for id, r := range m {
		if r == role {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)
	return ids[0], true
}

// SetAnchor records an anchor classification.
func (sm *StyleMap) SetAnchor(name string, class AnchorClass) {
	if sm.Anchors == nil {
		sm.Anchors = make(map[string]AnchorClass)
	}
	sm.Anchors[name] = class
}

// ToYAML serializes the style map for the sidecar part.
func (sm *StyleMap) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(sm)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling style map")
	}
	return data, nil
}

// ParseStyleMap reads a style map from its YAML sidecar form.
func ParseStyleMap(data []byte) (*StyleMap, error) {
	sm := NewStyleMap()
	if err := yaml.Unmarshal(data, sm); err != nil {
		return nil, errors.NewMalformed("style map", -1, err.Error())
	}
	if sm.Paragraph == nil {
		sm.Paragraph = make(map[string]Role)
	}
	if sm.Character == nil {
		sm.Character = make(map[string]Role)
	}
	return sm, nil
}
