package markup

import (
	"strings"

	"github.com/FocuswithJustin/DocLoom/core/ir"
)

// ParseInlines parses a line of dialect text into inline nodes.
func ParseInlines(text string) []ir.Inline {
	var result []ir.Inline
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			result = append(result, &ir.Text{Value: buf.String()})
			buf.Reset()
		}
	}

	i := 0
	for i < len(text) {
		rest := text[i:]
		switch {
		case strings.HasPrefix(rest, "<<"):
			end := strings.Index(rest, ">>")
			if end < 0 {
				buf.WriteByte(text[i])
				i++
				continue
			}
			inner := rest[2:end]
			target, label, found := strings.Cut(inner, ",")
			if !found {
				label = target
			}
			flush()
			result = append(result, &ir.Link{
				Target:   target,
				Internal: true,
				Inlines:  []ir.Inline{&ir.Text{Value: label}},
			})
			i += end + 2

		case strings.HasPrefix(rest, "image:") && !strings.HasPrefix(rest, "image::"):
			open := strings.Index(rest, "[")
			closing := strings.Index(rest, "]")
			if open < 0 || closing < open {
				buf.WriteString("image:")
				i += len("image:")
				continue
			}
			flush()
			alt, attrs := splitMacroBody(rest[open+1 : closing])
			img := &ir.Image{Ref: rest[len("image:"):open], Alt: alt}
			for k, v := range attrs {
				ir.SetAttr(&img.Attrs, k, v)
			}
			result = append(result, img)
			i += closing + 1

		case strings.HasPrefix(rest, "http://") || strings.HasPrefix(rest, "https://"):
			node, consumed := parseURL(rest)
			flush()
			result = append(result, node)
			i += consumed

		case text[i] == '*' || text[i] == '_' || text[i] == '`':
			marker := text[i]
			closing := strings.IndexByte(rest[1:], marker)
			if closing < 0 {
				buf.WriteByte(marker)
				i++
				continue
			}
			inner := rest[1 : 1+closing]
			flush()
			result = append(result, formatNode(marker, inner))
			i += closing + 2

		default:
			buf.WriteByte(text[i])
			i++
		}
	}
	flush()
	return result
}

// splitMacroBody splits a macro's bracket body into the positional text
// and trailing key=value attributes.
func splitMacroBody(body string) (string, map[string]string) {
	var positional []string
	var attrs map[string]string
	for _, part := range strings.Split(body, ",") {
		key, value, found := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if found && key != "" && !strings.Contains(key, " ") {
			if attrs == nil {
				attrs = make(map[string]string)
			}
			attrs[key] = strings.Trim(strings.TrimSpace(value), `"`)
			continue
		}
		positional = append(positional, part)
	}
	return strings.Join(positional, ","), attrs
}

// formatNode builds a formatting span. Monospace content stays literal;
// bold and italic parse nested formatting.
func formatNode(marker byte, inner string) *ir.Format {
	switch marker {
	case '*':
		return &ir.Format{Kind: ir.FormatBold, Inlines: ParseInlines(inner)}
	case '_':
		return &ir.Format{Kind: ir.FormatItalic, Inlines: ParseInlines(inner)}
	default:
		return &ir.Format{Kind: ir.FormatMonospace, Inlines: []ir.Inline{&ir.Text{Value: inner}}}
	}
}

// parseURL reads an external link: url[label], or a bare url.
func parseURL(rest string) (ir.Inline, int) {
	stop := strings.IndexAny(rest, " [")
	if stop < 0 {
		return &ir.Link{Target: rest, Inlines: []ir.Inline{&ir.Text{Value: rest}}}, len(rest)
	}
	if rest[stop] == '[' {
		closing := strings.Index(rest[stop:], "]")
		if closing < 0 {
			target := rest[:stop]
			return &ir.Link{Target: target, Inlines: []ir.Inline{&ir.Text{Value: target}}}, stop
		}
		target := rest[:stop]
		label := rest[stop+1 : stop+closing]
		return &ir.Link{Target: target, Inlines: ParseInlines(label)}, stop + closing + 1
	}
	target := rest[:stop]
	return &ir.Link{Target: target, Inlines: []ir.Inline{&ir.Text{Value: target}}}, stop
}
