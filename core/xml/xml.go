// Package xml wraps XML parsing and querying for package part content.
//
// OOXML parts lean on namespace prefixes (w:, r:) rather than resolved
// namespace URIs, so node and attribute lookups here match on prefix and
// local name as written in the part.
//
// Security Notes:
//   - XXE (External Entity) attacks are mitigated by using Go's xml.Decoder
//     which doesn't fetch external entities by default, and we explicitly
//     disable entity expansion in validation functions.
//   - The xmlquery library is used for parsing, which uses Go's encoding/xml
//     internally and inherits its security properties.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML element node.
type Node struct {
	node *xmlquery.Node
}

// ValidationResult contains the result of XML validation.
type ValidationResult struct {
	Valid  bool
	Offset int64 // Byte offset of the first error, -1 when valid
	Errors []string
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	reader := bytes.NewReader(data)
	root, err := xmlquery.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString parses an XML string and returns a Document.
func ParseString(content string) (*Document, error) {
	return Parse([]byte(content))
}

// Validate checks XML data for well-formedness and reports the byte
// offset of the first error.
//
// Security: entity expansion is disabled to prevent XXE attacks. Go's
// xml.Decoder does not fetch external entities by default, and internal
// entity expansion is explicitly disabled here as well.
func Validate(data []byte) ValidationResult {
	result := ValidationResult{Valid: true, Offset: -1}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = map[string]string{}

	for {
		_, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Valid = false
			result.Offset = decoder.InputOffset()
			result.Errors = append(result.Errors, err.Error())
			break
		}
	}

	return result
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}

	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

// XPathFirst executes an XPath query and returns the first matching
// node, or nil when nothing matches.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	node, err := xmlquery.Query(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	if node == nil {
		return nil, nil
	}
	return &Node{node: node}, nil
}

// Serialize converts the document back to XML bytes.
func (d *Document) Serialize() []byte {
	if d.root == nil {
		return nil
	}
	return []byte(d.root.OutputXML(true))
}

// Name returns the local element name (without prefix).
func (n *Node) Name() string {
	if n.node == nil {
		return ""
	}
	return n.node.Data
}

// Prefix returns the namespace prefix of the element.
func (n *Node) Prefix() string {
	if n.node == nil {
		return ""
	}
	return n.node.Prefix
}

// Is reports whether the element has the given prefix and local name.
func (n *Node) Is(prefix, local string) bool {
	return n.node != nil && n.node.Prefix == prefix && n.node.Data == local
}

// InnerText returns all text content of the node and its descendants.
func (n *Node) InnerText() string {
	if n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// OuterXML returns the node serialized with its own tags, suitable for
// verbatim preservation of source fragments.
func (n *Node) OuterXML() string {
	if n.node == nil {
		return ""
	}
	return n.node.OutputXML(true)
}

// InnerXML returns the serialized children of the node.
func (n *Node) InnerXML() string {
	if n.node == nil {
		return ""
	}
	var buf bytes.Buffer
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		buf.WriteString(child.OutputXML(true))
	}
	return buf.String()
}

// Children returns the child element nodes in source order.
func (n *Node) Children() []*Node {
	if n.node == nil {
		return nil
	}

	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// Child returns the first child element with the given prefix and local
// name, or nil.
func (n *Node) Child(prefix, local string) *Node {
	if n.node == nil {
		return nil
	}
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Prefix == prefix && child.Data == local {
			return &Node{node: child}
		}
	}
	return nil
}

// HasChild reports whether a child element with the given prefix and
// local name exists.
func (n *Node) HasChild(prefix, local string) bool {
	return n.Child(prefix, local) != nil
}

// Attr returns the value of an attribute matched by local name,
// regardless of prefix.
func (n *Node) Attr(local string) string {
	if n.node == nil {
		return ""
	}
	for _, attr := range n.node.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

// AttrNS returns the value of an attribute matched by prefix and local
// name, and whether it was present.
func (n *Node) AttrNS(prefix, local string) (string, bool) {
	if n.node == nil {
		return "", false
	}
	for _, attr := range n.node.Attr {
		if attr.Name.Space == prefix && attr.Name.Local == local {
			return attr.Value, true
		}
	}
	return "", false
}

// Attributes returns all attributes keyed by local name.
func (n *Node) Attributes() map[string]string {
	if n.node == nil {
		return nil
	}

	attrs := make(map[string]string)
	for _, attr := range n.node.Attr {
		attrs[attr.Name.Local] = attr.Value
	}
	return attrs
}
