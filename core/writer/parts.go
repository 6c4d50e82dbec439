package writer

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/DocLoom/core/errors"
	"github.com/FocuswithJustin/DocLoom/core/opc"
	"github.com/FocuswithJustin/DocLoom/core/rels"
)

const numberingPart = "word/numbering.xml"

const numberingContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"

// addNumbering writes a numbering part declaring one bullet and one
// decimal definition, and registers it in the content types and the
// document relationships.
func (w *writer) addNumbering(a *opc.Archive) error {
	a.SetPartString(numberingPart, numberingXML())

	if err := ensureOverride(a, "/"+numberingPart, numberingContentType); err != nil {
		return err
	}
	if len(w.rels.ByType(rels.TypeNumbering)) == 0 {
		w.rels.Add(rels.TypeNumbering, "numbering.xml")
		a.SetPartString(opc.PartDocumentRels, w.rels.XML())
	}
	return nil
}

func numberingXML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)

	writeAbstract := func(abstractID int, format, text string) {
		fmt.Fprintf(&b, `<w:abstractNum w:abstractNumId="%d">`, abstractID)
		for level := 0; level < 9; level++ {
			fmt.Fprintf(&b, `<w:lvl w:ilvl="%d">`, level)
			fmt.Fprintf(&b, `<w:start w:val="1"/><w:numFmt w:val="%s"/>`, format)
			if text == "" {
				fmt.Fprintf(&b, `<w:lvlText w:val="%%%d."/>`, level+1)
			} else {
				fmt.Fprintf(&b, `<w:lvlText w:val="%s"/>`, text)
			}
			fmt.Fprintf(&b, `<w:pPr><w:ind w:left="%d" w:hanging="360"/></w:pPr>`, 720*(level+1))
			b.WriteString(`</w:lvl>`)
		}
		b.WriteString(`</w:abstractNum>`)
	}
	writeAbstract(0, "bullet", "•")
	writeAbstract(1, "decimal", "")

	fmt.Fprintf(&b, `<w:num w:numId="%d"><w:abstractNumId w:val="0"/></w:num>`, numIDBullet)
	fmt.Fprintf(&b, `<w:num w:numId="%d"><w:abstractNumId w:val="1"/></w:num>`, numIDOrdered)
	b.WriteString(`</w:numbering>`)
	return b.String()
}

// embedSidecars writes the manifest and style map into the package so a
// later run can rebuild the source semantics from the package alone.
func (w *writer) embedSidecars(a *opc.Archive) error {
	if w.man != nil {
		data, err := w.man.ToJSON()
		if err != nil {
			return errors.NewWriteAssembly("sidecar", "serializing manifest", err)
		}
		a.SetPart(opc.SidecarManifest, data)
		if err := ensureDefault(a, "json", "application/json"); err != nil {
			return err
		}
	}
	if w.sm != nil {
		data, err := w.sm.ToYAML()
		if err != nil {
			return errors.NewWriteAssembly("sidecar", "serializing style map", err)
		}
		a.SetPart(opc.SidecarStyleMap, data)
		if err := ensureDefault(a, "yaml", "application/x-yaml"); err != nil {
			return err
		}
	}
	return nil
}

// ensureOverride adds an Override entry to the content types part when
// the part name is not yet declared.
func ensureOverride(a *opc.Archive, partName, contentType string) error {
	return editContentTypes(a, func(content string) string {
		if strings.Contains(content, `PartName="`+partName+`"`) {
			return content
		}
		entry := `<Override PartName="` + partName + `" ContentType="` + contentType + `"/>`
		return strings.Replace(content, "</Types>", entry+"</Types>", 1)
	})
}

// ensureDefault adds a Default entry for an extension when the content
// types part does not declare it.
func ensureDefault(a *opc.Archive, extension, contentType string) error {
	return editContentTypes(a, func(content string) string {
		if strings.Contains(content, `Extension="`+extension+`"`) {
			return content
		}
		entry := `<Default Extension="` + extension + `" ContentType="` + contentType + `"/>`
		return strings.Replace(content, "</Types>", entry+"</Types>", 1)
	})
}

func editContentTypes(a *opc.Archive, edit func(string) string) error {
	content, err := a.PartString(opc.PartContentTypes)
	if err != nil {
		return errors.NewWriteAssembly("content-types", "content types part missing", err)
	}
	updated := edit(content)
	if !strings.Contains(updated, "</Types>") {
		return errors.NewWriteAssembly("content-types", "content types part has no Types element", nil)
	}
	a.SetPartString(opc.PartContentTypes, updated)
	return nil
}
