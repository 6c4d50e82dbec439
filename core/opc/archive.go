// Package opc provides read/write access to OOXML package containers.
//
// A package is a ZIP archive of named parts. The archive is loaded fully
// into memory; part mutation happens on the in-memory map and nothing is
// persisted until WriteTo or WriteFile is called. Writes are
// deterministic: parts are emitted in sorted name order with
// [Content_Types].xml first, so identical part maps produce identical
// archives.
package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/FocuswithJustin/DocLoom/core/errors"
)

// Well-known part names.
const (
	PartContentTypes = "[Content_Types].xml"
	PartRootRels     = "_rels/.rels"
	PartDocument     = "word/document.xml"
	PartStyles       = "word/styles.xml"
	PartDocumentRels = "word/_rels/document.xml.rels"
	PartNumbering    = "word/numbering.xml"

	// Sidecar parts embedded in packages produced by this engine.
	SidecarDir      = "docloom/"
	SidecarManifest = "docloom/manifest.json"
	SidecarStyleMap = "docloom/styles.yaml"
)

// Archive is an in-memory OOXML package.
type Archive struct {
	parts map[string][]byte
}

// New creates an empty archive.
func New() *Archive {
	return &Archive{parts: make(map[string][]byte)}
}

// Open reads a package from a file on disk.
func Open(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewArchive("open", path, err)
	}
	a, err := FromBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return a, nil
}

// FromReader reads a package from an io.ReaderAt of known size.
func FromReader(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.NewArchive("read", "", err)
	}
	return fromZipReader(zr)
}

// FromBytes reads a package from a byte slice.
func FromBytes(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewArchive("read", "", err)
	}
	return fromZipReader(zr)
}

func fromZipReader(zr *zip.Reader) (*Archive, error) {
	a := New()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.NewArchive("read", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.NewArchive("read", f.Name, err)
		}
		a.parts[f.Name] = data
	}
	return a, nil
}

// Part returns the raw bytes of a named part.
func (a *Archive) Part(name string) ([]byte, error) {
	data, ok := a.parts[name]
	if !ok {
		return nil, errors.NewMissingPart(name)
	}
	return data, nil
}

// PartString returns a named part as a string.
func (a *Archive) PartString(name string) (string, error) {
	data, err := a.Part(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HasPart reports whether the named part exists.
func (a *Archive) HasPart(name string) bool {
	_, ok := a.parts[name]
	return ok
}

// PartNames returns all part names in sorted order.
func (a *Archive) PartNames() []string {
	names := make([]string, 0, len(a.parts))
	for name := range a.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetPart stores raw bytes under a part name, replacing any existing part.
func (a *Archive) SetPart(name string, data []byte) {
	a.parts[name] = data
}

// SetPartString stores a string part.
func (a *Archive) SetPartString(name, content string) {
	a.parts[name] = []byte(content)
}

// RemovePart deletes a part if present.
func (a *Archive) RemovePart(name string) {
	delete(a.parts, name)
}

// Len returns the number of parts.
func (a *Archive) Len() int {
	return len(a.parts)
}

// DocumentXML returns the main document part.
func (a *Archive) DocumentXML() (string, error) {
	return a.PartString(PartDocument)
}

// StylesXML returns the stylesheet part.
func (a *Archive) StylesXML() (string, error) {
	return a.PartString(PartStyles)
}

// DocumentRels returns the document-level relationships part.
func (a *Archive) DocumentRels() (string, error) {
	return a.PartString(PartDocumentRels)
}

// WriteTo serializes the package to w as a ZIP archive.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	names := a.PartNames()
	// [Content_Types].xml leads so consumers that stream the archive
	// can resolve part types before reading content.
	sort.SliceStable(names, func(i, j int) bool {
		if names[i] == PartContentTypes {
			return names[j] != PartContentTypes
		}
		if names[j] == PartContentTypes {
			return false
		}
		return names[i] < names[j]
	})

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return 0, errors.NewArchive("write", name, err)
		}
		if _, err := fw.Write(a.parts[name]); err != nil {
			zw.Close()
			return 0, errors.NewArchive("write", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return 0, errors.NewArchive("write", "", err)
	}
	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), errors.NewArchive("write", "", err)
	}
	return int64(n), nil
}

// Bytes serializes the package to a byte slice.
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile serializes the package to a file on disk.
func (a *Archive) WriteFile(path string) error {
	data, err := a.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewArchive("write", path, err)
	}
	return nil
}

// Clone returns a deep copy of the archive.
func (a *Archive) Clone() *Archive {
	c := New()
	for name, data := range a.parts {
		dup := make([]byte, len(data))
		copy(dup, data)
		c.parts[name] = dup
	}
	return c
}

// Validate checks that the parts every word-processing package must
// carry are present.
func (a *Archive) Validate() error {
	required := []string{PartContentTypes, PartDocument}
	for _, name := range required {
		if !a.HasPart(name) {
			return errors.NewMissingPart(name)
		}
	}
	return nil
}

// String implements fmt.Stringer for debugging.
func (a *Archive) String() string {
	return fmt.Sprintf("opc.Archive{%d parts}", len(a.parts))
}
