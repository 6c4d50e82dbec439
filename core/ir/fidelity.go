package ir

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Class grades the fidelity of a conversion.
type Class string

// Fidelity classes, from most to least fidelity.
const (
	// ClassL0 indicates a byte-exact round trip is possible.
	ClassL0 Class = "L0"

	// ClassL1 indicates all content survives; formatting may differ.
	ClassL1 Class = "L1"

	// ClassL2 indicates minor loss: some elements degraded.
	ClassL2 Class = "L2"

	// ClassL3 indicates significant loss: elements dropped.
	ClassL3 Class = "L3"

	// ClassL4 indicates only plain text survived.
	ClassL4 Class = "L4"
)

// Level returns the numeric level (0-4) of the class, -1 when invalid.
func (c Class) Level() int {
	switch c {
	case ClassL0:
		return 0
	case ClassL1:
		return 1
	case ClassL2:
		return 2
	case ClassL3:
		return 3
	case ClassL4:
		return 4
	default:
		return -1
	}
}

// IsValid returns true when the class is one of the defined grades.
func (c Class) IsValid() bool {
	return c.Level() >= 0
}

// Diagnostic severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Diagnostic codes for soft conversion faults.
const (
	CodeStyleResolution     = "style-resolution-failure"
	CodeRelationshipMissing = "relationship-missing"
	CodeManifestMismatch    = "manifest-mismatch"
	CodeFieldExcluded       = "field-code-excluded"
	CodeUnknownElement      = "unknown-element"
	CodeSourceIrregularity  = "source-irregularity"
)

// Diagnostic records a soft fault encountered during conversion.
type Diagnostic struct {
	// Severity is one of the Severity constants.
	Severity string `json:"severity"`

	// Code identifies the fault category.
	Code string `json:"code"`

	// ElementID names the manifest element involved, when there is one.
	ElementID string `json:"element_id,omitempty"`

	// Message is the human-readable description.
	Message string `json:"message"`
}

// Counter tallies conversion outcomes for one element kind.
type Counter struct {
	// Preserved counts elements converted with full semantics.
	Preserved int `json:"preserved"`

	// Degraded counts elements converted with reduced semantics.
	Degraded int `json:"degraded"`

	// Dropped counts elements that did not survive.
	Dropped int `json:"dropped"`
}

// Ledger documents the fidelity of one conversion.
type Ledger struct {
	// Source is the format converted from (e.g., "docx").
	Source string `json:"source"`

	// Target is the format converted to (e.g., "markup").
	Target string `json:"target"`

	// Class is the overall fidelity grade.
	Class Class `json:"class"`

	// Counts tallies outcomes per element kind (e.g., "paragraph").
	Counts map[string]*Counter `json:"counts"`

	// Diagnostics lists soft faults in the order they occurred.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// NewLedger creates a ledger for a conversion between two formats.
func NewLedger(source, target string) *Ledger {
	return &Ledger{
		Source: source,
		Target: target,
		Class:  ClassL1,
		Counts: make(map[string]*Counter),
	}
}

func (l *Ledger) counter(kind string) *Counter {
	c, ok := l.Counts[kind]
	if !ok {
		c = &Counter{}
		l.Counts[kind] = c
	}
	return c
}

// Preserve tallies a fully-converted element.
func (l *Ledger) Preserve(kind string) {
	l.counter(kind).Preserved++
}

// Degrade tallies an element converted with reduced semantics.
func (l *Ledger) Degrade(kind string) {
	l.counter(kind).Degraded++
}

// Drop tallies an element that did not survive.
func (l *Ledger) Drop(kind string) {
	l.counter(kind).Dropped++
}

// Diag appends a diagnostic.
func (l *Ledger) Diag(severity, code, elementID, message string) {
	l.Diagnostics = append(l.Diagnostics, Diagnostic{
		Severity:  severity,
		Code:      code,
		ElementID: elementID,
		Message:   message,
	})
}

// HasLoss reports whether any element degraded or dropped.
func (l *Ledger) HasLoss() bool {
	for _, c := range l.Counts {
		if c.Degraded > 0 || c.Dropped > 0 {
			return true
		}
	}
	return false
}

// Finalize computes the overall class from the tallies: L1 when
// everything is preserved, L2 when anything degraded, L3 when anything
// dropped.
func (l *Ledger) Finalize() Class {
	class := ClassL1
	for _, c := range l.Counts {
		if c.Dropped > 0 && class.Level() < ClassL3.Level() {
			class = ClassL3
		} else if c.Degraded > 0 && class.Level() < ClassL2.Level() {
			class = ClassL2
		}
	}
	l.Class = class
	return class
}

// Kinds returns the tallied element kinds in sorted order.
func (l *Ledger) Kinds() []string {
	kinds := make([]string, 0, len(l.Counts))
	for kind := range l.Counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Summary renders a short human-readable account of the ledger.
func (l *Ledger) Summary() string {
	out := fmt.Sprintf("%s -> %s [%s]", l.Source, l.Target, l.Class)
	for _, kind := range l.Kinds() {
		c := l.Counts[kind]
		out += fmt.Sprintf("\n  %s: %d preserved, %d degraded, %d dropped", kind, c.Preserved, c.Degraded, c.Dropped)
	}
	for _, d := range l.Diagnostics {
		out += fmt.Sprintf("\n  %s[%s]: %s", d.Severity, d.Code, d.Message)
	}
	return out
}

// ToJSON serializes the ledger.
func (l *Ledger) ToJSON() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// ParseLedger reads a ledger from its JSON form.
func ParseLedger(data []byte) (*Ledger, error) {
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing ledger: %w", err)
	}
	if l.Counts == nil {
		l.Counts = make(map[string]*Counter)
	}
	return &l, nil
}
