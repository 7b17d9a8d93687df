// Package render writes planned series in the output formats of the CLI.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/cyp0633/recurdate/series"
)

// Format names an output encoding.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatICS    Format = "ics"
	FormatMaster Format = "master"
	FormatXML    Format = "xml"
)

// Formats lists the supported formats in help order.
var Formats = []Format{FormatText, FormatJSON, FormatICS, FormatMaster, FormatXML}

// XML element and attribute names.
const (
	TagOccurrences = "occurrences"
	TagOccurrence  = "occurrence"

	AttrSeries    = "series"
	AttrRule      = "rule"
	AttrTarget    = "target"
	AttrTruncated = "truncated"
	AttrWarning   = "warning"
	AttrID        = "id"
)

// ParseFormat resolves a format name, ignoring case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Write encodes plan to w in the given format.
func Write(w io.Writer, format Format, plan series.Plan) error {
	switch format {
	case FormatText:
		return writeText(w, plan)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatICS:
		ics, err := plan.ICS()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, ics)
		return err
	case FormatMaster:
		ics, err := plan.Master()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, ics)
		return err
	case FormatXML:
		doc := ToXML(plan)
		if _, err := doc.WriteTo(w); err != nil {
			return fmt.Errorf("failed to write xml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, plan series.Plan) error {
	for _, date := range plan.Dates() {
		if _, err := fmt.Fprintln(w, date); err != nil {
			return err
		}
	}
	return nil
}

// ToXML converts a plan to an <occurrences> document.
func ToXML(plan series.Plan) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(TagOccurrences)
	if plan.SeriesID != "" {
		root.CreateAttr(AttrSeries, plan.SeriesID)
		root.CreateAttr(AttrRule, plan.Rule.String())
		root.CreateAttr(AttrTarget, plan.Target.String())
	}
	if plan.Truncated {
		root.CreateAttr(AttrTruncated, "true")
	}
	if plan.Warning != "" {
		root.CreateAttr(AttrWarning, string(plan.Warning))
	}

	for _, ev := range plan.Events {
		occ := root.CreateElement(TagOccurrence)
		occ.CreateAttr(AttrID, ev.ID)
		occ.SetText(ev.Date)
	}

	doc.Indent(2)
	return doc
}

// Occurrences is the parsed form of an <occurrences> document.
type Occurrences struct {
	SeriesID  string
	Truncated bool
	Warning   string
	Dates     []string
}

// Parse reads an <occurrences> document produced by ToXML.
func (o *Occurrences) Parse(doc *etree.Document) error {
	if doc == nil || doc.Root() == nil {
		return fmt.Errorf("empty document")
	}

	root := doc.Root()
	if root.Tag != TagOccurrences {
		return fmt.Errorf("invalid root tag: %s", root.Tag)
	}

	o.SeriesID = root.SelectAttrValue(AttrSeries, "")
	o.Warning = root.SelectAttrValue(AttrWarning, "")
	o.Truncated = false
	if v := root.SelectAttrValue(AttrTruncated, ""); v != "" {
		truncated, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s attribute: %w", AttrTruncated, err)
		}
		o.Truncated = truncated
	}

	o.Dates = nil
	for _, occ := range root.SelectElements(TagOccurrence) {
		o.Dates = append(o.Dates, strings.TrimSpace(occ.Text()))
	}
	return nil
}
