// Package clover decodes Clover-style coverage XML into the normalized
// coverage document model. Rates are always recomputed from the covered/total
// counters, never trusted from the document.
package clover

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/reportcard-dev/reportcard/internal/parser"
	"github.com/reportcard-dev/reportcard/internal/summary"
)

type xmlCoverage struct {
	XMLName xml.Name    `xml:"coverage"`
	Project *xmlProject `xml:"project"`
}

type xmlProject struct {
	Name     string       `xml:"name,attr"`
	Files    []xmlFile    `xml:"file"`
	Packages []xmlPackage `xml:"package"`
}

type xmlPackage struct {
	Name  string    `xml:"name,attr"`
	Files []xmlFile `xml:"file"`
}

type xmlFile struct {
	Name    string      `xml:"name,attr"`
	Path    string      `xml:"path,attr"`
	Metrics *xmlMetrics `xml:"metrics"`
	Lines   []xmlLine   `xml:"line"`
}

type xmlMetrics struct {
	Statements          string `xml:"statements,attr"`
	CoveredStatements   string `xml:"coveredstatements,attr"`
	Conditionals        string `xml:"conditionals,attr"`
	CoveredConditionals string `xml:"coveredconditionals,attr"`
	Methods             string `xml:"methods,attr"`
	CoveredMethods      string `xml:"coveredmethods,attr"`
}

type xmlLine struct {
	Num        string `xml:"num,attr"`
	Type       string `xml:"type,attr"`
	Count      string `xml:"count,attr"`
	TrueCount  string `xml:"truecount,attr"`
	FalseCount string `xml:"falsecount,attr"`
}

// Parse decodes one coverage XML report. The coverage and project elements
// are structurally required; everything below them is optional and defaults
// to zero values.
func Parse(data []byte) (*summary.CoverageDocument, error) {
	root := &xmlCoverage{}
	if err := xml.Unmarshal(data, root); err != nil {
		return nil, parser.NewError(parser.MissingRootElement, err)
	}
	if root.Project == nil {
		return nil, parser.NewError(parser.MissingRootElement, nil)
	}

	doc := &summary.CoverageDocument{Files: []summary.FileCoverage{}}
	for _, f := range root.Project.Files {
		doc.Files = append(doc.Files, convertFile(f))
	}
	for _, p := range root.Project.Packages {
		for _, f := range p.Files {
			doc.Files = append(doc.Files, convertFile(f))
		}
	}
	return doc, nil
}

func convertFile(f xmlFile) summary.FileCoverage {
	fc := summary.FileCoverage{
		Name:  f.Name,
		Path:  f.Path,
		Lines: make([]summary.LineRecord, 0, len(f.Lines)),
	}
	if fc.Path == "" {
		fc.Path = f.Name
	}

	for _, l := range f.Lines {
		rec := summary.LineRecord{
			Number:    parseCount(l.Num),
			Hits:      parseCount(l.Count),
			Kind:      lineKind(l.Type),
			TrueHits:  parseCount(l.TrueCount),
			FalseHits: parseCount(l.FalseCount),
		}
		fc.Lines = append(fc.Lines, rec)
	}

	if f.Metrics != nil {
		fc.Statements = parseCount(f.Metrics.Statements)
		fc.StatementsCovered = parseCount(f.Metrics.CoveredStatements)
		fc.Conditionals = parseCount(f.Metrics.Conditionals)
		fc.ConditionalsCovered = parseCount(f.Metrics.CoveredConditionals)
		fc.Methods = parseCount(f.Metrics.Methods)
		fc.MethodsCovered = parseCount(f.Metrics.CoveredMethods)
	} else {
		tallyLines(&fc)
	}

	fc.LineRate = summary.Rate(fc.StatementsCovered, fc.Statements)
	fc.BranchRate = summary.Rate(fc.ConditionalsCovered, fc.Conditionals)
	return fc
}

// tallyLines derives the counters from the line records when the document
// carries no metrics element.
func tallyLines(fc *summary.FileCoverage) {
	for _, l := range fc.Lines {
		switch l.Kind {
		case summary.LineKindConditional:
			fc.Conditionals++
			if l.TrueHits > 0 || l.FalseHits > 0 || l.Hits > 0 {
				fc.ConditionalsCovered++
			}
		case summary.LineKindMethod:
			fc.Methods++
			if l.Hits > 0 {
				fc.MethodsCovered++
			}
		default:
			fc.Statements++
			if l.Hits > 0 {
				fc.StatementsCovered++
			}
		}
	}
}

func lineKind(raw string) summary.LineKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cond", "conditional":
		return summary.LineKindConditional
	case "method":
		return summary.LineKindMethod
	default:
		return summary.LineKindStatement
	}
}

// parseCount converts a counter attribute, degrading non-numeric or negative
// values to zero.
func parseCount(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(v)
}
