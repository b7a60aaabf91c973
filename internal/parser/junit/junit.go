// Package junit decodes JUnit-style test-run XML into the normalized test
// document model.
package junit

import (
	"encoding/xml"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/reportcard-dev/reportcard/internal/parser"
	"github.com/reportcard-dev/reportcard/internal/summary"
)

// Numeric attributes are decoded as strings and converted with degrading
// helpers so one bad value never aborts the document.
type xmlTestSuites struct {
	XMLName xml.Name       `xml:"testsuites"`
	Suites  []xmlTestSuite `xml:"testsuite"`
}

type xmlTestSuite struct {
	Name     string         `xml:"name,attr"`
	Cases    []xmlTestCase  `xml:"testcase"`
	Children []xmlTestSuite `xml:"testsuite"`
}

type xmlTestCase struct {
	Name      string      `xml:"name,attr"`
	ClassName string      `xml:"classname,attr"`
	Time      string      `xml:"time,attr"`
	Failure   *xmlFailure `xml:"failure"`
	Error     *xmlFailure `xml:"error"`
	Skipped   *xmlSkipped `xml:"skipped"`
}

type xmlFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

type xmlSkipped struct {
	Message string `xml:"message,attr"`
}

type xmlSuiteRoot struct {
	XMLName xml.Name `xml:"testsuite"`
	xmlTestSuite
}

// Parse decodes one test-run XML report. It accepts both a <testsuites>
// root and a bare <testsuite> root. A missing or foreign root element is a
// document-level MalformedDocument failure; malformed individual cases are
// skipped and the rest of the document still contributes.
func Parse(data []byte) (*summary.TestDocument, error) {
	root := &xmlTestSuites{}
	if err := xml.Unmarshal(data, root); err != nil {
		// Older producers emit a single top-level <testsuite>.
		single := &xmlSuiteRoot{}
		if err2 := xml.Unmarshal(data, single); err2 != nil {
			return nil, parser.NewError(parser.MalformedDocument, err)
		}
		root.Suites = []xmlTestSuite{single.xmlTestSuite}
	}

	doc := &summary.TestDocument{Cases: []summary.TestCase{}}
	for _, suite := range root.Suites {
		collectSuite(doc, suite, suite.Name)
	}
	return doc, nil
}

func collectSuite(doc *summary.TestDocument, suite xmlTestSuite, name string) {
	for _, c := range suite.Cases {
		tc, ok := convertCase(c, name)
		if !ok {
			log.Debugf("skipping malformed test case in suite %q", name)
			continue
		}
		doc.Cases = append(doc.Cases, tc)
	}
	for _, child := range suite.Children {
		childName := child.Name
		if childName == "" {
			childName = name
		}
		collectSuite(doc, child, childName)
	}
}

func convertCase(c xmlTestCase, suiteName string) (summary.TestCase, bool) {
	if c.Name == "" {
		return summary.TestCase{}, false
	}
	if suiteName == "" {
		suiteName = c.ClassName
	}
	tc := summary.TestCase{
		Suite:    suiteName,
		Name:     c.Name,
		Status:   summary.TestStatusPassed,
		Duration: parseSeconds(c.Time),
	}
	switch {
	case c.Skipped != nil:
		tc.Status = summary.TestStatusSkipped
	case c.Failure != nil:
		tc.Status = summary.TestStatusFailed
		tc.FailureMessage = failureMessage(c.Failure)
	case c.Error != nil:
		tc.Status = summary.TestStatusFailed
		tc.FailureMessage = failureMessage(c.Error)
	}
	return tc, true
}

func failureMessage(f *xmlFailure) string {
	if f.Message != "" {
		return f.Message
	}
	return strings.TrimSpace(f.Body)
}

// parseSeconds converts a duration attribute, degrading non-numeric or
// negative values to zero to keep forward progress on mostly-good reports.
func parseSeconds(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
