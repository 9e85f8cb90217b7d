// Package coverage reads the line-rate fraction from a pre-existing
// Cobertura-style coverage report. The report is produced by the test suite,
// never by this tool; a missing report is a fatal precondition failure.
package coverage

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"

	fpgaerrors "gitlab.com/fpgadoc/fpgadoc/internal/errors"
)

// Summary is the interpreted result of one coverage report.
type Summary struct {
	// Percent is the rounded line coverage percentage.
	Percent int
	// High reports whether coverage clears the high-water threshold,
	// selecting the green badge variant.
	High bool
}

// xmlReport matches the root element of a Cobertura coverage XML file.
type xmlReport struct {
	XMLName  xml.Name `xml:"coverage"`
	LineRate float64  `xml:"line-rate,attr"`
}

// ParseLineRate extracts the line-rate fraction from the report at path.
func ParseLineRate(path string) (float64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, fpgaerrors.CoveragePreconditionError(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read coverage report: %w", err)
	}

	var report xmlReport
	if err := xml.Unmarshal(data, &report); err != nil {
		return 0, fmt.Errorf("failed to parse coverage report %s: %w", path, err)
	}
	if report.LineRate < 0 || report.LineRate > 1 {
		return 0, fmt.Errorf("coverage line-rate out of range: %v", report.LineRate)
	}
	return report.LineRate, nil
}

// Summarize converts a line-rate fraction into a Summary, failing when the
// percentage does not clear the minimum threshold.
func Summarize(rate float64, minimumPercent, highPercent int) (Summary, error) {
	percent := int(math.Round(rate * 100))
	if percent <= minimumPercent {
		return Summary{}, fpgaerrors.New(fpgaerrors.CategoryCoverage, fpgaerrors.SeverityFatal,
			fmt.Sprintf("coverage is way low: %d. Something is wrong.", percent))
	}
	return Summary{Percent: percent, High: percent > highPercent}, nil
}

// Load parses and summarizes the report at path in one step.
func Load(path string, minimumPercent, highPercent int) (Summary, error) {
	rate, err := ParseLineRate(path)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(rate, minimumPercent, highPercent)
}
