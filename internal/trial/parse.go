package trial

import (
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

var ErrNoReportLine = errors.New("no \"Time taken for tests\" line in load tool output")

// reportLine matches the elapsed-time line of an ApacheBench report:
//
//	match  := "time" ws+ "taken" ws+ "for" ws+ "tests" ws* ":" ws* number ws* "seconds"
//	number := digit* "."? digit+
//
// Matching is case-insensitive, may start anywhere in the output, and the
// first occurrence wins.
var reportLine = regexp.MustCompile(`(?i)time\s+taken\s+for\s+tests\s*:\s*([0-9]*\.?[0-9]+)\s*seconds`)

// ParseElapsed extracts the elapsed seconds from a load tool report.
func ParseElapsed(output string) (float64, error) {
	m := reportLine.FindStringSubmatch(output)
	if m == nil {
		return 0, ErrNoReportLine
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing elapsed time %q", m[1])
	}
	return v, nil
}
