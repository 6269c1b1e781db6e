package pfsurvey

import (
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// tableDelimiters are the only delimiters a table set is ever written with.
// The detector also proposes punctuation found inside values (e.g. the '-' in
// "p-value"), which is never a real delimiter for our files.
var tableDelimiters = []rune{',', '\t', ';', '|'}

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file. If no candidate is found,
// fallback is returned.
func DetermineDelimiter(r io.Reader, fallback rune) (rune, error) {
	sample, err := io.ReadAll(r)
	if err != nil {
		return fallback, err
	}

	return DetermineDelimiterBytes(sample, fallback), nil
}

// DetermineDelimiterBytes is DetermineDelimiter over an in-memory sample.
func DetermineDelimiterBytes(sample []byte, fallback rune) rune {
	d := detector.New()
	candidates := d.DetectDelimiter(bytes.NewReader(sample), '"')

	header := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		header = sample[:i]
	}

	best, bestCount := fallback, 0
	for _, c := range candidates {
		if len(c) != 1 || !isTableDelimiter(rune(c[0])) {
			continue
		}
		if n := bytes.Count(header, []byte(c)); n > bestCount {
			best, bestCount = rune(c[0]), n
		}
	}
	if bestCount > 0 {
		return best
	}

	// Small samples (a header plus a row or two) give the detector too little
	// to go on, so fall back to the most frequent delimiter in the header
	for _, r := range tableDelimiters {
		if n := bytes.Count(header, []byte(string(r))); n > bestCount {
			best, bestCount = r, n
		}
	}

	return best
}

func isTableDelimiter(r rune) bool {
	for _, d := range tableDelimiters {
		if d == r {
			return true
		}
	}
	return false
}
