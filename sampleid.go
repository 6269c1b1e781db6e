package pfsurvey

import "strings"

// SampleID derives a sample identifier from a result file name. Pipelines
// encode no identifier scheme, so the identifier is simply the base name with
// each of the given suffixes removed, in order.
func SampleID(path string, remove ...string) string {
	id := Base(path)
	for _, r := range remove {
		id = strings.TrimSuffix(id, r)
	}

	return id
}

// RetainFiles keeps the paths whose base name contains substr.
func RetainFiles(paths []string, substr string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.Contains(Base(p), substr) {
			out = append(out, p)
		}
	}

	return out
}
