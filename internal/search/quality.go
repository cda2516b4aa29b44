package search

import "regexp"

// transientPatterns flag content that describes a moment in time rather
// than a durable fact. Matches are advisory; nothing is rejected.
var transientPatterns = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`i-[0-9a-f]{17}`), "AWS instance ID"},
	{regexp.MustCompile(`\d+ resources? total`), "resource count"},
	{regexp.MustCompile(`(?i)(?:all|every)\b.{0,30}\bverified`), "verification receipt"},
	{regexp.MustCompile(`(?i)state (?:is )?clean`), "state observation"},
	{regexp.MustCompile(`(?i)(?:deployed|completed|applied) via`), "deployment receipt"},
	{regexp.MustCompile(`(?i)\bline \d+\b`), "line number reference"},
	{regexp.MustCompile(`\b\d{2,} lines\b`), "line count"},
	{regexp.MustCompile(`\b\w+:\d{2,}\b`), "function/symbol line reference"},
	{regexp.MustCompile(`\d+→\d+`), "line number correction"},
}

// CheckContentQuality scans content for transient patterns and returns a
// warning label per match.
func CheckContentQuality(content string) []string {
	warnings := []string{}
	for _, p := range transientPatterns {
		if p.re.MatchString(content) {
			warnings = append(warnings, p.label)
		}
	}
	return warnings
}
