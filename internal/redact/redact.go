// Package redact masks high-risk PII before text reaches durable storage.
// The session buffer keeps raw text (it expires with its TTL); transcripts
// and summaries are kept forever and go through here first.
package redact

import "regexp"

// Each rule masks one class of identifier. Order matters: card numbers run
// before phone numbers so a long digit string is not half-claimed as a
// phone number.
var rules = []struct {
	mask string
	re   *regexp.Regexp
}{
	{"[email removed]", regexp.MustCompile(`\b[\w.%+\-]+@[\w\-]+(?:\.[\w\-]+)*\.[A-Za-z]{2,}\b`)},
	{"[card removed]", regexp.MustCompile(`\b(?:\d[ \-]*?){13,19}\b`)},
	{"[phone removed]", regexp.MustCompile(`\+?\d[\d\-() ]{7,}\d`)},
}

// PII replaces emails, card numbers and phone numbers with mask tokens.
func PII(input string) (redacted string, changed bool) {
	out := input
	for _, r := range rules {
		out = r.re.ReplaceAllString(out, r.mask)
	}
	return out, out != input
}
