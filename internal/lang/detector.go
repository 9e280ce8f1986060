// Package lang provides best-effort language detection for user queries.
package lang

import "github.com/abadojack/whatlanggo"

// Detector guesses the language of free text. Detection on short strings is
// unreliable by nature; results are advisory metadata, never a filter.
type Detector struct {
	fallback string
}

// NewDetector returns a detector that falls back to the given ISO-639-1 code
// when detection cannot produce one (no recognizable script, or a language
// without a 639-1 code). An empty fallback defaults to "en".
func NewDetector(fallback string) *Detector {
	if fallback == "" {
		fallback = "en"
	}
	return &Detector{fallback: fallback}
}

// Detect returns the best-guess ISO-639-1 code for text. Input is assumed
// non-empty; callers validate emptiness before calling.
func (d *Detector) Detect(text string) string {
	info := whatlanggo.Detect(text)
	if info.Lang < 0 {
		return d.fallback
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return d.fallback
	}
	return code
}

// Fallback returns the code Detect uses when detection fails.
func (d *Detector) Fallback() string {
	return d.fallback
}
