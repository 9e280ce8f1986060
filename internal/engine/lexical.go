package engine

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Defaults for the lexical vector space.
const (
	defaultMaxFeatures = 5000
	defaultNgramMin    = 1
	defaultNgramMax    = 3
)

// LexicalOptions configures the TF-IDF vector space.
type LexicalOptions struct {
	// MaxFeatures caps the vocabulary at the terms with the highest collection
	// frequency. Trimming is deterministic: count descending, term ascending.
	MaxFeatures int
	// NgramMin and NgramMax bound the word n-gram sizes used as terms.
	NgramMin int
	NgramMax int
	// StopWords selects a stop list applied before n-gram construction:
	// StopWordsEnglish or StopWordsNone.
	StopWords string
}

func (o LexicalOptions) withDefaults() LexicalOptions {
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = defaultMaxFeatures
	}
	if o.NgramMin <= 0 {
		o.NgramMin = defaultNgramMin
	}
	if o.NgramMax <= 0 {
		o.NgramMax = defaultNgramMax
	}
	if o.NgramMax < o.NgramMin {
		o.NgramMax = o.NgramMin
	}
	return o
}

// lexicalModel is the TF-IDF vector space fitted over one corpus snapshot.
// Weights are raw term frequency times smoothed IDF, idf = ln((N+1)/(df+1))+1,
// with document frequency counted over exactly the fitted texts.
type lexicalModel struct {
	opts    LexicalOptions
	idf     map[string]float64
	vectors []map[string]float64 // parallel to the fitted texts
	norms   []float64
}

// fitLexical builds the vector space over the given texts. Texts must already
// be normalized; fitting the same texts in the same order always yields the
// same model.
func fitLexical(texts []string, opts LexicalOptions) *lexicalModel {
	m := &lexicalModel{
		opts: opts.withDefaults(),
		idf:  make(map[string]float64),
	}

	termCounts := make([]map[string]float64, len(texts))
	collection := make(map[string]float64)
	df := make(map[string]int)
	for i, text := range texts {
		tf := make(map[string]float64)
		for _, term := range m.terms(text) {
			tf[term]++
			collection[term]++
		}
		for term := range tf {
			df[term]++
		}
		termCounts[i] = tf
	}

	vocab := selectVocabulary(collection, m.opts.MaxFeatures)
	n := float64(len(texts))
	for term := range vocab {
		m.idf[term] = math.Log((n+1)/(float64(df[term])+1)) + 1
	}

	m.vectors = make([]map[string]float64, len(texts))
	m.norms = make([]float64, len(texts))
	for i, tf := range termCounts {
		vec := make(map[string]float64, len(tf))
		var sum float64
		for term, freq := range tf {
			idf, ok := m.idf[term]
			if !ok {
				continue
			}
			w := freq * idf
			vec[term] = w
			sum += w * w
		}
		m.vectors[i] = vec
		m.norms[i] = math.Sqrt(sum)
	}
	return m
}

// vectorize builds the query's weight vector against the fitted vocabulary
// and returns it with its magnitude. Terms outside the vocabulary contribute
// zero weight; a fully out-of-vocabulary query yields magnitude 0.
func (m *lexicalModel) vectorize(text string) (map[string]float64, float64) {
	vec := make(map[string]float64)
	for _, term := range m.terms(text) {
		if _, ok := m.idf[term]; ok {
			vec[term]++
		}
	}
	var sum float64
	for term, freq := range vec {
		w := freq * m.idf[term]
		vec[term] = w
		sum += w * w
	}
	return vec, math.Sqrt(sum)
}

// score returns the cosine similarity between a vectorized query and fitted
// entry i. Zero-magnitude vectors on either side score 0.
func (m *lexicalModel) score(qvec map[string]float64, qnorm float64, i int) float64 {
	if qnorm == 0 || m.norms[i] == 0 {
		return 0
	}
	var dot float64
	entry := m.vectors[i]
	for term, qw := range qvec {
		if ew, ok := entry[term]; ok {
			dot += qw * ew
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (qnorm * m.norms[i])
}

// vocabularySize returns the number of fitted terms.
func (m *lexicalModel) vocabularySize() int {
	return len(m.idf)
}

// terms extracts the word n-gram terms of a normalized text.
func (m *lexicalModel) terms(text string) []string {
	tokens := tokenize(text)
	if m.opts.StopWords == StopWordsEnglish {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, stop := englishStopWords[tok]; !stop {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}
	if m.opts.NgramMin == 1 && m.opts.NgramMax == 1 {
		return tokens
	}
	var out []string
	for n := m.opts.NgramMin; n <= m.opts.NgramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// tokenize splits normalized text into tokens of at least two runes. Token
// boundaries are runs of anything that is not a Unicode letter or digit, so
// non-Latin scripts (Devanagari, CJK word blocks, Cyrillic) tokenize too.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// selectVocabulary keeps the max terms with the highest collection frequency.
// Ties are broken by term order so trimming is deterministic.
func selectVocabulary(collection map[string]float64, max int) map[string]struct{} {
	vocab := make(map[string]struct{}, len(collection))
	if len(collection) <= max {
		for term := range collection {
			vocab[term] = struct{}{}
		}
		return vocab
	}
	type termCount struct {
		term  string
		count float64
	}
	ranked := make([]termCount, 0, len(collection))
	for term, count := range collection {
		ranked = append(ranked, termCount{term: term, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].term < ranked[j].term
	})
	for _, tc := range ranked[:max] {
		vocab[tc.term] = struct{}{}
	}
	return vocab
}
