package intent

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "am": {}, "of": {}, "in": {}, "on": {}, "for": {},
	"to": {}, "and": {}, "or": {}, "my": {}, "me": {}, "i": {}, "it": {}, "this": {}, "that": {}, "at": {},
	"be": {}, "do": {}, "does": {}, "there": {}, "any": {}, "some": {}, "with": {}, "by": {}, "from": {},
	"what": {}, "which": {}, "can": {}, "will": {},
}

// tokenize lowercases, splits on non-letters and adds adjacent-word bigrams.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsDigit(r)
	})
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; !stop {
			kept = append(kept, w)
		}
	}
	out := make([]string, 0, 2*len(kept))
	out = append(out, kept...)
	for i := 0; i+1 < len(kept); i++ {
		out = append(out, kept[i]+" "+kept[i+1])
	}
	return out
}

// BayesScorer is a multinomial naive Bayes classifier over TF-IDF weighted terms.
type BayesScorer struct {
	idf       map[string]float64
	logPrior  map[Intent]float64
	logLike   map[Intent]map[string]float64
	logUnseen map[Intent]float64
}

// TrainBayes fits the model with Laplace smoothing.
func TrainBayes(examples []Example) (*BayesScorer, error) {
	if len(examples) == 0 {
		return nil, errors.New("naive bayes needs at least one training example")
	}

	docs := make([][]string, len(examples))
	df := make(map[string]int)
	for i, ex := range examples {
		docs[i] = tokenize(ex.Text)
		seen := make(map[string]struct{})
		for _, t := range docs[i] {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	n := float64(len(examples))
	idf := make(map[string]float64, len(df))
	for t, c := range df {
		idf[t] = math.Log((1+n)/(1+float64(c))) + 1
	}

	classCount := make(map[Intent]int)
	weights := make(map[Intent]map[string]float64)
	totals := make(map[Intent]float64)
	for i, ex := range examples {
		classCount[ex.Intent]++
		if weights[ex.Intent] == nil {
			weights[ex.Intent] = make(map[string]float64)
		}
		for t, w := range tfidf(docs[i], idf) {
			weights[ex.Intent][t] += w
			totals[ex.Intent] += w
		}
	}

	const alpha = 1.0
	vocab := float64(len(idf))
	b := &BayesScorer{
		idf:       idf,
		logPrior:  make(map[Intent]float64),
		logLike:   make(map[Intent]map[string]float64),
		logUnseen: make(map[Intent]float64),
	}
	for _, in := range All {
		if classCount[in] == 0 {
			continue
		}
		denom := totals[in] + alpha*vocab
		b.logPrior[in] = math.Log(float64(classCount[in]) / n)
		b.logUnseen[in] = math.Log(alpha / denom)
		b.logLike[in] = make(map[string]float64, len(weights[in]))
		for t, w := range weights[in] {
			b.logLike[in][t] = math.Log((w + alpha) / denom)
		}
	}
	return b, nil
}

func tfidf(tokens []string, idf map[string]float64) map[string]float64 {
	tf := make(map[string]float64)
	for _, t := range tokens {
		if _, ok := idf[t]; ok {
			tf[t]++
		}
	}
	var norm float64
	for _, t := range sortedTerms(tf) {
		tf[t] *= idf[t]
		norm += tf[t] * tf[t]
	}
	if norm == 0 {
		return tf
	}
	norm = math.Sqrt(norm)
	for t := range tf {
		tf[t] /= norm
	}
	return tf
}

// sortedTerms fixes summation order so repeated calls give bit-identical scores.
func sortedTerms(m map[string]float64) []string {
	terms := make([]string, 0, len(m))
	for t := range m {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

func (b *BayesScorer) Name() string { return "ml" }

// Score returns posterior probabilities, or no signal when no term is known.
func (b *BayesScorer) Score(_ context.Context, text string) (Scores, error) {
	features := tfidf(tokenize(text), b.idf)
	if len(features) == 0 {
		return nil, nil
	}

	terms := sortedTerms(features)

	logPost := make(map[Intent]float64, len(b.logPrior))
	maxLog := math.Inf(-1)
	for in, prior := range b.logPrior {
		lp := prior
		for _, t := range terms {
			ll, ok := b.logLike[in][t]
			if !ok {
				ll = b.logUnseen[in]
			}
			lp += features[t] * ll
		}
		logPost[in] = lp
		if lp > maxLog {
			maxLog = lp
		}
	}

	out := make(Scores, len(logPost))
	for in, lp := range logPost {
		out[in] = math.Exp(lp - maxLog)
	}
	return out.Normalize(), nil
}
