package nlp

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

type EntityCategory string

const (
	CategoryCrop     EntityCategory = "crop"
	CategoryLocation EntityCategory = "location"
	CategoryActivity EntityCategory = "activity"
	CategoryQuantity EntityCategory = "quantity"
	CategoryDate     EntityCategory = "date"
	CategoryWeather  EntityCategory = "weather"
)

// Categories lists every entity category in reporting order.
var Categories = []EntityCategory{
	CategoryCrop, CategoryLocation, CategoryActivity, CategoryQuantity, CategoryDate, CategoryWeather,
}

const (
	SourceDictionary = "dictionary"
	SourcePattern    = "pattern"
	SourceNER        = "ner"
)

type Entity struct {
	Category   EntityCategory `json:"category"`
	Text       string         `json:"text"`
	Normalized string         `json:"normalized"`
	Confidence float64        `json:"confidence"`
	Source     string         `json:"source"`
	Start      int            `json:"start"`
}

type EntityResult struct {
	Entities map[EntityCategory][]string `json:"entities"`
	Details  []Entity                    `json:"details"`
}

// First returns the first entity of a category.
func (r EntityResult) First(cat EntityCategory) (Entity, bool) {
	for _, e := range r.Details {
		if e.Category == cat {
			return e, true
		}
	}
	return Entity{}, false
}

// Count returns the number of consolidated entities.
func (r EntityResult) Count() int { return len(r.Details) }

// NERTagger finds named entities the vocabularies miss.
type NERTagger interface {
	Tag(text string) []Entity
}

type vocabHit struct {
	category  EntityCategory
	canonical string
}

type EntityExtractor struct {
	vocab    map[string][]vocabHit
	maxWords int
	patterns []categoryPattern
	ner      NERTagger
}

type categoryPattern struct {
	category EntityCategory
	re       *regexp.Regexp
}

var (
	quantityPattern = regexp.MustCompile(`(?i)(?:₹\s*\d[\d,]*(?:\.\d+)?|\brs\.?\s*\d[\d,]*(?:\.\d+)?|\b\d+(?:\.\d+)?\s*%|\b\d+(?:\.\d+)?\s*(?:kgs?|kilograms?|quintals?|qtls?|tonnes?|tons?|acres?|hectares?|ha|bighas?|litres?|liters?|ml|bags?|percent|rupees)\b)`)
	datePattern     = regexp.MustCompile(`(?i)(?:\b\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\b|\b(?:next|last|past|coming)\s+\d+\s+(?:days?|weeks?|months?)\b|\bin\s+\d+\s+days?\b)`)
	wordPattern     = regexp.MustCompile(`[\p{L}\p{M}\p{N}]+`)
)

type EntityOption func(*EntityExtractor)

// WithNER adds tagger output that does not overlap a vocabulary or pattern match.
func WithNER(t NERTagger) EntityOption {
	return func(e *EntityExtractor) { e.ner = t }
}

func NewEntityExtractor(opts ...EntityOption) *EntityExtractor {
	e := &EntityExtractor{
		vocab: make(map[string][]vocabHit),
		patterns: []categoryPattern{
			{category: CategoryQuantity, re: quantityPattern},
			{category: CategoryDate, re: datePattern},
		},
	}
	for cat, entries := range map[EntityCategory][]vocabEntry{
		CategoryCrop:     cropVocabulary,
		CategoryLocation: locationVocabulary,
		CategoryActivity: activityVocabulary,
		CategoryWeather:  weatherVocabulary,
		CategoryDate:     dateVocabulary,
	} {
		for _, entry := range entries {
			for _, surface := range entry.surfaces {
				key := vocabKey(surface)
				if n := len(strings.Fields(key)); n > e.maxWords {
					e.maxWords = n
				}
				e.vocab[key] = append(e.vocab[key], vocabHit{category: cat, canonical: entry.canonical})
			}
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func vocabKey(s string) string {
	words := wordPattern.FindAllString(strings.ToLower(s), -1)
	return strings.Join(words, " ")
}

// Extract finds entities in text. Surface forms keep their original casing.
func (e *EntityExtractor) Extract(text string) EntityResult {
	var found []Entity
	var claimed [][2]int
	for _, ent := range e.matchVocabulary(text) {
		found = append(found, ent)
		claimed = append(claimed, [2]int{ent.Start, ent.Start + len(ent.Text)})
	}
	for _, p := range e.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			surface := strings.TrimSpace(text[loc[0]:loc[1]])
			claimed = append(claimed, [2]int{loc[0], loc[1]})
			found = append(found, Entity{
				Category:   p.category,
				Text:       surface,
				Normalized: strings.ToLower(strings.Join(strings.Fields(surface), " ")),
				Confidence: 0.8,
				Source:     SourcePattern,
				Start:      loc[0],
			})
		}
	}
	if e.ner != nil {
		for _, ent := range e.ner.Tag(text) {
			if !overlapsAny(ent.Start, ent.Start+len(ent.Text), claimed) {
				found = append(found, ent)
			}
		}
	}
	return consolidate(found)
}

// overlapsAny reports whether [start, end) intersects one of the spans.
func overlapsAny(start, end int, spans [][2]int) bool {
	for _, sp := range spans {
		if start < sp[1] && sp[0] < end {
			return true
		}
	}
	return false
}

// matchVocabulary walks word spans and takes the longest dictionary match at each position.
func (e *EntityExtractor) matchVocabulary(text string) []Entity {
	spans := wordPattern.FindAllStringIndex(text, -1)
	var out []Entity
	for i := 0; i < len(spans); {
		matched := 0
		for n := min(e.maxWords, len(spans)-i); n >= 1; n-- {
			words := make([]string, n)
			for j := 0; j < n; j++ {
				words[j] = strings.ToLower(text[spans[i+j][0]:spans[i+j][1]])
			}
			hits, ok := e.vocab[strings.Join(words, " ")]
			if !ok {
				continue
			}
			start, end := spans[i][0], spans[i+n-1][1]
			for _, h := range hits {
				out = append(out, Entity{
					Category:   h.category,
					Text:       text[start:end],
					Normalized: h.canonical,
					Confidence: 0.9,
					Source:     SourceDictionary,
					Start:      start,
				})
			}
			matched = n
			break
		}
		if matched == 0 {
			matched = 1
		}
		i += matched
	}
	return out
}

// consolidate orders entities by position and drops exact duplicate surfaces per category.
func consolidate(found []Entity) EntityResult {
	sort.SliceStable(found, func(i, j int) bool { return found[i].Start < found[j].Start })

	res := EntityResult{Entities: make(map[EntityCategory][]string), Details: []Entity{}}
	seen := make(map[EntityCategory]map[string]struct{})
	for _, ent := range found {
		if ent.Text == "" {
			continue
		}
		if seen[ent.Category] == nil {
			seen[ent.Category] = make(map[string]struct{})
		}
		if _, dup := seen[ent.Category][ent.Text]; dup {
			continue
		}
		seen[ent.Category][ent.Text] = struct{}{}
		res.Entities[ent.Category] = append(res.Entities[ent.Category], ent.Text)
		res.Details = append(res.Details, ent)
	}
	return res
}

// ProseTagger maps prose GPE entities to locations.
type ProseTagger struct{}

func (ProseTagger) Tag(text string) []Entity {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil
	}
	var out []Entity
	offset := 0
	for _, ent := range doc.Entities() {
		if ent.Label != "GPE" || !startsUpper(ent.Text) {
			continue
		}
		idx := strings.Index(text[offset:], ent.Text)
		if idx < 0 {
			idx = strings.Index(text, ent.Text)
		} else {
			idx += offset
			offset = idx + len(ent.Text)
		}
		if idx < 0 {
			continue
		}
		out = append(out, Entity{
			Category:   CategoryLocation,
			Text:       ent.Text,
			Normalized: ent.Text,
			Confidence: 0.7,
			Source:     SourceNER,
			Start:      idx,
		})
	}
	return out
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
