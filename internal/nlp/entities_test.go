package nlp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityExtractor_Vocabulary(t *testing.T) {
	res := NewEntityExtractor().Extract("Wheat crop in Punjab needs irrigation")

	assert.Equal(t, []string{"Wheat"}, res.Entities[CategoryCrop])
	assert.Equal(t, []string{"Punjab"}, res.Entities[CategoryLocation])
	assert.Equal(t, []string{"irrigation"}, res.Entities[CategoryActivity])

	crop, ok := res.First(CategoryCrop)
	require.True(t, ok)
	assert.Equal(t, "wheat", crop.Normalized)
	assert.Equal(t, SourceDictionary, crop.Source)
	assert.Equal(t, 0, crop.Start)
	assert.Equal(t, 3, res.Count())
}

func TestEntityExtractor_Devanagari(t *testing.T) {
	res := NewEntityExtractor().Extract("पंजाब में गेहूं की बुवाई")

	assert.Equal(t, []string{"पंजाब"}, res.Entities[CategoryLocation])
	assert.Equal(t, []string{"गेहूं"}, res.Entities[CategoryCrop])
	assert.Equal(t, []string{"बुवाई"}, res.Entities[CategoryActivity])

	loc, _ := res.First(CategoryLocation)
	assert.Equal(t, "Punjab", loc.Normalized)
}

func TestEntityExtractor_Patterns(t *testing.T) {
	res := NewEntityExtractor().Extract("apply 50 kg urea per acre, cost ₹500 and 10% subsidy")
	assert.Equal(t, []string{"50 kg", "₹500", "10%"}, res.Entities[CategoryQuantity])

	res = NewEntityExtractor().Extract("rain tomorrow and next 3 days, sow by 15/06/2025")
	assert.Equal(t, []string{"tomorrow", "next 3 days", "15/06/2025"}, res.Entities[CategoryDate])
	assert.Equal(t, []string{"rain"}, res.Entities[CategoryWeather])
	assert.Equal(t, []string{"sow"}, res.Entities[CategoryActivity])
}

func TestEntityExtractor_LongestMatchAndWordBoundaries(t *testing.T) {
	res := NewEntityExtractor().Extract("green gram price in Uttar Pradesh")

	assert.Equal(t, []string{"green gram"}, res.Entities[CategoryCrop])
	assert.Equal(t, []string{"Uttar Pradesh"}, res.Entities[CategoryLocation])
	crop, _ := res.First(CategoryCrop)
	assert.Equal(t, "moong", crop.Normalized)

	res = NewEntityExtractor().Extract("what is the price today")
	assert.Empty(t, res.Entities[CategoryCrop], "price must not match rice")
}

func TestEntityExtractor_DeduplicatesExactSurfaces(t *testing.T) {
	res := NewEntityExtractor().Extract("wheat or Wheat or wheat")
	assert.Equal(t, []string{"wheat", "Wheat"}, res.Entities[CategoryCrop])
}

func TestEntityExtractor_OrderedByPosition(t *testing.T) {
	res := NewEntityExtractor().Extract("Spraying on cotton in Nagpur tomorrow")
	for i := 1; i < len(res.Details); i++ {
		assert.LessOrEqual(t, res.Details[i-1].Start, res.Details[i].Start)
	}
}

type fakeTagger struct{ name string }

func (f fakeTagger) Tag(text string) []Entity {
	idx := strings.Index(text, f.name)
	if idx < 0 {
		return nil
	}
	return []Entity{{Category: CategoryLocation, Text: f.name, Normalized: f.name, Confidence: 0.7, Source: SourceNER, Start: idx}}
}

func TestEntityExtractor_NERUnion(t *testing.T) {
	res := NewEntityExtractor(WithNER(fakeTagger{name: "Sangrur"})).Extract("wheat in Sangrur and Punjab")

	assert.Equal(t, []string{"Sangrur", "Punjab"}, res.Entities[CategoryLocation])
	loc, _ := res.First(CategoryLocation)
	assert.Equal(t, SourceNER, loc.Source)
}

func TestEntityExtractor_NERDoesNotRelabelVocabularyHits(t *testing.T) {
	res := NewEntityExtractor(WithNER(fakeTagger{name: "Wheat"})).Extract("Wheat crop in Punjab needs irrigation")

	assert.Equal(t, []string{"Wheat"}, res.Entities[CategoryCrop])
	assert.Equal(t, []string{"Punjab"}, res.Entities[CategoryLocation])
}

func TestEntityExtractor_ProseTagger(t *testing.T) {
	e := NewEntityExtractor(WithNER(ProseTagger{}))

	res := e.Extract("Wheat crop in Punjab needs irrigation")
	assert.Equal(t, []string{"Wheat"}, res.Entities[CategoryCrop])
	assert.Equal(t, []string{"Punjab"}, res.Entities[CategoryLocation])
	assert.Equal(t, []string{"irrigation"}, res.Entities[CategoryActivity])
	for _, ent := range res.Details {
		if ent.Source == SourceNER {
			assert.Equal(t, ent.Text, "Wheat crop in Punjab needs irrigation"[ent.Start:ent.Start+len(ent.Text)])
		}
	}
}

func TestEntityExtractor_Empty(t *testing.T) {
	res := NewEntityExtractor().Extract("")
	assert.Empty(t, res.Entities)
	assert.NotNil(t, res.Details)
	assert.Zero(t, res.Count())
}
