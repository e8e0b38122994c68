package nlp

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"id", "query", "primary_language", "is_code_mixed", "normalized_text",
	"primary_intent", "confidence", "confidence_level", "entities", "processing_time_ms",
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []*Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// WriteCSV writes one row per result. Entities are flattened to "category=a|b;category=c".
func WriteCSV(w io.Writer, results []*Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.ID,
			r.Query,
			string(r.PrimaryLanguage),
			strconv.FormatBool(r.IsCodeMixed),
			r.NormalizedText,
			string(r.PrimaryIntent),
			strconv.FormatFloat(r.IntentConfidence, 'f', 3, 64),
			r.ConfidenceLevel,
			flattenEntities(r.Entities),
			strconv.FormatFloat(r.ProcessingTimeMS, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func flattenEntities(ents map[EntityCategory][]string) string {
	var parts []string
	for _, cat := range Categories {
		if surfaces := ents[cat]; len(surfaces) > 0 {
			parts = append(parts, string(cat)+"="+strings.Join(surfaces, "|"))
		}
	}
	return strings.Join(parts, ";")
}
