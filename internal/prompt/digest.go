// Package prompt turns country statistics and a user question into a
// grounded, size-bounded prompt payload.
package prompt

import "github.com/ppiankov/globechat/internal/model"

// Summarize reduces a record to the bounded digest included in prompts.
// It keeps the first MaxTopAreas top subfields and the first
// MaxSpecializations unique subfields in source order. Nothing is reordered
// or re-ranked; upstream data is already sorted by relevance.
// A nil record yields a nil digest.
func Summarize(record *model.StatisticsRecord) *model.ContextDigest {
	if record == nil {
		return nil
	}

	topAreas := make([]model.Subfield, 0, model.MaxTopAreas)
	for i, sf := range record.TopSubfields {
		if i >= model.MaxTopAreas {
			break
		}
		topAreas = append(topAreas, sf)
	}

	specializations := make([]model.UniqueSubfield, 0, model.MaxSpecializations)
	for i, sf := range record.UniqueSubfields {
		if i >= model.MaxSpecializations {
			break
		}
		specializations = append(specializations, sf)
	}

	return &model.ContextDigest{
		Country:         record.CountryName,
		TopAreas:        topAreas,
		Specializations: specializations,
	}
}
