package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/globechat/internal/model"
)

// NoCountryInstruction is used when no grounding data is available
const NoCountryInstruction = "User has not selected a country. Politely ask them to click a country on the globe first. Keep it to one short sentence."

const groundedTemplate = `You are an expert Research Analyst.

Data for **%s**:
%s

STRICT RULES:
1. **KEEP IT SHORT.** Maximum 3 sentences or 3 short bullet points.
2. **NO FLUFF.** Go straight to the answer. Do not say "Based on the data..." or "Here is the info...".
3. If asked for the top field, just name it and give the number.
4. If asked for trends or reasons, give exactly one specific, concrete insight.
5. Do not use any formatting except bold for key terms.`

// Compose builds the payload for a question. With a digest the instruction
// frames the generator as a research analyst, embeds the serialized digest
// and lists the output rules. Without one it asks the generator to prompt
// the user to pick a country. The question is passed through untouched as
// its own segment.
func Compose(question string, digest *model.ContextDigest) model.PromptPayload {
	instruction := NoCountryInstruction
	grounded := false

	if digest != nil {
		instruction = fmt.Sprintf(groundedTemplate, digest.Country, SerializeDigest(*digest))
		grounded = true
	}

	return model.PromptPayload{
		Segments: []model.PromptSegment{
			{Kind: model.SegmentInstruction, Label: model.InstructionLabel, Text: instruction},
			{Kind: model.SegmentQuestion, Label: model.QuestionLabel, Text: question},
		},
		Grounded: grounded,
	}
}

// ComposeFor summarizes a record (which may be nil) and composes the payload
func ComposeFor(question string, record *model.StatisticsRecord) model.PromptPayload {
	return Compose(question, Summarize(record))
}

// SerializeDigest renders a digest as compact JSON. Nil slices are written
// as empty arrays so the generator always sees both keys.
func SerializeDigest(digest model.ContextDigest) string {
	if digest.TopAreas == nil {
		digest.TopAreas = []model.Subfield{}
	}
	if digest.Specializations == nil {
		digest.Specializations = []model.UniqueSubfield{}
	}

	// Marshal cannot fail for these plain value types
	data, _ := json.Marshal(digest)
	return string(data)
}
