package model

import "strings"

// SegmentKind distinguishes system framing from user content in a payload
type SegmentKind string

const (
	SegmentInstruction SegmentKind = "instruction"
	SegmentQuestion    SegmentKind = "question"
)

// Segment labels as they appear in rendered prompts
const (
	InstructionLabel = "System Context"
	QuestionLabel    = "User Question"
)

// PromptSegment is one labeled part of a prompt payload
type PromptSegment struct {
	Kind  SegmentKind `json:"kind"`
	Label string      `json:"label"`
	Text  string      `json:"text"`
}

// PromptPayload is the single-turn request handed to a generation backend
type PromptPayload struct {
	Segments []PromptSegment `json:"segments"`
	Grounded bool            `json:"grounded"` // false when no country data was available
}

// Instruction returns the text of the instruction segment
func (p PromptPayload) Instruction() string {
	return p.segment(SegmentInstruction)
}

// Question returns the text of the question segment
func (p PromptPayload) Question() string {
	return p.segment(SegmentQuestion)
}

func (p PromptPayload) segment(kind SegmentKind) string {
	for _, s := range p.Segments {
		if s.Kind == kind {
			return s.Text
		}
	}
	return ""
}

// Render joins the segments as labeled blocks for backends that accept a
// single prompt string
func (p PromptPayload) Render() string {
	parts := make([]string, 0, len(p.Segments))
	for _, s := range p.Segments {
		parts = append(parts, s.Label+": "+s.Text)
	}
	return strings.Join(parts, "\n\n")
}
