package model

// StatisticsRecord is the precomputed research profile of one country
// The JSON shape matches the dataset produced by the offline pipeline
type StatisticsRecord struct {
	CountryName     string                  `json:"countryName" yaml:"countryName"`
	CountryCode     string                  `json:"countryCode" yaml:"countryCode"`
	TopSubfields    []Subfield              `json:"topSubfields" yaml:"topSubfields"`       // Ordered by volume upstream
	UniqueSubfields []UniqueSubfield        `json:"uniqueSubfields" yaml:"uniqueSubfields"` // Ordered by score upstream
	Trends          map[string][]TrendPoint `json:"trends" yaml:"trends"`                   // Topic name -> yearly volume
}

// Subfield is a research subfield with its publication volume
type Subfield struct {
	Name       string `json:"name" yaml:"name"`
	TotalWorks int    `json:"totalWorks" yaml:"totalWorks"`
}

// UniqueSubfield is a subfield in which the country is unusually specialized
type UniqueSubfield struct {
	Name       string  `json:"name" yaml:"name"`
	TotalWorks int     `json:"totalWorks" yaml:"totalWorks"`
	Score      float64 `json:"score" yaml:"score"`
}

// TrendPoint is the volume of a topic in a single year
type TrendPoint struct {
	Year   int `json:"year" yaml:"year"`
	Volume int `json:"volume" yaml:"volume"`
}

// Digest bounds used when a record is reduced for a prompt
const (
	MaxTopAreas        = 5
	MaxSpecializations = 3
)

// ContextDigest is the bounded view of a record that is sent to the generator
type ContextDigest struct {
	Country         string           `json:"country"`
	TopAreas        []Subfield       `json:"top_areas"`
	Specializations []UniqueSubfield `json:"specializations"`
}

// Clone returns a deep copy of the record
func (r StatisticsRecord) Clone() StatisticsRecord {
	out := StatisticsRecord{
		CountryName: r.CountryName,
		CountryCode: r.CountryCode,
	}
	if r.TopSubfields != nil {
		out.TopSubfields = append([]Subfield(nil), r.TopSubfields...)
	}
	if r.UniqueSubfields != nil {
		out.UniqueSubfields = append([]UniqueSubfield(nil), r.UniqueSubfields...)
	}
	if r.Trends != nil {
		out.Trends = make(map[string][]TrendPoint, len(r.Trends))
		for topic, points := range r.Trends {
			out.Trends[topic] = append([]TrendPoint(nil), points...)
		}
	}
	return out
}

// Bounded returns a copy holding only what a digest can use: the first
// MaxTopAreas top subfields, the first MaxSpecializations unique subfields
// and no trends. Clients use it to keep request bodies small.
func (r StatisticsRecord) Bounded() StatisticsRecord {
	out := StatisticsRecord{
		CountryName: r.CountryName,
		CountryCode: r.CountryCode,
	}
	if r.TopSubfields != nil {
		out.TopSubfields = append([]Subfield(nil), r.TopSubfields[:min(len(r.TopSubfields), MaxTopAreas)]...)
	}
	if r.UniqueSubfields != nil {
		out.UniqueSubfields = append([]UniqueSubfield(nil), r.UniqueSubfields[:min(len(r.UniqueSubfields), MaxSpecializations)]...)
	}
	return out
}
