package render

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ppiankov/globechat/internal/model"
)

// CountryRow is one line of the country listing
type CountryRow struct {
	Code     string
	Flag     string
	Name     string
	TopField string
	Works    int
}

// RowFor builds a listing row from a record
func RowFor(flag string, record model.StatisticsRecord) CountryRow {
	row := CountryRow{
		Code: record.CountryCode,
		Flag: flag,
		Name: record.CountryName,
	}
	if len(record.TopSubfields) > 0 {
		row.TopField = record.TopSubfields[0].Name
		row.Works = record.TopSubfields[0].TotalWorks
	}
	return row
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)
}

// CountryTable writes the country listing
func CountryTable(w io.Writer, rows []CountryRow) error {
	table := newTable(w)
	table.Header([]string{"Code", "Flag", "Country", "Top Field", "Works"})

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		works := ""
		if r.Works > 0 {
			works = fmt.Sprintf("%d", r.Works)
		}
		data = append(data, []string{r.Code, r.Flag, r.Name, r.TopField, works})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// SubfieldTable writes a record's leading subfields, bounded the same way
// the answer context is
func SubfieldTable(w io.Writer, record model.StatisticsRecord) error {
	bounded := record.Bounded()

	table := newTable(w)
	table.Header([]string{"Kind", "Subfield", "Value"})

	var data [][]string
	for _, s := range bounded.TopSubfields {
		data = append(data, []string{"top", s.Name, fmt.Sprintf("%d works", s.TotalWorks)})
	}
	for _, s := range bounded.UniqueSubfields {
		data = append(data, []string{"unique", s.Name, fmt.Sprintf("%.2f", s.Score)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
