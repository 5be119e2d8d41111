package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/globechat/internal/render"
)

// countriesCmd represents the countries command
var countriesCmd = &cobra.Command{
	Use:   "countries [code]",
	Short: "List countries, or show one country's leading subfields",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd, map[string]string{
			"client.server_url": "server",
			"data.path":         "data",
		})
		if err != nil {
			return err
		}
		defer s.log.Sync()

		c, err := newCatalog(s)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			record, err := c.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render.SubfieldTable(s.printer.Out(), *record)
		}

		rows, err := c.Rows(cmd.Context())
		if err != nil {
			return err
		}
		return render.CountryTable(s.printer.Out(), rows)
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)

	countriesCmd.Flags().String("server", "", "read countries from a running server")
	countriesCmd.Flags().String("data", "", "country dataset (default: embedded sample)")
}
