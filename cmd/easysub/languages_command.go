package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/language"
)

func newLanguagesCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:         "languages",
		Short:       "List the built-in translation target languages",
		Long:        "Languages prints the names the translate and transcribe commands\nrecognize. Other languages can still be passed verbatim.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := language.Supported()
			if jsonOut {
				type languageEntry struct {
					Name string `json:"name"`
					ISO2 string `json:"iso2"`
					ISO3 string `json:"iso3"`
				}
				entries := make([]languageEntry, 0, len(names))
				for _, name := range names {
					entries = append(entries, languageEntry{
						Name: name,
						ISO2: language.ToISO2(name),
						ISO3: language.ToISO3(name),
					})
				}
				return writeJSON(cmd, entries)
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, []string{name, language.ToISO2(name), language.ToISO3(name)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Language", "ISO2", "ISO3"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}
