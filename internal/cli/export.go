package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maicon-romano/previzi/internal/export"
)

var (
	flagOut       string
	flagSheetName string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the projection to an XLSX file or Google Sheets",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, result, err := runProjection(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		if flagOut != "" {
			f, err := export.ProjectionWorkbook(result)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SaveAs(flagOut); err != nil {
				return fmt.Errorf("write workbook: %w", err)
			}
			fmt.Printf("Projection written to %s\n", flagOut)
			return nil
		}

		if sess.cfg.GoogleSpreadsheetID == "" {
			return fmt.Errorf("set --out or configure GOOGLE_SPREADSHEET_ID")
		}
		exporter, err := export.NewSheetsExporter(cmd.Context(),
			sess.cfg.GoogleCredentialsFile, sess.cfg.GoogleSpreadsheetID, flagSheetName)
		if err != nil {
			return err
		}
		if err := exporter.Export(cmd.Context(), result); err != nil {
			return err
		}
		fmt.Printf("Projection exported to spreadsheet %s\n", sess.cfg.GoogleSpreadsheetID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&flagOut, "out", "", "path of the XLSX file to write")
	exportCmd.Flags().StringVar(&flagSheetName, "sheet", "", "target sheet name for Google Sheets export")
}
