package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"vacademy/internal/application/projections"
)

var columnsCmd = &cobra.Command{
	Use:   "columns <campaign-id>",
	Short: "Print one page of a campaign's lead table",
	Args:  cobra.ExactArgs(1),
	RunE:  runColumns,
}

var (
	columnsPage    int
	columnsSize    int
	columnsSortBy  string
	columnsSortDir string
	columnsCSV     bool
)

func init() {
	columnsCmd.Flags().IntVar(&columnsPage, "page", 0, "zero-based page number")
	columnsCmd.Flags().IntVar(&columnsSize, "size", 20, "page size")
	columnsCmd.Flags().StringVar(&columnsSortBy, "sort-by", "", "submitted_at, full_name or email")
	columnsCmd.Flags().StringVar(&columnsSortDir, "sort-dir", "", "ASC or DESC")
	columnsCmd.Flags().BoolVar(&columnsCSV, "csv", false, "write CSV instead of a table")
}

func runColumns(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	table, err := projections.QueryGetLeadTable(cmd.Context(), projections.GetLeadTableQuery{
		CampaignID: args[0],
		Page:       columnsPage,
		Size:       columnsSize,
		SortBy:     columnsSortBy,
		SortDir:    columnsSortDir,
	}, projections.GetLeadTableDeps{
		CampaignStore:    a.campaigns,
		LeadStore:        a.leads,
		CustomFieldStore: a.fields,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if columnsCSV {
		return projections.WriteCSV(out, table)
	}
	printLeadTable(out, table)
	return nil
}

func printLeadTable(w io.Writer, t projections.LeadTable) {
	headers := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		headers = append(headers, c.Header)
	}
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader(headers)
	tw.AppendBulk(t.Rows)
	tw.Render()

	color.New(color.FgCyan).Fprintf(w, "page %d of %d, %d leads\n",
		t.Page.Number+1, max(t.Page.TotalPages, 1), t.Page.TotalElements)
}
