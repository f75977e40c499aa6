package main

import (
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"vacademy/internal/application/loader"
	"vacademy/internal/application/projections"
	"vacademy/internal/domain/campaign"
)

var leadsCmd = &cobra.Command{
	Use:   "leads <audience-id>",
	Short: "List raw lead responses for an audience",
	Args:  cobra.ExactArgs(1),
	RunE:  runLeads,
}

var (
	leadsPage    int
	leadsSize    int
	leadsSortBy  string
	leadsSortDir string
)

func init() {
	leadsCmd.Flags().IntVar(&leadsPage, "page", 0, "zero-based page number")
	leadsCmd.Flags().IntVar(&leadsSize, "size", campaign.DefaultPageSize, "page size")
	leadsCmd.Flags().StringVar(&leadsSortBy, "sort-by", "", "submitted_at, full_name or email")
	leadsCmd.Flags().StringVar(&leadsSortDir, "sort-dir", "", "ASC or DESC")
}

func runLeads(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	users := loader.NewCampaignUserLoader(a.leads, a.log)
	if _, err := users.Load(cmd.Context(), campaign.LeadQuery{
		AudienceID:    args[0],
		Page:          leadsPage,
		Size:          leadsSize,
		SortBy:        leadsSortBy,
		SortDirection: leadsSortDir,
	}); err != nil {
		return err
	}

	page := users.Page()
	out := cmd.OutOrStdout()
	tw := tablewriter.NewWriter(out)
	tw.SetHeader([]string{"Response", "Name", "Email", "Mobile", "Submitted"})
	for _, l := range page.Content {
		tw.Append([]string{l.ResponseID, l.User.FullName, l.User.Email, l.User.MobileNumber,
			l.SubmittedAtLocal.Format(projections.SubmittedOnLayout)})
	}
	tw.Render()
	color.New(color.FgCyan).Fprintf(out, "page %d of %d, %d leads\n",
		page.Number+1, max(page.TotalPages, 1), page.TotalElements)
	return nil
}
