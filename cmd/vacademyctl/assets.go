package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"vacademy/internal/application/loader"
	"vacademy/internal/domain/asset"
	"vacademy/internal/domain/richtext"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Browse an institute's asset library",
}

var assetsSearchCmd = &cobra.Command{
	Use:   "search <institute-id> [term...]",
	Short: "Search assets by file name; with several terms only the last one is shown",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAssetsSearch,
}

var (
	assetsFolder string
	assetsLimit  int
)

func init() {
	assetsSearchCmd.Flags().StringVar(&assetsFolder, "folder", "", "restrict to a folder")
	assetsSearchCmd.Flags().IntVar(&assetsLimit, "limit", asset.DefaultLimit, "maximum results")
	assetsCmd.AddCommand(assetsSearchCmd)
}

// runAssetsSearch issues every term as its own search, the way a picker
// fires one request per keystroke, and prints whatever the last term found.
func runAssetsSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	picker := loader.NewAssetPicker(a.assets, a.log)
	terms := args[1:]
	if len(terms) == 0 {
		terms = []string{""}
	}
	for _, term := range terms {
		picker.Start(cmd.Context(), asset.Query{
			InstituteID: args[0],
			Folder:      assetsFolder,
			Search:      term,
			Limit:       assetsLimit,
		})
	}
	picker.Wait()

	state := picker.Snapshot()
	if state.Err != nil {
		return state.Err
	}
	out := cmd.OutOrStdout()
	printAssets(out, picker.Assets())
	color.New(color.FgCyan).Fprintf(out, "%d assets match %q\n", len(picker.Assets()), state.Query.Search)
	return nil
}

func printAssets(w io.Writer, assets []asset.Asset) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"ID", "Folder", "File", "Type", "Size", "URL"})
	for _, as := range assets {
		tw.Append([]string{as.ID, as.Folder, as.FileName, as.MimeType, richtext.HumanSize(as.Size), as.URL})
	}
	tw.Render()
}
