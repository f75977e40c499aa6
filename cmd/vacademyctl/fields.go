package main

import (
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"vacademy/internal/application/orchestrators"
	"vacademy/internal/domain/customfield"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Inspect or replace an institute's custom-field registry",
}

var fieldsListCmd = &cobra.Command{
	Use:   "list <institute-id>",
	Short: "Print the registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runFieldsList,
}

var fieldsImportCmd = &cobra.Command{
	Use:   "import <institute-id> <setup.json>",
	Short: "Replace the registry with a setup payload (array, {data} or {result})",
	Args:  cobra.ExactArgs(2),
	RunE:  runFieldsImport,
}

var fieldsDryRun bool

func init() {
	fieldsImportCmd.Flags().BoolVar(&fieldsDryRun, "dry-run", false, "decode and validate without storing")
	fieldsCmd.AddCommand(fieldsListCmd, fieldsImportCmd)
}

func runFieldsList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	fields, err := a.fields.ListByInstitute(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printFields(cmd.OutOrStdout(), fields)
	return nil
}

func runFieldsImport(cmd *cobra.Command, args []string) error {
	payload, err := os.ReadFile(args[1])
	if err != nil {
		return errors.Wrap(err, "read setup payload")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := orchestrators.ExecuteImportRegistry(cmd.Context(), orchestrators.ImportRegistryInput{
		InstituteID: args[0],
		Payload:     payload,
		DryRun:      fieldsDryRun,
	}, orchestrators.ImportRegistryDeps{CustomFieldStore: a.fields})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printFields(out, res.Fields)
	if res.DryRun {
		color.New(color.FgYellow).Fprintf(out, "dry run: %d fields not stored\n", len(res.Fields))
		return nil
	}
	color.New(color.FgGreen).Fprintf(out, "imported %d fields\n", len(res.Fields))
	return nil
}

func printFields(w io.Writer, fields []customfield.Field) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"ID", "Key", "Name", "Type", "Order"})
	for _, f := range fields {
		tw.Append([]string{f.ID, f.FieldKey, f.FieldName, f.FieldType, strconv.Itoa(f.FormOrder)})
	}
	tw.Render()
}
