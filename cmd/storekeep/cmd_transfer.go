package main

import (
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/storekeep/storekeep/internal/transfer"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as CSV or a paginated document",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var (
	exportFormat string
	exportOut    string
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Bulk import products from a CSV file (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or doc")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (stdout when omitted)")

	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}

	var out string
	switch exportFormat {
	case "csv":
		out, err = transfer.RefreshExportCSV(cmd.Context(), env.manager)
	case "doc":
		out, err = transfer.RefreshExportDocument(cmd.Context(), env.manager)
	default:
		return errors.Errorf("unknown format %q, want csv or doc", exportFormat)
	}
	if err != nil {
		return err
	}

	if exportOut == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(exportOut, []byte(out), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", exportOut)
	}
	fmt.Println("Wrote", exportOut)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	if err := env.requireAdmin(); err != nil {
		return err
	}
	if err := env.manager.Load(cmd.Context()); err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "read %s", args[0])
	}

	result, err := transfer.NewImporter(env.manager, nil).Run(cmd.Context(), string(data))
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d of %d rows (%d dropped during parsing)\n",
		result.Succeeded, result.Submitted, result.Dropped)
	for _, f := range result.Failures {
		fmt.Fprintf(os.Stderr, "failed %q: %v\n", f.Name, f.Err)
	}
	env.printNotes()
	return nil
}
