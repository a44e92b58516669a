package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storekeep/storekeep/internal/describe"
	"github.com/storekeep/storekeep/internal/domain/product"
)

var describeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Generate a product description (admin)",
	Long: `Generate a marketing description for a product through the configured
text-generation endpoint. The bearer credential is read from the
STOREKEEP_HF_TOKEN environment variable; without it the command fails
locally and no request is made.`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

var describeCategory string

func init() {
	describeCmd.Flags().StringVar(&describeCategory, "category", "", "product category for the prompt")
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	if err := env.requireAdmin(); err != nil {
		return err
	}

	gen := describe.NewGenerator(env.prefs.DescribeEndpoint, os.Getenv("STOREKEEP_HF_TOKEN"))
	text, err := gen.Generate(cmd.Context(), args[0], product.Category(describeCategory))
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}
