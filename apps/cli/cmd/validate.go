package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/runspec/packages/loader"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>",
	Short: "Validate suite files against the schema",
	Long: `Validate .suite.yaml files without running them.

Examples:
  runspec validate payments.suite.yaml
  runspec validate ./suites/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := loader.Collect(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found", loader.SuiteFileExt)
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	invalid := 0
	for _, path := range files {
		if err := loader.Validate(path); err != nil {
			invalid++
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n  %v\n", red("✗"), path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green("✓"), path)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d file(s) invalid", invalid, len(files))
	}
	return nil
}
