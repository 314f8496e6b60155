package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/runspec/packages/loader"
	"github.com/abdul-hamid-achik/runspec/packages/spec"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>",
	Short: "List the cases declared in suite files",
	Long: `List the suites and cases declared in .suite.yaml files, with their
tags and execution configuration.

Examples:
  runspec list payments.suite.yaml
  runspec list ./suites/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := loader.Collect(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found", loader.SuiteFileExt)
	}

	for _, path := range files {
		f, err := loader.Load(path)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error loading %s: %v\n", path, err)
			continue
		}
		inst, err := f.Factory()()
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error building %s: %v\n", path, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", path)
		printSuite(cmd, inst.Suite(), 1)
	}
	return nil
}

func printSuite(cmd *cobra.Command, s *spec.Suite, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", indent, s.Name)
	for _, c := range s.Cases {
		var details []string
		if len(c.Config.Tags) > 0 {
			details = append(details, "tags: "+strings.Join(c.Config.Tags, ","))
		}
		if c.Config.Invocations > 1 {
			details = append(details, fmt.Sprintf("%d invocations", c.Config.Invocations))
		}
		if c.Config.Threads > 1 {
			details = append(details, fmt.Sprintf("%d threads", c.Config.Threads))
		}
		if !c.Active {
			details = append(details, "inactive")
		}
		line := fmt.Sprintf("%s  - %s", indent, c.Name)
		if len(details) > 0 {
			line += " (" + strings.Join(details, ", ") + ")"
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	for _, nested := range s.Suites {
		printSuite(cmd, nested, depth+1)
	}
}
