package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"financialguard/sentinel/pkg/rules"
	"financialguard/sentinel/pkg/rules/store"
)

var rulesFlags struct {
	rulesDir string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect rule definition files",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in a directory",
	Long: `Load rule definition files and print a summary table of every rule.

Examples:
  # List rules in the default directory
  sentinel rules list

  # List rules in a specific directory
  sentinel rules list --rules ./compliance-rules`,
	RunE: listRules,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show CODE",
	Short: "Show one rule's full definition",
	Args:  cobra.ExactArgs(1),
	RunE:  showRule,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesShowCmd)

	rulesCmd.PersistentFlags().StringVar(&rulesFlags.rulesDir, "rules", "./rules", "rules directory")
}

func loadDefinitions() ([]*rules.RuleDefinition, error) {
	loader := store.NewLoader(nil)
	result, err := loader.LoadDirectory(rulesFlags.rulesDir)
	if err != nil {
		return nil, fmt.Errorf("loading rules from %s: %w", rulesFlags.rulesDir, err)
	}
	for _, loadErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", loadErr)
	}
	return result.Definitions, nil
}

func listRules(cmd *cobra.Command, args []string) error {
	defs, err := loadDefinitions()
	if err != nil {
		return err
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Code < defs[j].Code })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tSEVERITY\tENABLED\tFACT TYPE\tNAME")
	for _, def := range defs {
		factType := def.FactType
		if factType == "" {
			factType = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
			def.Code, def.Severity, def.Enabled, factType, def.Name)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d rules\n", len(defs))
	return nil
}

func showRule(cmd *cobra.Command, args []string) error {
	defs, err := loadDefinitions()
	if err != nil {
		return err
	}
	for _, def := range defs {
		if def.Code == args[0] {
			out, err := yaml.Marshal(def)
			if err != nil {
				return fmt.Errorf("encoding rule %s: %w", def.Code, err)
			}
			fmt.Print(string(out))
			return nil
		}
	}
	return fmt.Errorf("rule %q not found in %s", args[0], rulesFlags.rulesDir)
}
