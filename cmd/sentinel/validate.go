package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"financialguard/sentinel/pkg/rules/compiler"
	"financialguard/sentinel/pkg/rules/store"
)

var validateFlags struct {
	rulesDir string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate rule files without publishing them",
	Long: `Load rule definition files and dry-run compile every rule.

Each rule's condition is parsed and its actions checked exactly as a reload
would, but nothing is published. The command reports every problem it finds
and exits non-zero if any rule fails.

Examples:
  # Validate the default rules directory
  sentinel validate

  # Validate a specific directory
  sentinel validate --rules ./compliance-rules`,
	RunE: validateRules,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.rulesDir, "rules", "./rules", "rules directory to validate")
}

func validateRules(cmd *cobra.Command, args []string) error {
	loader := store.NewLoader(nil)
	result, err := loader.LoadDirectory(validateFlags.rulesDir)
	if err != nil {
		return fmt.Errorf("loading rules from %s: %w", validateFlags.rulesDir, err)
	}

	failures := len(result.Errors)
	for _, loadErr := range result.Errors {
		fmt.Printf("✗ %v\n", loadErr)
	}

	for _, def := range result.Definitions {
		if err := compiler.ValidateDefinition(def); err != nil {
			fmt.Printf("✗ %s: %v\n", def.Code, err)
			failures++
			continue
		}
		fmt.Printf("✓ %s (%s)\n", def.Code, def.Severity)
	}
	for _, tmpl := range result.Templates {
		if err := tmpl.Validate(); err != nil {
			fmt.Printf("✗ template %s: %v\n", tmpl.ID, err)
			failures++
			continue
		}
		fmt.Printf("✓ template %s\n", tmpl.ID)
	}

	fmt.Printf("\n%d rules, %d templates checked\n", len(result.Definitions), len(result.Templates))
	if failures > 0 {
		return fmt.Errorf("%d problem(s) found", failures)
	}
	return nil
}
