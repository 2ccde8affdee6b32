package cli

import (
	"fmt"

	"textailor/internal/templates"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List available resume templates",
	Long: `List the resume templates found in the configured template directory.
Template names can be passed to 'optimize --template' instead of a resume file.`,
	RunE: runTemplates,
}

func runTemplates(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	store, err := templates.NewStore(cfg.Templates.Dir, logger)
	if err != nil {
		return err
	}

	names := store.List()
	if len(names) == 0 {
		fmt.Printf("No templates found in %s\n", store.Dir())
		return nil
	}

	fmt.Printf("Templates in %s:\n", store.Dir())
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
