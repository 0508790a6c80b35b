package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/avro-to-json/internal/jsonschema"
)

func NewProfileSchemaCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "profile-schema",
		Short: "Generate JSON Schema for avro-to-json.yml profile files",
		Long: `Generate a JSON Schema that can be used for IDE autocomplete and validation
of avro-to-json.yml conversion profiles.

The generated schema can be used with yaml-language-server by adding a comment
at the top of your avro-to-json.yml file:

  # yaml-language-server: $schema=https://raw.githubusercontent.com/takumiyoshikawa/avro-to-json/main/profile.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaBytes, err := jsonschema.Generate()
			if err != nil {
				return fmt.Errorf("generating schema: %w", err)
			}

			if outputFile != "" {
				if err := writeOutput(outputFile, schemaBytes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "JSON Schema written to %s\n", outputFile)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(schemaBytes))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
