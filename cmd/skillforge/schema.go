package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/jingkaihe/skillforge/pkg/project"
	"github.com/jingkaihe/skillforge/pkg/stacks"
)

var schemaCmd = &cobra.Command{
	Use:       "schema [config|stacks]",
	Short:     "Print the JSON Schema of a file format",
	Long:      `Print the JSON Schema of the project configuration (config) or of a stack definition (stacks).`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"config", "stacks"},
	Run: func(cmd *cobra.Command, args []string) {
		var schema *jsonschema.Schema
		switch args[0] {
		case "config":
			schema = generateSchema[project.Config]()
		case "stacks":
			schema = generateSchema[stacks.Stack]()
		default:
			presenter.Error(fmt.Errorf("unknown schema %q", args[0]), "expected config or stacks")
			os.Exit(1)
		}

		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			presenter.Error(err, "failed to render schema")
			os.Exit(1)
		}
		fmt.Println(string(out))
	},
}

func generateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T

	return reflector.Reflect(v)
}
