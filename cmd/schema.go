package cmd

import (
	"encoding/json"
	"path/filepath"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/mediaroll/mediaroll/media"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().BoolP("reference", "r", false, "Schema of fetch --json output")
	schemaCmd.Flags().BoolP("item", "i", false, "Schema of a buffered item")
	schemaCmd.MarkFlagsMutuallyExclusive("reference", "item")
}

// schemaCmd prints JSON schemas for the documents mediaroll emits.
// Without flags it describes the category list returned by the API and by
// categories list --json.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schemas for structured outputs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			return filepath.Base(t.PkgPath()) + "." + t.Name()
		}

		var schema *jsonschema.Schema

		switch {
		case lo.Must(cmd.Flags().GetBool("reference")):
			schema = reflector.Reflect(&media.Reference{})
		case lo.Must(cmd.Flags().GetBool("item")):
			schema = reflector.Reflect(&media.Item{})
		default:
			schema = reflector.Reflect([]media.Category{})
		}

		handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(schema))
	},
}
