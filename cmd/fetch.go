package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mediaroll/mediaroll/color"
	"github.com/mediaroll/mediaroll/icon"
	"github.com/mediaroll/mediaroll/key"
	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/open"
	"github.com/mediaroll/mediaroll/style"
	"github.com/mediaroll/mediaroll/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolP("open", "o", false, "Open the result with the configured player")
	fetchCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

var fetchCmd = &cobra.Command{
	Use:               "fetch [video|image]",
	Short:             "Resolve a random media URL",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionKinds,
	Run: func(cmd *cobra.Command, args []string) {
		kind := kindArg(args, 0)
		a := newApp()
		defer a.Close()

		asJSON := lo.Must(cmd.Flags().GetBool("json"))

		var erase func()
		if !asJSON {
			erase = util.PrintErasable(fmt.Sprintf("%s Resolving %s...", icon.Get(icon.Progress), kind))
		}
		ref, err := a.Resolve(context.Background(), kind)
		if erase != nil {
			erase()
		}
		handleErr(err)

		if asJSON {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(struct {
				Kind media.Kind `json:"kind"`
				*media.Reference
			}{kind, ref}))
		} else {
			cmd.Printf("%s %s\n", kindIcon(kind), style.Fg(color.ForKind(kind))(ref.URL))
		}

		if lo.Must(cmd.Flags().GetBool("open")) {
			handleErr(open.StartWith(ref.URL, viper.GetString(key.Player)))
		}
	},
}
