package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/mediaroll/mediaroll/icon"
	"github.com/mediaroll/mediaroll/key"
	"github.com/mediaroll/mediaroll/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(preloadCmd)
}

// preloadCmd runs a single preload cycle. The queue lives in memory, so this
// is mostly useful to check that the video selection can be buffered.
var preloadCmd = &cobra.Command{
	Use:   "preload",
	Short: "Buffer one video the way the server does",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		erase := util.PrintErasable(fmt.Sprintf("%s Preloading...", icon.Get(icon.Progress)))
		count := a.Preload(context.Background())
		erase()

		if count == 0 {
			handleErr(errors.New("nothing was preloaded, check the video selection and the logs"))
		}

		cmd.Printf(
			"%s %s of %d\n",
			icon.Get(icon.Queue),
			util.Quantify(count, "item", "items"),
			viper.GetInt(key.PreloadCapacity),
		)
	},
}
