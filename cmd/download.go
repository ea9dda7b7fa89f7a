package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mediaroll/mediaroll/color"
	"github.com/mediaroll/mediaroll/download"
	"github.com/mediaroll/mediaroll/filesystem"
	"github.com/mediaroll/mediaroll/icon"
	"github.com/mediaroll/mediaroll/style"
	"github.com/mediaroll/mediaroll/util"
	"github.com/mediaroll/mediaroll/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringP("output", "o", "", "File to write. Defaults to a generated name in the downloads directory")
}

var downloadCmd = &cobra.Command{
	Use:   "download <video|image> [url]",
	Short: "Download a media file",
	Long: `Download a media file under the configured size cap.
Without a url, one is resolved from the selected category first.`,
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: completionKinds,
	Run: func(cmd *cobra.Command, args []string) {
		kind := kindArg(args, 0)
		a := newApp()
		defer a.Close()

		ctx := context.Background()

		var target string
		if len(args) == 2 {
			target = args[1]
		} else {
			erase := util.PrintErasable(fmt.Sprintf("%s Resolving %s...", icon.Get(icon.Progress), kind))
			ref, err := a.Resolve(ctx, kind)
			erase()
			handleErr(err)
			target = ref.URL
		}

		erase := util.PrintErasable(fmt.Sprintf("%s Downloading %s...", icon.Get(icon.Download), util.Truncate(target, 60)))
		payload, err := a.Download(ctx, kind, target)
		erase()
		handleErr(err)

		path := lo.Must(cmd.Flags().GetString("output"))
		if path == "" {
			name := util.SanitizeFilename(download.Filename(kind, uuid.NewString(), payload))
			path = filepath.Join(where.Downloads(), name)
		}

		handleErr(filesystem.Save(path, payload.Data))

		cmd.Printf(
			"%s saved %s to %s\n",
			icon.Get(icon.Success),
			style.Fg(color.Yellow)(humanize.Bytes(uint64(len(payload.Data)))),
			style.Fg(color.Cyan)(path),
		)
	},
}
