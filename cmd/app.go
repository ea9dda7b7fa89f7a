package cmd

import (
	"github.com/mediaroll/mediaroll/app"
	"github.com/mediaroll/mediaroll/icon"
	"github.com/mediaroll/mediaroll/media"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newApp() *app.App {
	a, err := app.New(app.OptionsFromConfig())
	handleErr(err)
	return a
}

// kindArg parses args[i] as a media kind. A missing argument means video.
func kindArg(args []string, i int) media.Kind {
	if len(args) <= i {
		return media.Video
	}
	kind, err := media.ParseKind(args[i])
	handleErr(err)
	return kind
}

func completionKinds(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return lo.Map(media.Kinds(), func(k media.Kind, _ int) string { return k.String() }), cobra.ShellCompDirectiveNoFileComp
}

func kindIcon(kind media.Kind) string {
	if kind == media.Image {
		return icon.Get(icon.Image)
	}
	return icon.Get(icon.Video)
}
