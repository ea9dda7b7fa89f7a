package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mediaroll/mediaroll/icon"
	"github.com/mediaroll/mediaroll/util"
	"github.com/mediaroll/mediaroll/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// clearTarget is a file or directory the clear command can remove.
type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	location func() string
	confirm  bool
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), where.Cache, false},
	{"custom catalog", "catalog", mo.None[string](), where.Catalog, true},
	{"downloads", "downloads", mo.Some("d"), where.Downloads, true},
	{"logs", "logs", mo.Some("l"), where.Logs, false},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}

	clearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

func confirmClear(name string) bool {
	var ok bool
	err := survey.AskOne(&survey.Confirm{
		Message: fmt.Sprintf("Clear %s? This cannot be undone", name),
	}, &ok)
	if errors.Is(err, terminal.InterruptErr) {
		return false
	}
	handleErr(err)
	return ok
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached and generated files",
	Long: `Remove cached and generated files.
Clearing the catalog drops every custom category and endpoint and resets the selection.`,
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		doClear := func(what string) bool {
			return lo.Must(cmd.Flags().GetBool(what))
		}
		yes := doClear("yes")

		for _, target := range clearTargets {
			if doClear(target.argLong) {
				anyCleared = true
				if target.confirm && !yes && !confirmClear(target.name) {
					continue
				}

				e := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
				err := util.Delete(target.location())
				e()
				if !errors.Is(err, fs.ErrNotExist) {
					handleErr(err)
				}
				cmd.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
			}
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
