package cmd

import (
	"strings"

	"github.com/mediaroll/mediaroll/color"
	"github.com/mediaroll/mediaroll/icon"
	"github.com/mediaroll/mediaroll/style"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(endpointsCmd)
}

var endpointsCmd = &cobra.Command{
	Use:     "endpoints",
	Aliases: []string{"endpoint", "ep"},
	Short:   "Manage custom endpoints",
	Long: `Manage custom endpoints.
Builtin endpoints are read only; use "categories list --endpoints" to see them.`,
}

func init() {
	endpointsCmd.AddCommand(endpointsAddCmd)
}

var endpointsAddCmd = &cobra.Command{
	Use:               "add <video|image> <category> <name> <url>",
	Short:             "Add an endpoint to a custom category",
	Example:           "  mediaroll endpoints add video my-cats Cats https://api.example.com/random",
	Args:              cobra.ExactArgs(4),
	ValidArgsFunction: completionCategoryIDs,
	Run: func(cmd *cobra.Command, args []string) {
		kind := kindArg(args, 0)
		a := newApp()

		endpoint, err := a.AddEndpoint(kind, args[1], strings.TrimSpace(args[2]), strings.TrimSpace(args[3]))
		handleErr(err)

		cmd.Printf(
			"%s added %s %s to %s\n",
			icon.Get(icon.Success),
			style.Fg(color.Yellow)(endpoint.ID),
			endpoint.Name,
			style.Fg(color.Purple)(args[1]),
		)
	},
}

func init() {
	endpointsCmd.AddCommand(endpointsRemoveCmd)
}

var endpointsRemoveCmd = &cobra.Command{
	Use:               "remove <video|image> <id>",
	Aliases:           []string{"rm", "delete"},
	Short:             "Delete a custom endpoint",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completionKinds,
	Run: func(cmd *cobra.Command, args []string) {
		kind := kindArg(args, 0)
		a := newApp()

		handleErr(a.DeleteEndpoint(kind, args[1]))
		cmd.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(args[1]))
	},
}
