package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mediaroll/mediaroll/app"
	"github.com/mediaroll/mediaroll/color"
	"github.com/mediaroll/mediaroll/icon"
	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/style"
	"github.com/mediaroll/mediaroll/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// completionCategoryIDs completes the category argument that follows a kind.
func completionCategoryIDs(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return completionKinds(nil, args, "")
	case 1:
		kind, err := media.ParseKind(args[0])
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		a, err := app.New(app.OptionsFromConfig())
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ids := lo.Map(a.Categories(kind), func(c media.Category, _ int) string { return c.ID + "\t" + c.Name })
		return append(ids, media.RandomCategory), cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

func printCategories(cmd *cobra.Command, categories []media.Category, selected string, verbose bool) {
	var (
		idStyle     = style.New().Bold(true).Foreground(color.Purple).Render
		builtin     = style.Faint("builtin")
		custom      = style.Fg(color.Green)("custom")
		width       = util.TerminalWidth(100)
		marker      = icon.Get(icon.Selected)
		placeholder = strings.Repeat(" ", len([]rune(marker)))
	)

	if selected == media.RandomCategory {
		cmd.Printf("%s %s %s\n", marker, idStyle(media.RandomCategory), style.Faint("every endpoint"))
	}

	for _, c := range categories {
		prefix := placeholder
		if c.ID == selected {
			prefix = marker
		}

		origin := builtin
		if c.Origin == media.Custom {
			origin = custom
		}

		cmd.Printf(
			"%s %s %s %s %s\n",
			prefix,
			idStyle(c.ID),
			c.Name,
			origin,
			style.Faint(util.Quantify(len(c.Endpoints), "endpoint", "endpoints")),
		)

		if !verbose {
			continue
		}
		for _, e := range c.Endpoints {
			cmd.Printf("    %s %s %s\n", style.Fg(color.Yellow)(e.ID), e.Name, style.Faint(util.Truncate(e.URL, width-len(e.ID)-len(e.Name)-8)))
		}
	}
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category", "cat"},
	Short:   "Manage endpoint categories",
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd)
	categoriesListCmd.Flags().BoolP("endpoints", "e", false, "List endpoints too")
	categoriesListCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

var categoriesListCmd = &cobra.Command{
	Use:               "list [video|image]",
	Short:             "List categories, builtin first",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionKinds,
	Run: func(cmd *cobra.Command, args []string) {
		kind := kindArg(args, 0)
		a := newApp()

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(a.Categories(kind)))
			return
		}

		printCategories(cmd, a.Categories(kind), a.Selection(kind), lo.Must(cmd.Flags().GetBool("endpoints")))
	},
}

func init() {
	categoriesCmd.AddCommand(categoriesFindCmd)
}

var categoriesFindCmd = &cobra.Command{
	Use:               "find <video|image> <query>",
	Short:             "Fuzzy search categories by id and name",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completionKinds,
	Run: func(cmd *cobra.Command, args []string) {
		kind := kindArg(args, 0)
		a := newApp()

		found := a.FindCategories(kind, strings.Join(args[1:], " "))
		if len(found) == 0 {
			handleErr(fmt.Errorf("no categories match %q", strings.Join(args[1:], " ")))
		}

		printCategories(cmd, found, a.Selection(kind), false)
	},
}

func init() {
	categoriesCmd.AddCommand(categoriesAddCmd)
}

var categoriesAddCmd = &cobra.Command{
	Use:               "add <video|image> <name>",
	Short:             "Create a custom category",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completionKinds,
	Run: func(cmd *cobra.Command, args []string) {
		kind := kindArg(args, 0)
		a := newApp()

		category, err := a.AddCategory(kind, strings.Join(args[1:], " "))
		handleErr(err)

		cmd.Printf("%s added %s %s\n", icon.Get(icon.Success), style.Fg(color.Purple)(category.ID), category.Name)
	},
}

func init() {
	categoriesCmd.AddCommand(categoriesRemoveCmd)
}

var categoriesRemoveCmd = &cobra.Command{
	Use:               "remove <video|image> <id>",
	Aliases:           []string{"rm", "delete"},
	Short:             "Delete a custom category and its endpoints",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completionCategoryIDs,
	Run: func(cmd *cobra.Command, args []string) {
		kind := kindArg(args, 0)
		a := newApp()

		handleErr(a.DeleteCategory(kind, args[1]))
		cmd.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Purple)(args[1]))
	},
}

func init() {
	categoriesCmd.AddCommand(categoriesSelectCmd)
}

var categoriesSelectCmd = &cobra.Command{
	Use:               "select <video|image> [id]",
	Short:             "Choose the category used for fetching",
	Long:              "Choose the category used for fetching. Without an id, pick one interactively.",
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: completionCategoryIDs,
	Run: func(cmd *cobra.Command, args []string) {
		kind := kindArg(args, 0)
		a := newApp()

		var id string
		if len(args) == 2 {
			id = args[1]
		} else {
			id = promptCategory(kind, a.Categories(kind), a.Selection(kind))
		}

		handleErr(a.SetSelection(kind, id))
		cmd.Printf("%s %s now fetches from %s\n", icon.Get(icon.Success), style.Fg(color.ForKind(kind))(kind.String()), style.Fg(color.Purple)(id))
	},
}

func promptCategory(kind media.Kind, categories []media.Category, current string) string {
	options := append([]string{media.RandomCategory}, lo.Map(categories, func(c media.Category, _ int) string {
		return c.ID
	})...)

	names := lo.SliceToMap(categories, func(c media.Category) (string, string) {
		return c.ID, fmt.Sprintf("%s (%s)", c.Name, util.Quantify(len(c.Endpoints), "endpoint", "endpoints"))
	})
	names[media.RandomCategory] = "every endpoint"

	prompt := &survey.Select{
		Message: fmt.Sprintf("Pick a %s category", kind),
		Options: options,
		Default: current,
		Description: func(value string, _ int) string {
			return names[value]
		},
	}

	var answer string
	err := survey.AskOne(prompt, &answer)
	if errors.Is(err, terminal.InterruptErr) {
		handleErr(errors.New("cancelled"))
	}
	handleErr(err)
	return answer
}
