package version

import (
	"context"
	"fmt"

	"github.com/mediaroll/mediaroll/color"
	"github.com/mediaroll/mediaroll/constant"
	"github.com/mediaroll/mediaroll/icon"
	"github.com/mediaroll/mediaroll/key"
	"github.com/mediaroll/mediaroll/style"
	"github.com/mediaroll/mediaroll/util"
	"github.com/spf13/viper"
)

// Notify prints a notice when a newer release exists and version checks are enabled.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	version, err := Latest(context.Background())
	erase()
	if err != nil {
		return
	}

	if comp, err := Compare(version, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/mediaroll/mediaroll/releases/tag/v"+version),
	)

}
