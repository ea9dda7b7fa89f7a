// Package open hands a URL or file to the system handler or to a chosen player.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mediaroll/mediaroll/constant"
)

// Command builds the process that opens input. An empty app means the
// system default handler.
func Command(input, app string) (*exec.Cmd, error) {
	var (
		cmd *exec.Cmd
		ok  bool
	)
	if app == "" {
		cmd, ok = system(input)
	} else {
		cmd, ok = with(input, app)
	}

	if !ok {
		return nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd, nil
}

// StartWith opens input with app without waiting for it to exit.
func StartWith(input, app string) error {
	cmd, err := Command(input, app)
	if err != nil {
		return err
	}
	return cmd.Start()
}

func system(input string) (*exec.Cmd, bool) {
	switch runtime.GOOS {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", input), true
	case constant.Darwin:
		return exec.Command("open", input), true
	case constant.Linux:
		return exec.Command("xdg-open", input), true
	case constant.Android:
		return exec.Command("termux-open", input), true
	default:
		return nil, false
	}
}

func with(input, app string) (*exec.Cmd, bool) {
	switch runtime.GOOS {
	case constant.Windows:
		// start treats & as a command separator
		escaped := strings.ReplaceAll(input, "&", "^&")
		return exec.Command("cmd", "/C", "start", "", app, escaped), true
	case constant.Darwin:
		return exec.Command("open", "-a", app, input), true
	case constant.Linux:
		return exec.Command(app, input), true
	case constant.Android:
		return exec.Command("termux-open", "--choose", input), true
	default:
		return nil, false
	}
}
