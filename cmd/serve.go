package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mediaroll/mediaroll/color"
	"github.com/mediaroll/mediaroll/icon"
	"github.com/mediaroll/mediaroll/key"
	"github.com/mediaroll/mediaroll/server"
	"github.com/mediaroll/mediaroll/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Address to bind")
	lo.Must0(viper.BindPFlag(key.ServerHost, serveCmd.Flags().Lookup("host")))

	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	lo.Must0(viper.BindPFlag(key.ServerPort, serveCmd.Flags().Lookup("port")))

	serveCmd.Flags().Bool("warm", false, "Start filling the preload queue right away")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the stream server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := newApp()
		defer a.Close()

		opts := server.OptionsFromConfig()
		srv := server.New(a, opts)

		if lo.Must(cmd.Flags().GetBool("warm")) {
			go func() {
				for range max(viper.GetInt(key.PreloadCapacity), 1) {
					if ctx.Err() != nil {
						return
					}
					a.Preload(ctx)
				}
			}()
		}

		cmd.Printf(
			"%s listening on %s\n",
			icon.Get(icon.Server),
			style.Fg(color.Cyan)(fmt.Sprintf("http://%s", opts.Addr())),
		)
		if a.Metrics() != nil {
			cmd.Printf("  %s /metrics\n", style.Tag(color.Black, color.Yellow)("prometheus"))
		}
		if a.Events() != nil {
			cmd.Printf("  %s /api/events\n", style.Tag(color.Black, color.Green)("websocket"))
		}
		handleErr(srv.Run(ctx))
	},
}
