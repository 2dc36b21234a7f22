package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikogura/cvforge/pkg/server"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveAddr string

//nolint:gochecknoglobals // Cobra boilerplate
var serveOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI",
	Long: `Serve the web UI and JSON API on --addr (default server_addr from config).

Example:
  cvforge serve --addr 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveOutputDir, "output-dir", "", "Profile store directory (default from config)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	var a app
	a, err = loadApp(serveOutputDir)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.ServerAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.svc, server.Options{UploadLimit: 10 * a.cfg.MaxFileBytes()}, a.logger)
	fmt.Printf("cvforge UI on http://%s\n", displayAddr(addr))

	err = srv.Run(ctx, addr)
	return err
}

func displayAddr(addr string) (display string) {
	display = addr
	if len(addr) > 0 && addr[0] == ':' {
		display = "localhost" + addr
	}
	return display
}
