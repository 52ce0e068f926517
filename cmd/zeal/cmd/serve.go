package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corey/zeal/internal/adapters/web"
	"github.com/corey/zeal/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long:  "Loads the catalog and serves /api/v1 and /metrics until interrupted. With --watch the catalog reloads when the source file changes.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload when the source file changes (default: source.watch)")
}

func runServe(cmd *cobra.Command, args []string) error {
	paths := app.NewPaths(projectRoot())
	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("create %s: %w", paths.Root, err)
	}

	ctx := cmd.Context()
	a, err := loadedApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveWatch || settings.Source.Watch {
		if err := a.Watch(); err != nil {
			return err
		}
	}

	addr := serveAddr
	if addr == "" {
		addr = settings.Server.Addr
	}
	srv := web.NewServer(a, a.Registry(), log, paths.PortFile)
	if err := srv.Start(addr); err != nil {
		return err
	}
	fmt.Printf("⚡ zeal serving %d restaurants at %s\n", len(a.Catalog()), srv.URL())

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\n⚡ shutting down...")
	stopCtx, cancel := context.WithTimeout(context.Background(), settings.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	return nil
}
