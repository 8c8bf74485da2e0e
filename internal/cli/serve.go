package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/safelink/internal/api"
)

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Serve exposes scanning, history and community state over HTTP.

Endpoints:
  POST /scan                  score a URL
  GET  /results/{id}          load a saved result
  POST /results/{id}/recheck  run the external check
  GET  /history               ranked history (?view=primary|community)
  GET  /links?url=            community state for a link
  POST /links/react           like or dislike
  POST /links/comments        add a comment
  GET  /links/stream?url=     server-sent link changes
  GET  /healthz               liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (default: server.listen_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := listenAddr
	if addr == "" {
		addr = a.cfg.Server.ListenAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.New(a.pipeline, os.Stderr).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// Open link streams end when the server is asked to stop
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "✓ Listening on %s\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Fprintf(os.Stderr, "Shutting down...\n")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
