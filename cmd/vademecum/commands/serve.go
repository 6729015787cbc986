package commands

import (
	"context"
	"os/signal"
	"syscall"

	"vademecum/internal/api"
	"vademecum/internal/api/handlers"
	"vademecum/pkg/auth"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the vademecum HTTP API.

Routes live under /api/v1/vademecum. /healthz, /metrics and /swagger/* are
always public; the API requires a Bearer token when JWT_SECRET_KEY is set.

Examples:
  vademecum serve
  STORE_BACKEND=qdrant vademecum serve --port 9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e, err := buildEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			var jwtManager *auth.JWTManager
			if cfg.JWT.SecretKey != "" {
				jwtManager = auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.Expiration)
			}

			handler := handlers.NewVademecumHandler(e.ingestion, e.retrieval, e.interactions, e.contexts, e.logger)
			app := api.SetupRouter(handler, jwtManager, e.registry, &cfg.Server, e.logger)

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			addr := ":" + cfg.Server.Port

			errCh := make(chan error, 1)
			go func() {
				e.logger.Info("Server starting", zap.String("address", addr))
				errCh <- app.Listen(addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			e.logger.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				e.logger.Error("Server shutdown error", zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8080", "TCP port to listen on (env SERVER_PORT)")

	return cmd
}
