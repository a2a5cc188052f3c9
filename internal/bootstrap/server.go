package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/tourbooking/config"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/encoding/protojson"
)

const (
	serviceName   = "tourbooking"
	checkInterval = 10 * time.Second
)

// Handlers are the HTTP surfaces served next to the health and docs routes.
type Handlers struct {
	API       http.Handler
	WebSocket http.Handler
	// Check reports whether the backing stores are reachable. Nil means always healthy.
	Check func(ctx context.Context) error
}

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
	healthConn *grpc.ClientConn
	check      func(ctx context.Context) error
	logger     *zap.Logger
}

// Run starts the gRPC health server and the HTTP server and blocks until ctx
// is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, h Handlers, logger *zap.Logger) error {
	s, err := newServers(cfg, h, logger)
	if err != nil {
		return err
	}
	defer s.healthConn.Close()

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- s.grpcServer.Serve(lis) }()
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go s.watchHealth(ctx)

	logger.Info("servers started", zap.String("http", cfg.HTTP.Address), zap.String("grpc", cfg.GRPC.Address))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("servers stopped")
		return nil
	}
}

func newServers(cfg *config.Config, h Handlers, logger *zap.Logger) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	conn, err := grpc.NewClient(cfg.GRPC.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC health: %w", err)
	}

	gw := runtime.NewServeMux()
	healthClient := healthpb.NewHealthClient(conn)
	if err := gw.HandlePath(http.MethodGet, "/healthz", healthHandler(healthClient)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("register health route: %w", err)
	}

	handler := http.NewServeMux()
	handler.Handle("/healthz", gw)
	if h.WebSocket != nil {
		handler.Handle("/ws", h.WebSocket)
	}
	if cfg.HTTP.SwaggerDir != "" {
		handler.Handle("/docs/", http.StripPrefix("/docs/", http.FileServer(http.Dir(cfg.HTTP.SwaggerDir))))
		handler.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/docs/openapi.json")))
	}
	if h.API != nil {
		handler.Handle("/", h.API)
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: httpSrv,
		health:     healthSrv,
		healthConn: conn,
		check:      h.Check,
		logger:     logger,
	}, nil
}

func healthHandler(client healthpb.HealthClient) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: serviceName})
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"UNKNOWN"}`))
			return
		}
		body, err := protojson.Marshal(resp)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write(body)
	}
}

// watchHealth flips the service status according to the store check.
func (s *Servers) watchHealth(ctx context.Context) {
	if s.check == nil {
		return
	}
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		s.probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Servers) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("health check failed", zap.Error(err))
	}
	s.health.SetServingStatus(serviceName, status)
}
