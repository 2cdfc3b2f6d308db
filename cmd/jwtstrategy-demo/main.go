// Command jwtstrategy-demo serves a small API protected by the JWT strategy.
//
// Try it out with:
//
//	JWT_STRATEGY_SECRET=secret go run ./cmd/jwtstrategy-demo
//	curl -H "Authorization: Bearer $TOKEN" localhost:3000/me
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	jwtstrategy "github.com/auth0/go-jwt-strategy"
	"github.com/auth0/go-jwt-strategy/backend"
	"github.com/auth0/go-jwt-strategy/config"
	"github.com/auth0/go-jwt-strategy/session"
	"github.com/auth0/go-jwt-strategy/verifier"
)

// Principal is the user resolved from a verified token.
type Principal struct {
	Subject string   `json:"sub"`
	Scopes  []string `json:"scopes,omitempty"`
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	var sessions *session.Manager
	if cfg.Sessions() {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}

		var err error
		sessions, err = session.NewManager(session.NewRedisStore(client, ""), session.Config{
			CookieName: cfg.SessionCookie,
			TTL:        cfg.SessionTTL,
		})
		if err != nil {
			return err
		}
	}

	handler, err := newRouter(cfg, log, prometheus.DefaultRegisterer, sessions)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.ListenAddr,
			"verifier": cfg.Backend(),
			"sessions": cfg.Sessions(),
		}).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newStrategy(cfg *config.Config, log *logrus.Logger, reg prometheus.Registerer) (*jwtstrategy.Strategy[*Principal], error) {
	v, err := backend.New(cfg.Backend(), verifier.WithLeeway(cfg.Leeway))
	if err != nil {
		return nil, err
	}

	return jwtstrategy.New(
		resolvePrincipal,
		jwtstrategy.WithVerifier(v),
		jwtstrategy.WithSecret(cfg.Secret),
		jwtstrategy.WithAlgorithms(cfg.SignatureAlgorithms()...),
		jwtstrategy.WithLogger(jwtstrategy.NewLogrusLogger(log)),
		jwtstrategy.WithMetrics(jwtstrategy.NewPrometheusMetrics(reg)),
	)
}

func resolvePrincipal(_ context.Context, p jwtstrategy.VerifyParams) (*Principal, error) {
	claims, ok := p.Payload.(map[string]any)
	if !ok {
		return nil, errors.New("token payload must be an object")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("token has no subject")
	}

	principal := &Principal{Subject: sub}
	if scope, ok := claims["scope"].(string); ok {
		principal.Scopes = strings.Fields(scope)
	}
	return principal, nil
}

func newRouter(cfg *config.Config, log *logrus.Logger, reg prometheus.Registerer, sessions *session.Manager) (http.Handler, error) {
	strategy, err := newStrategy(cfg, log, reg)
	if err != nil {
		return nil, err
	}

	opts := []jwtstrategy.MiddlewareOption{
		jwtstrategy.WithExclusionURLs("/health", "/metrics"),
		jwtstrategy.WithValidateOnOptions(false),
	}
	if sessions != nil {
		opts = append(opts,
			jwtstrategy.WithSessionManager(sessions),
			jwtstrategy.WithAuthenticateOptions(jwtstrategy.AuthenticateOptions{
				SessionKey:         "user",
				SessionErrorKey:    "error",
				SessionStrategyKey: "strategy",
			}),
		)
	}
	authenticate, err := strategy.Middleware(opts...)
	if err != nil {
		return nil, err
	}

	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(authenticate)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		principal := jwtstrategy.MustUserFromContext[*Principal](r.Context())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(principal)
	})

	return r, nil
}
