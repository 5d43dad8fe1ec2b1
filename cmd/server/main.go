package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/barapp/sesh"
	"github.com/barapp/sesh/pkg/config"
	"github.com/barapp/sesh/pkg/dbstore"
	"github.com/barapp/sesh/pkg/domain"
	"github.com/barapp/sesh/pkg/logger"
	"github.com/barapp/sesh/pkg/mailverify"
	"github.com/barapp/sesh/pkg/memstore"
	"github.com/barapp/sesh/pkg/metrics"
)

type stores struct {
	sessions domain.SessionStore
	users    domain.UserStore
	mail     domain.MailVerificationStore
	close    func() error
}

func openStores(ctx context.Context, cfg config.Config, reg prometheus.Registerer, log zerolog.Logger) (stores, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL is not set, keeping sessions in memory with demo users 1 and 2")
		return stores{
			sessions: memstore.NewSessionStore(),
			users:    memstore.NewUserStore(1, 2),
			mail:     memstore.NewMailVerificationStore(),
			close:    func() error { return nil },
		}, nil
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := dbstore.Connect(connCtx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}

	store := dbstore.NewDBStore(db, cfg.DatabaseTablePrefix)
	if err := store.CreateSchema(connCtx); err != nil {
		store.Close()
		return stores{}, err
	}

	reg.MustRegister(collectors.NewDBStatsCollector(db.DB, "sesh"))
	log.Info().Str("table_prefix", cfg.DatabaseTablePrefix).Msg("connected to postgresql")

	return stores{
		sessions: store.Sessions(),
		users:    store.Users(),
		mail:     store.MailVerifications(),
		close:    store.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("addr", cfg.ListenAddr).Msg("starting session server")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st, err := openStores(ctx, cfg, reg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open stores")
	}
	defer st.close()

	sessionLog := metrics.NewCountingLogger(logger.NewZerologLogger(log), reg)

	options := []sesh.Option{sesh.CustomLogger(sessionLog)}
	if cfg.TrustProxyHeaders {
		options = append(options, sesh.TrustProxyHeaders())
	}

	sessions, err := sesh.NewSessions(st.sessions, st.users, cfg.Cookie.Transport(), options...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up sessions")
	}
	mail := mailverify.NewService(st.mail, sessionLog)

	if cfg.PurgeInterval > 0 {
		go runReaper(ctx, cfg.PurgeInterval, log, sessions.Manager(), mail)
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      newTestServer(sessions, mail, log).routes(reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}
