package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-hr-portal/credentials"
	"github.com/jrsteele09/go-hr-portal/credentials/memstore"
	"github.com/jrsteele09/go-hr-portal/credentials/oidcstore"
	"github.com/jrsteele09/go-hr-portal/credentials/sessionstore"
	"github.com/jrsteele09/go-hr-portal/internal/config"
	"github.com/jrsteele09/go-hr-portal/server"
	"github.com/jrsteele09/go-hr-portal/token"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/jrsteele09/go-hr-portal/users/pgrepo"
	fakeuserrepo "github.com/jrsteele09/go-hr-portal/users/repofake"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 5 * time.Second
	janitorInterval = time.Minute
)

func main() {
	if err := config.Load(".env"); err != nil {
		log.Fatal().Err(err).Msg("Failed to load .env")
	}
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo, closeUsers, err := openUsers(ctx, c)
	if err != nil {
		return err
	}
	defer closeUsers()

	newStore, closeStores, err := openCredentials(ctx, c)
	if err != nil {
		return err
	}
	defer closeStores()

	srv, err := server.New(c, server.Dependencies{Users: userRepo, NewStore: newStore})
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	defer srv.Close()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listenAndServe(httpServer) })
	g.Go(func() error {
		if err := srv.RunJanitor(gctx, janitorInterval); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})
	return g.Wait()
}

func configureLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openUsers connects to Postgres, or falls back to the in-memory repo when no
// database is configured.
func openUsers(ctx context.Context, c config.Config) (users.Repo, func(), error) {
	dsn := c.GetDatabaseURL()
	if dsn == "" {
		log.Warn().Msg("DATABASE_URL not set, profiles and roles are kept in memory")
		return fakeuserrepo.NewFakeUserRepo(), func() {}, nil
	}

	pool, err := pgrepo.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if c.GetRunMigrations() {
		if err := pgrepo.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return pgrepo.New(pool), pool.Close, nil
}

// openCredentials builds the per-browser credential store factory for the
// configured mode.
func openCredentials(ctx context.Context, c config.Config) (server.StoreFactory, func(), error) {
	switch c.GetCredentialsMode() {
	case config.CredentialsModeMemory:
		secret := c.GetTokenSecret()
		if secret == "" {
			return nil, nil, errors.New("TOKEN_SECRET is required in memory credentials mode")
		}
		issuer := token.NewIssuer(token.NewHMACSigner(secret), c.GetBaseURL(), c.GetTokenExpiry())
		svc := memstore.NewService(issuer)
		log.Warn().Msg("Using in-memory credentials, accounts are lost on restart")
		return func(string) credentials.Store { return memstore.NewClient(svc) }, func() {}, nil

	case config.CredentialsModeOIDC:
		provider, err := oidcstore.NewProvider(oidcstore.Config{
			Issuer:          c.GetOIDCIssuer(),
			ClientID:        c.GetOIDCClientID(),
			ClientSecret:    c.GetOIDCClientSecret(),
			TokenURL:        c.GetOIDCTokenURL(),
			JWKSURL:         c.GetOIDCJWKSURL(),
			RegistrationURL: c.GetOIDCRegistrationURL(),
			RevocationURL:   c.GetOIDCRevocationURL(),
			AccountURL:      c.GetOIDCAccountURL(),
			Audience:        c.GetOIDCAudience(),
			HTTPClient:      &http.Client{Timeout: c.GetCredentialsTimeout()},
		})
		if err != nil {
			return nil, nil, err
		}
		storage, closeStorage, err := openSessionStorage(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		return func(key string) credentials.Store {
			return oidcstore.NewClient(provider, storage, key)
		}, closeStorage, nil

	default:
		return nil, nil, fmt.Errorf("unknown CREDENTIALS_MODE %q", c.GetCredentialsMode())
	}
}

func openSessionStorage(ctx context.Context, c config.Config) (sessionstore.Storage, func(), error) {
	addr := c.GetRedisAddr()
	if addr == "" {
		log.Warn().Msg("REDIS_ADDR not set, signed in sessions do not survive a restart")
		return sessionstore.NewMemory(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: c.GetRedisPassword(),
		DB:       c.GetRedisDB(),
	})
	pingCtx, cancel := context.WithTimeout(ctx, c.GetCredentialsTimeout())
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info().Str("addr", addr).Msg("Session storage connected")
	closeRedis := func() { _ = rdb.Close() }
	return sessionstore.NewRedis(rdb, c.GetSessionKeyPrefix(), c.GetMaxSessionAge()), closeRedis, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
