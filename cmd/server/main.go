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
	"github.com/jrsteele09/yanssound-auth/auth"
	"github.com/jrsteele09/yanssound-auth/internal/config"
	"github.com/jrsteele09/yanssound-auth/internal/database"
	"github.com/jrsteele09/yanssound-auth/internal/logging"
	"github.com/jrsteele09/yanssound-auth/profiles/sqlrepo"
	"github.com/jrsteele09/yanssound-auth/server"
	"github.com/jrsteele09/yanssound-auth/token"
	"github.com/jrsteele09/yanssound-auth/token/keys"
	"github.com/jrsteele09/yanssound-auth/token/revocation"
	"github.com/jrsteele09/yanssound-auth/token/revocation/memstore"
	"github.com/jrsteele09/yanssound-auth/token/revocation/redisstore"
	"github.com/rs/zerolog/log"
)

const memstoreCleanupInterval = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
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
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	if err := config.Validate(c); err != nil {
		return err
	}
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(ctx, c.GetDatabaseDriver(), c.GetDatabaseURL())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	store, closeStore, err := newRevocationStore(ctx, c)
	if err != nil {
		return err
	}
	defer closeStore()

	handler, err := newHandler(c, db, store)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// newRevocationStore connects to Redis when REDIS_ADDR is set. Without it the blacklist lives in process
// memory, which only suits a single instance.
func newRevocationStore(ctx context.Context, c config.Config) (revocation.Store, func(), error) {
	if addr := c.GetRedisAddr(); addr != "" {
		store, err := redisstore.Dial(ctx, addr, c.GetRedisPassword(), c.GetRedisDB())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", addr).Msg("revocation store: redis")
		return store, func() { _ = store.Close() }, nil
	}

	log.Warn().Msg("revocation store: in-memory (REDIS_ADDR not set); blacklist is not shared between instances")
	store := memstore.New()
	go store.RunCleanup(ctx, memstoreCleanupInterval)
	return store, func() {}, nil
}

func newHandler(c config.Config, db *database.DB, store revocation.Store) (http.Handler, error) {
	signer, err := keys.NewSigner(c.GetSigningKey(), c.GetPrivateKeyPEM(), c.GetKeyID())
	if err != nil {
		return nil, err
	}
	codec, err := token.NewCodec(signer,
		token.WithLifetime(token.TypeAccess, c.GetAccessTokenLifetime()),
		token.WithLifetime(token.TypeRefresh, c.GetRefreshTokenLifetime()),
		token.WithLifetime(token.TypeVerify, c.GetVerifyTokenLifetime()),
		token.WithIssuer(c.GetIssuer()),
	)
	if err != nil {
		return nil, err
	}
	revocations, err := revocation.NewManager(store, codec,
		revocation.WithKeyPrefix(c.GetBlacklistKeyPrefix()),
		revocation.WithTimeout(c.GetRevocationStoreTimeout()),
	)
	if err != nil {
		return nil, err
	}

	repo := sqlrepo.New(db)
	validator := auth.NewValidator()
	verifier, err := auth.NewCredentialVerifier(repo, validator)
	if err != nil {
		return nil, err
	}
	sessions, err := auth.NewSessionService(repo, verifier, codec, revocations,
		auth.WithRotation(c.GetRotateRefreshTokens(), c.GetBlacklistAfterRotation()),
	)
	if err != nil {
		return nil, err
	}
	accounts, err := auth.NewAccountService(repo, codec, revocations,
		auth.WithNotifier(auth.LogNotifier{VerifyURL: c.GetBaseURL() + server.RouteVerifyEmail}),
		auth.WithBcryptCost(c.GetBcryptCost()),
		auth.WithValidator(validator),
	)
	if err != nil {
		return nil, err
	}

	options := []server.Option{server.WithValidator(validator)}
	if provider, ok := signer.(keys.JWKSProvider); ok {
		options = append(options, server.WithJWKS(provider))
	}
	return server.New(c, sessions, accounts, options...)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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
