// Package main initializes and starts the time ledger HTTP server,
// setting up configuration, logging, storage, services, handlers and
// optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/timeledger/internal/certgen"
	"github.com/atinyakov/timeledger/internal/config"
	"github.com/atinyakov/timeledger/internal/db"
	"github.com/atinyakov/timeledger/internal/logger"
	"github.com/atinyakov/timeledger/internal/memory"
	"github.com/atinyakov/timeledger/internal/repository"
	"github.com/atinyakov/timeledger/internal/server/handler/http"
	"github.com/atinyakov/timeledger/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

// backend is the set of stores the services run on.
type backend struct {
	users       service.UserRepository
	sessions    service.SessionRepository
	ownership   service.OwnershipRepository
	accounts    service.AccountRepository
	entries     service.EntryRepository
	categories  service.CategoryRepository
	reflections service.ReflectionRepository
	purger      db.ExpiredSessionPurger
	close       func() error
}

func newBackend(options *config.Options) (*backend, error) {
	if options.Storage == config.StorageMemory {
		store := memory.New()
		return &backend{
			users: store, sessions: store, ownership: store, accounts: store,
			entries: store, categories: store, reflections: store, purger: store,
			close: func() error { return nil },
		}, nil
	}

	pg, err := db.InitPostgres(options.DatabaseDriver, options.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	sessions := repository.NewPostgresSessionRepository(pg)
	return &backend{
		users:       repository.NewPostgresAuthRepository(pg),
		sessions:    sessions,
		ownership:   repository.NewPostgresOwnershipRepository(pg),
		accounts:    repository.NewPostgresAccountRepository(pg),
		entries:     repository.NewPostgresEntryRepository(pg),
		categories:  repository.NewPostgresCategoryRepository(pg),
		reflections: repository.NewPostgresReflectionRepository(pg),
		purger:      sessions,
		close:       pg.Close,
	}, nil
}

func main() {
	// Parse config file, command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newBackend(options)
	if err != nil {
		zapLogger.Fatal("cannot init storage", zap.Error(err))
	}
	defer func() { _ = store.close() }()
	zapLogger.Info("storage ready", zap.String("storage", options.Storage))

	db.StartSessionCleaner(ctx, store.purger, options.SessionCleanupInterval, zapLogger)

	// Initialize business-logic services.
	credentials, err := service.NewCredentialService(store.users, service.NewBcryptHasher(options.BcryptCost))
	if err != nil {
		zapLogger.Fatal("cannot init credential service", zap.Error(err))
	}
	sessions := service.NewSessionManager(store.sessions, options.SessionTTL)
	guard := service.NewOwnershipChecker(store.ownership, options.ConcealForeignResources)

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Auth: &http.AuthHandler{
			Credentials:  credentials,
			Sessions:     sessions,
			Accounts:     service.NewAccountService(store.accounts, sessions, zapLogger),
			CookieSecure: options.CookieSecure,
			Log:          zapLogger,
		},
		Entries: &http.EntryHandler{
			Entries: service.NewEntryService(store.entries, guard),
			Export:  service.NewExportService(store.entries, store.categories, store.reflections),
			Log:     zapLogger,
		},
		Categories: &http.CategoryHandler{
			Categories: service.NewCategoryService(store.categories, guard),
			Log:        zapLogger,
		},
		Reflections: &http.ReflectionHandler{
			Reflections: service.NewReflectionService(store.reflections, guard),
			Log:         zapLogger,
		},
	}, sessions, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	useTLS := options.TLSCert != "" && options.TLSKey != ""
	if useTLS && options.TLSSelfSigned {
		host, _, err := net.SplitHostPort(options.Address)
		if err != nil || host == "" {
			host = "localhost"
		}
		created, err := certgen.EnsureSelfSigned(options.TLSCert, options.TLSKey, []string{host})
		if err != nil {
			zapLogger.Fatal("failed to generate self-signed certificate", zap.Error(err))
		}
		if created {
			zapLogger.Warn("generated self-signed certificate", zap.String("cert", options.TLSCert))
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	if useTLS {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
