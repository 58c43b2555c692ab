package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userhub.org/internal/config"
	"userhub.org/internal/httpapi"
	"userhub.org/internal/obs"
	"userhub.org/internal/store/pg"
	"userhub.org/internal/token"
	"userhub.org/internal/user"
)

// Stamped via -ldflags at build time.
var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Without a DSN the service runs on the in-memory store. Useful for
	// demos and local poking; state is gone on restart.
	var (
		store user.Store
		ready httpapi.ReadyProbe
	)
	if cfg.PGDSN != "" {
		pgStore, err := pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		ready = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pgStore.DB().PingContext(ctx)
		}
	} else {
		log.Print("USERHUB_PG_DSN not set, using in-memory store")
		store = user.NewMemory()
	}

	tokens, err := token.NewService(cfg.JWTSecret,
		token.WithIssuer(cfg.Issuer),
		token.WithAccessTTL(cfg.AccessTTL),
		token.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	users, err := user.NewService(store, tokens)
	if err != nil {
		log.Fatalf("user service: %v", err)
	}

	api := httpapi.New(users, tokens, ready, version)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting userhub-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
