package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/colinohq/colino/config"
	"github.com/colinohq/colino/oauth"
	"github.com/colinohq/colino/server"
	"github.com/colinohq/colino/sessions"
)

func main() {
	app := &cli.App{
		Name:    "colino-broker",
		Usage:   "session-brokered Google OAuth handoff for the colino CLI",
		Version: versioninfo.Short(),
		Action:  run,
	}

	app.RunAndExitOnError()
}

func run(cmd *cli.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	oauthClient, err := oauth.NewClient(oauth.ClientArgs{
		ClientId:     cfg.ClientId,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
	})
	if err != nil {
		return err
	}

	repo, err := newRepo(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Args{
		Repo:          repo,
		OauthClient:   oauthClient,
		PendingTtl:    cfg.PendingTTL,
		ReadyTtl:      cfg.ReadyTTL,
		GatewaySuffix: cfg.GatewaySuffix,
		StagePrefix:   cfg.StagePrefix,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http server", "addr", cfg.Addr, "store", cfg.SessionStore)
		errCh <- srv.Start(cfg.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func newRepo(cfg *config.Config) (sessions.Repo, error) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("could not connect to redis at %s: %w", cfg.RedisAddr, err)
		}

		return sessions.NewRedisRepo(rdb, cfg.RedisPrefix), nil
	case config.StoreMemory:
		return sessions.NewInMemoryRepo(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
