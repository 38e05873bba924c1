// Package app builds the object graph shared by the HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/board"
	"taskboard/internal/calsync"
	"taskboard/internal/config"
	"taskboard/internal/service"
	"taskboard/internal/store"
	"taskboard/internal/tokens"
)

// App holds the wired components.
type App struct {
	Config *config.Config
	Store  service.Store
	Tokens *tokens.Manager
	Sync   *calsync.Engine
	Boards *board.Service

	db    *store.DB
	redis *redis.Client
}

// New opens the database, the optional Redis cache and the token manager,
// and wires the sync engine and mutation service on top.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	var st service.Store = db
	var rc *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("invalid redis.url: %w", err)
		}
		rc = redis.NewClient(opts)
		st = store.NewCache(db, rc, cfg.RedisTTL)
	}

	oauthCfg, err := tokens.LoadOAuthConfig(cfg)
	if errors.Is(err, tokens.ErrNoOAuthClient) {
		log.Debug("no google oauth client configured, calendar sync disabled")
	} else if err != nil {
		closeAll(db, rc)
		return nil, err
	}

	return Wire(cfg, st, tokens.New(oauthCfg, st, nil), db, rc), nil
}

// Wire assembles an App from already constructed parts. db and rc may be nil.
func Wire(cfg *config.Config, st service.Store, tm *tokens.Manager, db *store.DB, rc *redis.Client) *App {
	engine := calsync.New(tm, st, cfg.SyncTimeout)
	return &App{
		Config: cfg,
		Store:  st,
		Tokens: tm,
		Sync:   engine,
		Boards: board.New(st, engine, tm),
		db:     db,
		redis:  rc,
	}
}

// LocalSession returns the session of the CLI user, unauthenticated when
// no local user has been created yet.
func (a *App) LocalSession() service.Session {
	return service.Session{UserID: a.Config.LocalUserID()}
}

// EnsureLocalUser returns the CLI user, creating and recording one if needed.
func (a *App) EnsureLocalUser(ctx context.Context) (service.User, error) {
	u, created, err := a.Boards.EnsureUser(ctx, a.Config.LocalUserID())
	if err != nil {
		return service.User{}, err
	}
	if created {
		if err := a.Config.SaveLocalUserID(u.ID); err != nil {
			return service.User{}, err
		}
	}
	return u, nil
}

// Close releases the cache connection and the database.
func (a *App) Close() error {
	return closeAll(a.db, a.redis)
}

func closeAll(db *store.DB, rc *redis.Client) error {
	var errs []error
	if rc != nil {
		errs = append(errs, rc.Close())
	}
	if db != nil {
		errs = append(errs, db.Close())
	}
	return errors.Join(errs...)
}
