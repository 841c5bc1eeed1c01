// Package app wires configuration, storage, the live hub and the HTTP
// routes into a runnable server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/config"
	"github.com/iliyamo/indias-got-voice/internal/database"
	"github.com/iliyamo/indias-got-voice/internal/handler"
	"github.com/iliyamo/indias-got-voice/internal/live"
	"github.com/iliyamo/indias-got-voice/internal/middleware"
	"github.com/iliyamo/indias-got-voice/internal/repository"
	"github.com/iliyamo/indias-got-voice/internal/router"
	"github.com/iliyamo/indias-got-voice/internal/service"
)

// Options bundles the configuration sections the server needs.
type Options struct {
	Config    config.Config
	Live      config.LiveConfig
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	AMQP      config.AMQPConfig
}

// LoadOptions reads every configuration section from the environment.
func LoadOptions() (Options, error) {
	cfg, err := config.Load()
	if err != nil {
		return Options{}, err
	}
	lc := config.LoadLiveConfig()
	return Options{
		Config:    cfg,
		Live:      lc,
		Cache:     config.LoadCacheConfig(lc),
		RateLimit: config.LoadRateLimitConfig(),
		AMQP:      config.LoadAMQPConfig(),
	}, nil
}

// Server is the HTTP + WebSocket API.
type Server struct {
	opts Options
	log  *zap.Logger
	db   *sql.DB
	rdb  *redis.Client
	hub  *live.Hub
	pub  service.Publisher
	echo *echo.Echo
	srv  *http.Server
}

// New opens the database, optionally runs migrations and builds the router.
// Redis is optional: without it the cache and the rate limiter pass
// requests through.
func New(opts Options, log *zap.Logger, migrate bool) (*Server, error) {
	cfg := opts.Config
	db, err := database.Open(database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if migrate {
		if err := database.MigrateUp(db, log); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	rdb := config.NewRedisClient(log)
	return NewWithDeps(opts, log, db, rdb, service.New(opts.AMQP, log)), nil
}

// NewWithDeps builds a server around already opened dependencies.  rdb may
// be nil.
func NewWithDeps(opts Options, log *zap.Logger, db *sql.DB, rdb *redis.Client, pub service.Publisher) *Server {
	cfg := opts.Config

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	shows := repository.NewShowRepo(db)
	participants := repository.NewParticipantRepo(db)
	seats := repository.NewSeatRepo(db)
	votes := repository.NewVoteRepo(db)
	speakers := repository.NewSpeakerRepo(db)
	comments := repository.NewCommentRepo(db)

	src := &live.RepoSource{
		Shows:        shows,
		Participants: participants,
		Seats:        seats,
		Speakers:     speakers,
		Comments:     comments,
		CommentLimit: opts.Live.CommentFeedLimit,
	}
	hub := live.NewHub(src, opts.Live.LiveInterval, opts.Live.WSMaxMessageSize, log)

	authH := handler.NewAuthHandler(cfg, users, tokens, log)
	profileH := handler.NewProfileHandler(users, participants, log)
	showH := &handler.ShowHandler{
		Shows:  shows,
		Events: pub,
		Hub:    hub,
		PurgeList: func(ctx context.Context) error {
			return middleware.PurgeCache(ctx, rdb, opts.Cache.Prefix)
		},
		Log: log,
	}
	participantH := &handler.ParticipantHandler{Participants: participants, Events: pub, Hub: hub, Log: log}
	liveH := &handler.LiveHandler{
		Source:       src,
		Shows:        shows,
		Seats:        seats,
		Votes:        votes,
		Speakers:     speakers,
		Comments:     comments,
		CommentLimit: opts.Live.CommentFeedLimit,
		ChatInterval: opts.Live.ChatInterval,
		LiveInterval: opts.Live.LiveInterval,
		Events:       pub,
		Hub:          hub,
		Log:          log,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authH, profileH, cfg.JWTSecret)
	router.RegisterPublic(e, showH, middleware.NewRedisCache(opts.Cache, rdb, log))
	router.RegisterLive(e, liveH, participantH, cfg.JWTSecret, middleware.NewTokenBucket(opts.RateLimit, rdb, log))
	router.RegisterAdmin(e, showH, participantH, liveH, cfg.JWTSecret)

	return &Server{
		opts: opts,
		log:  log,
		db:   db,
		rdb:  rdb,
		hub:  hub,
		pub:  pub,
		echo: e,
		srv: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           e,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is cancelled, then shuts down gracefully and
// releases every dependency.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening",
			zap.String("addr", s.srv.Addr),
			zap.String("env", s.opts.Config.Env),
			zap.Duration("live_interval", s.opts.Live.LiveInterval))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = fmt.Errorf("http: %w", err)
	}

	// Hijacked WebSocket connections are not tracked by Shutdown; closing
	// the hub ends their write pumps.
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	s.close()
	return runErr
}

func (s *Server) close() {
	if c, ok := s.pub.(io.Closer); ok {
		_ = c.Close()
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	_ = s.db.Close()
	s.log.Info("server stopped")
}
