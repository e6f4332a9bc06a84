package checkersbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/checkers-kakao-bot/internal/adapter/checkerspresenter"
	"github.com/park285/checkers-kakao-bot/internal/config"
	"github.com/park285/checkers-kakao-bot/internal/irisfast"
	"github.com/park285/checkers-kakao-bot/internal/msgcat"
	"github.com/park285/checkers-kakao-bot/internal/pvp"
	"github.com/park285/checkers-kakao-bot/internal/pvpchan"
	"github.com/park285/checkers-kakao-bot/internal/pvpcheckers"
	svccheckers "github.com/park285/checkers-kakao-bot/internal/service/checkers"
	"github.com/park285/checkers-kakao-bot/internal/snapshotstore"
)

// Deps is everything the bot process needs once wiring succeeded.
type Deps struct {
	Config *config.AppConfig
	Logger *zap.Logger

	Games      *pvpcheckers.Manager
	Lobby      *pvpchan.Manager
	Challenges *pvp.Manager
	Catalog    *msgcat.Catalog

	Client *irisfast.Client
	WS     *irisfast.WebSocket
	Egress irisfast.Egress

	Presenter *checkerspresenter.Presenter
	Formatter *checkerspresenter.Formatter

	closers []func() error
}

// New dials Redis (and Postgres when DATABASE_URL is set) and wires the bot.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	games, err := pvpcheckers.NewManager(cfg.RedisURL, gameOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("init game manager: %w", err)
	}
	d, err := assemble(cfg, games, logger)
	if err != nil {
		_ = games.Close()
		return nil, err
	}
	d.closers = append(d.closers, games.Close)

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	games.AttachRepository(repo)
	if closeRepo != nil {
		d.closers = append(d.closers, closeRepo)
	}
	return d, nil
}

// NewWithRedis wires the bot on an existing Redis client with the in-memory result archive.
func NewWithRedis(cfg *config.AppConfig, rdb *redis.Client, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if rdb == nil {
		return nil, fmt.Errorf("nil redis client")
	}
	games := pvpcheckers.NewManagerWithClient(rdb, gameOptions(cfg)...)
	games.AttachRepository(pvpcheckers.NewMemoryRepository())
	return assemble(cfg, games, logger)
}

func gameOptions(cfg *config.AppConfig) []pvpcheckers.Option {
	return []pvpcheckers.Option{
		pvpcheckers.WithGameTTL(cfg.GameTTL),
		pvpcheckers.WithChainCaptures(cfg.ChainCaptures),
		pvpcheckers.WithRenderer(svccheckers.NewPNGRenderer()),
	}
}

func assemble(cfg *config.AppConfig, games *pvpcheckers.Manager, logger *zap.Logger) (*Deps, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	headers := Headers(cfg)
	var client *irisfast.Client
	if cfg.IrisBaseURL != "" {
		client = irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))
	}
	var ws *irisfast.WebSocket
	if cfg.IrisWSURL != "" {
		ws = irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
		ws.SetHeaderProvider(headers)
	}
	egress := irisfast.NewEgress(cfg.EgressMode, cfg.DryRun, client, ws, logger)

	d := &Deps{
		Config:     cfg,
		Logger:     logger,
		Games:      games,
		Lobby:      pvpchan.NewManager(games.Redis(), games),
		Challenges: pvp.NewManager(pvp.WithTTL(cfg.ChallengeTTL)),
		Catalog:    catalog,
		Client:     client,
		WS:         ws,
		Egress:     egress,
		Presenter:  checkerspresenter.NewPresenter(egress),
		Formatter:  checkerspresenter.NewFormatter(catalog, checkerspresenter.StaticPrefix(cfg.BotPrefix)),
	}
	logger.Info("checkers_wired",
		zap.String("egress", cfg.EgressMode),
		zap.Bool("dryrun", cfg.DryRun),
		zap.Bool("chain_captures", cfg.ChainCaptures),
		zap.Duration("game_ttl", cfg.GameTTL),
		zap.Duration("challenge_ttl", cfg.ChallengeTTL),
		zap.Int("allowed_rooms", len(cfg.AllowedRooms)),
	)
	return d, nil
}

// Close releases resources in reverse wiring order.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// Headers injects the configured Iris identity into every request and the WS handshake.
func Headers(cfg *config.AppConfig) irisfast.HeaderProvider {
	return irisfast.Identity{UserID: cfg.XUserID, Email: cfg.XUserEmail, SessionID: cfg.XSessionID}.Provider()
}

func newRepository(ctx context.Context, cfg *config.AppConfig) (pvpcheckers.ResultRepository, func() error, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return pvpcheckers.NewMemoryRepository(), nil, nil
	}
	repo, err := pvpcheckers.NewRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("init result repository: %w", err)
	}
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(sctx); err != nil {
		_ = repo.Close()
		return nil, nil, fmt.Errorf("ensure result schema: %w", err)
	}
	return repo, repo.Close, nil
}

// NewSnapshotStore opens the snapshot backend named by CHECKERS_STORE. The returned close
// function is never nil.
func NewSnapshotStore(ctx context.Context, cfg *config.AppConfig) (snapshotstore.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store {
	case config.StoreMemory:
		return snapshotstore.NewMemoryStore(), noop, nil
	case config.StorePostgres:
		pg, err := snapshotstore.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(sctx); err != nil {
			_ = pg.Close()
			return nil, noop, fmt.Errorf("ensure snapshot schema: %w", err)
		}
		return pg, pg.Close, nil
	case config.StoreFile, "":
		fs, err := snapshotstore.NewFileStore(cfg.StoreDir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown snapshot store %q", cfg.Store)
	}
}
