package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/linemk/nirvana-shop/internal/config"
	"github.com/linemk/nirvana-shop/internal/identity"
	"github.com/linemk/nirvana-shop/internal/service"
	"github.com/linemk/nirvana-shop/internal/storage"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Gateway *storage.Gateway
	// Redis равен nil, если кэш ролей не настроен
	Redis *redis.Client
}

// NewApp открывает оба пула к БД и, если задан адрес, клиент Redis
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	restricted, err := openDB(ctx, cfg.Database.DSN(), cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("restricted pool: %w", err)
	}
	admin, err := openDB(ctx, cfg.Database.AdminDSN(), cfg.Database.MaxOpenConns)
	if err != nil {
		restricted.Close()
		return nil, fmt.Errorf("admin pool: %w", err)
	}

	app := &App{
		Config:  cfg,
		Logger:  log,
		Gateway: storage.NewGateway(restricted, admin),
	}

	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		// без кэша сервис работает, поэтому недоступный Redis не фатален
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis is unavailable, role cache will miss", slog.String("address", cfg.Redis.Address), slog.Any("error", err))
		}
		app.Redis = rdb
	}

	return app, nil
}

func openDB(ctx context.Context, dsn string, maxOpen int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Services собирает репозитории и сервисы поверх шлюза
func (a *App) Services() Services {
	productRepo := storage.NewProductRepository(a.Gateway)
	cartRepo := storage.NewCartRepository(a.Gateway)
	orderRepo := storage.NewOrderRepository(a.Gateway)

	cartSvc := service.NewCartService(a.Logger, a.Gateway.Admin, cartRepo)
	return Services{
		Catalog: service.NewCatalogService(a.Logger, productRepo),
		Cart:    cartSvc,
		Orders:  service.NewOrderService(a.Logger, a.Gateway.Admin, orderRepo, cartSvc),
		Admin:   service.NewAdminService(a.Logger, orderRepo, productRepo),
	}
}

// RoleResolver: сначала claims сессии, затем провайдер (через кэш, если есть Redis)
func (a *App) RoleResolver() identity.RoleResolver {
	// nil *redis.Client в интерфейсе не равен nil
	if a.Redis == nil {
		return BuildRoleResolver(a.Logger, a.Config.Identity, nil)
	}
	return BuildRoleResolver(a.Logger, a.Config.Identity, a.Redis)
}

func BuildRoleResolver(log *slog.Logger, cfg config.IdentityConfig, rdb redis.Cmdable) identity.RoleResolver {
	chain := identity.ChainRoleResolver{identity.ClaimsRoleResolver{}}
	if cfg.ProviderURL == "" || cfg.ProviderSecret == "" {
		log.Warn("identity provider lookup disabled, roles come from session claims only")
		return chain
	}

	var provider identity.RoleResolver = identity.NewProviderRoleResolver(log, cfg.ProviderURL, cfg.ProviderSecret, cfg.LookupTimeout)
	if rdb != nil {
		provider = identity.NewCachedRoleResolver(log, rdb, provider, cfg.RoleCacheTTL)
	}
	return append(chain, provider)
}

// Handler: готовый HTTP-обработчик приложения
func (a *App) Handler() http.Handler {
	return NewRouter(a.Logger, a.Services(), RouterOptions{
		Env:           a.Config.Env,
		SessionSecret: a.Config.Identity.SessionSecret,
		Roles:         a.RoleResolver(),
	})
}

func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	return a.Gateway.Close()
}
