package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/configs"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/cache"
	httpadapter "github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/http"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/http/middleware"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/kafka"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/observ"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/queue"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/repo"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/upstream"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

type App struct {
	Router  *gin.Engine
	workers sync.WaitGroup
}

// Wait blocks until the background consumers and the outbox relay stop.
func (a *App) Wait() { a.workers.Wait() }

func (a *App) goWorker(fn func()) {
	a.workers.Add(1)
	go func() {
		defer a.workers.Done()
		fn()
	}()
}

// InitWithConfig wires adapters and use cases. Workers run until ctx is done.
func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	log := logging.New("startup")
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closers = append(closers, func() { _ = rdb.Close() })
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := rdb.Ping(pctx).Err()
	cancel()
	if err != nil {
		return fail(fmt.Errorf("redis ping: %w", err))
	}

	// shop backend
	shop, err := upstream.NewClient("shop", cfg.Upstream.BaseURL, &http.Client{Timeout: cfg.Upstream.Timeout})
	if err != nil {
		return fail(err)
	}

	tel := observ.NewTelemetry(prometheus.DefaultRegisterer)

	// carts
	var accountCarts usecase.CartBackend = cache.NewRealtimeCartBackend(rdb)
	if cfg.Cart.AccountBackend == configs.AccountCartREST {
		accountCarts = upstream.NewRestCartBackend(shop)
	}
	carts := usecase.NewCartStore(
		cache.NewGuestCartBackend(rdb, cfg.Cart.GuestTTL),
		accountCarts,
		upstream.NewProductClient(shop),
		usecase.WithTelemetry(tel),
		usecase.WithRetryPolicy(usecase.RetryPolicy{Retries: cfg.Cart.SaveRetries, Backoff: cfg.Cart.RetryBackoff}),
	)

	// checkout + payment
	sessions := cache.NewRedisSessionStore(rdb, cfg.Session.TTL)
	checkout := usecase.NewCheckoutService(
		carts,
		usecase.NewRateLoader(upstream.NewSettingsClient(shop), cfg.Shipping.FallbackRate),
		usecase.NewCouponValidator(upstream.NewCouponClient(shop), tel),
		sessions,
		usecase.CheckoutConfig{
			Origin:     entity.GeoPoint{Lat: cfg.Shipping.OriginLat, Lng: cfg.Shipping.OriginLng},
			MinimumFee: cfg.Shipping.MinimumFee,
		},
		tel,
	)
	orders := upstream.NewOrderClient(shop)
	tracking := usecase.NewOrderTracking(orders, cache.NewRedisCache(rdb, cfg.Orders.CacheTTL),
		usecase.WithStatusFeed(len(cfg.Kafka.Brokers) > 0))

	a := &App{}

	// order events: mysql outbox -> rabbitmq -> tracking cache
	var outbox usecase.OutboxRepo
	if cfg.Outbox.Enabled {
		db, err := openMySQL(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = db.Close() })
		outboxRepo := repo.NewMySQLOutboxRepo(db)
		outbox = outboxRepo

		conn, err := amqp091.Dial(cfg.Rabbit.URL)
		if err != nil {
			return fail(fmt.Errorf("rabbitmq dial: %w", err))
		}
		closers = append(closers, func() { _ = conn.Close() })
		if err := setupQueue(ctx, a, conn, cfg, outboxRepo, tracking); err != nil {
			return fail(err)
		}
	}
	payments := usecase.NewPaymentService(carts, sessions, upstream.NewPaymentClient(shop), orders,
		cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL), outbox, tel)

	// order status changes from the shop backend
	if len(cfg.Kafka.Brokers) > 0 {
		if err := setupKafkaListener(ctx, a, cfg, tracking); err != nil {
			return fail(err)
		}
	}

	// init handlers + routers + middleware
	ids := middleware.NewIdentity(middleware.TokenConfig{
		Secret:   cfg.Security.JWTSecret,
		Issuer:   cfg.Security.Issuer,
		Audience: cfg.Security.Audience,
	})
	hb := cfg.HTTP.HeartbeatInterval
	a.Router = httpadapter.NewRouter(httpadapter.Handlers{
		Guest:    httpadapter.NewGuestHandler(ids, cfg.Security.GuestTTL),
		Cart:     httpadapter.NewCartHandler(carts, hb),
		Checkout: httpadapter.NewCheckoutHandler(checkout, carts, hb),
		Payment:  httpadapter.NewPaymentHandler(payments, carts, hb),
		Orders:   httpadapter.NewOrderHandler(tracking),
	}, ids, logging.New("http"))

	log.Info("storefront wired",
		"account_carts", accountCarts.Name(),
		"outbox", cfg.Outbox.Enabled,
		"kafka", len(cfg.Kafka.Brokers) > 0)
	return a, cleanup, nil
}

func openMySQL(ctx context.Context, cfg configs.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	return db, nil
}

// setupQueue starts the outbox relay on its own confirm-mode channel and the
// tracking consumer on another.
func setupQueue(ctx context.Context, a *App, conn *amqp091.Connection, cfg configs.Config,
	outbox *repo.MySQLOutboxRepo, tracking *usecase.OrderTracking) error {
	pubCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	producer, err := queue.NewRabbitProducer(pubCh)
	if err != nil {
		return err
	}
	relay := queue.NewOutboxRelay(outbox, producer,
		queue.WithInterval(cfg.Outbox.Interval),
		queue.WithBatch(cfg.Outbox.Batch),
		queue.WithMaxRetries(cfg.Outbox.MaxRetries))
	a.goWorker(func() { relay.Run(ctx) })

	subCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := queue.DeclareTopology(subCh); err != nil {
		return err
	}
	router := queue.NewRouter(subCh, queue.WithPrefetch(cfg.Rabbit.Prefetch))
	router.Register(queue.QueueTracking, queue.JSONHandler[usecase.OrderPlacedMsg]{HandleFunc: tracking.HandleOrderPlaced})
	if err := router.Start(ctx); err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}
	a.goWorker(router.Wait)
	return nil
}

func setupKafkaListener(ctx context.Context, a *App, cfg configs.Config, tracking *usecase.OrderTracking) error {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.ClientID)
	if err != nil {
		return fmt.Errorf("kafka group: %w", err)
	}

	h := kafka.NewOrderStatusChangedHandler(tracking)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicStatus}, h.Handle)

	a.goWorker(func() {
		defer grp.Close()
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logging.New("kafka").Error("status consumer stopped", "err", err)
		}
	})
	return nil
}
