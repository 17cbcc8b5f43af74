package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/cloud-omnichannel/orderservice/pkg/client"
	"github.com/cloud-omnichannel/orderservice/pkg/model"
	"github.com/cloud-omnichannel/orderservice/pkg/repository"
	"github.com/cloud-omnichannel/orderservice/pkg/service"
	"github.com/cloud-omnichannel/orderservice/pkg/worker"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := &sync.WaitGroup{}

	repo := initRepo()

	// Fire-and-forget collaborators
	notifier := worker.NewNotifier(log)
	notifier.Start(ctx, wg)

	var analytics service.AnalyticsRecorder = worker.NewLogAnalytics(log)
	if rdb := initRedis(); rdb != nil {
		analytics = worker.NewRedisAnalytics(rdb, log)
	}

	inventory := client.NewInventoryClient(log)

	svc := service.NewOrderService(repo, inventory, notifier, analytics, log)

	if os.Getenv("SEED_SAMPLE_DATA") != "false" {
		if err := svc.SeedSampleData(ctx); err != nil {
			log.Fatalf("Failed to seed sample data: %v", err)
		}
	}
	if err := svc.InitSequence(ctx); err != nil {
		log.Fatalf("Failed to init order sequence: %v", err)
	}

	api := &apiServer{
		svc:     svc,
		repo:    repo,
		log:     log,
		started: time.Now(),
	}

	origins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	if env := os.Getenv("CORS_ALLOWED_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}

	var handler http.Handler = api.routes()
	handler = corsMiddleware(origins, handler)
	handler = &logHandler{log: log, next: handler}
	handler = recoverMiddleware(log, handler)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("OrderService started on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	log.Info("Gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP shutdown: %v", err)
	}

	// Notify workers to stop, then wait for them to drain.
	cancel()
	wg.Wait()
}

// initRepo picks the persistent backend when MYSQL_ADDR is set, otherwise
// the in-memory store the demo runs on.
func initRepo() repository.OrderRepo {
	mysqlAddr := os.Getenv("MYSQL_ADDR")
	if mysqlAddr == "" {
		log.Info("MYSQL_ADDR not set, using in-memory order store")
		return repository.NewMemoryRepo()
	}

	db, err := gorm.Open(mysql.Open(mysqlAddr), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to mysql: %v", err)
	}
	if err := db.AutoMigrate(&model.Order{}, &model.OrderItem{}); err != nil {
		log.Fatalf("failed to migrate order tables: %v", err)
	}
	log.Info("connected to mysql")
	return repository.NewMySQLRepo(db)
}

// initRedis returns nil when analytics should run in log-only mode.
func initRedis() *redis.Client {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Info("REDIS_ADDR not set, analytics events will be log-only")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warnf("failed to connect to redis: %v", err)
	} else {
		log.Info("connected to redis")
	}
	return rdb
}
