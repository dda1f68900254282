package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ds124wfegd/eventbot/config"
	dedup "github.com/ds124wfegd/eventbot/internal/database/redis"
	"github.com/ds124wfegd/eventbot/internal/entity"
	"github.com/ds124wfegd/eventbot/internal/humanitix"
	"github.com/ds124wfegd/eventbot/internal/intent"
	"github.com/ds124wfegd/eventbot/internal/service"
	"github.com/ds124wfegd/eventbot/internal/transport"

	"github.com/ds124wfegd/eventbot/pkg/discord"
	"github.com/ds124wfegd/eventbot/pkg/kafka"
	"github.com/ds124wfegd/eventbot/pkg/rabbitMQ"
	"github.com/ds124wfegd/eventbot/pkg/redis"
	"github.com/ds124wfegd/eventbot/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	setupLogging(cfg.Server.LogLevel)

	if strings.TrimSpace(cfg.Chat.BotToken) == "" {
		logrus.Fatal("Chat bot token not provided, set BOT_TOKEN")
	}
	if !cfg.HumanitixEnabled() {
		logrus.Warn("Humanitix API key not provided, event commands will reply that it is not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]transport.HealthCheck{}

	// Initialize audit trail
	audit, closeAudit := newAuditPublisher(cfg, checks)
	defer closeAudit()

	// Initialize services
	humanitixClient := humanitix.NewClient(&cfg.Humanitix, nil)
	formatter := service.NewFormatter(loadLocation(cfg.App.Timezone), cfg.App.ListLimit)
	eventService := service.NewEventService(humanitixClient, service.NewResolver(cfg.App.MatchCutoff), formatter, audit)

	// Initialize message de-duplication
	var deduper transport.Deduper
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			logrus.Errorf("Failed to initialize Redis: %v. Continuing without de-duplication...", err)
		} else {
			defer redisClient.Close()
			store := dedup.NewMessageDeduper(redisClient, cfg.Redis.DedupTTL)
			deduper = store
			checks["redis"] = store.Ping
			logrus.Info("Message de-duplication enabled")
		}
	} else {
		logrus.Info("Redis address not provided, de-duplication disabled")
	}

	messageHandler := transport.NewMessageHandler(intent.NewClassifier(nil), eventService, deduper, cfg.Server.Timeout)

	// Connect the chat platform
	var webhook *transport.TelegramWebhook
	switch cfg.Chat.Platform {
	case discord.Platform:
		adapter, err := discord.New(cfg.Chat.BotToken)
		if err != nil {
			logrus.Fatalf("Failed to initialize Discord: %v", err)
		}
		err = adapter.Start(ctx, func(ctx context.Context, msg *entity.ChatMessage) {
			messageHandler.Handle(ctx, adapter, msg)
		})
		if err != nil {
			logrus.Fatalf("Failed to connect to Discord: %v", err)
		}
		defer adapter.Close()

	case telegram.Platform:
		bot := telegram.NewBot(cfg.Telegram.APIURL, cfg.Chat.BotToken, &http.Client{Timeout: 15 * time.Second})
		me, err := bot.GetMe(ctx)
		if err != nil {
			logrus.Fatalf("Failed to initialize Telegram bot: %v", err)
		}
		webhook = transport.NewTelegramWebhook(telegram.NewAdapter(bot), messageHandler, cfg.Telegram.WebhookSecret)
		logrus.WithField("username", me.Username).Info("Telegram bot initialized, waiting for webhook updates")

	default:
		logrus.Fatalf("Unknown chat platform %q, expected discord or telegram", cfg.Chat.Platform)
	}

	if cfg.Server.Mode == "release" || cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		router := transport.InitRoutes(cfg.Server.AppVersion, cfg.Server.Timeout, webhook, checks)
		if err := srv.Run(cfg, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithField("platform", cfg.Chat.Platform).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logrus.Warnf("Unknown timezone %q, using UTC", name)
		return time.UTC
	}
	return loc
}

// newAuditPublisher connects the configured audit driver. The returned
// publisher is nil when auditing is off.
func newAuditPublisher(cfg *config.Config, checks map[string]transport.HealthCheck) (service.AuditPublisher, func()) {
	switch cfg.Audit.Driver {
	case "":
		logrus.Info("Audit driver not provided, capacity changes will not be published")
		return nil, func() {}

	case "kafka":
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logrus.Info("Kafka audit publisher initialized")
		return service.NewKafkaAuditAdapter(producer), func() {
			if err := producer.Close(); err != nil {
				logrus.Errorf("error closing kafka producer: %v", err)
			}
		}

	case "rabbitmq":
		queue, err := rabbitMQ.NewRabbitMQ(rabbitMQ.RabbitMQConfig{
			URL:       cfg.Rabbit.URL,
			QueueName: cfg.Rabbit.QueueName,
		})
		if err != nil {
			logrus.Errorf("Failed to initialize RabbitMQ: %v. Continuing without audit trail...", err)
			return nil, func() {}
		}
		checks["rabbitmq"] = func(ctx context.Context) error { return queue.HealthCheck() }
		logrus.Info("RabbitMQ audit publisher initialized")
		return service.NewRabbitAuditAdapter(queue), func() {
			if err := queue.Close(); err != nil {
				logrus.Errorf("error closing rabbitmq: %v", err)
			}
		}

	default:
		logrus.Warnf("Unknown audit driver %q, capacity changes will not be published", cfg.Audit.Driver)
		return nil, func() {}
	}
}
