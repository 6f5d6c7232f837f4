package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"yatrinivas/internal/api"
	"yatrinivas/internal/auth"
	"yatrinivas/internal/config"
	"yatrinivas/internal/database"
	"yatrinivas/internal/events"
	"yatrinivas/internal/google"
	"yatrinivas/internal/invoice"
	"yatrinivas/internal/media"
	"yatrinivas/internal/metrics"
	"yatrinivas/internal/models"
	"yatrinivas/internal/notify"
	"yatrinivas/internal/reminders"
	"yatrinivas/internal/report"
	"yatrinivas/internal/repository"
	"yatrinivas/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load(os.Getenv("NIVAS_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer store.Close()

	client := repository.NewClient(store, cfg.StoreLatency())
	seedCatalog(ctx, cfg, client, &logger)

	bus := events.NewEventBus(func(e events.Event, err error) {
		logger.Warn().Err(err).Str("event", e.Type).Str("key", e.Key).Msg("event handler failed")
	})

	mailer := notify.NewLogMailer(componentLogger(&logger, "mailer"))
	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.AdminChatIDs, componentLogger(&logger, "telegram"))
		if err != nil {
			logger.Error().Err(err).Msg("telegram disabled")
		} else {
			bus.Subscribe(events.BookingCreated, async(&logger, bookingHandler(tg.NotifyBooking)))
			bus.Subscribe(events.ContactReceived, async(&logger, contactHandler(tg.SendEmail)))
			if cfg.Telegram.MonthlyReport {
				loc, _ := time.LoadLocation(cfg.Reminders.Timezone)
				monthly := report.NewMonthly(client.Lodges, client.Bookings, tg, invoice.DefaultProperty.Name, loc, componentLogger(&logger, "report"))
				go monthly.Start(ctx)
			}
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		bus.SubscribeAll(async(&logger, producer.Handle))
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing events to kafka")
	}

	if cfg.Sheets.SpreadsheetID != "" {
		sheets, err := google.NewSheetsService(ctx, cfg.Sheets, componentLogger(&logger, "sheets"))
		if err != nil {
			logger.Error().Err(err).Msg("google sheets disabled")
		} else {
			bookings, err := client.Bookings.List(ctx, repository.OrderCreatedAsc)
			if err == nil {
				err = sheets.SyncAll(ctx, bookings)
			}
			if err != nil {
				logger.Warn().Err(err).Msg("initial sheet sync failed")
			}
			h := async(&logger, bookingHandler(sheets.AppendBooking))
			bus.Subscribe(events.BookingCreated, h)
			bus.Subscribe(events.BookingStatusChanged, h)
			bus.Subscribe(events.BookingDeleted, async(&logger, bookingHandler(sheets.RemoveBooking)))
		}
	}

	lodgeService := service.NewLodgeService(client.Lodges, client.Bookings, client.Catalog, bus, componentLogger(&logger, "lodges"))
	bookingService := service.NewBookingService(client.Lodges, client.Bookings, bus, service.BookingRules{
		RejectOverlaps: cfg.Booking.RejectOverlaps,
		DefaultGuests:  cfg.Booking.DefaultGuests,
		NumberPrefix:   cfg.Booking.NumberPrefix,
	}, componentLogger(&logger, "bookings"))
	adminService := service.NewAdminService(client.Lodges, client.Bookings)
	contactService := service.NewContactService(mailer, bus, componentLogger(&logger, "contact"))

	uploader, err := media.NewUploader(cfg.Uploads.Dir, cfg.Uploads.BaseURL, int64(cfg.Uploads.MaxSizeMB)<<20, componentLogger(&logger, "uploads"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare uploads")
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	if cfg.Catalog.Path != "" {
		err := config.WatchCatalog(ctx, cfg.Catalog.Path, cfg.CatalogWatchInterval(), func(c *config.CatalogConfig) {
			created, updated, err := lodgeService.SyncCatalog(ctx, c.ToLodges())
			if err != nil {
				logger.Error().Err(err).Msg("catalog sync failed")
				return
			}
			if created+updated > 0 {
				logger.Info().Int("created", created).Int("updated", updated).Msg("catalog synced")
			}
		}, func(err error) {
			logger.Warn().Err(err).Str("path", cfg.Catalog.Path).Msg("catalog reload failed, keeping previous catalog")
		})
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Error().Err(err).Str("path", cfg.Catalog.Path).Msg("catalog watcher not started")
		}
	}

	if store.SQLite != nil {
		backups := database.NewBackupService(store.SQLite, cfg.Backup, cfg.BackupInterval(), componentLogger(&logger, "backup"))
		go backups.Start(ctx)
	}

	if cfg.Reminders.Enabled {
		rcfg := reminders.DefaultConfig()
		rcfg.Timezone = cfg.Reminders.Timezone
		rcfg.DailyHour = cfg.Reminders.DailyHour
		rcfg.DaysBefore = cfg.Reminders.DaysBefore
		rcfg.RetentionDays = cfg.Reminders.RetentionDays
		rlog := componentLogger(&logger, "reminders")
		scheduler, err := reminders.NewScheduler(rcfg, client.Bookings, notify.NewLogMailer(rlog), reminders.NewLedger(store), rlog)
		if err != nil {
			logger.Error().Err(err).Msg("reminders disabled")
		} else {
			go scheduler.Start(ctx)
		}
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewServer(api.Deps{
		Lodges:         lodgeService,
		Bookings:       bookingService,
		Admin:          adminService,
		Contact:        contactService,
		Session:        client.Auth,
		Tokens:         auth.NewIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL()),
		Uploader:       uploader,
		Store:          store,
		Idempotency:    rdb,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DefaultGuests:  cfg.Booking.DefaultGuests,
		ContactPerMin:  cfg.Contact.RatePerMinute,
		Logger:         componentLogger(&logger, "http"),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Str("store", cfg.Store.Driver).Msg("Kolhar Yatri Nivas API listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server error")
	}
	logger.Info().Msg("shutdown complete")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil || cfg.Logging.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Pretty {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func componentLogger(logger *zerolog.Logger, component string) *zerolog.Logger {
	l := logger.With().Str("component", component).Logger()
	return &l
}

// seedCatalog writes the initial lodges on first run, preferring the catalog file.
func seedCatalog(ctx context.Context, cfg *config.Config, client *repository.Client, logger *zerolog.Logger) {
	var catalog []*models.Lodge
	if cfg.Catalog.Path != "" {
		c, err := config.LoadCatalog(cfg.Catalog.Path)
		switch {
		case err == nil:
			catalog = c.ToLodges()
		case errors.Is(err, os.ErrNotExist):
			logger.Info().Str("path", cfg.Catalog.Path).Msg("no catalog file, using demo lodges")
		default:
			logger.Warn().Err(err).Msg("invalid catalog file, using demo lodges")
		}
	}

	seeded, err := client.SeedDemoData(ctx, catalog)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed data")
	}
	if seeded {
		logger.Info().Msg("seeded lodge catalog")
	}
}

// bookingHandler decodes the booking carried by an event.
func bookingHandler(fn func(context.Context, *models.Booking) error) events.EventHandler {
	return func(e events.Event) error {
		var b models.Booking
		if err := json.Unmarshal(e.Payload, &b); err != nil {
			return fmt.Errorf("decode booking: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return fn(ctx, &b)
	}
}

// contactHandler relays a contact submission carried by an event.
func contactHandler(fn func(context.Context, notify.Email) error) events.EventHandler {
	return func(e events.Event) error {
		var msg service.ContactMessage
		if err := json.Unmarshal(e.Payload, &msg); err != nil {
			return fmt.Errorf("decode contact message: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return fn(ctx, service.ContactEmail(msg))
	}
}

// async moves slow integrations off the request path.
func async(logger *zerolog.Logger, h events.EventHandler) events.EventHandler {
	return func(e events.Event) error {
		go func() {
			if err := h(e); err != nil {
				logger.Warn().Err(err).Str("event", e.Type).Str("key", e.Key).Msg("async event handler failed")
			}
		}()
		return nil
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
