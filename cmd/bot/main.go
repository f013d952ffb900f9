package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/alefyrezendesign/mvp-frequencia/internal/cache"
	"github.com/alefyrezendesign/mvp-frequencia/internal/config"
	"github.com/alefyrezendesign/mvp-frequencia/internal/handler"
	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/repository"
	"github.com/alefyrezendesign/mvp-frequencia/internal/service"
	"github.com/alefyrezendesign/mvp-frequencia/internal/store"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/telegram"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/units"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetBotConfig()
	logrus.SetLevel(cfg.LogLevel)
	logrus.Info("Config initialized...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		logrus.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatal("Failed to get database instance:", err)
	}

	userRepo, err := repository.NewGormUserRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create user repository")
	}
	memberRepo, err := repository.NewGormMemberRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create member repository")
	}
	leaderRepo, err := repository.NewGormLeaderRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create leader repository")
	}
	attendanceRepo, err := repository.NewGormAttendanceRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create attendance repository")
	}
	cabinetRepo, err := repository.NewGormCabinetRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create cabinet repository")
	}
	settingsRepo, err := repository.NewGormSettingsRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create settings repository")
	}

	// Redis is optional: without it the snapshot cache, change feed and day locks stay local.
	rdb, err := cache.Connect(ctx, cfg.RedisAddress)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, running without cache")
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	st := store.New(store.Repositories{
		Members:    memberRepo,
		Leaders:    leaderRepo,
		Attendance: attendanceRepo,
		Cabinet:    cabinetRepo,
		Settings:   settingsRepo,
	}, cache.New(rdb), cache.NewFeed(rdb, cache.DefaultChannel))

	if err := st.Load(ctx); err != nil {
		logrus.WithError(err).Fatal("Failed to load data")
	}
	if st.FromCache() {
		logrus.Warn("Database unavailable, serving the cached snapshot")
	}

	go func() {
		if err := st.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("Change feed stopped")
		}
	}()

	unitDefs := units.Defaults()
	if cfg.UnitsFile != "" {
		unitDefs, err = units.ParseUnitsJSON(cfg.UnitsFile)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to read units file")
		}
	}
	catalog := service.NewUnitCatalog(models.UnitsFrom(unitDefs))
	logrus.Infof("Loaded %d units", len(catalog.All()))

	userService := service.NewUserService(userRepo)
	settingsService := service.NewSettingsService(st)

	if err := userService.InitializeAdmin(ctx, cfg.BaseAdminChatID); err != nil {
		logrus.Warnf("Failed to initialize admin: %v", err)
	} else if cfg.BaseAdminChatID != 0 {
		logrus.Infof("Admin initialized with chat ID: %d", cfg.BaseAdminChatID)
	}

	if err := settingsService.EnsurePassword(ctx, cfg.DefaultAccessPassword); err != nil {
		logrus.Warnf("Failed to seed access password: %v", err)
	}

	client, err := telegram.NewClient(cfg.TelegramToken, cfg.Debug)
	if err != nil {
		logrus.Fatal("Failed to create Telegram client:", err)
	}

	logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)

	botHandler := handler.NewHandler(client, handler.Services{
		Users:      userService,
		Units:      catalog,
		Attendance: service.NewAttendanceService(st, catalog, cache.NewLocker(rdb)),
		Dashboard:  service.NewDashboardService(st, catalog),
		FollowUp:   service.NewFollowUpService(st, catalog),
		Members:    service.NewMemberService(st, catalog),
		Leaders:    service.NewLeaderService(st, catalog),
		Settings:   settingsService,
		Reports:    service.NewReportService(st, catalog),
	}, cfg)

	updates := client.Bot.GetUpdatesChan(client.UpdateConfig)

	go botHandler.HandleUpdates(ctx, updates)

	logrus.Info("Bot started. Press Ctrl+C to stop.")
	<-ctx.Done()

	client.Bot.StopReceivingUpdates()

	if err := sqlDB.Close(); err != nil {
		logrus.Infof("Error closing database: %v", err)
	}

	logrus.Info("Bot stopped gracefully")
}
