// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// HTTP API и планировщик.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/api/httpapi"
	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/bot"
	"stepbank.ru/sparks-bot/internal/bot/filters"
	"stepbank.ru/sparks-bot/internal/common"
	"stepbank.ru/sparks-bot/internal/config"
	"stepbank.ru/sparks-bot/internal/db/postgres"
	"stepbank.ru/sparks-bot/internal/features/activity"
	"stepbank.ru/sparks-bot/internal/features/admin"
	"stepbank.ru/sparks-bot/internal/features/economy"
	"stepbank.ru/sparks-bot/internal/features/marketplace"
	"stepbank.ru/sparks-bot/internal/features/members"
	"stepbank.ru/sparks-bot/internal/features/screentime"
	"stepbank.ru/sparks-bot/internal/jobs"
	"stepbank.ru/sparks-bot/internal/sparks"
)

// App содержит все компоненты приложения.
type App struct {
	Bot        *bot.Bot
	Scheduler  *jobs.Scheduler
	DB         *pgxpool.Pool
	BotAPI     *tgbotapi.BotAPI
	HTTPServer *http.Server // nil, если HTTP API выключен
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc := common.LoadLocation(cfg.AppTimezone)

	// === 1. Таблица коэффициентов ===
	scoring, err := sparks.LoadConfig(cfg.SparksConfigPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки таблицы искр: %w", err)
	}
	calc, err := sparks.NewCalculator(scoring)
	if err != nil {
		return nil, err
	}

	// === 2. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 3. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 4. Репозитории ===
	memberRepo := members.NewRepository(pool)
	activityRepo := activity.NewRepository(pool, loc)
	economyRepo := economy.NewRepository(pool)
	productRepo := marketplace.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 5. Сервисы ===
	memberService := members.NewService(memberRepo, cfg.ParentIDs)
	if err := memberService.SyncParents(ctx); err != nil {
		log.WithError(err).Warn("Не удалось синхронизировать родителей")
	}

	aggregator := balance.NewAggregator(calc, activityRepo, economyRepo, cfg.SparksWindowDays)
	generator := activity.NewGenerator(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	activityService := activity.NewService(activityRepo, calc, generator, loc)
	economyService := economy.NewService(economyRepo, aggregator)
	marketService := marketplace.NewService(productRepo, economyService, memberService)
	screenService := screentime.NewService(economyService)
	adminService := admin.NewService(adminRepo, memberService, cfg.ParentPasswordHash, cfg.ParentSessionTTL)

	// === 6. Обработчики ===
	handlers := bot.Handlers{
		Activity: activity.NewHandler(activityService, botAPI, loc),
		Economy:  economy.NewHandler(economyService, botAPI, loc),
		Admin:    admin.NewHandler(adminService, botAPI),
	}
	if cfg.FeatureMarketplaceEnabled {
		handlers.Marketplace = marketplace.NewHandler(marketService, memberService, botAPI, loc)
	}
	if cfg.FeatureScreenTimeEnabled {
		handlers.ScreenTime = screentime.NewHandler(screenService, botAPI)
	}

	// === 7. Фильтры и бот ===
	chatFilter := filters.NewChatFilter(cfg.FamilyChatID, memberService, botAPI)
	b := bot.New(botAPI, cfg, bot.Services{
		Members:  memberService,
		Activity: activityService,
		Admin:    adminService,
	}, handlers, chatFilter)

	// === 8. HTTP API ===
	var httpServer *http.Server
	if cfg.FeatureHTTPEnabled {
		deps := httpapi.Deps{
			Scorer:     calc,
			Balances:   economyService,
			Activities: activityService,
		}
		// Интерфейсы заполняем только для включённых функций: nil-указатель
		// в интерфейсе не равен nil.
		if cfg.FeatureMarketplaceEnabled {
			deps.Market = marketService
		}
		if cfg.FeatureScreenTimeEnabled {
			deps.ScreenTime = screenService
		}
		api := httpapi.New(deps, httpapi.Options{
			CORSOrigins: cfg.HTTPCORSOrigins,
			Timeout:     cfg.HTTPTimeout,
			Location:    loc,
		})
		httpServer = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	// === 9. Планировщик задач ===
	scheduler := jobs.NewScheduler(memberService, activityService, economyService,
		b.SendMessage, cfg.FamilyChatID, cfg.FeatureDemoActivity, loc)

	return &App{
		Bot:        b,
		Scheduler:  scheduler,
		DB:         pool,
		BotAPI:     botAPI,
		HTTPServer: httpServer,
	}, nil
}

// ServeHTTP запускает HTTP API и блокируется до его остановки.
func (a *App) ServeHTTP() error {
	if a.HTTPServer == nil {
		return nil
	}
	log.WithField("addr", a.HTTPServer.Addr).Info("HTTP API запущен")
	if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает HTTP API и закрывает пул соединений.
func (a *App) Shutdown(ctx context.Context) {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("HTTP API остановлен с ошибкой")
		}
	}
	a.DB.Close()
}
