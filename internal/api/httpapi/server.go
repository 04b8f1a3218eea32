// Package httpapi — HTTP API для веб-дашборда и синхронизации трекера.
// Маршруты собираются на chi, ответы в JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/features/activity"
	"stepbank.ru/sparks-bot/internal/features/economy"
	"stepbank.ru/sparks-bot/internal/features/marketplace"
	"stepbank.ru/sparks-bot/internal/sparks"
)

// Scorer — расчёт искр и активная таблица коэффициентов (реализуется *sparks.Calculator).
type Scorer interface {
	Calculate(steps, activeMinutes, avgHeartRate float64) sparks.Result
	Config() sparks.ScoringConfig
}

// Balances — срез баланса (реализуется economy.Service).
type Balances interface {
	Snapshot(ctx context.Context, userID int64) (*balance.Snapshot, error)
}

// Activities — запись и история активности (реализуется activity.Service).
type Activities interface {
	Today() time.Time
	LogActivityFor(ctx context.Context, userID int64, day time.Time, steps int64, activeMinutes, avgHeartRate float64, source string) (*activity.DayReport, error)
	Recent(ctx context.Context, userID int64, days int) ([]*activity.DayReport, error)
}

// Market — магазин и заявки (реализуется marketplace.Service).
type Market interface {
	ListProducts(ctx context.Context) ([]*marketplace.Product, error)
	RequestPurchase(ctx context.Context, userID int64, productID uuid.UUID) (*economy.SpendRequest, *marketplace.Product, error)
	Pending(ctx context.Context, parentID int64) ([]*economy.SpendRequest, error)
	Approve(ctx context.Context, parentID int64, requestID uuid.UUID) (*economy.SpendRequest, error)
	Reject(ctx context.Context, parentID int64, requestID uuid.UUID) (*economy.SpendRequest, error)
}

// ScreenTime — экранное время (реализуется screentime.Service).
type ScreenTime interface {
	AvailableMinutes(ctx context.Context, userID int64) (int64, error)
	Unlock(ctx context.Context, userID, minutes int64) (*economy.SpendRequest, error)
}

// Deps — зависимости API. Market и ScreenTime равны nil, если функция выключена.
type Deps struct {
	Scorer     Scorer
	Balances   Balances
	Activities Activities
	Market     Market
	ScreenTime ScreenTime
}

// Options — настройки HTTP-слоя.
type Options struct {
	CORSOrigins []string
	Timeout     time.Duration
	Location    *time.Location // Часовой пояс семьи, в нём разбирается поле day
}

// Server держит зависимости обработчиков.
type Server struct {
	deps Deps
	opts Options
}

// New создаёт API-сервер.
func New(deps Deps, opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Server{deps: deps, opts: opts}
}

// Routes собирает роутер.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/api", func(api chi.Router) {
		api.Post("/sparks/calculate", s.handleCalculate)
		api.Get("/sparks/config", s.handleConfig)

		api.Route("/members/{userID}", func(m chi.Router) {
			m.Get("/balance", s.handleBalance)
			m.Get("/activities", s.handleListActivities)
			m.Post("/activities", s.handleLogActivity)
			m.With(s.requireFeature(s.deps.Market != nil)).Post("/purchases", s.handlePurchase)
			m.With(s.requireFeature(s.deps.ScreenTime != nil)).Post("/screentime", s.handleScreenTime)
		})

		api.Group(func(mk chi.Router) {
			mk.Use(s.requireFeature(s.deps.Market != nil))
			mk.Get("/products", s.handleProducts)
			mk.Get("/requests/pending", s.handlePending)
			mk.Post("/requests/{requestID}/approve", s.handleDecide(true))
			mk.Post("/requests/{requestID}/reject", s.handleDecide(false))
		})
	})
	return r
}
