package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/features/activity"
)

type calculateRequest struct {
	Steps         float64 `json:"steps"`
	ActiveMinutes float64 `json:"activeMinutes"`
	AvgHeartRate  float64 `json:"avgHeartRate"`
}

// POST /api/sparks/calculate
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	res := s.deps.Scorer.Calculate(req.Steps, req.ActiveMinutes, req.AvgHeartRate)
	if !res.Valid {
		// RawProduct может быть ±Inf, а JSON такое не кодирует.
		respondMessage(w, http.StatusUnprocessableEntity, "result is out of range")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GET /api/sparks/config
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Scorer.Config())
}

type balanceResponse struct {
	UserID  int64        `json:"userId"`
	Mode    balance.Mode `json:"mode"`
	Balance int64        `json:"balance"`
	Minutes int64        `json:"minutes"`
	Earned  int64        `json:"earned"`
	Spent   int64        `json:"spent"`
	Held    int64        `json:"held"`
}

// GET /api/members/{userID}/balance?mode=display|affordability
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "bad user id")
		return
	}
	mode, ok := balance.ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		respondMessage(w, http.StatusBadRequest, "mode must be display or affordability")
		return
	}

	snap, err := s.deps.Balances.Snapshot(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	available := snap.Available(mode)
	respondJSON(w, http.StatusOK, balanceResponse{
		UserID:  userID,
		Mode:    mode,
		Balance: available,
		Minutes: balance.MinutesFor(available),
		Earned:  snap.Earned,
		Spent:   snap.Spent,
		Held:    snap.Held,
	})
}

// GET /api/members/{userID}/activities?days=N
func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "bad user id")
		return
	}
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 366 {
			respondMessage(w, http.StatusBadRequest, "days must be 1..366")
			return
		}
		days = n
	}

	reports, err := s.deps.Activities.Recent(r.Context(), userID, days)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if reports == nil {
		reports = []*activity.DayReport{}
	}
	respondJSON(w, http.StatusOK, reports)
}

type logActivityRequest struct {
	Day           string  `json:"day,omitempty"` // YYYY-MM-DD, по умолчанию сегодня
	Steps         int64   `json:"steps"`
	ActiveMinutes float64 `json:"activeMinutes"`
	AvgHeartRate  float64 `json:"avgHeartRate"`
}

// POST /api/members/{userID}/activities
func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "bad user id")
		return
	}
	var req logActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "bad json")
		return
	}

	day := s.deps.Activities.Today()
	if req.Day != "" {
		d, err := time.ParseInLocation("2006-01-02", req.Day, s.opts.Location)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
		day = d
	}

	report, err := s.deps.Activities.LogActivityFor(r.Context(), userID, day,
		req.Steps, req.ActiveMinutes, req.AvgHeartRate, activity.SourceAPI)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, report)
}

// GET /api/products
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.deps.Market.ListProducts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	type item struct {
		ID          uuid.UUID `json:"id"`
		Name        string    `json:"name"`
		DollarValue float64   `json:"dollarValue"`
		Cost        int64     `json:"cost"`
	}
	out := make([]item, 0, len(products))
	for _, p := range products {
		out = append(out, item{ID: p.ID, Name: p.Name, DollarValue: p.DollarValue, Cost: p.Cost()})
	}
	respondJSON(w, http.StatusOK, out)
}

type purchaseRequest struct {
	ProductID uuid.UUID `json:"productId"`
}

// POST /api/members/{userID}/purchases
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "bad user id")
		return
	}
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil || req.ProductID == uuid.Nil {
		respondMessage(w, http.StatusBadRequest, "productId required")
		return
	}

	spend, _, err := s.deps.Market.RequestPurchase(r.Context(), userID, req.ProductID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, spend)
}

// GET /api/requests/pending?parentId=N
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	parentID, err := strconv.ParseInt(r.URL.Query().Get("parentId"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "parentId required")
		return
	}
	reqs, err := s.deps.Market.Pending(r.Context(), parentID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if reqs == nil {
		respondJSON(w, http.StatusOK, []any{})
		return
	}
	respondJSON(w, http.StatusOK, reqs)
}

type decideRequest struct {
	ParentID int64 `json:"parentId"`
}

// POST /api/requests/{requestID}/approve и /reject
func (s *Server) handleDecide(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "requestID"))
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "bad request id")
			return
		}
		var req decideRequest
		if err := decodeJSON(r, &req); err != nil || req.ParentID == 0 {
			respondMessage(w, http.StatusBadRequest, "parentId required")
			return
		}

		decide := s.deps.Market.Reject
		if approve {
			decide = s.deps.Market.Approve
		}
		spend, err := decide(r.Context(), req.ParentID, id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, spend)
	}
}

type screenTimeRequest struct {
	Minutes int64 `json:"minutes"`
}

// POST /api/members/{userID}/screentime
func (s *Server) handleScreenTime(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "bad user id")
		return
	}
	var req screenTimeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "bad json")
		return
	}

	spend, err := s.deps.ScreenTime.Unlock(r.Context(), userID, req.Minutes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	left, err := s.deps.ScreenTime.AvailableMinutes(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"request":          spend,
		"minutesUnlocked":  req.Minutes,
		"minutesAvailable": left,
	})
}
