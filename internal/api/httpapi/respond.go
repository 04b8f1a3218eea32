package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

// errorStatuses сопоставляет доменные ошибки с кодами ответа.
var errorStatuses = []struct {
	err    error
	status int
}{
	{common.ErrInvalidActivity, http.StatusBadRequest},
	{common.ErrInvalidAmount, http.StatusBadRequest},
	{common.ErrInvalidProduct, http.StatusBadRequest},
	{common.ErrNotParent, http.StatusForbidden},
	{common.ErrUserNotFound, http.StatusNotFound},
	{common.ErrProductNotFound, http.StatusNotFound},
	{common.ErrRequestNotFound, http.StatusNotFound},
	{common.ErrNoActivity, http.StatusNotFound},
	{common.ErrAlreadyPending, http.StatusConflict},
	{common.ErrRequestDecided, http.StatusConflict},
	{common.ErrInsufficientSparks, http.StatusUnprocessableEntity},
	{common.ErrFeatureDisabled, http.StatusServiceUnavailable},
}

// statusFor возвращает код ответа для ошибки; неизвестные ошибки — 500.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("Ошибка обработки запроса")
		respondMessage(w, status, "internal error")
		return
	}
	respondMessage(w, status, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// userIDParam разбирает {userID} из пути.
func userIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	return id, err == nil && id != 0
}
