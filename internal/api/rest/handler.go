// Package rest HTTP-интерфейс сервиса распознавания.
package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/port"
)

const msgInternal = "prediction failed"

type predictRequest struct {
	ImgName string `validate:"required,max=1024"`
}

// Handler обрабатывает запросы на распознавание
type Handler struct {
	predictor port.Predictor
	health    port.HealthChecker // nil, если проверять нечего
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewHandler создаёт обработчик поверх конвейера распознавания.
// health может быть nil.
func NewHandler(predictor port.Predictor, health port.HealthChecker, log zerolog.Logger) *Handler {
	return &Handler{
		predictor: predictor,
		health:    health,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log.With().Str("component", "http").Logger(),
	}
}

// Routes возвращает роутер сервиса
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)

	r.Post("/predict", h.Predict)
	r.Get("/health", h.Health)
	return r
}

// Predict обрабатывает POST /predict?imgName=<key>
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	req := predictRequest{ImgName: r.URL.Query().Get("imgName")}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "imgName query parameter is required", http.StatusBadRequest)
		return
	}

	summary, err := h.predictor.Predict(r.Context(), req.ImgName)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.respondJSON(w, summary, http.StatusOK)
}

// Health проверка живости сервиса
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.CheckHealth(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("health check failed")
			h.respondJSON(w, map[string]string{"status": "unavailable"}, http.StatusServiceUnavailable)
			return
		}
	}
	h.respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// writeError отдаёт сообщение только для ожидаемых исходов, детали сбоев остаются в логах.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := msgInternal
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindInput:
		if e, ok := apperr.As(err); ok {
			msg = e.Message()
		}
	}
	http.Error(w, msg, status)
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// respondJSON кодирует ответ до записи статуса, ошибка кодирования отдаётся как 500.
func (h *Handler) respondJSON(w http.ResponseWriter, data any, status int) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("encode response")
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
