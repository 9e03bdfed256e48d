package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mjovanovic/fitlog/internal/middleware"
	"github.com/mjovanovic/fitlog/internal/telemetry/metrics"
	"github.com/mjovanovic/fitlog/internal/telemetry/tracing"
	"github.com/mjovanovic/fitlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=sessions_test

// IdempotencyKeyHeader carries the client-chosen token identifying one
// logical request attempt; the body field idempotencyKey is the fallback.
const IdempotencyKeyHeader = "Idempotency-Key"

type ingestService interface {
	ProcessEvent(ctx context.Context, key string, payload EventPayload) (*IngestResult, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	ListSessionEvents(ctx context.Context, sessionID string, page, size int) ([]Event, int, error)
}

type ListEventsResponse struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
}

type apiError struct {
	Errors []string `json:"errors"`
}

type Handler struct {
	service ingestService
}

func NewHandler(service ingestService) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) SetupRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	ingestAllowedPerMin int,
) {
	router.HandleFunc("/sessions/{id}", h.HandleGetSession).Methods("GET", "OPTIONS").Name("get-session")
	router.HandleFunc("/sessions/{id}/events/page/{page}/size/{size}", h.HandleListEvents).Methods("GET", "OPTIONS").Name("list-session-events")

	// rate limit the write path, reads stay unthrottled
	ingestRouter := router.PathPrefix("/events").Subrouter()
	ingestRouter.HandleFunc("", h.HandleIngest).Methods("POST", "OPTIONS").Name("ingest-event")
	ingestRouter.Use(middleware.RateLimit(rateLimiter, "ingest", ingestAllowedPerMin, metricsManager))
}

func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.ingest")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var payload EventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Tracef("ingest event, unmarshal json params: %s", err)
		http.Error(w, "invalid json payload", http.StatusBadRequest)
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		key = payload.IdempotencyKey
	}
	if key == "" {
		writeAPIError(w, http.StatusBadRequest, "idempotency key is required")
		return
	}

	result, err := h.service.ProcessEvent(ctx, key, payload)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			writeAPIError(w, http.StatusBadRequest, validationErr.Violations...)
			return
		}
		log.Errorf("ingest event for session %s, key %s: %s", payload.SessionID, key, err)
		writeAPIError(w, http.StatusInternalServerError, "event ingestion failed")
		return
	}

	switch result.Outcome {
	case IngestOutcomeInFlight:
		writeAPIError(w, http.StatusConflict, "request with this idempotency key is still processing")
	case IngestOutcomeFailedReplay:
		writeAPIError(w, http.StatusInternalServerError, result.ErrorSummary)
	default:
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, result.Response, http.StatusOK)
	}
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.get")
	defer span.End()

	vars := mux.Vars(r)
	sessionID := vars["id"]

	session, err := h.service.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("get session %s: %s", sessionID, err)
		http.Error(w, "get session failed", http.StatusInternalServerError)
		return
	}

	sessionJson, err := json.Marshal(session)
	if err != nil {
		log.Errorf("marshal session %s: %s", sessionID, err)
		http.Error(w, "get session failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionJson, http.StatusOK)
}

func (h *Handler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.listEvents")
	defer span.End()

	vars := mux.Vars(r)
	sessionID := vars["id"]

	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}

	events, total, err := h.service.ListSessionEvents(ctx, sessionID, page, size)
	if err != nil {
		log.Errorf("list events for session %s: %s", sessionID, err)
		http.Error(w, "list session events failed", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListEventsResponse{
		Events: events,
		Total:  total,
	})
	if err != nil {
		log.Errorf("marshal events for session %s: %s", sessionID, err)
		http.Error(w, "list session events failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func writeAPIError(w http.ResponseWriter, statusCode int, errs ...string) {
	payload, err := json.Marshal(apiError{Errors: errs})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, payload, statusCode)
}
