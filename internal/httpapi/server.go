package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yctsai/anesconsult/internal/config"
	"github.com/yctsai/anesconsult/internal/conversation"
	"github.com/yctsai/anesconsult/internal/intake"
	"github.com/yctsai/anesconsult/internal/observability"
	"github.com/yctsai/anesconsult/internal/patient"
)

// MessageHandler is the one logical operation the transport exposes:
// postMessage(conversationId, text) -> responseText. Implemented by the
// intake engine.
type MessageHandler interface {
	HandleMessage(ctx context.Context, conversationID, text string) string
}

type Server struct {
	cfg           config.Config
	conversations *conversation.Manager
	handler       MessageHandler
	store         patient.Store
	metrics       *observability.Metrics
	upgrader      websocket.Upgrader
}

func New(
	cfg config.Config,
	conversations *conversation.Manager,
	handler MessageHandler,
	store patient.Store,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		cfg:           cfg,
		conversations: conversations,
		handler:       handler,
		store:         store,
		metrics:       metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections may drive a chat
				// session unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/message", s.handlePostMessage)
	r.Get("/v1/chat/{id}", s.handleConversationState)
	r.Post("/v1/chat/{id}/reset", s.handleResetConversation)
	r.Get("/v1/chat/ws", s.handleChatWS)

	r.Post("/v1/patients/{id}/selfpay", s.handleSubmitSelfPay)

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/stats", s.handleAdminStats)
		r.Get("/patients", s.handleAdminListPatients)
		r.Get("/patients/{id}", s.handleAdminPatientDetail)
		r.Get("/patients/{id}/log", s.handleAdminPatientLog)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":               "ready",
		"active_conversations": s.conversations.ActiveCount(),
	})
}

type messageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type messageResponse struct {
	ConversationID string `json:"conversation_id"`
	Response       string `json:"response"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	// A missing conversation id is not an error: the caller gets a fresh
	// conversation and its id back in the response.
	if strings.TrimSpace(req.ConversationID) == "" {
		req.ConversationID = uuid.NewString()
	}

	response := s.handler.HandleMessage(r.Context(), req.ConversationID, req.Message)

	respondJSON(w, http.StatusOK, messageResponse{
		ConversationID: req.ConversationID,
		Response:       response,
	})
}

type conversationStateResponse struct {
	conversation.State
	Prompt string `json:"prompt,omitempty"`
}

// handleConversationState lets a web client restore its cursor after a page
// reload without sending a message.
func (s *Server) handleConversationState(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	state, err := s.conversations.Snapshot(id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			respondError(w, http.StatusNotFound, "conversation_not_found", "unknown conversation id")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, conversationStateResponse{
		State:  state,
		Prompt: intake.PendingPrompt(state),
	})
}

func (s *Server) handleResetConversation(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_conversation_id", "missing conversation id")
		return
	}
	s.conversations.Reset(id)
	s.metrics.ActiveConversations.Set(float64(s.conversations.ActiveCount()))
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

type selfPayRequest struct {
	Items []struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	} `json:"items"`
}

func (s *Server) handleSubmitSelfPay(w http.ResponseWriter, r *http.Request) {
	patientID := strings.TrimSpace(chi.URLParam(r, "id"))
	if patientID == "" {
		respondError(w, http.StatusBadRequest, "invalid_patient_id", "missing patient id")
		return
	}

	var req selfPayRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "no items selected")
		return
	}

	items := make([]patient.SelfPayItem, 0, len(req.Items))
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			respondError(w, http.StatusBadRequest, "invalid_request", "item name is required")
			return
		}
		items = append(items, patient.SelfPayItem{Name: item.Name, Price: item.Price})
	}

	if err := s.store.AddSelfPayItems(r.Context(), patientID, items); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			respondError(w, http.StatusNotFound, "patient_not_found", "unknown patient id")
			return
		}
		respondError(w, http.StatusInternalServerError, "store_error", "failed to save self pay items")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// requireAdmin gates the reporting endpoints behind the static admin token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken == "" {
			respondError(w, http.StatusServiceUnavailable, "admin_disabled", "no admin token configured")
			return
		}
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token != s.cfg.AdminToken {
			respondError(w, http.StatusUnauthorized, "unauthorized", "admin token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	todayCount, err := s.store.CountCreatedSince(r.Context(), dayStart)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to count patients")
		return
	}
	monthCount, err := s.store.CountCreatedSince(r.Context(), monthStart)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to count patients")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"today_count": todayCount,
		"month_count": monthCount,
	})
}

func (s *Server) handleAdminListPatients(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	patients, err := s.store.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to list patients")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"patients": patients})
}

func (s *Server) handleAdminPatientDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			respondError(w, http.StatusNotFound, "patient_not_found", "unknown patient id")
			return
		}
		respondError(w, http.StatusInternalServerError, "store_error", "failed to load patient")
		return
	}

	log, err := s.store.ListLog(r.Context(), id, "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to load conversation log")
		return
	}
	selfPay, err := s.store.ListSelfPayItems(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to load self pay items")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"patient":         p,
		"intake_complete": p.IntakeComplete(),
		"log":             log,
		"self_pay_items":  selfPay,
	})
}

func (s *Server) handleAdminPatientLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category := patient.Category(strings.TrimSpace(r.URL.Query().Get("category")))
	switch category {
	case "", patient.CategoryUser, patient.CategoryBot, patient.CategoryChat, patient.CategorySummary:
	default:
		respondError(w, http.StatusBadRequest, "invalid_category", "unknown log category")
		return
	}

	entries, err := s.store.ListLog(r.Context(), id, category)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to load conversation log")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
