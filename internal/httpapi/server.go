package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/marshee-ai/marshee/internal/buffer"
	"github.com/marshee-ai/marshee/internal/config"
	"github.com/marshee-ai/marshee/internal/engine"
	"github.com/marshee-ai/marshee/internal/genai"
	"github.com/marshee-ai/marshee/internal/observability"
	"github.com/marshee-ai/marshee/internal/onboarding"
	"github.com/marshee-ai/marshee/internal/profile"
	"github.com/marshee-ai/marshee/internal/vector"
)

type Server struct {
	cfg      config.Config
	profiles profile.Store
	flow     *onboarding.Flow
	engine   *engine.Engine
	buffers  *buffer.Service
	vectors  *vector.Store
	gen      genai.Completer
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, profiles profile.Store, flow *onboarding.Flow, eng *engine.Engine,
	buffers *buffer.Service, vectors *vector.Store, gen genai.Completer, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		profiles: profiles,
		flow:     flow,
		engine:   eng,
		buffers:  buffers,
		vectors:  vectors,
		gen:      gen,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so another site cannot drive a user's chat if
				// the service is ever exposed beyond localhost.
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
	r.Get("/debug/turn-stats", s.handleTurnStats)

	r.Post("/api/v1/assistant", s.handleAssistant)
	r.Get("/api/v1/assistant/ws", s.handleAssistantWS)
	r.Get("/api/v1/profile/{firestore_id}", s.handleProfile)

	return r
}

// assistantRequest is the single request shape for both flows. firestore_id
// names the field as mobile clients send it.
type assistantRequest struct {
	UserID      string `json:"firestore_id"`
	StageID     string `json:"stage_id"`
	UserMessage string `json:"user_message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ready",
		"buffer_store":   s.buffers != nil && s.buffers.Ready(),
		"semantic_store": s.vectors.Ready(),
		"generation":     s.gen != nil && s.gen.Ready(),
	})
}

// handleTurnStats exposes the rolling per-phase turn latency window.
func (s *Server) handleTurnStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.TurnSnapshot())
}

// handleProfile returns the stored profile plus the latest weight
// assessment status. Unknown users are a 404; this endpoint never
// creates a profile.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "firestore_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "firestore_id is required")
		return
	}

	p, found, err := s.profiles.Get(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	weightStatus := "unknown"
	if p.Assessment != nil {
		weightStatus = p.Assessment.Status
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"user_profile":  p,
		"weight_status": weightStatus,
	})
}

// handleAssistant is the single conversational entry point: it runs the
// onboarding flow until setup completes, then the conversation engine.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "firestore_id is required")
		return
	}

	res, err := s.dispatch(r.Context(), req)
	if err != nil {
		if errors.Is(err, errUnknownStage) {
			respondError(w, http.StatusBadRequest, "unknown_stage", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

var errUnknownStage = errors.New("unknown stage")

func (s *Server) dispatch(ctx context.Context, req assistantRequest) (onboarding.Result, error) {
	p, err := s.profiles.GetOrCreate(ctx, req.UserID)
	if err != nil {
		return onboarding.Result{}, err
	}

	if !p.SetupComplete {
		if strings.TrimSpace(req.StageID) == "" {
			return s.flow.CurrentStage(p), nil
		}
		res, err := s.flow.Submit(ctx, p, req.StageID, req.UserMessage)
		if err != nil && strings.Contains(err.Error(), "unknown onboarding stage") {
			return onboarding.Result{}, errUnknownStage
		}
		return res, err
	}

	var reply string
	if strings.TrimSpace(req.UserMessage) == "" {
		reply = s.engine.WelcomeBack(p)
	} else {
		reply = s.engine.Respond(ctx, p, req.UserMessage)
	}
	return onboarding.Result{
		Success:  true,
		FlowType: "main",
		StageID:  "main_conversation",
		Question: "How can I help you?",
		Reply:    reply,
		Data:     map[string]any{},
	}, nil
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
