// Package api exposes the chat router over HTTP. Frontend adapters
// (Telegram, WhatsApp, a web client) POST user messages and relay the reply
// text and any attachment back to their channel.
package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ihab-ag/baro-ai/internal/api/middleware"
	"github.com/ihab-ag/baro-ai/internal/command"
	"github.com/ihab-ag/baro-ai/internal/logger"
)

// maxMessageBytes caps inbound request bodies; chat messages are tiny.
const maxMessageBytes = 64 << 10

// Server handles the HTTP surface.
type Server struct {
	router *command.Router
	log    zerolog.Logger
}

func NewServer(router *command.Router, log zerolog.Logger) *Server {
	return &Server{router: router, log: log}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(s.log))
	r.Use(middleware.Logger(s.log))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/v1/messages", s.handleMessage)
	return r
}

type messageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type attachmentResponse struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	// Data is base64-encoded file content.
	Data string `json:"data"`
}

type messageResponse struct {
	OK                bool                `json:"ok"`
	Reply             string              `json:"reply"`
	NeedsConfirmation bool                `json:"needs_confirmation,omitempty"`
	Attachment        *attachmentResponse `json:"attachment,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req messageRequest
	body := http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		log.Debug().Err(err).Msg("rejecting malformed message body")
		middleware.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	result := s.router.HandleMessage(r.Context(), command.Request{
		UserID: req.UserID,
		Text:   req.Text,
	})

	resp := messageResponse{
		OK:                result.OK,
		Reply:             result.Text,
		NeedsConfirmation: result.NeedsConfirmation,
	}
	if result.Attachment != nil {
		resp.Attachment = &attachmentResponse{
			Filename: result.Attachment.Filename,
			MIMEType: result.Attachment.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(result.Attachment.Data),
		}
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
