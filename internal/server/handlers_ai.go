package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fpang/brushline/internal/auth"
	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/oracle"
	"github.com/fpang/brushline/internal/vision"
	"github.com/rs/zerolog"
)

const msgParseFailed = "Could not parse command. Please try rephrasing your request."

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":      "OK",
		"message":     "Brushline Backend is running",
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"environment": s.opts.Environment,
	})
}

func (s *Server) handleAPIInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"name":        "Brushline API",
		"version":     s.opts.Version,
		"description": "AI-powered photo editing API",
		"endpoints": map[string]string{
			"images":  "/api/images",
			"ai":      "/api/ai",
			"health":  "/health",
			"metrics": "/metrics",
		},
	})
}

type keyRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleTestKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Bool("has_api_key", req.APIKey != "").
		Int("key_length", len(req.APIKey)).
		Msg("Testing API key")

	if req.APIKey == "" {
		errorResponse(w, http.StatusBadRequest, auth.MsgKeyRequired, "")
		return
	}

	err := s.editor.TestAPIKey(r.Context(), req.APIKey)
	if err == nil {
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": auth.MsgKeyValid})
		return
	}

	status := http.StatusServiceUnavailable
	switch {
	case oracle.IsAuth(err):
		status = http.StatusBadRequest
	case oracle.KindOf(err) == oracle.KindQuota:
		status = http.StatusTooManyRequests
	}
	errorResponse(w, status, auth.Describe(err), "")
}

type imageRequest struct {
	ImageData string `json:"imageData"`
	APIKey    string `json:"apiKey"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ImageData == "" {
		errorResponse(w, http.StatusBadRequest, "No image data provided", "")
		return
	}
	analysis := s.editor.AnalyzeImage(r.Context(), req.ImageData, req.APIKey)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": analysis,
		"message":  "Image analyzed successfully",
	})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ImageData == "" {
		errorResponse(w, http.StatusBadRequest, "No image data provided", "")
		return
	}
	suggestions := s.editor.GenerateSuggestions(r.Context(), req.ImageData, req.APIKey)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"suggestions": suggestions,
		"message":     "Suggestions generated successfully",
	})
}

type commandRequest struct {
	Command   string `json:"command"`
	ImageData string `json:"imageData"`
	APIKey    string `json:"apiKey"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Command == "" || req.ImageData == "" {
		errorResponse(w, http.StatusBadRequest, "Command and image data required", "")
		return
	}

	cmd := s.editor.ParseCommand(r.Context(), req.Command, req.ImageData, req.APIKey)
	if cmd == nil {
		errorResponse(w, http.StatusBadRequest, msgParseFailed, "")
		return
	}
	res, err := s.editor.ApplyCommand(r.Context(), cmd, req.ImageData)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Parsed command failed validation")
		errorResponse(w, http.StatusInternalServerError, "Failed to process command", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"imageUrl":    res.EditedImageData,
		"command":     cmd,
		"description": res.Description,
		"outcome":     res.Outcome,
		"message":     "Command processed successfully",
	})
}

func (s *Server) handleParseCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Command == "" {
		errorResponse(w, http.StatusBadRequest, "Command text required", "")
		return
	}

	cmd := s.editor.ParseCommand(r.Context(), req.Command, req.ImageData, req.APIKey)
	if cmd == nil {
		errorResponse(w, http.StatusBadRequest, msgParseFailed, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"command": cmd,
		"message": "Command parsed successfully",
	})
}

type chatRequest struct {
	Message             string        `json:"message"`
	ImageData           string        `json:"imageData"`
	ConversationHistory []vision.Turn `json:"conversationHistory"`
	APIKey              string        `json:"apiKey"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	zerolog.Ctx(r.Context()).Debug().
		Bool("has_api_key", req.APIKey != "").
		Int("message_length", len(req.Message)).
		Int("history", len(req.ConversationHistory)).
		Bool("has_image", req.ImageData != "").
		Msg("Chat request")

	if req.Message == "" || req.ImageData == "" {
		errorResponse(w, http.StatusBadRequest, "Message and image data required", "")
		return
	}
	reply := s.editor.Chat(r.Context(), req.Message, req.ImageData, req.ConversationHistory, req.APIKey)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"response": reply,
		"message":  "Chat response generated successfully",
	})
}

type editRequest struct {
	EditRequest string `json:"editRequest"`
	ImageData   string `json:"imageData"`
	APIKey      string `json:"apiKey"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.EditRequest == "" || req.ImageData == "" {
		errorResponse(w, http.StatusBadRequest, "Edit request and image data required", "")
		return
	}

	res := s.editor.PerformImageEdit(r.Context(), req.EditRequest, req.ImageData, req.APIKey)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"editedImageData": res.EditedImageData,
		"description":     res.Description,
		"outcome":         res.Outcome,
		"message":         "Image edit completed successfully",
	})
}

type applyRequest struct {
	Command   json.RawMessage `json:"command"`
	ImageData string          `json:"imageData"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Command) == 0 || req.ImageData == "" {
		errorResponse(w, http.StatusBadRequest, "Command and image data required", "")
		return
	}

	var cmd command.Command
	if err := json.Unmarshal(req.Command, &cmd); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid command", err.Error())
		return
	}
	res, err := s.editor.ApplyCommand(r.Context(), &cmd, req.ImageData)
	if err != nil {
		var verr *command.ValidationError
		if errors.As(err, &verr) {
			errorResponse(w, http.StatusBadRequest, "Invalid command", verr.Error())
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to apply command", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"editedImageData": res.EditedImageData,
		"description":     res.Description,
		"outcome":         res.Outcome,
		"message":         "Command applied successfully",
	})
}
