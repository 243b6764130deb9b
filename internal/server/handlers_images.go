package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/fpang/brushline/internal/imageops"
	"github.com/rs/zerolog"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.opts.BodyLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large", "")
			return
		}
		errorResponse(w, http.StatusBadRequest, "No image file provided", "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "No image file provided", "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "No image file provided", "")
		return
	}

	url, err := imageops.ProcessUpload(data)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("filename", header.Filename).Msg("Image upload failed")
		errorResponse(w, http.StatusInternalServerError, "Failed to process image", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"imageUrl": url,
		"message":  "Image uploaded and processed successfully",
	})
}

type effectRequest struct {
	ImageData  string                `json:"imageData"`
	Effect     string                `json:"effect"`
	Parameters imageops.EffectParams `json:"parameters"`
}

func (s *Server) handleApplyEffect(w http.ResponseWriter, r *http.Request) {
	var req effectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ImageData == "" {
		errorResponse(w, http.StatusBadRequest, "No image data provided", "")
		return
	}

	url, err := imageops.ApplyEffect(req.ImageData, req.Effect, req.Parameters)
	if err != nil {
		if errors.Is(err, imageops.ErrUnknownEffect) {
			errorResponse(w, http.StatusBadRequest, "Unknown effect", req.Effect)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("effect", req.Effect).Msg("Effect application failed")
		errorResponse(w, http.StatusInternalServerError, "Failed to apply effect", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"imageUrl": url,
		"message":  "Effect applied successfully",
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ImageData == "" {
		errorResponse(w, http.StatusBadRequest, "No image data provided", "")
		return
	}

	info, err := imageops.ImageInfo(req.ImageData)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Image info failed")
		errorResponse(w, http.StatusInternalServerError, "Failed to get image info", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"info":    info,
		"message": "Image info retrieved successfully",
	})
}
