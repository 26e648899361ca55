package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fairwaylabs/swingsense-backend/internal/data/repos"
	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/http/response"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/services"
)

type SwingHandler struct {
	log     *logger.Logger
	scoring *services.ScoringService
	swings  repos.SwingRepo
}

func NewSwingHandler(log *logger.Logger, scoring *services.ScoringService, swings repos.SwingRepo) *SwingHandler {
	return &SwingHandler{log: log.With("Handler", "SwingHandler"), scoring: scoring, swings: swings}
}

type analyzeRequest struct {
	UserID *uuid.UUID `json:"userId,omitempty"`

	MediaURL   string `json:"mediaUrl,omitempty"`
	InlineData string `json:"inlineData,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`

	ClubType   string  `json:"clubType"`
	ClubName   string  `json:"clubName"`
	Ownership  string  `json:"ownership"`
	ProName    *string `json:"proName,omitempty"`
	SkillLevel string  `json:"skillLevel,omitempty"`

	Video struct {
		Name           string `json:"name"`
		Size           int64  `json:"size"`
		LastModifiedMs int64  `json:"lastModifiedMs"`
	} `json:"video"`
}

func (h *SwingHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.MediaURL == "" && req.InlineData == "" {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("mediaUrl or inlineData required"))
		return
	}

	var inline []byte
	if req.InlineData != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.InlineData)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("inlineData is not base64: %w", err))
			return
		}
		inline = decoded
	}

	record, err := h.scoring.Analyze(c.Request.Context(), services.AnalyzeRequest{
		UserID:              req.UserID,
		MediaURL:            req.MediaURL,
		InlineData:          inline,
		MimeType:            req.MimeType,
		ClubType:            req.ClubType,
		ClubName:            req.ClubName,
		Ownership:           domain.Ownership(req.Ownership),
		ProName:             req.ProName,
		SkillLevel:          req.SkillLevel,
		VideoName:           req.Video.Name,
		VideoSize:           req.Video.Size,
		VideoLastModifiedMs: req.Video.LastModifiedMs,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, record)
}

func (h *SwingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid swing id"))
		return
	}
	record, err := h.swings.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if record == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("swing %s not found", id))
		return
	}
	response.RespondOK(c, record)
}

func (h *SwingHandler) List(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("userId query parameter required"))
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	records, err := h.swings.ListByUser(c.Request.Context(), nil, userID, limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"swings": records})
}
