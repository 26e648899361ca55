package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/fairwaylabs/swingsense-backend/internal/data/repos"
	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/http/response"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

type FeedbackHandler struct {
	log      *logger.Logger
	feedback repos.FeedbackRepo
}

func NewFeedbackHandler(log *logger.Logger, feedback repos.FeedbackRepo) *FeedbackHandler {
	return &FeedbackHandler{log: log.With("Handler", "FeedbackHandler"), feedback: feedback}
}

type feedbackRequest struct {
	SwingID *uuid.UUID `json:"swingId,omitempty"`
	UserID  *uuid.UUID `json:"userId,omitempty"`

	Verdict        string                    `json:"verdict"`
	MetricVerdicts map[string]domain.Verdict `json:"metricVerdicts,omitempty"`

	Confidence int    `json:"confidence"`
	SkillLevel string `json:"skillLevel"`
	IsProSwing bool   `json:"isProSwing"`

	AdjustmentPriority *string `json:"adjustmentPriority,omitempty"`

	ScoreSnapshot scoring.ScoreVector `json:"scoreSnapshot"`
}

func (h *FeedbackHandler) Ingest(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	event := &domain.FeedbackEvent{
		SwingID:            req.SwingID,
		UserID:             req.UserID,
		Verdict:            domain.Verdict(req.Verdict),
		Confidence:         req.Confidence,
		SkillLevel:         req.SkillLevel,
		IsProSwing:         req.IsProSwing,
		AdjustmentPriority: req.AdjustmentPriority,
		ScoreSnapshot:      datatypes.NewJSONType(req.ScoreSnapshot),
	}
	if len(req.MetricVerdicts) > 0 {
		event.MetricVerdicts = datatypes.NewJSONType(req.MetricVerdicts)
	}

	id, err := h.feedback.Append(c.Request.Context(), nil, event)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	response.RespondOK(c, gin.H{"id": id})
}
