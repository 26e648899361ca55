package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairwaylabs/swingsense-backend/internal/data/repos"
	"github.com/fairwaylabs/swingsense-backend/internal/http/response"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

type RubricHandler struct {
	log     *logger.Logger
	rubrics repos.RubricRepo
}

func NewRubricHandler(log *logger.Logger, rubrics repos.RubricRepo) *RubricHandler {
	return &RubricHandler{log: log.With("Handler", "RubricHandler"), rubrics: rubrics}
}

func (h *RubricHandler) Get(c *gin.Context) {
	metric, ok := scoring.Canonical(c.Param("metric"))
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("unknown metric %q", c.Param("metric")))
		return
	}
	rubric, err := h.rubrics.Get(c.Request.Context(), nil, string(metric))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if rubric == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("no rubric for %s", metric))
		return
	}
	response.RespondOK(c, rubric)
}
