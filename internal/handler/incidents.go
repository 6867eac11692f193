package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sanos-dev/backend/internal/model"
	"github.com/sanos-dev/backend/internal/service"
)

type IncidentHandler struct {
	svc *service.IncidentService
}

func NewIncidentHandler(svc *service.IncidentService) *IncidentHandler {
	return &IncidentHandler{svc: svc}
}

// ListIncidents godoc
// @Summary List incidents of a repository
// @Description 최신순 incident 목록과 각 incident의 분석 이력
// @Tags incidents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target ID"
// @Success 200 {object} model.IncidentListEnvelope
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/targets/{id}/incidents [get]
func (h *IncidentHandler) ListIncidents(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.svc.ListWithAnalyses(c.Request.Context(), userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.IncidentListEnvelope{Status: "success", Data: res})
}

// ListAnalyses godoc
// @Summary List analyses of an incident
// @Tags incidents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target ID"
// @Param incidentId path int true "Incident ID"
// @Success 200 {object} model.AnalysisListEnvelope
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/targets/{id}/incidents/{incidentId}/analyses [get]
func (h *IncidentHandler) ListAnalyses(c *gin.Context) {
	userID, targetID, incidentID, ok := incidentParams(c)
	if !ok {
		return
	}

	res, err := h.svc.Analyses(c.Request.Context(), userID, targetID, incidentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if res == nil {
		res = []model.Analysis{}
	}
	c.JSON(http.StatusOK, model.AnalysisListEnvelope{Status: "success", Data: res})
}

// DeleteIncident godoc
// @Summary Delete incident
// @Description 분석 이력도 함께 삭제된다
// @Tags incidents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target ID"
// @Param incidentId path int true "Incident ID"
// @Success 200 {object} model.StatusResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/targets/{id}/incidents/{incidentId} [delete]
func (h *IncidentHandler) DeleteIncident(c *gin.Context) {
	userID, targetID, incidentID, ok := incidentParams(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, targetID, incidentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "deleted"})
}

// ResolveIncident godoc
// @Summary Resolve incident
// @Description 최신 분석의 PR을 squash merge한 뒤 resolved 처리한다. merge 실패는 merge_status로 전달된다
// @Tags incidents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target ID"
// @Param incidentId path int true "Incident ID"
// @Success 200 {object} model.ResolveIncidentResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/targets/{id}/incidents/{incidentId}/resolve [post]
func (h *IncidentHandler) ResolveIncident(c *gin.Context) {
	userID, targetID, incidentID, ok := incidentParams(c)
	if !ok {
		return
	}

	res, err := h.svc.Resolve(c.Request.Context(), userID, targetID, incidentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RetryIncident godoc
// @Summary Retry remediation
// @Description 대기열에 없는 open(또는 멈춘 analyzing) incident를 다시 enqueue한다
// @Tags incidents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target ID"
// @Param incidentId path int true "Incident ID"
// @Success 202 {object} model.RetryIncidentResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/targets/{id}/incidents/{incidentId}/retry [post]
func (h *IncidentHandler) RetryIncident(c *gin.Context) {
	userID, targetID, incidentID, ok := incidentParams(c)
	if !ok {
		return
	}

	res, err := h.svc.Retry(c.Request.Context(), userID, targetID, incidentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, res)
}

func incidentParams(c *gin.Context) (userID, targetID, incidentID int64, ok bool) {
	if userID, ok = authUserID(c); !ok {
		return
	}
	if targetID, ok = pathID(c, "id"); !ok {
		return
	}
	incidentID, ok = pathID(c, "incidentId")
	return
}
