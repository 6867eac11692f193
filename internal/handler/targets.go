package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sanos-dev/backend/internal/model"
	"github.com/sanos-dev/backend/internal/service"
)

type TargetHandler struct {
	svc *service.TargetService
}

func NewTargetHandler(svc *service.TargetService) *TargetHandler {
	return &TargetHandler{svc: svc}
}

// ConnectTarget godoc
// @Summary Connect repository
// @Description 같은 사용자의 같은 저장소면 기존 target을 반환한다
// @Tags targets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ConnectTargetRequest true "Repository to connect"
// @Success 201 {object} model.TargetEnvelope
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/targets [post]
func (h *TargetHandler) ConnectTarget(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}

	var req model.ConnectTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	t, err := h.svc.Connect(c.Request.Context(), userID, req.FullName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.TargetEnvelope{Status: "success", Data: t})
}

// ListTargets godoc
// @Summary List connected repositories
// @Tags targets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.TargetListEnvelope
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/targets [get]
func (h *TargetHandler) ListTargets(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}

	targets, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if targets == nil {
		targets = []model.Target{}
	}
	c.JSON(http.StatusOK, model.TargetListEnvelope{Status: "success", Data: targets})
}

// GetTarget godoc
// @Summary Get repository
// @Tags targets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target ID"
// @Success 200 {object} model.TargetEnvelope
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/targets/{id} [get]
func (h *TargetHandler) GetTarget(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	t, err := h.svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TargetEnvelope{Status: "success", Data: t})
}

// GetTargetStatus godoc
// @Summary Get repository pipeline status
// @Tags targets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target ID"
// @Success 200 {object} model.TargetStatusEnvelope
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/targets/{id}/status [get]
func (h *TargetHandler) GetTargetStatus(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.svc.Status(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TargetStatusEnvelope{Status: "success", Data: status})
}

// UpdatePipeline godoc
// @Summary Advance repository pipeline
// @Description 셋업 파이프라인과 배포 폴러가 단계/상태/배포 정보를 갱신할 때 사용한다
// @Tags targets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target ID"
// @Param request body model.UpdatePipelineRequest true "Pipeline update"
// @Success 200 {object} model.TargetEnvelope
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/targets/{id}/pipeline [put]
func (h *TargetHandler) UpdatePipeline(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	t, err := h.svc.UpdatePipeline(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TargetEnvelope{Status: "success", Data: t})
}

// DeleteTarget godoc
// @Summary Disconnect repository
// @Tags targets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target ID"
// @Success 200 {object} model.StatusResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/targets/{id} [delete]
func (h *TargetHandler) DeleteTarget(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "deleted"})
}
