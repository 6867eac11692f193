package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sanos-dev/backend/internal/model"
	"github.com/sanos-dev/backend/internal/service"
)

// 웹훅 본문 상한 (빌드 로그가 포함된 런타임 리포트 기준)
const maxWebhookBody = 1 << 20

type IngestHandler struct {
	svc *service.IngestService
}

func NewIngestHandler(svc *service.IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

// RuntimeError godoc
// @Summary Receive runtime error report
// @Description 대상 앱이 webhook_key와 함께 보낸 런타임 에러를 incident로 기록한다
// @Tags webhooks
// @Accept json
// @Produce json
// @Param request body model.RuntimeErrorPayload true "Runtime error report"
// @Success 201 {object} model.IngestResponse
// @Success 200 {object} model.IngestResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /webhooks/logs [post]
func (h *IngestHandler) RuntimeError(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)

	var req model.RuntimeErrorPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.svc.IngestRuntimeError(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	if res.Status == model.IngestCreated {
		c.JSON(http.StatusCreated, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Vercel godoc
// @Summary Receive Vercel deployment event
// @Description x-vercel-signature(HMAC-SHA1) 검증 후 deployment.error 이벤트만 처리한다
// @Tags webhooks
// @Accept json
// @Produce json
// @Param x-vercel-signature header string false "HMAC-SHA1 hex of the raw body"
// @Success 200 {object} model.IngestResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /webhooks/vercel [post]
func (h *IngestHandler) Vercel(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)

	// 서명은 raw body 기준이라 바인딩 전에 그대로 읽는다
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "failed to read body"})
		return
	}

	res, err := h.svc.IngestDeployment(c.Request.Context(), body, c.GetHeader("x-vercel-signature"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
