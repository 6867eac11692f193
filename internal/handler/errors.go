package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sanos-dev/backend/internal/model"
	"github.com/sanos-dev/backend/internal/service"
)

// 서비스 sentinel 에러 → HTTP 상태 코드
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), model.ErrorResponse{Error: err.Error()})
}

// path 파라미터를 양의 정수 ID로 파싱, 실패하면 400 응답 후 false
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func authUserID(c *gin.Context) (int64, bool) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, errUnauthorized)
		return 0, false
	}
	return user.ID, true
}
