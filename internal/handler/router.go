package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sanos-dev/backend/internal/config"
	"github.com/sanos-dev/backend/internal/service"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// tracing span의 service.name
const serviceName = "sanos-backend"

type RouterDeps struct {
	Auth      *service.AuthService
	Ingest    *IngestHandler
	Targets   *TargetHandler
	Incidents *IncidentHandler
	CORS      config.CORSConfig
	Logger    *zap.Logger
}

// NewRouter - 공개 웹훅 / 인증 API / 운영 엔드포인트 라우팅
func NewRouter(d RouterDeps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(RequestLogger(logger))
	r.Use(CORSMiddleware(d.CORS.AllowedOrigins, d.CORS.AllowCredentials))

	r.GET("/", Root)
	r.GET("/ping", Ping)
	r.GET("/openapi.json", OpenAPIDoc)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 대상 앱과 Vercel이 호출 (webhook_key / 서명으로 인증)
	hooks := r.Group("/webhooks")
	hooks.POST("/logs", d.Ingest.RuntimeError)
	hooks.POST("/vercel", d.Ingest.Vercel)

	api := r.Group("/api/v1")
	api.Use(AuthMiddleware(d.Auth))

	targets := api.Group("/targets")
	targets.POST("", d.Targets.ConnectTarget)
	targets.GET("", d.Targets.ListTargets)
	targets.GET("/:id", d.Targets.GetTarget)
	targets.DELETE("/:id", d.Targets.DeleteTarget)
	targets.GET("/:id/status", d.Targets.GetTargetStatus)
	targets.PUT("/:id/pipeline", d.Targets.UpdatePipeline)

	targets.GET("/:id/incidents", d.Incidents.ListIncidents)
	targets.GET("/:id/incidents/:incidentId/analyses", d.Incidents.ListAnalyses)
	targets.DELETE("/:id/incidents/:incidentId", d.Incidents.DeleteIncident)
	targets.POST("/:id/incidents/:incidentId/resolve", d.Incidents.ResolveIncident)
	targets.POST("/:id/incidents/:incidentId/retry", d.Incidents.RetryIncident)

	return r
}
