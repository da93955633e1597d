package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/pulse-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pulse-backend/internal/http/middleware"
	"github.com/yungbote/pulse-backend/internal/observability"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowOrigins   []string
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	CaptureHandler  *httpH.CaptureHandler
	ModelHandler    *httpH.ModelHandler
	SnapshotHandler *httpH.SnapshotHandler
	StreamHandler   *httpH.StreamHandler
	// ContractHandler is set only when this process owns a snapshot store.
	ContractHandler *httpH.SnapshotContractHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "pulse"
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// Snapshot contract
	if cfg.ContractHandler != nil {
		contract := r.Group("/snapshots")
		if cfg.AuthMiddleware != nil {
			contract.Use(cfg.AuthMiddleware.RequireAuth())
		}
		contract.GET("", cfg.ContractHandler.List)
		contract.POST("", cfg.ContractHandler.Save)
		contract.GET("/:id", cfg.ContractHandler.Get)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Capture
		if cfg.CaptureHandler != nil {
			api.POST("/capture/consent", cfg.CaptureHandler.Consent)
			api.POST("/capture/start", cfg.CaptureHandler.Start)
			api.POST("/capture/stop", cfg.CaptureHandler.Stop)
			api.GET("/capture/status", cfg.CaptureHandler.Status)
		}

		// Model
		if cfg.ModelHandler != nil {
			api.GET("/model", cfg.ModelHandler.GetModel)
			api.GET("/synthesis", cfg.ModelHandler.GetSynthesis)
			api.GET("/pressure-points", cfg.ModelHandler.GetPressurePoints)
			api.GET("/reveal", cfg.ModelHandler.GetReveal)
			api.GET("/utterances", cfg.ModelHandler.ListUtterances)
			api.GET("/utterances/:id", cfg.ModelHandler.GetUtterance)
			api.PUT("/narrative", cfg.ModelHandler.PutNarrative)
			api.PUT("/phase", cfg.ModelHandler.PutPhase)
			api.PUT("/selection", cfg.ModelHandler.PutSelection)
		}

		// Snapshots
		if cfg.SnapshotHandler != nil {
			api.POST("/snapshots", cfg.SnapshotHandler.Save)
			api.GET("/snapshots", cfg.SnapshotHandler.List)
			api.POST("/snapshots/:id/load", cfg.SnapshotHandler.Load)
		}

		// Stream (SSE)
		if cfg.StreamHandler != nil {
			api.GET("/stream", cfg.StreamHandler.Stream)
		}
	}

	return r
}
