package app

import (
	"github.com/yungbote/pulse-backend/internal/config"
	httpapi "github.com/yungbote/pulse-backend/internal/http"
	httpH "github.com/yungbote/pulse-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pulse-backend/internal/http/middleware"
	"github.com/yungbote/pulse-backend/internal/observability"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

func wireRouterConfig(log *logger.Logger, metrics *observability.Metrics, cfg *config.Config, p Pipeline, stores SnapshotStores) httpapi.RouterConfig {
	log.Info("Wiring handlers...")
	rc := httpapi.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.Otel.ServiceName,
		AllowOrigins:   cfg.Auth.AllowOrigins,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, cfg.Auth.JWTSecret),

		HealthHandler:   httpH.NewHealthHandler(p.Session),
		CaptureHandler:  httpH.NewCaptureHandler(p.Session),
		ModelHandler:    httpH.NewModelHandler(p.Model),
		SnapshotHandler: httpH.NewSnapshotHandler(p.Session),
		StreamHandler:   httpH.NewStreamHandler(log, p.Hub, p.Channel),
	}
	if stores.Local && stores.Store != nil {
		rc.ContractHandler = httpH.NewSnapshotContractHandler(stores.Store)
	}
	return rc
}
