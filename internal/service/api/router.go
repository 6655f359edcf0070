package api

import (
	"strings"
	"time"

	"field_visits/internal/domain"
	"field_visits/internal/service/visits"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

type Options struct {
	CORSOrigin     string
	MetricsEnabled bool
}

type Handler struct {
	visits *visits.Service
	repo   domain.VisitRepo
	logger *zap.Logger
}

func NewHandler(svc *visits.Service, repo domain.VisitRepo, logger *zap.Logger) *Handler {
	return &Handler{visits: svc, repo: repo, logger: logger}
}

// NewRouter собирает gin engine со всеми маршрутами и middleware.
func NewRouter(h *Handler, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(RequestID(), AccessLog(h.logger), gin.Recovery())
	r.Use(cors.New(corsConfig(opts.CORSOrigin)))

	if opts.MetricsEnabled {
		p := ginprometheus.NewPrometheus("field_visits")
		p.Use(r)
	}

	r.GET("/healthz", h.Health)

	customers := r.Group("/api/customers")
	{
		customers.POST("", h.CreateCustomer)
		customers.GET("/excel", h.ExportCustomers)
	}

	partners := r.Group("/api/partner-visits")
	{
		partners.POST("", h.CreatePartnerVisit)
		partners.GET("/excel", h.ExportPartnerVisits)
	}

	return r
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		cfg.AllowAllOrigins = true
	} else {
		for _, o := range strings.Split(origin, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
	}
	return cfg
}
