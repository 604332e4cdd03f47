package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentcal/internal/infra/config"
	"rentcal/internal/infra/obs"
)

type UnitHTTP interface {
	List(c *gin.Context)
	Groups(c *gin.Context)
	Calendar(c *gin.Context)
	Price(c *gin.Context)
	CheckAvailability(c *gin.Context)
	Quote(c *gin.Context)
}

type RulesHTTP interface {
	ListPriceRules(c *gin.Context)
	CreatePriceRule(c *gin.Context)
	ImportPrices(c *gin.Context)
	ListClosures(c *gin.Context)
	CreateClosure(c *gin.Context)
	ListCheckInOut(c *gin.Context)
	CreateCheckInOut(c *gin.Context)
	Delete(c *gin.Context)
}

type BookingHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Cancel(c *gin.Context)
}

type CombinationHTTP interface {
	Search(c *gin.Context)
	Combined(c *gin.Context)
}

type AdminHTTP interface {
	GlobalCalendar(c *gin.Context)
	BulkPriceRules(c *gin.Context)
}

type Handlers struct {
	Units        UnitHTTP
	Rules        RulesHTTP
	Bookings     BookingHTTP
	Combinations CombinationHTTP
	Admin        AdminHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	// collection routes are registered with and without a trailing slash
	router.RedirectTrailingSlash = false

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Units != nil {
		api.GET("/units", h.Units.List)
		api.GET("/groups", h.Units.Groups)
		api.GET("/units/:id/calendar", h.Units.Calendar)
		api.GET("/units/:id/price", h.Units.Price)
		api.POST("/units/:id/check-availability", h.Units.CheckAvailability)
		api.POST("/units/:id/quote", h.Units.Quote)
	}
	if h.Rules != nil {
		handle(api, http.MethodGet, "/units/:id/price-rules", h.Rules.ListPriceRules)
		handle(api, http.MethodPost, "/units/:id/price-rules", h.Rules.CreatePriceRule)
		api.POST("/units/:id/price-rules/import", h.Rules.ImportPrices)
		handle(api, http.MethodGet, "/units/:id/closure-rules", h.Rules.ListClosures)
		handle(api, http.MethodPost, "/units/:id/closure-rules", h.Rules.CreateClosure)
		handle(api, http.MethodGet, "/units/:id/checkinout-rules", h.Rules.ListCheckInOut)
		handle(api, http.MethodPost, "/units/:id/checkinout-rules", h.Rules.CreateCheckInOut)
		api.DELETE("/units/:id/rules/:kind/:ruleID", h.Rules.Delete)
	}
	if h.Bookings != nil {
		handle(api, http.MethodGet, "/units/:id/bookings", h.Bookings.List)
		handle(api, http.MethodPost, "/units/:id/bookings", h.Bookings.Create)
		api.POST("/bookings/:id/cancel", h.Bookings.Cancel)
	}
	if h.Combinations != nil {
		api.POST("/combinations/search", h.Combinations.Search)
		api.GET("/calendar/combined", h.Combinations.Combined)
	}
	if h.Admin != nil {
		admin := api.Group("/admin")
		admin.GET("/calendar", h.Admin.GlobalCalendar)
		admin.POST("/price-rules/bulk", h.Admin.BulkPriceRules)
	}
	return router
}

// handle registers path with and without a trailing slash.
func handle(g *gin.RouterGroup, method, path string, fn gin.HandlerFunc) {
	g.Handle(method, path, fn)
	g.Handle(method, path+"/", fn)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
