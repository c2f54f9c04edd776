// handlers/routes.go
package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"tote-sponsor-system/metrics"
	"tote-sponsor-system/middleware"
	"tote-sponsor-system/models"
	"tote-sponsor-system/services"
)

// Deps is everything the route table needs.
type Deps struct {
	Tokens       middleware.TokenVerifier
	Auth         *services.AuthService
	Causes       *services.CauseService
	Sponsorships *services.SponsorshipService
	Verification *services.VerificationService
	Claims       *services.ClaimService

	AuthLimiter      *middleware.RateLimiter
	ChallengeLimiter *middleware.RateLimiter

	// Gatherer backs GET /metrics; the route is skipped when nil.
	Gatherer    prometheus.Gatherer
	ExposeCodes bool
}

// NewApp builds the fiber app with the shared error handler and global middleware.
func NewApp(showDetails bool, allowedOrigins []string, rec metrics.Recorder) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(showDetails),
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID, Retry-After",
		AllowCredentials: len(allowedOrigins) > 0 && !containsWildcard(allowedOrigins),
		MaxAge:           86400,
	}))
	if rec != nil {
		app.Use(metrics.Middleware(rec))
	}
	return app
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func SetupRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return respond(c, fiber.StatusOK, "ok", fiber.Map{"status": "healthy"})
	})
	if d.Gatherer != nil {
		app.Get("/metrics", metrics.Handler(d.Gatherer))
	}

	auth := middleware.JWTAuth(d.Tokens)
	authLimit := passThrough
	if d.AuthLimiter != nil {
		authLimit = d.AuthLimiter.Middleware()
	}

	authH := &AuthHandler{Auth: d.Auth}
	causeH := &CauseHandler{Causes: d.Causes}
	sponsorH := &SponsorHandler{Sponsorships: d.Sponsorships}
	claimerH := &ClaimerHandler{
		Verification: d.Verification,
		Claims:       d.Claims,
		Causes:       d.Causes,
		Limiter:      d.ChallengeLimiter,
		ExposeCodes:  d.ExposeCodes,
	}

	api := app.Group("/api/v1")

	api.Post("/register", authLimit, authH.Register)
	api.Post("/login", authLimit, authH.Login)
	api.Get("/me", auth, authH.Me)

	// Causes
	api.Get("/causes", causeH.ListApproved)
	api.Post("/causes", auth, middleware.RequireRoles(models.RoleCreator), causeH.Create)
	api.Get("/all-caused-by-user/:userId", auth, causeH.ListByUser)
	api.Get("/cause/share/:causeId", auth, causeH.Share)

	// Admin review
	api.Patch("/admin/causes/:causeId/status", auth, middleware.RequireRoles(models.RoleAdmin), causeH.UpdateStatus)

	// Sponsors
	api.Get("/sponsor/causes", auth, causeH.ListApproved)
	api.Get("/sponsor/tracking", auth, middleware.RequireRoles(models.RoleSponsor), sponsorH.Tracking)
	api.Post("/sponsor/:causeId", auth, middleware.RequireRoles(models.RoleSponsor), sponsorH.Sponsor)

	// Claimants
	claimant := middleware.RequireRoles(models.RoleClaimant)
	api.Post("/claimer/verify-user", auth, claimant, claimerH.VerifyUser)
	api.Post("/claimer/claim-bag/:causeId", auth, claimant, claimerH.ClaimBag)
	api.Get("/claimer/cause/info/:causeId", claimerH.CauseInfo)
}

func passThrough(c *fiber.Ctx) error {
	return c.Next()
}
