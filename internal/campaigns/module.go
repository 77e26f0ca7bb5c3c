// Package campaigns provides the outreach campaign bounded context module.
// This file defines the module that encapsulates all campaigns setup and
// route registration.
package campaigns

import (
	"outreach_backend/internal/campaigns/handler"
	"outreach_backend/internal/campaigns/repository"
	"outreach_backend/internal/campaigns/service"
	"outreach_backend/internal/email"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the campaigns bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// Deps bundles the cross-cutting dependencies of the campaigns module.
// Gen, Scheduler and Redis are optional; a nil Gen fails generation with an
// upstream error, a nil Scheduler skips send enqueueing and a nil Redis
// disables the daily quota.
type Deps struct {
	Pool      *pgxpool.Pool
	Leads     service.LeadDirectory
	Gen       service.TextGenerator
	Redis     redis.UniversalClient
	Scheduler service.SendScheduler
	Sender    email.Sender
	EventBus  events.Bus
	Validator *validator.Validator
	Logger    *logger.Logger
	Config    config.PipelineConfig
}

// NewModule creates and initializes the campaigns module with all its
// dependencies.
func NewModule(deps Deps) *Module {
	repo := repository.New(deps.Pool)
	quota := service.NewGenerationQuota(deps.Redis, deps.Config.GetGenerationDailyQuota())
	svc := service.New(
		repo,
		deps.Leads,
		deps.Gen,
		quota,
		deps.Scheduler,
		deps.Sender,
		deps.EventBus,
		deps.Logger,
		deps.Config,
	)
	h := handler.New(svc, deps.Validator)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "campaigns"
}

// Service returns the campaign service for use outside HTTP (send worker).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts campaigns routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All campaigns routes require authentication
	campaignsGroup := ctx.Protected.Group("/campaigns")
	m.handler.RegisterRoutes(campaignsGroup)

	// One-off generation preview lives under the leads resource.
	m.handler.RegisterPreviewRoute(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
