package web

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"vacademy/internal/adapters/email"
	"vacademy/internal/adapters/http/middleware"
	"vacademy/internal/adapters/http/perf"
	assetStore "vacademy/internal/adapters/storage/asset"
	campaignStore "vacademy/internal/adapters/storage/campaign"
	courseStore "vacademy/internal/adapters/storage/course"
	customFieldStore "vacademy/internal/adapters/storage/customfield"
	outboxStore "vacademy/internal/adapters/storage/outbox"
	templateStore "vacademy/internal/adapters/storage/template"
	"vacademy/internal/application/orchestrators"
	"vacademy/internal/application/projections"
	"vacademy/internal/domain/outbox"
)

// Stores holds all storage dependencies.
type Stores struct {
	CourseStore      courseStore.Store
	CustomFieldStore customFieldStore.Store
	CampaignStore    campaignStore.Store
	LeadStore        campaignStore.LeadStore
	TemplateStore    templateStore.Store
	MappingStore     templateStore.MappingStore
	EditorStateStore templateStore.EditorStateStore
	AssetStore       assetStore.Store
	OutboxStore      outboxStore.Store // nil disables queueing failed sends
}

// Options configures the handler chain.
type Options struct {
	CSRFKey            []byte // 32 bytes
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequest        time.Duration
	Collector          *perf.Collector // may be nil
	EmailSender        email.Sender
	Logger             *zap.SugaredLogger
	GenerateID         func() string
	Now                func() time.Time
	OutboxConfig       orchestrators.OutboxConfig
}

// server carries what handlers need. Handlers are methods on it.
type server struct {
	stores    Stores
	collector *perf.Collector
	sender    email.Sender
	log       *zap.SugaredLogger
	memo      *projections.ColumnMemo
	outbox    *orchestrators.OutboxProcessor
	genID     func() string
	now       func() time.Time
}

// NewMux wires HTTP handlers and middleware. The rate limiter's sweeper
// stops when ctx is done.
func NewMux(ctx context.Context, s Stores, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.GenerateID == nil {
		opts.GenerateID = generateID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 20
	}
	if opts.EmailSender == nil {
		opts.EmailSender = email.NewNoopSender(opts.Logger)
	}

	srv := &server{
		stores:    s,
		collector: opts.Collector,
		sender:    opts.EmailSender,
		log:       opts.Logger,
		memo:      &projections.ColumnMemo{},
		genID:     opts.GenerateID,
		now:       opts.Now,
	}
	if s.OutboxStore != nil {
		srv.outbox = NewOutboxProcessor(s.OutboxStore, opts.EmailSender, opts.OutboxConfig)
	}
	mux := http.NewServeMux()
	srv.registerRoutes(mux)

	limiter := middleware.NewRateLimiter(ctx, opts.RateLimitPerSecond, time.Second, opts.Logger)

	// Timing -> RateLimit -> SecurityHeaders -> CSRF -> Mux
	return middleware.Chain(mux,
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Collector, opts.Logger, opts.SlowRequest),
	)
}

func (s *server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /api/course-forms/toggle", s.handleToggleCourseForm)
	mux.HandleFunc("POST /api/institutes/{inst}/courses", s.handleSubmitCourse)
	mux.HandleFunc("GET /api/institutes/{inst}/courses", s.handleListCourses)
	mux.HandleFunc("GET /api/institutes/{inst}/courses/{id}", s.handleGetCourse)

	mux.HandleFunc("GET /api/institutes/{inst}/custom-fields", s.handleListCustomFields)
	mux.HandleFunc("PUT /api/institutes/{inst}/custom-fields", s.handleImportCustomFields)

	mux.HandleFunc("POST /api/institutes/{inst}/campaigns", s.handleCreateCampaign)
	mux.HandleFunc("GET /api/institutes/{inst}/campaigns", s.handleListCampaigns)
	mux.HandleFunc("GET /api/campaigns/{id}", s.handleGetCampaign)
	mux.HandleFunc("POST /api/campaigns/{id}/leads", s.handleRecordLead)
	mux.HandleFunc("POST /api/campaigns/leads/search", s.handleSearchLeads)
	mux.HandleFunc("GET /api/campaigns/{id}/lead-table", s.handleLeadTable)
	mux.HandleFunc("GET /api/campaigns/{id}/lead-table.csv", s.handleLeadTableCSV)

	mux.HandleFunc("GET /api/institutes/{inst}/email-templates", s.handleListTemplates)
	mux.HandleFunc("POST /api/institutes/{inst}/email-templates", s.handleSaveTemplate)
	mux.HandleFunc("GET /api/institutes/{inst}/email-templates/{id}", s.handleGetTemplate)
	mux.HandleFunc("PUT /api/institutes/{inst}/email-templates/{id}", s.handleSaveTemplate)
	mux.HandleFunc("DELETE /api/institutes/{inst}/email-templates/{id}", s.handleDeleteTemplate)
	mux.HandleFunc("GET /api/email-templates/{id}/editor-state", s.handleGetEditorState)
	mux.HandleFunc("PUT /api/email-templates/{id}/editor-state", s.handlePutEditorState)
	mux.HandleFunc("DELETE /api/email-templates/{id}/editor-state", s.handleDeleteEditorState)
	mux.HandleFunc("GET /api/email-templates/{id}/mappings", s.handleListMappings)
	mux.HandleFunc("PUT /api/email-templates/{id}/mappings", s.handleSaveMappings)
	mux.HandleFunc("POST /api/email-templates/{id}/send", s.handleSendTemplate)

	mux.HandleFunc("POST /api/rich-text/render", s.handleRenderRichText)

	mux.HandleFunc("POST /api/institutes/{inst}/assets", s.handleRegisterAsset)
	mux.HandleFunc("GET /api/institutes/{inst}/assets", s.handleSearchAssets)

	mux.HandleFunc("GET /api/admin/perf", s.handleAdminPerf)
	mux.HandleFunc("GET /api/admin/outbox", s.handleListOutbox)
	mux.HandleFunc("POST /api/admin/outbox/{id}/retry", s.handleRetryOutbox)
	mux.HandleFunc("POST /api/admin/outbox/{id}/abandon", s.handleAbandonOutbox)
}

// NewOutboxProcessor builds the processor that replays queued campaign email
// batches through sender.
func NewOutboxProcessor(store outboxStore.Store, sender email.Sender, cfg orchestrators.OutboxConfig) *orchestrators.OutboxProcessor {
	return orchestrators.NewOutboxProcessor(store, map[string]orchestrators.ActionExecutor{
		outbox.ActionCampaignEmail: orchestrators.EmailBatchExecutor{Sender: sender},
	}, cfg)
}
