package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	emailPkg "vacademy/internal/adapters/email"
	web "vacademy/internal/adapters/http"
	"vacademy/internal/adapters/http/perf"
	"vacademy/internal/adapters/storage"
	assetStore "vacademy/internal/adapters/storage/asset"
	campaignStore "vacademy/internal/adapters/storage/campaign"
	courseStore "vacademy/internal/adapters/storage/course"
	customFieldStore "vacademy/internal/adapters/storage/customfield"
	outboxStore "vacademy/internal/adapters/storage/outbox"
	templateStore "vacademy/internal/adapters/storage/template"
	"vacademy/internal/application/orchestrators"
	"vacademy/internal/platform/config"
	"vacademy/internal/platform/logging"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vacademy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	restore := logging.Install(log)
	defer restore()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.InitDB(db); err != nil {
		return errors.Wrap(err, "migrate database")
	}
	log.Infow("database_ready", "path", cfg.DBPath, "schema", storage.LatestSchemaVersion())

	// Wrap the DB with timing so every store query lands in the collector.
	collector := perf.NewCollector(cfg.PerfRingSize)
	timedDB := storage.NewTimedDB(db, collector, log, cfg.SlowQuery)

	templates := templateStore.NewSQLiteStore(timedDB)
	stores := web.Stores{
		CourseStore:      courseStore.NewSQLiteStore(timedDB),
		CustomFieldStore: customFieldStore.NewSQLiteStore(timedDB),
		CampaignStore:    campaignStore.NewSQLiteStore(timedDB),
		LeadStore:        campaignStore.NewLeadSQLiteStore(timedDB),
		TemplateStore:    templates,
		MappingStore:     templates,
		EditorStateStore: templateStore.NewEditorStateSQLiteStore(timedDB),
		AssetStore:       assetStore.NewSQLiteStore(timedDB),
		OutboxStore:      outboxStore.NewSQLiteStore(timedDB),
	}

	sender := newSender(cfg, log)
	csrfKey, err := csrfKey(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outboxCfg := orchestrators.OutboxConfig{BaseDelay: cfg.OutboxBaseDelay, MaxDelay: cfg.OutboxMaxDelay}
	handler := web.NewMux(ctx, stores, web.Options{
		CSRFKey:            csrfKey,
		SecureCookies:      cfg.IsProduction(),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		SlowRequest:        cfg.SlowRequest,
		Collector:          collector,
		EmailSender:        sender,
		Logger:             log,
		OutboxConfig:       outboxCfg,
	})

	if cfg.OutboxInterval > 0 {
		worker := web.NewOutboxProcessor(stores.OutboxStore, sender, outboxCfg)
		go worker.Run(ctx, cfg.OutboxInterval)
		log.Infow("outbox_worker_started", "interval", cfg.OutboxInterval)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	log.Infow("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

func newSender(cfg config.Config, log *zap.SugaredLogger) emailPkg.Sender {
	if cfg.ResendKey != "" {
		log.Infow("email_sender", "kind", "resend", "from", cfg.EmailFrom)
		return emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.EmailReplyTo, log)
	}
	if cfg.IsProduction() {
		log.Warnw("email_sender", "kind", "noop", "reason", "VACADEMY_RESEND_KEY is not set; email delivery is disabled")
	} else {
		log.Infow("email_sender", "kind", "noop")
	}
	return emailPkg.NewNoopSender(log)
}

// csrfKey decodes the configured hex key. Outside production a missing key
// is replaced by a random one, which invalidates tokens on every restart.
func csrfKey(cfg config.Config, log *zap.SugaredLogger) ([]byte, error) {
	if cfg.CSRFKey != "" {
		key, err := hex.DecodeString(cfg.CSRFKey)
		if err != nil {
			return nil, errors.Wrap(err, "decode csrf key")
		}
		if len(key) != 32 {
			return nil, errors.Errorf("csrf key must be 32 bytes, got %d", len(key))
		}
		return key, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, "generate csrf key")
	}
	log.Warnw("csrf_key_generated", "env", cfg.Env)
	return key, nil
}
