package orchestrators

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	emailAdapter "vacademy/internal/adapters/email"
	assetStore "vacademy/internal/adapters/storage/asset"
	campaignStore "vacademy/internal/adapters/storage/campaign"
	courseStore "vacademy/internal/adapters/storage/course"
	customFieldStore "vacademy/internal/adapters/storage/customfield"
	outboxStore "vacademy/internal/adapters/storage/outbox"
	"vacademy/internal/adapters/storage/storagetest"
	templateStore "vacademy/internal/adapters/storage/template"
)

var fixedNow = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

type harness struct {
	courses   *courseStore.SQLiteStore
	fields    *customFieldStore.SQLiteStore
	campaigns *campaignStore.SQLiteStore
	leads     *campaignStore.LeadSQLiteStore
	templates *templateStore.SQLiteStore
	states    *templateStore.EditorStateSQLiteStore
	assets    *assetStore.SQLiteStore
	outbox    *outboxStore.SQLiteStore
	sender    *emailAdapter.NoopSender

	seq int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := storagetest.Open(t)
	return &harness{
		courses:   courseStore.NewSQLiteStore(db),
		fields:    customFieldStore.NewSQLiteStore(db),
		campaigns: campaignStore.NewSQLiteStore(db),
		leads:     campaignStore.NewLeadSQLiteStore(db),
		templates: templateStore.NewSQLiteStore(db),
		states:    templateStore.NewEditorStateSQLiteStore(db),
		assets:    assetStore.NewSQLiteStore(db),
		outbox:    outboxStore.NewSQLiteStore(db),
		sender:    emailAdapter.NewNoopSender(zap.NewNop().Sugar()),
	}
}

func (h *harness) genID() string {
	h.seq++
	return fmt.Sprintf("id-%d", h.seq)
}

func (h *harness) now() time.Time { return fixedNow }

func (h *harness) mustCampaign(t *testing.T, in CreateCampaignInput) string {
	t.Helper()
	c, err := ExecuteCreateCampaign(context.Background(), in, CreateCampaignDeps{
		CampaignStore: h.campaigns, GenerateID: h.genID, Now: h.now,
	})
	require.NoError(t, err)
	return c.ID
}
