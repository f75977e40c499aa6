package loader

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"vacademy/internal/domain/asset"
	"vacademy/internal/domain/campaign"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGuard(t *testing.T) {
	var g Guard
	first := g.Next()
	assert.True(t, g.Current(first))

	second := g.Next()
	assert.False(t, g.Current(first))
	assert.True(t, g.Current(second))

	g.Invalidate()
	assert.False(t, g.Current(second))
}

// gatedFetch blocks each query until its gate is released.
type gatedFetch struct {
	started chan string
	gates   map[string]chan struct{}
}

func newGatedFetch(queries ...string) *gatedFetch {
	f := &gatedFetch{started: make(chan string, len(queries)), gates: map[string]chan struct{}{}}
	for _, q := range queries {
		f.gates[q] = make(chan struct{})
	}
	return f
}

func (f *gatedFetch) fetch(_ context.Context, q string) (string, error) {
	f.started <- q
	<-f.gates[q]
	if q == "fail" {
		return "", errors.New("boom")
	}
	return "result:" + q, nil
}

func TestLoader_LastRequestWins(t *testing.T) {
	f := newGatedFetch("old", "new")
	l := New("test", f.fetch, zap.NewNop().Sugar())

	l.Start(context.Background(), "old")
	require.Equal(t, "old", <-f.started)

	close(f.gates["new"])
	committed, err := l.Load(context.Background(), "new")
	require.NoError(t, err)
	require.True(t, committed)
	<-f.started
	newest := l.Snapshot().Ticket

	// the older response lands after the newer one
	close(f.gates["old"])
	l.Wait()

	s := l.Snapshot()
	assert.Equal(t, "result:new", s.Value)
	assert.Equal(t, "new", s.Query)
	assert.Equal(t, newest, s.Ticket)
	assert.False(t, s.Loading)
}

func TestLoader_StaleLoadNotCommitted(t *testing.T) {
	f := newGatedFetch("old", "new")
	l := New("test", f.fetch, nil)

	type outcome struct {
		committed bool
		err       error
	}
	oldDone := make(chan outcome, 1)
	go func() {
		ok, err := l.Load(context.Background(), "old")
		oldDone <- outcome{ok, err}
	}()
	require.Equal(t, "old", <-f.started)

	newDone := make(chan outcome, 1)
	go func() {
		ok, err := l.Load(context.Background(), "new")
		newDone <- outcome{ok, err}
	}()
	require.Equal(t, "new", <-f.started)

	close(f.gates["new"])
	got := <-newDone
	assert.True(t, got.committed)
	require.NoError(t, got.err)

	close(f.gates["old"])
	got = <-oldDone
	assert.False(t, got.committed)
	assert.Equal(t, "result:new", l.Snapshot().Value)
}

func TestLoader_ErrorKeepsLastValue(t *testing.T) {
	f := newGatedFetch("ok", "fail")
	close(f.gates["ok"])
	close(f.gates["fail"])
	l := New("test", f.fetch, nil)

	ok, err := l.Load(context.Background(), "ok")
	require.NoError(t, err)
	require.True(t, ok)
	<-f.started

	ok, err = l.Load(context.Background(), "fail")
	<-f.started
	assert.True(t, ok)
	assert.Error(t, err)

	s := l.Snapshot()
	assert.Equal(t, "result:ok", s.Value)
	assert.EqualError(t, s.Err, "boom")
}

func TestLoader_InvalidateDropsInFlight(t *testing.T) {
	f := newGatedFetch("q")
	l := New("test", f.fetch, nil)

	l.Start(context.Background(), "q")
	<-f.started
	assert.True(t, l.Snapshot().Loading)

	l.Invalidate()
	assert.False(t, l.Snapshot().Loading)

	close(f.gates["q"])
	l.Wait()
	assert.Empty(t, l.Snapshot().Value)
}

type assetStore struct {
	byFolder map[string][]asset.Asset
}

func (s *assetStore) Search(_ context.Context, q asset.Query) ([]asset.Asset, error) {
	return s.byFolder[q.Folder], nil
}

type leadStore struct {
	got campaign.LeadQuery
}

func (s *leadStore) Search(_ context.Context, q campaign.LeadQuery) (campaign.LeadPage, error) {
	s.got = q
	return campaign.NewLeadPage(nil, q.Page, q.Size, 0), nil
}

func TestAssetPicker(t *testing.T) {
	store := &assetStore{byFolder: map[string][]asset.Asset{
		"logos": {{ID: "a1", FileName: "logo.png"}},
	}}
	p := NewAssetPicker(store, nil)

	_, err := p.Load(context.Background(), asset.Query{InstituteID: "i1", Folder: "logos"})
	require.NoError(t, err)
	require.Len(t, p.Assets(), 1)
	assert.Equal(t, "a1", p.Assets()[0].ID)
}

func TestCampaignUserLoader_NormalisesQuery(t *testing.T) {
	store := &leadStore{}
	l := NewCampaignUserLoader(store, nil)

	_, err := l.Load(context.Background(), campaign.LeadQuery{AudienceID: "aud", Size: 10_000})
	require.NoError(t, err)
	assert.Equal(t, campaign.MaxPageSize, store.got.Size)
	assert.Equal(t, campaign.MaxPageSize, l.Page().Size)
}
