package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/config"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
)

func sampleState(id string) *model.QueryState {
	return &model.QueryState{
		ID:            id,
		Query:         "cloud spend",
		MarketDomain:  "SaaS",
		SearchResults: []string{"[Google] a: b"},
		AnalysisResult: model.Succeeded(&model.MarketReport{
			Trends: []model.Trend{{TrendName: "AI", ConfidenceScore: 0.8}},
		}),
		Timestamp: "2024-01-01T12:00:00Z",
	}
}

// persistenceSuite 对所有后端执行相同的用例
func persistenceSuite(t *testing.T, p Persistence) {
	ctx := context.Background()

	ok, err := p.Exists(ctx, "query_missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.Load(ctx, "query_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	st := sampleState("query_20240101120000")
	require.NoError(t, p.Save(ctx, st))

	ok, err = p.Exists(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := p.Load(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st, got)

	// 覆盖写
	st2 := sampleState(st.ID)
	st2.Query = "updated"
	st2.AnalysisResult = model.Failed[model.MarketReport]("garbage")
	require.NoError(t, p.Save(ctx, st2))

	got, err = p.Load(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Query)
	assert.True(t, got.AnalysisResult.IsFailure())
	assert.Equal(t, "garbage", got.AnalysisResult.Failure.RawResult)
}

func TestFilePersistence(t *testing.T) {
	p, err := NewFilePersistence(filepath.Join(t.TempDir(), "nested", "state"))
	require.NoError(t, err)
	persistenceSuite(t, p)
}

func TestFilePersistence_WireFormat(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFilePersistence(dir)
	require.NoError(t, err)
	require.NoError(t, p.Save(context.Background(), sampleState("query_1")))

	data, err := os.ReadFile(filepath.Join(dir, "query_1.json"))
	require.NoError(t, err)
	for _, key := range []string{`"query"`, `"market_domain"`, `"search_results"`, `"analysis_result"`, `"timestamp"`} {
		assert.Contains(t, string(data), key)
	}
}

func TestFilePersistence_LegacyFileWithoutID(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"query":"q","market_domain":"d","search_results":[],"analysis_result":{"error":"Failed to parse result","raw_result":"x"},"timestamp":"2024-01-01T00:00:00"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "query_old.json"), []byte(legacy), 0o644))

	p, err := NewFilePersistence(dir)
	require.NoError(t, err)
	got, err := p.Load(context.Background(), "query_old")
	require.NoError(t, err)
	assert.Equal(t, "query_old", got.ID)
	assert.True(t, got.AnalysisResult.IsFailure())
}

func TestBadgerPersistence(t *testing.T) {
	p, err := OpenBadger("")
	require.NoError(t, err)
	defer p.Close()
	persistenceSuite(t, p)
}

func TestPostgresPersistence(t *testing.T) {
	dsn := os.Getenv("MARKET_INTEL_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("MARKET_INTEL_TEST_PG_DSN not set")
	}
	p, err := NewPostgres(context.Background(), dsn)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.db.Exec(`DELETE FROM query_states WHERE id LIKE 'query_%'`)
	require.NoError(t, err)
	persistenceSuite(t, p)
}

func TestStore_RoundTripWithEmptyCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	p, err := NewFilePersistence(dir)
	require.NoError(t, err)
	require.NoError(t, NewStore(p).Put(ctx, sampleState("query_1")))

	// 新的 Store 没有内存缓存，只能从磁盘读取
	fresh := NewStore(p)
	got, err := fresh.Get(ctx, "query_1")
	require.NoError(t, err)
	assert.Equal(t, sampleState("query_1"), got)

	ok, err := fresh.Exists(ctx, "query_1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_NotFound(t *testing.T) {
	p, err := NewFilePersistence(t.TempDir())
	require.NoError(t, err)

	_, err = NewStore(p).Get(context.Background(), "query_nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "query_nope")
}

func TestStore_RejectsIDOutsideStateDir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	outside := `{"query":"outside state dir","market_domain":"d","search_results":[],"analysis_result":null,"timestamp":""}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.json"), []byte(outside), 0o644))

	p, err := NewFilePersistence(filepath.Join(root, "state"))
	require.NoError(t, err)
	s := NewStore(p)

	for _, id := range []string{"../secret", "..", "a/b", `..\secret`, filepath.Join(root, "secret"), ""} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, id)

		ok, err := s.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok, id)

		_, err = p.Load(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}

	bad := sampleState("../escape")
	assert.ErrorIs(t, s.Put(ctx, bad), ErrInvalidID)
	assert.ErrorIs(t, p.Save(ctx, bad), ErrInvalidID)
	assert.NoFileExists(t, filepath.Join(root, "escape.json"))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("query_20240101120000"))
	assert.True(t, ValidID("query_old"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("../x"))
	assert.False(t, ValidID("x..y"))
	assert.False(t, ValidID("dir/x"))
	assert.False(t, ValidID(`dir\x`))
}

type failingPersistence struct{ Persistence }

func (failingPersistence) Save(context.Context, *model.QueryState) error {
	return errors.New("disk full")
}

func TestStore_PersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	inner, err := NewFilePersistence(t.TempDir())
	require.NoError(t, err)

	s := NewStore(failingPersistence{inner})
	err = s.Put(ctx, sampleState("query_1"))
	require.Error(t, err)

	got, err := s.Get(ctx, "query_1")
	require.NoError(t, err)
	assert.Equal(t, "cloud spend", got.Query)
}

func TestNewPersistence(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.StateDir = t.TempDir()

	p, err := NewPersistence(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &FilePersistence{}, p)

	cfg.State.Backend = config.BackendBadger
	p, err = NewPersistence(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &BadgerPersistence{}, p)
	require.NoError(t, p.Close())

	cfg.State.Backend = "mongo"
	_, err = NewPersistence(ctx, cfg)
	assert.Error(t, err)
}
