package qcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/db"
	"github.com/askaws-cloud/askaws/internal/domain"
)

type mockStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	deleted []string
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func sampleRankings() []domain.Ranking {
	return []domain.Ranking{
		{
			SearchResult: domain.SearchResult{
				URL:       "https://docs.aws.amazon.com/s3/guide",
				Title:     "S3 guide",
				Context:   "excerpt",
				RankOrder: 1,
				Topic:     domain.TopicGeneral,
			},
			Relevance: 0.9,
			Quality:   1.0,
			Final:     0.86,
		},
	}
}

func TestCache_RoundTrip(t *testing.T) {
	ms := newMockStore()
	c := New(ms, "askaws:", zap.NewNop())
	ctx := context.Background()

	if err := c.Put(ctx, "k1", sampleRankings(), 10*time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ttl := ms.ttls["askaws:qcache:k1"]; ttl != 10*time.Minute {
		t.Errorf("stored ttl = %v, want 10m", ttl)
	}

	got, ok, err := c.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	want := sampleRankings()[0]
	if got[0].URL != want.URL || got[0].Final != want.Final || got[0].Topic != want.Topic {
		t.Errorf("round-tripped ranking = %+v, want %+v", got[0], want)
	}
}

func TestCache_Miss(t *testing.T) {
	c := New(newMockStore(), "askaws:", zap.NewNop())

	got, ok, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v (a missing key is not an error)", err)
	}
	if ok || got != nil {
		t.Errorf("ok=%v results=%v, want a plain miss", ok, got)
	}
}

func TestCache_StoreErrorSurfaces(t *testing.T) {
	ms := newMockStore()
	ms.getErr = errors.New("conn refused")
	c := New(ms, "askaws:", zap.NewNop())

	_, ok, err := c.Get(context.Background(), "k")
	if err == nil || ok {
		t.Errorf("ok=%v err=%v, want a surfaced store error", ok, err)
	}
}

func TestCache_CorruptEntryEvictedAsMiss(t *testing.T) {
	ms := newMockStore()
	ms.data["askaws:qcache:bad"] = []byte("{not json")
	c := New(ms, "askaws:", zap.NewNop())

	got, ok, err := c.Get(context.Background(), "bad")
	if err != nil || ok || got != nil {
		t.Fatalf("got=%v ok=%v err=%v, want a silent miss", got, ok, err)
	}
	if len(ms.deleted) != 1 || ms.deleted[0] != "askaws:qcache:bad" {
		t.Errorf("deleted = %v, want the corrupt key evicted", ms.deleted)
	}
}

func TestCache_Invalidate(t *testing.T) {
	ms := newMockStore()
	c := New(ms, "askaws:", zap.NewNop())
	ctx := context.Background()

	if err := c.Put(ctx, "k", sampleRankings(), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("entry survived invalidation")
	}
}
