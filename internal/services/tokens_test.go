package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"study-ai/internal/models"
)

func sampleSession(token string) models.OAuthSession {
	return models.OAuthSession{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		TokenURI:     "https://oauth2.googleapis.com/token",
		ClientID:     "client",
		Scopes:       []string{"scope.a", "scope.b"},
	}
}

func TestMemoryTokenStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()

	if err := store.Store(ctx, "state-a", sampleSession("a")); err != nil {
		t.Fatal(err)
	}
	if err := store.Store(ctx, "state-b", sampleSession("b")); err != nil {
		t.Fatal(err)
	}

	got, err := store.Retrieve(ctx, "state-a")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sampleSession("a"), got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}
	if got, _ := store.Retrieve(ctx, "state-b"); got.AccessToken != "b" {
		t.Fatalf("state-b returned token %q", got.AccessToken)
	}

	if _, err := store.Retrieve(ctx, "unknown"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
	if err := store.Store(ctx, " ", sampleSession("c")); !errors.Is(err, ErrInput) {
		t.Fatalf("blank state error = %v, want ErrInput", err)
	}
}

func TestMemoryTokenStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	in := sampleSession("a")
	_ = store.Store(ctx, "s", in)
	in.Scopes[0] = "mutated"

	got, _ := store.Retrieve(ctx, "s")
	got.Scopes[1] = "mutated"
	got.AccessToken = "mutated"

	again, _ := store.Retrieve(ctx, "s")
	if diff := cmp.Diff(sampleSession("a"), again); diff != "" {
		t.Fatalf("stored session changed (-want +got):\n%s", diff)
	}
}

func TestMemoryTokenStoreConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Store(ctx, fmt.Sprintf("state-%d", i), sampleSession(fmt.Sprint(i)))
		}(i)
	}
	wg.Wait()

	if store.Len() != 64 {
		t.Fatalf("stored %d sessions, want 64", store.Len())
	}
	for i := 0; i < 64; i++ {
		got, err := store.Retrieve(ctx, fmt.Sprintf("state-%d", i))
		if err != nil || got.AccessToken != fmt.Sprint(i) {
			t.Fatalf("state-%d = %+v, %v", i, got, err)
		}
	}
}

// fakeRedis implements the two commands RedisTokenStore issues. Any other
// call panics on the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
	ttls map[string]time.Duration
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestRedisTokenStore(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
	store := NewRedisTokenStore(fake, time.Hour)

	want := sampleSession("a")
	want.Expiry = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.Store(ctx, "xyz", want); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, ok := fake.data["oauth:session:xyz"]; !ok {
		t.Fatalf("expected key oauth:session:xyz, have %v", fake.data)
	}
	if fake.ttls["oauth:session:xyz"] != time.Hour {
		t.Fatalf("ttl = %v", fake.ttls["oauth:session:xyz"])
	}

	got, err := store.Retrieve(ctx, "xyz")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.Retrieve(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}
