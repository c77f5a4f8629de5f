package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *OtpStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewOtpStore(client, "po")
}

func sampleRecord() *OtpRecord {
	return &OtpRecord{
		Phone:         "778899001",
		OtpHash:       "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		RememberToken: "remember-token-value",
		VerifyToken:   "",
		Count:         1,
		Errors:        0,
		UpdatedAt:     time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleRecord())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Seq != 1 {
		t.Errorf("seq = %d, want 1", created.Seq)
	}

	got, err := store.Get(ctx, "778899001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got != *created {
		t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", got, created)
	}
}

func TestCreateDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, sampleRecord()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, sampleRecord()); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get(context.Background(), "000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBumpsSequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleRecord())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	next := *created
	next.Count = 2
	next.VerifyToken = "verify-token-value"
	updated, err := store.Update(ctx, &next, created.Seq)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Seq != created.Seq+1 {
		t.Errorf("seq = %d, want %d", updated.Seq, created.Seq+1)
	}

	got, err := store.Get(ctx, "778899001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Count != 2 || got.VerifyToken != "verify-token-value" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestUpdateSequenceConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleRecord())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// a first writer lands
	first := *created
	first.Count = 2
	if _, err := store.Update(ctx, &first, created.Seq); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// a second writer still holding the old sequence must lose
	second := *created
	second.Errors = 1
	if _, err := store.Update(ctx, &second, created.Seq); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := store.Get(ctx, "778899001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Count != 2 || got.Errors != 0 {
		t.Errorf("losing write leaked through: %+v", got)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord()
	if _, err := store.Update(context.Background(), rec, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCodecKeepsSubSecondPrecision(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	rec.UpdatedAt = time.Date(2025, 3, 10, 12, 0, 0, 999_000_000, time.UTC)
	if _, err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, rec.Phone)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.UpdatedAt.Equal(rec.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, rec.UpdatedAt)
	}
	if got.UpdatedAt.Nanosecond() != 999_000_000 {
		t.Errorf("nanoseconds lost in roundtrip: %v", got.UpdatedAt)
	}
}

func TestCodecRejectsCounterOverflow(t *testing.T) {
	rec := sampleRecord()
	rec.Count = 70000
	if _, err := encodeOtpRecord(rec); err == nil {
		t.Fatal("expected encode to reject out-of-range counter")
	}
}
