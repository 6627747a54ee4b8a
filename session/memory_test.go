package session

import (
	"context"
	"errors"
	"testing"
)

func testProfile() Profile {
	return Profile{
		ID:        "u-1",
		Email:     "a@b.com",
		FirstName: "Ada",
		LastName:  "Bloom",
		Role:      RoleDoctor,
	}
}

func TestMemoryStoreSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, err := s.Load(ctx); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	rec := Record{Token: "t1", User: testProfile()}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load after Save: ok=%v err=%v", ok, err)
	}
	if got.Token != "t1" || got.User.ID != "u-1" || got.User.Role != RoleDoctor {
		t.Fatalf("unexpected record: %+v", got)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Fatal("record present after Clear")
	}
}

func TestMemoryStoreClearIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, Record{Token: "t1", User: testProfile()}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("first Clear failed: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Fatal("record present after double Clear")
	}
}

func TestMemoryStoreRejectsIncompleteRecord(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seed := Record{Token: "keep", User: testProfile()}
	if err := s.Save(ctx, seed); err != nil {
		t.Fatalf("seed Save failed: %v", err)
	}

	cases := []Record{
		{Token: "", User: testProfile()},
		{Token: "t2"},
		{Token: "t2", User: Profile{ID: "u-2", Role: Role("superuser")}},
	}
	for _, rec := range cases {
		err := s.Save(ctx, rec)
		if !errors.Is(err, ErrIncompleteRecord) {
			t.Fatalf("Save(%+v): expected ErrIncompleteRecord, got %v", rec, err)
		}
	}

	got, ok, err := s.Load(ctx)
	if err != nil || !ok || got.Token != "keep" {
		t.Fatalf("prior pair disturbed by rejected Save: %+v ok=%v err=%v", got, ok, err)
	}
}

func TestMemoryStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, Record{Token: "t1", User: testProfile()}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second := testProfile()
	second.ID = "u-2"
	second.Role = RoleAdmin
	if err := s.Save(ctx, Record{Token: "t2", User: second}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, ok, _ := s.Load(ctx)
	if !ok || got.Token != "t2" || got.User.ID != "u-2" {
		t.Fatalf("overwrite not observed: %+v", got)
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "doctor", "patient"} {
		if _, err := ParseRole(valid); err != nil {
			t.Fatalf("ParseRole(%q) failed: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "Admin", "nurse", "root"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Fatalf("ParseRole(%q) unexpectedly succeeded", invalid)
		}
	}
}
