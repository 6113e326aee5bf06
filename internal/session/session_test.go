package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil)

	s, err := repo.Create(ctx, "100")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Stage = StageChat
	s.Append(RoleUser, "привет")

	stored, err := repo.Get(ctx, "100")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Stage != StageGreeting || len(stored.Transcript) != 0 {
		t.Fatalf("expected unsaved changes to stay local, got stage %s with %d turns", stored.Stage, len(stored.Transcript))
	}

	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, _ = repo.Get(ctx, "100")
	if stored.Stage != StageChat || len(stored.Transcript) != 1 {
		t.Fatalf("expected saved changes, got stage %s with %d turns", stored.Stage, len(stored.Transcript))
	}
}

func TestRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil)
	_, _ = repo.Create(ctx, "1")

	deleted, _ := repo.Delete(ctx, "1")
	if !deleted {
		t.Fatalf("expected first delete to report true")
	}
	deleted, _ = repo.Delete(ctx, "1")
	if deleted {
		t.Fatalf("expected second delete to report false")
	}
	if _, err := repo.Get(ctx, "1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentTurns(t *testing.T) {
	s := New("1", time.Now())
	for i := 0; i < 15; i++ {
		s.Append(RoleUser, "x")
	}
	if got := len(s.RecentTurns(12)); got != 12 {
		t.Fatalf("expected 12 turns, got %d", got)
	}
	if got := len(New("2", time.Now()).RecentTurns(12)); got != 0 {
		t.Fatalf("expected no turns, got %d", got)
	}
}

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"Отель":        CategoryHotel,
		"бренд/сервис": CategoryBrand,
		"сервис":       CategoryBrand,
		"регион":       CategoryRegion,
		"объект":       CategoryObject,
	}
	for input, want := range cases {
		got, ok := ParseCategory(input)
		if !ok || got != want {
			t.Fatalf("ParseCategory(%q): expected %q, got %q (ok=%v)", input, want, got, ok)
		}
	}
	if _, ok := ParseCategory("ресторан"); ok {
		t.Fatalf("expected unknown category to be rejected")
	}
}

func TestParseTask(t *testing.T) {
	if task, ok := ParseTask(" Лиды "); !ok || task != TaskLeads {
		t.Fatalf("expected лиды, got %q", task)
	}
	if _, ok := ParseTask("охваты"); ok {
		t.Fatalf("expected unknown task to be rejected")
	}
}

func TestLocksSerializeSameConversation(t *testing.T) {
	locks := NewLocks()
	var mu sync.Mutex
	active, maxActive := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("same")
			defer unlock()
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxActive)
	}
	if len(locks.locks) != 0 {
		t.Fatalf("expected lock table to be empty, got %d entries", len(locks.locks))
	}
}
