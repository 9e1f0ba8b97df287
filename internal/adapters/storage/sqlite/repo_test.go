package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hylla/kanboard/internal/app"
	"github.com/hylla/kanboard/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "kanboard.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func newCard(t *testing.T, id string, status domain.Status, now time.Time) domain.Card {
	t.Helper()
	card, err := domain.NewCard(id, domain.CardPayload{Title: "title " + id, Description: "desc " + id, Status: status}, now)
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	return card
}

func columnIDs(b domain.Board, status domain.Status) []string {
	column, _ := b.Column(status)
	out := []string{}
	for _, card := range column.Cards {
		out = append(out, card.ID)
	}
	return out
}

func TestRepository_CardLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	a := newCard(t, "a", domain.StatusBacklog, now)
	a.Assignee = &domain.Assignee{ID: "u1", Name: "Ada"}
	b := newCard(t, "b", domain.StatusBacklog, now)
	c := newCard(t, "c", domain.StatusDoing, now)
	for _, card := range []domain.Card{a, b, c} {
		if err := repo.SaveCard(ctx, card); err != nil {
			t.Fatalf("SaveCard(%q) error = %v", card.ID, err)
		}
	}

	board, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if got := columnIDs(board, domain.StatusBacklog); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected backlog %v", got)
	}
	loaded, ok := board.FindCard("a")
	if !ok {
		t.Fatal("expected card a loaded")
	}
	if loaded.Assignee == nil || loaded.Assignee.Name != "Ada" || !loaded.CreatedAt.Equal(now) {
		t.Fatalf("unexpected loaded card %#v", loaded)
	}

	a.Title = "renamed"
	a.UpdatedAt = now.Add(time.Minute)
	if err := repo.SaveCard(ctx, a); err != nil {
		t.Fatalf("SaveCard() error = %v", err)
	}
	board, _ = repo.LoadBoard(ctx)
	if got := columnIDs(board, domain.StatusBacklog); got[0] != "a" {
		t.Fatalf("expected in-place update to keep position, got %v", got)
	}

	a.Status = domain.StatusDoing
	if err := repo.SaveCard(ctx, a); err != nil {
		t.Fatalf("SaveCard() error = %v", err)
	}
	board, _ = repo.LoadBoard(ctx)
	if got := columnIDs(board, domain.StatusDoing); len(got) != 2 || got[1] != "a" {
		t.Fatalf("expected status change to append, got %v", got)
	}

	if err := repo.SaveColumnOrder(ctx, domain.StatusDoing, []string{"a", "c"}); err != nil {
		t.Fatalf("SaveColumnOrder() error = %v", err)
	}
	board, _ = repo.LoadBoard(ctx)
	if got := columnIDs(board, domain.StatusDoing); got[0] != "a" || got[1] != "c" {
		t.Fatalf("unexpected reordered doing %v", got)
	}
	if err := board.CheckIntegrity(); err != nil {
		t.Fatalf("CheckIntegrity() error = %v", err)
	}

	if err := repo.RemoveCard(ctx, "b"); err != nil {
		t.Fatalf("RemoveCard() error = %v", err)
	}
	if err := repo.RemoveCard(ctx, "b"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.SaveColumnOrder(ctx, domain.StatusBacklog, []string{"b"}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing reorder id, got %v", err)
	}
}

func TestRepository_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.db")
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	n := 0
	ids := func() string {
		n++
		return "seed-" + string(rune('a'+n-1))
	}
	store := app.NewStore(repo, ids, time.Now, app.StoreConfig{Seed: true})
	first := store.Initialize(ctx)
	if first.Error != "" {
		t.Fatalf("unexpected board error %q", first.Error)
	}
	if _, err := store.MoveCard(ctx, "seed-a", string(domain.StatusDone)); err != nil {
		t.Fatalf("MoveCard() error = %v", err)
	}
	want := store.Board().CardIDs()
	_ = repo.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	again := app.NewStore(reopened, ids, time.Now, app.StoreConfig{Seed: true})
	board := again.Initialize(ctx)
	got := board.CardIDs()
	if len(got) != len(want) {
		t.Fatalf("reloaded ids %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reloaded ids %v, want %v", got, want)
		}
	}
	moved, _ := board.FindCard("seed-a")
	if moved.Status != domain.StatusDone {
		t.Fatalf("expected moved card persisted in done, got %q", moved.Status)
	}
}

func TestRepository_EmptiedBoardStaysEmptyAfterRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.db")
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	store := app.NewStore(repo, nil, time.Now, app.StoreConfig{Seed: true})
	first := store.Initialize(ctx)
	if first.CardCount() != len(app.DefaultSeedCards()) {
		t.Fatalf("expected %d seed cards on first start, got %d", len(app.DefaultSeedCards()), first.CardCount())
	}
	for _, id := range first.CardIDs() {
		if err := store.DeleteCard(ctx, id); err != nil {
			t.Fatalf("DeleteCard(%q) error = %v", id, err)
		}
	}
	if got := store.Board(); got.CardCount() != 0 || got.Error != "" {
		t.Fatalf("expected empty board without error, got %d cards, error %q", got.CardCount(), got.Error)
	}
	_ = repo.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	seeded, err := reopened.BoardSeeded(ctx)
	if err != nil || !seeded {
		t.Fatalf("BoardSeeded() = %v, %v, want true", seeded, err)
	}
	again := app.NewStore(reopened, nil, time.Now, app.StoreConfig{Seed: true}).Initialize(ctx)
	if again.CardCount() != 0 {
		t.Fatalf("expected emptied board to stay empty after restart, got ids %v", again.CardIDs())
	}
	if again.Error != "" {
		t.Fatalf("unexpected board error %q", again.Error)
	}
}

func TestRepository_SeedMarker(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	seeded, err := repo.BoardSeeded(ctx)
	if err != nil || seeded {
		t.Fatalf("BoardSeeded() = %v, %v, want false on a fresh database", seeded, err)
	}
	for range 2 {
		if err := repo.MarkBoardSeeded(ctx); err != nil {
			t.Fatalf("MarkBoardSeeded() error = %v", err)
		}
	}
	seeded, err = repo.BoardSeeded(ctx)
	if err != nil || !seeded {
		t.Fatalf("BoardSeeded() = %v, %v, want true", seeded, err)
	}
}

func TestOpenInMemory(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer repo.Close()
	board, err := repo.LoadBoard(context.Background())
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if len(board.Columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(board.Columns))
	}
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}
