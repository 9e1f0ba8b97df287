package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/hylla/kanboard/internal/app"
	"github.com/hylla/kanboard/internal/domain"
)

// newBoardServices builds a store with backlog=[A,B,C] and doing=[D].
func newBoardServices(t *testing.T) (*app.Store, *app.FormController) {
	t.Helper()
	n := 0
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	store := app.NewStore(nil, func() string {
		n++
		return fmt.Sprintf("card-%d", n)
	}, func() time.Time { return now }, app.StoreConfig{})
	store.Initialize(context.Background())
	for _, payload := range []domain.CardPayload{
		{Title: "A", Description: "first", Status: domain.StatusBacklog},
		{Title: "B", Description: "second", Status: domain.StatusBacklog},
		{Title: "C", Description: "third", Status: domain.StatusBacklog},
		{Title: "D", Description: "**bold** work", Status: domain.StatusDoing, Assignee: &domain.Assignee{ID: "u1", Name: "Ada"}},
	} {
		if _, err := store.CreateCard(context.Background(), payload); err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}
	}
	return store, app.NewFormController(store)
}

// loadedModel returns a sized model holding the current store snapshot.
func loadedModel(t *testing.T, svc Service, forms FormService, opts ...Option) Model {
	t.Helper()
	m := NewModel(svc, forms, opts...)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	m, _ = update(t, m, m.Init()())
	return m
}

// update applies one message and returns the concrete model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return out, cmd
}

// run executes cmd once and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected command, got nil")
	}
	return update(t, m, cmd())
}

// keyPress builds a key press message for one key name.
func keyPress(name string) tea.KeyPressMsg {
	switch name {
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "shift+tab":
		return tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}
	}
	r := []rune(name)[0]
	return tea.KeyPressMsg{Code: r, Text: name}
}

// press sends keys in order and returns the last command.
func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = update(t, m, keyPress(k))
	}
	return m, cmd
}

// typeText sends every rune of text as a key press.
func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = update(t, m, tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	return m
}

// columnTitles returns the card titles of status in order.
func columnTitles(b domain.Board, status domain.Status) []string {
	column, _ := b.Column(status)
	out := make([]string, 0, len(column.Cards))
	for _, card := range column.Cards {
		out = append(out, card.Title)
	}
	return out
}

// assertTitles fails when status does not hold want in order.
func assertTitles(t *testing.T, b domain.Board, status domain.Status, want ...string) {
	t.Helper()
	got := columnTitles(b, status)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("%s = %v, want %v", status, got, want)
	}
}

// viewContent renders the model view as plain text.
func viewContent(m Model) string {
	return fmt.Sprint(m.View().Content)
}

// failingMover rejects every move.
type failingMover struct {
	board domain.Board
	err   error
}

func (f failingMover) Board() domain.Board { return f.board }

func (f failingMover) MoveCardAt(context.Context, string, string, domain.DropPosition) (domain.MoveResult, error) {
	return domain.MoveResult{Board: f.board}, f.err
}

// TestModelLoadsBoard verifies the initial load renders every column.
func TestModelLoadsBoard(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)
	if m.status != "ready" {
		t.Fatalf("status = %q, want ready", m.status)
	}
	if got := m.board.CardCount(); got != 4 {
		t.Fatalf("card count = %d, want 4", got)
	}
	out := viewContent(m)
	for _, want := range []string{"kanboard", "Backlog (3)", "Doing (1)", "Review (0)", "Done (0)", "@Ada", "(empty)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

// TestModelNavigationClamps verifies cursor movement stays on real cards.
func TestModelNavigationClamps(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	m, _ = press(t, m, "j", "j", "j", "j")
	if m.selectedCard != 2 {
		t.Fatalf("selectedCard = %d, want 2", m.selectedCard)
	}
	m, _ = press(t, m, "l")
	if m.selectedColumn != 1 || m.selectedCard != 0 {
		t.Fatalf("selection = (%d,%d), want (1,0)", m.selectedColumn, m.selectedCard)
	}
	m, _ = press(t, m, "l", "l", "l")
	if m.selectedColumn != 3 {
		t.Fatalf("selectedColumn = %d, want 3", m.selectedColumn)
	}
	if _, ok := m.selectedCardInCurrentColumn(); ok {
		t.Fatal("expected no card selected in empty column")
	}
	m, _ = press(t, m, "e")
	if m.status != "no card selected" || m.mode != modeNone {
		t.Fatalf("status = %q mode = %v, want no card selected", m.status, m.mode)
	}
}

// TestModelGrabAndDropReordersWithinColumn verifies dropping before a card in the same column.
func TestModelGrabAndDropReordersWithinColumn(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	m, _ = press(t, m, "j", "j", "space")
	if m.mode != modeGrab || m.grabbedID != "card-3" {
		t.Fatalf("mode = %v grabbed = %q, want grab of card-3", m.mode, m.grabbedID)
	}
	m, cmd := press(t, m, "k", "k", "space")
	m, _ = run(t, m, cmd)

	assertTitles(t, store.Board(), domain.StatusBacklog, "C", "A", "B")
	assertTitles(t, m.board, domain.StatusBacklog, "C", "A", "B")
	if m.mode != modeNone || m.grabbedID != "" {
		t.Fatalf("mode = %v grabbed = %q, want cleared", m.mode, m.grabbedID)
	}
	if m.selectedColumn != 0 || m.selectedCard != 0 {
		t.Fatalf("selection = (%d,%d), want moved card focused at (0,0)", m.selectedColumn, m.selectedCard)
	}
	if !strings.Contains(m.status, `moved "C" to Backlog`) {
		t.Fatalf("status = %q", m.status)
	}
}

// TestModelGrabAndDropAtColumnEnd verifies the drop slot past the last card appends.
func TestModelGrabAndDropAtColumnEnd(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	m, _ = press(t, m, "space", "l", "j")
	if m.selectedColumn != 1 || m.selectedCard != 1 {
		t.Fatalf("drop cursor = (%d,%d), want end slot (1,1)", m.selectedColumn, m.selectedCard)
	}
	if got := m.dropTarget(); got != "doing" {
		t.Fatalf("dropTarget() = %q, want doing", got)
	}
	if !strings.Contains(viewContent(m), "drop at end") {
		t.Fatal("expected drop slot in view")
	}
	m, cmd := press(t, m, "space")
	m, _ = run(t, m, cmd)

	assertTitles(t, store.Board(), domain.StatusBacklog, "B", "C")
	assertTitles(t, store.Board(), domain.StatusDoing, "D", "A")
	card, ok := store.FindCard("card-1")
	if !ok || card.Status != domain.StatusDoing {
		t.Fatalf("moved card = %#v, want status doing", card)
	}
	if m.selectedColumn != 1 || m.selectedCard != 1 {
		t.Fatalf("selection = (%d,%d), want (1,1)", m.selectedColumn, m.selectedCard)
	}
}

// TestModelGrabIntoEmptyColumn verifies dropping into an empty column targets the column.
func TestModelGrabIntoEmptyColumn(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	m, cmd := press(t, m, "space", "l", "l", "l", "enter")
	m, _ = run(t, m, cmd)
	assertTitles(t, store.Board(), domain.StatusDone, "A")
	if !strings.Contains(m.status, "to Done") {
		t.Fatalf("status = %q", m.status)
	}
}

// TestModelGrabCancelAndSelfDrop verifies cancelled and self drops leave the board as is.
func TestModelGrabCancelAndSelfDrop(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)
	before := store.Board()

	m, _ = press(t, m, "j", "space", "l", "esc")
	if m.mode != modeNone || m.status != "move cancelled" {
		t.Fatalf("mode = %v status = %q", m.mode, m.status)
	}
	if m.selectedColumn != 0 || m.selectedCard != 1 {
		t.Fatalf("selection = (%d,%d), want grabbed card (0,1)", m.selectedColumn, m.selectedCard)
	}

	m, cmd := press(t, m, "space", "space")
	m, _ = run(t, m, cmd)
	if m.status != "no change" {
		t.Fatalf("status = %q, want no change", m.status)
	}
	assertTitles(t, store.Board(), domain.StatusBacklog, columnTitles(before, domain.StatusBacklog)...)
}

// TestModelKeyboardMoves verifies the single-step move shortcuts.
func TestModelKeyboardMoves(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	m, _ = press(t, m, "K")
	if m.status != "already at top" {
		t.Fatalf("status = %q, want already at top", m.status)
	}
	m, cmd := press(t, m, "J")
	m, _ = run(t, m, cmd)
	assertTitles(t, store.Board(), domain.StatusBacklog, "B", "A", "C")
	if m.selectedCard != 1 {
		t.Fatalf("selectedCard = %d, want 1", m.selectedCard)
	}

	m, cmd = press(t, m, "]")
	m, _ = run(t, m, cmd)
	assertTitles(t, store.Board(), domain.StatusDoing, "D", "A")

	m, cmd = press(t, m, "[")
	m, _ = run(t, m, cmd)
	assertTitles(t, store.Board(), domain.StatusBacklog, "B", "C", "A")

	m, _ = press(t, m, "[")
	if m.status != "already in first column" {
		t.Fatalf("status = %q", m.status)
	}
}

// TestModelCreateCardThroughForm verifies a typed form creates a card in the current column.
func TestModelCreateCardThroughForm(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	m, _ = press(t, m, "l", "l", "n")
	if m.mode != modeAddCard {
		t.Fatalf("mode = %v, want add card", m.mode)
	}
	if got := m.cardFormValues()["status"]; got != "review" {
		t.Fatalf("default status = %q, want review", got)
	}
	m = typeText(t, m, "Write docs")
	m, _ = press(t, m, "tab")
	m = typeText(t, m, "cover the api")
	m, cmd := press(t, m, "enter")
	m, cmd = run(t, m, cmd)
	if m.mode != modeNone || !strings.Contains(m.status, `created "Write docs"`) {
		t.Fatalf("mode = %v status = %q", m.mode, m.status)
	}
	m, _ = run(t, m, cmd)

	assertTitles(t, store.Board(), domain.StatusReview, "Write docs")
	card, ok := store.FindCard("card-5")
	if !ok || card.Description != "cover the api" {
		t.Fatalf("created card = %#v", card)
	}
	if m.selectedColumn != 2 || m.selectedCard != 0 {
		t.Fatalf("selection = (%d,%d), want new card focused", m.selectedColumn, m.selectedCard)
	}
}

// TestModelFormValidationKeepsFormOpen verifies field errors render and nothing is stored.
func TestModelFormValidationKeepsFormOpen(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	m, cmd := press(t, m, "n", "enter")
	m, _ = update(t, m, cmd())
	if m.mode != modeAddCard {
		t.Fatalf("mode = %v, want form still open", m.mode)
	}
	if m.fieldErrors["title"] != "Title is required" || m.fieldErrors["description"] != "Description is required" {
		t.Fatalf("fieldErrors = %#v", m.fieldErrors)
	}
	if m.formFocus != cardFieldTitle {
		t.Fatalf("formFocus = %d, want title", m.formFocus)
	}
	if out := viewContent(m); !strings.Contains(out, "Title is required") {
		t.Fatalf("view missing field error:\n%s", out)
	}
	if got := store.Board().CardCount(); got != 4 {
		t.Fatalf("card count = %d, want 4", got)
	}

	m = typeText(t, m, "x")
	if _, ok := m.fieldErrors["title"]; ok {
		t.Fatal("expected title error cleared after typing")
	}
	m, _ = press(t, m, "esc")
	if m.mode != modeNone || m.formInputs != nil {
		t.Fatalf("mode = %v, want form closed", m.mode)
	}
}

// TestModelEditCardChangesStatus verifies a status edit relocates the card to the column end.
func TestModelEditCardChangesStatus(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	m, _ = press(t, m, "e")
	if m.mode != modeEditCard || m.formCardID != "card-1" {
		t.Fatalf("mode = %v card = %q", m.mode, m.formCardID)
	}
	if got := m.cardFormValues()["title"]; got != "A" {
		t.Fatalf("prefilled title = %q, want A", got)
	}
	m, _ = press(t, m, "tab", "tab", "l")
	if got := m.cardFormValues()["status"]; got != "doing" {
		t.Fatalf("status = %q, want doing", got)
	}
	m, cmd := press(t, m, "enter")
	m, cmd = run(t, m, cmd)
	m, _ = run(t, m, cmd)

	assertTitles(t, store.Board(), domain.StatusDoing, "D", "A")
	if m.selectedColumn != 1 || m.selectedCard != 1 {
		t.Fatalf("selection = (%d,%d), want edited card focused", m.selectedColumn, m.selectedCard)
	}
}

// TestModelDeleteWithConfirmation verifies cancel and confirm paths.
func TestModelDeleteWithConfirmation(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	m, _ = press(t, m, "d")
	if m.mode != modeConfirmDelete || m.confirmCardID != "card-1" {
		t.Fatalf("mode = %v confirm = %q", m.mode, m.confirmCardID)
	}
	if out := viewContent(m); !strings.Contains(out, "delete card: A") {
		t.Fatalf("view missing confirmation:\n%s", out)
	}
	m, _ = press(t, m, "n")
	if m.mode != modeNone || store.Board().CardCount() != 4 {
		t.Fatal("expected cancel to keep the card")
	}

	m, _ = press(t, m, "d", "l", "enter")
	if m.mode != modeNone || m.status != "cancelled" {
		t.Fatalf("status = %q, want cancelled via [cancel]", m.status)
	}

	m, cmd := press(t, m, "d", "y")
	m, cmd = run(t, m, cmd)
	if m.status != `deleted "A"` {
		t.Fatalf("status = %q", m.status)
	}
	m, _ = run(t, m, cmd)
	assertTitles(t, m.board, domain.StatusBacklog, "B", "C")
}

// TestModelDeleteWithoutConfirmation verifies the prompt can be disabled.
func TestModelDeleteWithoutConfirmation(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms, WithConfirmDelete(false))

	m, cmd := press(t, m, "d")
	m, _ = run(t, m, cmd)
	if _, ok := store.FindCard("card-1"); ok {
		t.Fatal("expected card deleted")
	}
}

// TestModelCopyCardID verifies the copy action writes the selected id.
func TestModelCopyCardID(t *testing.T) {
	store, forms := newBoardServices(t)
	var copied string
	m := loadedModel(t, store, forms, WithCopyFunc(func(text string) error {
		copied = text
		return nil
	}))

	m, cmd := press(t, m, "j", "y")
	m, _ = run(t, m, cmd)
	if copied != "card-2" || m.status != "copied id card-2" {
		t.Fatalf("copied = %q status = %q", copied, m.status)
	}

	m.copyText = func(string) error { return errors.New("no clipboard") }
	m, cmd = press(t, m, "y")
	m, _ = run(t, m, cmd)
	if m.status != "copy failed: no clipboard" {
		t.Fatalf("status = %q", m.status)
	}
}

// TestModelCardInfoOverlay verifies the info overlay and its shortcuts.
func TestModelCardInfoOverlay(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	m, _ = press(t, m, "l", "i")
	if m.mode != modeCardInfo || m.infoCardID != "card-4" {
		t.Fatalf("mode = %v info = %q", m.mode, m.infoCardID)
	}
	out := viewContent(m)
	for _, want := range []string{"id: card-4", "column: Doing", "assignee: Ada (u1)", "bold"} {
		if !strings.Contains(out, want) {
			t.Fatalf("info overlay missing %q:\n%s", want, out)
		}
	}
	m, _ = press(t, m, "e")
	if m.mode != modeEditCard || m.formCardID != "card-4" {
		t.Fatalf("mode = %v, want edit form from info", m.mode)
	}
	if got := m.cardFormValues()["assignee_name"]; got != "Ada" {
		t.Fatalf("assignee_name = %q, want Ada", got)
	}
}

// TestModelMoveFailureReloads verifies a failed move reports and re-reads the store.
func TestModelMoveFailureReloads(t *testing.T) {
	store, _ := newBoardServices(t)
	svc := failingMover{board: store.Board(), err: errors.New("boom")}
	m := loadedModel(t, svc, nil)

	m, cmd := press(t, m, "space", "j", "space")
	m, cmd = run(t, m, cmd)
	if m.status != "move failed: boom" || m.mode != modeNone {
		t.Fatalf("status = %q mode = %v", m.status, m.mode)
	}
	if _, ok := cmd().(boardLoadedMsg); !ok {
		t.Fatal("expected reload command after failed move")
	}
}

// TestModelShowsBoardError verifies collaborator failures surface in the view.
func TestModelShowsBoardError(t *testing.T) {
	store, _ := newBoardServices(t)
	board := store.Board()
	board.Error = "save card card-1: disk full"
	m := loadedModel(t, failingMover{board: board}, nil)
	if out := viewContent(m); !strings.Contains(out, "board error: save card card-1: disk full") {
		t.Fatalf("view missing board error:\n%s", out)
	}
}

// TestModelWithoutFormsReportsError verifies a view-only model rejects submits.
func TestModelWithoutFormsReportsError(t *testing.T) {
	store, _ := newBoardServices(t)
	m := loadedModel(t, store, nil)
	m, _ = press(t, m, "n")
	m.formInputs[cardFieldTitle].SetValue("T")
	m.formInputs[cardFieldDescription].SetValue("D")
	m, cmd := press(t, m, "enter")
	m, _ = run(t, m, cmd)
	if !strings.Contains(m.status, "card forms are unavailable") {
		t.Fatalf("status = %q", m.status)
	}
}

// findCell scans the screen for coordinates that hit column/card.
func findCell(t *testing.T, m Model, column, card int) (int, int) {
	t.Helper()
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			hit, ok := m.hitTest(x, y)
			if ok && hit.column == column && hit.card == card {
				return x, y
			}
		}
	}
	t.Fatalf("no cell hits column %d card %d", column, card)
	return 0, 0
}

// TestModelMouseDragAcrossColumns verifies click-drag-release moves a card.
func TestModelMouseDragAcrossColumns(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	x, y := findCell(t, m, 0, 2)
	m, _ = update(t, m, tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft})
	if !m.dragging || m.grabbedID != "card-3" {
		t.Fatalf("dragging = %v grabbed = %q", m.dragging, m.grabbedID)
	}

	x, y = findCell(t, m, 1, 0)
	m, _ = update(t, m, tea.MouseMotionMsg{X: x, Y: y, Button: tea.MouseLeft})
	if m.selectedColumn != 1 || m.selectedCard != 0 {
		t.Fatalf("drop cursor = (%d,%d), want (1,0)", m.selectedColumn, m.selectedCard)
	}
	m, cmd := update(t, m, tea.MouseReleaseMsg{X: x, Y: y, Button: tea.MouseLeft})
	m, _ = run(t, m, cmd)

	assertTitles(t, store.Board(), domain.StatusDoing, "C", "D")
	if card, _ := store.FindCard("card-3"); card.Status != domain.StatusDoing {
		t.Fatalf("status = %q, want doing", card.Status)
	}
	if m.dragging || m.mode != modeNone {
		t.Fatalf("dragging = %v mode = %v", m.dragging, m.mode)
	}
}

// TestModelMouseDropOnColumnSpaceAppends verifies releasing over empty column space appends.
func TestModelMouseDropOnColumnSpaceAppends(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	x, y := findCell(t, m, 0, 0)
	m, _ = update(t, m, tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft})
	x, y = findCell(t, m, 3, -1)
	m, cmd := update(t, m, tea.MouseReleaseMsg{X: x, Y: y, Button: tea.MouseLeft})
	_, _ = run(t, m, cmd)
	assertTitles(t, store.Board(), domain.StatusDone, "A")
}

// TestModelMouseDropOutsideBoardIsNoop verifies drops over empty screen space change nothing.
func TestModelMouseDropOutsideBoardIsNoop(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	x, y := findCell(t, m, 0, 1)
	m, _ = update(t, m, tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft})
	m, cmd := update(t, m, tea.MouseReleaseMsg{X: x, Y: 0, Button: tea.MouseLeft})
	if cmd != nil {
		t.Fatal("expected no command for an outside drop")
	}
	if m.status != "dropped outside the board" || m.mode != modeNone {
		t.Fatalf("status = %q mode = %v", m.status, m.mode)
	}
	assertTitles(t, store.Board(), domain.StatusBacklog, "A", "B", "C")
}

// TestColumnLinesMapsRowsToCards verifies the line-to-card mapping used for hit testing.
func TestColumnLinesMapsRowsToCards(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)

	lines, rows := m.columnLines(0, 30, newBoardStyles())
	if len(lines) != len(rows) {
		t.Fatalf("len(lines) = %d len(rows) = %d", len(lines), len(rows))
	}
	want := []int{0, 0, -1, 1, 1, -1, 2, 2}
	if fmt.Sprint(rows) != fmt.Sprint(want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}

	_, rows = m.columnLines(3, 30, newBoardStyles())
	if fmt.Sprint(rows) != "[-1]" {
		t.Fatalf("empty column rows = %v, want [-1]", rows)
	}
}

// TestHelpOverlayToggle verifies ? opens and esc closes the help overlay.
func TestHelpOverlayToggle(t *testing.T) {
	store, forms := newBoardServices(t)
	m := loadedModel(t, store, forms)
	m, _ = press(t, m, "?")
	if !m.help.ShowAll || !strings.Contains(viewContent(m), "Board Help") {
		t.Fatal("expected help overlay")
	}
	m, _ = press(t, m, "esc")
	if m.help.ShowAll {
		t.Fatal("expected help closed")
	}
}

// TestLayoutHelpers verifies the small layout helpers.
func TestLayoutHelpers(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate() = %q", got)
	}
	if got := truncate("ab", 4); got != "ab" {
		t.Fatalf("truncate() = %q", got)
	}
	if got := fitLines("a\nb\nc", 2); got != "a\n…" {
		t.Fatalf("fitLines() = %q", got)
	}
	if got := fitLines("a", 3); got != "a\n\n" {
		t.Fatalf("fitLines() = %q", got)
	}
	if got := wrapIndex(0, -1, 4); got != 3 {
		t.Fatalf("wrapIndex() = %d", got)
	}
	if got := clamp(9, 0, 3); got != 3 {
		t.Fatalf("clamp() = %d", got)
	}
	card := domain.Card{Description: "line one\nline two", Assignee: &domain.Assignee{ID: "u9"}}
	if got := cardSecondary(card); got != "@u9 · line one line two" {
		t.Fatalf("cardSecondary() = %q", got)
	}
}
