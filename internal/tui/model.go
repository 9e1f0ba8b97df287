package tui

import (
	"context"
	"errors"
	"fmt"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/hylla/kanboard/internal/app"
	"github.com/hylla/kanboard/internal/domain"
)

// Service is the board store surface the view reads and drags through.
type Service interface {
	Board() domain.Board
	MoveCardAt(context.Context, string, string, domain.DropPosition) (domain.MoveResult, error)
}

// FormService submits card forms and confirmed deletes.
type FormService interface {
	Submit(context.Context, app.FormInput) (app.FormResult, error)
	Delete(context.Context, string) error
	Defaults(string) app.FormInput
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeGrab
	modeAddCard
	modeEditCard
	modeCardInfo
	modeConfirmDelete
)

// cardFormFields stores card-form field keys in display order.
var cardFormFields = []string{"title", "description", "status", "assignee_id", "assignee_name"}

// card-form field indexes used throughout keyboard/update logic.
const (
	cardFieldTitle = iota
	cardFieldDescription
	cardFieldStatus
	cardFieldAssigneeID
	cardFieldAssigneeName
)

// Model represents model data used by this package.
type Model struct {
	svc      Service
	forms    FormService
	copyText CopyFunc
	md       *markdownRenderer

	ready  bool
	width  int
	height int
	title  string
	status string

	help help.Model
	keys keyMap

	board          domain.Board
	selectedColumn int
	selectedCard   int
	pendingFocusID string

	mode      inputMode
	grabbedID string
	dragging  bool

	formInputs    []textinput.Model
	formFocus     int
	formStatusIdx int
	formCardID    string
	fieldErrors   map[string]string

	confirmDelete bool
	confirmCardID string
	confirmChoice int

	infoCardID string
}

// boardLoadedMsg carries the latest store snapshot.
type boardLoadedMsg struct {
	board domain.Board
}

// moveResultMsg carries the outcome of one drag or keyboard move.
type moveResultMsg struct {
	result domain.MoveResult
	err    error
}

// formResultMsg carries the outcome of one form submit.
type formResultMsg struct {
	result app.FormResult
	err    error
}

// deleteResultMsg carries the outcome of one confirmed delete.
type deleteResultMsg struct {
	cardID string
	title  string
	err    error
}

// copyResultMsg carries the outcome of one clipboard write.
type copyResultMsg struct {
	cardID string
	err    error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, forms FormService, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:           svc,
		forms:         forms,
		copyText:      defaultCopyFunc,
		md:            &markdownRenderer{},
		title:         "kanboard",
		status:        "loading...",
		help:          h,
		keys:          newKeyMap(),
		board:         domain.NewBoard(nil),
		confirmDelete: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadBoard
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		m.applyBoard(msg.board)
		if m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case moveResultMsg:
		m.mode = modeNone
		m.grabbedID = ""
		m.dragging = false
		if msg.err != nil {
			m.status = "move failed: " + msg.err.Error()
			return m, m.loadBoard
		}
		m.pendingFocusID = msg.result.Card.ID
		m.applyBoard(msg.result.Board)
		if !msg.result.Changed {
			m.status = "no change"
			return m, nil
		}
		m.status = fmt.Sprintf("moved %q to %s", truncate(msg.result.Card.Title, 28), m.columnTitle(msg.result.To))
		return m, nil

	case formResultMsg:
		if msg.err != nil {
			if len(msg.result.FieldErrors) > 0 {
				m.fieldErrors = msg.result.FieldErrors
				m.status = "fix highlighted fields"
				return m, m.focusCardFormField(m.firstErroredField())
			}
			m.mode = modeNone
			m.fieldErrors = nil
			m.status = "save failed: " + msg.err.Error()
			return m, m.loadBoard
		}
		m.mode = modeNone
		m.fieldErrors = nil
		m.formInputs = nil
		m.pendingFocusID = msg.result.Card.ID
		if msg.result.Created {
			m.status = fmt.Sprintf("created %q", truncate(msg.result.Card.Title, 28))
		} else {
			m.status = fmt.Sprintf("saved %q", truncate(msg.result.Card.Title, 28))
		}
		return m, m.loadBoard

	case deleteResultMsg:
		if msg.err != nil {
			m.status = "delete failed: " + msg.err.Error()
			return m, m.loadBoard
		}
		m.status = fmt.Sprintf("deleted %q", truncate(msg.title, 28))
		return m, m.loadBoard

	case copyResultMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "copied id " + msg.cardID
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		if m.isFormMode() && len(m.formInputs) > 0 {
			var cmd tea.Cmd
			m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// loadBoard reads the current store snapshot.
func (m Model) loadBoard() tea.Msg {
	return boardLoadedMsg{board: m.svc.Board()}
}

// applyBoard installs a new snapshot and keeps the cursor on a valid card.
func (m *Model) applyBoard(b domain.Board) {
	m.board = b
	if m.pendingFocusID != "" {
		m.focusCardByID(m.pendingFocusID)
		m.pendingFocusID = ""
	}
	m.clampSelections()
}

// handleNormalModeKey handles board navigation and card actions.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadBoard
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.clampSelections()
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.board.Columns)-1 {
			m.selectedColumn++
			m.clampSelections()
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if cards := m.currentColumnCards(); m.selectedCard < len(cards)-1 {
			m.selectedCard++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedCard > 0 {
			m.selectedCard--
		}
		return m, nil
	case key.Matches(msg, m.keys.newCard):
		m.help.ShowAll = false
		return m, m.startCardForm(nil)
	}

	card, ok := m.selectedCardInCurrentColumn()
	switch {
	case key.Matches(msg, m.keys.cardInfo, m.keys.editCard, m.keys.deleteCard, m.keys.grabCard,
		m.keys.moveCardLeft, m.keys.moveCardRight, m.keys.moveCardUp, m.keys.moveCardDown, m.keys.copyID) && !ok:
		m.status = "no card selected"
		return m, nil
	case key.Matches(msg, m.keys.cardInfo):
		m.help.ShowAll = false
		m.mode = modeCardInfo
		m.infoCardID = card.ID
		m.status = "card info"
		return m, nil
	case key.Matches(msg, m.keys.editCard):
		m.help.ShowAll = false
		return m, m.startCardForm(&card)
	case key.Matches(msg, m.keys.deleteCard):
		return m.requestDelete(card)
	case key.Matches(msg, m.keys.grabCard):
		m.mode = modeGrab
		m.grabbedID = card.ID
		m.status = fmt.Sprintf("grabbed %q • move to a target • space drop • esc cancel", truncate(card.Title, 28))
		return m, nil
	case key.Matches(msg, m.keys.moveCardLeft):
		if m.selectedColumn == 0 {
			m.status = "already in first column"
			return m, nil
		}
		return m, m.moveCardCmd(card.ID, string(m.board.Columns[m.selectedColumn-1].ID), domain.DropBefore)
	case key.Matches(msg, m.keys.moveCardRight):
		if m.selectedColumn >= len(m.board.Columns)-1 {
			m.status = "already in last column"
			return m, nil
		}
		return m, m.moveCardCmd(card.ID, string(m.board.Columns[m.selectedColumn+1].ID), domain.DropBefore)
	case key.Matches(msg, m.keys.moveCardUp):
		cards := m.currentColumnCards()
		if m.selectedCard == 0 {
			m.status = "already at top"
			return m, nil
		}
		return m, m.moveCardCmd(card.ID, cards[m.selectedCard-1].ID, domain.DropBefore)
	case key.Matches(msg, m.keys.moveCardDown):
		cards := m.currentColumnCards()
		if m.selectedCard >= len(cards)-1 {
			m.status = "already at bottom"
			return m, nil
		}
		return m, m.moveCardCmd(card.ID, cards[m.selectedCard+1].ID, domain.DropAfter)
	case key.Matches(msg, m.keys.copyID):
		return m, m.copyCardIDCmd(card.ID)
	}
	return m, nil
}

// handleInputModeKey handles keys while a mode or overlay owns the keyboard.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeGrab:
		return m.handleGrabKey(msg)
	case modeCardInfo:
		return m.handleCardInfoKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	case modeAddCard, modeEditCard:
		return m.handleFormKey(msg)
	default:
		m.mode = modeNone
		return m, nil
	}
}

// handleGrabKey moves the drop cursor and drops or cancels the grabbed card.
// The cursor may rest one past the last card, which targets the column end.
func (m Model) handleGrabKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		grabbed := m.grabbedID
		m.mode = modeNone
		m.grabbedID = ""
		m.dragging = false
		m.status = "move cancelled"
		m.focusCardByID(grabbed)
		m.clampSelections()
		return m, nil
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.selectedCard = clamp(m.selectedCard, 0, len(m.currentColumnCards()))
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.board.Columns)-1 {
			m.selectedColumn++
			m.selectedCard = clamp(m.selectedCard, 0, len(m.currentColumnCards()))
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedCard > 0 {
			m.selectedCard--
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.selectedCard < len(m.currentColumnCards()) {
			m.selectedCard++
		}
		return m, nil
	case key.Matches(msg, m.keys.grabCard) || msg.String() == "enter":
		return m, m.moveCardCmd(m.grabbedID, m.dropTarget(), domain.DropBefore)
	}
	return m, nil
}

// dropTarget resolves the drop cursor into a card id or a column id.
func (m Model) dropTarget() string {
	if len(m.board.Columns) == 0 {
		return ""
	}
	column := m.board.Columns[clamp(m.selectedColumn, 0, len(m.board.Columns)-1)]
	if m.selectedCard >= 0 && m.selectedCard < len(column.Cards) {
		return column.Cards[m.selectedCard].ID
	}
	return string(column.ID)
}

// handleCardInfoKey handles keys in the card info overlay.
func (m Model) handleCardInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	card, ok := m.board.FindCard(m.infoCardID)
	if !ok {
		m.mode = modeNone
		m.infoCardID = ""
		m.status = "card info unavailable"
		return m, nil
	}
	switch {
	case msg.String() == "esc" || msg.String() == "i":
		m.mode = modeNone
		m.infoCardID = ""
		m.status = "ready"
		return m, nil
	case key.Matches(msg, m.keys.editCard):
		m.infoCardID = ""
		return m, m.startCardForm(&card)
	case key.Matches(msg, m.keys.deleteCard):
		m.infoCardID = ""
		return m.requestDelete(card)
	case key.Matches(msg, m.keys.copyID):
		return m, m.copyCardIDCmd(card.ID)
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// handleConfirmKey handles the delete confirmation prompt.
func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "n":
		m.mode = modeNone
		m.confirmCardID = ""
		m.status = "cancelled"
		return m, nil
	case "h", "left", "l", "right", "tab":
		m.confirmChoice = 1 - m.confirmChoice
		return m, nil
	case "y":
		m.confirmChoice = 0
		return m.applyConfirmedDelete()
	case "enter":
		if m.confirmChoice == 1 {
			m.mode = modeNone
			m.confirmCardID = ""
			m.confirmChoice = 0
			m.status = "cancelled"
			return m, nil
		}
		return m.applyConfirmedDelete()
	}
	return m, nil
}

// requestDelete opens the confirmation prompt or deletes directly when disabled.
func (m Model) requestDelete(card domain.Card) (tea.Model, tea.Cmd) {
	if !m.confirmDelete {
		m.mode = modeNone
		m.status = "deleting..."
		return m, m.deleteCardCmd(card.ID, card.Title)
	}
	m.mode = modeConfirmDelete
	m.confirmCardID = card.ID
	m.confirmChoice = 0
	m.status = "confirm delete"
	return m, nil
}

// applyConfirmedDelete forwards the pending delete.
func (m Model) applyConfirmedDelete() (tea.Model, tea.Cmd) {
	cardID := m.confirmCardID
	m.mode = modeNone
	m.confirmCardID = ""
	m.status = "deleting..."
	card, _ := m.board.FindCard(cardID)
	return m, m.deleteCardCmd(cardID, card.Title)
}

// moveCardCmd runs one move through the store.
func (m Model) moveCardCmd(cardID, targetID string, drop domain.DropPosition) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		result, err := svc.MoveCardAt(context.Background(), cardID, targetID, drop)
		return moveResultMsg{result: result, err: err}
	}
}

// deleteCardCmd runs one confirmed delete.
func (m Model) deleteCardCmd(cardID, title string) tea.Cmd {
	forms := m.forms
	return func() tea.Msg {
		if forms == nil {
			return deleteResultMsg{cardID: cardID, title: title, err: errNoForms}
		}
		err := forms.Delete(context.Background(), cardID)
		return deleteResultMsg{cardID: cardID, title: title, err: err}
	}
}

// copyCardIDCmd writes one card id to the clipboard.
func (m Model) copyCardIDCmd(cardID string) tea.Cmd {
	copyText := m.copyText
	return func() tea.Msg {
		return copyResultMsg{cardID: cardID, err: copyText(cardID)}
	}
}

// handleMouseClick selects the clicked card and starts a drag.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || (m.mode != modeNone && m.mode != modeGrab) {
		return m, nil
	}
	hit, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.selectedColumn = hit.column
	if hit.card < 0 {
		m.clampSelections()
		return m, nil
	}
	m.selectedCard = hit.card
	if msg.Button != tea.MouseLeft || m.mode == modeGrab {
		return m, nil
	}
	card := m.board.Columns[hit.column].Cards[hit.card]
	m.mode = modeGrab
	m.grabbedID = card.ID
	m.dragging = true
	m.status = fmt.Sprintf("dragging %q", truncate(card.Title, 28))
	return m, nil
}

// handleMouseMotion tracks the drop cursor while a drag is in flight.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.dragging {
		return m, nil
	}
	hit, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.selectedColumn = hit.column
	if hit.card >= 0 {
		m.selectedCard = hit.card
	} else {
		m.selectedCard = len(m.board.Columns[hit.column].Cards)
	}
	return m, nil
}

// handleMouseRelease ends a drag: over a card inserts before it, over column
// space appends, and outside the board leaves the board untouched.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if !m.dragging {
		return m, nil
	}
	cardID := m.grabbedID
	m.dragging = false
	hit, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		m.mode = modeNone
		m.grabbedID = ""
		m.status = "dropped outside the board"
		m.focusCardByID(cardID)
		return m, nil
	}
	target := string(m.board.Columns[hit.column].ID)
	if hit.card >= 0 {
		target = m.board.Columns[hit.column].Cards[hit.card].ID
	}
	return m, m.moveCardCmd(cardID, target, domain.DropBefore)
}

// handleMouseWheel scrolls the selection in the current column.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone {
		return m, nil
	}
	cards := m.currentColumnCards()
	switch msg.Button {
	case tea.MouseWheelUp:
		if m.selectedCard > 0 {
			m.selectedCard--
		}
	case tea.MouseWheelDown:
		if m.selectedCard < len(cards)-1 {
			m.selectedCard++
		}
	}
	return m, nil
}

// clampSelections clamps selections.
func (m *Model) clampSelections() {
	if len(m.board.Columns) == 0 {
		m.selectedColumn = 0
		m.selectedCard = 0
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.board.Columns)-1)
	m.selectedCard = clamp(m.selectedCard, 0, len(m.currentColumnCards())-1)
}

// focusCardByID moves the cursor onto the card with id when it exists.
func (m *Model) focusCardByID(cardID string) {
	if ci, pos, ok := m.board.Locate(cardID); ok {
		m.selectedColumn = ci
		m.selectedCard = pos
	}
}

// currentColumnCards returns the cards of the selected column.
func (m Model) currentColumnCards() []domain.Card {
	if m.selectedColumn < 0 || m.selectedColumn >= len(m.board.Columns) {
		return nil
	}
	return m.board.Columns[m.selectedColumn].Cards
}

// selectedCardInCurrentColumn returns the card under the cursor.
func (m Model) selectedCardInCurrentColumn() (domain.Card, bool) {
	cards := m.currentColumnCards()
	if m.selectedCard < 0 || m.selectedCard >= len(cards) {
		return domain.Card{}, false
	}
	return cards[m.selectedCard], true
}

// columnTitle returns the display title of status.
func (m Model) columnTitle(status domain.Status) string {
	if column, ok := m.board.Column(status); ok {
		return column.Title
	}
	return status.DefaultTitle()
}

// isFormMode reports whether the card form owns the keyboard.
func (m Model) isFormMode() bool {
	return m.mode == modeAddCard || m.mode == modeEditCard
}

// errNoForms reports a model built without a form service.
var errNoForms = errors.New("card forms are unavailable")
