package tui

import (
	"context"
	"slices"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/hylla/kanboard/internal/app"
	"github.com/hylla/kanboard/internal/domain"
)

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// startCardForm opens the card form, pre-filled from card when editing.
func (m *Model) startCardForm(card *domain.Card) tea.Cmd {
	defaults := app.FormInput{Status: string(domain.StatusBacklog)}
	if m.forms != nil {
		cardID := ""
		if card != nil {
			cardID = card.ID
		}
		defaults = m.forms.Defaults(cardID)
	} else if card != nil {
		defaults = app.FormInputFromCard(*card)
	}
	if card == nil {
		// New cards land in the column under the cursor.
		if len(m.board.Columns) > 0 {
			defaults.Status = string(m.board.Columns[clamp(m.selectedColumn, 0, len(m.board.Columns)-1)].ID)
		}
	}

	m.fieldErrors = nil
	m.formCardID = defaults.CardID
	m.formInputs = []textinput.Model{
		newModalInput("", "card title (required)", defaults.Title, 120),
		newModalInput("", "what needs doing (required)", defaults.Description, 480),
		newModalInput("", "backlog | doing | review | done", "", 16),
		newModalInput("", "assignee id (optional)", defaults.AssigneeID, 64),
		newModalInput("", "assignee name", defaults.AssigneeName, 120),
	}
	m.formStatusIdx = max(0, slices.Index(domain.Statuses(), domain.Status(defaults.Status)))
	m.formInputs[cardFieldStatus].SetValue(string(domain.Statuses()[m.formStatusIdx]))
	if card != nil {
		m.mode = modeEditCard
		m.status = "edit card"
	} else {
		m.mode = modeAddCard
		m.status = "new card"
	}
	return m.focusCardFormField(cardFieldTitle)
}

// focusCardFormField focuses one form field; the status field is a picker and
// never takes text focus.
func (m *Model) focusCardFormField(idx int) tea.Cmd {
	if len(m.formInputs) == 0 {
		return nil
	}
	idx = clamp(idx, 0, len(m.formInputs)-1)
	m.formFocus = idx
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	if idx == cardFieldStatus {
		return nil
	}
	return m.formInputs[idx].Focus()
}

// cycleStatus steps the status picker by delta.
func (m *Model) cycleStatus(delta int) {
	statuses := domain.Statuses()
	m.formStatusIdx = wrapIndex(m.formStatusIdx, delta, len(statuses))
	m.formInputs[cardFieldStatus].SetValue(string(statuses[m.formStatusIdx]))
}

// cardFormValues returns trimmed form values keyed by field name.
func (m Model) cardFormValues() map[string]string {
	out := map[string]string{}
	for i, key := range cardFormFields {
		if i >= len(m.formInputs) {
			break
		}
		out[key] = strings.TrimSpace(m.formInputs[i].Value())
	}
	return out
}

// cardFormInput builds the controller input from the current form values.
func (m Model) cardFormInput() app.FormInput {
	vals := m.cardFormValues()
	return app.FormInput{
		CardID:       m.formCardID,
		Title:        vals["title"],
		Description:  vals["description"],
		Status:       vals["status"],
		AssigneeID:   vals["assignee_id"],
		AssigneeName: vals["assignee_name"],
	}
}

// firstErroredField returns the first form field carrying a validation message.
func (m Model) firstErroredField() int {
	for i := range cardFormFields {
		if m.fieldError(i) != "" {
			return i
		}
	}
	return m.formFocus
}

// fieldError returns the validation message for form field idx.
func (m Model) fieldError(idx int) string {
	if len(m.fieldErrors) == 0 || idx < 0 || idx >= len(cardFormFields) {
		return ""
	}
	if msg := m.fieldErrors[cardFormFields[idx]]; msg != "" {
		return msg
	}
	if idx == cardFieldAssigneeID {
		return m.fieldErrors["assignee"]
	}
	return ""
}

// handleFormKey handles keys while the card form is open.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.formInputs = nil
		m.fieldErrors = nil
		m.status = "cancelled"
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "down":
		return m, m.focusCardFormField(wrapIndex(m.formFocus, 1, len(m.formInputs)))
	case "shift+tab", "up":
		return m, m.focusCardFormField(wrapIndex(m.formFocus, -1, len(m.formInputs)))
	case "enter":
		return m, m.submitCardFormCmd()
	}
	if m.formFocus == cardFieldStatus {
		switch msg.String() {
		case "h", "left":
			m.cycleStatus(-1)
		case "l", "right", "space", " ":
			m.cycleStatus(1)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	delete(m.fieldErrors, cardFormFields[m.formFocus])
	return m, cmd
}

// submitCardFormCmd forwards the form to the controller.
func (m Model) submitCardFormCmd() tea.Cmd {
	forms := m.forms
	in := m.cardFormInput()
	return func() tea.Msg {
		if forms == nil {
			return formResultMsg{err: errNoForms}
		}
		result, err := forms.Submit(context.Background(), in)
		return formResultMsg{result: result, err: err}
	}
}

// wrapIndex wraps an index by delta for a bounded collection.
func wrapIndex(current int, delta int, total int) int {
	if total <= 0 {
		return 0
	}
	next := current + delta
	for next < 0 {
		next += total
	}
	for next >= total {
		next -= total
	}
	return next
}
