package tui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/kanboard/internal/domain"
)

// board layout rows: header, spacer, then column boxes whose first inner rows
// are the column title and a spacer.
const (
	boardTopRow    = 2
	cardsTopOffset = 3
)

// boardStyles groups the palette shared by board and overlay rendering.
type boardStyles struct {
	accent color.Color
	muted  color.Color
	dim    color.Color
	warn   color.Color

	title        lipgloss.Style
	status       lipgloss.Style
	columnTitle  lipgloss.Style
	empty        lipgloss.Style
	selectedCard lipgloss.Style
	grabbedCard  lipgloss.Style
	dropSlot     lipgloss.Style
	secondary    lipgloss.Style
	warning      lipgloss.Style
}

// newBoardStyles builds the default palette.
func newBoardStyles() boardStyles {
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	warn := lipgloss.Color("203")
	return boardStyles{
		accent:       accent,
		muted:        muted,
		dim:          dim,
		warn:         warn,
		title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		status:       lipgloss.NewStyle().Foreground(dim),
		columnTitle:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		empty:        lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		selectedCard: lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		grabbedCard:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true).Underline(true),
		dropSlot:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		secondary:    lipgloss.NewStyle().Foreground(muted),
		warning:      lipgloss.NewStyle().Bold(true).Foreground(warn),
	}
}

// View handles view.
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	st := newBoardStyles()
	header := st.title.Render(m.title) + st.status.Render("  ["+m.modeLabel()+"]")
	header += st.status.Render(fmt.Sprintf("  %d cards", m.board.CardCount()))
	if m.board.IsLoading {
		header += st.status.Render("  loading board...")
	}

	columnViews := make([]string, 0, len(m.board.Columns))
	for colIdx := range m.board.Columns {
		columnViews = append(columnViews, m.renderColumn(colIdx, st))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)

	sections := []string{header, "", body}
	if boardErr := strings.TrimSpace(m.board.Error); boardErr != "" {
		sections = append(sections, st.warning.Render("board error: "+boardErr))
	}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, st.status.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(st.muted).
		BorderTop(true).
		BorderForeground(st.dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	overlay := m.renderModeOverlay(st, m.width-8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(st, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}

	view := tea.NewView(fullContent)
	view.MouseMode = tea.MouseModeCellMotion
	view.AltScreen = true
	return view
}

// renderColumn renders one bordered column box.
func (m Model) renderColumn(colIdx int, st boardStyles) string {
	column := m.board.Columns[colIdx]
	colWidth := m.columnWidth()
	lines, rows := m.columnLines(colIdx, colWidth-4, st)

	innerHeight := max(1, m.columnHeight()-2)
	window := max(1, innerHeight-2)
	top := m.columnScrollTop(colIdx, rows, window)
	if len(lines) > window {
		lines = lines[top:min(len(lines), top+window)]
	}

	headerLine := st.columnTitle.Render(fmt.Sprintf("%s (%d)", column.Title, len(column.Cards)))
	content := fitLines(strings.Join(append([]string{headerLine, ""}, lines...), "\n"), innerHeight)

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(st.dim).
		Padding(0, 1).
		MarginRight(1).
		Width(colWidth)
	if colIdx == m.selectedColumn {
		style = style.BorderForeground(st.accent)
	}
	return style.Render(content)
}

// columnLines renders the card rows of one column. rows maps every line to the
// card index it belongs to, -1 for spacers, and len(cards) for the drop slot.
func (m Model) columnLines(colIdx, textWidth int, st boardStyles) ([]string, []int) {
	column := m.board.Columns[colIdx]
	textWidth = max(1, textWidth-2)
	grabbing := m.mode == modeGrab
	lines := make([]string, 0, len(column.Cards)*3+1)
	rows := make([]int, 0, cap(lines))

	if len(column.Cards) == 0 && !(grabbing && colIdx == m.selectedColumn) {
		return append(lines, st.empty.Render("(empty)")), append(rows, -1)
	}

	for idx, card := range column.Cards {
		cursor := colIdx == m.selectedColumn && idx == m.selectedCard
		grabbed := grabbing && card.ID == m.grabbedID

		prefix := "  "
		switch {
		case grabbed:
			prefix = "≡ "
		case cursor && grabbing:
			prefix = "▸ "
		case cursor:
			prefix = "│ "
		}
		title := prefix + truncate(card.Title, textWidth)
		switch {
		case grabbed:
			title = st.grabbedCard.Render(title)
		case cursor:
			title = st.selectedCard.Render(title)
		}
		subPrefix := "  "
		if cursor && !grabbing {
			subPrefix = "│ "
		}
		sub := subPrefix + st.secondary.Render(truncate(cardSecondary(card), textWidth))

		lines = append(lines, title, sub)
		rows = append(rows, idx, idx)
		if idx < len(column.Cards)-1 {
			lines = append(lines, "")
			rows = append(rows, -1)
		}
	}

	if grabbing && colIdx == m.selectedColumn && m.selectedCard >= len(column.Cards) {
		if len(column.Cards) > 0 {
			lines = append(lines, "")
			rows = append(rows, -1)
		}
		lines = append(lines, st.dropSlot.Render("▸ drop at end"))
		rows = append(rows, len(column.Cards))
	}
	return lines, rows
}

// columnScrollTop returns the first visible line keeping the cursor in view.
func (m Model) columnScrollTop(colIdx int, rows []int, window int) int {
	if colIdx != m.selectedColumn || len(rows) <= window {
		return 0
	}
	start, end := -1, -1
	for i, row := range rows {
		if row == m.selectedCard {
			if start < 0 {
				start = i
			}
			end = i
		}
	}
	if start < 0 {
		return 0
	}
	top := 0
	if end >= top+window {
		top = end - window + 1
	}
	if start < top {
		top = start
	}
	return clamp(top, 0, max(0, len(rows)-window))
}

// cardSecondary returns the muted second line of a card.
func cardSecondary(card domain.Card) string {
	desc := strings.Join(strings.Fields(card.Description), " ")
	if card.Assignee == nil {
		return desc
	}
	who := card.Assignee.Name
	if who == "" {
		who = card.Assignee.ID
	}
	if desc == "" {
		return "@" + who
	}
	return "@" + who + " · " + desc
}

// boardHit identifies the column and card under a pointer; card is -1 over
// column space that holds no card.
type boardHit struct {
	column int
	card   int
}

// hitTest maps terminal coordinates onto the board layout.
func (m Model) hitTest(x, y int) (boardHit, bool) {
	if len(m.board.Columns) == 0 || y < boardTopRow || y >= boardTopRow+m.columnHeight() {
		return boardHit{}, false
	}
	st := newBoardStyles()
	start := 0
	for colIdx := range m.board.Columns {
		width := lipgloss.Width(m.renderColumn(colIdx, st))
		if x < start || x >= start+width {
			start += width
			continue
		}
		column := m.board.Columns[colIdx]
		_, rows := m.columnLines(colIdx, m.columnWidth()-4, st)
		window := max(1, m.columnHeight()-4)
		row := y - boardTopRow - cardsTopOffset
		if row < 0 || row >= window {
			return boardHit{column: colIdx, card: -1}, true
		}
		row += m.columnScrollTop(colIdx, rows, window)
		if row < len(rows) && rows[row] >= 0 && rows[row] < len(column.Cards) {
			return boardHit{column: colIdx, card: rows[row]}, true
		}
		return boardHit{column: colIdx, card: -1}, true
	}
	return boardHit{}, false
}

// renderModeOverlay renders output for the current model state.
func (m Model) renderModeOverlay(st boardStyles, maxWidth int) string {
	switch m.mode {
	case modeAddCard, modeEditCard:
		return m.renderFormOverlay(st, maxWidth)
	case modeCardInfo:
		return m.renderCardInfoOverlay(st, maxWidth)
	case modeConfirmDelete:
		style := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(st.accent).
			Padding(0, 1)
		if maxWidth > 0 {
			style = style.Width(clamp(maxWidth, 36, 88))
		}
		card, _ := m.board.FindCard(m.confirmCardID)
		title := strings.TrimSpace(card.Title)
		if title == "" {
			title = "(unknown card)"
		}
		confirmStyle := lipgloss.NewStyle().Foreground(st.muted)
		cancelStyle := lipgloss.NewStyle().Foreground(st.muted)
		if m.confirmChoice == 0 {
			confirmStyle = lipgloss.NewStyle().Bold(true).Foreground(st.accent)
		} else {
			cancelStyle = lipgloss.NewStyle().Bold(true).Foreground(st.accent)
		}
		lines := []string{
			st.columnTitle.Render("Delete Card"),
			"delete card: " + title,
			confirmStyle.Render("[delete]") + "  " + cancelStyle.Render("[cancel]"),
			st.secondary.Render("enter apply • esc cancel • h/l switch • y confirm • n cancel"),
		}
		return style.Render(strings.Join(lines, "\n"))
	default:
		return ""
	}
}

// renderFormOverlay renders the card form with inline field errors.
func (m Model) renderFormOverlay(st boardStyles, maxWidth int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(st.accent).
		Padding(0, 1)
	if maxWidth > 0 {
		boxStyle = boxStyle.Width(clamp(maxWidth, 24, 96))
	}
	title := "New Card"
	if m.mode == modeEditCard {
		title = "Edit Card"
	}
	lines := []string{st.columnTitle.Render(title)}
	fieldWidth := max(18, maxWidth-28)
	for i, in := range m.formInputs {
		labelStyle := lipgloss.NewStyle().Foreground(st.muted)
		if i == m.formFocus {
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(st.accent)
		}
		label := labelStyle.Render(fmt.Sprintf("%-14s", cardFormFields[i]+":"))
		if i == cardFieldStatus {
			lines = append(lines, label+" "+m.renderStatusPicker(st))
		} else {
			in.SetWidth(fieldWidth)
			lines = append(lines, label+" "+in.View())
		}
		if msg := m.fieldError(i); msg != "" {
			lines = append(lines, st.warning.Render(strings.Repeat(" ", 15)+"! "+msg))
		}
	}
	lines = append(lines, st.secondary.Render("enter save • esc cancel • tab next field • h/l status"))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// renderStatusPicker renders the status choices with the current one highlighted.
func (m Model) renderStatusPicker(st boardStyles) string {
	statuses := domain.Statuses()
	parts := make([]string, 0, len(statuses))
	for idx, status := range statuses {
		label := string(status)
		if idx == m.formStatusIdx {
			parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(st.accent).Render("["+label+"]"))
			continue
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(st.muted).Render(label))
	}
	return strings.Join(parts, " ")
}

// renderCardInfoOverlay renders card details with the markdown description.
func (m Model) renderCardInfoOverlay(st boardStyles, maxWidth int) string {
	card, ok := m.board.FindCard(m.infoCardID)
	if !ok {
		return ""
	}
	width := clamp(maxWidth, 40, 96)
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(st.accent).
		Padding(0, 1).
		Width(width)

	meta := []string{
		"id: " + card.ID,
		"column: " + m.columnTitle(card.Status),
		"created: " + formatTimestamp(card.CreatedAt),
		"updated: " + formatTimestamp(card.UpdatedAt),
	}
	if card.Assignee != nil {
		meta = append(meta, fmt.Sprintf("assignee: %s (%s)", card.Assignee.Name, card.Assignee.ID))
	}
	lines := []string{
		st.columnTitle.Render(card.Title),
		st.secondary.Render(strings.Join(meta, "\n")),
		"",
	}
	if desc := m.md.render(card.Description, width-4); desc != "" {
		lines = append(lines, desc, "")
	}
	lines = append(lines, st.secondary.Render("e edit • d delete • y copy id • esc close"))
	return style.Render(strings.Join(lines, "\n"))
}

// renderHelpOverlay renders output for the current model state.
func (m Model) renderHelpOverlay(st boardStyles, maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	workflow := []string{
		st.columnTitle.Render("Workflows"),
		"1. n new card in the current column  •  e edit  •  i/enter card info",
		"2. space grab a card, move with h/j/k/l, space drops before the highlighted card",
		"3. move past the last card to drop at the column end  •  esc cancels the move",
		"4. drag with the mouse: release over a card inserts before it, over a column appends",
		"5. [ ] send a card to the neighbouring column  •  K/J reorder within a column",
	}
	lines := []string{
		st.columnTitle.Render("Board Help"),
		"",
		hb.View(m.keys),
		"",
		st.secondary.Render(strings.Join(workflow, "\n")),
		st.secondary.Render("press ? or esc to close"),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(st.dim).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// modeLabel returns the header label of the active mode.
func (m Model) modeLabel() string {
	switch m.mode {
	case modeGrab:
		return "move"
	case modeAddCard:
		return "new card"
	case modeEditCard:
		return "edit card"
	case modeCardInfo:
		return "card info"
	case modeConfirmDelete:
		return "confirm"
	default:
		return "board"
	}
}

// formatTimestamp formats one card timestamp for display.
func formatTimestamp(at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return at.UTC().Format("2006-01-02 15:04 UTC")
}

// columnWidth returns column width.
func (m Model) columnWidth() int {
	if len(m.board.Columns) == 0 {
		return 24
	}
	w := 28
	if m.width > 0 {
		// border (2), padding (2), margin (1)
		const colOverhead = 5
		if candidate := (m.width - len(m.board.Columns)*colOverhead) / len(m.board.Columns); candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, 20, 42)
}

// columnHeight returns column height.
func (m Model) columnHeight() int {
	const headerLines, footerLines = 2, 4
	return max(10, m.height-headerLines-footerLines)
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
