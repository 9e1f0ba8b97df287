package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveLeft      key.Binding
	moveRight     key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	newCard       key.Binding
	cardInfo      key.Binding
	editCard      key.Binding
	deleteCard    key.Binding
	grabCard      key.Binding
	moveCardLeft  key.Binding
	moveCardRight key.Binding
	moveCardUp    key.Binding
	moveCardDown  key.Binding
	copyID        key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "card up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "card down")),
		newCard:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new card")),
		cardInfo:      key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "card info")),
		editCard:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit card")),
		deleteCard:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete card")),
		grabCard:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "grab/drop card")),
		moveCardLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move card left")),
		moveCardRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move card right")),
		moveCardUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move card up")),
		moveCardDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move card down")),
		copyID:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy card id")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.newCard, k.cardInfo, k.editCard, k.grabCard, k.deleteCard, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.newCard, k.cardInfo, k.editCard, k.deleteCard, k.copyID, k.toggleHelp, k.reload, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.grabCard, k.moveCardLeft, k.moveCardRight, k.moveCardUp, k.moveCardDown},
	}
}
