// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// ListKeyMap defines the keybindings of the virtual list demo.
type ListKeyMap struct {
	// Scrolling
	LineUp   key.Binding
	LineDown key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	// Selection
	Next key.Binding
	Prev key.Binding

	// Item actions
	Add          key.Binding
	Delete       key.Binding
	Toggle       key.Binding
	CycleTask    key.Binding
	DeleteTask   key.Binding
	MoveUp       key.Binding
	MoveDown     key.Binding
	Regenerate   key.Binding
	Clear        key.Binding
	RemeasureAll key.Binding

	// Engine settings
	OverscanUp   key.Binding
	OverscanDown key.Binding
	SaveConfig   key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// List holds the default list keybindings.
var List = DefaultListKeyMap()

// DefaultListKeyMap returns the default keybindings.
func DefaultListKeyMap() ListKeyMap {
	return ListKeyMap{
		// Scrolling
		LineUp: key.NewBinding(
			key.WithKeys("up", "ctrl+y"),
			key.WithHelp("↑", "scroll up"),
		),
		LineDown: key.NewBinding(
			key.WithKeys("down", "ctrl+e"),
			key.WithHelp("↓", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d", " "),
			key.WithHelp("pgdn", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),

		// Selection
		Next: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "next item"),
		),
		Prev: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "previous item"),
		),

		// Item actions
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add at top"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete item"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", "tab"),
			key.WithHelp("enter", "expand/collapse"),
		),
		CycleTask: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle task status"),
		),
		DeleteTask: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete last task"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "move item up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "move item down"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "regenerate"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		RemeasureAll: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "remeasure all"),
		),

		// Engine settings
		OverscanUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "more overscan"),
		),
		OverscanDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "less overscan"),
		),
		SaveConfig: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "write config"),
		),

		// General
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k ListKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Toggle, k.Add, k.Delete, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k ListKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.LineUp, k.LineDown, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Next, k.Prev, k.Toggle, k.CycleTask, k.DeleteTask},
		{k.Add, k.Delete, k.MoveUp, k.MoveDown, k.Regenerate, k.Clear},
		{k.RemeasureAll, k.OverscanUp, k.OverscanDown, k.SaveConfig, k.Help, k.Quit},
	}
}
