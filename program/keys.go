package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit   key.Binding
	Pause  key.Binding
	Mode   key.Binding
	Help   key.Binding
	Stress key.Binding
	Faster key.Binding
	Slower key.Binding

	Chart     key.Binding
	Aggregate key.Binding
	AggWindow key.Binding
	Range     key.Binding
	Scale     key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	PanLeft   key.Binding
	PanRight  key.Binding
	Reset     key.Binding
	Export    key.Binding

	Toggle      key.Binding
	ToggleGroup key.Binding
	ShowAll     key.Binding
	HideAll     key.Binding

	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Search   key.Binding
	Sort     key.Binding
	Order    key.Binding
	Group    key.Binding
	Done     key.Binding
}

// ShortHelp shows the bindings of the current mode.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Pause, k.Mode, k.Chart, k.Range, k.Aggregate, k.ZoomIn, k.Toggle, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Pause, k.Mode, k.Stress, k.Faster, k.Slower, k.Help},
		{k.Chart, k.Aggregate, k.AggWindow, k.Range, k.Scale, k.Export},
		{k.ZoomIn, k.ZoomOut, k.PanLeft, k.PanRight, k.Reset},
		{k.Up, k.Down, k.Toggle, k.ToggleGroup, k.ShowAll, k.HideAll},
	}
}

// tableKeys lists the bindings shown while the table is on screen.
type tableKeys keyMap

func (k tableKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Mode, k.Search, k.Sort, k.Order, k.Group, k.PageDown, k.Help}
}

func (k tableKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Pause, k.Mode, k.Help},
		{k.Search, k.Done, k.Sort, k.Order, k.Group},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
	}
}

var keys = keyMap{
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q/ctrl+c", "quit")),
	Pause:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Mode:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "chart/table")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	Stress: key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "stress")),
	Faster: key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "faster")),
	Slower: key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "slower")),

	Chart:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "chart")),
	Aggregate: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "aggregate")),
	AggWindow: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "agg window")),
	Range:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "range")),
	Scale:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log/lin")),
	ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
	ZoomOut:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	PanLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "pan back")),
	PanRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "pan forward")),
	Reset:     key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset zoom")),
	Export:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export png")),

	Toggle:      key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "hide/show")),
	ToggleGroup: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "hide/show group")),
	ShowAll:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "show all")),
	HideAll:     key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "hide all")),

	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "f"), key.WithHelp("pgdn", "page down")),
	Home:     key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "top")),
	End:      key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "bottom")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Sort:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort by")),
	Order:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "asc/desc")),
	Group:    key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "group")),
	Done:     key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter/esc", "done")),
}
