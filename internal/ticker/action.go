package ticker

// Action is one of the five menu choices.
type Action string

const (
	ActionAbout    Action = "about"
	ActionDividend Action = "dvd"
	ActionNews     Action = "news"
	ActionMomentum Action = "mom"
	ActionDone     Action = "done"
)

// Actions returns all menu actions in display order.
func Actions() []Action {
	return []Action{ActionAbout, ActionDividend, ActionNews, ActionMomentum, ActionDone}
}

// Valid reports whether a is a known menu action.
func (a Action) Valid() bool {
	switch a {
	case ActionAbout, ActionDividend, ActionNews, ActionMomentum, ActionDone:
		return true
	}
	return false
}

func (a Action) String() string { return string(a) }
