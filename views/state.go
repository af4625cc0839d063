package views

import "github.com/deevus/instructor-tui/panel"

// ActionCompleted is posted from the invoking goroutine once an action's
// outcome has been rendered into its panel.
type ActionCompleted struct {
	Section string
	Action  string
	Outcome panel.Outcome
	Err     error
}

// OptionsLoaded is posted when a panel finishes loading its select options.
type OptionsLoaded struct {
	Section string
	Err     error
}

// BusyChanged is posted whenever a panel's busy indicator is shown or hidden.
type BusyChanged struct {
	Section string
}

// ConfirmRequested asks the UI to confirm a destructive action. The
// requesting goroutine blocks until a value is sent on Reply.
type ConfirmRequested struct {
	Impact panel.Impact
	Reply  chan<- bool
}
