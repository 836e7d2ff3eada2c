package tui

// changedMsg tells the model to re-read the views.
type changedMsg struct{}
