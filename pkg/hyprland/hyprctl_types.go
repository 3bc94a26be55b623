package hyprland

// activeWindow is the reply to j/activewindow. An unfocused workspace
// yields an empty object.
type activeWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	Title        string `json:"title"`
	InitialClass string `json:"initialClass"`
	PID          int    `json:"pid"`
}
