package vm

// Device is the narrow contract the VM needs from its terminal: enough
// to print text and collect input. A concrete device (the driver
// package's bubbletea model, or a test harness) implements this and
// optionally one or more of the capability interfaces below.
type Device interface {
	// ReadLine blocks until the player has entered a full line of text.
	ReadLine() (string, error)
	// ReadChar blocks until a single keypress is available.
	ReadChar() (byte, error)
	WriteChar(c byte) error
	WriteString(s string) error
	Close() error
}

// StatusBar is the score/turns or time display shown above the main
// window in v1-3 games; v4+ games draw their own status line.
type StatusBar struct {
	PlaceName   string
	Score       int
	Moves       int
	IsTimeBased bool
}

// StatusSetter is implemented by devices that render a status bar
// (show_status, called automatically before sread in v1-3).
type StatusSetter interface {
	SetStatus(StatusBar)
}

// WindowSplitter is implemented by devices that support the upper
// "status/graphics" window (split_window, set_window, erase_window).
type WindowSplitter interface {
	SplitWindow(upperLines int)
	SetWindow(lower bool)
	EraseWindow(window int)
}

// CursorSetter is implemented by devices that can position the cursor
// inside the upper window (set_cursor).
type CursorSetter interface {
	SetCursor(line, col int)
}

// TextStyle mirrors the set_text_style opcode's bitmask: bit 0 reverse
// video, bit 1 bold, bit 2 italic, bit 3 fixed-pitch.
type TextStyle uint8

const (
	StyleReverse   TextStyle = 1 << 0
	StyleBold      TextStyle = 1 << 1
	StyleItalic    TextStyle = 1 << 2
	StyleFixedFont TextStyle = 1 << 3
)

// TextStyler is implemented by devices that render text styling.
type TextStyler interface {
	SetTextStyle(TextStyle)
}

// StreamSetter lets a device know when the screen stream is toggled
// off/on (output_stream 1/-1); most devices don't need to act on it
// since the VM itself stops calling WriteString while it's off, but a
// device that wants to e.g. dim its viewport can observe it.
type StreamSetter interface {
	SetScreenStreamEnabled(bool)
}
