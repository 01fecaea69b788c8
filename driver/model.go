package driver

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/goz-interpreter/goz/vm"
)

type textMsg string
type statusMsg vm.StatusBar
type windowMsg windowUpdate
type cursorMsg cursorUpdate
type styleMsg vm.TextStyle
type streamMsg bool
type lineRequestMsg struct{}
type charRequestMsg struct{}
type vmStoppedMsg struct{ err error }
type zmcdnResultMsg struct {
	caption string
	err     error
}

type waitState int

const (
	stateRunning waitState = iota
	stateWaitingLine
	stateWaitingChar
)

// Model is the bubbletea model driving one running story. It owns no
// Z-machine state directly - that lives in the vm.VM goroutine already
// running against the same TeaDevice - only the rendering state the
// terminal needs.
type Model struct {
	dev        *TeaDevice
	vmInstance *vm.VM
	title      string
	zmcdnURL   string

	state   waitState
	traceOn bool

	lowerWindowText string
	upperWindowText []string
	upperHeight     int
	lowerWindowOn   bool
	currentStyle    lipgloss.Style
	status          vm.StatusBar

	inputBox textinput.Model
	width    int
	height   int

	runtimeErr string
}

// NewModel builds the bubbletea model for a story already wired to dev
// (the caller is expected to have started vmInstance.Run() on its own
// goroutine against dev before handing the model to tea.NewProgram).
// zmcdnURL is the illustration endpoint /zmcdn posts room names to; an
// empty string disables the /zmcdn console command.
func NewModel(dev *TeaDevice, vmInstance *vm.VM, title, zmcdnURL string) Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 200
	ti.Prompt = ""

	return Model{
		dev:          dev,
		vmInstance:   vmInstance,
		title:        title,
		zmcdnURL:     zmcdnURL,
		state:        stateRunning,
		currentStyle: lipgloss.NewStyle(),
		inputBox:     ti,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForText(m.dev),
		waitForStatus(m.dev),
		waitForWindow(m.dev),
		waitForStyle(m.dev),
		waitForLineRequest(m.dev),
		waitForCharRequest(m.dev),
		tea.Sequence(tea.SetWindowTitle(m.title), tea.WindowSize()),
	)
}

func waitForText(d *TeaDevice) tea.Cmd {
	return func() tea.Msg { return textMsg(<-d.textOut) }
}
func waitForStatus(d *TeaDevice) tea.Cmd {
	return func() tea.Msg { return statusMsg(<-d.statusOut) }
}
func waitForWindow(d *TeaDevice) tea.Cmd {
	return func() tea.Msg { return windowMsg(<-d.windowOut) }
}
func waitForCursor(d *TeaDevice) tea.Cmd {
	return func() tea.Msg { return cursorMsg(<-d.cursorOut) }
}
func waitForStyle(d *TeaDevice) tea.Cmd {
	return func() tea.Msg { return styleMsg(<-d.styleOut) }
}
func waitForLineRequest(d *TeaDevice) tea.Cmd {
	return func() tea.Msg { <-d.lineReq; return lineRequestMsg{} }
}
func waitForCharRequest(d *TeaDevice) tea.Cmd {
	return func() tea.Msg { <-d.charReq; return charRequestMsg{} }
}

// cmdZmcdn posts the current room's short name to the configured
// illustration endpoint and reports back whatever caption/URL it
// returns. Best-effort: a network failure just surfaces as an inline
// message and never blocks game input.
func cmdZmcdn(endpoint, room string) tea.Cmd {
	return func() tea.Msg {
		client := http.Client{Timeout: 5 * time.Second}
		resp, err := client.PostForm(endpoint, url.Values{"room": {room}})
		if err != nil {
			return zmcdnResultMsg{err: err}
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return zmcdnResultMsg{err: err}
		}
		return zmcdnResultMsg{caption: strings.TrimSpace(string(body))}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateWaitingChar:
			m.state = stateRunning
			if len(msg.Runes) > 0 {
				m.dev.charResp <- byte(msg.Runes[0])
			} else {
				m.dev.charResp <- keyToZChar(msg)
			}
			return m, waitForCharRequest(m.dev)
		case stateWaitingLine:
			if msg.Type == tea.KeyEnter {
				line := m.inputBox.Value()
				m.lowerWindowText += line + "\n"
				m.inputBox.SetValue("")

				if cmd, handled := m.handleConsoleCommand(line); handled {
					return m, cmd
				}

				m.state = stateRunning
				m.dev.lineResp <- line
				return m, waitForLineRequest(m.dev)
			}
			var cmd tea.Cmd
			m.inputBox, cmd = m.inputBox.Update(msg)
			return m, cmd
		}

	case textMsg:
		if m.lowerWindowOn || len(m.upperWindowText) == 0 {
			m.lowerWindowText += string(msg)
		} else {
			m.writeUpperWindow(string(msg))
		}
		return m, waitForText(m.dev)

	case statusMsg:
		m.status = vm.StatusBar(msg)
		return m, waitForStatus(m.dev)

	case windowMsg:
		switch {
		case msg.split:
			m.upperHeight = msg.lines
			if len(m.upperWindowText) < msg.lines {
				for len(m.upperWindowText) < msg.lines {
					m.upperWindowText = append(m.upperWindowText, strings.Repeat(" ", maxInt(m.width, 1)))
				}
			} else {
				m.upperWindowText = m.upperWindowText[:msg.lines]
			}
		case msg.setWin:
			m.lowerWindowOn = msg.lower
		case msg.erase:
			switch msg.eraseID {
			case -1, -2:
				m.lowerWindowText = ""
				for i := range m.upperWindowText {
					m.upperWindowText[i] = strings.Repeat(" ", maxInt(m.width, 1))
				}
			case 0:
				m.lowerWindowText = ""
			case 1:
				for i := range m.upperWindowText {
					m.upperWindowText[i] = strings.Repeat(" ", maxInt(m.width, 1))
				}
			}
		}
		return m, waitForWindow(m.dev)

	case styleMsg:
		m.currentStyle = lipgloss.NewStyle().
			Bold(vm.TextStyle(msg)&vm.StyleBold != 0).
			Italic(vm.TextStyle(msg)&vm.StyleItalic != 0).
			Reverse(vm.TextStyle(msg)&vm.StyleReverse != 0)
		return m, waitForStyle(m.dev)

	case lineRequestMsg:
		m.state = stateWaitingLine
		return m, nil

	case charRequestMsg:
		m.state = stateWaitingChar
		return m, nil

	case zmcdnResultMsg:
		if msg.err != nil {
			m.lowerWindowText += fmt.Sprintf("[zmcdn error: %v]\n", msg.err)
		} else {
			m.lowerWindowText += fmt.Sprintf("[zmcdn: %s]\n", msg.caption)
		}
		return m, nil

	case vmStoppedMsg:
		if msg.err != nil {
			m.runtimeErr = msg.err.Error()
		}
		return m, tea.Quit
	}

	return m, nil
}

// handleConsoleCommand intercepts driver-level console commands typed
// into the input box. A handled command is absorbed entirely by the
// driver and never reaches the VM's sread/read - the VM's blocking
// read simply keeps waiting, same as it would for a player still
// thinking about what to type.
func (m *Model) handleConsoleCommand(line string) (tea.Cmd, bool) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "/trace":
		m.traceOn = !m.traceOn
		m.vmInstance.SetTrace(m.traceOn)
		state := "off"
		if m.traceOn {
			state = "on"
		}
		m.lowerWindowText += fmt.Sprintf("[trace %s]\n", state)
		return nil, true

	case strings.HasPrefix(trimmed, "/zmcdn"):
		if m.zmcdnURL == "" {
			m.lowerWindowText += "[/zmcdn is not configured; pass -zmcdn <url>]\n"
			return nil, true
		}
		return cmdZmcdn(m.zmcdnURL, m.status.PlaceName), true
	}
	return nil, false
}

func (m *Model) writeUpperWindow(s string) {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i < len(m.upperWindowText) {
			m.upperWindowText[i] = padOrTrim(line, maxInt(m.width, len(line)))
		}
	}
}

func padOrTrim(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (m Model) View() string {
	if m.runtimeErr != "" {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
		return fmt.Sprintf("\n%s\n\n%s\n", errStyle.Render("Z-machine error:"), m.runtimeErr)
	}
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder
	if m.status.PlaceName != "" {
		s.WriteString(lipgloss.NewStyle().Reverse(true).Width(m.width).Render(statusLine(m.width, m.status)))
		s.WriteString("\n")
	} else if m.upperHeight > 0 {
		for _, row := range m.upperWindowText {
			s.WriteString(row)
			s.WriteString("\n")
		}
	}

	wrapped := wordwrap.String(m.lowerWindowText, maxInt(m.width, 1))
	lines := strings.Split(wrapped, "\n")
	maxLines := maxInt(m.height-len(strings.Split(s.String(), "\n"))-1, 1)
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	s.WriteString(m.currentStyle.Render(strings.Join(lines, "\n")))

	if m.state == stateWaitingLine {
		s.WriteString("\n" + m.inputBox.View())
	}

	return s.String()
}

func statusLine(width int, status vm.StatusBar) string {
	var right string
	if status.IsTimeBased {
		right = fmt.Sprintf("Time: %d:%02d", status.Score, status.Moves)
	} else {
		right = fmt.Sprintf("Score: %d  Moves: %d", status.Score, status.Moves)
	}
	if len(right)+1 >= width {
		return padOrTrim(right, width)
	}
	place := status.PlaceName
	if len(place)+len(right)+1 > width {
		place = place[:maxInt(width-len(right)-1, 0)]
	}
	return place + strings.Repeat(" ", width-len(place)-len(right)) + right
}

// keyToZChar maps non-printable key messages to Z-machine function-key
// codes, per the standard's input-stream extension.
func keyToZChar(msg tea.KeyMsg) byte {
	switch msg.Type {
	case tea.KeyUp:
		return 129
	case tea.KeyDown:
		return 130
	case tea.KeyLeft:
		return 131
	case tea.KeyRight:
		return 132
	case tea.KeyEscape:
		return 27
	case tea.KeyEnter:
		return 13
	case tea.KeyBackspace:
		return 8
	default:
		return 0
	}
}

// Run starts the VM on its own goroutine against dev and blocks running
// the bubbletea program until the story quits or the terminal exits.
// zmcdnURL configures the /zmcdn console command; pass "" to disable it.
func Run(vmInstance *vm.VM, dev *TeaDevice, title, zmcdnURL string) error {
	done := make(chan error, 1)
	go func() { done <- vmInstance.Run() }()

	model := NewModel(dev, vmInstance, title, zmcdnURL)
	program := tea.NewProgram(model)

	go func() {
		err := <-done
		program.Send(vmStoppedMsg{err: err})
	}()

	_, err := program.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error running program:", err)
	}
	return err
}
