// Package driver implements a terminal front end for the vm package: a
// bubbletea model that renders the Z-machine's upper/lower window split
// and status bar, and a vm.Device that bridges the VM's blocking
// read/write calls onto that model's channel-driven event loop.
package driver

import (
	"github.com/goz-interpreter/goz/vm"
)

// TeaDevice is the vm.Device implementation the bubbletea model drives.
// Every vm.Device method blocks on a channel round-trip with the
// model's Update loop, mirroring how the VM runs on its own goroutine
// while the terminal UI runs on bubbletea's.
type TeaDevice struct {
	textOut   chan string
	lineReq   chan struct{}
	lineResp  chan string
	charReq   chan struct{}
	charResp  chan byte
	statusOut chan vm.StatusBar
	windowOut chan windowUpdate
	cursorOut chan cursorUpdate
	styleOut  chan vm.TextStyle
	streamOut chan bool
}

type windowUpdate struct {
	split   bool
	lines   int
	setWin  bool
	lower   bool
	erase   bool
	eraseID int
}

type cursorUpdate struct {
	line, col int
}

// NewDevice builds a TeaDevice.
func NewDevice() *TeaDevice {
	return &TeaDevice{
		textOut:   make(chan string),
		lineReq:   make(chan struct{}),
		lineResp:  make(chan string),
		charReq:   make(chan struct{}),
		charResp:  make(chan byte),
		statusOut: make(chan vm.StatusBar),
		windowOut: make(chan windowUpdate),
		cursorOut: make(chan cursorUpdate),
		styleOut:  make(chan vm.TextStyle),
		streamOut: make(chan bool),
	}
}

func (d *TeaDevice) WriteString(s string) error {
	d.textOut <- s
	return nil
}

func (d *TeaDevice) WriteChar(c byte) error {
	d.textOut <- string(rune(c))
	return nil
}

func (d *TeaDevice) ReadLine() (string, error) {
	d.lineReq <- struct{}{}
	return <-d.lineResp, nil
}

func (d *TeaDevice) ReadChar() (byte, error) {
	d.charReq <- struct{}{}
	return <-d.charResp, nil
}

func (d *TeaDevice) Close() error { return nil }

func (d *TeaDevice) SetStatus(s vm.StatusBar) { d.statusOut <- s }

func (d *TeaDevice) SplitWindow(upperLines int) {
	d.windowOut <- windowUpdate{split: true, lines: upperLines}
}

func (d *TeaDevice) SetWindow(lower bool) {
	d.windowOut <- windowUpdate{setWin: true, lower: lower}
}

func (d *TeaDevice) EraseWindow(window int) {
	d.windowOut <- windowUpdate{erase: true, eraseID: window}
}

func (d *TeaDevice) SetCursor(line, col int) {
	d.cursorOut <- cursorUpdate{line: line, col: col}
}

func (d *TeaDevice) SetTextStyle(style vm.TextStyle) { d.styleOut <- style }

func (d *TeaDevice) SetScreenStreamEnabled(on bool) { d.streamOut <- on }
