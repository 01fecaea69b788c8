package driver

import (
	"testing"
	"time"

	"github.com/goz-interpreter/goz/vm"
)

func TestWriteStringRoundTrips(t *testing.T) {
	d := NewDevice()
	done := make(chan string, 1)
	go func() { done <- <-d.textOut }()

	if err := d.WriteString("hello"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}

	select {
	case got := <-done:
		if got != "hello" {
			t.Errorf("got %q, want %q", got, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for textOut")
	}
}

func TestReadLineBlocksUntilResponse(t *testing.T) {
	d := NewDevice()
	result := make(chan string, 1)
	go func() {
		line, err := d.ReadLine()
		if err != nil {
			t.Errorf("ReadLine: %v", err)
		}
		result <- line
	}()

	<-d.lineReq
	d.lineResp <- "north"

	select {
	case got := <-result:
		if got != "north" {
			t.Errorf("got %q, want %q", got, "north")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ReadLine to return")
	}
}

func TestSetStatusAndWindowCapabilities(t *testing.T) {
	d := NewDevice()

	var gotStatus vm.StatusBar
	statusDone := make(chan struct{})
	go func() { gotStatus = vm.StatusBar(<-d.statusOut); close(statusDone) }()
	d.SetStatus(vm.StatusBar{PlaceName: "Kitchen", Score: 10, Moves: 3})
	<-statusDone
	if gotStatus.PlaceName != "Kitchen" || gotStatus.Score != 10 {
		t.Errorf("status = %+v", gotStatus)
	}

	var gotWindow windowUpdate
	windowDone := make(chan struct{})
	go func() { gotWindow = <-d.windowOut; close(windowDone) }()
	d.SplitWindow(4)
	<-windowDone
	if !gotWindow.split || gotWindow.lines != 4 {
		t.Errorf("window update = %+v", gotWindow)
	}
}
