package ui

import (
	"strings"
	"testing"
	"time"
)

func TestSimpleTableRendersRows(t *testing.T) {
	table := NewSimpleTable("Branches", []string{"ID", "Name", "Code"})
	table.AddRow("5", "Makati", "MKT")
	table.AddRow("7", "Cebu", "CEB")

	out := table.View(DefaultStyles())
	for _, want := range []string{"Branches", "Name", "Makati", "CEB"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q", want)
		}
	}
}

func TestSimpleTableEmptyRendersNothing(t *testing.T) {
	table := NewSimpleTable("Empty", []string{"A"})
	if out := table.View(DefaultStyles()); out != "" {
		t.Errorf("empty table rendered %q, want nothing", out)
	}
}

func TestDebouncerCoalescesCalls(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	fired := make(chan int, 3)

	for i := 0; i < 3; i++ {
		i := i
		d.Debounce(func() { fired <- i })
	}

	select {
	case got := <-fired:
		if got != 2 {
			t.Errorf("fired call %d, want only the last", got)
		}
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}

	select {
	case got := <-fired:
		t.Errorf("extra call %d fired", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestResizeDebouncerReportsLastSize(t *testing.T) {
	rd := NewResizeDebouncer(10 * time.Millisecond)
	done := make(chan struct{})

	rd.Resize(80, 24, func(w, h int) {})
	rd.Resize(120, 40, func(w, h int) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("resize handler never fired")
	}

	if w, h := rd.LastSize(); w != 120 || h != 40 {
		t.Errorf("LastSize() = %d x %d, want 120 x 40", w, h)
	}
}
