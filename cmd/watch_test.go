package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"chatmark/internal/pipeline"
	"chatmark/internal/render/term"
)

// The first frame must come from reading the file directly: it is
// computed before the program's event loop exists, so nothing may go
// through the scheduler or prog.Send to produce it.
func TestInitialViewPaintedWithoutProgram(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reply.md")
	if err := os.WriteFile(path, []byte("# Hello\n\nstreamed *prose*\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pipe := pipeline.New(termMath)
	renderer := term.NewRenderer(60)
	paint := paintFunc(pipe, renderer, nil)

	view := initialView(paint, path)
	if !strings.Contains(view, "Hello") || !strings.Contains(view, "prose") {
		t.Errorf("initial view = %q", view)
	}
}

func TestInitialViewMissingFile(t *testing.T) {
	paint := func(string) string { return "painted" }
	if view := initialView(paint, filepath.Join(t.TempDir(), "absent.md")); view != "" {
		t.Errorf("view = %q", view)
	}
}

func TestWatchModelReceivesRenders(t *testing.T) {
	m := watchModel{view: "first"}
	if !strings.Contains(m.View(), "first") {
		t.Errorf("seeded view lost: %q", m.View())
	}

	updated, _ := m.Update(renderedMsg("second"))
	if !strings.Contains(updated.(watchModel).View(), "second") {
		t.Errorf("rendered message not applied: %q", updated.(watchModel).View())
	}
}

func TestWatchModelQuitKeys(t *testing.T) {
	m := watchModel{}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q did not quit")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("ctrl+c did not quit")
	}
}
