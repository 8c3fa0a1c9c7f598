package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/evsingleline/singleline/pkg/compliance"
)

func browseModel(t *testing.T) BrowseModel {
	t.Helper()
	s := sampleSurvey()
	return NewBrowseModel(s, compliance.Analyze(s))
}

func press(m BrowseModel, keys ...string) BrowseModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(BrowseModel)
	}
	return m
}

func TestBrowseModelTreeOrder(t *testing.T) {
	m := browseModel(t)
	var got []string
	for _, r := range m.rows {
		got = append(got, r.panel.ID)
	}
	if strings.Join(got, ",") != "p1,p2,p3,p4" {
		t.Errorf("rows = %v, want tree order p1,p2,p3,p4", got)
	}
	if m.rows[2].depth != 2 {
		t.Errorf("p3 depth = %d, want 2", m.rows[2].depth)
	}
}

func TestBrowseModelNavigation(t *testing.T) {
	m := browseModel(t)

	m = press(m, "down", "j")
	if p, _ := m.Selected(); p.ID != "p3" {
		t.Errorf("after two downs selected %s, want p3", p.ID)
	}
	m = press(m, "down", "down", "down")
	if m.Cursor != 3 {
		t.Errorf("cursor = %d, want clamped at 3", m.Cursor)
	}
	m = press(m, "k")
	if m.Cursor != 2 {
		t.Errorf("cursor = %d after k, want 2", m.Cursor)
	}
	m = press(m, "g")
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("home: cursor %d offset %d", m.Cursor, m.Offset)
	}
	m = press(m, "up")
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, want clamped at 0", m.Cursor)
	}
}

func TestBrowseModelScrolls(t *testing.T) {
	m := browseModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	m = next.(BrowseModel)
	if m.Height != 5 {
		t.Fatalf("height = %d, want minimum 5", m.Height)
	}
	m.Height = 2
	m = press(m, "down", "down", "down")
	if m.Offset != 2 {
		t.Errorf("offset = %d, want 2", m.Offset)
	}
	m = press(m, "up", "up", "up")
	if m.Offset != 0 {
		t.Errorf("offset = %d, want 0", m.Offset)
	}
}

func TestBrowseModelView(t *testing.T) {
	m := browseModel(t)
	v := m.View()
	for _, want := range []string{"MDP", "EV Panel", "Demand", "[1/4]"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, "tab")
	if !m.Breakers {
		t.Fatal("tab did not switch to breakers")
	}
	v = m.View()
	for _, want := range []string{"Lighting", "1,3"} {
		if !strings.Contains(v, want) {
			t.Errorf("breaker view missing %q", want)
		}
	}
}

func TestBrowseModelQuit(t *testing.T) {
	m := browseModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
