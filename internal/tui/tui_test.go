package tui

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	ldbstore "dbviewer/internal/store/leveldb"
	"dbviewer/internal/viewer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/syndtr/goleveldb/leveldb"
)

// writeFixture creates a LevelDB store with n archives and a node_states row.
func writeFixture(t *testing.T, archives int) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "node")
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < archives; i++ {
		key := binary.BigEndian.AppendUint32(nil, uint32(i))
		if err := db.Put(ldbstore.FamilyKey("archives", key), []byte{1, 2, 3}, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Put(ldbstore.FamilyKey("node_states", []byte("db_version")), []byte{0, 1, 2}, nil); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	return dir
}

func openFixture(t *testing.T, archives int) *viewer.Store {
	t.Helper()
	s, err := viewer.Open(writeFixture(t, archives), viewer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func key(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return got, cmd
}

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) Model {
	t.Helper()
	for _, msg := range msgs {
		m, _ = apply(t, m, msg)
	}
	return m
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = apply(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestFamiliesListed(t *testing.T) {
	m := sized(t, New(openFixture(t, 2), Options{}))
	if m.opts.Limit != viewer.DefaultRowLimit {
		t.Fatalf("default limit: got %d", m.opts.Limit)
	}
	items := m.families.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 families, got %d", len(items))
	}
	first := items[0].(familyItem)
	if first.name != "archives" || first.Description() != "u32 -> blob" {
		t.Fatalf("unexpected first item %q: %q", first.name, first.Description())
	}
	if !strings.Contains(m.View(), m.store.Path()) {
		t.Fatal("title should show the store path")
	}
}

func TestEnterLoadsRows(t *testing.T) {
	m := sized(t, New(openFixture(t, 3), Options{}))
	m, cmd := apply(t, m, enter)
	if cmd != nil {
		t.Fatal("rows should be read inside Update, not in a command")
	}
	if m.screen != screenRows || m.family != "archives" {
		t.Fatalf("expected rows of archives, got screen %d family %q", m.screen, m.family)
	}
	rows := m.table.Rows()
	if len(rows) != 3 || rows[0][0] != "0" || rows[0][1] != "<3 bytes>" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if m.status != "3 rows" {
		t.Fatalf("status: got %q", m.status)
	}

	m = press(t, m, esc)
	if m.screen != screenFamilies || m.status != "" {
		t.Fatal("esc should return to the family list")
	}
}

func TestQuitAfterLoadLeavesNoScanOpen(t *testing.T) {
	path := writeFixture(t, 50)
	s, err := viewer.Open(path, viewer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := sized(t, New(s, Options{Limit: 10}))
	m = press(t, m, enter)
	if _, cmd := apply(t, m, key("q")); cmd == nil {
		t.Fatal("q should quit")
	}

	// Nothing else holds the store once Update has returned.
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	again, err := viewer.Open(path, viewer.Options{})
	if err != nil {
		t.Fatalf("reopening after quit: %v", err)
	}
	again.Close()
}

func TestRowLimit(t *testing.T) {
	m := press(t, sized(t, New(openFixture(t, 7), Options{Limit: 5})), enter)
	if len(m.table.Rows()) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(m.table.Rows()))
	}
	if !strings.Contains(m.status, "limit reached") {
		t.Fatalf("status should mention the cap: %q", m.status)
	}
}

func TestExactLimitIsNotCapped(t *testing.T) {
	m := press(t, sized(t, New(openFixture(t, 5), Options{Limit: 5})), enter)
	if m.status != "5 rows" {
		t.Fatalf("status: got %q", m.status)
	}
}

func TestScanErrorShown(t *testing.T) {
	m := sized(t, New(openFixture(t, 1), Options{}))
	err := &viewer.ScanError{Family: "archives", Rows: 1, Err: errors.New("corrupt block")}
	m = m.showRows(familyRows{family: "archives", rows: []viewer.Row{{Key: "0", Value: "<3 bytes>"}}, err: err})

	if m.screen != screenRows || !m.failed {
		t.Fatal("a failed load should still show the rows read")
	}
	if len(m.table.Rows()) != 1 || !strings.Contains(m.status, "corrupt block") {
		t.Fatalf("unexpected state: rows %d, status %q", len(m.table.Rows()), m.status)
	}
}

func TestOpenAnotherStore(t *testing.T) {
	first, err := viewer.Open(writeFixture(t, 2), viewer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	other := writeFixture(t, 9)

	m := sized(t, New(first, Options{}))
	m = press(t, m, enter, key("o"))
	if !m.prompting {
		t.Fatal("o should open the path prompt")
	}
	m = press(t, m, key(other), enter)
	t.Cleanup(func() { m.store.Close() })

	if m.prompting || m.failed {
		t.Fatalf("open should succeed, status %q", m.status)
	}
	if m.store.Path() != other || m.screen != screenFamilies {
		t.Fatalf("expected the family list of %s, got %s on screen %d", other, m.store.Path(), m.screen)
	}
	m = press(t, m, enter)
	if len(m.table.Rows()) != 9 {
		t.Fatalf("expected the 9 archives of the new store, got %d", len(m.table.Rows()))
	}
}

func TestOpenFailureKeepsStore(t *testing.T) {
	s := openFixture(t, 2)
	m := sized(t, New(s, Options{}))
	missing := filepath.Join(t.TempDir(), "absent")
	m = press(t, m, key("o"), key(missing), enter)

	if m.store != s {
		t.Fatal("a failed open should keep the current store")
	}
	if !m.failed || !strings.Contains(m.status, "opening store") {
		t.Fatalf("expected the open error in the status line, got %q", m.status)
	}
	m = press(t, m, enter)
	if len(m.table.Rows()) != 2 {
		t.Fatal("the current store should still be readable")
	}
}

func TestPromptCapturesKeys(t *testing.T) {
	s := openFixture(t, 1)
	m := sized(t, New(s, Options{}))
	m = press(t, m, key("o"))
	m = press(t, m, key("q"))
	if !m.prompting || m.input.Value() != "q" {
		t.Fatalf("prompt value: got %q", m.input.Value())
	}
	m = press(t, m, esc)
	if m.prompting || m.store != s {
		t.Fatal("esc should cancel the prompt")
	}
}

func TestQuit(t *testing.T) {
	m := sized(t, New(openFixture(t, 1), Options{}))
	for _, msg := range []tea.KeyMsg{key("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := apply(t, m, msg)
		if cmd == nil {
			t.Fatalf("%s: expected a quit command", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s: expected tea.QuitMsg", msg)
		}
	}
}
