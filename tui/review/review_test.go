package review

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/janschaeferjohann/seriem-agent/pkg/client"
)

func testModel(t *testing.T) *Model {
	t.Helper()
	t.Setenv("SERIEM_HOME", t.TempDir())

	m := New(client.New("127.0.0.1:9"), nil)
	m.width = 100
	m.height = 30
	return m
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleList(ids ...string) proposalsMsg {
	summaries := make([]client.ProposalSummary, len(ids))
	for i, id := range ids {
		summaries[i] = client.ProposalSummary{
			ProposalID:   id,
			Summary:      "Update config loader",
			FileCount:    2,
			LinesAdded:   10,
			LinesRemoved: 3,
			CreatedAt:    time.Now(),
		}
	}
	return proposalsMsg{list: &client.ProposalList{Proposals: summaries, Total: len(summaries)}}
}

func TestProposalsLoadClampsCursor(t *testing.T) {
	m := testModel(t)
	m.cursor = 5

	m.Update(sampleList("aaaaaaaa", "bbbbbbbb"))

	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	if m.loading {
		t.Error("loading should clear after the list arrives")
	}
}

func TestNavigationKeys(t *testing.T) {
	m := testModel(t)
	m.Update(sampleList("aaaaaaaa", "bbbbbbbb", "cccccccc"))

	m.Update(runeKey("j"))
	m.Update(runeKey("j"))
	if m.cursor != 2 {
		t.Fatalf("cursor after jj = %d, want 2", m.cursor)
	}

	m.Update(runeKey("k"))
	if m.cursor != 1 {
		t.Fatalf("cursor after k = %d, want 1", m.cursor)
	}

	m.Update(runeKey("G"))
	if m.cursor != 2 {
		t.Fatalf("cursor after G = %d, want 2", m.cursor)
	}

	// gg jumps back to the top.
	m.Update(runeKey("g"))
	m.Update(runeKey("g"))
	if m.cursor != 0 {
		t.Fatalf("cursor after gg = %d, want 0", m.cursor)
	}
}

func TestConfirmRequestsDetail(t *testing.T) {
	m := testModel(t)
	m.Update(sampleList("aaaaaaaa"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd == nil {
		t.Fatal("expected a command to load the proposal detail")
	}
	if !m.loading {
		t.Error("loading should be set while the detail request runs")
	}
}

func TestConfirmOnEmptyListDoesNothing(t *testing.T) {
	m := testModel(t)
	m.Update(sampleList())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		t.Error("no command expected with an empty list")
	}
}

func TestDetailMsgOpensDetailView(t *testing.T) {
	m := testModel(t)
	m.Update(sampleList("aaaaaaaa"))

	m.Update(detailMsg{detail: &client.ProposalDetail{
		ProposalID: "aaaaaaaa",
		Summary:    "Update config loader",
		Files: []client.FileChange{
			{Path: "config.yaml", Operation: "update", LinesAdded: 3, LinesRemoved: 1, Diff: "@@ -1 +1 @@\n-a\n+b\n"},
		},
		CreatedAt: time.Now(),
	}})

	if m.state != viewDetail {
		t.Fatalf("state = %v, want viewDetail", m.state)
	}

	view := m.View()
	if !strings.Contains(view, "aaaaaaaa") {
		t.Error("detail view should include the proposal id")
	}
}

func TestDecisionReturnsToListAndRefreshes(t *testing.T) {
	m := testModel(t)
	m.Update(sampleList("aaaaaaaa"))
	m.Update(detailMsg{detail: &client.ProposalDetail{ProposalID: "aaaaaaaa"}})

	_, cmd := m.Update(decisionMsg{result: &client.DecisionResult{
		ProposalID:    "aaaaaaaa",
		Action:        "approved",
		FilesAffected: []string{"config.yaml"},
	}})

	if m.state != viewList {
		t.Errorf("state = %v, want viewList after decision", m.state)
	}
	if !strings.Contains(m.status, "Approved") {
		t.Errorf("status = %q, want it to mention Approved", m.status)
	}
	if cmd == nil {
		t.Error("decision should trigger a list refresh")
	}
}

func TestOpenProposalGoneFallsBackToList(t *testing.T) {
	m := testModel(t)
	m.Update(sampleList("aaaaaaaa", "bbbbbbbb"))
	m.Update(detailMsg{detail: &client.ProposalDetail{ProposalID: "aaaaaaaa"}})

	// The open proposal vanished from the pending set.
	m.Update(sampleList("bbbbbbbb"))

	if m.state != viewList {
		t.Errorf("state = %v, want viewList when the open proposal is gone", m.state)
	}
	if !strings.Contains(m.status, "no longer pending") {
		t.Errorf("status = %q, want a note about the missing proposal", m.status)
	}
}

func TestErrMsgSetsStatus(t *testing.T) {
	m := testModel(t)

	m.Update(errMsg{errors.New("connection refused")})

	if !m.statusErr {
		t.Error("statusErr should be set")
	}
	if !strings.Contains(m.status, "connection refused") {
		t.Errorf("status = %q, want the error text", m.status)
	}
}

func TestQuitKey(t *testing.T) {
	m := testModel(t)
	m.Update(sampleList("aaaaaaaa"))

	_, cmd := m.Update(runeKey("q"))

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit from the list view")
	}
}

func TestBackClosesDetail(t *testing.T) {
	m := testModel(t)
	m.Update(sampleList("aaaaaaaa"))
	m.Update(detailMsg{detail: &client.ProposalDetail{ProposalID: "aaaaaaaa"}})

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if m.state != viewList {
		t.Errorf("state = %v, want viewList after esc", m.state)
	}
	if m.detail != nil {
		t.Error("detail should be cleared")
	}
}

func TestEmptyListView(t *testing.T) {
	m := testModel(t)
	m.Update(sampleList())

	view := m.View()
	if !strings.Contains(view, "No pending proposals") {
		t.Error("empty list view should show the placeholder")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is far too long", 10, "this is f…"},
		{"ab", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	tests := []struct {
		ts   time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "10s"},
		{now.Add(-5 * time.Minute), "5m"},
		{now.Add(-3 * time.Hour), "3h"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.ts); got != tt.want {
			t.Errorf("formatAge = %q, want %q", got, tt.want)
		}
	}
}

func TestOperationIcon(t *testing.T) {
	if operationIcon("create") == operationIcon("delete") {
		t.Error("create and delete should have distinct icons")
	}
	if operationIcon("update") != operationIcon("unknown") {
		t.Error("unknown operations should fall back to the update icon")
	}
}
