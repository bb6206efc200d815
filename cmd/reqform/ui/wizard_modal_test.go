package ui

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smegcoffee/request-form-sub001/internal/portal"
	"github.com/smegcoffee/request-form-sub001/internal/wizard"
)

var (
	testApprovers = []portal.Approver{
		{ID: 1, FirstName: "Maria", LastName: "Santos"},
	}
	testStaff = []portal.Staff{
		{ID: 10, FirstName: "Jose", LastName: "Reyes", Position: "Clerk"},
		{ID: 11, FirstName: "Ana", LastName: "Cruz", Position: "Teller"},
	}
	testBranches = []portal.Branch{
		{ID: 5, Name: "Makati", Code: "MKT"},
		{ID: 7, Name: "Cebu", Code: "CEB"},
		{ID: 9, Name: "Makati North", Code: "MKN"},
	}
)

// recordingFlow is a canned flow whose submit records the selection.
func recordingFlow(submitted *[]wizard.Selection, submitErr error) wizard.Flow {
	return wizard.Flow{
		Name:             "Assign AVP Staff",
		HasApproverStage: true,
		FetchApprovers: func(ctx context.Context) ([]portal.Approver, error) {
			return testApprovers, nil
		},
		FetchUsers: func(ctx context.Context, approverID int) ([]portal.Staff, error) {
			return testStaff, nil
		},
		FetchBranches: func(ctx context.Context, userID int) ([]portal.Branch, error) {
			return testBranches, nil
		},
		Submit: func(ctx context.Context, sel wizard.Selection) error {
			if submitErr != nil {
				return submitErr
			}
			*submitted = append(*submitted, sel)
			return nil
		},
	}
}

// collect executes a command tree and returns the produced messages,
// dropping spinner ticks so pumping terminates.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		return nil
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// pump feeds generated messages back into the modal until it settles,
// returning any WizardDoneMsg it emitted on the way.
func pump(m WizardModal, cmd tea.Cmd) (WizardModal, []WizardDoneMsg) {
	queue := collect(cmd)
	var done []WizardDoneMsg
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		if d, ok := msg.(WizardDoneMsg); ok {
			done = append(done, d)
			continue
		}
		var next tea.Cmd
		m, next = m.Update(msg)
		queue = append(queue, collect(next)...)
	}
	return m, done
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestWizard(t *testing.T, flow wizard.Flow) WizardModal {
	t.Helper()
	m, err := NewWizardModal(flow, DefaultStyles())
	if err != nil {
		t.Fatalf("NewWizardModal: %v", err)
	}
	return m
}

func TestWizardWalkthroughSubmits(t *testing.T) {
	var submitted []wizard.Selection
	m := newTestWizard(t, recordingFlow(&submitted, nil))

	m, cmd := m.Open()
	m, _ = pump(m, cmd)
	if got := len(m.ctrl.State().ApproverList()); got != 1 {
		t.Fatalf("approver list = %d entries, want 1", got)
	}

	// Select the approver, then the first staff member.
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)
	if got := len(m.ctrl.State().UserList()); got != 2 {
		t.Fatalf("user list = %d entries, want 2", got)
	}
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)
	if m.ctrl.Stage() != wizard.StagePickBranches {
		t.Fatalf("stage = %v, want branch picker", m.ctrl.Stage())
	}

	// Toggle Makati and Cebu, then confirm.
	m, _ = m.Update(key(tea.KeySpace))
	m, _ = m.Update(key(tea.KeyDown))
	m, _ = m.Update(key(tea.KeySpace))

	m, cmd = m.Update(key(tea.KeyEnter))
	m, done := pump(m, cmd)

	if len(submitted) != 1 {
		t.Fatalf("submit called %d times, want 1", len(submitted))
	}
	sel := submitted[0]
	if sel.ApproverID != 1 || sel.UserID != 10 {
		t.Errorf("selection = approver %d user %d, want 1 and 10", sel.ApproverID, sel.UserID)
	}
	if len(sel.BranchIDs) != 2 || sel.BranchIDs[0] != 5 || sel.BranchIDs[1] != 7 {
		t.Errorf("branch ids = %v, want [5 7]", sel.BranchIDs)
	}
	if len(done) != 1 || !done[0].Submitted {
		t.Errorf("done msgs = %+v, want one submitted close", done)
	}
}

func TestWizardStaleUserFetchDiscarded(t *testing.T) {
	// The first fetch resolves with a marker list, the second with the real
	// one. Delivering the first result after a newer fetch began must leave
	// the newer result in place.
	var mu sync.Mutex
	calls := 0
	flow := wizard.Flow{
		Name:             "Assign AVP Staff",
		HasApproverStage: true,
		FetchApprovers: func(ctx context.Context) ([]portal.Approver, error) {
			return testApprovers, nil
		},
		FetchUsers: func(ctx context.Context, approverID int) ([]portal.Staff, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return []portal.Staff{{ID: 99, FirstName: "Stale"}}, nil
			}
			return testStaff, nil
		},
		FetchBranches: func(ctx context.Context, userID int) ([]portal.Branch, error) {
			return testBranches, nil
		},
		Submit: func(ctx context.Context, sel wizard.Selection) error { return nil },
	}

	m := newTestWizard(t, flow)
	m, cmd := m.Open()
	m, _ = pump(m, cmd)

	// First selection starts a user fetch; hold its result.
	m, staleCmd := m.Update(key(tea.KeyEnter))
	staleMsgs := collect(staleCmd)

	// Abandon it, reselect, and let the newer fetch land first.
	m, _ = m.Update(key(tea.KeyEsc))
	m, freshCmd := m.Update(key(tea.KeyEnter))
	m, _ = pump(m, freshCmd)

	for _, msg := range staleMsgs {
		m, _ = m.Update(msg)
	}

	users := m.ctrl.State().UserList()
	if len(users) != 2 || users[0].ID != 10 {
		t.Fatalf("user list after stale delivery = %+v, want the fresh staff list", users)
	}
}

func TestWizardEditPreloadsAssignment(t *testing.T) {
	var submitted []wizard.Selection
	m := newTestWizard(t, recordingFlow(&submitted, nil))

	m, cmd := m.OpenEdit(portal.Assignment{
		ID: 3, ApproverID: 1, StaffID: 10, BranchIDs: []int{5, 7},
	}, nil)
	m, _ = pump(m, cmd)

	if m.ctrl.Stage() != wizard.StagePickBranches {
		t.Fatalf("stage = %v, want branch picker after preload", m.ctrl.Stage())
	}
	if _, ok := m.ctrl.State().User(); !ok {
		t.Fatal("no staff selected after preload")
	}
	selected := m.ctrl.State().Selected()
	if len(selected) != 2 || selected[0] != 5 || selected[1] != 7 {
		t.Fatalf("selected = %v, want [5 7]", selected)
	}
}

func TestWizardEditUsesPrefetchedBranches(t *testing.T) {
	// The host fetches assignment and branches together; the branch stage
	// must consume that list instead of fetching again.
	branchFetches := 0
	flow := wizard.Flow{
		Name:             "Edit AVP Staff",
		HasApproverStage: true,
		FetchApprovers: func(ctx context.Context) ([]portal.Approver, error) {
			return testApprovers, nil
		},
		FetchUsers: func(ctx context.Context, approverID int) ([]portal.Staff, error) {
			return testStaff, nil
		},
		FetchBranches: func(ctx context.Context, userID int) ([]portal.Branch, error) {
			branchFetches++
			return testBranches, nil
		},
		Submit: func(ctx context.Context, sel wizard.Selection) error { return nil },
	}

	m := newTestWizard(t, flow)
	m, cmd := m.OpenEdit(portal.Assignment{
		ID: 3, ApproverID: 1, StaffID: 10, BranchIDs: []int{5, 7},
	}, testBranches)
	m, _ = pump(m, cmd)

	if branchFetches != 0 {
		t.Errorf("branch fetch ran %d times despite a prefetched list", branchFetches)
	}
	if got := len(m.ctrl.State().BranchList()); got != 3 {
		t.Fatalf("branch list = %d entries, want the prefetched 3", got)
	}
	selected := m.ctrl.State().Selected()
	if len(selected) != 2 || selected[0] != 5 || selected[1] != 7 {
		t.Fatalf("selected = %v, want [5 7]", selected)
	}
}

func TestWizardFilterNarrowsBranches(t *testing.T) {
	var submitted []wizard.Selection
	m := newTestWizard(t, recordingFlow(&submitted, nil))

	m, cmd := m.Open()
	m, _ = pump(m, cmd)
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)

	for _, r := range "ceb" {
		m, _ = m.Update(runeKey(r))
	}
	visible := m.visibleBranches()
	if len(visible) != 1 || visible[0].Code != "CEB" {
		t.Fatalf("visible = %+v, want only CEB", visible)
	}

	// Toggling acts on the filtered list, not the full one.
	m, _ = m.Update(key(tea.KeySpace))
	if got := m.ctrl.State().Selected(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("selected = %v, want [7]", got)
	}
}

func TestWizardConfirmHintFollowsSelection(t *testing.T) {
	var submitted []wizard.Selection
	m := newTestWizard(t, recordingFlow(&submitted, nil))

	m, cmd := m.Open()
	m, _ = pump(m, cmd)
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)

	if strings.Contains(m.View(), "enter confirm") {
		t.Error("confirm hint shown with empty selection")
	}

	m, _ = m.Update(key(tea.KeySpace))
	if !strings.Contains(m.View(), "enter confirm") {
		t.Error("confirm hint missing after selecting a branch")
	}
}

func TestWizardBackFromBranchesKeepsApprover(t *testing.T) {
	var submitted []wizard.Selection
	m := newTestWizard(t, recordingFlow(&submitted, nil))

	m, cmd := m.Open()
	m, _ = pump(m, cmd)
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)

	m, _ = m.Update(key(tea.KeyEsc))
	if m.ctrl.Stage() != wizard.StagePickUser {
		t.Fatalf("stage = %v, want staff picker after back", m.ctrl.Stage())
	}
	if _, ok := m.ctrl.State().Approver(); !ok {
		t.Error("approver cleared by backing out of the branch picker")
	}
}

func TestWizardFilterSurvivesBackButNotReopen(t *testing.T) {
	var submitted []wizard.Selection
	m := newTestWizard(t, recordingFlow(&submitted, nil))

	m, cmd := m.Open()
	m, _ = pump(m, cmd)
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)

	for _, r := range "ceb" {
		m, _ = m.Update(runeKey(r))
	}

	// Back to the staff picker and forward again: the query stays.
	m, _ = m.Update(key(tea.KeyEsc))
	m, cmd = m.Update(key(tea.KeyEnter))
	m, _ = pump(m, cmd)
	if got := m.filter.Value(); got != "ceb" {
		t.Fatalf("filter after back and forward = %q, want it kept", got)
	}
	if visible := m.visibleBranches(); len(visible) != 1 || visible[0].Code != "CEB" {
		t.Fatalf("visible = %+v, want the kept query applied", visible)
	}

	// A fresh open clears it.
	m, cmd = m.Open()
	m, _ = pump(m, cmd)
	if got := m.filter.Value(); got != "" {
		t.Fatalf("filter after reopen = %q, want empty", got)
	}
}

func TestWizardCloseFromFirstStage(t *testing.T) {
	var submitted []wizard.Selection
	m := newTestWizard(t, recordingFlow(&submitted, nil))

	m, cmd := m.Open()
	m, _ = pump(m, cmd)

	m, closeCmd := m.Update(key(tea.KeyEsc))
	_, done := pump(m, closeCmd)
	if len(done) != 1 || done[0].Submitted {
		t.Fatalf("done msgs = %+v, want one unsubmitted close", done)
	}
}
