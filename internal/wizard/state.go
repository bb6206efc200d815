// Package wizard implements the branch-assignment flow shared by the
// AVP-staff and branch-head dialogs: a staged picker where each stage's
// choice scopes the data fetched for the next, ending in a multi-select of
// target branches. One parameterized implementation replaces the four
// near-identical dialogs the portal grew by copy-paste.
package wizard

import (
	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// Stage identifies the wizard stage currently presented to the operator.
type Stage int

const (
	StagePickApprover Stage = iota
	StagePickUser
	StagePickBranches
)

func (s Stage) String() string {
	switch s {
	case StagePickApprover:
		return "pick-approver"
	case StagePickUser:
		return "pick-user"
	case StagePickBranches:
		return "pick-branches"
	default:
		return "unknown"
	}
}

// State is the per-dialog selection store: the candidate lists fetched from
// the gateway, the chosen entity per stage, and the ordered multi-select of
// target branch ids. It has no error state of its own and performs no I/O.
type State struct {
	approvers []portal.Approver
	users     []portal.Staff
	branches  []portal.Branch

	approver *portal.Approver
	user     *portal.Staff

	// selected preserves insertion order for chip rendering; membership is
	// what matters semantically.
	selected []int
}

// NewState returns an empty selection store.
func NewState() *State {
	return &State{}
}

// SetApproverList replaces the approver candidates.
func (s *State) SetApproverList(items []portal.Approver) { s.approvers = items }

// SetUserList replaces the staff candidates.
func (s *State) SetUserList(items []portal.Staff) { s.users = items }

// SetBranchList replaces the branch candidates.
func (s *State) SetBranchList(items []portal.Branch) { s.branches = items }

// ApproverList returns the current approver candidates.
func (s *State) ApproverList() []portal.Approver { return s.approvers }

// UserList returns the current staff candidates.
func (s *State) UserList() []portal.Staff { return s.users }

// BranchList returns the current branch candidates.
func (s *State) BranchList() []portal.Branch { return s.branches }

// SelectApprover sets the stage-one choice. Everything scoped by the
// approver (user, branches, selection set) is cleared.
func (s *State) SelectApprover(a portal.Approver) {
	s.approver = &a
	s.ClearFrom(StagePickUser)
}

// Approver returns the selected approver, or false.
func (s *State) Approver() (portal.Approver, bool) {
	if s.approver == nil {
		return portal.Approver{}, false
	}
	return *s.approver, true
}

// SelectUser sets the chosen staff member. Branches chosen for a previous
// user are discarded.
func (s *State) SelectUser(u portal.Staff) {
	s.user = &u
	s.ClearFrom(StagePickBranches)
}

// User returns the selected staff member, or false.
func (s *State) User() (portal.Staff, bool) {
	if s.user == nil {
		return portal.Staff{}, false
	}
	return *s.user, true
}

// ToggleBranch flips membership of id in the selection set: present is
// removed, absent is appended. Repeated toggles never produce duplicates.
func (s *State) ToggleBranch(id int) {
	for i, existing := range s.selected {
		if existing == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return
		}
	}
	s.selected = append(s.selected, id)
}

// IsSelected reports membership of id in the selection set.
func (s *State) IsSelected(id int) bool {
	for _, existing := range s.selected {
		if existing == id {
			return true
		}
	}
	return false
}

// Selected returns the selection set in insertion order.
func (s *State) Selected() []int {
	out := make([]int, len(s.selected))
	copy(out, s.selected)
	return out
}

// SelectedBranches resolves the selection set against the branch list,
// preserving selection order for chip rendering. Ids with no matching branch
// are skipped.
func (s *State) SelectedBranches() []portal.Branch {
	byID := make(map[int]portal.Branch, len(s.branches))
	for _, b := range s.branches {
		byID[b.ID] = b
	}
	out := make([]portal.Branch, 0, len(s.selected))
	for _, id := range s.selected {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// ClearFrom resets all state at stage and beyond. Clearing the user stage
// drops the chosen user, the selection set and the stale branch list, but
// keeps the approver; clearing the approver stage resets everything.
func (s *State) ClearFrom(stage Stage) {
	switch stage {
	case StagePickApprover:
		s.approver = nil
		s.users = nil
		fallthrough
	case StagePickUser:
		s.user = nil
		s.branches = nil
		fallthrough
	case StagePickBranches:
		s.selected = nil
	}
}

// Reset returns the store to its initial empty state, ready for the dialog
// to be reopened without remounting.
func (s *State) Reset() {
	s.approvers = nil
	s.users = nil
	s.branches = nil
	s.approver = nil
	s.user = nil
	s.selected = nil
}

// ActiveStage derives the visible stage from the selection state. There is
// no stored stage variable to fall out of sync: the approver picker shows
// while no approver is chosen (flows with that stage only), the user picker
// until a user is chosen, the branch picker after.
func (s *State) ActiveStage(hasApproverStage bool) Stage {
	if hasApproverStage && s.approver == nil {
		return StagePickApprover
	}
	if s.user == nil {
		return StagePickUser
	}
	return StagePickBranches
}

// ConfirmVisible reports whether the confirm control renders at all: it is
// omitted entirely while the selection set is empty.
func (s *State) ConfirmVisible() bool {
	return len(s.selected) > 0
}

// ConfirmEnabled reports whether confirming is allowed: a chosen user and a
// non-empty selection set.
func (s *State) ConfirmEnabled() bool {
	return s.user != nil && len(s.selected) > 0
}
