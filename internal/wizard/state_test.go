package wizard

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

func sampleBranches() []portal.Branch {
	return []portal.Branch{
		{ID: 5, Name: "Makati", Code: "MKT"},
		{ID: 7, Name: "Cebu", Code: "CEB"},
		{ID: 9, Name: "Makati North", Code: "MKN"},
	}
}

func TestToggleBranchTwiceRestoresOriginalSet(t *testing.T) {
	s := NewState()
	s.ToggleBranch(5)
	s.ToggleBranch(7)
	original := s.Selected()

	s.ToggleBranch(9)
	s.ToggleBranch(9)

	assert.Equal(t, original, s.Selected())
}

func TestToggleBranchNeverDuplicates(t *testing.T) {
	s := NewState()
	for i := 0; i < 5; i++ {
		s.ToggleBranch(5)
	}
	// Odd number of toggles: present exactly once.
	assert.Equal(t, []int{5}, s.Selected())
	assert.True(t, s.IsSelected(5))

	s.ToggleBranch(5)
	assert.Empty(t, s.Selected())
	assert.False(t, s.IsSelected(5))
}

func TestSelectedBranchesPreserveSelectionOrder(t *testing.T) {
	s := NewState()
	s.SetBranchList(sampleBranches())
	s.ToggleBranch(9)
	s.ToggleBranch(5)

	chips := s.SelectedBranches()
	// Chip order follows selection order, not id or label order.
	assert.Equal(t, []int{9, 5}, []int{chips[0].ID, chips[1].ID})
}

func TestStageDerivation(t *testing.T) {
	s := NewState()
	assert.Equal(t, StagePickApprover, s.ActiveStage(true))
	assert.Equal(t, StagePickUser, s.ActiveStage(false))

	s.SelectApprover(portal.Approver{ID: 1})
	assert.Equal(t, StagePickUser, s.ActiveStage(true))

	s.SelectUser(portal.Staff{ID: 10})
	assert.Equal(t, StagePickBranches, s.ActiveStage(true))
	assert.Equal(t, StagePickBranches, s.ActiveStage(false))
}

func TestConfirmRequiresUserAndNonEmptySelection(t *testing.T) {
	cases := []struct {
		name        string
		setApprover bool
		setUser     bool
		selectIDs   []int
		visible     bool
		enabled     bool
	}{
		{name: "nothing selected"},
		{name: "approver only", setApprover: true},
		{name: "user without branches", setApprover: true, setUser: true},
		{name: "branches without user", selectIDs: []int{5}, visible: true},
		{name: "user and branches", setUser: true, selectIDs: []int{5}, visible: true, enabled: true},
		{name: "all three", setApprover: true, setUser: true, selectIDs: []int{5, 7}, visible: true, enabled: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewState()
			if tc.setApprover {
				s.SelectApprover(portal.Approver{ID: 1})
			}
			if tc.setUser {
				s.SelectUser(portal.Staff{ID: 10})
			}
			for _, id := range tc.selectIDs {
				s.ToggleBranch(id)
			}
			assert.Equal(t, tc.visible, s.ConfirmVisible(), "visibility")
			assert.Equal(t, tc.enabled, s.ConfirmEnabled(), "enablement")
		})
	}
}

func TestSelectUserClearsBranchesChosenForPreviousUser(t *testing.T) {
	s := NewState()
	s.SelectApprover(portal.Approver{ID: 1})
	s.SelectUser(portal.Staff{ID: 10})
	s.SetBranchList(sampleBranches())
	s.ToggleBranch(5)

	s.SelectUser(portal.Staff{ID: 11})

	assert.Empty(t, s.Selected(), "branches chosen for user 10 must not carry to user 11")
	assert.Nil(t, s.BranchList())
}

func TestClearFromUserKeepsApprover(t *testing.T) {
	s := NewState()
	s.SelectApprover(portal.Approver{ID: 1, FirstName: "Jan"})
	s.SelectUser(portal.Staff{ID: 10})
	s.ToggleBranch(5)

	s.ClearFrom(StagePickUser)

	_, hasUser := s.User()
	assert.False(t, hasUser)
	assert.Empty(t, s.Selected())

	approver, ok := s.Approver()
	assert.True(t, ok, "approver selection stays intact")
	assert.Equal(t, 1, approver.ID)
}

func TestResetReturnsToInitialState(t *testing.T) {
	s := NewState()
	s.SetApproverList([]portal.Approver{{ID: 1}})
	s.SelectApprover(portal.Approver{ID: 1})
	s.SetUserList([]portal.Staff{{ID: 10}})
	s.SelectUser(portal.Staff{ID: 10})
	s.SetBranchList(sampleBranches())
	s.ToggleBranch(5)

	s.Reset()

	_, hasApprover := s.Approver()
	_, hasUser := s.User()
	assert.False(t, hasApprover)
	assert.False(t, hasUser)
	assert.Empty(t, s.Selected())
	assert.Nil(t, s.ApproverList())
	assert.Nil(t, s.UserList())
	assert.Nil(t, s.BranchList())
	assert.Equal(t, StagePickApprover, s.ActiveStage(true))
}

func TestFilterBranchesMatchesLabelOrCode(t *testing.T) {
	branches := sampleBranches()

	got := FilterBranches(branches, "mak")
	want := []portal.Branch{
		{ID: 5, Name: "Makati", Code: "MKT"},
		{ID: 9, Name: "Makati North", Code: "MKN"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	// Code matches too, case-insensitively.
	got = FilterBranches(branches, "ceb")
	assert.Equal(t, []int{7}, []int{got[0].ID})

	// Every returned branch contains the query in name or code.
	for _, q := range []string{"m", "K", "north", "MKT", "zzz"} {
		for _, b := range FilterBranches(branches, q) {
			assert.True(t,
				containsFold(b.Name, q) || containsFold(b.Code, q),
				"branch %d does not match query %q", b.ID, q)
		}
	}
}

func TestFilterBranchesEmptyQueryMatchesAll(t *testing.T) {
	branches := sampleBranches()
	assert.Equal(t, branches, FilterBranches(branches, ""))
	assert.Equal(t, branches, FilterBranches(branches, "   "))
}

func TestFilterBranchesIsIdempotent(t *testing.T) {
	branches := sampleBranches()
	once := FilterBranches(branches, "mak")
	twice := FilterBranches(once, "mak")
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("filtering a filtered result changed it (-once +twice):\n%s", diff)
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
