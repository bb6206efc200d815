package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// testFlow is an AVP-shaped flow whose fetches are driven manually from the
// tests via the Deliver methods; Submit records the selection it was given.
func testFlow(submitErr error, submitted *Selection) Flow {
	return Flow{
		Name:             "test",
		HasApproverStage: true,
		FetchApprovers: func(context.Context) ([]portal.Approver, error) {
			return nil, nil
		},
		FetchUsers: func(context.Context, int) ([]portal.Staff, error) {
			return nil, nil
		},
		FetchBranches: func(context.Context, int) ([]portal.Branch, error) {
			return nil, nil
		},
		Submit: func(_ context.Context, sel Selection) error {
			if submitted != nil {
				*submitted = sel
			}
			return submitErr
		},
	}
}

func TestStaleUserFetchIsDiscarded(t *testing.T) {
	c, err := NewController(testFlow(nil, nil))
	require.NoError(t, err)
	c.Open()

	// Approver A selected; its staff fetch goes out.
	genA := c.SelectApprover(portal.Approver{ID: 1, FirstName: "Jan"})

	// Operator switches to approver B before A's fetch resolves.
	genB := c.SelectApprover(portal.Approver{ID: 2, FirstName: "Ben"})

	staffOfA := []portal.Staff{{ID: 100, FirstName: "A-Staff"}}
	staffOfB := []portal.Staff{{ID: 200, FirstName: "B-Staff"}}

	// A resolves late: discarded regardless of arrival order.
	assert.False(t, c.DeliverUsers(genA, staffOfA, nil))
	assert.True(t, c.DeliverUsers(genB, staffOfB, nil))
	assert.Equal(t, staffOfB, c.State().UserList())

	// Even when A resolves after B was applied, B's data stays.
	assert.False(t, c.DeliverUsers(genA, staffOfA, nil))
	assert.Equal(t, staffOfB, c.State().UserList())
}

func TestStaleBranchFetchAfterBackIsDiscarded(t *testing.T) {
	c, err := NewController(testFlow(nil, nil))
	require.NoError(t, err)
	c.Open()
	c.SelectApprover(portal.Approver{ID: 1})
	c.DeliverUsers(c.userGen, []portal.Staff{{ID: 10}}, nil)

	gen := c.SelectUser(portal.Staff{ID: 10})
	c.Back() // abandon the branch stage before the fetch resolves

	assert.False(t, c.DeliverBranches(gen, sampleBranches(), nil))
	assert.Nil(t, c.State().BranchList())
	assert.False(t, c.Loading())
}

func TestFetchFailureYieldsEmptyListAndBanner(t *testing.T) {
	c, err := NewController(testFlow(nil, nil))
	require.NoError(t, err)
	c.Open()

	gen := c.BeginApproverFetch()
	assert.True(t, c.Loading())

	applied := c.DeliverApprovers(gen, nil, errors.New("connection refused"))
	assert.True(t, applied)
	assert.False(t, c.Loading())
	assert.Empty(t, c.State().ApproverList())
	assert.NotEmpty(t, c.FetchError())
}

func TestBackFromBranchesKeepsApprover(t *testing.T) {
	c, err := NewController(testFlow(nil, nil))
	require.NoError(t, err)
	c.Open()
	c.SelectApprover(portal.Approver{ID: 1, FirstName: "Jan"})
	c.SelectUser(portal.Staff{ID: 10})
	c.DeliverBranches(c.branchGen, sampleBranches(), nil)
	c.ToggleBranch(5)
	c.ToggleBranch(7)

	closed := c.Back()

	assert.False(t, closed)
	assert.Equal(t, StagePickUser, c.Stage())
	_, hasUser := c.State().User()
	assert.False(t, hasUser)
	assert.Empty(t, c.State().Selected())

	approver, ok := c.State().Approver()
	assert.True(t, ok)
	assert.Equal(t, 1, approver.ID)
}

func TestBackFromFirstStageCloses(t *testing.T) {
	avp, err := NewController(testFlow(nil, nil))
	require.NoError(t, err)
	avp.Open()
	avp.SelectApprover(portal.Approver{ID: 1})
	assert.False(t, avp.Back()) // back to approver picker
	assert.True(t, avp.Back())  // back out of the dialog

	bh, err := NewController(Flow{
		Name:          "branch-head",
		FetchUsers:    func(context.Context, int) ([]portal.Staff, error) { return nil, nil },
		FetchBranches: func(context.Context, int) ([]portal.Branch, error) { return nil, nil },
		Submit:        func(context.Context, Selection) error { return nil },
	})
	require.NoError(t, err)
	bh.Open()
	assert.Equal(t, StagePickUser, bh.Stage())
	assert.True(t, bh.Back())
}

func TestSubmitSuccessResetsForReuse(t *testing.T) {
	var submitted Selection
	c, err := NewController(testFlow(nil, &submitted))
	require.NoError(t, err)
	c.Open()

	c.SelectApprover(portal.Approver{ID: 1, FirstName: "Jan"})
	c.DeliverUsers(c.userGen, []portal.Staff{{ID: 10}, {ID: 11}, {ID: 12}}, nil)
	c.SelectUser(portal.Staff{ID: 10})
	c.DeliverBranches(c.branchGen, sampleBranches(), nil)
	c.ToggleBranch(5)
	c.ToggleBranch(7)

	sel, ok := c.BeginSubmit()
	require.True(t, ok)
	assert.Equal(t, Selection{ApproverID: 1, UserID: 10, BranchIDs: []int{5, 7}}, sel)
	assert.True(t, c.Submitting())

	require.NoError(t, c.Flow().Submit(context.Background(), sel))
	assert.True(t, c.FinishSubmit(nil))

	assert.Equal(t, Selection{ApproverID: 1, UserID: 10, BranchIDs: []int{5, 7}}, submitted)

	// All stage state back to initial; dialog reusable without remounting.
	assert.False(t, c.Submitting())
	assert.Equal(t, StagePickApprover, c.Stage())
	assert.Empty(t, c.State().Selected())
	_, hasUser := c.State().User()
	assert.False(t, hasUser)
}

func TestSubmitFailurePreservesSelections(t *testing.T) {
	c, err := NewController(testFlow(nil, nil))
	require.NoError(t, err)
	c.Open()
	c.SelectApprover(portal.Approver{ID: 1})
	c.SelectUser(portal.Staff{ID: 10})
	c.DeliverBranches(c.branchGen, sampleBranches(), nil)
	c.ToggleBranch(5)
	c.ToggleBranch(7)

	_, ok := c.BeginSubmit()
	require.True(t, ok)

	failure := &gateway.APIError{Status: 422, Message: "Branch already assigned"}
	assert.False(t, c.FinishSubmit(failure))

	assert.Equal(t, "Branch already assigned", c.SubmitError())
	assert.Equal(t, []int{5, 7}, c.State().Selected(), "operator work is not lost")
	assert.Equal(t, StagePickBranches, c.Stage())
	assert.False(t, c.Submitting())
}

func TestBeginSubmitRejectsIncompleteSelection(t *testing.T) {
	c, err := NewController(testFlow(nil, nil))
	require.NoError(t, err)
	c.Open()

	_, ok := c.BeginSubmit()
	assert.False(t, ok)

	c.SelectApprover(portal.Approver{ID: 1})
	c.SelectUser(portal.Staff{ID: 10})
	_, ok = c.BeginSubmit()
	assert.False(t, ok, "empty selection set must not submit")
}

// TestAVPFlowEndToEnd drives the real AVP add flow against a fake gateway:
// approver {1, Jan} -> staff 10 -> branches [5, 7] -> confirm, asserting the
// exact POST body and the reset afterwards.
func TestAVPFlowEndToEnd(t *testing.T) {
	var posted map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/getAVP":
			_, _ = w.Write([]byte(`{"HOApprovers":[{"id":1,"firstName":"Jan","lastName":"Reyes"}]}`))
		case "/getStaff":
			_, _ = w.Write([]byte(`{"HOApprovers":[{"id":10,"firstName":"Ana"},{"id":11,"firstName":"Ben"},{"id":12,"firstName":"Cai"}]}`))
		case "/view-branch":
			_, _ = w.Write([]byte(`{"hasBranches":[{"id":5,"branch_name":"Makati","branch_code":"MKT"},{"id":7,"branch_name":"Cebu","branch_code":"CEB"}]}`))
		case "/add-avpstaff-branch":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()
	defer srv.Client().CloseIdleConnections()

	gw := gateway.New(srv.URL, "token", gateway.WithHTTPClient(srv.Client()))
	c, err := NewController(AVPAddFlow(gw))
	require.NoError(t, err)
	ctx := context.Background()

	c.Open()
	gen := c.BeginApproverFetch()
	approvers, err := c.Flow().FetchApprovers(ctx)
	require.NoError(t, err)
	require.True(t, c.DeliverApprovers(gen, approvers, nil))
	require.Len(t, c.State().ApproverList(), 1)

	gen = c.SelectApprover(c.State().ApproverList()[0])
	staff, err := c.Flow().FetchUsers(ctx, 1)
	require.NoError(t, err)
	require.True(t, c.DeliverUsers(gen, staff, nil))
	require.Len(t, c.State().UserList(), 3)

	gen = c.SelectUser(staff[0])
	branches, err := c.Flow().FetchBranches(ctx, staff[0].ID)
	require.NoError(t, err)
	require.True(t, c.DeliverBranches(gen, branches, nil))

	c.ToggleBranch(5)
	c.ToggleBranch(7)

	sel, ok := c.BeginSubmit()
	require.True(t, ok)
	require.NoError(t, c.Flow().Submit(ctx, sel))
	assert.True(t, c.FinishSubmit(nil))

	assert.Equal(t, []any{float64(5), float64(7)}, posted["branch_id"])
	assert.Equal(t, float64(10), posted["staff_id"])
	assert.Equal(t, float64(1), posted["user_id"])
	assert.Equal(t, StagePickApprover, c.Stage())
}
