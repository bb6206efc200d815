package wizard

import (
	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// Controller orchestrates one wizard dialog: stage transitions, the
// generation bookkeeping that discards stale fetch results, and the state
// around submission. It is confined to the UI event loop and is not safe for
// concurrent use; asynchronous work happens outside (the fetch itself runs in
// a background command) and re-enters through the Deliver methods.
//
// Every scoped fetch gets a generation number. When the scoping selection
// changes before the response arrives, the generation moves on and the late
// response is discarded instead of overwriting fresher data. "Last response
// wins" is only correct by accident; the counter makes it correct by
// construction.
type Controller struct {
	flow  Flow
	state *State

	approverGen uint64
	userGen     uint64
	branchGen   uint64

	loadingApprovers bool
	loadingUsers     bool
	loadingBranches  bool
	submitting       bool

	fetchErr  string
	submitErr string
}

// NewController builds a controller for flow.
func NewController(flow Flow) (*Controller, error) {
	if err := flow.validate(); err != nil {
		return nil, err
	}
	return &Controller{flow: flow, state: NewState()}, nil
}

// Flow returns the flow this controller drives.
func (c *Controller) Flow() Flow { return c.flow }

// State exposes the selection store for rendering.
func (c *Controller) State() *State { return c.state }

// Stage returns the currently visible stage.
func (c *Controller) Stage() Stage {
	return c.state.ActiveStage(c.flow.HasApproverStage)
}

// Open resets the dialog for a fresh run. Candidate data is never cached
// across opens; the caller follows up with BeginApproverFetch or
// BeginUserFetch depending on the flow.
func (c *Controller) Open() {
	c.Cancel()
}

// Cancel unconditionally resets selection state, invalidates any in-flight
// fetches and clears error banners.
func (c *Controller) Cancel() {
	c.state.Reset()
	c.approverGen++
	c.userGen++
	c.branchGen++
	c.loadingApprovers = false
	c.loadingUsers = false
	c.loadingBranches = false
	c.submitting = false
	c.fetchErr = ""
	c.submitErr = ""
}

// BeginApproverFetch marks an approver-candidate fetch as in flight and
// returns its generation.
func (c *Controller) BeginApproverFetch() uint64 {
	c.approverGen++
	c.loadingApprovers = true
	c.fetchErr = ""
	return c.approverGen
}

// DeliverApprovers applies a fetch result if its generation is still
// current. Stale results are discarded and the method reports false.
func (c *Controller) DeliverApprovers(gen uint64, items []portal.Approver, err error) bool {
	if gen != c.approverGen {
		return false
	}
	c.loadingApprovers = false
	if err != nil {
		c.state.SetApproverList(nil)
		c.fetchErr = gateway.UserMessage(err)
		return true
	}
	c.state.SetApproverList(items)
	return true
}

// SelectApprover records the stage-one choice and starts a scoped staff
// fetch, returning its generation. Any earlier in-flight staff fetch is
// implicitly invalidated by the new generation.
func (c *Controller) SelectApprover(a portal.Approver) uint64 {
	c.state.SelectApprover(a)
	return c.BeginUserFetch()
}

// BeginUserFetch marks a staff-candidate fetch as in flight.
func (c *Controller) BeginUserFetch() uint64 {
	c.userGen++
	c.loadingUsers = true
	c.fetchErr = ""
	return c.userGen
}

// DeliverUsers applies a staff fetch result if still current.
func (c *Controller) DeliverUsers(gen uint64, items []portal.Staff, err error) bool {
	if gen != c.userGen {
		return false
	}
	c.loadingUsers = false
	if err != nil {
		c.state.SetUserList(nil)
		c.fetchErr = gateway.UserMessage(err)
		return true
	}
	c.state.SetUserList(items)
	return true
}

// SelectUser records the chosen staff member and starts the branch fetch
// scoped to them.
func (c *Controller) SelectUser(u portal.Staff) uint64 {
	c.state.SelectUser(u)
	return c.BeginBranchFetch()
}

// BeginBranchFetch marks a branch-candidate fetch as in flight.
func (c *Controller) BeginBranchFetch() uint64 {
	c.branchGen++
	c.loadingBranches = true
	c.fetchErr = ""
	return c.branchGen
}

// DeliverBranches applies a branch fetch result if still current.
func (c *Controller) DeliverBranches(gen uint64, items []portal.Branch, err error) bool {
	if gen != c.branchGen {
		return false
	}
	c.loadingBranches = false
	if err != nil {
		c.state.SetBranchList(nil)
		c.fetchErr = gateway.UserMessage(err)
		return true
	}
	c.state.SetBranchList(items)
	return true
}

// ToggleBranch flips a branch in the selection set.
func (c *Controller) ToggleBranch(id int) {
	c.state.ToggleBranch(id)
	c.submitErr = ""
}

// Back returns to the previous stage, clearing that stage's scope onward.
// From the first stage it reports true, meaning the dialog should close.
func (c *Controller) Back() (closed bool) {
	c.submitErr = ""
	c.fetchErr = ""
	switch c.Stage() {
	case StagePickBranches:
		// Branches chosen for this user are abandoned; the approver stays.
		c.state.ClearFrom(StagePickUser)
		c.branchGen++
		c.loadingBranches = false
		return false
	case StagePickUser:
		if !c.flow.HasApproverStage {
			c.Cancel()
			return true
		}
		c.state.ClearFrom(StagePickApprover)
		c.userGen++
		c.loadingUsers = false
		return false
	default:
		c.Cancel()
		return true
	}
}

// Loading reports whether the current stage has a fetch in flight.
func (c *Controller) Loading() bool {
	switch c.Stage() {
	case StagePickApprover:
		return c.loadingApprovers
	case StagePickUser:
		return c.loadingUsers
	default:
		return c.loadingBranches
	}
}

// Submitting reports whether a confirm is in flight.
func (c *Controller) Submitting() bool { return c.submitting }

// FetchError returns the inline banner text for a failed fetch, if any.
func (c *Controller) FetchError() string { return c.fetchErr }

// SubmitError returns the server-supplied message from a failed confirm.
func (c *Controller) SubmitError() string { return c.submitErr }

// Selection bundles the committed ids. It is only valid when ConfirmEnabled.
func (c *Controller) Selection() (Selection, bool) {
	user, ok := c.state.User()
	if !ok || !c.state.ConfirmVisible() {
		return Selection{}, false
	}
	sel := Selection{UserID: user.ID, BranchIDs: c.state.Selected()}
	if c.flow.HasApproverStage {
		approver, ok := c.state.Approver()
		if !ok {
			return Selection{}, false
		}
		sel.ApproverID = approver.ID
	}
	return sel, true
}

// BeginSubmit validates locally and marks the confirm in flight. It reports
// false when the selection is incomplete.
func (c *Controller) BeginSubmit() (Selection, bool) {
	sel, ok := c.Selection()
	if !ok || c.submitting {
		return Selection{}, false
	}
	c.submitting = true
	c.submitErr = ""
	return sel, true
}

// FinishSubmit records the confirm outcome. Success resets all stage state
// so the dialog is ready for reuse and reports true; failure preserves the
// operator's in-progress selections and surfaces the server message.
func (c *Controller) FinishSubmit(err error) (succeeded bool) {
	c.submitting = false
	if err != nil {
		c.submitErr = gateway.UserMessage(err)
		return false
	}
	c.state.Reset()
	return true
}
