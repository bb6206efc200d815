package wizard

import (
	"context"
	"fmt"

	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// Selection is the bundle committed when the operator confirms.
type Selection struct {
	ApproverID int // zero for flows without an approver stage
	UserID     int
	BranchIDs  []int
}

// Flow parameterizes the wizard: which stages exist, how each stage's
// candidates are fetched, and how the final selection is committed. The four
// portal dialogs (add/edit AVP-staff, add/edit branch-head) are four Flow
// values over one wizard implementation.
type Flow struct {
	Name string

	// HasApproverStage is true for the AVP flows, which pick an approver
	// before the staff member.
	HasApproverStage bool

	FetchApprovers func(ctx context.Context) ([]portal.Approver, error)
	FetchUsers     func(ctx context.Context, approverID int) ([]portal.Staff, error)
	FetchBranches  func(ctx context.Context, userID int) ([]portal.Branch, error)
	Submit         func(ctx context.Context, sel Selection) error
}

// AVPAddFlow assigns branches to a staff member under an approver.
func AVPAddFlow(c *gateway.Client) Flow {
	return Flow{
		Name:             "Add AVP Staff",
		HasApproverStage: true,
		FetchApprovers:   c.Approvers,
		FetchUsers:       c.Staff,
		FetchBranches: func(ctx context.Context, _ int) ([]portal.Branch, error) {
			return c.Branches(ctx)
		},
		Submit: func(ctx context.Context, sel Selection) error {
			return c.CreateAVPStaffAssignment(ctx, gateway.AVPStaffPayload{
				BranchIDs: sel.BranchIDs,
				StaffID:   sel.UserID,
				UserID:    sel.ApproverID,
			})
		},
	}
}

// AVPEditFlow updates assignment id with a fresh selection.
func AVPEditFlow(c *gateway.Client, assignmentID int) Flow {
	f := AVPAddFlow(c)
	f.Name = "Edit AVP Staff"
	f.Submit = func(ctx context.Context, sel Selection) error {
		return c.UpdateAVPStaffAssignment(ctx, assignmentID, gateway.AVPStaffPayload{
			BranchIDs: sel.BranchIDs,
			StaffID:   sel.UserID,
			UserID:    sel.ApproverID,
		})
	}
	return f
}

// BranchHeadAddFlow assigns branches to a new branch head. There is no
// approver stage; the user picker is the first stage.
func BranchHeadAddFlow(c *gateway.Client) Flow {
	return Flow{
		Name: "Add Branch Head",
		FetchUsers: func(ctx context.Context, _ int) ([]portal.Staff, error) {
			return c.Staff(ctx, 0)
		},
		FetchBranches: func(ctx context.Context, _ int) ([]portal.Branch, error) {
			return c.Branches(ctx)
		},
		Submit: func(ctx context.Context, sel Selection) error {
			return c.CreateBranchHead(ctx, gateway.BranchHeadPayload{
				UserID:    sel.UserID,
				BranchIDs: sel.BranchIDs,
			})
		},
	}
}

// BranchHeadEditFlow replaces an existing branch head's branches.
func BranchHeadEditFlow(c *gateway.Client) Flow {
	f := BranchHeadAddFlow(c)
	f.Name = "Edit Branch Head"
	f.Submit = func(ctx context.Context, sel Selection) error {
		return c.UpdateBranchHead(ctx, sel.UserID, sel.BranchIDs)
	}
	return f
}

func (f Flow) validate() error {
	if f.HasApproverStage && f.FetchApprovers == nil {
		return fmt.Errorf("flow %q: approver stage without FetchApprovers", f.Name)
	}
	if f.FetchUsers == nil || f.FetchBranches == nil || f.Submit == nil {
		return fmt.Errorf("flow %q: missing fetch or submit function", f.Name)
	}
	return nil
}
