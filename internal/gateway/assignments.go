package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// Approvers lists the AVP approver candidates for stage one of the AVP flow.
func (c *Client) Approvers(ctx context.Context) ([]portal.Approver, error) {
	var env approverEnvelope
	if err := c.get(ctx, "/getAVP", nil, &env); err != nil {
		return nil, err
	}
	if env.HOApprovers == nil {
		return []portal.Approver{}, nil
	}
	return env.HOApprovers, nil
}

// Staff lists the staff candidates scoped to an approver.
func (c *Client) Staff(ctx context.Context, approverID int) ([]portal.Staff, error) {
	q := url.Values{"id": {strconv.Itoa(approverID)}}
	var env staffEnvelope
	if err := c.get(ctx, "/getStaff", q, &env); err != nil {
		return nil, err
	}
	if env.HOApprovers == nil {
		return []portal.Staff{}, nil
	}
	return env.HOApprovers, nil
}

// AVPStaffPayload is the create/update body for an AVP-staff assignment.
// UserID carries the approver; StaffID the assigned staff member.
type AVPStaffPayload struct {
	BranchIDs []int `json:"branch_id"`
	StaffID   int   `json:"staff_id"`
	UserID    int   `json:"user_id"`
}

// CreateAVPStaffAssignment commits an AVP-staff branch assignment.
func (c *Client) CreateAVPStaffAssignment(ctx context.Context, p AVPStaffPayload) error {
	var resp statusResponse
	return c.send(ctx, "POST", "/add-avpstaff-branch", p, &resp)
}

// AVPStaffAssignment fetches the current assignment detail for the edit flow.
func (c *Client) AVPStaffAssignment(ctx context.Context, id int) (portal.Assignment, error) {
	var a portal.Assignment
	if err := c.get(ctx, fmt.Sprintf("/get-avpstaff-branch/%d", id), nil, &a); err != nil {
		return portal.Assignment{}, err
	}
	return a, nil
}

// UpdateAVPStaffAssignment replaces an existing AVP-staff assignment.
func (c *Client) UpdateAVPStaffAssignment(ctx context.Context, id int, p AVPStaffPayload) error {
	var resp statusResponse
	return c.send(ctx, "PUT", fmt.Sprintf("/update-avpstaff-branch/%d", id), p, &resp)
}

// BranchHeadPayload is the create/update body for a branch-head assignment.
type BranchHeadPayload struct {
	UserID    int   `json:"user_id"`
	BranchIDs []int `json:"branch_id"`
}

// CreateBranchHead commits a new branch-head assignment.
func (c *Client) CreateBranchHead(ctx context.Context, p BranchHeadPayload) error {
	var resp statusResponse
	return c.send(ctx, "POST", "/create-branch-head", p, &resp)
}

// UpdateBranchHead replaces a branch-head's assigned branches.
func (c *Client) UpdateBranchHead(ctx context.Context, userID int, branchIDs []int) error {
	p := BranchHeadPayload{UserID: userID, BranchIDs: branchIDs}
	var resp statusResponse
	return c.send(ctx, "POST", fmt.Sprintf("/update-branch-head/%d", userID), p, &resp)
}

// AssignmentEditState loads everything the edit wizard needs in one shot:
// the existing assignment and the current branch list, fetched concurrently.
func (c *Client) AssignmentEditState(ctx context.Context, id int) (portal.Assignment, []portal.Branch, error) {
	var (
		assignment portal.Assignment
		branches   []portal.Branch
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assignment, err = c.AVPStaffAssignment(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		branches, err = c.Branches(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return portal.Assignment{}, nil, err
	}
	return assignment, branches, nil
}
