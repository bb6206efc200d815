package gateway

import (
	"context"
	"fmt"

	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// Branches lists all branches. The endpoint's envelope field name differs
// between deployments ("data" vs "hasBranches"); both decode here.
func (c *Client) Branches(ctx context.Context) ([]portal.Branch, error) {
	var env branchEnvelope
	if err := c.get(ctx, "/view-branch", nil, &env); err != nil {
		return nil, err
	}
	return env.list(), nil
}

// BranchPayload is the create/update body for branch administration.
type BranchPayload struct {
	Name string `json:"branch_name"`
	Code string `json:"branch_code"`
}

// CreateBranch adds a branch to the reference data.
func (c *Client) CreateBranch(ctx context.Context, p BranchPayload) error {
	var resp statusResponse
	return c.send(ctx, "POST", "/add-branch", p, &resp)
}

// UpdateBranch edits an existing branch.
func (c *Client) UpdateBranch(ctx context.Context, id int, p BranchPayload) error {
	var resp statusResponse
	return c.send(ctx, "PUT", fmt.Sprintf("/update-branch/%d", id), p, &resp)
}

// Positions lists all organizational positions.
func (c *Client) Positions(ctx context.Context) ([]portal.Position, error) {
	var env positionEnvelope
	if err := c.get(ctx, "/view-positions", nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []portal.Position{}, nil
	}
	return env.Data, nil
}

// PositionPayload is the create/update body for position administration.
type PositionPayload struct {
	Name string `json:"position_name"`
}

// CreatePosition adds a position to the reference data.
func (c *Client) CreatePosition(ctx context.Context, p PositionPayload) error {
	var resp statusResponse
	return c.send(ctx, "POST", "/add-position", p, &resp)
}

// UpdatePosition edits an existing position.
func (c *Client) UpdatePosition(ctx context.Context, id int, p PositionPayload) error {
	var resp statusResponse
	return c.send(ctx, "PUT", fmt.Sprintf("/update-position/%d", id), p, &resp)
}
