package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// RequestPayload is the submit body for the three request forms. Fields that
// do not apply to a kind are omitted from the JSON.
type RequestPayload struct {
	Kind     portal.RequestKind `json:"form_type"`
	Items    []portal.LineItem  `json:"items,omitempty"`
	Supplier string             `json:"supplier,omitempty"`
	Payee    string             `json:"payee,omitempty"`
	Amount   float64            `json:"amount,omitempty"`
	Purpose  string             `json:"purpose,omitempty"`
	NeededBy string             `json:"needed_by,omitempty"`
	BranchID int                `json:"branch_id"`
	Remarks  string             `json:"remarks,omitempty"`
}

// SubmitRequest submits a new request form.
func (c *Client) SubmitRequest(ctx context.Context, p RequestPayload) error {
	var resp statusResponse
	return c.send(ctx, "POST", "/requests", p, &resp)
}

// MyRequests lists the requests submitted by the current user.
func (c *Client) MyRequests(ctx context.Context) ([]portal.Request, error) {
	q := url.Values{"mine": {"1"}}
	var env requestEnvelope
	if err := c.get(ctx, "/requests", q, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []portal.Request{}, nil
	}
	return env.Data, nil
}

// PendingApprovals lists the requests awaiting action from the current
// approver.
func (c *Client) PendingApprovals(ctx context.Context) ([]portal.Request, error) {
	q := url.Values{"pending": {"1"}}
	var env requestEnvelope
	if err := c.get(ctx, "/requests", q, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []portal.Request{}, nil
	}
	return env.Data, nil
}

type approvalBody struct {
	Remarks string `json:"remarks,omitempty"`
}

// ApproveRequest records an approval with optional remarks.
func (c *Client) ApproveRequest(ctx context.Context, id int, remarks string) error {
	var resp statusResponse
	return c.send(ctx, "POST", fmt.Sprintf("/requests/%d/approve", id), approvalBody{Remarks: remarks}, &resp)
}

// RejectRequest records a rejection with optional remarks.
func (c *Client) RejectRequest(ctx context.Context, id int, remarks string) error {
	var resp statusResponse
	return c.send(ctx, "POST", fmt.Sprintf("/requests/%d/reject", id), approvalBody{Remarks: remarks}, &resp)
}
