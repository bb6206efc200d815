// Package portal defines the shared domain types exchanged with the remote
// portal gateway. Field names mirror the gateway's JSON contract; nothing in
// this package talks to the network itself.
package portal

import (
	"fmt"
	"strings"
	"time"
)

// Approver is an AVP-level user who supervises staff-to-branch assignments.
type Approver struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// DisplayName returns the approver's name for list rendering.
func (a Approver) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Staff is a staff/user candidate selectable in the assignment flows.
type Staff struct {
	ID         int    `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Position   string `json:"position"`
	BranchCode string `json:"branch_code"`
}

// DisplayName returns the staff member's name for list rendering.
func (s Staff) DisplayName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Branch is the assignable unit at the final wizard stage and a reference
// entity managed by branch administrators.
type Branch struct {
	ID   int    `json:"id"`
	Name string `json:"branch_name"`
	Code string `json:"branch_code"`
}

// Label returns "NAME (CODE)" for chip and table rendering.
func (b Branch) Label() string {
	if b.Code == "" {
		return b.Name
	}
	return fmt.Sprintf("%s (%s)", b.Name, b.Code)
}

// Position is an organizational position managed by administrators.
type Position struct {
	ID   int    `json:"id"`
	Name string `json:"position_name"`
}

// Assignment is the persisted result of a completed wizard run, as returned
// by GET /get-avpstaff-branch/:id for the edit flows.
type Assignment struct {
	ID         int   `json:"id"`
	ApproverID int   `json:"user_id"`
	StaffID    int   `json:"staff_id"`
	BranchIDs  []int `json:"branch_id"`
}

// RequestKind enumerates the request forms staff can submit.
type RequestKind string

const (
	KindStockRequisition RequestKind = "stock_requisition"
	KindPurchaseOrder    RequestKind = "purchase_order"
	KindCashDisbursement RequestKind = "cash_disbursement"
)

// Title returns the human-readable form name.
func (k RequestKind) Title() string {
	switch k {
	case KindStockRequisition:
		return "Stock Requisition"
	case KindPurchaseOrder:
		return "Purchase Order"
	case KindCashDisbursement:
		return "Cash Disbursement"
	default:
		return string(k)
	}
}

// RequestStatus is the approval state of a submitted request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// LineItem is one row of a stock requisition or purchase order.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Total returns the line amount.
func (li LineItem) Total() float64 {
	return float64(li.Quantity) * li.UnitPrice
}

// Request is a submitted portal request as listed by the gateway.
type Request struct {
	ID          int           `json:"id"`
	Kind        RequestKind   `json:"form_type"`
	Reference   string        `json:"reference_no"`
	Requester   string        `json:"requested_by"`
	BranchCode  string        `json:"branch_code"`
	Status      RequestStatus `json:"status"`
	TotalAmount float64       `json:"total_amount"`
	Remarks     string        `json:"remarks"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Notification is a portal notification with client-tracked read state.
type Notification struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
