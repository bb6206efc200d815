// Package requests holds the client-side request forms: validation before
// submission, payload assembly, and list search helpers. The gateway decides
// final validity; this layer only catches what the operator can fix before a
// round trip.
package requests

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Item is one editable line of a stock requisition or purchase order.
type Item struct {
	Description string  `validate:"required"`
	Quantity    int     `validate:"required,gt=0"`
	UnitPrice   float64 `validate:"gte=0"`
}

// StockRequisitionForm requests stock for a branch.
type StockRequisitionForm struct {
	BranchID int    `validate:"required,gt=0"`
	NeededBy string `validate:"required"`
	Items    []Item `validate:"required,min=1,dive"`
	Remarks  string
}

// Payload assembles the gateway submit body.
func (f StockRequisitionForm) Payload() gateway.RequestPayload {
	return gateway.RequestPayload{
		Kind:     portal.KindStockRequisition,
		BranchID: f.BranchID,
		NeededBy: f.NeededBy,
		Items:    toLineItems(f.Items),
		Remarks:  f.Remarks,
	}
}

// PurchaseOrderForm orders goods from a supplier.
type PurchaseOrderForm struct {
	BranchID int    `validate:"required,gt=0"`
	Supplier string `validate:"required"`
	Items    []Item `validate:"required,min=1,dive"`
	Remarks  string
}

// Payload assembles the gateway submit body.
func (f PurchaseOrderForm) Payload() gateway.RequestPayload {
	return gateway.RequestPayload{
		Kind:     portal.KindPurchaseOrder,
		BranchID: f.BranchID,
		Supplier: f.Supplier,
		Items:    toLineItems(f.Items),
		Remarks:  f.Remarks,
	}
}

// CashDisbursementForm releases cash to a payee for a stated purpose.
type CashDisbursementForm struct {
	BranchID int     `validate:"required,gt=0"`
	Payee    string  `validate:"required"`
	Amount   float64 `validate:"required,gt=0"`
	Purpose  string  `validate:"required"`
	Remarks  string
}

// Payload assembles the gateway submit body.
func (f CashDisbursementForm) Payload() gateway.RequestPayload {
	return gateway.RequestPayload{
		Kind:     portal.KindCashDisbursement,
		BranchID: f.BranchID,
		Payee:    f.Payee,
		Amount:   f.Amount,
		Purpose:  f.Purpose,
		Remarks:  f.Remarks,
	}
}

func toLineItems(items []Item) []portal.LineItem {
	out := make([]portal.LineItem, len(items))
	for i, it := range items {
		out[i] = portal.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}
	return out
}

// FieldErrors maps struct field names to display messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Validate checks a form and returns FieldErrors on failure so each message
// can render next to its input.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := make(FieldErrors, len(verrs))
	for _, fieldErr := range verrs {
		fe[fieldErr.Field()] = messageFor(fieldErr)
	}
	return fe
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "gt":
		return "Must be greater than " + fe.Param() + "."
	case "gte":
		return "Must not be negative."
	case "min":
		return "Add at least one item."
	default:
		return "Invalid value."
	}
}
