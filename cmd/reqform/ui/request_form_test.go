package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smegcoffee/request-form-sub001/internal/portal"
	"github.com/smegcoffee/request-form-sub001/internal/requests"
)

func openedForm(kind portal.RequestKind) RequestForm {
	f := NewRequestForm(nil, DefaultStyles()).Open()
	f.chooseKind(kind)
	return f
}

func setField(f *RequestForm, key, value string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].input.SetValue(value)
			return
		}
	}
}

func TestRequestFormKindPicker(t *testing.T) {
	f := NewRequestForm(nil, DefaultStyles()).Open()

	f, _ = f.Update(key(tea.KeyDown))
	f, _ = f.Update(key(tea.KeyEnter))

	if f.kind != portal.KindPurchaseOrder {
		t.Fatalf("kind = %v, want purchase order", f.kind)
	}
	if !f.kindChosen {
		t.Fatal("kind picker still open after enter")
	}
}

func TestRequestFormBuildsStockRequisition(t *testing.T) {
	f := openedForm(portal.KindStockRequisition)
	setField(&f, "BranchID", "5")
	setField(&f, "NeededBy", "2026-09-15")
	f.items[0][0].SetValue("Thermal paper")
	f.items[0][1].SetValue("12")
	f.items[0][2].SetValue("45.50")

	form, ferrs := f.buildForm()
	if ferrs != nil {
		t.Fatalf("unexpected field errors: %v", ferrs)
	}
	if err := requests.Validate(form); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}

	payload := payloadFor(form)
	if payload.Kind != portal.KindStockRequisition || payload.BranchID != 5 {
		t.Errorf("payload = %+v", payload)
	}
	if len(payload.Items) != 1 || payload.Items[0].Quantity != 12 {
		t.Errorf("items = %+v, want one row of 12", payload.Items)
	}
}

func TestRequestFormRejectsBadNumbers(t *testing.T) {
	f := openedForm(portal.KindCashDisbursement)
	setField(&f, "BranchID", "5")
	setField(&f, "Payee", "Acme Supplies")
	setField(&f, "Amount", "twelve")
	setField(&f, "Purpose", "office chairs")

	_, ferrs := f.buildForm()
	if ferrs == nil {
		t.Fatal("expected field errors for a non-numeric amount")
	}
	if _, ok := ferrs["Amount"]; !ok {
		t.Fatalf("field errors = %v, want Amount flagged", ferrs)
	}
}

func TestRequestFormBlankItemRowsSkipped(t *testing.T) {
	f := openedForm(portal.KindPurchaseOrder)
	setField(&f, "BranchID", "5")
	setField(&f, "Supplier", "Acme")
	f.items[0][0].SetValue("Paper")
	f.items[0][1].SetValue("2")
	f.items[0][2].SetValue("10")
	f.items = append(f.items, newItemRow()) // left blank

	form, ferrs := f.buildForm()
	if ferrs != nil {
		t.Fatalf("unexpected field errors: %v", ferrs)
	}
	payload := payloadFor(form)
	if len(payload.Items) != 1 {
		t.Fatalf("items = %+v, blank row should be dropped", payload.Items)
	}
}

func TestRequestFormShowsValidationInline(t *testing.T) {
	f := openedForm(portal.KindCashDisbursement)
	setField(&f, "BranchID", "5")
	// Payee, Amount, Purpose left empty.

	f, _ = f.trySubmit()
	if f.submitting {
		t.Fatal("form submitted despite missing fields")
	}
	if !strings.Contains(f.View(), "This field is required.") {
		t.Error("required-field message not rendered")
	}
}
