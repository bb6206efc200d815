package ui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/portal"
	"github.com/smegcoffee/request-form-sub001/internal/requests"
)

// RequestFormDoneMsg tells the host page the form closed.
type RequestFormDoneMsg struct {
	Submitted bool
}

type requestSubmittedMsg struct {
	err error
}

// formField couples a labeled input with the validation key it reports under.
type formField struct {
	label string
	key   string
	input textinput.Model
}

// RequestForm is the new-request dialog. It opens on a kind picker, then
// shows the fields for the chosen form. Stock requisitions and purchase
// orders carry repeatable line items.
type RequestForm struct {
	client *gateway.Client
	styles Styles
	spin   spinner.Model

	kind       portal.RequestKind
	kindChosen bool
	kindCursor int

	fields []formField
	items  [][3]textinput.Model // description, quantity, unit price
	focus  int

	fieldErrs  requests.FieldErrors
	submitErr  string
	submitting bool

	width  int
	height int
}

var requestKinds = []portal.RequestKind{
	portal.KindStockRequisition,
	portal.KindPurchaseOrder,
	portal.KindCashDisbursement,
}

// NewRequestForm builds the dialog.
func NewRequestForm(client *gateway.Client, styles Styles) RequestForm {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Spinner

	return RequestForm{client: client, styles: styles, spin: spin}
}

// SetSize updates the drawing area.
func (f *RequestForm) SetSize(width, height int) {
	f.width = width
	f.height = height
}

// Open resets the dialog to the kind picker.
func (f RequestForm) Open() RequestForm {
	f.kindChosen = false
	f.kindCursor = 0
	f.fields = nil
	f.items = nil
	f.focus = 0
	f.fieldErrs = nil
	f.submitErr = ""
	f.submitting = false
	return f
}

func newField(label, key, placeholder string) formField {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 120
	return formField{label: label, key: key, input: in}
}

func newItemRow() [3]textinput.Model {
	desc := textinput.New()
	desc.Placeholder = "description"
	qty := textinput.New()
	qty.Placeholder = "qty"
	qty.CharLimit = 6
	price := textinput.New()
	price.Placeholder = "unit price"
	price.CharLimit = 12
	return [3]textinput.Model{desc, qty, price}
}

func (f *RequestForm) chooseKind(kind portal.RequestKind) {
	f.kind = kind
	f.kindChosen = true
	f.focus = 0
	f.fieldErrs = nil

	f.fields = []formField{newField("Branch ID", "BranchID", "e.g. 5")}
	switch kind {
	case portal.KindStockRequisition:
		f.fields = append(f.fields, newField("Needed by", "NeededBy", "YYYY-MM-DD"))
		f.items = [][3]textinput.Model{newItemRow()}
	case portal.KindPurchaseOrder:
		f.fields = append(f.fields, newField("Supplier", "Supplier", "supplier name"))
		f.items = [][3]textinput.Model{newItemRow()}
	case portal.KindCashDisbursement:
		f.fields = append(f.fields,
			newField("Payee", "Payee", "payee name"),
			newField("Amount", "Amount", "0.00"),
			newField("Purpose", "Purpose", "what the cash is for"),
		)
		f.items = nil
	}
	f.fields = append(f.fields, newField("Remarks", "Remarks", "optional"))
	f.applyFocus()
}

// inputCount is the number of focusable inputs: named fields plus three
// cells per item row.
func (f RequestForm) inputCount() int {
	return len(f.fields) + 3*len(f.items)
}

func (f *RequestForm) applyFocus() {
	idx := 0
	for i := range f.fields {
		if idx == f.focus {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
		idx++
	}
	for r := range f.items {
		for c := range f.items[r] {
			if idx == f.focus {
				f.items[r][c].Focus()
			} else {
				f.items[r][c].Blur()
			}
			idx++
		}
	}
}

func (f *RequestForm) updateFocused(msg tea.Msg) tea.Cmd {
	idx := 0
	for i := range f.fields {
		if idx == f.focus {
			var cmd tea.Cmd
			f.fields[i].input, cmd = f.fields[i].input.Update(msg)
			return cmd
		}
		idx++
	}
	for r := range f.items {
		for c := range f.items[r] {
			if idx == f.focus {
				var cmd tea.Cmd
				f.items[r][c], cmd = f.items[r][c].Update(msg)
				return cmd
			}
			idx++
		}
	}
	return nil
}

// Update handles messages while the form is visible.
func (f RequestForm) Update(msg tea.Msg) (RequestForm, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if f.submitting {
			var cmd tea.Cmd
			f.spin, cmd = f.spin.Update(msg)
			return f, cmd
		}
		return f, nil

	case requestSubmittedMsg:
		f.submitting = false
		if msg.err != nil {
			f.submitErr = gateway.UserMessage(msg.err)
			return f, nil
		}
		return f, func() tea.Msg { return RequestFormDoneMsg{Submitted: true} }

	case tea.KeyMsg:
		return f.handleKey(msg)
	}
	return f, nil
}

func (f RequestForm) handleKey(msg tea.KeyMsg) (RequestForm, tea.Cmd) {
	if f.submitting {
		return f, nil
	}

	if !f.kindChosen {
		switch msg.String() {
		case "esc":
			return f, func() tea.Msg { return RequestFormDoneMsg{} }
		case "up", "ctrl+p":
			if f.kindCursor > 0 {
				f.kindCursor--
			}
		case "down", "ctrl+n":
			if f.kindCursor < len(requestKinds)-1 {
				f.kindCursor++
			}
		case "enter":
			f.chooseKind(requestKinds[f.kindCursor])
			return f, textinput.Blink
		}
		return f, nil
	}

	switch msg.String() {
	case "esc":
		return f, func() tea.Msg { return RequestFormDoneMsg{} }
	case "tab", "down":
		f.focus = (f.focus + 1) % f.inputCount()
		f.applyFocus()
		return f, textinput.Blink
	case "shift+tab", "up":
		f.focus = (f.focus - 1 + f.inputCount()) % f.inputCount()
		f.applyFocus()
		return f, textinput.Blink
	case "ctrl+a":
		if f.items != nil {
			f.items = append(f.items, newItemRow())
		}
		return f, nil
	case "enter":
		return f.trySubmit()
	}

	cmd := f.updateFocused(msg)
	return f, cmd
}

func (f RequestForm) trySubmit() (RequestForm, tea.Cmd) {
	form, ferrs := f.buildForm()
	if ferrs != nil {
		f.fieldErrs = ferrs
		return f, nil
	}
	if err := requests.Validate(form); err != nil {
		var fe requests.FieldErrors
		if !errors.As(err, &fe) {
			f.submitErr = err.Error()
			return f, nil
		}
		f.fieldErrs = fe
		return f, nil
	}

	f.fieldErrs = nil
	f.submitErr = ""
	f.submitting = true

	payload := payloadFor(form)
	client := f.client
	return f, tea.Batch(f.spin.Tick, func() tea.Msg {
		return requestSubmittedMsg{err: client.SubmitRequest(context.Background(), payload)}
	})
}

type payloader interface {
	Payload() gateway.RequestPayload
}

func payloadFor(form any) gateway.RequestPayload {
	return form.(payloader).Payload()
}

// buildForm parses the inputs into the typed form. Unparseable numbers
// surface as field errors without a round trip.
func (f RequestForm) buildForm() (any, requests.FieldErrors) {
	ferrs := requests.FieldErrors{}

	value := func(key string) string {
		for _, fld := range f.fields {
			if fld.key == key {
				return strings.TrimSpace(fld.input.Value())
			}
		}
		return ""
	}
	intValue := func(key string) int {
		raw := value(key)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			ferrs[key] = "Must be a whole number."
		}
		return n
	}
	floatValue := func(key string) float64 {
		raw := value(key)
		if raw == "" {
			return 0
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			ferrs[key] = "Must be a number."
		}
		return n
	}

	items := make([]requests.Item, 0, len(f.items))
	for _, row := range f.items {
		desc := strings.TrimSpace(row[0].Value())
		qtyRaw := strings.TrimSpace(row[1].Value())
		priceRaw := strings.TrimSpace(row[2].Value())
		if desc == "" && qtyRaw == "" && priceRaw == "" {
			continue // blank rows are skipped, not errors
		}
		qty, err := strconv.Atoi(qtyRaw)
		if err != nil && qtyRaw != "" {
			ferrs["Quantity"] = "Must be a whole number."
		}
		price, err := strconv.ParseFloat(priceRaw, 64)
		if err != nil && priceRaw != "" {
			ferrs["UnitPrice"] = "Must be a number."
		}
		items = append(items, requests.Item{Description: desc, Quantity: qty, UnitPrice: price})
	}

	var form any
	switch f.kind {
	case portal.KindStockRequisition:
		form = requests.StockRequisitionForm{
			BranchID: intValue("BranchID"),
			NeededBy: value("NeededBy"),
			Items:    items,
			Remarks:  value("Remarks"),
		}
	case portal.KindPurchaseOrder:
		form = requests.PurchaseOrderForm{
			BranchID: intValue("BranchID"),
			Supplier: value("Supplier"),
			Items:    items,
			Remarks:  value("Remarks"),
		}
	default:
		form = requests.CashDisbursementForm{
			BranchID: intValue("BranchID"),
			Payee:    value("Payee"),
			Amount:   floatValue("Amount"),
			Purpose:  value("Purpose"),
			Remarks:  value("Remarks"),
		}
	}

	if len(ferrs) > 0 {
		return form, ferrs
	}
	return form, nil
}

// View renders the dialog.
func (f RequestForm) View() string {
	var sb strings.Builder

	if !f.kindChosen {
		sb.WriteString(f.styles.Title.Render("New Request"))
		sb.WriteString("\n")
		sb.WriteString(f.styles.Subtitle.Render("Select a form"))
		sb.WriteString("\n\n")
		for i, k := range requestKinds {
			if i == f.kindCursor {
				sb.WriteString(f.styles.Cursor.Render("> ") + f.styles.Selected.Render(k.Title()) + "\n")
			} else {
				sb.WriteString("  " + k.Title() + "\n")
			}
		}
		sb.WriteString("\n")
		sb.WriteString(f.styles.Footer.Render("enter select · esc cancel"))
		return PlaceModal(sb.String(), f.width, f.height, f.styles)
	}

	sb.WriteString(f.styles.Title.Render(f.kind.Title()))
	sb.WriteString("\n\n")

	if f.submitErr != "" {
		sb.WriteString(f.styles.Error.Render(f.submitErr))
		sb.WriteString("\n\n")
	}

	for _, fld := range f.fields {
		sb.WriteString(f.styles.Bold.Render(fld.label) + "\n")
		sb.WriteString(f.styles.Input.Render(fld.input.View()) + "\n")
		if msg, ok := f.fieldErrs[fld.key]; ok {
			sb.WriteString(f.styles.Error.Render(msg) + "\n")
		}
	}

	if f.items != nil {
		sb.WriteString("\n" + f.styles.Bold.Render("Items") + "\n")
		for _, row := range f.items {
			sb.WriteString(f.styles.Input.Render(row[0].View()) + " ")
			sb.WriteString(f.styles.Input.Render(row[1].View()) + " ")
			sb.WriteString(f.styles.Input.Render(row[2].View()) + "\n")
		}
		for _, key := range []string{"Items", "Description", "Quantity", "UnitPrice"} {
			if msg, ok := f.fieldErrs[key]; ok {
				sb.WriteString(f.styles.Error.Render(msg) + "\n")
			}
		}
	}

	sb.WriteString("\n")
	if f.submitting {
		sb.WriteString(f.spin.View() + " Submitting…")
	} else {
		hints := "enter submit · tab next field · esc cancel"
		if f.items != nil {
			hints = "ctrl+a add item · " + hints
		}
		sb.WriteString(f.styles.Footer.Render(hints))
	}

	return PlaceModal(sb.String(), f.width, f.height, f.styles)
}
