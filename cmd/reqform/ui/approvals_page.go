package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

type approvalsLoadedMsg struct {
	items []portal.Request
	err   error
}

type approvalDecidedMsg struct {
	approved bool
	err      error
}

// ApprovalsPage lists requests awaiting the signed-in approver's decision.
// Rejections require remarks; approvals take them optionally.
type ApprovalsPage struct {
	client *gateway.Client
	styles Styles
	spin   spinner.Model

	items   []portal.Request
	cursor  int
	loading bool
	busy    bool
	errMsg  string

	remarks   textinput.Model
	deciding  bool // remarks prompt open
	approving bool // decision being prompted for

	// prompted is a copy of the request the open prompt refers to. Reload
	// results keep arriving while the prompt is up, so indexing items by
	// cursor at decision time is not safe.
	prompted *portal.Request

	success *SuccessModal

	width  int
	height int
}

// NewApprovalsPage builds the page.
func NewApprovalsPage(client *gateway.Client, styles Styles) ApprovalsPage {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Spinner

	remarks := textinput.New()
	remarks.Placeholder = "remarks"
	remarks.CharLimit = 200

	return ApprovalsPage{client: client, styles: styles, spin: spin, remarks: remarks}
}

// SetSize updates the drawing area.
func (p *ApprovalsPage) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// InputActive reports whether the remarks prompt owns the keyboard.
func (p ApprovalsPage) InputActive() bool {
	return p.deciding || p.success != nil
}

// Reload refetches the pending list.
func (p ApprovalsPage) Reload() (ApprovalsPage, tea.Cmd) {
	p.loading = true
	p.errMsg = ""
	client := p.client
	return p, tea.Batch(p.spin.Tick, func() tea.Msg {
		items, err := client.PendingApprovals(context.Background())
		return approvalsLoadedMsg{items: items, err: err}
	})
}

// Update handles messages while the page is active.
func (p ApprovalsPage) Update(msg tea.Msg) (ApprovalsPage, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if p.loading || p.busy {
			var cmd tea.Cmd
			p.spin, cmd = p.spin.Update(msg)
			return p, cmd
		}
		return p, nil

	case approvalsLoadedMsg:
		p.loading = false
		if msg.err != nil {
			p.errMsg = gateway.UserMessage(msg.err)
			return p, nil
		}
		p.items = msg.items
		if p.cursor >= len(p.items) {
			p.cursor = 0
		}
		return p, nil

	case approvalDecidedMsg:
		p.busy = false
		p.prompted = nil
		if msg.err != nil {
			p.errMsg = gateway.UserMessage(msg.err)
			return p, nil
		}
		if msg.approved {
			p.success = &SuccessModal{Message: "Request approved."}
		} else {
			p.success = &SuccessModal{Message: "Request rejected."}
		}
		return p.Reload()

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p ApprovalsPage) handleKey(msg tea.KeyMsg) (ApprovalsPage, tea.Cmd) {
	if p.busy {
		return p, nil
	}
	if p.success != nil {
		if msg.String() == "enter" || msg.String() == "esc" {
			p.success = nil
		}
		return p, nil
	}

	if p.deciding {
		switch msg.String() {
		case "esc":
			p.deciding = false
			p.prompted = nil
			p.remarks.Reset()
			p.remarks.Blur()
		case "enter":
			remarks := p.remarks.Value()
			if !p.approving && remarks == "" {
				p.errMsg = "Remarks are required when rejecting."
				return p, nil
			}
			p.deciding = false
			p.remarks.Reset()
			p.remarks.Blur()
			return p.decide(p.approving, remarks)
		default:
			var cmd tea.Cmd
			p.remarks, cmd = p.remarks.Update(msg)
			return p, cmd
		}
		return p, nil
	}

	switch msg.String() {
	case "r":
		return p.Reload()
	case "a":
		if p.cursor < len(p.items) {
			return p.openPrompt(true)
		}
	case "x":
		if p.cursor < len(p.items) {
			return p.openPrompt(false)
		}
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.items)-1 {
			p.cursor++
		}
	}
	return p, nil
}

func (p ApprovalsPage) openPrompt(approve bool) (ApprovalsPage, tea.Cmd) {
	r := p.items[p.cursor]
	p.prompted = &r
	p.approving = approve
	p.deciding = true
	p.errMsg = ""
	p.remarks.Focus()
	return p, textinput.Blink
}

func (p ApprovalsPage) decide(approve bool, remarks string) (ApprovalsPage, tea.Cmd) {
	if p.prompted == nil {
		return p, nil
	}
	id := p.prompted.ID
	p.busy = true
	p.errMsg = ""
	client := p.client
	return p, tea.Batch(p.spin.Tick, func() tea.Msg {
		var err error
		if approve {
			err = client.ApproveRequest(context.Background(), id, remarks)
		} else {
			err = client.RejectRequest(context.Background(), id, remarks)
		}
		return approvalDecidedMsg{approved: approve, err: err}
	})
}

// View renders the page.
func (p ApprovalsPage) View() string {
	if p.success != nil {
		return p.success.View(p.width, p.height, p.styles)
	}

	out := p.styles.Title.Render("Pending Approvals") + "\n\n"

	if p.errMsg != "" {
		out += p.styles.Error.Render(p.errMsg) + "\n\n"
	}
	if p.loading {
		return out + p.spin.View() + " Loading…"
	}
	if p.busy {
		return out + p.spin.View() + " Submitting decision…"
	}

	if p.deciding && p.prompted != nil {
		verb := "Reject"
		if p.approving {
			verb = "Approve"
		}
		r := *p.prompted
		prompt := p.styles.Subtitle.Render(fmt.Sprintf("%s %s by %s", verb, r.Reference, r.Requester)) + "\n\n" +
			p.styles.Input.Render(p.remarks.View()) + "\n\n" +
			p.styles.Footer.Render("enter confirm · esc cancel")
		return PlaceModal(prompt, p.width, p.height, p.styles)
	}

	if len(p.items) == 0 {
		return out + p.styles.Muted.Render("Nothing waiting on you.")
	}

	table := NewSimpleTable("", []string{"Ref", "Form", "Requested By", "Branch", "Amount"})
	table.CursorRow = p.cursor
	for _, r := range p.items {
		table.AddRow(
			r.Reference,
			r.Kind.Title(),
			r.Requester,
			r.BranchCode,
			fmt.Sprintf("%.2f", r.TotalAmount),
		)
	}
	out += table.View(p.styles)

	out += "\n" + p.styles.Footer.Render("a approve · x reject · r reload · ↑/↓ move")
	return out
}
