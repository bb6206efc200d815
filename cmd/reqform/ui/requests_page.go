package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/portal"
	"github.com/smegcoffee/request-form-sub001/internal/requests"
)

type requestsLoadedMsg struct {
	items []portal.Request
	err   error
}

// RequestsPage lists the operator's own requests and hosts the new-request
// form. The search box filters locally; the gateway list is only refetched
// on open and on explicit reload.
type RequestsPage struct {
	client *gateway.Client
	styles Styles
	spin   spinner.Model

	items   []portal.Request
	cursor  int
	loading bool
	errMsg  string

	search    textinput.Model
	searching bool

	form     RequestForm
	formOpen bool
	success  *SuccessModal

	width  int
	height int
}

// NewRequestsPage builds the page.
func NewRequestsPage(client *gateway.Client, styles Styles) RequestsPage {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Spinner

	search := textinput.New()
	search.Placeholder = "search reference, requester, branch, or form"
	search.CharLimit = 64

	return RequestsPage{
		client: client,
		styles: styles,
		spin:   spin,
		search: search,
		form:   NewRequestForm(client, styles),
	}
}

// SetSize updates the drawing area.
func (p *RequestsPage) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.form.SetSize(width, height)
}

// InputActive reports whether a dialog or text input owns the keyboard, in
// which case the shell must not interpret global keys.
func (p RequestsPage) InputActive() bool {
	return p.formOpen || p.searching || p.success != nil
}

// Reload refetches the request list.
func (p RequestsPage) Reload() (RequestsPage, tea.Cmd) {
	p.loading = true
	p.errMsg = ""
	client := p.client
	return p, tea.Batch(p.spin.Tick, func() tea.Msg {
		items, err := client.MyRequests(context.Background())
		return requestsLoadedMsg{items: items, err: err}
	})
}

// Update handles messages while the page is active.
func (p RequestsPage) Update(msg tea.Msg) (RequestsPage, tea.Cmd) {
	if p.formOpen {
		switch msg := msg.(type) {
		case RequestFormDoneMsg:
			p.formOpen = false
			if msg.Submitted {
				p.success = &SuccessModal{Message: "Request submitted."}
				return p.Reload()
			}
			return p, nil
		default:
			var cmd tea.Cmd
			p.form, cmd = p.form.Update(msg)
			return p, cmd
		}
	}

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if p.loading {
			var cmd tea.Cmd
			p.spin, cmd = p.spin.Update(msg)
			return p, cmd
		}
		return p, nil

	case requestsLoadedMsg:
		p.loading = false
		if msg.err != nil {
			p.errMsg = gateway.UserMessage(msg.err)
			return p, nil
		}
		p.items = msg.items
		p.clampCursor()
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p RequestsPage) handleKey(msg tea.KeyMsg) (RequestsPage, tea.Cmd) {
	if p.success != nil {
		if msg.String() == "enter" || msg.String() == "esc" {
			p.success = nil
		}
		return p, nil
	}

	if p.searching {
		switch msg.String() {
		case "esc":
			p.searching = false
			p.search.Reset()
			p.search.Blur()
			p.cursor = 0
		case "enter":
			p.searching = false
			p.search.Blur()
		default:
			var cmd tea.Cmd
			p.search, cmd = p.search.Update(msg)
			p.clampCursor()
			return p, cmd
		}
		return p, nil
	}

	switch msg.String() {
	case "/":
		p.searching = true
		p.search.Focus()
		return p, textinput.Blink
	case "r":
		return p.Reload()
	case "n":
		p.form = p.form.Open()
		p.formOpen = true
		return p, nil
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.visible())-1 {
			p.cursor++
		}
	}
	return p, nil
}

func (p RequestsPage) visible() []portal.Request {
	return requests.Search(p.items, p.search.Value())
}

func (p *RequestsPage) clampCursor() {
	if max := len(p.visible()); p.cursor >= max {
		p.cursor = 0
	}
}

// View renders the page.
func (p RequestsPage) View() string {
	if p.formOpen {
		return p.form.View()
	}
	if p.success != nil {
		return p.success.View(p.width, p.height, p.styles)
	}

	out := p.styles.Title.Render("My Requests") + "\n"

	counts := requests.CountByStatus(p.items)
	out += p.styles.Muted.Render(fmt.Sprintf(
		"%d pending · %d approved · %d rejected",
		counts[portal.StatusPending], counts[portal.StatusApproved], counts[portal.StatusRejected],
	)) + "\n\n"

	if p.searching || p.search.Value() != "" {
		out += p.styles.Input.Render("/ "+p.search.View()) + "\n\n"
	}

	if p.errMsg != "" {
		out += p.styles.Error.Render(p.errMsg) + "\n\n"
	}
	if p.loading {
		return out + p.spin.View() + " Loading…"
	}

	visible := p.visible()
	if len(visible) == 0 {
		return out + p.styles.Muted.Render("No requests.")
	}

	table := NewSimpleTable("", []string{"Ref", "Form", "Branch", "Status", "Amount"})
	table.CursorRow = p.cursor
	for _, r := range visible {
		table.AddRow(
			r.Reference,
			r.Kind.Title(),
			r.BranchCode,
			p.statusLabel(r.Status),
			fmt.Sprintf("%.2f", r.TotalAmount),
		)
	}
	out += table.View(p.styles)

	out += "\n" + p.styles.Footer.Render("n new · r reload · / search · ↑/↓ move")
	return out
}

func (p RequestsPage) statusLabel(s portal.RequestStatus) string {
	switch s {
	case portal.StatusApproved:
		return p.styles.Success.Render(string(s))
	case portal.StatusRejected:
		return p.styles.Error.Render(string(s))
	default:
		return p.styles.Warning.Render(string(s))
	}
}
