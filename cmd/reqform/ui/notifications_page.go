package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/notifications"
	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

type notificationsLoadedMsg struct {
	items []portal.Notification
	err   error
}

type notificationAckedMsg struct {
	err error
}

// NotificationsPage shows the portal inbox. The detail view renders the
// notification body as markdown; opening an item marks it read locally and
// acknowledges it to the gateway in the background.
type NotificationsPage struct {
	client *gateway.Client
	styles Styles
	spin   spinner.Model
	inbox  *notifications.Inbox

	cursor  int
	loading bool
	errMsg  string

	detail     bool
	detailBody string

	width  int
	height int
}

// NewNotificationsPage builds the page.
func NewNotificationsPage(client *gateway.Client, styles Styles) NotificationsPage {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Spinner

	return NotificationsPage{
		client: client,
		styles: styles,
		spin:   spin,
		inbox:  notifications.NewInbox(),
	}
}

// SetSize updates the drawing area.
func (p *NotificationsPage) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Unread reports the local unread count for the status bar badge.
func (p NotificationsPage) Unread() int {
	return p.inbox.Unread()
}

// InputActive reports whether the detail view owns the keyboard.
func (p NotificationsPage) InputActive() bool {
	return p.detail
}

// Reload refetches the inbox. Locally-read items stay read even when the
// gateway still reports them unread.
func (p NotificationsPage) Reload() (NotificationsPage, tea.Cmd) {
	p.loading = true
	p.errMsg = ""
	client := p.client
	return p, tea.Batch(p.spin.Tick, func() tea.Msg {
		items, err := client.Notifications(context.Background())
		return notificationsLoadedMsg{items: items, err: err}
	})
}

// Update handles messages while the page is active.
func (p NotificationsPage) Update(msg tea.Msg) (NotificationsPage, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if p.loading {
			var cmd tea.Cmd
			p.spin, cmd = p.spin.Update(msg)
			return p, cmd
		}
		return p, nil

	case notificationsLoadedMsg:
		p.loading = false
		if msg.err != nil {
			p.errMsg = gateway.UserMessage(msg.err)
			return p, nil
		}
		p.inbox.Replace(msg.items)
		if p.cursor >= len(p.inbox.Items()) {
			p.cursor = 0
		}
		return p, nil

	case notificationAckedMsg:
		// Local read state already reflects the action; a failed ack just
		// means the gateway will resend the unread flag next reload.
		if msg.err != nil {
			p.errMsg = gateway.UserMessage(msg.err)
		}
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p NotificationsPage) handleKey(msg tea.KeyMsg) (NotificationsPage, tea.Cmd) {
	if p.detail {
		if msg.String() == "esc" || msg.String() == "enter" {
			p.detail = false
			p.detailBody = ""
		}
		return p, nil
	}

	items := p.inbox.Items()
	switch msg.String() {
	case "r":
		return p.Reload()
	case "enter":
		if p.cursor < len(items) {
			return p.openDetail(items[p.cursor])
		}
	case "m":
		if p.cursor < len(items) {
			n := items[p.cursor]
			p.inbox.MarkRead(n.ID)
			return p, p.ackRead(n.ID)
		}
	case "M":
		p.inbox.MarkAllRead()
		client := p.client
		return p, func() tea.Msg {
			return notificationAckedMsg{err: client.MarkAllNotificationsRead(context.Background())}
		}
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(items)-1 {
			p.cursor++
		}
	}
	return p, nil
}

func (p NotificationsPage) openDetail(n portal.Notification) (NotificationsPage, tea.Cmd) {
	p.detail = true
	p.detailBody = p.renderBody(n.Body)

	var cmd tea.Cmd
	if !n.Read {
		p.inbox.MarkRead(n.ID)
		cmd = p.ackRead(n.ID)
	}
	return p, cmd
}

func (p NotificationsPage) ackRead(id int) tea.Cmd {
	client := p.client
	return func() tea.Msg {
		return notificationAckedMsg{err: client.MarkNotificationRead(context.Background(), id)}
	}
}

func (p NotificationsPage) renderBody(body string) string {
	width := p.width - 8
	if width < 20 {
		width = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return body
	}
	out, err := renderer.Render(body)
	if err != nil {
		return body
	}
	return out
}

// View renders the page.
func (p NotificationsPage) View() string {
	if p.detail {
		items := p.inbox.Items()
		title := ""
		if p.cursor < len(items) {
			title = items[p.cursor].Title
		}
		body := p.styles.Title.Render(title) + "\n" + p.detailBody + "\n" +
			p.styles.Footer.Render("esc back")
		return PlaceModal(body, p.width, p.height, p.styles)
	}

	out := p.styles.Title.Render("Notifications")
	if unread := p.inbox.Unread(); unread > 0 {
		out += " " + p.styles.Badge.Render(fmt.Sprintf("%d unread", unread))
	}
	out += "\n\n"

	if p.errMsg != "" {
		out += p.styles.Error.Render(p.errMsg) + "\n\n"
	}
	if p.loading {
		return out + p.spin.View() + " Loading…"
	}

	items := p.inbox.Items()
	if len(items) == 0 {
		return out + p.styles.Muted.Render("Inbox empty.")
	}

	for i, n := range items {
		marker := "  "
		if !n.Read {
			marker = p.styles.Info.Render("● ")
		}
		line := marker + n.Title + " " +
			p.styles.Muted.Render(n.CreatedAt.Format("Jan 2 15:04"))
		if i == p.cursor {
			line = p.styles.Cursor.Render("> ") + p.styles.Selected.Render(n.Title) + " " +
				p.styles.Muted.Render(n.CreatedAt.Format("Jan 2 15:04"))
			if !n.Read {
				line = p.styles.Info.Render("● ") + line
			}
		}
		out += line + "\n"
	}

	out += "\n" + p.styles.Footer.Render("enter open · m mark read · M mark all · r reload · ↑/↓ move")
	return out
}
