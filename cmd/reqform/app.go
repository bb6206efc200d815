package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/smegcoffee/request-form-sub001/cmd/reqform/ui"
	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/session"
)

type appTab int

const (
	tabRequests appTab = iota
	tabApprovals
	tabDirectory
	tabNotifications
)

var tabTitles = []string{"Requests", "Approvals", "Directory", "Notifications"}

type applySizeMsg struct {
	width  int
	height int
}

// App is the root model: a tab shell over the four pages plus the status
// bar. Keyboard focus follows the active tab; background fetch results are
// fanned out to every page so a list finishes loading even after the
// operator switches away.
type App struct {
	styles ui.Styles
	log    *zap.Logger
	sess   *session.Session

	tab           appTab
	requests      ui.RequestsPage
	approvals     ui.ApprovalsPage
	directory     ui.DirectoryPage
	notifications ui.NotificationsPage

	resize *ui.ResizeDebouncer
	send   func(tea.Msg)

	width  int
	height int
}

func newApp(client *gateway.Client, sess *session.Session, styles ui.Styles, log *zap.Logger) *App {
	return &App{
		styles:        styles,
		log:           log,
		sess:          sess,
		requests:      ui.NewRequestsPage(client, styles),
		approvals:     ui.NewApprovalsPage(client, styles),
		directory:     ui.NewDirectoryPage(client, styles),
		notifications: ui.NewNotificationsPage(client, styles),
		resize:        ui.NewResizeDebouncer(ui.DefaultResizeDuration),
	}
}

// setSender wires the running program's Send for debounced resizes. Must be
// called before Run.
func (a *App) setSender(send func(tea.Msg)) {
	a.send = send
}

// Init loads every page so the status bar badge and tab counts are live
// from the start.
func (a *App) Init() tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.requests, cmd = a.requests.Reload()
	cmds = append(cmds, cmd)
	a.approvals, cmd = a.approvals.Reload()
	cmds = append(cmds, cmd)
	a.directory, cmd = a.directory.Reload()
	cmds = append(cmds, cmd)
	a.notifications, cmd = a.notifications.Reload()
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (a *App) applySize(width, height int) {
	a.width = width
	a.height = height
	content := height - 4 // header, tabs, status bar
	if content < 1 {
		content = 1
	}
	a.requests.SetSize(width, content)
	a.approvals.SetSize(width, content)
	a.directory.SetSize(width, content)
	a.notifications.SetSize(width, content)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if a.send == nil {
			a.applySize(msg.Width, msg.Height)
			return a, nil
		}
		send := a.send
		a.resize.Resize(msg.Width, msg.Height, func(w, h int) {
			send(applySizeMsg{width: w, height: h})
		})
		return a, nil

	case applySizeMsg:
		a.applySize(msg.width, msg.height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.resize.Cancel()
			return a, tea.Quit
		}
		if !a.activeInputBusy() {
			switch msg.String() {
			case "q":
				a.resize.Cancel()
				return a, tea.Quit
			case "1", "2", "3", "4":
				a.tab = appTab(int(msg.String()[0] - '1'))
				return a, nil
			}
		}
		return a, a.updateActive(msg)
	}

	// Everything else (fetch results, spinner ticks) fans out to all pages;
	// each page ignores message types it does not own.
	return a, a.updateAll(msg)
}

func (a *App) activeInputBusy() bool {
	switch a.tab {
	case tabRequests:
		return a.requests.InputActive()
	case tabApprovals:
		return a.approvals.InputActive()
	case tabDirectory:
		return a.directory.InputActive()
	default:
		return a.notifications.InputActive()
	}
}

func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.tab {
	case tabRequests:
		a.requests, cmd = a.requests.Update(msg)
	case tabApprovals:
		a.approvals, cmd = a.approvals.Update(msg)
	case tabDirectory:
		a.directory, cmd = a.directory.Update(msg)
	default:
		a.notifications, cmd = a.notifications.Update(msg)
	}
	return cmd
}

func (a *App) updateAll(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.requests, cmd = a.requests.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	a.approvals, cmd = a.approvals.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	a.directory, cmd = a.directory.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	a.notifications, cmd = a.notifications.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// View implements tea.Model.
func (a *App) View() string {
	header := a.styles.Header.Render("reqform · Request Portal")

	tabs := ""
	for i, title := range tabTitles {
		label := fmt.Sprintf("%d %s", i+1, title)
		if appTab(i) == tabNotifications {
			if unread := a.notifications.Unread(); unread > 0 {
				label += " " + a.styles.Badge.Render(fmt.Sprintf("%d", unread))
			}
		}
		if appTab(i) == a.tab {
			tabs += a.styles.TabOn.Render(label)
		} else {
			tabs += a.styles.Tab.Render(label)
		}
		tabs += " "
	}

	var page string
	switch a.tab {
	case tabRequests:
		page = a.requests.View()
	case tabApprovals:
		page = a.approvals.View()
	case tabDirectory:
		page = a.directory.View()
	default:
		page = a.notifications.View()
	}

	return header + "\n" + tabs + "\n\n" + a.styles.Content.Render(page) + "\n" + a.statusBar()
}

func (a *App) statusBar() string {
	identity := a.sess.Name
	if a.sess.Role != "" {
		identity += " · " + a.sess.Role
	}

	status := a.styles.Footer.Render(identity)
	if exp, ok := a.sess.ExpiresAt(); ok {
		remaining := time.Until(exp)
		switch {
		case remaining <= 0:
			status += " " + a.styles.Error.Render("session expired, run: reqform login")
		case remaining < 10*time.Minute:
			status += " " + a.styles.Warning.Render(
				fmt.Sprintf("session expires in %s", remaining.Round(time.Minute)))
		}
	}
	return status
}
