package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smegcoffee/request-form-sub001/internal/portal"
	"github.com/smegcoffee/request-form-sub001/internal/wizard"
)

// Messages carrying fetch results back into the event loop. Each carries the
// generation of the fetch that produced it; the controller discards results
// whose generation is no longer current.
type approversLoadedMsg struct {
	gen   uint64
	items []portal.Approver
	err   error
}

type usersLoadedMsg struct {
	gen   uint64
	items []portal.Staff
	err   error
}

type branchesLoadedMsg struct {
	gen   uint64
	items []portal.Branch
	err   error
}

type assignmentSubmittedMsg struct {
	err error
}

// WizardDoneMsg tells the host page the dialog closed. Submitted is true
// after a successful commit, in which case the host shows the success
// acknowledgment and reloads its list view.
type WizardDoneMsg struct {
	Submitted bool
}

// WizardModal drives one branch-assignment dialog. The selection semantics
// live in wizard.Controller; this model only translates key events and fetch
// completions, and renders the current stage.
type WizardModal struct {
	ctrl   *wizard.Controller
	filter textinput.Model
	spin   spinner.Model
	styles Styles

	cursor int
	width  int
	height int

	// preload seeds the edit flows: once each stage's candidates arrive, the
	// matching entity is auto-selected until the assignment is reproduced.
	// preloadBranches carries the branch list the host already fetched
	// alongside the assignment, so the branch stage needs no second fetch.
	preload         *portal.Assignment
	preloadBranches []portal.Branch
}

// NewWizardModal builds the dialog for a flow.
func NewWizardModal(flow wizard.Flow, styles Styles) (WizardModal, error) {
	ctrl, err := wizard.NewController(flow)
	if err != nil {
		return WizardModal{}, err
	}

	filter := textinput.New()
	filter.Placeholder = "filter branches by name or code"
	filter.CharLimit = 64

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Spinner

	return WizardModal{
		ctrl:   ctrl,
		filter: filter,
		spin:   spin,
		styles: styles,
	}, nil
}

// SetSize updates the drawing area.
func (m *WizardModal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Open resets the dialog and starts the first stage's fetch. Candidates are
// refetched on every open; nothing is cached across invocations.
func (m WizardModal) Open() (WizardModal, tea.Cmd) {
	m.ctrl.Open()
	m.filter.Reset()
	m.filter.Blur()
	m.cursor = 0
	m.preload = nil
	m.preloadBranches = nil

	if m.ctrl.Flow().HasApproverStage {
		gen := m.ctrl.BeginApproverFetch()
		return m, tea.Batch(m.spin.Tick, m.fetchApprovers(gen))
	}
	gen := m.ctrl.BeginUserFetch()
	return m, tea.Batch(m.spin.Tick, m.fetchUsers(gen, 0))
}

// OpenEdit opens the dialog seeded with an existing assignment. branches is
// the candidate list fetched together with the assignment; when non-empty it
// is delivered directly instead of refetched at the branch stage.
func (m WizardModal) OpenEdit(a portal.Assignment, branches []portal.Branch) (WizardModal, tea.Cmd) {
	opened, cmd := m.Open()
	opened.preload = &a
	opened.preloadBranches = branches
	return opened, cmd
}

func (m WizardModal) fetchApprovers(gen uint64) tea.Cmd {
	fetch := m.ctrl.Flow().FetchApprovers
	return func() tea.Msg {
		items, err := fetch(context.Background())
		return approversLoadedMsg{gen: gen, items: items, err: err}
	}
}

func (m WizardModal) fetchUsers(gen uint64, approverID int) tea.Cmd {
	fetch := m.ctrl.Flow().FetchUsers
	return func() tea.Msg {
		items, err := fetch(context.Background(), approverID)
		return usersLoadedMsg{gen: gen, items: items, err: err}
	}
}

func (m WizardModal) fetchBranches(gen uint64, userID int) tea.Cmd {
	fetch := m.ctrl.Flow().FetchBranches
	return func() tea.Msg {
		items, err := fetch(context.Background(), userID)
		return branchesLoadedMsg{gen: gen, items: items, err: err}
	}
}

func (m WizardModal) submit(sel wizard.Selection) tea.Cmd {
	submit := m.ctrl.Flow().Submit
	return func() tea.Msg {
		return assignmentSubmittedMsg{err: submit(context.Background(), sel)}
	}
}

func closeWizard(submitted bool) tea.Cmd {
	return func() tea.Msg {
		return WizardDoneMsg{Submitted: submitted}
	}
}

// Update handles messages while the dialog is visible.
func (m WizardModal) Update(msg tea.Msg) (WizardModal, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.ctrl.Loading() || m.ctrl.Submitting() {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case approversLoadedMsg:
		if !m.ctrl.DeliverApprovers(msg.gen, msg.items, msg.err) {
			return m, nil
		}
		m.cursor = 0
		if m.preload != nil {
			for _, a := range m.ctrl.State().ApproverList() {
				if a.ID == m.preload.ApproverID {
					gen := m.ctrl.SelectApprover(a)
					return m, tea.Batch(m.spin.Tick, m.fetchUsers(gen, a.ID))
				}
			}
			m.preload = nil // assignment references an unknown approver
		}
		return m, nil

	case usersLoadedMsg:
		if !m.ctrl.DeliverUsers(msg.gen, msg.items, msg.err) {
			return m, nil
		}
		m.cursor = 0
		if m.preload != nil {
			for _, u := range m.ctrl.State().UserList() {
				if u.ID == m.preload.StaffID {
					gen := m.ctrl.SelectUser(u)
					if len(m.preloadBranches) > 0 {
						// The host fetched branches with the assignment.
						m.ctrl.DeliverBranches(gen, m.preloadBranches, nil)
						for _, id := range m.preload.BranchIDs {
							m.ctrl.ToggleBranch(id)
						}
						m.preload = nil
						m.preloadBranches = nil
						return m, m.focusFilter()
					}
					cmds := []tea.Cmd{m.spin.Tick, m.fetchBranches(gen, u.ID), m.focusFilter()}
					return m, tea.Batch(cmds...)
				}
			}
			m.preload = nil
		}
		return m, nil

	case branchesLoadedMsg:
		if !m.ctrl.DeliverBranches(msg.gen, msg.items, msg.err) {
			return m, nil
		}
		m.cursor = 0
		if m.preload != nil {
			for _, id := range m.preload.BranchIDs {
				m.ctrl.ToggleBranch(id)
			}
			m.preload = nil
		}
		return m, nil

	case assignmentSubmittedMsg:
		if m.ctrl.FinishSubmit(msg.err) {
			return m, closeWizard(true)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m WizardModal) handleKey(msg tea.KeyMsg) (WizardModal, tea.Cmd) {
	if m.ctrl.Submitting() {
		return m, nil // confirm in flight; ignore input until it resolves
	}

	switch msg.String() {
	case "esc":
		if closed := m.ctrl.Back(); closed {
			return m, closeWizard(false)
		}
		m.cursor = 0
		m.filter.Blur() // text survives back-navigation, reset happens on open
		return m, nil

	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.cursor < m.visibleCount()-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		return m.handleEnter()
	}

	if m.ctrl.Stage() == wizard.StagePickBranches {
		if msg.String() == " " {
			visible := m.visibleBranches()
			if m.cursor < len(visible) {
				m.ctrl.ToggleBranch(visible[m.cursor].ID)
			}
			return m, nil
		}
		// Remaining keys edit the filter; the match list recomputes on
		// every keystroke.
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.clampCursor()
		return m, cmd
	}

	return m, nil
}

func (m WizardModal) handleEnter() (WizardModal, tea.Cmd) {
	switch m.ctrl.Stage() {
	case wizard.StagePickApprover:
		approvers := m.ctrl.State().ApproverList()
		if m.cursor >= len(approvers) {
			return m, nil
		}
		chosen := approvers[m.cursor]
		gen := m.ctrl.SelectApprover(chosen)
		m.cursor = 0
		return m, tea.Batch(m.spin.Tick, m.fetchUsers(gen, chosen.ID))

	case wizard.StagePickUser:
		users := m.ctrl.State().UserList()
		if m.cursor >= len(users) {
			return m, nil
		}
		chosen := users[m.cursor]
		gen := m.ctrl.SelectUser(chosen)
		m.cursor = 0
		return m, tea.Batch(m.spin.Tick, m.fetchBranches(gen, chosen.ID), m.focusFilter())

	default:
		sel, ok := m.ctrl.BeginSubmit()
		if !ok {
			return m, nil
		}
		return m, tea.Batch(m.spin.Tick, m.submit(sel))
	}
}

func (m *WizardModal) focusFilter() tea.Cmd {
	m.filter.Focus()
	return textinput.Blink
}

func (m WizardModal) visibleBranches() []portal.Branch {
	return wizard.FilterBranches(m.ctrl.State().BranchList(), m.filter.Value())
}

func (m WizardModal) visibleCount() int {
	switch m.ctrl.Stage() {
	case wizard.StagePickApprover:
		return len(m.ctrl.State().ApproverList())
	case wizard.StagePickUser:
		return len(m.ctrl.State().UserList())
	default:
		return len(m.visibleBranches())
	}
}

func (m *WizardModal) clampCursor() {
	if max := m.visibleCount(); m.cursor >= max {
		m.cursor = 0
	}
}

func (m WizardModal) stageHeading() string {
	total := 2
	step := 1
	if m.ctrl.Flow().HasApproverStage {
		total = 3
	}
	switch m.ctrl.Stage() {
	case wizard.StagePickApprover:
		return fmt.Sprintf("Step 1 of %d — Select Approver", total)
	case wizard.StagePickUser:
		if m.ctrl.Flow().HasApproverStage {
			step = 2
		}
		return fmt.Sprintf("Step %d of %d — Select Staff", step, total)
	default:
		return fmt.Sprintf("Step %d of %d — Select Branches", total, total)
	}
}

// View renders the dialog centered in the available area.
func (m WizardModal) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render(m.ctrl.Flow().Name))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Subtitle.Render(m.stageHeading()))
	sb.WriteString("\n\n")

	if banner := m.ctrl.FetchError(); banner != "" {
		sb.WriteString(m.styles.Error.Render(banner))
		sb.WriteString("\n\n")
	}
	if banner := m.ctrl.SubmitError(); banner != "" {
		sb.WriteString(m.styles.Error.Render(banner))
		sb.WriteString("\n\n")
	}

	switch {
	case m.ctrl.Submitting():
		sb.WriteString(m.spin.View() + " Submitting…")
	case m.ctrl.Loading():
		sb.WriteString(m.spin.View() + " Loading…")
	default:
		sb.WriteString(m.stageBody())
	}

	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Footer.Render(m.footerHints()))

	return PlaceModal(sb.String(), m.width, m.height, m.styles)
}

func (m WizardModal) stageBody() string {
	var sb strings.Builder

	switch m.ctrl.Stage() {
	case wizard.StagePickApprover:
		approvers := m.ctrl.State().ApproverList()
		if len(approvers) == 0 {
			return m.styles.Muted.Render("No approvers available.")
		}
		for i, a := range approvers {
			sb.WriteString(m.listRow(i, a.DisplayName()))
		}

	case wizard.StagePickUser:
		if approver, ok := m.ctrl.State().Approver(); ok {
			sb.WriteString(m.styles.Muted.Render("Approver: " + approver.DisplayName()))
			sb.WriteString("\n\n")
		}
		users := m.ctrl.State().UserList()
		if len(users) == 0 {
			return sb.String() + m.styles.Muted.Render("No staff available.")
		}
		for i, u := range users {
			label := u.DisplayName()
			if u.Position != "" {
				label += m.styles.Muted.Render(" · " + u.Position)
			}
			sb.WriteString(m.listRow(i, label))
		}

	default:
		if user, ok := m.ctrl.State().User(); ok {
			sb.WriteString(m.styles.Muted.Render("Staff: " + user.DisplayName()))
			sb.WriteString("\n")
		}
		sb.WriteString(m.styles.Input.Render("/ " + m.filter.View()))
		sb.WriteString("\n\n")

		visible := m.visibleBranches()
		if len(visible) == 0 {
			sb.WriteString(m.styles.Muted.Render("No branches match."))
		}
		for i, b := range visible {
			mark := "[ ]"
			if m.ctrl.State().IsSelected(b.ID) {
				mark = "[x]"
			}
			sb.WriteString(m.listRow(i, mark+" "+b.Label()))
		}

		if chips := m.ctrl.State().SelectedBranches(); len(chips) > 0 {
			sb.WriteString("\n" + m.styles.Muted.Render("Selected: "))
			parts := make([]string, len(chips))
			for i, b := range chips {
				parts[i] = m.styles.Chip.Render(b.Label())
			}
			sb.WriteString(strings.Join(parts, " "))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (m WizardModal) listRow(i int, label string) string {
	if i == m.cursor {
		return m.styles.Cursor.Render("> ") + m.styles.Selected.Render(label) + "\n"
	}
	return "  " + label + "\n"
}

func (m WizardModal) footerHints() string {
	hints := []string{"↑/↓ move", "esc back"}
	if m.ctrl.Stage() == wizard.StagePickBranches {
		hints = append([]string{"space toggle"}, hints...)
		// The confirm control is omitted entirely while nothing is selected.
		if m.ctrl.State().ConfirmVisible() {
			hints = append([]string{"enter confirm"}, hints...)
		}
	} else {
		hints = append([]string{"enter select"}, hints...)
	}
	return strings.Join(hints, " · ")
}
