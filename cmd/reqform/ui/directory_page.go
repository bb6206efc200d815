package ui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/portal"
	"github.com/smegcoffee/request-form-sub001/internal/wizard"
)

type directoryLoadedMsg struct {
	branches  []portal.Branch
	positions []portal.Position
	err       error
}

type assignmentLoadedMsg struct {
	assignment portal.Assignment
	branches   []portal.Branch
	err        error
}

type referenceSavedMsg struct {
	err error
}

type directoryTab int

const (
	tabBranches directoryTab = iota
	tabPositions
)

// refPrompt is the small create/update dialog for branches and positions.
type refPrompt struct {
	title  string
	inputs []textinput.Model
	focus  int
	save   func(values []string) tea.Cmd
}

// DirectoryPage manages reference data and launches the branch-assignment
// wizards. The AVP staff wizard and the branch head wizard share one dialog
// model parameterized by flow.
type DirectoryPage struct {
	client *gateway.Client
	styles Styles
	spin   spinner.Model

	tab       directoryTab
	branches  []portal.Branch
	positions []portal.Position
	cursor    int
	loading   bool
	busy      bool
	errMsg    string

	wiz     WizardModal
	wizOpen bool

	prompt *refPrompt

	editID     textinput.Model
	editAsking bool

	success *SuccessModal

	width  int
	height int
}

// NewDirectoryPage builds the page.
func NewDirectoryPage(client *gateway.Client, styles Styles) DirectoryPage {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Spinner

	editID := textinput.New()
	editID.Placeholder = "assignment id"
	editID.CharLimit = 10

	return DirectoryPage{client: client, styles: styles, spin: spin, editID: editID}
}

// SetSize updates the drawing area.
func (p *DirectoryPage) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.wiz.SetSize(width, height)
}

// InputActive reports whether a wizard, prompt, or text input owns the
// keyboard.
func (p DirectoryPage) InputActive() bool {
	return p.wizOpen || p.prompt != nil || p.editAsking || p.success != nil
}

// Reload refetches branches and positions together.
func (p DirectoryPage) Reload() (DirectoryPage, tea.Cmd) {
	p.loading = true
	p.errMsg = ""
	client := p.client
	return p, tea.Batch(p.spin.Tick, func() tea.Msg {
		ctx := context.Background()
		branches, err := client.Branches(ctx)
		if err != nil {
			return directoryLoadedMsg{err: err}
		}
		positions, err := client.Positions(ctx)
		if err != nil {
			return directoryLoadedMsg{err: err}
		}
		return directoryLoadedMsg{branches: branches, positions: positions}
	})
}

func (p DirectoryPage) openWizard(flow wizard.Flow) (DirectoryPage, tea.Cmd) {
	wiz, err := NewWizardModal(flow, p.styles)
	if err != nil {
		p.errMsg = err.Error()
		return p, nil
	}
	wiz.SetSize(p.width, p.height)
	var cmd tea.Cmd
	p.wiz, cmd = wiz.Open()
	p.wizOpen = true
	return p, cmd
}

func (p DirectoryPage) openEditWizard(a portal.Assignment, branches []portal.Branch) (DirectoryPage, tea.Cmd) {
	wiz, err := NewWizardModal(wizard.AVPEditFlow(p.client, a.ID), p.styles)
	if err != nil {
		p.errMsg = err.Error()
		return p, nil
	}
	wiz.SetSize(p.width, p.height)
	var cmd tea.Cmd
	p.wiz, cmd = wiz.OpenEdit(a, branches)
	p.wizOpen = true
	return p, cmd
}

// Update handles messages while the page is active.
func (p DirectoryPage) Update(msg tea.Msg) (DirectoryPage, tea.Cmd) {
	if p.wizOpen {
		switch msg := msg.(type) {
		case WizardDoneMsg:
			p.wizOpen = false
			if msg.Submitted {
				p.success = &SuccessModal{Message: "Assignment saved."}
			}
			return p, nil
		default:
			var cmd tea.Cmd
			p.wiz, cmd = p.wiz.Update(msg)
			return p, cmd
		}
	}

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if p.loading || p.busy {
			var cmd tea.Cmd
			p.spin, cmd = p.spin.Update(msg)
			return p, cmd
		}
		return p, nil

	case directoryLoadedMsg:
		p.loading = false
		if msg.err != nil {
			p.errMsg = gateway.UserMessage(msg.err)
			return p, nil
		}
		p.branches = msg.branches
		p.positions = msg.positions
		p.clampCursor()
		return p, nil

	case assignmentLoadedMsg:
		p.busy = false
		if msg.err != nil {
			p.errMsg = gateway.UserMessage(msg.err)
			return p, nil
		}
		return p.openEditWizard(msg.assignment, msg.branches)

	case referenceSavedMsg:
		p.busy = false
		p.prompt = nil
		if msg.err != nil {
			p.errMsg = gateway.UserMessage(msg.err)
			return p, nil
		}
		p.success = &SuccessModal{Message: "Saved."}
		return p.Reload()

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p DirectoryPage) handleKey(msg tea.KeyMsg) (DirectoryPage, tea.Cmd) {
	if p.busy {
		return p, nil
	}
	if p.success != nil {
		if msg.String() == "enter" || msg.String() == "esc" {
			p.success = nil
		}
		return p, nil
	}
	if p.editAsking {
		return p.handleEditIDKey(msg)
	}
	if p.prompt != nil {
		return p.handlePromptKey(msg)
	}

	switch msg.String() {
	case "tab":
		if p.tab == tabBranches {
			p.tab = tabPositions
		} else {
			p.tab = tabBranches
		}
		p.cursor = 0
	case "r":
		return p.Reload()
	case "w":
		return p.openWizard(wizard.AVPAddFlow(p.client))
	case "h":
		return p.openWizard(wizard.BranchHeadAddFlow(p.client))
	case "e":
		p.editAsking = true
		p.errMsg = ""
		p.editID.Reset()
		p.editID.Focus()
		return p, textinput.Blink
	case "n":
		return p.openCreatePrompt()
	case "enter":
		return p.openUpdatePrompt()
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < p.rowCount()-1 {
			p.cursor++
		}
	}
	return p, nil
}

func (p DirectoryPage) handleEditIDKey(msg tea.KeyMsg) (DirectoryPage, tea.Cmd) {
	switch msg.String() {
	case "esc":
		p.editAsking = false
		p.editID.Blur()
		return p, nil
	case "enter":
		id, err := strconv.Atoi(strings.TrimSpace(p.editID.Value()))
		if err != nil || id <= 0 {
			p.errMsg = "Enter a numeric assignment id."
			return p, nil
		}
		p.editAsking = false
		p.editID.Blur()
		p.busy = true
		client := p.client
		return p, tea.Batch(p.spin.Tick, func() tea.Msg {
			a, branches, err := client.AssignmentEditState(context.Background(), id)
			return assignmentLoadedMsg{assignment: a, branches: branches, err: err}
		})
	default:
		var cmd tea.Cmd
		p.editID, cmd = p.editID.Update(msg)
		return p, cmd
	}
}

func (p DirectoryPage) openCreatePrompt() (DirectoryPage, tea.Cmd) {
	client := p.client
	if p.tab == tabBranches {
		p.prompt = newRefPrompt("New Branch", []string{"branch name", "branch code"}, func(values []string) tea.Cmd {
			payload := gateway.BranchPayload{Name: values[0], Code: values[1]}
			return func() tea.Msg {
				return referenceSavedMsg{err: client.CreateBranch(context.Background(), payload)}
			}
		})
	} else {
		p.prompt = newRefPrompt("New Position", []string{"position name"}, func(values []string) tea.Cmd {
			payload := gateway.PositionPayload{Name: values[0]}
			return func() tea.Msg {
				return referenceSavedMsg{err: client.CreatePosition(context.Background(), payload)}
			}
		})
	}
	return p, textinput.Blink
}

func (p DirectoryPage) openUpdatePrompt() (DirectoryPage, tea.Cmd) {
	client := p.client
	if p.tab == tabBranches {
		if p.cursor >= len(p.branches) {
			return p, nil
		}
		b := p.branches[p.cursor]
		prompt := newRefPrompt("Edit Branch", []string{"branch name", "branch code"}, func(values []string) tea.Cmd {
			payload := gateway.BranchPayload{Name: values[0], Code: values[1]}
			return func() tea.Msg {
				return referenceSavedMsg{err: client.UpdateBranch(context.Background(), b.ID, payload)}
			}
		})
		prompt.inputs[0].SetValue(b.Name)
		prompt.inputs[1].SetValue(b.Code)
		p.prompt = prompt
	} else {
		if p.cursor >= len(p.positions) {
			return p, nil
		}
		pos := p.positions[p.cursor]
		prompt := newRefPrompt("Edit Position", []string{"position name"}, func(values []string) tea.Cmd {
			payload := gateway.PositionPayload{Name: values[0]}
			return func() tea.Msg {
				return referenceSavedMsg{err: client.UpdatePosition(context.Background(), pos.ID, payload)}
			}
		})
		prompt.inputs[0].SetValue(pos.Name)
		p.prompt = prompt
	}
	return p, textinput.Blink
}

func newRefPrompt(title string, placeholders []string, save func([]string) tea.Cmd) *refPrompt {
	inputs := make([]textinput.Model, len(placeholders))
	for i, ph := range placeholders {
		in := textinput.New()
		in.Placeholder = ph
		in.CharLimit = 80
		if i == 0 {
			in.Focus()
		}
		inputs[i] = in
	}
	return &refPrompt{title: title, inputs: inputs, save: save}
}

func (p DirectoryPage) handlePromptKey(msg tea.KeyMsg) (DirectoryPage, tea.Cmd) {
	prompt := p.prompt
	switch msg.String() {
	case "esc":
		p.prompt = nil
		return p, nil
	case "tab", "down":
		prompt.inputs[prompt.focus].Blur()
		prompt.focus = (prompt.focus + 1) % len(prompt.inputs)
		prompt.inputs[prompt.focus].Focus()
		return p, textinput.Blink
	case "shift+tab", "up":
		prompt.inputs[prompt.focus].Blur()
		prompt.focus = (prompt.focus - 1 + len(prompt.inputs)) % len(prompt.inputs)
		prompt.inputs[prompt.focus].Focus()
		return p, textinput.Blink
	case "enter":
		values := make([]string, len(prompt.inputs))
		for i, in := range prompt.inputs {
			values[i] = strings.TrimSpace(in.Value())
			if values[i] == "" {
				p.errMsg = "All fields are required."
				return p, nil
			}
		}
		p.busy = true
		p.errMsg = ""
		return p, tea.Batch(p.spin.Tick, prompt.save(values))
	default:
		var cmd tea.Cmd
		prompt.inputs[prompt.focus], cmd = prompt.inputs[prompt.focus].Update(msg)
		return p, cmd
	}
}

func (p DirectoryPage) rowCount() int {
	if p.tab == tabBranches {
		return len(p.branches)
	}
	return len(p.positions)
}

func (p *DirectoryPage) clampCursor() {
	if p.cursor >= p.rowCount() {
		p.cursor = 0
	}
}

// View renders the page.
func (p DirectoryPage) View() string {
	if p.wizOpen {
		return p.wiz.View()
	}
	if p.success != nil {
		return p.success.View(p.width, p.height, p.styles)
	}
	if p.editAsking {
		body := p.styles.Subtitle.Render("Edit assignment") + "\n\n" +
			p.styles.Input.Render(p.editID.View()) + "\n\n" +
			p.styles.Footer.Render("enter load · esc cancel")
		return PlaceModal(body, p.width, p.height, p.styles)
	}
	if p.prompt != nil {
		var sb strings.Builder
		sb.WriteString(p.styles.Subtitle.Render(p.prompt.title) + "\n\n")
		if p.errMsg != "" {
			sb.WriteString(p.styles.Error.Render(p.errMsg) + "\n\n")
		}
		for i := range p.prompt.inputs {
			sb.WriteString(p.styles.Input.Render(p.prompt.inputs[i].View()) + "\n")
		}
		sb.WriteString("\n" + p.styles.Footer.Render("enter save · tab next · esc cancel"))
		return PlaceModal(sb.String(), p.width, p.height, p.styles)
	}

	out := p.styles.Title.Render("Directory") + "\n"
	branchTab := p.styles.Tab.Render("Branches")
	posTab := p.styles.Tab.Render("Positions")
	if p.tab == tabBranches {
		branchTab = p.styles.TabOn.Render("Branches")
	} else {
		posTab = p.styles.TabOn.Render("Positions")
	}
	out += branchTab + " " + posTab + "\n\n"

	if p.errMsg != "" {
		out += p.styles.Error.Render(p.errMsg) + "\n\n"
	}
	if p.loading {
		return out + p.spin.View() + " Loading…"
	}
	if p.busy {
		return out + p.spin.View() + " Working…"
	}

	if p.tab == tabBranches {
		if len(p.branches) == 0 {
			out += p.styles.Muted.Render("No branches.")
		} else {
			table := NewSimpleTable("", []string{"ID", "Name", "Code"})
			table.CursorRow = p.cursor
			for _, b := range p.branches {
				table.AddRow(strconv.Itoa(b.ID), b.Name, b.Code)
			}
			out += table.View(p.styles)
		}
	} else {
		if len(p.positions) == 0 {
			out += p.styles.Muted.Render("No positions.")
		} else {
			table := NewSimpleTable("", []string{"ID", "Name"})
			table.CursorRow = p.cursor
			for _, pos := range p.positions {
				table.AddRow(strconv.Itoa(pos.ID), pos.Name)
			}
			out += table.View(p.styles)
		}
	}

	out += "\n" + p.styles.Footer.Render(
		"w assign staff · h assign branch head · e edit assignment · n new · enter edit row · tab switch · r reload")
	return out
}
