package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// PlaceModal centers a framed dialog in the available area. The underlying
// page is not composited behind it; terminals handle a cleared backdrop
// better than interleaved ANSI layers.
func PlaceModal(content string, width, height int, styles Styles) string {
	framed := styles.Modal.Render(content)
	if width <= 0 || height <= 0 {
		return framed
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, framed)
}

// SuccessModal is the acknowledgment dialog shown after a commit succeeds.
type SuccessModal struct {
	Message string
}

// View renders the acknowledgment.
func (m SuccessModal) View(width, height int, styles Styles) string {
	body := styles.Success.Render("✓ "+m.Message) + "\n\n" +
		styles.Muted.Render("press enter to continue")
	return PlaceModal(body, width, height, styles)
}
