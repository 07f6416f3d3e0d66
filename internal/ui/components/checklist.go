package components

import (
	"fmt"
	"image/color"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/ui/theme"
)

// ChecklistItem is one toggleable row.
type ChecklistItem struct {
	Label  string
	Detail string
	Color  color.Color
}

// Checklist is a scrollable multi-select list.
type Checklist struct {
	Items   []ChecklistItem
	Checked map[int]bool
	Cursor  int
	offset  int
}

// NewChecklist creates a checklist with nothing checked.
func NewChecklist(items []ChecklistItem) Checklist {
	return Checklist{Items: items, Checked: make(map[int]bool)}
}

// Update handles navigation and toggling. Space toggles the row under the
// cursor; "a" toggles every row.
func (c Checklist) Update(msg tea.Msg) (Checklist, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(c.Items) == 0 {
		return c, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Items)-1 {
			c.Cursor++
		}
	case "space", " ", "x":
		c.Toggle(c.Cursor)
	case "a":
		all := len(c.Selected()) == len(c.Items)
		for i := range c.Items {
			c.Checked[i] = !all
		}
	}
	return c, nil
}

// Toggle flips row i.
func (c *Checklist) Toggle(i int) {
	if i < 0 || i >= len(c.Items) {
		return
	}
	if c.Checked == nil {
		c.Checked = make(map[int]bool)
	}
	c.Checked[i] = !c.Checked[i]
}

// Selected returns the checked row indexes in order.
func (c Checklist) Selected() []int {
	var out []int
	for i := range c.Items {
		if c.Checked[i] {
			out = append(out, i)
		}
	}
	return out
}

// SelectedLabels returns the labels of the checked rows in order.
func (c Checklist) SelectedLabels() []string {
	var out []string
	for _, i := range c.Selected() {
		out = append(out, c.Items[i].Label)
	}
	return out
}

// View renders at most height rows, scrolled to keep the cursor visible.
// focused controls whether the cursor is drawn.
func (c *Checklist) View(height int, focused bool) string {
	if len(c.Items) == 0 {
		return theme.Hint.Render("  nothing to choose from")
	}
	if height < 1 {
		height = 1
	}
	if c.Cursor < c.offset {
		c.offset = c.Cursor
	}
	if c.Cursor >= c.offset+height {
		c.offset = c.Cursor - height + 1
	}

	var s string
	end := min(len(c.Items), c.offset+height)
	for i := c.offset; i < end; i++ {
		item := c.Items[i]
		box := "[ ]"
		if c.Checked[i] {
			box = "[x]"
		}
		prefix := "  "
		if focused && i == c.Cursor {
			prefix = "▸ "
		}

		style := theme.Unselected
		if item.Color != nil {
			style = lipgloss.NewStyle().Foreground(item.Color)
		}
		if focused && i == c.Cursor {
			style = style.Bold(true)
		}
		line := style.Render(fmt.Sprintf("%s%s %s", prefix, box, item.Label))
		if item.Detail != "" {
			line += " " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(item.Detail)
		}
		s += line + "\n"
	}
	return s
}
