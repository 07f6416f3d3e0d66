package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/ui/theme"
)

// OptionList shows a question's lettered options with a cursor and the
// currently chosen answer.
type OptionList struct {
	Options []string
	Cursor  int

	// Chosen is the selected option index, -1 for none.
	Chosen int

	// Reveal, when >= 0, marks the correct option and colours the chosen one
	// as right or wrong.
	Reveal int
}

// NewOptionList creates a list with nothing chosen and nothing revealed.
func NewOptionList(options []string, chosen int) OptionList {
	cursor := 0
	if chosen >= 0 && chosen < len(options) {
		cursor = chosen
	}
	return OptionList{Options: options, Cursor: cursor, Chosen: chosen, Reveal: -1}
}

// Update moves the cursor.
func (o OptionList) Update(msg tea.Msg) (OptionList, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return o, nil
	}
	switch kmsg.String() {
	case "up", "k":
		if o.Cursor > 0 {
			o.Cursor--
		}
	case "down", "j":
		if o.Cursor < len(o.Options)-1 {
			o.Cursor++
		}
	}
	return o, nil
}

// View renders the options, wrapping text at width.
func (o OptionList) View(width int) string {
	var s string
	for i, opt := range o.Options {
		letter, _ := corpus.OptionLetter(i)
		prefix := "  "
		if i == o.Cursor && o.Reveal < 0 {
			prefix = "▸ "
		}
		mark := " "
		if i == o.Chosen {
			mark = "●"
		}
		line := fmt.Sprintf("%s%s %s)  %s", prefix, mark, letter, opt)

		style := theme.Unselected
		switch {
		case o.Reveal >= 0 && i == o.Reveal:
			style = theme.Correct
		case o.Reveal >= 0 && i == o.Chosen:
			style = theme.Incorrect
		case o.Reveal >= 0:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == o.Cursor:
			style = theme.Selected
		case i == o.Chosen:
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
		}
		s += style.Width(width).Render(line) + "\n"
	}
	return s
}
