package stats

import (
	"fmt"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/scoring"
	"github.com/abhisek/prelims/internal/screen"
	"github.com/abhisek/prelims/internal/ui/components"
	"github.com/abhisek/prelims/internal/ui/layout"
	"github.com/abhisek/prelims/internal/ui/theme"
)

// revisionThreshold is the topic accuracy below which a topic is flagged
// for revision.
const revisionThreshold = 40

// SubjectDetailScreen shows one subject's topics, weakest first.
type SubjectDetailScreen struct {
	name string
	stat scoring.SubjectStat
}

var _ screen.Screen = (*SubjectDetailScreen)(nil)
var _ screen.KeyHintProvider = (*SubjectDetailScreen)(nil)

func newSubjectDetail(name string, stat scoring.SubjectStat) *SubjectDetailScreen {
	return &SubjectDetailScreen{name: name, stat: stat}
}

func (d *SubjectDetailScreen) Init() tea.Cmd { return nil }
func (d *SubjectDetailScreen) Title() string { return d.name }

func (d *SubjectDetailScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	return d, nil
}

func (d *SubjectDetailScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
	}
}

// weakestFirst orders topic names by accuracy, then name.
func (d *SubjectDetailScreen) weakestFirst() []string {
	names := d.stat.TopicNames()
	sort.SliceStable(names, func(i, j int) bool {
		return d.stat.Topics[names[i]].Accuracy < d.stat.Topics[names[j]].Accuracy
	})
	return names
}

func (d *SubjectDetailScreen) View(width, height int) string {
	contentWidth := min(width-8, 70)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.SubjectColor(d.name)).
		Bold(true).
		Render("  " + d.name))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("  %d of %d correct  ·  %d%% accuracy", d.stat.Correct, d.stat.Attempts, d.stat.Accuracy)))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.BandColor(d.stat.Accuracy)).
		Render("  " + scoring.BandFor(d.stat.Accuracy).Message))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render("  Topics"))
	b.WriteString("\n")

	var revise []string
	for _, name := range d.weakestFirst() {
		t := d.stat.Topics[name]
		label := name
		if len(label) > 22 {
			label = label[:21] + "…"
		}
		bar := components.NewProgressBar(fmt.Sprintf("%-22s", label), float64(t.Accuracy)/100, true, contentWidth-2)
		bar.Fill = theme.BandColor(t.Accuracy)
		b.WriteString("  " + bar.View())
		b.WriteString("\n")
		if t.Accuracy < revisionThreshold {
			revise = append(revise, name)
		}
	}

	if len(revise) > 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(contentWidth).
			Foreground(theme.Warning).
			PaddingLeft(2).
			Render("Revise: " + strings.Join(revise, ", ")))
		b.WriteString("\n")
	}

	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top,
		"\n"+b.String())
}
