package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yungbote/pulse-backend/internal/domain"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	sectionStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const maxThemes = 8

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("pulse") + " " + mutedStyle.Render(m.config.Server))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errStyle.Render("fetch failed: "+m.err.Error()) + "\n")
	}
	if m.frame == nil {
		b.WriteString(mutedStyle.Render("waiting for first poll…") + "\n")
		return b.String()
	}
	f := m.frame

	width := m.width - 4
	if width < 40 {
		width = 40
	}
	box := sectionStyle.Width(width)

	b.WriteString(box.Render(m.sessionSection(f)) + "\n")
	b.WriteString(box.Render(revealSection(f)) + "\n")
	b.WriteString(box.Render(themeSection(f)) + "\n")
	b.WriteString(box.Render(pressureSection(f)) + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("polled %s · r refresh · q quit", f.FetchedAt.Format("15:04:05"))))
	return b.String()
}

func (m *model) sessionSection(f *Frame) string {
	st := f.Session
	state := string(st.Capture.State)
	switch state {
	case "capturing":
		state = okStyle.Render(state)
	case "error":
		state = errStyle.Render(state)
	}
	mode := "online"
	if st.Offline {
		mode = "offline"
	}
	lines := []string{
		headerStyle.Render("Session"),
		fmt.Sprintf("%s  %s  capture=%s  phase=%s", st.SessionID, mode, state, f.Model.Phase),
		fmt.Sprintf("chunks=%d restarts=%d queue=%d utterances=%d processed=%d pending_embeddings=%d",
			st.Capture.Chunks, st.Capture.Restarts, st.QueueDepth,
			f.Model.UtteranceCount, f.Model.ProcessedCount, f.Model.PendingEmbeddings),
	}
	if len(st.DisabledProviders) > 0 {
		lines = append(lines, warnStyle.Render("disabled: "+strings.Join(st.DisabledProviders, ", ")))
	}
	if st.Capture.LastError != "" {
		lines = append(lines, errStyle.Render(st.Capture.LastError))
	}
	return strings.Join(lines, "\n")
}

func revealSection(f *Frame) string {
	head := warnStyle.Render("NOT READY")
	if f.Reveal.Ready {
		head = okStyle.Render("READY")
	}
	if f.Reveal.Latched {
		head += mutedStyle.Render(" (latched)")
	}
	parts := make([]string, 0, len(f.Reveal.Checks))
	for _, c := range f.Reveal.Checks {
		mark := "✗"
		if c.Satisfied {
			mark = "✓"
		}
		parts = append(parts, fmt.Sprintf("%s %s %d/%d", mark, c.Name, c.Have, c.Need))
	}
	return headerStyle.Render("Reveal") + " " + head + "\n" + strings.Join(parts, "   ")
}

func themeSection(f *Frame) string {
	themes := append([]*domain.Theme(nil), f.Model.Themes...)
	sort.SliceStable(themes, func(i, j int) bool { return themes[i].Strength > themes[j].Strength })
	lines := []string{headerStyle.Render(fmt.Sprintf("Themes (%s)", f.Model.ThemeKind))}
	if len(themes) == 0 {
		lines = append(lines, mutedStyle.Render("none yet"))
	}
	for i, t := range themes {
		if i == maxThemes {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("+%d more", len(themes)-maxThemes)))
			break
		}
		lines = append(lines, fmt.Sprintf("%3d  %-12s %-12s %s", t.Strength, t.Domain, t.IntentType, t.Label))
	}
	return strings.Join(lines, "\n")
}

func pressureSection(f *Frame) string {
	lines := []string{headerStyle.Render("Pressure points")}
	if len(f.PressurePoints) == 0 {
		lines = append(lines, mutedStyle.Render("none yet"))
	}
	for _, p := range f.PressurePoints {
		lines = append(lines, FormatPressurePoint(p))
	}
	return strings.Join(lines, "\n")
}

// FormatPressurePoint renders one point on a single line.
func FormatPressurePoint(p domain.PressurePoint) string {
	target := string(p.Domain)
	if p.Kind == domain.PressureEdge {
		target = fmt.Sprintf("%s → %s", p.FromDomain, p.ToDomain)
	}
	return fmt.Sprintf("%6.2f  %-28s n=%d constraints=%d aspirations=%d", p.Score, target, p.Count, p.ConstraintCount, p.AspirationCount)
}
