// Package ui holds the terminal styles used by the irl CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	IconSword   = "⚔️"
	IconPlus    = "➕"
	IconDone    = "✅"
	IconTrophy  = "🏆"
	IconFire    = "🔥"
	IconBolt    = "⚡"
	IconCrown   = "👑"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconLoop    = "🔁"
	IconCal     = "📅"
	IconScroll  = "📜"
	IconBell    = "🔔"
	IconVersus  = "🆚"
	IconSparkle = "✨"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
	cShadow  = lipgloss.Color("99")  // violet
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// ─── Progress ───────────────────────────────────────────────────────────────

// BarWidth is the cell width of Bar.
const BarWidth = 20

// Bar renders pct (0-100) as a filled block bar.
func Bar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * BarWidth)
	return Good.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", BarWidth-filled))
}

// Rank colors a rank name by tier: E-C muted, B-A blue, S gold, beyond violet.
func Rank(name string) string {
	switch {
	case strings.HasPrefix(name, "E-"), strings.HasPrefix(name, "D-"), strings.HasPrefix(name, "C-"):
		return Muted.Render(name)
	case strings.HasPrefix(name, "B-"), strings.HasPrefix(name, "A-"):
		return H2.Render(name)
	case strings.HasPrefix(name, "S-"), strings.HasPrefix(name, "National"):
		return Gold.Render(name)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(cShadow).Render(name)
	}
}

// Rarity renders a title name in its rarity hex color.
func Rarity(name, hex string) string {
	if hex == "" {
		return name
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(hex)).Render(name)
}

// ChallengeStatus colors a challenge status.
func ChallengeStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "ACTIVE":
		return H2.Render(status)
	case "PENDING":
		return Warn.Render(status)
	case "COMPLETED":
		return Good.Render(status)
	case "DECLINED", "CANCELED":
		return Muted.Render(status)
	default:
		return status
	}
}
