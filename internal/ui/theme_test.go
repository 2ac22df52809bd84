package ui_test

import (
	"strings"
	"testing"

	"github.com/sololeveling-irl/irl/internal/ui"
)

func TestBar_Clamps(t *testing.T) {
	for _, pct := range []float64{-10, 0, 42, 100, 250} {
		got := ui.Bar(pct)
		cells := strings.Count(got, "█") + strings.Count(got, "░")
		if cells != ui.BarWidth {
			t.Errorf("Bar(%v) has %d cells, want %d", pct, cells, ui.BarWidth)
		}
	}
	if n := strings.Count(ui.Bar(50), "█"); n != ui.BarWidth/2 {
		t.Errorf("Bar(50) filled = %d, want %d", n, ui.BarWidth/2)
	}
}

func TestRank_KeepsName(t *testing.T) {
	for _, name := range []string{"E-Rank Hunter", "S-Rank Hunter", "Monarch", "Transcendent"} {
		if !strings.Contains(ui.Rank(name), name) {
			t.Errorf("Rank(%q) lost the name", name)
		}
	}
}

func TestHeading(t *testing.T) {
	if !strings.Contains(ui.Heading(" ", "Status"), "Status") {
		t.Error("heading missing title")
	}
}
