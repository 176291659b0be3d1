package planner

import (
	"fmt"
	"strings"

	"github.com/waypoint-agents/server/internal/agent/model"
)

// AbortBanner is prepended to the narrative when the loop stops early.
const AbortBanner = "NOTICE: Trip planning stopped early after %d consecutive days without complete information. The notes below cover the first %d day(s) only."

// AbortNotice formats AbortBanner.
func AbortNotice(failures, days int) string {
	return fmt.Sprintf(AbortBanner, failures, days)
}

func renderNarrative(days []model.DayResult, notice string) string {
	var b strings.Builder
	if notice != "" {
		b.WriteString(notice)
		b.WriteString("\n\n")
	}
	for i, d := range days {
		if i > 0 {
			b.WriteString("\n")
		}
		writeDay(&b, d)
	}
	return b.String()
}

func writeDay(b *strings.Builder, d model.DayResult) {
	fmt.Fprintf(b, "Day: %d\n", d.Day)
	fmt.Fprintf(b, "Route: %s -> %s\n", d.From, d.Place)
	fmt.Fprintf(b, "Transport: %s\n", withoutLabel("transport", d.Transport))
	fmt.Fprintf(b, "Sightseeing: %s\n", withoutLabel("sightseeing", d.Sightseeing))
	fmt.Fprintf(b, "Hotel: %s\n", withoutLabel("hotel", d.Hotel))
	fmt.Fprintf(b, "Next destination: %s\n", withoutLabel("next destination", d.NextDestination))
}

// withoutLabel drops a leading "Label:" (optionally emphasised) that repeats
// the line's own label. Other text is returned unchanged.
func withoutLabel(label, text string) string {
	rest := strings.TrimLeft(text, "*_# \t")
	if len(rest) <= len(label) || !strings.EqualFold(rest[:len(label)], label) {
		return text
	}
	rest = strings.TrimLeft(rest[len(label):], "*_ ")
	if !strings.HasPrefix(rest, ":") {
		return text
	}
	return strings.TrimSpace(strings.TrimLeft(rest[1:], "*_ "))
}

// DestinationName extracts a place name from a next-destination answer: the
// first non-empty line, without list markers, headings, emphasis, quotes or a
// leading label.
func DestinationName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return cleanName(line)
	}
	return ""
}

func cleanName(s string) string {
	s = strings.TrimLeft(s, "#>-*+• \t")
	// "1. Gangtok" / "1) Gangtok"
	if i := strings.IndexAny(s, ".)"); i > 0 && i <= 3 && isDigits(s[:i]) {
		s = strings.TrimSpace(s[i+1:])
	}
	s = strings.Trim(s, "*_`\"' ")
	if i := strings.Index(s, ":"); i > 0 && isLabel(s[:i]) {
		s = strings.Trim(strings.TrimSpace(s[i+1:]), "*_`\"' ")
	}
	s = strings.TrimRight(s, ".!")
	return strings.TrimSpace(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

var labels = []string{"next destination", "destination", "next stop", "location", "place"}

func isLabel(s string) bool {
	s = strings.ToLower(strings.Trim(s, "*_` "))
	for _, l := range labels {
		if s == l {
			return true
		}
	}
	return false
}
