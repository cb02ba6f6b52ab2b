package analytics

import (
	"fmt"
	"strconv"
	"strings"
)

// Markdown renders a compact report for terminals or standalone docs.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[ANALYTICS SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Total users: %d\n", s.TotalUsers))
	b.WriteString(fmt.Sprintf("Average age: %.1f\n", s.AverageAge))
	b.WriteString(fmt.Sprintf("Median age: %s\n", strconv.FormatFloat(s.MedianAge, 'f', -1, 64)))
	b.WriteString(fmt.Sprintf("Oldest user: %s (%d)\n", safeName(s.OldestUser.DisplayName), s.OldestUser.Age))
	b.WriteString(fmt.Sprintf("Youngest user: %s (%d)\n", safeName(s.YoungestUser.DisplayName), s.YoungestUser.Age))

	b.WriteString("\n[USERS BY COUNTRY]\n")
	if len(s.UsersByCountry) == 0 {
		b.WriteString("(none)\n")
	}
	for _, c := range s.UsersByCountry {
		b.WriteString(fmt.Sprintf("- %s: %d\n", safeName(c.Country), c.Count))
	}

	b.WriteString("\n[GENDER DISTRIBUTION]\n")
	b.WriteString(fmt.Sprintf("- Male: %s%%\n", s.GenderDistribution.Male))
	b.WriteString(fmt.Sprintf("- Female: %s%%\n", s.GenderDistribution.Female))
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if s == "" {
		return "(unnamed)"
	}
	return s
}
