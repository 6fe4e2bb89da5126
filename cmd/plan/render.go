package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/freeeve/squadplan/pkg/squad"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	weakStyle   = cellStyle.Foreground(lipgloss.Color("9"))
	border      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		BorderRow(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderResult(req squad.Request, res *squad.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s approach: every check clears margin %d", res.Hazard.Title(), res.Guaranteed)))
	b.WriteString("\n")

	alloc := newTable("member", "power", "athletics", "wit", "total")
	row := func(name string, a squad.Allocation) {
		alloc.Row(name, fmt.Sprint(a.Power), fmt.Sprint(a.Athletics), fmt.Sprint(a.Wit), fmt.Sprint(a.Total()))
	}
	row("leader ("+req.Roles[0]+")", res.Leader)
	if res.Soldier != nil {
		row("soldier", *res.Soldier)
	}
	row("others", res.Others)
	b.WriteString(alloc.Render())
	b.WriteString("\n")

	vals := res.Checks.Values()
	checks := newTable("check", "margin").StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case row >= 0 && row < len(vals) && squad.CheckNames[row] == res.WeakestCheck:
			return weakStyle
		}
		return cellStyle
	})
	for i, v := range vals {
		checks.Row(squad.CheckNames[i], fmt.Sprintf("%.2f", v))
	}
	b.WriteString(checks.Render())
	return b.String()
}

func rolesLabel(roles [squad.TeamSize]squad.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = r.String()
	}
	return strings.Join(parts, " / ")
}

func renderRanking(ranked []squad.Ranking) string {
	t := newTable("#", "roles", "hazard", "guaranteed", "worst", "weakest")
	for i, r := range ranked {
		t.Row(fmt.Sprint(i+1), rolesLabel(r.Roles), r.Result.Hazard.Title(),
			fmt.Sprint(r.Result.Guaranteed), fmt.Sprintf("%.2f", r.Result.Worst), r.Result.WeakestCheck)
	}
	return titleStyle.Render("Role combinations, best first") + "\n" + t.Render()
}

func renderScorecard(tallies []squad.Tally) string {
	t := newTable("roles", "wins")
	for _, tl := range tallies {
		t.Row(rolesLabel(tl.Roles), fmt.Sprint(tl.Wins))
	}
	return titleStyle.Render("Best role combination per level-bonus setting") + "\n" + t.Render()
}
