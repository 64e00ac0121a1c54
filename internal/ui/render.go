package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/and161185/eco-actions/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	pointsStyle = cellStyle.Foreground(lipgloss.Color("220")).Align(lipgloss.Right)
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	summary     = lipgloss.NewStyle().Faint(true)
)

var columns = []SortField{SortByID, SortByAction, SortByDate, SortByPoints}

// FormatPoints renders points without a trailing .0 for whole numbers.
func FormatPoints(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// Table renders actions as a bordered table. The sorted column carries an arrow.
func Table(actions []model.Action, st SortState) string {
	headers := make([]string, len(columns))
	for i, c := range columns {
		h := strings.ToUpper(string(c))
		if c == st.Field {
			if st.Desc {
				h += " ▼"
			} else {
				h += " ▲"
			}
		}
		headers[i] = h
	}

	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, []string{strconv.FormatInt(a.ID, 10), a.Action, a.Date, FormatPoints(a.Points)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 3:
				return pointsStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// Render writes the banner, the sorted table and the totals line.
func Render(w io.Writer, b *Board) error {
	if msg := b.Banner(); msg != "" {
		if _, err := fmt.Fprintln(w, bannerStyle.Render(msg)); err != nil {
			return err
		}
	}
	view := b.View()
	if len(view) == 0 {
		_, err := fmt.Fprintln(w, summary.Render("No sustainability actions recorded yet."))
		return err
	}
	if _, err := fmt.Fprintln(w, Table(view, b.Sort())); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, summary.Render(fmt.Sprintf("Total actions: %d   Total points: %s",
		len(view), FormatPoints(b.TotalPoints()))))
	return err
}
