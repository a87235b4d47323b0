package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"village/internal/achievements"
	"village/internal/models"
	"village/internal/schedule"
	"village/internal/service"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#74c7ec")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	aheadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	behindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387")).Bold(true)
	boxStyle    = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475a")).
			Padding(0, 1)
)

// column widths of the progress table
var progressColumns = []int{24, 10, 9, 14, 7}

func newReportCmd() *cobra.Command {
	report := &cobra.Command{Use: "report", Short: "Print reports"}

	var childID, yearID int64
	progress := &cobra.Command{
		Use:   "progress",
		Short: "Show a child's course progress for a school year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var year *int64
			if yearID > 0 {
				year = &yearID
			}
			r, err := a.services.Reports.ChildProgressReport(childID, year)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderProgressReport(r))
			return nil
		},
	}
	progress.Flags().Int64Var(&childID, "child", 0, "child id")
	progress.Flags().Int64Var(&yearID, "year", 0, "school year id (default: the year covering today)")
	_ = progress.MarkFlagRequired("child")

	report.AddCommand(progress)
	return report
}

func cell(text string, width int, style lipgloss.Style) string {
	if len(text) > width-1 {
		text = text[:width-2] + "…"
	}
	return style.Width(width).Render(text)
}

func statusStyle(s schedule.Status) lipgloss.Style {
	switch s {
	case schedule.StatusAhead:
		return aheadStyle
	case schedule.StatusBehind:
		return behindStyle
	}
	return lipgloss.NewStyle()
}

func renderProgressReport(r *service.ProgressReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s · %s", r.Child.Name, r.SchoolYear.Name)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s to %s, generated %s",
		r.SchoolYear.StartDate.Format(models.DateLayout),
		r.SchoolYear.EndDate.Format(models.DateLayout),
		r.GeneratedOn.Format(models.DateLayout))))
	b.WriteString("\n\n")

	headers := []string{"Course", "Lesson", "Expected", "Status", "Grade"}
	row := make([]string, len(headers))
	for i, h := range headers {
		row[i] = cell(h, progressColumns[i], headerStyle)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
	b.WriteString("\n")

	if len(r.Courses) == 0 {
		b.WriteString(mutedStyle.Render("no courses"))
		b.WriteString("\n")
	}
	for _, c := range r.Courses {
		status := string(c.Status)
		if c.Completed {
			status = "complete"
		} else if c.Diff != 0 {
			status = fmt.Sprintf("%s (%+d)", c.Status, c.Diff)
		}
		grade := "-"
		if c.Grade != nil {
			grade = c.Grade.Letter
		}
		row := []string{
			cell(c.CourseName, progressColumns[0], lipgloss.NewStyle()),
			cell(fmt.Sprintf("%d/%d", c.CurrentLesson, c.TotalLessons), progressColumns[1], lipgloss.NewStyle()),
			cell(fmt.Sprintf("%d", c.ExpectedLesson), progressColumns[2], lipgloss.NewStyle()),
			cell(status, progressColumns[3], statusStyle(c.Status)),
			cell(grade, progressColumns[4], lipgloss.NewStyle()),
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if r.Attendance != nil {
		fmt.Fprintf(&b, "Attendance: %d days attended, %.1f hours, streak %d (best %d)\n",
			r.Attendance.DaysAttended, r.Attendance.TotalHours, r.Attendance.CurrentStreak, r.Attendance.LongestStreak)
	}
	if r.Reading != nil {
		fmt.Fprintf(&b, "Reading: %d minutes, %d pages, %d books finished\n",
			r.Reading.Minutes, r.Reading.Pages, r.Reading.BooksFinished)
	}
	fmt.Fprintf(&b, "Assignments: %d completed, %d pending\n", r.AssignmentsCompleted, r.AssignmentsPending)
	fmt.Fprintf(&b, "Goals: %d completed, %d open\n", r.GoalsCompleted, r.GoalsOpen)
	fmt.Fprintf(&b, "Portfolio items: %d", r.PortfolioItems)

	return boxStyle.Render(b.String())
}

func newCatalogCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the achievement catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories := achievements.Categories
			if category != "" {
				if !achievements.ValidCategory(category) {
					return fmt.Errorf("unknown category %q", category)
				}
				categories = []achievements.Category{achievements.Category(category)}
			}
			printCatalog(cmd.OutOrStdout(), categories)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list one category")
	return cmd
}

func printCatalog(w io.Writer, categories []achievements.Category) {
	for _, c := range categories {
		_, _ = fmt.Fprintln(w, titleStyle.Render(strings.ToUpper(string(c))))
		for _, a := range achievements.ByCategory(c) {
			_, _ = fmt.Fprintf(w, "  %s %-24s %-8s %3d pts  %s\n",
				a.Icon, a.Name, a.Tier, a.Points, mutedStyle.Render(a.Description))
		}
	}
}
