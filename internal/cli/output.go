package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"scoop-go/internal/app"
	"scoop-go/internal/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#22A06B"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D93025"))
)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func printInstallResult(w io.Writer, result app.InstallResult) {
	for _, key := range result.Skipped {
		fmt.Fprintf(w, "%s is already installed\n", key)
	}
	if len(result.Report.Entries) == 0 {
		return
	}
	rows := make([][]string, 0, len(result.Report.Entries))
	for _, entry := range result.Report.Entries {
		status := okStyle.Render("installed")
		if !entry.OK() {
			status = failStyle.Render(fmt.Sprintf("failed at %s: %s", entry.FailedStep, errorMessage(entry.Err)))
		}
		rows = append(rows, []string{entry.App.Key(), entry.Version, status})
	}
	fmt.Fprintln(w, renderTable([]string{"App", "Version", "Status"}, rows))
}

func printPlan(w io.Writer, file types.PlanFile) {
	rows := make([][]string, 0, len(file.Entries))
	for i, entry := range file.Entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			entry.Bucket + "/" + entry.Name,
			entry.Version,
			strings.Join(entry.DependsOn, ", "),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "App", "Version", "Depends on"}, rows))
}

func printSearch(w io.Writer, result app.SearchResult) {
	if len(result.Matches) == 0 {
		fmt.Fprintln(w, "no matches")
		return
	}
	rows := make([][]string, 0, len(result.Matches))
	for _, match := range result.Matches {
		rows = append(rows, []string{match.App.Name, match.Version, match.App.Bucket})
	}
	fmt.Fprintln(w, renderTable([]string{"Name", "Version", "Bucket"}, rows))
}

func printList(w io.Writer, result app.ListResult) {
	if len(result.Apps) == 0 {
		fmt.Fprintln(w, "no apps installed")
		return
	}
	rows := make([][]string, 0, len(result.Apps))
	for _, summary := range result.Apps {
		current := summary.Current
		if current == "" {
			current = failStyle.Render("broken")
		}
		rows = append(rows, []string{
			summary.Name,
			current,
			summary.Bucket,
			string(summary.Architecture),
			strings.Join(summary.Versions, ", "),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"Name", "Current", "Bucket", "Arch", "Versions"}, rows))
}

func printUpgrade(w io.Writer, result app.UpgradeResult) {
	for _, name := range result.UpToDate {
		fmt.Fprintf(w, "%s is up to date\n", name)
	}
	if len(result.Candidates) == 0 {
		return
	}
	rows := make([][]string, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		rows = append(rows, []string{candidate.Bucket + "/" + candidate.Name, candidate.Current, candidate.Available})
	}
	fmt.Fprintln(w, renderTable([]string{"App", "Current", "Available"}, rows))
	printInstallResult(w, result.Install)
}

func printBuckets(w io.Writer, result app.BucketListResult) {
	if len(result.Buckets) == 0 {
		fmt.Fprintln(w, "no buckets")
		return
	}
	rows := make([][]string, 0, len(result.Buckets))
	for _, bucket := range result.Buckets {
		rows = append(rows, []string{bucket.Name, bucket.URL, strconv.Itoa(bucket.Apps)})
	}
	fmt.Fprintln(w, renderTable([]string{"Name", "Source", "Apps"}, rows))
}
