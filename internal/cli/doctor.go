package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/serialmon/internal/config"
	"github.com/rileyhilliard/serialmon/internal/doctor"
	"github.com/rileyhilliard/serialmon/internal/ui"
)

type doctorOptions struct {
	JSON bool
	Fix  bool
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Fixable  int  `json:"fixable"`
	AllClear bool `json:"all_clear"`
}

var doctorCategories = []string{"CONFIG", "SERIAL"}

// doctorCommand runs every check and reports the results. Problems are
// reported, not returned: the command only fails when output fails.
func doctorCommand(w io.Writer, opts doctorOptions) error {
	cfg, _, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		// The CONFIG checks report why; the SERIAL checks still run.
		cfg = nil
	}

	color := ui.ColorModeAuto
	if cfg != nil {
		color = cfg.Output.Color
	}
	if noColor {
		color = ui.ColorModeNever
	}
	ui.ConfigureColor(color, w)

	checks := collectChecks(cfg)
	results := doctor.RunAll(checks)
	if opts.Fix {
		results = doctor.FixAll(checks, results)
	}

	if opts.JSON {
		return WriteJSONSuccess(w, buildDoctorOutput(checks, results))
	}
	renderDoctorText(w, checks, results, opts.Fix)
	return nil
}

// collectChecks builds the check list. With a nil cfg the serial checks
// run against the --port flag alone.
func collectChecks(cfg *config.Config) []doctor.Check {
	port := portFlag
	if port == "" && cfg != nil {
		port = cfg.Port
	}

	initPath := ""
	if cfgFile == "" {
		initPath = filepath.Join(".", config.ConfigFileName)
	}

	checks := doctor.NewConfigChecks(cfgFile, initPath)
	return append(checks, doctor.NewSerialChecks(transport, port)...)
}

func buildDoctorOutput(checks []doctor.Check, results []doctor.CheckResult) DoctorOutput {
	grouped := groupResults(checks, results)
	out := DoctorOutput{Categories: make([]CategoryOutput, 0, len(doctorCategories))}
	for _, cat := range doctorCategories {
		if len(grouped[cat]) == 0 {
			continue
		}
		out.Categories = append(out.Categories, CategoryOutput{Name: cat, Results: grouped[cat]})
	}

	counts := doctor.CountByStatus(results)
	out.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		Fixable:  doctor.FixableCount(results),
		AllClear: !doctor.HasIssues(results),
	}
	return out
}

func groupResults(checks []doctor.Check, results []doctor.CheckResult) map[string][]doctor.CheckResult {
	grouped := make(map[string][]doctor.CheckResult)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], results[i])
	}
	return grouped
}

func renderDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult, fixed bool) {
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("serialmon diagnostic report"))
	fmt.Fprintln(w)

	grouped := groupResults(checks, results)
	for _, cat := range doctorCategories {
		if len(grouped[cat]) == 0 {
			continue
		}
		fmt.Fprintln(w, headerStyle.Render(cat))
		for _, r := range grouped[cat] {
			renderCheckResult(w, r)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	if !doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), doctor.Summary(results))
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), doctor.Summary(results))
	if doctor.FixableCount(results) > 0 && !fixed {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Run with %s to attempt automatic fixes where possible.\n",
			ui.MutedStyle().Render("--fix"))
	}
	fmt.Fprintln(w)
}

func renderCheckResult(w io.Writer, r doctor.CheckResult) {
	var symbol string
	var style lipgloss.Style

	switch r.Status {
	case doctor.StatusPass:
		symbol, style = ui.SymbolSuccess, ui.SuccessStyle()
	case doctor.StatusWarn:
		symbol, style = ui.SymbolWarning, ui.WarningStyle()
	default:
		symbol, style = ui.SymbolFail, ui.ErrorStyle()
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), r.Message)
	if r.Suggestion != "" && r.Status != doctor.StatusPass {
		for _, line := range strings.Split(r.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", ui.MutedStyle().Render(line))
		}
	}
}
