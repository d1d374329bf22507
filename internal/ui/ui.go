// Package ui prints styled progress and reports to the terminal.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/agroplan/internal/model"
	"github.com/papapumpkin/agroplan/internal/plan"
	"github.com/papapumpkin/agroplan/internal/solver"
	"github.com/papapumpkin/agroplan/internal/verify"
)

// Printer writes human-readable output. It never writes plans in their
// export format; those go to stdout through plan.Write.
type Printer struct {
	w  io.Writer
	st styles
}

// New returns a printer on stderr.
func New() *Printer {
	return NewWriter(os.Stderr)
}

// NewWriter returns a printer on w.
func NewWriter(w io.Writer) *Printer {
	return &Printer{w: w, st: newStyles(lipgloss.NewRenderer(w))}
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.w, s)
}

// Banner prints the program name and the command being run.
func (p *Printer) Banner(command string) {
	p.println(p.st.banner.Render("agroplan " + p.st.label.Render(command)))
}

// Info prints a dimmed status line.
func (p *Printer) Info(msg string) {
	p.println(p.st.muted.Render(msg))
}

// Error prints msg as an error.
func (p *Printer) Error(msg string) {
	p.println(p.st.danger.Render("error: ") + msg)
}

// Problem summarises the loaded inputs.
func (p *Printer) Problem(slots, future, beds, rules int) {
	p.println(p.st.heading.Render("problem"))
	p.kv("slots", fmt.Sprintf("%d (%d to place)", slots, future))
	p.kv("beds", strconv.Itoa(beds))
	p.kv("rules", strconv.Itoa(rules))
}

func (p *Printer) kv(key, value string) {
	p.println("  " + p.st.label.Render(fmt.Sprintf("%-12s", key+":")) + " " + value)
}

// ModelStats prints the constraints posted per rule.
func (p *Printer) ModelStats(stats []model.RuleStats) {
	p.println(p.st.heading.Render("constraints"))
	total := 0
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		total += s.Constraints
		rows = append(rows, []string{s.Rule, strconv.Itoa(s.Constraints), kinds(s.Kinds), s.Elapsed.Round(time.Microsecond).String()})
	}
	p.table([]string{"rule", "count", "kinds", "compile"}, rows, nil)
	p.println(p.st.muted.Render(fmt.Sprintf("  %d constraints", total)))
}

func kinds(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s×%d", k, m[k])
	}
	return strings.Join(parts, " ")
}

// Outcome reports the result of one Solve call.
func (p *Printer) Outcome(n int, elapsed time.Duration, err error) {
	secs := fmt.Sprintf("(%.2fs)", elapsed.Seconds())
	switch {
	case err == nil:
		p.println(p.st.success.Render(fmt.Sprintf("%s solution %d", iconDone, n)) + " " + p.st.muted.Render(secs))
	case errors.Is(err, model.ErrInfeasible):
		p.println(p.st.danger.Render(iconFailed+" infeasible") + " no plan satisfies every rule " + p.st.muted.Render(secs))
	case errors.Is(err, model.ErrExhausted):
		p.println(p.st.muted.Render(fmt.Sprintf("no further solution after %d %s", n, secs)))
	case errors.Is(err, model.ErrLimitReached):
		p.println(p.st.warn.Render(iconLimit+" search limit reached") + " " + p.st.muted.Render(secs))
	default:
		p.Error(err.Error())
	}
}

// Plan prints a plan as a table, past rows dimmed.
func (p *Printer) Plan(pl *plan.Plan) {
	rows := make([][]string, len(pl.Rows))
	past := make([]bool, len(pl.Rows))
	for i, r := range pl.Rows {
		rows[i] = []string{
			strconv.Itoa(r.Slot), r.Crop, r.Type,
			r.Start.ISO(), r.End.ISO(), strconv.Itoa(r.Bed),
		}
		past[i] = r.Past
	}
	p.table([]string{"slot", "crop", "type", "start", "end", "bed"}, rows, past)
}

// Verification prints a check report.
func (p *Printer) Verification(res *verify.Result) {
	p.println(p.st.heading.Render("checks"))
	for _, c := range res.Checks {
		if c.Passed {
			p.println("  " + p.st.success.Render(iconDone) + " " + c.Name)
			continue
		}
		p.println("  " + p.st.danger.Render(iconFailed+" "+c.Name) + p.st.muted.Render(fmt.Sprintf(" (%d)", len(c.Violations))))
		for _, v := range c.Violations {
			p.println("      " + p.st.muted.Render(iconItem) + " " + fmt.Sprintf("%s: slots %v on beds %v", v.Message, v.Slots, v.Beds))
		}
	}
	if res.Passed {
		p.println(p.st.success.Render("plan satisfies every check"))
	} else {
		p.println(p.st.danger.Render(fmt.Sprintf("%d violation(s)", len(res.Violations()))))
	}
}

// Unsatisfiable lists rule sets that cannot hold together.
func (p *Printer) Unsatisfiable(sets [][]string) {
	if len(sets) == 0 {
		p.Info("no small conflicting rule set found")
		return
	}
	p.println(p.st.heading.Render("conflicting rules"))
	for _, s := range sets {
		if len(s) == 0 {
			p.println("  " + p.st.danger.Render(iconItem) + " the calendar does not fit the beds without any rule")
			continue
		}
		p.println("  " + p.st.danger.Render(iconItem) + " " + strings.Join(s, " + "))
	}
}

// Strategies lists the registered search strategies.
func (p *Printer) Strategies(infos []solver.StrategyInfo) {
	rows := make([][]string, len(infos))
	for i, s := range infos {
		rows[i] = []string{s.Name, s.Description}
	}
	p.table([]string{"strategy", "description"}, rows, nil)
}

// HistoryRow is one archived run as printed by History.
type HistoryRow struct {
	RunID     string
	Created   time.Time
	Command   string
	Outcome   string
	Solutions int
	Elapsed   time.Duration
}

// History prints archived runs, most recent first.
func (p *Printer) History(entries []HistoryRow) {
	if len(entries) == 0 {
		p.Info("no archived run")
		return
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.RunID, e.Created.Local().Format(time.DateTime), e.Command, e.Outcome,
			strconv.Itoa(e.Solutions), e.Elapsed.Round(time.Millisecond).String(),
		}
	}
	p.table([]string{"run", "created", "command", "outcome", "solutions", "elapsed"}, rows, nil)
}

// WatchChange reports a modified input file.
func (p *Printer) WatchChange(path string) {
	p.println(p.st.warn.Render(iconWatch) + " " + path + p.st.muted.Render(" changed, revalidating"))
}

// table prints left-aligned columns. Rows flagged in dim are muted.
func (p *Printer) table(header []string, rows [][]string, dim []bool) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = p.st.cell.Width(widths[i] + 2).Render(c)
		}
		return "  " + style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}
	p.println(line(header, p.st.heading))
	for i, r := range rows {
		style := lipgloss.NewStyle()
		if dim != nil && dim[i] {
			style = p.st.past
		}
		p.println(line(r, style))
	}
}
