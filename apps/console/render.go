package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/trezcool/masomo-console/core/resource"
)

const maxCellWidth = 40

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted  = ac("240", "243")
	colorBorder = ac("250", "240")
	colorAccent = ac("25", "111")
	colorOK     = ac("28", "114")
	colorErr    = ac("160", "203")
)

var styles = struct {
	title, muted, header, cell, border, key, ok, err lipgloss.Style
}{
	title:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	muted:  lipgloss.NewStyle().Foreground(colorMuted),
	header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
	cell:   lipgloss.NewStyle().Padding(0, 1),
	border: lipgloss.NewStyle().Foreground(colorBorder),
	key:    lipgloss.NewStyle().Foreground(colorMuted).Width(18),
	ok:     lipgloss.NewStyle().Foreground(colorOK),
	err:    lipgloss.NewStyle().Foreground(colorErr),
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header
			}
			return styles.cell
		}).
		Headers(headers...).
		Rows(rows...)
}

func renderDefinitions(w io.Writer, defs []resource.Definition) {
	rows := make([][]string, 0, len(defs))
	for _, def := range defs {
		rows = append(rows, []string{
			def.Name,
			def.Title,
			def.Endpoints.ListPath,
			strings.Join(def.SearchFields, ", "),
			strings.Join(def.Toggles, ", "),
		})
	}
	fmt.Fprintln(w, newTable([]string{"NAME", "TITLE", "PATH", "SEARCH", "TOGGLES"}, rows).Render())
}

// columns lists the fields shown for each row of def.
func columns(def resource.Definition) []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(fields ...string) {
		for _, f := range fields {
			if !seen[f] {
				seen[f] = true
				cols = append(cols, f)
			}
		}
	}
	sortField := def.SortField
	if sortField == "" {
		sortField = "createdAt"
	}
	add(def.IDField)
	add(def.SearchFields...)
	add(def.Toggles...)
	add(sortField)
	return cols
}

func renderView(w io.Writer, def resource.Definition, v resource.View) {
	header := styles.title.Render(def.Title)
	summary := fmt.Sprintf("page %d/%d · %d items", v.Page, max(1, v.TotalPages), v.TotalItems)
	if v.Search != "" {
		summary += fmt.Sprintf(" · search %q", v.Search)
	}
	if len(v.Where) > 0 {
		summary += " · where " + formatParams(v.Where)
	}
	fmt.Fprintln(w, header+" "+styles.muted.Render(summary))
	if v.Err != "" {
		fmt.Fprintln(w, styles.err.Render("load failed: "+v.Err))
	}
	if len(v.Items) == 0 {
		fmt.Fprintln(w, styles.muted.Render(fmt.Sprintf("no %s", strings.ToLower(def.Title))))
		return
	}

	cols := columns(def)
	rows := make([][]string, 0, len(v.Items))
	for _, e := range v.Items {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = truncate(formatValue(e[col]), maxCellWidth)
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(w, newTable(cols, rows).Render())
	fmt.Fprintln(w, styles.muted.Render(fmt.Sprintf("showing %d-%d of %d", v.StartIndex+1, v.EndIndex, v.TotalItems)))
}

// renderEntity prints every field of e, identifier first.
func renderEntity(w io.Writer, def resource.Definition, e resource.Entity) {
	keys := make([]string, 0, len(e))
	for k := range e {
		if k != def.IDField {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := e[def.IDField]; ok {
		keys = append([]string{def.IDField}, keys...)
	}
	for _, k := range keys {
		fmt.Fprintln(w, styles.key.Render(k)+formatValue(e[k]))
	}
}

func renderDialog(w io.Writer, def resource.Definition, state resource.DialogState, msg string) {
	switch st := state.(type) {
	case resource.Creating:
		fmt.Fprintln(w, styles.title.Render("new "+def.Name))
		renderEntity(w, def, st.Draft)
	case resource.Editing:
		id, _ := st.Entity.ID(def.IDField)
		fmt.Fprintln(w, styles.title.Render(fmt.Sprintf("editing %s %s", def.Name, id)))
		renderEntity(w, def, st.Entity)
		if len(st.Patch) > 0 {
			fmt.Fprintln(w, styles.muted.Render("changes:"))
			renderEntity(w, def, st.Patch)
		}
	default:
		fmt.Fprintln(w, styles.muted.Render("no dialog open"))
		return
	}
	if msg != "" {
		fmt.Fprintln(w, styles.err.Render(msg))
	}
}

func renderNotification(w io.Writer, n resource.Notification) {
	if n.Level == resource.LevelError {
		fmt.Fprintln(w, styles.err.Render("✗ "+n.Message))
		return
	}
	fmt.Fprintln(w, styles.ok.Render("✓ "+n.Message))
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "yes"
		}
		return "no"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}
	return strings.Join(pairs, " ")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
