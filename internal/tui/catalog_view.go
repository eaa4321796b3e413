package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/kingrea/refit/internal/fingerprint"
	"github.com/kingrea/refit/internal/journal"
	"github.com/kingrea/refit/internal/notify"
	"github.com/kingrea/refit/overlay"
)

// dumpConfig renders behavior snapshots deterministically so the detail view
// does not jitter between refreshes.
var dumpConfig = spew.ConfigState{Indent: "  ", SortKeys: true}

var (
	detailTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	detailBodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	hintStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
)

// catalogView browses registered definitions and dumps a single definition's
// behavior snapshot on demand.
type catalogView struct {
	app        *App
	defList    list.Model
	detail     string
	detailID   string
	showDetail bool
}

type definitionItem struct {
	summary notify.DefinitionSummary
}

func (i definitionItem) Title() string {
	s := i.summary
	if s.Name != "" && s.Name != s.ID {
		return fmt.Sprintf("%s · %s", s.ID, s.Name)
	}
	return s.ID
}

func (i definitionItem) Description() string {
	s := i.summary
	return fmt.Sprintf("v%s · %d behavior(s) · fp %s", s.Version, s.Behaviors, s.Fingerprint)
}

func (i definitionItem) FilterValue() string { return i.summary.ID }

func newCatalogView(app *App) *catalogView {
	defList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	defList.Title = "Catalog"
	defList.SetShowStatusBar(false)
	defList.SetFilteringEnabled(false)
	return &catalogView{app: app, defList: defList}
}

// Reload rebuilds the definition list from the current registry.
func (v *catalogView) Reload() {
	summaries := overlay.RegistrySummaries(v.app.registry)
	items := make([]list.Item, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, definitionItem{summary: summary})
	}
	selected := v.defList.Index()
	v.defList.SetItems(items)
	if selected < len(items) {
		v.defList.Select(selected)
	}
	if v.showDetail {
		v.detail = v.buildDetail(v.detailID)
	}
}

func (v *catalogView) SetSize(width, height int) {
	v.defList.SetSize(width, height)
}

// ShowDefinition jumps straight to the detail screen for one definition.
func (v *catalogView) ShowDefinition(id string) {
	v.detailID = id
	v.detail = v.buildDetail(id)
	v.showDetail = true
}

// HandleEnter opens the detail view for the selected definition.
func (v *catalogView) HandleEnter() {
	if v.showDetail {
		return
	}
	item, ok := v.defList.SelectedItem().(definitionItem)
	if !ok {
		return
	}
	v.ShowDefinition(item.summary.ID)
}

// HandleEscape closes the detail view. It reports whether the key was
// consumed; a false return means the caller should leave the catalog.
func (v *catalogView) HandleEscape() bool {
	if !v.showDetail {
		return false
	}
	v.showDetail = false
	v.detail = ""
	v.detailID = ""
	return true
}

func (v *catalogView) Update(msg tea.Msg) tea.Cmd {
	if v.showDetail {
		return nil
	}
	var cmd tea.Cmd
	v.defList, cmd = v.defList.Update(msg)
	return cmd
}

func (v *catalogView) View() string {
	if v.showDetail {
		hint := hintStyle.Render("Esc → back to catalog")
		return lipgloss.JoinVertical(lipgloss.Left, v.detail, hint)
	}
	view := v.defList.View()
	if strings.TrimSpace(view) == "" {
		view = "No definitions registered"
	}
	hint := hintStyle.Render("Enter → inspect    Esc → back to menu")
	return lipgloss.JoinVertical(lipgloss.Left, view, hint)
}

func (v *catalogView) buildDetail(id string) string {
	def, err := v.app.registry.Resolve(id)
	if err != nil {
		return fmt.Sprintf("Definition %s is gone: %v", id, err)
	}
	info := def.Info()
	snapshot := def.Snapshot()

	title := detailTitleStyle.Render(fmt.Sprintf("%s · v%s", info.ID, info.Version))
	var meta []string
	if info.Name != "" && info.Name != info.ID {
		meta = append(meta, fmt.Sprintf("Name: %s", info.Name))
	}
	meta = append(meta,
		fmt.Sprintf("Behaviors: %d", len(snapshot)),
		fmt.Sprintf("Fingerprint: %s", fingerprint.Map(snapshot).String()),
	)
	body := detailBodyStyle.Render(strings.Join(meta, "\n"))
	dump := detailBodyStyle.Render(strings.TrimSpace(dumpConfig.Sdump(snapshot)))
	return lipgloss.JoinVertical(lipgloss.Left, title, body, "", dump)
}

// formatJournalEntry renders one journal line for the journal screen.
func formatJournalEntry(entry journal.Entry) string {
	stamp := entry.Time.Local().Format("15:04:05")
	switch entry.Kind {
	case journal.KindApplied:
		return fmt.Sprintf("%s  applied   %s → %s (keys: %s)",
			stamp, entry.Overlay, entry.Definition, strings.Join(entry.Keys, ", "))
	case journal.KindSkipped:
		return fmt.Sprintf("%s  skipped   %s → %s: %s", stamp, entry.Overlay, entry.Definition, entry.Note)
	case journal.KindFailed:
		return fmt.Sprintf("%s  failed    %s → %s: %s", stamp, entry.Overlay, entry.Definition, entry.Note)
	case journal.KindRegistered:
		return fmt.Sprintf("%s  registered %s (%s)", stamp, entry.Definition, entry.Note)
	case journal.KindReloaded:
		return fmt.Sprintf("%s  reloaded  %s", stamp, entry.Note)
	default:
		return fmt.Sprintf("%s  %s", stamp, entry.Kind)
	}
}
