// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for refit.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/refit/behavior"
	"github.com/kingrea/refit/catalog"
	"github.com/kingrea/refit/internal/config"
	"github.com/kingrea/refit/internal/journal"
	"github.com/kingrea/refit/internal/logging"
	"github.com/kingrea/refit/internal/notify"
	"github.com/kingrea/refit/internal/state"
	"github.com/kingrea/refit/internal/watch"
	"github.com/kingrea/refit/overlay"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu appState = iota // Main menu with "Apply Overlays", etc.
	stateCatalog                  // Browsing registered definitions
	stateJournal                  // Tailing the apply journal
	stateFlags                    // Toggling feature flags
)

const boardRefreshInterval = 3 * time.Second

// ProjectLoader resolves the overlay plan for the current project. Tests can
// swap it to control what the TUI sees.
type ProjectLoader func(ctx *overlay.Context) (*overlay.Plan, []catalog.DocumentFile, error)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithProjectLoader overrides how definitions and overlays are loaded.
func WithProjectLoader(loader ProjectLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.projectLoader = loader
		}
	}
}

// WithEventRouter shares an existing router instead of creating a private one.
func WithEventRouter(router *notify.Router) AppOption {
	return func(a *App) {
		if router != nil {
			a.router = router
		}
	}
}

type boardFocus int

const (
	focusMenu boardFocus = iota
	focusDefinitions
)

type statusRefreshMsg struct {
	summaries []notify.DefinitionSummary
	drift     []state.Drift
	err       error
	periodic  bool
}

type applyFinishedMsg struct {
	report *overlay.Report
	dryRun bool
	err    error
}

type reloadFinishedMsg struct {
	ctx         *overlay.Context
	plan        *overlay.Plan
	definitions int
	err         error
}

type watchEventMsg struct {
	paths []string
}

type watchClosedMsg struct{}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state    appState
	config   *config.Config
	logger   *logging.Logger
	journal  *journal.Journal
	router   *notify.Router
	registry *behavior.Registry
	plan     *overlay.Plan
	applyCtx *overlay.Context
	watcher  *watch.Watcher

	projectLoader ProjectLoader
	catalogView   *catalogView

	// UI components
	mainMenu      list.Model
	flagsMenu     list.Model
	statusMsg     string
	err           error
	lastLogStatus string

	// Window size (we get this from bubbletea)
	width  int
	height int

	// Status board data
	boardFocus   boardFocus
	defItems     []notify.DefinitionSummary
	defSelection int
	driftByID    map[string]state.DriftStatus
	boardErr     string
	lastReport   *overlay.Report
	applying     bool
	watchStarted bool
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

type flagItem struct {
	name  string
	value bool
}

func (i flagItem) Title() string {
	if i.value {
		return fmt.Sprintf("%s · on", i.name)
	}
	return fmt.Sprintf("%s · off", i.name)
}
func (i flagItem) Description() string { return "Enter toggles and persists the flag" }
func (i flagItem) FilterValue() string { return i.name }

// NewApp creates a new App instance
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.ProjectDir)
	if err != nil {
		logger = nil
	}
	jnl, err := journal.New(cfg.JournalPath())
	if err != nil {
		jnl = nil
	}

	mainMenu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "⬡ REFIT"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	flagsMenu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	flagsMenu.Title = "Feature Flags"
	flagsMenu.SetShowStatusBar(false)
	flagsMenu.SetFilteringEnabled(false)

	app := &App{
		state:         stateMainMenu,
		config:        cfg,
		logger:        logger,
		journal:       jnl,
		projectLoader: overlay.LoadProject,
		mainMenu:      mainMenu,
		flagsMenu:     flagsMenu,
		boardFocus:    focusMenu,
		driftByID:     map[string]state.DriftStatus{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.router == nil {
		app.router = notify.NewRouter(notify.RouterWithLogger(logger))
	}
	app.catalogView = newCatalogView(app)

	if err := app.loadProject(); err != nil {
		app.err = err
		app.statusMsg = fmt.Sprintf("Load failed: %v", err)
	}
	app.mainMenu.SetItems(buildMainMenu(app.plan))
	app.refreshFlagsMenu()

	watchDirs := append([]string{cfg.DefinitionsDir()}, cfg.OverlayDirs()...)
	if w, err := watch.New(watchDirs, watch.WithLogger(logger)); err == nil {
		app.watcher = w
	}
	return app, nil
}

// loadProject registers definitions and plans overlays on a fresh registry.
func (a *App) loadProject() error {
	registry := behavior.NewRegistry()
	ctx := &overlay.Context{
		Config:   a.config,
		Registry: registry,
		Journal:  a.journal,
		Events:   a.router,
		Logger:   a.logger,
	}
	plan, _, err := a.projectLoader(ctx)
	if err != nil {
		return err
	}
	a.registry = registry
	a.applyCtx = ctx
	a.plan = plan
	return nil
}

// buildMainMenu creates the main menu items based on the planned overlays
func buildMainMenu(plan *overlay.Plan) []list.Item {
	planned := 0
	if plan != nil {
		planned = len(plan.Steps)
	}
	return []list.Item{
		menuItem{
			title: "Apply Overlays",
			desc:  fmt.Sprintf("Merge %d planned overlay(s) into the catalog", planned),
		},
		menuItem{
			title: "Dry Run",
			desc:  "Preview outcomes without touching behaviors",
		},
		menuItem{title: "Browse Catalog", desc: "Inspect registered definitions"},
		menuItem{title: "View Journal", desc: "Tail the apply journal"},
		menuItem{title: "Toggle Flags", desc: "Flip feature flags for when clauses"},
		menuItem{title: "Exit", desc: "Quit refit"},
	}
}

func (a *App) refreshFlagsMenu() {
	names := a.config.FlagNames()
	items := make([]list.Item, 0, len(names))
	for _, name := range names {
		items = append(items, flagItem{name: name, value: a.config.Flag(name)})
	}
	selected := a.flagsMenu.Index()
	a.flagsMenu.SetItems(items)
	if selected < len(items) {
		a.flagsMenu.Select(selected)
	}
}

func (a *App) logProgress(status string) {
	status = strings.TrimSpace(status)
	if status == "" || status == a.lastLogStatus {
		return
	}
	a.lastLogStatus = status
	if a.logger != nil {
		a.logger.Printf("%s", status)
	}
}

func (a *App) setStatus(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	a.statusMsg = message
	a.logProgress(message)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.fetchStatusSnapshot(), a.scheduleStatusRefresh(), a.startWatch())
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		a.flagsMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		a.catalogView.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		return a, nil

	case statusRefreshMsg:
		if msg.err != nil {
			a.boardErr = msg.err.Error()
		} else {
			a.boardErr = ""
			a.defItems = msg.summaries
			if len(a.defItems) == 0 {
				a.defSelection = 0
			} else if a.defSelection >= len(a.defItems) {
				a.defSelection = len(a.defItems) - 1
			}
			a.driftByID = map[string]state.DriftStatus{}
			for _, d := range msg.drift {
				a.driftByID[d.Definition] = d.Status
			}
		}
		// Only the periodic chain re-arms its tick; one-off refreshes
		// (manual, post-apply) must not multiply the timers.
		if msg.periodic {
			return a, a.scheduleStatusRefresh()
		}
		return a, nil

	case applyFinishedMsg:
		a.applying = false
		a.lastReport = msg.report
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Apply stopped: %v", msg.err))
		} else if msg.report != nil {
			counts := msg.report.Counts()
			label := "Apply"
			if msg.dryRun {
				label = "Dry run"
			}
			a.setStatus(fmt.Sprintf("%s finished: %d applied, %d skipped, %d failed",
				label, counts[overlay.OutcomeApplied], counts[overlay.OutcomeSkipped], counts[overlay.OutcomeFailed]))
		}
		return a, a.fetchStatusSnapshot()

	case reloadFinishedMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Reload failed: %v", msg.err))
			return a, nil
		}
		a.registry = msg.ctx.Registry
		a.applyCtx = msg.ctx
		a.plan = msg.plan
		a.mainMenu.SetItems(buildMainMenu(a.plan))
		a.catalogView.Reload()
		a.setStatus(fmt.Sprintf("Catalog reloaded: %d definition(s), %d overlay(s)", msg.definitions, len(msg.plan.Steps)))
		return a, a.fetchStatusSnapshot()

	case watchEventMsg:
		a.setStatus(fmt.Sprintf("Change detected in %d file(s), reloading", len(msg.paths)))
		return a, tea.Batch(a.reloadProject(msg.paths), a.listenWatch())

	case watchClosedMsg:
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c":
			return a, a.quit()
		case "q":
			if a.state == stateMainMenu {
				return a, a.quit()
			}
		case "esc":
			if a.state == stateCatalog && a.catalogView.HandleEscape() {
				return a, nil
			}
			if a.state != stateMainMenu {
				return a.returnToMainMenu()
			}
		case "r":
			a.setStatus("Refreshing status board")
			return a, a.fetchStatusSnapshot()
		case "tab":
			if a.state == stateMainMenu {
				if a.boardFocus == focusMenu && len(a.defItems) > 0 {
					a.boardFocus = focusDefinitions
				} else {
					a.boardFocus = focusMenu
				}
			}
		case "right", "l":
			if a.state == stateMainMenu && len(a.defItems) > 0 {
				a.boardFocus = focusDefinitions
			}
		case "left", "h":
			if a.state == stateMainMenu {
				a.boardFocus = focusMenu
			}
		case "up", "k":
			if a.state == stateMainMenu && a.boardFocus == focusDefinitions && len(a.defItems) > 0 {
				if a.defSelection > 0 {
					a.defSelection--
				}
				return a, nil
			}
		case "down", "j":
			if a.state == stateMainMenu && a.boardFocus == focusDefinitions && len(a.defItems) > 0 {
				if a.defSelection < len(a.defItems)-1 {
					a.defSelection++
				}
				return a, nil
			}
		case "enter":
			switch a.state {
			case stateMainMenu:
				if a.boardFocus == focusDefinitions {
					return a.openSelectedDefinition()
				}
				return a.handleMainMenuSelection()
			case stateCatalog:
				a.catalogView.HandleEnter()
				return a, nil
			case stateFlags:
				return a, a.toggleSelectedFlag()
			}
		}
	}

	var cmds []tea.Cmd
	switch a.state {
	case stateMainMenu:
		if a.boardFocus == focusMenu {
			var menuCmd tea.Cmd
			a.mainMenu, menuCmd = a.mainMenu.Update(msg)
			if menuCmd != nil {
				cmds = append(cmds, menuCmd)
			}
		}
	case stateCatalog:
		if cmd := a.catalogView.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case stateFlags:
		var menuCmd tea.Cmd
		a.flagsMenu, menuCmd = a.flagsMenu.Update(msg)
		if menuCmd != nil {
			cmds = append(cmds, menuCmd)
		}
	}

	return a, tea.Batch(cmds...)
}

// handleMainMenuSelection processes menu item selection
func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}

	switch item.title {
	case "Apply Overlays":
		return a, a.runApply(false)

	case "Dry Run":
		return a, a.runApply(true)

	case "Browse Catalog":
		a.state = stateCatalog
		a.catalogView.Reload()
		a.setStatus("Browsing catalog")
		return a, nil

	case "View Journal":
		a.state = stateJournal
		a.setStatus("Viewing journal")
		return a, nil

	case "Toggle Flags":
		a.state = stateFlags
		a.refreshFlagsMenu()
		a.setStatus("Enter toggles a flag, Esc returns")
		return a, nil

	case "Exit":
		return a, a.quit()
	}

	return a, nil
}

func (a *App) openSelectedDefinition() (tea.Model, tea.Cmd) {
	if len(a.defItems) == 0 {
		return a, nil
	}
	id := a.defItems[a.defSelection].ID
	a.state = stateCatalog
	a.catalogView.Reload()
	a.catalogView.ShowDefinition(id)
	return a, nil
}

func (a *App) toggleSelectedFlag() tea.Cmd {
	item, ok := a.flagsMenu.SelectedItem().(flagItem)
	if !ok {
		a.setStatus("No flag selected")
		return nil
	}
	next := !item.value
	if err := a.config.SetFlag(item.name, next); err != nil {
		a.setStatus(fmt.Sprintf("Flag update failed: %v", err))
		return nil
	}
	a.refreshFlagsMenu()
	a.setStatus(fmt.Sprintf("Flag %s set to %v", item.name, next))
	return nil
}

// returnToMainMenu transitions back to the main menu
func (a *App) returnToMainMenu() (tea.Model, tea.Cmd) {
	a.state = stateMainMenu
	a.mainMenu.SetItems(buildMainMenu(a.plan))
	return a, nil
}

func (a *App) quit() tea.Cmd {
	if a.watcher != nil && a.watchStarted {
		a.watcher.Stop()
		a.watchStarted = false
	}
	return tea.Quit
}

func (a *App) runApply(dryRun bool) tea.Cmd {
	if a.applying {
		a.setStatus("An apply run is already in progress")
		return nil
	}
	if a.applyCtx == nil || a.plan == nil {
		a.setStatus("Nothing to apply, the project failed to load")
		return nil
	}
	a.applying = true
	if dryRun {
		a.setStatus("Dry run started")
	} else {
		a.setStatus("Apply started")
	}
	ctx, plan := a.applyCtx, a.plan
	return func() tea.Msg {
		report, err := overlay.Apply(ctx, plan, overlay.Options{DryRun: dryRun})
		return applyFinishedMsg{report: report, dryRun: dryRun, err: err}
	}
}

func (a *App) startWatch() tea.Cmd {
	if a.watcher == nil || a.watchStarted {
		return nil
	}
	if err := a.watcher.Start(context.Background()); err != nil {
		a.setStatus(fmt.Sprintf("Watch disabled: %v", err))
		return nil
	}
	a.watchStarted = true
	return a.listenWatch()
}

func (a *App) listenWatch() tea.Cmd {
	watcher := a.watcher
	if watcher == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-watcher.Events()
		if !ok {
			return watchClosedMsg{}
		}
		return watchEventMsg{paths: event.Paths}
	}
}

// reloadProject rebuilds the registry and plan off the UI goroutine, then
// records the reload in the journal and notifies subscribers.
func (a *App) reloadProject(paths []string) tea.Cmd {
	cfg := a.config
	jnl := a.journal
	router := a.router
	logger := a.logger
	loader := a.projectLoader
	return func() tea.Msg {
		registry := behavior.NewRegistry()
		ctx := &overlay.Context{
			Config:   cfg,
			Registry: registry,
			Journal:  jnl,
			Events:   router,
			Logger:   logger,
		}
		plan, files, err := loader(ctx)
		if err != nil {
			return reloadFinishedMsg{err: err}
		}
		jnl.Append(journal.Entry{
			Kind: journal.KindReloaded,
			Note: fmt.Sprintf("%d file(s) changed", len(paths)),
		})
		if router != nil {
			router.Route(notify.NewEvent(notify.TypeCatalogReloaded, "", "", "", map[string]any{
				"definitions": len(files),
				"overlays":    len(plan.Steps),
				"paths":       paths,
			}))
		}
		return reloadFinishedMsg{ctx: ctx, plan: plan, definitions: len(files)}
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
	}
	if leftWidth < 20 {
		leftWidth = width
		rightWidth = 0
	}
	if a.state == stateMainMenu && a.boardFocus == focusMenu {
		a.mainMenu.SetSize(max(20, leftWidth-4), max(10, a.height-10))
	}
	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case stateCatalog:
		content = a.catalogView.View()
	case stateJournal:
		content = a.renderJournal()
	case stateFlags:
		content = a.renderFlags()
	}
	return a.renderStatusBoard(content, leftWidth, rightWidth)
}

func (a *App) renderLogPanel() string {
	if a.logger == nil {
		return ""
	}
	lines := a.logger.Tail(8)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("LOG · refit.log")
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
	return box
}

func (a *App) renderStatusBoard(mainContent string, leftWidth, rightWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ REFIT")
	left := lipgloss.JoinVertical(lipgloss.Left,
		a.renderProjectPanel(leftWidth-4),
		"",
		a.renderMainArea(mainContent, leftWidth-4),
	)
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, leftWidth)).
		Render(left)
	var body string
	if rightWidth > 0 {
		right := a.renderDefinitionsPanel(rightWidth - 4)
		rightBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(max(20, rightWidth)).
			Render(right)
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	} else {
		body = leftBox
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderProjectPanel(width int) string {
	planned := 0
	if a.plan != nil {
		planned = len(a.plan.Steps)
	}
	lines := []string{
		fmt.Sprintf("Catalog: %d definition(s) · %d overlay(s) planned", len(a.defItems), planned),
	}
	if a.config.Strict() {
		lines = append(lines, "Mode: strict (first failure aborts)")
	} else {
		lines = append(lines, "Mode: lenient (failures are recorded)")
	}
	if a.lastReport != nil {
		counts := a.lastReport.Counts()
		run := a.lastReport.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		label := "Last run"
		if a.lastReport.DryRun {
			label = "Last dry run"
		}
		lines = append(lines, fmt.Sprintf("%s %s: %d applied · %d skipped · %d failed",
			label, run, counts[overlay.OutcomeApplied], counts[overlay.OutcomeSkipped], counts[overlay.OutcomeFailed]))
	} else {
		lines = append(lines, "Last run: none this session")
	}
	if drifted := a.countDrift(); drifted > 0 {
		lines = append(lines, fmt.Sprintf("Drift: %d definition(s) differ from the last run", drifted))
	}
	if a.boardErr != "" {
		lines = append(lines, fmt.Sprintf("⚠ %s", a.boardErr))
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) countDrift() int {
	count := 0
	for _, status := range a.driftByID {
		if status != state.DriftUnchanged {
			count++
		}
	}
	return count
}

func (a *App) renderMainArea(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		content = "Ready to apply overlays."
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(content)
}

func (a *App) renderFlags() string {
	view := a.flagsMenu.View()
	if strings.TrimSpace(view) == "" {
		view = "No flags defined. Add them under flags: in .refit/config.yaml"
	}
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("Enter → toggle flag    Esc → back")
	return lipgloss.JoinVertical(lipgloss.Left, view, hint)
}

func (a *App) renderJournal() string {
	if a.journal == nil {
		return "Journal unavailable"
	}
	entries := a.journal.Tail(12)
	if len(entries) == 0 {
		return "Journal is empty. Apply overlays to populate it."
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, formatJournalEntry(entry))
	}
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("Esc → back")
	return lipgloss.JoinVertical(lipgloss.Left, strings.Join(lines, "\n"), hint)
}

func (a *App) renderDefinitionsPanel(width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("Definitions (%d)", len(a.defItems)))
	if len(a.defItems) == 0 {
		note := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("No definitions registered. Add YAML under .refit/definitions/.")
		return lipgloss.JoinVertical(lipgloss.Left, title, note, a.renderDefinitionInstructions())
	}
	var rows []string
	for i, item := range a.defItems {
		selected := a.boardFocus == focusDefinitions && i == a.defSelection
		rows = append(rows, a.renderDefinitionItem(item, selected, width))
	}
	body := strings.Join(rows, "\n")
	return lipgloss.JoinVertical(lipgloss.Left, title, body, a.renderDefinitionInstructions())
}

func (a *App) renderDefinitionInstructions() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("Enter → inspect definition    Tab → switch focus")
}

func (a *App) renderDefinitionItem(item notify.DefinitionSummary, selected bool, width int) string {
	line1 := item.ID
	if item.Name != "" && item.Name != item.ID {
		line1 = fmt.Sprintf("%s · %s", item.ID, item.Name)
	}
	line2 := fmt.Sprintf("v%s · %d behavior(s)", item.Version, item.Behaviors)
	line3 := fmt.Sprintf("fp %s", item.Fingerprint)
	if status, ok := a.driftByID[item.ID]; ok && status != state.DriftUnchanged {
		line3 += fmt.Sprintf(" · ✱ %s", status)
	}
	content := strings.Join([]string{line1, line2, line3}, "\n")
	style := lipgloss.NewStyle().Width(max(20, width)).Padding(0, 0, 1, 0)
	if selected {
		style = style.Bold(true).Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	}
	return style.Render(content)
}

func (a *App) fetchStatusSnapshot() tea.Cmd {
	return func() tea.Msg {
		return a.buildStatusSnapshot(false)
	}
}

func (a *App) scheduleStatusRefresh() tea.Cmd {
	return tea.Tick(boardRefreshInterval, func(time.Time) tea.Msg {
		return a.buildStatusSnapshot(true)
	})
}

func (a *App) buildStatusSnapshot(periodic bool) statusRefreshMsg {
	summaries := overlay.RegistrySummaries(a.registry)
	record, err := state.Load(a.config.LastApplyPath())
	if err != nil {
		return statusRefreshMsg{summaries: summaries, err: err, periodic: periodic}
	}
	drift := state.Diff(record, overlay.DefinitionFingerprints(a.registry))
	return statusRefreshMsg{summaries: summaries, drift: drift, periodic: periodic}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
