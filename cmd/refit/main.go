package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/refit/behavior"
	"github.com/kingrea/refit/catalog"
	"github.com/kingrea/refit/internal/config"
	"github.com/kingrea/refit/internal/fingerprint"
	"github.com/kingrea/refit/internal/journal"
	"github.com/kingrea/refit/internal/lint"
	"github.com/kingrea/refit/internal/logging"
	"github.com/kingrea/refit/internal/state"
	"github.com/kingrea/refit/internal/tui"
	"github.com/kingrea/refit/overlay"
)

var (
	// Global flags
	verbose    bool
	projectDir string

	// Apply flags
	applyDryRun bool
	applyStrict bool

	// Show flags
	showDump bool

	// Journal flags
	journalTail int

	// Logger
	logger *zap.Logger
)

// dumpConfig renders behavior snapshots deterministically for --dump.
var dumpConfig = spew.ConfigState{Indent: "  ", SortKeys: true}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "refit",
	Short: "refit - conditional behavior overlays for definition catalogs",
	Long: `refit reworks registered definitions by merging overlay documents
whose conditions hold into the definition's shared behavior map. Every
instance of a definition reads the shared map, so an applied overlay is
visible immediately without rebuilding anything.

Run without arguments to open the interactive board.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip logger init for the interactive board (it has its own log panel)
		if cmd.Name() == "inspect" || (cmd.Use == "refit" && cmd.CalledAs() == "refit") {
			return nil
		}

		logConfig := zap.NewProductionConfig()
		if verbose {
			logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = logConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBoard()
	},
}

// initCmd seeds the .refit tree in the current project
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the .refit directory in this project",
	Long: `Creates the .refit/ directory structure:

  definitions/  behavior definition documents (*.yaml)
  overlays/     override documents (YAML, JSONC, or Go scripts)
  logs/         apply log
  journal/      append-only apply journal
  state/        last-apply run record

A starter definition and overlay are seeded so "refit apply" has
something to rework. Existing files are left untouched.`,
	RunE: runInit,
}

// applyCmd plans and applies the project's overlays
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the project's overlays to its definitions",
	Long: `Registers every definition document under .refit/definitions, plans
the configured overlay directories, and merges each overlay whose
condition holds into its target definition.

Requirement edges order the plan; an overlay whose requirement did not
apply is skipped. In lenient mode failures are recorded and the run
continues; --strict aborts on the first failure instead.`,
	RunE: runApply,
}

// showCmd prints the catalog or one definition's behaviors
var showCmd = &cobra.Command{
	Use:   "show [definition-id]",
	Short: "Show a definition's behaviors, or list the catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE:  showDefinitions,
}

// inspectCmd opens the interactive board explicitly
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Open the interactive status board",
	Long: `Opens the board the bare "refit" command launches: catalog browsing,
journal tail, flag toggles, and apply or dry-run actions. The definition
and overlay directories are watched while the board is open, and edits
reload the catalog automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBoard()
	},
}

// statusCmd reports the last run and definition drift
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last apply run and definition drift",
	RunE:  showStatus,
}

// journalCmd tails the apply journal
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent apply journal entries",
	RunE:  showJournal,
}

// validateCmd lints documents without applying anything
var validateCmd = &cobra.Command{
	Use:   "validate [dir ...]",
	Short: "Validate overlay documents without applying them",
	Long: `Parses overlay documents and reports every problem found, without
merging anything.

With no arguments the project's configured overlay directories are
checked and overlay targets are verified against the registered
definition catalog. With explicit directories only the documents
themselves are checked.`,
	RunE: runValidate,
}

// flagsCmd lists the feature flags overlays can condition on
var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "List the project's feature flags",
	Long: `Lists the feature flags from .refit/config.yaml. Overlay "when.flag"
clauses read these values when conditions are evaluated.`,
	RunE: listFlags,
}

var flagsSetCmd = &cobra.Command{
	Use:   "set [name] [true|false]",
	Short: "Set a feature flag and persist it",
	Args:  cobra.ExactArgs(2),
	RunE:  setFlag,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "Project directory (default: nearest directory with a .refit tree)")

	// Apply flags
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Evaluate conditions and report outcomes without merging")
	applyCmd.Flags().BoolVar(&applyStrict, "strict", false, "Abort on the first failed overlay")

	// Show flags
	showCmd.Flags().BoolVar(&showDump, "dump", false, "Render behavior values with spew")

	// Journal flags
	journalCmd.Flags().IntVarP(&journalTail, "tail", "n", 20, "Number of entries to show")

	// Flags subcommands
	flagsCmd.AddCommand(flagsSetCmd)

	// Add commands to root
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(flagsCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runBoard opens the interactive status board.
func runBoard() error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	if err := config.InitRefitDir(root); err != nil {
		return fmt.Errorf("initialize %s: %w", config.RefitDir, err)
	}
	app, err := tui.NewApp(root)
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run board: %w", err)
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := strings.TrimSpace(projectDir)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = cwd
	}
	absolute, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := config.InitRefitDir(absolute); err != nil {
		return err
	}
	fmt.Printf("Initialized %s in %s\n", config.RefitDir, absolute)
	fmt.Println("Starter files: definitions/sample-button.yaml, overlays/sample-dark-button.yaml")
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := openProject()
	if err != nil {
		return err
	}
	ctx, cleanup := newApplyContext(cfg)
	defer cleanup()

	plan, files, err := overlay.LoadProject(ctx)
	if err != nil {
		return err
	}
	logger.Debug("project loaded",
		zap.Int("definitions", len(files)),
		zap.Int("overlays", len(plan.Steps)))

	report, applyErr := overlay.Apply(ctx, plan, overlay.Options{DryRun: applyDryRun, Strict: applyStrict})
	printReport(report)
	if applyErr != nil {
		return applyErr
	}
	if failed := report.Counts()[overlay.OutcomeFailed]; failed > 0 {
		return fmt.Errorf("%d overlay(s) failed", failed)
	}
	return nil
}

func showDefinitions(cmd *cobra.Command, args []string) error {
	cfg, err := openProject()
	if err != nil {
		return err
	}
	registry := behavior.NewRegistry()
	if _, err := catalog.RegisterDefinitions(registry, cfg.DefinitionsDir()); err != nil {
		return err
	}

	if len(args) == 0 {
		summaries := overlay.RegistrySummaries(registry)
		if len(summaries) == 0 {
			fmt.Printf("No definitions registered. Add documents under %s\n", cfg.DefinitionsDir())
			return nil
		}
		for _, summary := range summaries {
			fmt.Printf("%-24s v%-8s %d behavior(s)  fp %s\n",
				summary.ID, summary.Version, summary.Behaviors, summary.Fingerprint)
		}
		return nil
	}

	def, err := registry.Resolve(args[0])
	if err != nil {
		return err
	}
	info := def.Info()
	title := info.ID
	if info.Name != "" {
		title = fmt.Sprintf("%s (%s)", info.ID, info.Name)
	}
	if info.Version != "" {
		title += " v" + info.Version
	}
	fmt.Println(title)
	if info.Description != "" {
		fmt.Println(info.Description)
	}
	snapshot := def.Snapshot()
	fmt.Printf("Fingerprint: %s\n", fingerprint.Map(snapshot).String())
	if showDump {
		fmt.Print(dumpConfig.Sdump(snapshot))
		return nil
	}
	fmt.Println("Behaviors:")
	rendered := journal.RenderValues(snapshot)
	for _, key := range def.Keys() {
		fmt.Printf("  %s: %s\n", key, rendered[key])
	}
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	cfg, err := openProject()
	if err != nil {
		return err
	}
	registry := behavior.NewRegistry()
	if _, err := catalog.RegisterDefinitions(registry, cfg.DefinitionsDir()); err != nil {
		return err
	}
	record, err := state.Load(cfg.LastApplyPath())
	if err != nil {
		return err
	}

	if record == nil {
		fmt.Println("No apply has run yet.")
	} else {
		counts := record.OutcomeCounts()
		fmt.Printf("Last run %.8s finished %s (%d applied, %d skipped, %d failed)\n",
			record.RunID,
			record.Finished.Local().Format("2006-01-02 15:04:05"),
			counts[string(overlay.OutcomeApplied)],
			counts[string(overlay.OutcomeSkipped)],
			counts[string(overlay.OutcomeFailed)])
	}

	drifts := state.Diff(record, overlay.DefinitionFingerprints(registry))
	if len(drifts) == 0 {
		fmt.Println("No definitions registered.")
		return nil
	}
	fmt.Println("Definitions:")
	changed := 0
	for _, drift := range drifts {
		line := fmt.Sprintf("  %-9s %s", drift.Status, drift.Definition)
		switch drift.Status {
		case state.DriftModified:
			line += fmt.Sprintf("  recorded %.12s current %.12s", drift.Recorded, drift.Current)
			changed++
		case state.DriftMissing:
			line += fmt.Sprintf("  recorded %.12s", drift.Recorded)
			changed++
		default:
			line += fmt.Sprintf("  fp %.12s", drift.Current)
		}
		fmt.Println(line)
	}
	if record != nil && changed > 0 {
		fmt.Printf("%d definition(s) drifted since the last run\n", changed)
	}
	return nil
}

func showJournal(cmd *cobra.Command, args []string) error {
	cfg, err := openProject()
	if err != nil {
		return err
	}
	jnl, err := journal.New(cfg.JournalPath())
	if err != nil {
		return err
	}
	entries := jnl.Tail(journalTail)
	if len(entries) == 0 {
		fmt.Println("Journal is empty.")
		return nil
	}
	for _, entry := range entries {
		fmt.Println(formatEntry(entry))
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	var definitionIDs []string
	dirs := args
	if len(dirs) == 0 {
		cfg, err := openProject()
		if err != nil {
			return err
		}
		registry := behavior.NewRegistry()
		if _, err := catalog.RegisterDefinitions(registry, cfg.DefinitionsDir()); err != nil {
			return err
		}
		definitionIDs = registry.IDs()
		dirs = cfg.OverlayDirs()
	}
	logger.Debug("linting overlay directories",
		zap.Strings("dirs", dirs),
		zap.Int("definitions", len(definitionIDs)))

	report, err := lint.ValidateProject(definitionIDs, dirs...)
	if err != nil {
		return err
	}

	valid := 0
	for _, file := range report.Files {
		if file.IsValid() {
			valid++
			fmt.Printf("OK: %s (%s)\n", file.Path, file.Overlay)
			continue
		}
		label := file.Overlay
		if label == "" {
			label = "unparsed"
		}
		fmt.Printf("Invalid: %s (%s)\n", file.Path, label)
		for _, problem := range file.Errors {
			fmt.Printf("- %v\n", problem)
		}
	}
	if len(report.Project) > 0 {
		fmt.Println("Project problems:")
		for _, problem := range report.Project {
			fmt.Printf("- %v\n", problem)
		}
	}

	if !report.IsValid() {
		return fmt.Errorf("validation found problems")
	}
	if len(report.Files) == 0 {
		fmt.Println("No overlay documents found.")
		return nil
	}
	fmt.Printf("%d document(s) valid\n", valid)
	return nil
}

func listFlags(cmd *cobra.Command, args []string) error {
	cfg, err := openProject()
	if err != nil {
		return err
	}
	names := cfg.FlagNames()
	if len(names) == 0 {
		fmt.Println("No flags configured.")
		return nil
	}
	for _, name := range names {
		value := "off"
		if cfg.Flag(name) {
			value = "on"
		}
		fmt.Printf("%-24s %s\n", name, value)
	}
	return nil
}

func setFlag(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("flag value %q must be true or false", args[1])
	}
	cfg, err := openProject()
	if err != nil {
		return err
	}
	if err := cfg.SetFlag(args[0], value); err != nil {
		return err
	}
	fmt.Printf("Flag %s is now %v\n", strings.TrimSpace(args[0]), value)
	return nil
}

// projectRoot resolves the directory whose .refit tree commands operate on.
func projectRoot() (string, error) {
	if dir := strings.TrimSpace(projectDir); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return config.FindProjectRoot(cwd), nil
}

func openProject() (*config.Config, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	return config.NewConfig(root)
}

// newApplyContext assembles the collaborators an apply run records through.
// Logging and journaling are best effort; the run proceeds without them.
func newApplyContext(cfg *config.Config) (*overlay.Context, func()) {
	ctx := &overlay.Context{Config: cfg, Registry: behavior.NewRegistry()}
	cleanup := func() {}
	if fileLogger, err := logging.New(cfg.ProjectDir); err != nil {
		logger.Debug("project log unavailable", zap.Error(err))
	} else {
		ctx.Logger = fileLogger
		cleanup = func() { _ = fileLogger.Close() }
	}
	if jnl, err := journal.New(cfg.JournalPath()); err != nil {
		logger.Debug("journal unavailable", zap.Error(err))
	} else {
		ctx.Journal = jnl
	}
	return ctx, cleanup
}

func printReport(report *overlay.Report) {
	if report == nil {
		return
	}
	label := fmt.Sprintf("Run %.8s", report.RunID)
	if report.DryRun {
		label += " (dry run)"
	}
	fmt.Println(label)
	for _, app := range report.Applications {
		line := fmt.Sprintf("  %-7s %s → %s", app.Outcome, app.Overlay, app.Definition)
		if len(app.Keys) > 0 {
			line += "  keys: " + strings.Join(app.Keys, ", ")
		}
		if app.Reason != "" {
			line += fmt.Sprintf("  (%s)", app.Reason)
		}
		fmt.Println(line)
	}
	counts := report.Counts()
	fmt.Printf("%d applied, %d skipped, %d failed\n",
		counts[overlay.OutcomeApplied], counts[overlay.OutcomeSkipped], counts[overlay.OutcomeFailed])
}

func formatEntry(entry journal.Entry) string {
	stamp := entry.Time.Local().Format("2006-01-02 15:04:05")
	switch entry.Kind {
	case journal.KindApplied:
		return fmt.Sprintf("%s  %-10s %s → %s  keys: %s",
			stamp, entry.Kind, entry.Overlay, entry.Definition, strings.Join(entry.Keys, ", "))
	case journal.KindSkipped, journal.KindFailed:
		return fmt.Sprintf("%s  %-10s %s → %s  (%s)",
			stamp, entry.Kind, entry.Overlay, entry.Definition, entry.Note)
	case journal.KindRegistered:
		return fmt.Sprintf("%s  %-10s %s  (%s)", stamp, entry.Kind, entry.Definition, entry.Note)
	case journal.KindReloaded:
		return fmt.Sprintf("%s  %-10s %s", stamp, entry.Kind, entry.Note)
	default:
		return fmt.Sprintf("%s  %-10s", stamp, entry.Kind)
	}
}
