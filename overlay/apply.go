package overlay

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/refit/behavior"
	"github.com/kingrea/refit/catalog"
	"github.com/kingrea/refit/internal/config"
	"github.com/kingrea/refit/internal/journal"
	"github.com/kingrea/refit/internal/notify"
	"github.com/kingrea/refit/internal/state"
	"github.com/kingrea/refit/override"
)

// Logger records apply progress. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

// Context bundles the collaborators an apply run needs. Journal, Events, and
// Logger are optional; a nil collaborator simply records nothing.
type Context struct {
	Config   *config.Config
	Registry *behavior.Registry
	Journal  *journal.Journal
	Events   notify.EventSink
	Logger   Logger
	Clock    func() time.Time
}

func (ctx *Context) now() time.Time {
	if ctx == nil || ctx.Clock == nil {
		return time.Now().UTC()
	}
	return ctx.Clock().UTC()
}

func (ctx *Context) logf(format string, args ...any) {
	if ctx == nil || ctx.Logger == nil {
		return
	}
	ctx.Logger.Printf(format, args...)
}

func (ctx *Context) emit(event notify.Event) {
	if ctx == nil || ctx.Events == nil {
		return
	}
	_ = ctx.Events.HandleEvent(event)
}

// LoadProject registers the project's definition documents and plans its
// overlays. The returned plan is ready to pass to Apply.
func LoadProject(ctx *Context) (*Plan, []catalog.DocumentFile, error) {
	if ctx == nil || ctx.Config == nil {
		return nil, nil, fmt.Errorf("overlay: config is required")
	}
	if ctx.Registry == nil {
		ctx.Registry = behavior.NewRegistry()
	}

	files, err := catalog.RegisterDefinitions(ctx.Registry, ctx.Config.DefinitionsDir())
	if err != nil {
		return nil, nil, err
	}
	for _, file := range files {
		ctx.Journal.Append(journal.Entry{
			Kind:       journal.KindRegistered,
			Definition: file.Document.ID,
			Note:       file.Path,
		})
		ctx.emit(notify.NewEvent(notify.TypeDefinitionRegistered, "", file.Document.ID, "", map[string]any{
			"path":    file.Path,
			"version": file.Document.Version,
		}))
	}

	docs, err := Discover(ctx.Config.OverlayDirs()...)
	if err != nil {
		return nil, nil, err
	}
	plan, err := BuildPlan(docs)
	if err != nil {
		return nil, nil, err
	}
	ctx.logf("loaded %d definitions and %d overlays", len(files), len(plan.Steps))
	return plan, files, nil
}

// Outcome classifies how one overlay fared during a run.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Application reports one overlay's result. Before and After hold rendered
// behavior values for the touched keys on either side of the merge.
type Application struct {
	Overlay    string            `json:"overlay"`
	Definition string            `json:"definition"`
	Path       string            `json:"path,omitempty"`
	Outcome    Outcome           `json:"outcome"`
	Reason     string            `json:"reason,omitempty"`
	Keys       []string          `json:"keys,omitempty"`
	Before     map[string]string `json:"before,omitempty"`
	After      map[string]string `json:"after,omitempty"`
}

// Report summarizes an apply run.
type Report struct {
	RunID        string        `json:"run_id"`
	DryRun       bool          `json:"dry_run,omitempty"`
	Started      time.Time     `json:"started"`
	Finished     time.Time     `json:"finished"`
	Applications []Application `json:"applications,omitempty"`
}

// Counts tallies applications by outcome.
func (r *Report) Counts() map[Outcome]int {
	if r == nil {
		return nil
	}
	counts := map[Outcome]int{}
	for _, app := range r.Applications {
		counts[app.Outcome]++
	}
	return counts
}

// Options tunes an apply run. Strict aborts on the first failed overlay even
// when the project config is lenient. DryRun evaluates conditions and reports
// outcomes without merging, journaling, or persisting state.
type Options struct {
	DryRun bool
	Strict bool
}

// Apply runs the plan against the registry. In lenient mode failures are
// recorded and the run continues; the returned error is non-nil only in
// strict mode, alongside the partial report.
func Apply(ctx *Context, plan *Plan, opts Options) (*Report, error) {
	if ctx == nil || ctx.Registry == nil {
		return nil, fmt.Errorf("overlay: registry is required")
	}
	strict := opts.Strict || ctx.Config.Strict()

	report := &Report{RunID: uuid.NewString(), DryRun: opts.DryRun, Started: ctx.now()}
	outcomes := map[string]Outcome{}
	var failure error

	if plan != nil {
		for _, step := range plan.Steps {
			app := ctx.runStep(step, outcomes, report.RunID, opts.DryRun)
			outcomes[app.Overlay] = app.Outcome
			report.Applications = append(report.Applications, app)
			if app.Outcome == OutcomeFailed && strict {
				failure = fmt.Errorf("overlay %s: %s", app.Overlay, app.Reason)
				break
			}
		}
	}
	report.Finished = ctx.now()

	if !opts.DryRun {
		ctx.saveRunRecord(report)
	}
	counts := report.Counts()
	ctx.logf("run %s finished: %d applied, %d skipped, %d failed",
		report.RunID, counts[OutcomeApplied], counts[OutcomeSkipped], counts[OutcomeFailed])
	return report, failure
}

func (ctx *Context) runStep(step DocumentFile, outcomes map[string]Outcome, runID string, dryRun bool) Application {
	doc := step.Document
	app := Application{Overlay: doc.ID, Definition: doc.Target, Path: step.Path}

	for _, req := range doc.Requires {
		outcome, ok := outcomes[req]
		if ok && outcome == OutcomeApplied {
			continue
		}
		app.Outcome = OutcomeSkipped
		if !ok {
			app.Reason = fmt.Sprintf("requirement %s has not applied", req)
		} else {
			app.Reason = fmt.Sprintf("requirement %s was %s", req, outcome)
		}
		ctx.recordSkipped(app, runID, dryRun)
		return app
	}

	def, err := ctx.Registry.Resolve(doc.Target)
	if err != nil {
		app.Outcome = OutcomeFailed
		app.Reason = err.Error()
		ctx.recordFailed(app, runID, dryRun)
		return app
	}

	if dryRun {
		if doc.When.Holds(ctx.Config) {
			app.Outcome = OutcomeApplied
			app.Keys = sortedKeys(doc.Set)
		} else {
			app.Outcome = OutcomeSkipped
			app.Reason = fmt.Sprintf("condition not met: %s", doc.When)
		}
		return app
	}

	applied, before, failReason := mergeOverlay(def, doc, ctx.Config)
	switch {
	case failReason != "":
		app.Outcome = OutcomeFailed
		app.Reason = failReason
		ctx.recordFailed(app, runID, dryRun)
	case !applied:
		app.Outcome = OutcomeSkipped
		app.Reason = fmt.Sprintf("condition not met: %s", doc.When)
		ctx.recordSkipped(app, runID, dryRun)
	default:
		app.Outcome = OutcomeApplied
		app.Keys = sortedKeys(doc.Set)
		app.Before = before
		app.After = afterValues(def, app.Keys)
		ctx.recordApplied(app, runID)
	}
	return app
}

// mergeOverlay rewires the definition through the override entry points so
// conditions evaluate exactly once and prior values are captured before the
// merge. Generator or predicate panics surface as a failure reason.
func mergeOverlay(def *behavior.Definition, doc Document, flags FlagSource) (applied bool, before map[string]string, failReason string) {
	defer func() {
		if r := recover(); r != nil {
			applied = false
			before = nil
			failReason = fmt.Sprintf("panic: %v", r)
		}
	}()

	cond := override.Enabled(true)
	if doc.When != nil {
		when := doc.When
		cond = override.Predicate(func() bool { return when.Holds(flags) })
	}

	var prior *override.Captured
	override.DeriveIf(def, cond, func(c *override.Captured) behavior.Map {
		prior = c
		return behavior.Map(doc.Set)
	})
	if prior == nil {
		return false, nil, ""
	}

	beforeValues := make(map[string]any, prior.Len())
	for _, key := range prior.Keys() {
		beforeValues[key] = prior.Value(key)
	}
	return true, journal.RenderValues(beforeValues), ""
}

func afterValues(def *behavior.Definition, keys []string) map[string]string {
	values := make(map[string]any, len(keys))
	for _, key := range keys {
		if v, ok := def.Lookup(key); ok {
			values[key] = v
		}
	}
	return journal.RenderValues(values)
}

func sortedKeys(set map[string]any) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (ctx *Context) recordApplied(app Application, runID string) {
	ctx.Journal.Applied(runID, app.Definition, app.Overlay, app.Keys, app.Before, app.After)
	ctx.emit(notify.NewEvent(notify.TypeOverlayApplied, runID, app.Definition, app.Overlay, map[string]any{
		"keys": app.Keys,
	}))
	ctx.logf("overlay %s applied to %s (%d keys)", app.Overlay, app.Definition, len(app.Keys))
}

func (ctx *Context) recordSkipped(app Application, runID string, dryRun bool) {
	if dryRun {
		return
	}
	ctx.Journal.Skipped(runID, app.Definition, app.Overlay, app.Reason)
	ctx.emit(notify.NewEvent(notify.TypeOverlaySkipped, runID, app.Definition, app.Overlay, map[string]any{
		"reason": app.Reason,
	}))
	ctx.logf("overlay %s skipped: %s", app.Overlay, app.Reason)
}

func (ctx *Context) recordFailed(app Application, runID string, dryRun bool) {
	if dryRun {
		return
	}
	ctx.Journal.Failed(runID, app.Definition, app.Overlay, app.Reason)
	ctx.emit(notify.NewEvent(notify.TypeOverlayFailed, runID, app.Definition, app.Overlay, map[string]any{
		"reason": app.Reason,
	}))
	ctx.logf("overlay %s failed: %s", app.Overlay, app.Reason)
}

func (ctx *Context) saveRunRecord(report *Report) {
	if ctx == nil || ctx.Config == nil {
		return
	}
	outcomes := make(map[string]string, len(report.Applications))
	for _, app := range report.Applications {
		outcomes[app.Overlay] = string(app.Outcome)
	}
	record := &state.RunRecord{
		RunID:       report.RunID,
		Started:     report.Started,
		Finished:    report.Finished,
		Outcomes:    outcomes,
		Definitions: DefinitionFingerprints(ctx.Registry),
	}
	if err := state.Save(ctx.Config.LastApplyPath(), record); err != nil {
		ctx.logf("overlay: save run record: %v", err)
	}
}
