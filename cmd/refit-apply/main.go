// Command refit-apply merges one overlay and exits. It is the scripting
// entry point for CI jobs that want a single override applied without the
// interactive board or a full project pass.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/refit/behavior"
	"github.com/kingrea/refit/catalog"
	"github.com/kingrea/refit/internal/config"
	"github.com/kingrea/refit/internal/journal"
	"github.com/kingrea/refit/internal/logging"
	"github.com/kingrea/refit/overlay"
)

func main() {
	flagSet := pflag.NewFlagSet("refit-apply", pflag.ContinueOnError)
	overlayFile := flagSet.String("overlay", "", "overlay document to apply (.yaml, .yml, .json, or .jsonc)")
	target := flagSet.String("target", "", "definition to rework with --set entries (alternative to --overlay)")
	sets := keyValueFlag{}
	flagSet.Var(&sets, "set", "behavior entry for --target (key=value, repeatable; values parse as YAML scalars)")
	flags := keyValueFlag{}
	flagSet.Var(&flags, "flag", "feature flag override for this run only (name=true|false, repeatable)")
	projectDir := flagSet.String("project", "", "path to the project directory (defaults to cwd)")
	dryRun := flagSet.Bool("dry-run", false, "evaluate the condition and report the outcome without merging")
	strict := flagSet.Bool("strict", false, "abort on the first failed overlay")
	asJSON := flagSet.Bool("json", false, "print the run report as JSON")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		die("parse flags: %v", err)
	}
	if args := flagSet.Args(); len(args) > 0 {
		die("unexpected argument: %s", args[0])
	}
	if strings.TrimSpace(*overlayFile) == "" && strings.TrimSpace(*target) == "" {
		die("--overlay or --target is required")
	}
	if strings.TrimSpace(*overlayFile) != "" && strings.TrimSpace(*target) != "" {
		die("--overlay and --target are mutually exclusive")
	}

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitRefitDir(absoluteProject); err != nil {
		die("init %s: %v", config.RefitDir, err)
	}
	cfg, err := config.NewConfig(absoluteProject)
	if err != nil {
		die("load config: %v", err)
	}
	for name, value := range flags {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			die("flag %s=%s: value must be true or false", name, value)
		}
		cfg.Project.Flags[name] = parsed
	}

	docs, err := loadOverlayDocs(*overlayFile, *target, sets)
	if err != nil {
		die("%v", err)
	}
	plan, err := overlay.BuildPlan(docs)
	if err != nil {
		die("plan overlay: %v", err)
	}

	ctx := &overlay.Context{Config: cfg, Registry: behavior.NewRegistry()}
	if jnl, err := journal.New(cfg.JournalPath()); err == nil {
		ctx.Journal = jnl
	}
	if fileLogger, err := logging.New(cfg.ProjectDir); err == nil {
		defer fileLogger.Close()
		ctx.Logger = fileLogger
	}
	if _, err := catalog.RegisterDefinitions(ctx.Registry, cfg.DefinitionsDir()); err != nil {
		die("register definitions: %v", err)
	}

	report, applyErr := overlay.Apply(ctx, plan, overlay.Options{DryRun: *dryRun, Strict: *strict})
	if *asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			die("encode report: %v", err)
		}
		fmt.Println(string(data))
	} else {
		printRunReport(report)
	}
	if applyErr != nil {
		die("apply: %v", applyErr)
	}
	if failed := report.Counts()[overlay.OutcomeFailed]; failed > 0 {
		die("%d overlay(s) failed", failed)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// loadOverlayDocs resolves the run's overlay documents from --overlay or
// --target/--set.
func loadOverlayDocs(overlayFile, target string, sets keyValueFlag) ([]overlay.DocumentFile, error) {
	if path := strings.TrimSpace(overlayFile); path != "" {
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			file, err := overlay.LoadDocumentFile(path)
			if err != nil {
				return nil, err
			}
			return []overlay.DocumentFile{file}, nil
		case ".json", ".jsonc":
			file, err := overlay.LoadJSONCFile(path)
			if err != nil {
				return nil, err
			}
			return []overlay.DocumentFile{file}, nil
		default:
			return nil, fmt.Errorf("overlay file %s: unsupported extension %q (scripted overlays apply through refit apply)", path, ext)
		}
	}

	entries := make(map[string]any, len(sets))
	for key, raw := range sets {
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("set %s=%s: %v", key, raw, err)
		}
		entries[key] = value
	}
	doc := overlay.Document{
		ID:      "refit-apply",
		Version: "0.0.0",
		Target:  target,
		Set:     entries,
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return []overlay.DocumentFile{{Document: doc.Normalized(), Path: "inline"}}, nil
}

func printRunReport(report *overlay.Report) {
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

type keyValueFlag map[string]string

func (kv *keyValueFlag) String() string {
	if kv == nil || len(*kv) == 0 {
		return ""
	}
	var pairs []string
	for key, value := range *kv {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
	}
	return strings.Join(pairs, ", ")
}

func (kv *keyValueFlag) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return fmt.Errorf("override key is empty in %q", value)
	}
	if *kv == nil {
		*kv = keyValueFlag{}
	}
	(*kv)[key] = parts[1]
	return nil
}

func (kv *keyValueFlag) Type() string {
	return "key=value"
}
