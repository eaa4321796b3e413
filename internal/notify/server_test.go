package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/kingrea/refit/internal/config"
	"github.com/kingrea/refit/internal/journal"
)

type staticCatalog struct {
	items []DefinitionSummary
}

func (c staticCatalog) Summaries() []DefinitionSummary {
	return c.items
}

func TestSettingsFromConfigHonorsEnv(t *testing.T) {
	t.Setenv("REFIT_INSPECT_PORT", "9001")
	t.Setenv("REFIT_INSPECT_HOST", "0.0.0.0")
	t.Setenv("REFIT_INSPECT_ENABLED", "false")
	cfg := &config.Config{}
	settings := SettingsFromConfig(cfg)
	if settings.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", settings.Port)
	}
	if settings.Host != "0.0.0.0" {
		t.Fatalf("expected host override, got %s", settings.Host)
	}
	if settings.Enabled {
		t.Fatalf("expected enabled=false from env override")
	}
}

func TestServerDisabled(t *testing.T) {
	srv := NewServer(Settings{Enabled: false, Host: "127.0.0.1", Port: 0})
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected error for disabled server")
	}
}

func TestServerServesCatalogAndJournal(t *testing.T) {
	j, err := journal.New(filepath.Join(t.TempDir(), "journal.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	j.Applied("run-1", "button", "dark-button", []string{"color"}, nil, nil)
	j.Skipped("run-1", "button", "compact-button", "flag compact is false")

	settings := Settings{Enabled: true, Host: "127.0.0.1", Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second}
	srv := NewServer(settings,
		WithCatalog(staticCatalog{items: []DefinitionSummary{{ID: "button", Name: "Button", Behaviors: 3}}}),
		WithJournal(j))
	client := &http.Client{}
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		client.CloseIdleConnections()
	})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	base := srv.BaseURL()

	resp, err := client.Get(base + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.StatusCode)
	}
	if health.Status != string(StatusReady) || health.Definitions != 1 {
		t.Fatalf("unexpected health payload: %+v", health)
	}

	resp, err = client.Get(base + "/catalog")
	if err != nil {
		t.Fatalf("catalog request failed: %v", err)
	}
	var catalogBody struct {
		Definitions []DefinitionSummary `json:"definitions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&catalogBody); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	resp.Body.Close()
	if len(catalogBody.Definitions) != 1 || catalogBody.Definitions[0].ID != "button" {
		t.Fatalf("unexpected catalog payload: %+v", catalogBody)
	}

	resp, err = client.Get(base + "/journal?n=1")
	if err != nil {
		t.Fatalf("journal request failed: %v", err)
	}
	var journalBody struct {
		Entries []journal.Entry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&journalBody); err != nil {
		t.Fatalf("decode journal: %v", err)
	}
	resp.Body.Close()
	if len(journalBody.Entries) != 1 || journalBody.Entries[0].Kind != journal.KindSkipped {
		t.Fatalf("expected the most recent entry only, got %+v", journalBody.Entries)
	}

	resp, err = client.Get(base + "/journal?n=zero")
	if err != nil {
		t.Fatalf("journal request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad n, got %d", resp.StatusCode)
	}

	resp, err = client.Post(base+"/journal", "application/json", nil)
	if err != nil {
		t.Fatalf("post request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", resp.StatusCode)
	}
}
