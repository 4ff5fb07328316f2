package ontology

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/groundcheck/internal/model"
)

func TestDefault_LoadsEmbeddedTables(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	if len(tables.Verbs()) == 0 {
		t.Fatal("expected verb entries")
	}

	category, ok := tables.VerbCategory("migrated from")
	if !ok || category != model.VerbMigration {
		t.Errorf("VerbCategory(migrated from) = %v, %v", category, ok)
	}

	entity, ok := tables.LookupEntity("postgresql")
	if !ok || entity.Category != "database" {
		t.Errorf("LookupEntity(postgresql) = %+v, %v", entity, ok)
	}
}

func TestLoad_AliasResolution(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	entity, ok := tables.LookupEntity("postgres")
	if !ok {
		t.Fatal("expected alias postgres to resolve")
	}
	if entity.Canonical != "PostgreSQL" {
		t.Errorf("alias postgres resolved to %q", entity.Canonical)
	}

	entity, ok = tables.LookupEntity("K8S")
	if !ok || entity.Canonical != "Kubernetes" {
		t.Errorf("alias k8s resolved to %+v, %v", entity, ok)
	}
}

func TestLoad_LongestVerbFirst(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	verbs := tables.Verbs()
	for i := 1; i < len(verbs); i++ {
		if len(verbs[i].Phrase) > len(verbs[i-1].Phrase) {
			t.Fatalf("verbs not sorted longest-first: %q after %q",
				verbs[i].Phrase, verbs[i-1].Phrase)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/verbs.json", "")
	if err == nil {
		t.Fatal("expected error for missing verb file")
	}
	if !errors.Is(err, model.ErrOntologyMissing) {
		t.Errorf("expected ErrOntologyMissing, got %v", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verbs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path, "")
	if !errors.Is(err, model.ErrOntologyMissing) {
		t.Errorf("expected ErrOntologyMissing for malformed file, got %v", err)
	}
}

func TestSlotFor_AliasTable(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	if slot := tables.SlotFor("language"); slot != "programming_language" {
		t.Errorf("SlotFor(language) = %q", slot)
	}
	if slot := tables.SlotFor("database"); slot != "database" {
		t.Errorf("SlotFor(database) = %q", slot)
	}
	if slot := tables.SlotFor("unheard_of"); slot != "unheard_of" {
		t.Errorf("SlotFor(unheard_of) = %q", slot)
	}
}

func TestLoad_SkipsUnknownCategory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verbs.json")
	content := `{"adoption": ["uses"], "bogus": ["frobnicates"]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tables, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if _, ok := tables.VerbCategory("frobnicates"); ok {
		t.Error("expected unknown category verbs to be skipped")
	}
	if _, ok := tables.VerbCategory("uses"); !ok {
		t.Error("expected valid category verbs to load")
	}
}
