// Package ontology loads the curated verb and entity tables that power
// Tier-1.5 knowledge extraction. Tables are loaded once into immutable
// structures; concurrent callers share them without locking.
package ontology

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
)

//go:embed data/verb_ontology.json data/entity_taxonomy.json
var defaultData embed.FS

// Entity is one taxonomy hit: the canonical name plus its category.
type Entity struct {
	Canonical string
	Category  string
}

// VerbEntry pairs a verb phrase with its semantic category.
type VerbEntry struct {
	Phrase   string
	Category model.VerbCategory
	Words    int // Number of space-separated words in Phrase
}

// Tables holds the immutable knowledge tables.
type Tables struct {
	verbs      []VerbEntry       // Sorted longest phrase first
	verbIndex  map[string]model.VerbCategory
	entities   map[string]Entity // Lowercase name or alias -> entity
	slotAlias  map[string]string // Taxonomy category -> Tier-1 slot name
	categories []string
}

// validCategories are the ten verb categories the ontology file may declare.
var validCategories = map[string]model.VerbCategory{
	"adoption":    model.VerbAdoption,
	"migration":   model.VerbMigration,
	"deprecation": model.VerbDeprecation,
	"tentative":   model.VerbTentative,
	"capability":  model.VerbCapability,
	"limitation":  model.VerbLimitation,
	"assignment":  model.VerbAssignment,
	"requirement": model.VerbRequirement,
	"preference":  model.VerbPreference,
	"creation":    model.VerbCreation,
}

// slotAliases maps Tier-1.5 taxonomy categories onto the Tier-1 slot
// vocabulary so the merger can collapse duplicates. This is the single
// canonical alias table; nothing else in the pipeline renames slots.
var slotAliases = map[string]string{
	"database":        "database",
	"language":        "programming_language",
	"frontend":        "frontend",
	"backend":         "backend",
	"cloud":           "cloud",
	"orchestration":   "orchestration",
	"ci_cd":           "ci_cd",
	"message_queue":   "message_queue",
	"monitoring":      "monitoring",
	"os":              "os",
	"editor":          "editor",
	"testing":         "testing",
	"vcs":             "vcs",
	"auth":            "auth",
	"package_manager": "package_manager",
}

type taxonomyFile struct {
	Categories map[string][]string `json:"categories"`
	Aliases    map[string]string   `json:"aliases"`
}

// Load reads the ontology tables from the given paths. Empty paths select
// the embedded defaults. A missing or unparseable file is a construction
// error; individual malformed entries are skipped with a warning.
func Load(verbPath, taxonomyPath string) (*Tables, error) {
	verbRaw, err := readFile(verbPath, "data/verb_ontology.json")
	if err != nil {
		return nil, fmt.Errorf("%w: verb ontology: %v", model.ErrOntologyMissing, err)
	}
	taxRaw, err := readFile(taxonomyPath, "data/entity_taxonomy.json")
	if err != nil {
		return nil, fmt.Errorf("%w: entity taxonomy: %v", model.ErrOntologyMissing, err)
	}

	var verbFile map[string][]string
	if err := json.Unmarshal(verbRaw, &verbFile); err != nil {
		return nil, fmt.Errorf("%w: verb ontology: %v", model.ErrOntologyMissing, err)
	}
	var taxFile taxonomyFile
	if err := json.Unmarshal(taxRaw, &taxFile); err != nil {
		return nil, fmt.Errorf("%w: entity taxonomy: %v", model.ErrOntologyMissing, err)
	}

	t := &Tables{
		verbIndex: make(map[string]model.VerbCategory),
		entities:  make(map[string]Entity),
		slotAlias: slotAliases,
	}

	for name, phrases := range verbFile {
		category, ok := validCategories[name]
		if !ok {
			fmt.Fprintf(os.Stderr, "Warning: skipping unknown verb category %q\n", name)
			continue
		}
		for _, phrase := range phrases {
			phrase = strings.ToLower(strings.TrimSpace(phrase))
			if phrase == "" {
				fmt.Fprintf(os.Stderr, "Warning: skipping empty verb phrase in category %q\n", name)
				continue
			}
			if _, dup := t.verbIndex[phrase]; dup {
				continue // First-seen wins
			}
			t.verbIndex[phrase] = category
			t.verbs = append(t.verbs, VerbEntry{
				Phrase:   phrase,
				Category: category,
				Words:    len(strings.Fields(phrase)),
			})
		}
	}
	// Longest phrase first so "migrated to" wins over "migrated"
	sort.Slice(t.verbs, func(i, j int) bool {
		if len(t.verbs[i].Phrase) != len(t.verbs[j].Phrase) {
			return len(t.verbs[i].Phrase) > len(t.verbs[j].Phrase)
		}
		return t.verbs[i].Phrase < t.verbs[j].Phrase
	})

	categories := make([]string, 0, len(taxFile.Categories))
	for category := range taxFile.Categories {
		categories = append(categories, category)
	}
	sort.Strings(categories) // Deterministic first-seen resolution
	for _, category := range categories {
		for _, name := range taxFile.Categories[category] {
			name = strings.TrimSpace(name)
			if name == "" {
				fmt.Fprintf(os.Stderr, "Warning: skipping empty entity in category %q\n", category)
				continue
			}
			key := strings.ToLower(name)
			if _, dup := t.entities[key]; dup {
				continue // Duplicate entity across categories: first-seen wins
			}
			t.entities[key] = Entity{Canonical: name, Category: category}
		}
	}
	t.categories = categories

	for alias, canonical := range taxFile.Aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		target, ok := t.entities[strings.ToLower(canonical)]
		if !ok {
			fmt.Fprintf(os.Stderr, "Warning: alias %q points at unknown entity %q\n", alias, canonical)
			continue
		}
		if _, dup := t.entities[alias]; !dup {
			t.entities[alias] = target
		}
	}

	return t, nil
}

// Default returns tables built from the embedded data files.
func Default() (*Tables, error) {
	return Load("", "")
}

func readFile(path, embedded string) ([]byte, error) {
	if path == "" {
		return defaultData.ReadFile(embedded)
	}
	return os.ReadFile(path)
}

// Verbs returns the verb entries, longest phrase first.
func (t *Tables) Verbs() []VerbEntry {
	return t.verbs
}

// VerbCategory looks up the category for an exact verb phrase.
func (t *Tables) VerbCategory(phrase string) (model.VerbCategory, bool) {
	c, ok := t.verbIndex[strings.ToLower(phrase)]
	return c, ok
}

// LookupEntity resolves a token window (case-insensitive, alias-expanded)
// to a taxonomy entity.
func (t *Tables) LookupEntity(phrase string) (Entity, bool) {
	e, ok := t.entities[strings.ToLower(phrase)]
	return e, ok
}

// SlotFor maps a taxonomy category to its Tier-1 slot name. Unknown
// categories map to themselves.
func (t *Tables) SlotFor(category string) string {
	if slot, ok := t.slotAlias[category]; ok {
		return slot
	}
	return category
}
