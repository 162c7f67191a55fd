package links

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BradenHooton/calcvault/internal/clock"
	"github.com/BradenHooton/calcvault/internal/models"
	pkglogger "github.com/BradenHooton/calcvault/pkg/logger"
)

// Store persists the registry document
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Apply(ctx context.Context, m *models.Mutation) error
}

// AddResult describes a newly stored link
type AddResult struct {
	Category models.Category `json:"category"`
	Link     models.Link     `json:"item"`
}

// Registry curates the vault's links, stored as one JSON document keyed
// by category
type Registry struct {
	store  Store
	clock  clock.Clock
	logger *slog.Logger
	audit  *pkglogger.AuditLogger

	mu sync.Mutex
}

// NewRegistry creates a registry over store
func NewRegistry(store Store, clk clock.Clock, logger *slog.Logger, audit *pkglogger.AuditLogger) *Registry {
	return &Registry{
		store:  store,
		clock:  clk,
		logger: logger,
		audit:  audit,
	}
}

// List returns every category's links
func (r *Registry) List(ctx context.Context) (models.CategoryMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Add stores a Drive link. An empty category is detected from the name.
func (r *Registry) Add(ctx context.Context, driveURL, name string, category models.Category) (*AddResult, error) {
	id, err := ExtractFileID(driveURL)
	if err != nil {
		return nil, err
	}
	if category == "" {
		category = Classify(name)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidCategory, category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	content, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range content[category] {
		if existing.ID == id {
			return nil, models.ErrDuplicateLink
		}
	}

	link := NewLink(id, name, category, r.clock.Now())
	content[category] = append(content[category], link)
	if err := r.save(ctx, content); err != nil {
		return nil, err
	}

	r.audit.LogVaultAction(pkglogger.EventLinkAdded, "", map[string]string{
		"category": string(category),
		"host":     pkglogger.LinkHost(driveURL),
	})
	return &AddResult{Category: category, Link: link}, nil
}

// Remove deletes the link with id. An empty category searches every
// category and removes the first match. It returns the category the link
// was removed from.
func (r *Registry) Remove(ctx context.Context, id string, category models.Category) (models.Category, error) {
	if category != "" && !category.Valid() {
		return "", fmt.Errorf("%w: %s", models.ErrInvalidCategory, category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	content, err := r.load(ctx)
	if err != nil {
		return "", err
	}

	search := models.Categories
	if category != "" {
		search = []models.Category{category}
	}

	for _, c := range search {
		kept := content[c][:0:0]
		for _, l := range content[c] {
			if l.ID != id {
				kept = append(kept, l)
			}
		}
		if len(kept) == len(content[c]) {
			continue
		}

		content[c] = kept
		if err := r.save(ctx, content); err != nil {
			return "", err
		}
		r.audit.LogVaultAction(pkglogger.EventLinkRemoved, "", map[string]string{"category": string(c)})
		return c, nil
	}
	return "", models.ErrNotFound
}

// ClearCategory empties one category
func (r *Registry) ClearCategory(ctx context.Context, category models.Category) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %s", models.ErrInvalidCategory, category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	content, err := r.load(ctx)
	if err != nil {
		return err
	}
	content[category] = []models.Link{}
	if err := r.save(ctx, content); err != nil {
		return err
	}

	r.audit.LogVaultAction(pkglogger.EventLinksCleared, "", map[string]string{"category": string(category)})
	return nil
}

// ClearAll empties every category
func (r *Registry) ClearAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.save(ctx, models.NewCategoryMap()); err != nil {
		return err
	}

	r.audit.LogVaultAction(pkglogger.EventLinksCleared, "", map[string]string{"category": "all"})
	return nil
}

// load reads the document. A missing or unreadable document is an empty
// registry; every category is always present.
func (r *Registry) load(ctx context.Context) (models.CategoryMap, error) {
	raw, found, err := r.store.Get(ctx, models.KeyDriveContent)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}

	content := models.NewCategoryMap()
	if !found || raw == "" {
		return content, nil
	}

	var stored map[models.Category][]models.Link
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		r.logger.Warn("discarding unreadable link registry", slog.Any("error", err))
		return content, nil
	}
	for _, c := range models.Categories {
		if links := stored[c]; links != nil {
			content[c] = links
		}
	}
	return content, nil
}

func (r *Registry) save(ctx context.Context, content models.CategoryMap) error {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}
	if err := r.store.Apply(ctx, models.NewMutation().Put(models.KeyDriveContent, string(data))); err != nil {
		return fmt.Errorf("save links: %w", err)
	}
	return nil
}
