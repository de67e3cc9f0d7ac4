package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/RelikeddDev/controlio/internal/core"
)

type seedFile struct {
	Categories []struct {
		Name  string `yaml:"name"`
		Type  string `yaml:"type"`
		Icon  string `yaml:"icon"`
		Color string `yaml:"color"`
	} `yaml:"categories"`
}

// SeedCategories loads the category taxonomy from a YAML file on first
// boot. An already populated table is left untouched so user edits
// survive restarts.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, path string) (int, error) {
	count, err := r.CountCategories(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	now := time.Now().UTC()
	for _, sc := range seed.Categories {
		catType := core.TransactionType(sc.Type)
		if sc.Type == "" {
			catType = core.Expense
		}
		cat := core.Category{
			ID:        uuid.NewString(),
			Name:      sc.Name,
			Type:      catType,
			Icon:      sc.Icon,
			Color:     sc.Color,
			CreatedAt: now,
		}
		if err := cat.Validate(); err != nil {
			return 0, fmt.Errorf("seed category %q: %w", sc.Name, err)
		}
		if err := r.CreateCategory(ctx, cat); err != nil {
			return 0, err
		}
	}
	return len(seed.Categories), nil
}
