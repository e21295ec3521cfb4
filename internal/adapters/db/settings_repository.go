// internal/adapters/db/settings_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/pos-engine/internal/core/ports"
)

// SettingsRepository persists operator preferences.
type SettingsRepository struct {
	q      querier
	logger *slog.Logger
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(db *Database, logger *slog.Logger) *SettingsRepository {
	return &SettingsRepository{
		q:      db.Pool(),
		logger: logger.With(slog.String("repository", "settings")),
	}
}

// Get returns the stored value or defaultValue when the key is unset.
func (r *SettingsRepository) Get(ctx context.Context, key, defaultValue string) (string, error) {
	var value string
	err := r.q.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			return defaultValue, nil
		}
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := r.q.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	r.logger.DebugContext(ctx, "setting stored", slog.String("key", key))
	return nil
}

func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.q.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
