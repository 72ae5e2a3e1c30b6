package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
)

const settingsKey = "default"

// SettingsRepository range les settings du watcher en une seule ligne JSON
// sous une clé fixe. Un seul utilisateur, un seul profil: pas la peine de
// normaliser en colonnes.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT value_json FROM settings WHERE key = ?`, settingsKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Première ouverture, rien en base encore.
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, err
	}

	var s domain.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		// JSON illisible (base éditée à la main?): on repart des défauts
		// plutôt que de bloquer le daemon.
		return domain.DefaultSettings(), nil
	}
	return s, nil
}

// Put écrase la ligne entière et relit ce qui a été stocké.
func (r *SettingsRepository) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return domain.Settings{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings(key, value_json, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value_json = excluded.value_json, updated_at = excluded.updated_at
	`, settingsKey, raw, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return domain.Settings{}, err
	}
	return r.Get(ctx)
}
