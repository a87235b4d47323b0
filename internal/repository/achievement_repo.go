package repository

import (
	"fmt"
	"time"

	"village/internal/database"
	"village/internal/models"
)

// AchievementRepository stores which achievements each child has earned
type AchievementRepository struct {
	db *database.DB
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *database.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// Award records earned achievements for a child. Keys already earned are skipped,
// so concurrent checks never duplicate a row. Returns how many rows were inserted.
func (r *AchievementRepository) Award(childID int64, keys []string, earnedAt time.Time) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	query := r.db.GetDialect().InsertIgnoreQuery("earned_achievements", "child_id", "achievement_key", "earned_at")

	inserted := 0
	err := r.db.WithTx(func(tx *database.Tx) error {
		for _, key := range keys {
			result, err := tx.Exec(query, childID, key, earnedAt.UTC())
			if err != nil {
				return fmt.Errorf("failed to award achievement %s: %w", key, err)
			}
			if n, err := result.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// List returns a child's earned achievements in the order they were earned
func (r *AchievementRepository) List(childID int64) ([]models.EarnedAchievement, error) {
	rows, err := r.db.Query("SELECT id, child_id, achievement_key, earned_at FROM earned_achievements WHERE child_id = ? ORDER BY earned_at ASC, id ASC", childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var earned []models.EarnedAchievement
	for rows.Next() {
		var e models.EarnedAchievement
		if err := rows.Scan(&e.ID, &e.ChildID, &e.AchievementKey, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		earned = append(earned, e)
	}
	return earned, rows.Err()
}

// EarnedKeys returns the set of achievement keys a child has earned
func (r *AchievementRepository) EarnedKeys(childID int64) (map[string]bool, error) {
	earned, err := r.List(childID)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(earned))
	for _, e := range earned {
		keys[e.AchievementKey] = true
	}
	return keys, nil
}
