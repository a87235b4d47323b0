package models

import "time"

// EarnedAchievement records that a child unlocked a catalog achievement.
// AchievementKey refers to achievements.Achievement.Key.
type EarnedAchievement struct {
	ID             int64     `json:"id"`
	ChildID        int64     `json:"child_id"`
	AchievementKey string    `json:"achievement_key"`
	EarnedAt       time.Time `json:"earned_at"`
}
