package models

import "time"

// Mood level bounds for a single entry.
const (
	MoodLevelMin = 1
	MoodLevelMax = 10
	// MoodLevelHigh is the floor of the "high mood" bucket in statistics.
	MoodLevelHigh = 7
)

// MoodEntry is one student's mood record for a calendar day. At most one
// entry exists per (student, entry_date); entries are mutable only on the
// day they cover.
type MoodEntry struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	MoodLevel int       `db:"mood_level" json:"mood_level"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	EntryDate string    `db:"entry_date" json:"entry_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MoodStatistics aggregates a filtered window of mood entries.
type MoodStatistics struct {
	TotalEntries  int      `db:"total_entries" json:"total_entries"`
	AverageMood   *float64 `db:"average_mood" json:"average_mood"`
	MinMood       *int     `db:"min_mood" json:"min_mood"`
	MaxMood       *int     `db:"max_mood" json:"max_mood"`
	LowMoodCount  int      `db:"low_mood_count" json:"low_mood_count"`
	HighMoodCount int      `db:"high_mood_count" json:"high_mood_count"`
}

// CourseMoodStats aggregates mood entries across one course's roster for
// faculty analytics.
type CourseMoodStats struct {
	CourseID       string   `db:"course_id" json:"course_id"`
	CourseTitle    string   `db:"course_title" json:"course_title"`
	Section        string   `db:"section" json:"section"`
	TotalStudents  int      `db:"total_students" json:"total_students"`
	TotalEntries   int      `db:"total_mood_entries" json:"total_mood_entries"`
	OverallAvgMood *float64 `db:"overall_avg_mood" json:"overall_avg_mood"`
	AvgMood7d      *float64 `db:"avg_mood_7d" json:"avg_mood_7d"`
	AvgMood30d     *float64 `db:"avg_mood_30d" json:"avg_mood_30d"`
	LowMoodCount7d int      `db:"low_mood_count_7d" json:"low_mood_count_7d"`
}

// VulnerableStudent is a student whose recent average mood sits below the
// auto-recommendation threshold.
type VulnerableStudent struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	StudentID     *string    `db:"student_id" json:"student_id,omitempty"`
	Email         string     `db:"email" json:"email"`
	CourseTitle   string     `db:"course_title" json:"course_title"`
	Section       string     `db:"section" json:"section"`
	AvgMood7d     *float64   `db:"avg_mood_7d" json:"avg_mood_7d"`
	LastEntryDate *string    `db:"last_entry_date" json:"last_entry_date,omitempty"`
	EntryCount7d  int        `db:"entry_count_7d" json:"entry_count_7d"`
	InCooldown    bool       `db:"in_cooldown" json:"in_cooldown"`
	CooldownUntil *time.Time `db:"cooldown_until" json:"cooldown_until,omitempty"`
}
