package dto

import "github.com/campuswell/wellness-api/internal/models"

// Period shortcuts accepted by the mood listing filter.
const (
	PeriodToday  = "today"
	Period7Days  = "7days"
	Period30Days = "30days"
	Period90Days = "90days"
)

// CreateMoodEntryRequest records one mood entry; EntryDate defaults to the
// current date when omitted.
type CreateMoodEntryRequest struct {
	MoodLevel int     `json:"mood_level" validate:"required,min=1,max=10"`
	Notes     *string `json:"notes"`
	EntryDate *string `json:"entry_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateMoodEntryRequest partially updates today's entry.
type UpdateMoodEntryRequest struct {
	MoodLevel *int    `json:"mood_level" validate:"omitempty,min=1,max=10"`
	Notes     *string `json:"notes"`
}

// MoodEntryResult pairs the stored entry with the auto-recommendation the
// low-mood path may have created.
type MoodEntryResult struct {
	Entry              *models.MoodEntry      `json:"entry"`
	AutoRecommendation *models.Recommendation `json:"auto_recommendation"`
}

// MoodListFilter selects entries by period shortcut or explicit bounds.
type MoodListFilter struct {
	Period    string
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

// MoodExportRow is one line of the admin mood report.
type MoodExportRow struct {
	StudentName   string `db:"student_name"`
	StudentNumber string `db:"student_number"`
	MoodLevel     int    `db:"mood_level"`
	Notes         string `db:"notes"`
	EntryDate     string `db:"entry_date"`
}

// MoodListResult is the paginated listing plus window statistics.
type MoodListResult struct {
	Entries    []models.MoodEntry     `json:"entries"`
	Statistics *models.MoodStatistics `json:"statistics"`
	Pagination *models.Pagination     `json:"pagination"`
}
