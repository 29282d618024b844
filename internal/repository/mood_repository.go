package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
)

// ErrDuplicateEntry is returned when the student already has an entry for
// the date. Two requests racing past the existence check are caught by the
// unique constraint on (student_id, entry_date).
var ErrDuplicateEntry = errors.New("mood entry already exists for this date")

// MoodRepository provides persistence for mood entries and the derived
// wellness analytics.
type MoodRepository struct {
	db *sqlx.DB
}

// NewMoodRepository constructs the repository.
func NewMoodRepository(db *sqlx.DB) *MoodRepository {
	return &MoodRepository{db: db}
}

const moodColumns = `id, student_id, mood_level, notes, to_char(entry_date, 'YYYY-MM-DD') AS entry_date, created_at`

// lowMoodCeiling buckets entries below this level as "low mood" in
// aggregate statistics. The auto-recommendation threshold is configured
// separately and passed in per call.
const lowMoodCeiling = 4

// AutoRecommendationParams carries the policy knobs for the low-mood
// follow-up created alongside a mood entry.
type AutoRecommendationParams struct {
	Threshold   int
	DedupWindow time.Duration
	Reason      string
}

// ExistsForDate reports whether the student already logged a mood entry on
// the given date.
func (r *MoodRepository) ExistsForDate(ctx context.Context, studentID, date string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM mood_entries WHERE student_id = $1 AND entry_date = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, date); err != nil {
		return false, fmt.Errorf("check mood entry for date: %w", err)
	}
	return exists, nil
}

// Create inserts a mood entry and, when the level falls below the threshold,
// creates the follow-up recommendation in the same transaction. The follow-up
// is skipped while the student already has a pending or scheduled
// recommendation, or an auto one created inside the dedup window.
func (r *MoodRepository) Create(ctx context.Context, entry *models.MoodEntry, auto AutoRecommendationParams) (rec *models.Recommendation, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mood entry: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	insert := fmt.Sprintf(`INSERT INTO mood_entries (id, student_id, mood_level, notes, entry_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING %s`, moodColumns)
	now := time.Now().UTC()
	if err = tx.GetContext(ctx, entry, insert, uuid.NewString(), entry.StudentID, entry.MoodLevel, entry.Notes, entry.EntryDate, now); err != nil {
		if uniqueViolation(err) {
			err = ErrDuplicateEntry
			return nil, err
		}
		return nil, fmt.Errorf("insert mood entry: %w", err)
	}

	if entry.MoodLevel < auto.Threshold {
		const existsQuery = `
SELECT EXISTS (
	SELECT 1 FROM recommendations
	WHERE student_id = $1
	  AND (status IN ('pending', 'scheduled')
	       OR (recommendation_type = 'auto' AND created_at >= $2))
)`
		var active bool
		if err = tx.GetContext(ctx, &active, existsQuery, entry.StudentID, now.Add(-auto.DedupWindow)); err != nil {
			return nil, fmt.Errorf("check active recommendation: %w", err)
		}
		if !active {
			const insertRec = `INSERT INTO recommendations (id, student_id, recommendation_type, status, reason, created_at, updated_at)
VALUES ($1, $2, 'auto', 'pending', $3, $4, $4)
RETURNING id, student_id, faculty_id, consultant_id, recommendation_type, status, reason, cooldown_until, created_at, updated_at`
			rec = &models.Recommendation{}
			if err = tx.GetContext(ctx, rec, insertRec, uuid.NewString(), entry.StudentID, auto.Reason, now); err != nil {
				return nil, fmt.Errorf("insert auto recommendation: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mood entry: %w", err)
	}
	return rec, nil
}

func periodCondition(period string) (string, bool) {
	switch period {
	case dto.PeriodToday:
		return "entry_date = CURRENT_DATE", true
	case dto.Period7Days:
		return "entry_date >= CURRENT_DATE - INTERVAL '7 days'", true
	case dto.Period30Days:
		return "entry_date >= CURRENT_DATE - INTERVAL '30 days'", true
	case dto.Period90Days:
		return "entry_date >= CURRENT_DATE - INTERVAL '90 days'", true
	default:
		return "", false
	}
}

// List returns one student's entries for the window, newest first, together
// with window statistics and the total row count. A period shortcut takes
// precedence; otherwise explicit start_date/end_date bounds apply.
func (r *MoodRepository) List(ctx context.Context, studentID string, filter dto.MoodListFilter) ([]models.MoodEntry, *models.MoodStatistics, int, error) {
	where := "WHERE student_id = $1"
	args := []interface{}{studentID}
	if cond, ok := periodCondition(filter.Period); ok {
		where += " AND " + cond
	} else {
		if filter.StartDate != "" {
			args = append(args, filter.StartDate)
			where += fmt.Sprintf(" AND entry_date >= $%d::date", len(args))
		}
		if filter.EndDate != "" {
			args = append(args, filter.EndDate)
			where += fmt.Sprintf(" AND entry_date <= $%d::date", len(args))
		}
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM mood_entries %s`, where), args...); err != nil {
		return nil, nil, 0, fmt.Errorf("count mood entries: %w", err)
	}

	statsQuery := fmt.Sprintf(`
SELECT
	COUNT(*) AS total_entries,
	ROUND(AVG(mood_level), 2) AS average_mood,
	MIN(mood_level) AS min_mood,
	MAX(mood_level) AS max_mood,
	COUNT(CASE WHEN mood_level < %d THEN 1 END) AS low_mood_count,
	COUNT(CASE WHEN mood_level >= %d THEN 1 END) AS high_mood_count
FROM mood_entries %s`, lowMoodCeiling, models.MoodLevelHigh, where)
	var stats models.MoodStatistics
	if err := r.db.GetContext(ctx, &stats, statsQuery, args...); err != nil {
		return nil, nil, 0, fmt.Errorf("mood statistics: %w", err)
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM mood_entries %s ORDER BY entry_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		moodColumns, where, len(args)+1, len(args)+2)
	listArgs := append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	var entries []models.MoodEntry
	if err := r.db.SelectContext(ctx, &entries, listQuery, listArgs...); err != nil {
		return nil, nil, 0, fmt.Errorf("list mood entries: %w", err)
	}
	return entries, &stats, total, nil
}

// FindOwned fetches one entry scoped to its owner.
func (r *MoodRepository) FindOwned(ctx context.Context, id, studentID string) (*models.MoodEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM mood_entries WHERE id = $1 AND student_id = $2`, moodColumns)
	var entry models.MoodEntry
	if err := r.db.GetContext(ctx, &entry, query, id, studentID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByDate fetches the student's entry for a specific date.
func (r *MoodRepository) FindByDate(ctx context.Context, studentID, date string) (*models.MoodEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM mood_entries WHERE student_id = $1 AND entry_date = $2`, moodColumns)
	var entry models.MoodEntry
	if err := r.db.GetContext(ctx, &entry, query, studentID, date); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Update applies a partial update to an owned entry.
func (r *MoodRepository) Update(ctx context.Context, id, studentID string, req dto.UpdateMoodEntryRequest) (*models.MoodEntry, error) {
	query := fmt.Sprintf(`UPDATE mood_entries
SET mood_level = COALESCE($1, mood_level), notes = COALESCE($2, notes), updated_at = CURRENT_TIMESTAMP
WHERE id = $3 AND student_id = $4
RETURNING %s`, moodColumns)
	var entry models.MoodEntry
	if err := r.db.GetContext(ctx, &entry, query, req.MoodLevel, req.Notes, id, studentID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete removes an owned entry.
func (r *MoodRepository) Delete(ctx context.Context, id, studentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE id = $1 AND student_id = $2`, id, studentID)
	if err != nil {
		return fmt.Errorf("delete mood entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CourseStats aggregates mood data per course for one faculty member, with
// 7- and 30-day rolling windows.
func (r *MoodRepository) CourseStats(ctx context.Context, facultyID string) ([]models.CourseMoodStats, error) {
	const query = `
SELECT
	c.id AS course_id,
	c.title AS course_title,
	c.section,
	COUNT(DISTINCT sc.student_id) AS total_students,
	COUNT(m.id) AS total_mood_entries,
	ROUND(AVG(m.mood_level), 2) AS overall_avg_mood,
	ROUND(AVG(CASE WHEN m.entry_date >= CURRENT_DATE - INTERVAL '7 days' THEN m.mood_level END), 2) AS avg_mood_7d,
	ROUND(AVG(CASE WHEN m.entry_date >= CURRENT_DATE - INTERVAL '30 days' THEN m.mood_level END), 2) AS avg_mood_30d,
	COUNT(CASE WHEN m.entry_date >= CURRENT_DATE - INTERVAL '7 days' AND m.mood_level < $2 THEN 1 END) AS low_mood_count_7d
FROM courses c
LEFT JOIN student_courses sc ON sc.course_id = c.id
LEFT JOIN mood_entries m ON m.student_id = sc.student_id
WHERE c.faculty_id = $1
GROUP BY c.id, c.title, c.section
ORDER BY c.title, c.section`
	var stats []models.CourseMoodStats
	if err := r.db.SelectContext(ctx, &stats, query, facultyID, lowMoodCeiling); err != nil {
		return nil, fmt.Errorf("course mood stats: %w", err)
	}
	return stats, nil
}

// VulnerableStudents lists students on the faculty member's rosters whose
// 7-day average mood fell below the threshold, with their current
// recommendation cooldown state.
func (r *MoodRepository) VulnerableStudents(ctx context.Context, facultyID string, threshold int) ([]models.VulnerableStudent, error) {
	const query = `
SELECT
	u.id, u.name, u.student_id, u.email,
	c.title AS course_title,
	c.section,
	ROUND(AVG(m.mood_level), 2) AS avg_mood_7d,
	to_char(MAX(m.entry_date), 'YYYY-MM-DD') AS last_entry_date,
	COUNT(m.id) AS entry_count_7d,
	COALESCE(cd.cooldown_until > CURRENT_TIMESTAMP, false) AS in_cooldown,
	cd.cooldown_until
FROM users u
JOIN student_courses sc ON sc.student_id = u.id
JOIN courses c ON c.id = sc.course_id
JOIN mood_entries m ON m.student_id = u.id AND m.entry_date >= CURRENT_DATE - INTERVAL '7 days'
LEFT JOIN LATERAL (
	SELECT cooldown_until FROM recommendations
	WHERE student_id = u.id AND cooldown_until IS NOT NULL
	ORDER BY cooldown_until DESC LIMIT 1
) cd ON true
WHERE c.faculty_id = $1 AND u.is_active = true
GROUP BY u.id, u.name, u.student_id, u.email, c.title, c.section, cd.cooldown_until
HAVING AVG(m.mood_level) < $2
ORDER BY avg_mood_7d`
	var students []models.VulnerableStudent
	if err := r.db.SelectContext(ctx, &students, query, facultyID, threshold); err != nil {
		return nil, fmt.Errorf("vulnerable students: %w", err)
	}
	return students, nil
}

// Overview aggregates the last 30 days of mood entries system-wide for the
// admin dashboard.
func (r *MoodRepository) Overview(ctx context.Context) (*dto.MoodOverview, error) {
	const query = `
SELECT
	COUNT(*) AS total_entries,
	COUNT(CASE WHEN entry_date = CURRENT_DATE THEN 1 END) AS entries_today,
	COUNT(CASE WHEN entry_date >= CURRENT_DATE - INTERVAL '7 days' THEN 1 END) AS entries_this_week,
	ROUND(AVG(mood_level), 2) AS overall_avg_mood,
	COUNT(CASE WHEN mood_level < $1 THEN 1 END) AS low_mood_entries
FROM mood_entries
WHERE entry_date >= CURRENT_DATE - INTERVAL '30 days'`
	var overview dto.MoodOverview
	if err := r.db.GetContext(ctx, &overview, query, lowMoodCeiling); err != nil {
		return nil, fmt.Errorf("mood overview: %w", err)
	}
	return &overview, nil
}

// SummaryForStudent returns lifetime mood aggregates for the admin user
// detail view.
func (r *MoodRepository) SummaryForStudent(ctx context.Context, studentID string) (*dto.StudentMoodSummary, error) {
	const query = `
SELECT
	COUNT(*) AS total_entries,
	ROUND(AVG(mood_level), 2) AS avg_mood,
	MIN(mood_level) AS min_mood,
	MAX(mood_level) AS max_mood,
	to_char(MAX(entry_date), 'YYYY-MM-DD') AS last_entry_date
FROM mood_entries
WHERE student_id = $1`
	var summary dto.StudentMoodSummary
	if err := r.db.GetContext(ctx, &summary, query, studentID); err != nil {
		return nil, fmt.Errorf("student mood summary: %w", err)
	}
	return &summary, nil
}

// EntriesForExport returns entries with student identity joined, scoped to
// an optional date range, for report rendering.
func (r *MoodRepository) EntriesForExport(ctx context.Context, startDate, endDate string) ([]dto.MoodExportRow, error) {
	const query = `
SELECT
	u.name AS student_name,
	COALESCE(u.student_id, '') AS student_number,
	m.mood_level,
	COALESCE(m.notes, '') AS notes,
	to_char(m.entry_date, 'YYYY-MM-DD') AS entry_date
FROM mood_entries m
JOIN users u ON u.id = m.student_id
WHERE ($1 = '' OR m.entry_date >= $1::date) AND ($2 = '' OR m.entry_date <= $2::date)
ORDER BY m.entry_date DESC, u.name`
	var rows []dto.MoodExportRow
	if err := r.db.SelectContext(ctx, &rows, query, startDate, endDate); err != nil {
		return nil, fmt.Errorf("mood export rows: %w", err)
	}
	return rows, nil
}
