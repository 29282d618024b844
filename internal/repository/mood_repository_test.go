package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
)

func newMoodMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func moodRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "mood_level", "notes", "entry_date", "created_at"})
}

func TestMoodRepositoryExistsForDate(t *testing.T) {
	db, mock, cleanup := newMoodMock(t)
	defer cleanup()
	repo := NewMoodRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("student-1", "2026-03-10").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForDate(context.Background(), "student-1", "2026-03-10")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepositoryCreateLowMoodCreatesRecommendation(t *testing.T) {
	db, mock, cleanup := newMoodMock(t)
	defer cleanup()
	repo := NewMoodRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO mood_entries").
		WillReturnRows(moodRows().AddRow("mood-1", "student-1", 2, nil, "2026-03-10", time.Now()))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO recommendations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "faculty_id", "consultant_id", "recommendation_type", "status", "reason", "cooldown_until", "created_at", "updated_at"}).
			AddRow("rec-1", "student-1", nil, nil, "auto", "pending", "Auto-recommended due to low mood level (2/10) on 2026-03-10", nil, time.Now(), time.Now()))
	mock.ExpectCommit()

	entry := &models.MoodEntry{StudentID: "student-1", MoodLevel: 2, EntryDate: "2026-03-10"}
	rec, err := repo.Create(context.Background(), entry, AutoRecommendationParams{
		Threshold:   4,
		DedupWindow: 7 * 24 * time.Hour,
		Reason:      "Auto-recommended due to low mood level (2/10) on 2026-03-10",
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.RecommendationAuto, rec.Type)
	assert.Equal(t, models.RecommendationPending, rec.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepositoryCreateHighMoodSkipsRecommendation(t *testing.T) {
	db, mock, cleanup := newMoodMock(t)
	defer cleanup()
	repo := NewMoodRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO mood_entries").
		WillReturnRows(moodRows().AddRow("mood-1", "student-1", 8, nil, "2026-03-10", time.Now()))
	mock.ExpectCommit()

	entry := &models.MoodEntry{StudentID: "student-1", MoodLevel: 8, EntryDate: "2026-03-10"}
	rec, err := repo.Create(context.Background(), entry, AutoRecommendationParams{Threshold: 4, DedupWindow: 7 * 24 * time.Hour})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepositoryCreateDedupWindowSkipsRecommendation(t *testing.T) {
	db, mock, cleanup := newMoodMock(t)
	defer cleanup()
	repo := NewMoodRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO mood_entries").
		WillReturnRows(moodRows().AddRow("mood-1", "student-1", 3, nil, "2026-03-10", time.Now()))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	entry := &models.MoodEntry{StudentID: "student-1", MoodLevel: 3, EntryDate: "2026-03-10"}
	rec, err := repo.Create(context.Background(), entry, AutoRecommendationParams{Threshold: 4, DedupWindow: 7 * 24 * time.Hour})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepositoryCreateActiveRecommendationSkipsFollowUp(t *testing.T) {
	db, mock, cleanup := newMoodMock(t)
	defer cleanup()
	repo := NewMoodRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO mood_entries").
		WillReturnRows(moodRows().AddRow("mood-1", "student-1", 2, nil, "2026-03-10", time.Now()))
	mock.ExpectQuery(`SELECT EXISTS(.|\n)+status IN \('pending', 'scheduled'\)(.|\n)+recommendation_type = 'auto'`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	// A pending faculty referral counts as active even with no recent auto
	// recommendation, so no duplicate follow-up is created.
	entry := &models.MoodEntry{StudentID: "student-1", MoodLevel: 2, EntryDate: "2026-03-10"}
	rec, err := repo.Create(context.Background(), entry, AutoRecommendationParams{Threshold: 4, DedupWindow: 7 * 24 * time.Hour})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepositoryCreateDuplicateDate(t *testing.T) {
	db, mock, cleanup := newMoodMock(t)
	defer cleanup()
	repo := NewMoodRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO mood_entries").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "mood_entries_student_id_entry_date_key"})
	mock.ExpectRollback()

	entry := &models.MoodEntry{StudentID: "student-1", MoodLevel: 6, EntryDate: "2026-03-10"}
	rec, err := repo.Create(context.Background(), entry, AutoRecommendationParams{Threshold: 4, DedupWindow: 7 * 24 * time.Hour})
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrDuplicateEntry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepositoryList(t *testing.T) {
	db, mock, cleanup := newMoodMock(t)
	defer cleanup()
	repo := NewMoodRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT(.|\n)+AVG\\(mood_level\\)").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"total_entries", "average_mood", "min_mood", "max_mood", "low_mood_count", "high_mood_count"}).
			AddRow(2, 6.5, 5, 8, 0, 1))
	mock.ExpectQuery("SELECT(.|\n)+FROM mood_entries").
		WithArgs("student-1", 10, 0).
		WillReturnRows(moodRows().
			AddRow("mood-2", "student-1", 8, nil, "2026-03-10", time.Now()).
			AddRow("mood-1", "student-1", 5, nil, "2026-03-09", time.Now()))

	entries, stats, total, err := repo.List(context.Background(), "student-1", dto.MoodListFilter{Period: dto.Period7Days, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 2, total)
	require.NotNil(t, stats.AverageMood)
	assert.InDelta(t, 6.5, *stats.AverageMood, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepositoryListExplicitDateRange(t *testing.T) {
	db, mock, cleanup := newMoodMock(t)
	defer cleanup()
	repo := NewMoodRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM mood_entries WHERE student_id = \$1 AND entry_date >= \$2::date AND entry_date <= \$3::date`).
		WithArgs("student-1", "2026-01-01", "2026-01-31").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT(.|\n)+AVG\\(mood_level\\)").
		WithArgs("student-1", "2026-01-01", "2026-01-31").
		WillReturnRows(sqlmock.NewRows([]string{"total_entries", "average_mood", "min_mood", "max_mood", "low_mood_count", "high_mood_count"}).
			AddRow(1, 5.0, 5, 5, 0, 0))
	mock.ExpectQuery("SELECT(.|\n)+FROM mood_entries").
		WithArgs("student-1", "2026-01-01", "2026-01-31", 10, 0).
		WillReturnRows(moodRows().AddRow("mood-1", "student-1", 5, nil, "2026-01-15", time.Now()))

	entries, _, total, err := repo.List(context.Background(), "student-1", dto.MoodListFilter{
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
		Page:      1,
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMoodMock(t)
	defer cleanup()
	repo := NewMoodRepository(db)

	mock.ExpectExec("DELETE FROM mood_entries").
		WithArgs("mood-1", "student-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "mood-1", "student-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
