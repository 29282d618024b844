package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
)

func newRecommendationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func recommendationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "faculty_id", "consultant_id", "recommendation_type",
		"status", "reason", "cooldown_until", "created_at", "updated_at",
	})
}

func TestRecommendationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRecommendationMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	mock.ExpectQuery("INSERT INTO recommendations").
		WillReturnRows(recommendationRows().AddRow(
			"rec-1", "student-1", "faculty-1", nil, "faculty",
			"pending", "Struggling in class", nil, time.Now(), time.Now()))

	rec, err := repo.Create(context.Background(), "student-1", "faculty-1", "Struggling in class")
	require.NoError(t, err)
	assert.Equal(t, models.RecommendationFaculty, rec.Type)
	assert.Equal(t, models.RecommendationPending, rec.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepositoryActiveCooldownNone(t *testing.T) {
	db, mock, cleanup := newRecommendationMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	mock.ExpectQuery("SELECT(.|\n)+FROM recommendations").
		WithArgs("student-1").
		WillReturnRows(recommendationRows())

	rec, err := repo.ActiveCooldown(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepositoryActiveCooldown(t *testing.T) {
	db, mock, cleanup := newRecommendationMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	until := time.Now().Add(48 * time.Hour)
	mock.ExpectQuery("SELECT(.|\n)+FROM recommendations").
		WithArgs("student-1").
		WillReturnRows(recommendationRows().AddRow(
			"rec-1", "student-1", nil, "consultant-1", "auto",
			"scheduled", "Low mood", until, time.Now(), time.Now()))

	rec, err := repo.ActiveCooldown(context.Background(), "student-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.InCooldown(time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepositoryUpdateStatusFromStale(t *testing.T) {
	db, mock, cleanup := newRecommendationMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	mock.ExpectQuery("UPDATE recommendations").
		WithArgs(models.RecommendationCompleted, "rec-1", models.RecommendationScheduled).
		WillReturnRows(recommendationRows())

	_, err := repo.UpdateStatusFrom(context.Background(), "rec-1", models.RecommendationScheduled, models.RecommendationCompleted)
	assert.ErrorIs(t, err, ErrStaleStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepositoryListForStudent(t *testing.T) {
	db, mock, cleanup := newRecommendationMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT(.|\n)+FROM recommendations r").
		WithArgs("student-1", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "recommendation_type", "reason", "status", "created_at", "source_name", "faculty_email"}).
			AddRow("rec-1", "auto", "Low mood", "pending", time.Now(), "Auto-Recommended", nil))

	items, total, err := repo.ListForStudent(context.Background(), "student-1", dto.RecommendationFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Auto-Recommended", items[0].SourceName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
