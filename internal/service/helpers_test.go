package service

import (
	"context"
	"database/sql"

	"github.com/campuswell/wellness-api/internal/models"
)

func errNoRows() error {
	return sql.ErrNoRows
}

type mockUserFinder struct {
	users map[string]models.User
}

func (m *mockUserFinder) FindActiveByRole(ctx context.Context, id string, role models.UserRole) (*models.User, error) {
	if u, ok := m.users[id]; ok && u.Role == role && u.IsActive {
		return &u, nil
	}
	return nil, errNoRows()
}
