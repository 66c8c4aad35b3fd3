package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/officecal/pkg/logger"
)

func TestSeed(t *testing.T) {
	db := setupTestDB(t)
	log := logger.Nop()

	require.NoError(t, Seed(db, log))

	depts, err := NewDepartmentRepository(db).List()
	require.NoError(t, err)
	assert.Len(t, depts, len(defaultDepartments))

	users, err := NewUserRepository(db).List()
	require.NoError(t, err)
	require.Len(t, users, 3)

	// Re-running changes nothing.
	require.NoError(t, Seed(db, log))
	depts, err = NewDepartmentRepository(db).List()
	require.NoError(t, err)
	assert.Len(t, depts, len(defaultDepartments))
	count, err := NewUserRepository(db).Count()
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestSeed_SkipsDemoUsersWhenUsersExist(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "existing@example.com")

	require.NoError(t, Seed(db, logger.Nop()))

	count, err := NewUserRepository(db).Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "demo users are only seeded into an empty database")

	_, err = NewUserRepository(db).GetByEmail("admin@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
