package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dream-planner-api/internal/domain/entity"
)

const (
	sqlUserID  = "7c1f3a52-8d0e-4b8e-9a55-0f4a3f6d2b11"
	sqlDreamA  = "0d8f6a3e-5b1c-4f7e-8a2d-9c4b3e1f7a60"
	sqlDreamB  = "1e9a7b4f-6c2d-4a8f-9b3e-ad5c4f2a8b71"
	sqlStepID  = "2fab8c5a-7d3e-4b9a-8c4f-be6d5a3b9c82"
	sqlAnyText = "x"
)

var (
	dreamColumns = []string{"id", "user_id", "title", "description", "domain", "created_at", "updated_at"}
	stepColumns  = []string{"id", "dream_id", "title", "description", "order_index", "completed", "created_at", "updated_at"}
)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return &Client{db: db}, mock
}

func TestDreamRepository_ListByUserNewestFirst(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewDreamRepository(client)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "dreams" WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs(sqlUserID).
		WillReturnRows(sqlmock.NewRows(dreamColumns).
			AddRow(sqlDreamB, sqlUserID, "newer", "newer", "startup", now, now).
			AddRow(sqlDreamA, sqlUserID, "older", "older", "personal", now.Add(-time.Hour), now))

	dreams, err := repo.ListByUser(context.Background(), sqlUserID)
	require.NoError(t, err)
	require.Len(t, dreams, 2)
	assert.Equal(t, sqlDreamB, dreams[0].ID)
	assert.Equal(t, entity.DreamDomainStartup, dreams[0].Domain)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDreamRepository_GetByIDScopedToOwner(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewDreamRepository(client)

	mock.ExpectQuery(`SELECT \* FROM "dreams" WHERE id = \$1 AND user_id = \$2`).
		WillReturnRows(sqlmock.NewRows(dreamColumns))

	d, err := repo.GetByID(context.Background(), sqlUserID, sqlDreamA)
	require.NoError(t, err)
	assert.Nil(t, d)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDreamRepository_DeleteScopedToOwner(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewDreamRepository(client)

	mock.ExpectExec(`DELETE FROM "dreams" WHERE id = \$1 AND user_id = \$2`).
		WithArgs(sqlDreamA, sqlUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "dreams" WHERE id = \$1 AND user_id = \$2`).
		WithArgs(sqlDreamB, sqlUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), sqlUserID, sqlDreamA)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), sqlUserID, sqlDreamB)
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStepRepository_ListByDreamOrdered(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewStepRepository(client)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "steps" WHERE dream_id = \$1 ORDER BY order_index ASC`).
		WithArgs(sqlDreamA).
		WillReturnRows(sqlmock.NewRows(stepColumns).
			AddRow(sqlStepID, sqlDreamA, "first", sqlAnyText, 0, false, now, now))

	steps, err := repo.ListByDream(context.Background(), sqlDreamA)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, 0, steps[0].OrderIndex)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStepRepository_ListByDreamsUsesUUIDArray(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewStepRepository(client)

	mock.ExpectQuery(`SELECT \* FROM "steps" WHERE dream_id = ANY\(\$1::uuid\[\]\) ORDER BY order_index ASC`).
		WithArgs("{" + `"` + sqlDreamA + `","` + sqlDreamB + `"` + "}").
		WillReturnRows(sqlmock.NewRows(stepColumns))

	steps, err := repo.ListByDreams(context.Background(), []string{sqlDreamA, sqlDreamB})
	require.NoError(t, err)
	assert.Empty(t, steps)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStepRepository_ListByDreamsEmptySkipsQuery(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewStepRepository(client)

	steps, err := repo.ListByDreams(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, steps)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStepRepository_GetForUserJoinsOwnership(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewStepRepository(client)

	now := time.Now()
	ownership := `FROM "steps" JOIN dreams ON dreams\.id = steps\.dream_id WHERE steps\.id = \$1 AND dreams\.user_id = \$2`
	mock.ExpectQuery(ownership).
		WillReturnRows(sqlmock.NewRows(stepColumns).
			AddRow(sqlStepID, sqlDreamA, "first", sqlAnyText, 0, true, now, now))
	mock.ExpectQuery(ownership).
		WillReturnRows(sqlmock.NewRows(stepColumns))

	st, err := repo.GetForUser(context.Background(), sqlUserID, sqlStepID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, st.Completed)

	st, err = repo.GetForUser(context.Background(), "someone-else", sqlStepID)
	require.NoError(t, err)
	assert.Nil(t, st)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStepRepository_SetCompleted(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewStepRepository(client)

	mock.ExpectExec(`UPDATE "steps" SET "completed"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(true, sqlmock.AnyArg(), sqlStepID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetCompleted(context.Background(), sqlStepID, true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	client, mock := newMockClient(t)
	tx := NewTxManager(client)
	repo := NewDreamRepository(client)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "dreams"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("step insert failed")
	err := tx.WithTransaction(context.Background(), func(txCtx context.Context) error {
		if _, err := repo.Delete(txCtx, sqlUserID, sqlDreamA); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
