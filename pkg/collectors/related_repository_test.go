package collectors

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yair/lineup/pkg/domain"
)

func TestRelatedArtistRepository_SQLite(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, err := NewRelatedArtistRepository(db)
	require.NoError(t, err)
	ctx := context.Background()

	rows := []domain.RelatedArtistRow{
		{SourceArtistID: "a", RelatedPlatformID: "p1", Strength: domain.StrengthHeavy},
		{SourceArtistID: "b", RelatedPlatformID: "p1", Strength: domain.StrengthLight},
		{SourceArtistID: "b", RelatedPlatformID: "p2"},
		{SourceArtistID: "c", RelatedPlatformID: "p3", Strength: domain.StrengthMedium},
	}
	require.NoError(t, repo.SaveRelations(ctx, rows))

	t.Run("finds rows for requested ids", func(t *testing.T) {
		found, err := repo.FindByPlatformIDs(ctx, []string{"p1", "p2"})
		require.NoError(t, err)
		assert.Equal(t, []domain.RelatedArtistRow{
			{SourceArtistID: "a", RelatedPlatformID: "p1", Strength: domain.StrengthHeavy},
			{SourceArtistID: "b", RelatedPlatformID: "p1", Strength: domain.StrengthLight},
			{SourceArtistID: "b", RelatedPlatformID: "p2", Strength: domain.StrengthUnknown},
		}, found)
	})

	t.Run("upsert updates strength", func(t *testing.T) {
		require.NoError(t, repo.SaveRelations(ctx, []domain.RelatedArtistRow{
			{SourceArtistID: "b", RelatedPlatformID: "p2", Strength: domain.StrengthMedium},
		}))
		found, err := repo.FindByPlatformIDs(ctx, []string{"p2"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, domain.StrengthMedium, found[0].Strength)
	})

	t.Run("empty input", func(t *testing.T) {
		found, err := repo.FindByPlatformIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("batch above limit", func(t *testing.T) {
		ids := make([]string, MaxRelatedBatch+1)
		for i := range ids {
			ids[i] = fmt.Sprintf("p%d", i)
		}
		_, err := repo.FindByPlatformIDs(ctx, ids)
		assert.True(t, errors.Is(err, domain.ErrBatchTooLarge))
	})

	t.Run("invalid row", func(t *testing.T) {
		err := repo.SaveRelations(ctx, []domain.RelatedArtistRow{{SourceArtistID: "a"}})
		var verr domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func newPostgresMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{DB: sqlDB, Driver: DriverPostgres}, mock
}

func TestRelatedArtistRepository_PostgresPlaceholders(t *testing.T) {
	db, mock := newPostgresMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS related_artists").WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewRelatedArtistRepository(db)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE related_platform_id IN ($1, $2)")).
		WithArgs("p1", "p2").
		WillReturnRows(sqlmock.NewRows([]string{"source_artist_id", "related_platform_id", "strength"}).
			AddRow("a", "p1", "Heavy").
			AddRow("b", "p2", nil))

	found, err := repo.FindByPlatformIDs(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, []domain.RelatedArtistRow{
		{SourceArtistID: "a", RelatedPlatformID: "p1", Strength: domain.StrengthHeavy},
		{SourceArtistID: "b", RelatedPlatformID: "p2", Strength: domain.StrengthUnknown},
	}, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelatedArtistRepository_QueryError(t *testing.T) {
	db, mock := newPostgresMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS related_artists").WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewRelatedArtistRepository(db)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT source_artist_id").WillReturnError(errors.New("connection reset"))

	_, err = repo.FindByPlatformIDs(context.Background(), []string{"p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelatedArtistRepository_SaveRelationsRollsBack(t *testing.T) {
	db, mock := newPostgresMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS related_artists").WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewRelatedArtistRepository(db)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3)")).
		WithArgs("a", "p1", "heavy").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3)")).
		WithArgs("b", "p1", "").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = repo.SaveRelations(context.Background(), []domain.RelatedArtistRow{
		{SourceArtistID: "a", RelatedPlatformID: "p1", Strength: domain.StrengthHeavy},
		{SourceArtistID: "b", RelatedPlatformID: "p1"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
