package data

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagination_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Pagination
		want Pagination
	}{
		{"zero", Pagination{}, Pagination{Page: 1, PageSize: DefaultPageSize}},
		{"negative page", Pagination{Page: -3, PageSize: 5}, Pagination{Page: 1, PageSize: 5}},
		{"too large", Pagination{Page: 2, PageSize: 1000}, Pagination{Page: 2, PageSize: MaxPageSize}},
		{"valid", Pagination{Page: 3, PageSize: 10}, Pagination{Page: 3, PageSize: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}

	assert.Equal(t, 20, Pagination{Page: 3, PageSize: 10}.Offset())
}

func TestAnalysisRecord_TableName(t *testing.T) {
	assert.Equal(t, "analyses", AnalysisRecord{}.TableName())
}

// TestAnalysisRepository runs against a real Postgres when TEST_DATABASE_DSN is set.
func TestAnalysisRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := Open(dsn)
	require.NoError(t, err)
	repo := NewAnalysisRepository(db)
	require.NoError(t, repo.AutoMigrate())

	ctx := context.Background()
	rec := &AnalysisRecord{Body: `{"detected_skin_issues":["acne"]}`, Status: StatusSuccess}
	require.NoError(t, repo.Create(ctx, rec))
	require.NotEqual(t, uuid.Nil, rec.ID)
	t.Cleanup(func() { _ = repo.Delete(ctx, rec.ID.String()) })

	got, err := repo.FindByID(ctx, rec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.JSONEq(t, rec.Body, got.Body)

	list, err := repo.FindAll(ctx, Pagination{Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, rec.ID.String()))
	_, err = repo.FindByID(ctx, rec.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}
