package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRepo_Get_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT value FROM kv WHERE key = \\?").
		WithArgs("voice-name").
		WillReturnError(sql.ErrNoRows)

	value, ok, err := NewKVRepo(db).Get(context.Background(), "voice-name")

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepo_Set(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO kv").
		WithArgs("voice-enabled", "true").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewKVRepo(db).Set(context.Background(), "voice-enabled", "true")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "pinyinmatch.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	repo := NewKVRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "pinyin-english-pairs", "[]"))
	require.NoError(t, repo.Set(ctx, "pinyin-english-pairs", `[{"pinyin":"hǎo","english":"good"}]`))

	value, ok, err := repo.Get(ctx, "pinyin-english-pairs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"pinyin":"hǎo","english":"good"}]`, value)

	require.NoError(t, repo.Delete(ctx, "pinyin-english-pairs"))
	_, ok, err = repo.Get(ctx, "pinyin-english-pairs")
	require.NoError(t, err)
	assert.False(t, ok)
}
