package database_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bjyitu/aiexif/internal/database"
	"github.com/bjyitu/aiexif/internal/selector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *database.Store {
	t.Helper()
	s, err := database.Open(filepath.Join(t.TempDir(), "prompts.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(t *testing.T, path string, fields map[string]string) database.Record {
	t.Helper()
	r, err := database.NewRecord(path, selector.Extract(fields), nil)
	require.NoError(t, err)
	return r
}

func TestDriverFor(t *testing.T) {
	assert.Equal(t, database.DriverDuckDB, database.DriverFor("/x/prompts.duckdb"))
	assert.Equal(t, database.DriverDuckDB, database.DriverFor("P.DUCKDB"))
	assert.Equal(t, database.DriverSQLite, database.DriverFor("prompts.sqlite"))
	assert.Equal(t, database.DriverSQLite, database.DriverFor("prompts.db"))
	assert.Equal(t, database.DriverSQLite, database.DriverFor("prompts"))
}

func TestNewRecord(t *testing.T) {
	r := record(t, "a.png", map[string]string{
		"parameters": "a cat\nNegative prompt: blurry\nSteps: 20, Sampler: Euler a",
	})
	assert.Equal(t, database.Record{
		Path:           "a.png",
		SourceField:    "parameters",
		Prompt:         "a cat",
		NegativePrompt: sql.NullString{String: "blurry", Valid: true},
		Parameters:     `{"Steps":"20","Sampler":"Euler a"}`,
	}, r)

	r = record(t, "b.png", map[string]string{"prompt": `{"3":{}}`, "workflow": `{"nodes":[]}`})
	assert.Equal(t, database.Record{
		Path:        "b.png",
		SourceField: "prompt",
		Prompt:      `{"3":{}}`,
		Workflow:    `{"nodes":[]}`,
	}, r)

	r = record(t, "c.png", nil)
	assert.Equal(t, database.Record{Path: "c.png"}, r)

	r, err := database.NewRecord("d.png", selector.Result{}, errors.New("not a png"))
	require.NoError(t, err)
	assert.Equal(t, database.Record{Path: "d.png", Error: "not a png"}, r)
}

func TestInsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	assert.Equal(t, database.DriverSQLite, s.Driver())

	batch := []database.Record{
		record(t, "/img/1.png", map[string]string{"parameters": "red fox\nSteps: 20, Sampler: Euler a, Seed: 1"}),
		record(t, "/img/2.png", map[string]string{"parameters": "blue fox\nNegative prompt: ugly\nSteps: 30, Sampler: DDIM"}),
		record(t, "/img/3.png", map[string]string{"workflow": `{"nodes":[]}`}),
		record(t, "/img/4.jpg", map[string]string{"Comment": "Steps: 5, Sampler: Euler"}),
	}
	require.NoError(t, s.InsertBatch(ctx, batch))
	require.NoError(t, s.InsertBatch(ctx, nil))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	existing, err := s.ExistingPaths(ctx)
	require.NoError(t, err)
	assert.Len(t, existing, 4)
	assert.Contains(t, existing, "/img/3.png")

	all, err := s.Find(ctx, database.FindOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, batch[1], all[1])

	bySampler, err := s.Find(ctx, database.FindOptions{Sampler: "Euler a"})
	require.NoError(t, err)
	require.Len(t, bySampler, 1)
	assert.Equal(t, "/img/1.png", bySampler[0].Path)

	byField, err := s.Find(ctx, database.FindOptions{Fields: []string{"workflow", "Comment"}})
	require.NoError(t, err)
	require.Len(t, byField, 2)
	assert.Equal(t, "/img/3.png", byField[0].Path)
	assert.Equal(t, "/img/4.jpg", byField[1].Path)

	byPrompt, err := s.Find(ctx, database.FindOptions{PromptContains: "fox", Sampler: "DDIM"})
	require.NoError(t, err)
	require.Len(t, byPrompt, 1)
	assert.Equal(t, "blue fox", byPrompt[0].Prompt)
	assert.Equal(t, "ugly", byPrompt[0].NegativePrompt.String)

	limited, err := s.Find(ctx, database.FindOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestInsertBatchUpserts(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.InsertBatch(ctx, []database.Record{{Path: "x.png", Error: "broken"}}))
	require.NoError(t, s.InsertBatch(ctx, []database.Record{record(t, "x.png", map[string]string{"parameters": "fixed"})}))

	got, err := s.Find(ctx, database.FindOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fixed", got[0].Prompt)
	assert.Empty(t, got[0].Error)
	assert.False(t, got[0].NegativePrompt.Valid)
}

func TestTableInfo(t *testing.T) {
	s := openStore(t)
	cols, err := s.TableInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, cols, 7)
	assert.Equal(t, "file_path", cols[0].Name)
	assert.True(t, cols[0].PrimaryKey)
	assert.Equal(t, "extract_error", cols[6].Name)
}

func TestWithDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.db")
	err := database.WithDB(path, func(s *database.Store) error {
		return s.InsertBatch(context.Background(), []database.Record{{Path: "a.png"}})
	})
	require.NoError(t, err)

	err = database.WithDB(path, func(s *database.Store) error {
		existing, err := s.ExistingPaths(context.Background())
		require.NoError(t, err)
		assert.Contains(t, existing, "a.png")
		return nil
	})
	require.NoError(t, err)
}
