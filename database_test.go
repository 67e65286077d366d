package lexicore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/lexicore/ai/mock"
	"github.com/poiesic/lexicore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify components are initialized
		assert.NotNil(t, db.DocumentStore())
		assert.NotNil(t, db.GraphStore())
		assert.NotNil(t, db.KeywordIndex())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, db)

	err = db.Close()
	assert.NoError(t, err)

	// Every store released its locks: the same path opens cleanly again
	db2, err := NewDatabase(tmpDir)
	require.NoError(t, err)
	require.NoError(t, db2.Close())
}

func TestDatabase_FactoryMethods(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir, WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := db.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create query engine", func(t *testing.T) {
		engine, err := db.NewEngine()
		require.NoError(t, err)
		require.NotNil(t, engine)
	})
}

func TestDatabase_IngestAndSearch(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir, WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	engine, err := db.NewEngine()
	require.NoError(t, err)

	ctx := context.Background()
	doc, err := pipeline.Ingest(ctx, &core.RawDocument{
		Id:            "tax-code-11.13",
		Jurisdiction:  "texas",
		Type:          core.DocumentTypeStatute,
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Text: "Sec. 11.13. RESIDENCE HOMESTEAD. An adult is entitled to " +
			"exemption from taxation by a school district of $100,000 of the " +
			"appraised value of the adult's residence homestead.",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StateIndexed, doc.State)

	resp, err := engine.Search(ctx, &core.Query{
		Text:  "homestead exemption",
		Mode:  core.ModeKeyword,
		Limit: 5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, core.DocumentID("tax-code-11.13"), resp.Results[0].Document.Id)
}
