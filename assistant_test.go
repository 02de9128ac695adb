package immilaw

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("create new store", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		assistant, err := Open(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, assistant)
		defer assistant.Close()

		assert.NotNil(t, assistant.ChunkRepository())
		assert.NotNil(t, assistant.Provider())
		assert.NotNil(t, assistant.backend)
		assert.NotNil(t, assistant.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// A file where the store directory should be.
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		assistant, err := Open(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, assistant)
	})
}

func TestAssistant_Close(t *testing.T) {
	assistant, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, assistant)

	err = assistant.Close()
	assert.NoError(t, err)
}

func TestAssistant_FactoryMethods(t *testing.T) {
	assistant, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, assistant)
	defer assistant.Close()

	t.Run("can create deep-search pipeline", func(t *testing.T) {
		pipeline, err := assistant.NewPipeline(nil)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create ingest pipeline", func(t *testing.T) {
		pipeline, err := assistant.NewIngestPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create reindexer", func(t *testing.T) {
		reindexer := assistant.NewReindexer(nil, os.Stderr)
		require.NotNil(t, reindexer)
	})
}
