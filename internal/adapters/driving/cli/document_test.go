package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	commandNames := make([]string, 0)
	for _, cmd := range documentCmd.Commands() {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"list", "get", "content", "details", "delete"}, commandNames)
}

func TestDocumentListCmd(t *testing.T) {
	ts, cleanup := installTestServices()
	defer cleanup()
	ts.documents.docs = []domain.Document{
		{ID: "doc-1", Title: "Alpha", URI: "/a.pdf"},
		{ID: "doc-2", Title: "Beta", URI: "/b.txt"},
	}

	out, err := execute(t, "document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "Title: Beta")
	assert.Contains(t, out, "Total: 2 documents")
}

func TestDocumentListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}

func TestDocumentGetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "get", "doc-9")

	require.NoError(t, err)
	assert.Contains(t, out, "Document: doc-9")
	assert.Contains(t, out, "Mock Document")
	assert.Contains(t, out, "2026-01-02 03:04:05")
}

func TestDocumentContentCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "content", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "First chunk.\nSecond chunk.")
}

func TestDocumentDetailsCmd_SortsMetadata(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "details", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Chunks:      2")
	author := strings.Index(out, "info.Author: Ada")
	pages := strings.Index(out, "number_of_pages: 3")
	require.GreaterOrEqual(t, author, 0)
	require.GreaterOrEqual(t, pages, 0)
	assert.Less(t, author, pages)
}

func TestDocumentDeleteCmd(t *testing.T) {
	ts, cleanup := installTestServices()
	defer cleanup()

	out, err := execute(t, "document", "delete", "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "doc-1", ts.documents.deleted)
	assert.Contains(t, out, "Document doc-1 deleted.")
}

func TestDocumentCmd_NotFound(t *testing.T) {
	ts, cleanup := installTestServices()
	defer cleanup()
	ts.documents.err = domain.ErrNotFound

	for _, sub := range []string{"get", "content", "details", "delete"} {
		_, err := execute(t, "document", sub, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound, sub)
	}
}

func TestDocumentCmd_ErrorsWithoutService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	documentService = nil

	_, err := execute(t, "document", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
