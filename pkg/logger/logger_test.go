package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggersWritesCategoryFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitLoggers(dir, false))
	t.Cleanup(func() {
		SyncLoggers()
	})

	AuditLogger.Info("audit entry")
	ErrorLogger.Error("error entry")
	SyncLoggers()

	for _, name := range []string{"errors.log", "audit.log", "request.log", "security.log", "system.log"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "audit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "audit entry")
	assert.Contains(t, string(data), "timestamp")
}
