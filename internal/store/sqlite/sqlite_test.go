package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/skylog-app/skylog/internal/store"
	"github.com/skylog-app/skylog/internal/store/storetest"
)

func TestSQLiteStoreCompliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(filepath.Join(t.TempDir(), "skylog.db"))
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return s
	})
}
