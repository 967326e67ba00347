package memory_test

import (
	"testing"

	"github.com/dukex/studioflow/pkg/persistence"
	"github.com/dukex/studioflow/pkg/persistence/memory"
	"github.com/dukex/studioflow/pkg/persistence/persistencetest"
)

func TestPersistence_Contract(t *testing.T) {
	persistencetest.Run(t, func(*testing.T) persistence.Persistence {
		return memory.NewPersistence()
	})
}
