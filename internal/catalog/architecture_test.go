package catalog

import (
	"testing"

	"rotorcore/testutil"
)

func TestPersistenceDriversStayBehindCatalog(t *testing.T) {
	testutil.AssertOnlyImportedBy(t, "rotorcore/...", "rotorcore/internal/infra/persistence", "rotorcore/internal/catalog")
}
