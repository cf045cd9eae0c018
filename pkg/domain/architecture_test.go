package domain_test

import (
	"testing"

	"github.com/indofiz/qcms-data-structure-sub000/testutil"
)

// TestDomainHasNoInternalImports keeps the domain package free of
// infrastructure dependencies.
func TestDomainHasNoInternalImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"pkg/domain must not depend on internal packages")
}
