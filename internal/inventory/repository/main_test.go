package repository_test

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/inventorycore/inventory-core/pkg/scope"
	"github.com/inventorycore/inventory-core/pkg/testutil"
)

var suite *testutil.IntegrationSuite

const testScope = scope.Prod

func TestMain(m *testing.M) {
	flag.Parse()

	// Every test in this package needs the container; in short mode they
	// all skip themselves, so don't start one.
	if !testing.Short() {
		ctx := context.Background()

		var err error
		suite, err = testutil.NewIntegrationSuite(ctx)
		if err != nil {
			os.Stderr.WriteString("failed to set up integration suite: " + err.Error() + "\n")
			os.Exit(1)
		}
		defer testutil.TerminateContainer(ctx)
	}

	os.Exit(m.Run())
}
