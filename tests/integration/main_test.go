package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// TestMain spins up a single postgres container for the package and tears it
// down once all tests finish.
func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s, err := setupSuite(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test database: %v\n", err)
		os.Exit(1)
	}
	suite = s

	code := m.Run()

	suite.cleanup()
	os.Exit(code)
}
