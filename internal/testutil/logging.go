// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
)

// RunWithLogger initialises logging into a throw-away directory, runs
// the tests and returns their exit code. Use from TestMain:
//
//	func TestMain(m *testing.M) { os.Exit(testutil.RunWithLogger(m, "feed")) }
func RunWithLogger(m *testing.M, category string) int {
	dir, err := os.MkdirTemp("", category+"-log")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	logging := logger.Configuration{
		Directory: dir,
		File:      fmt.Sprintf("%s.log", category),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	if err := logger.Initialise(logging); err != nil {
		panic(fmt.Sprintf("logger initialization failed: %s", err))
	}
	defer logger.Finalise()

	return m.Run()
}
