package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjranagit/isstracker/internal/testutil"
	"github.com/vjranagit/isstracker/pkg/storage"
	"github.com/vjranagit/isstracker/pkg/types"
)

func TestMain(m *testing.M) {
	initialiseLogger = func(logger.Configuration) error { return nil }
	finaliseLogger = func() {}
	os.Exit(testutil.RunWithLogger(m, "cli"))
}

// setup points the configuration at a temporary store and a stub geocoder
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	geocoder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"display_name":"Somewhere, Earth"}`))
	}))
	t.Cleanup(geocoder.Close)

	t.Setenv("STORAGE_PATH", dir)
	t.Setenv("LOG_DIRECTORY", t.TempDir())
	t.Setenv("GEOCODER_URL", geocoder.URL)
	t.Setenv("FEED_URL", "testdata/missing.xml")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestFile(t *testing.T) {
	setup(t)

	out, err := run(t, "ingest", "--file", "testdata/oem.xml")
	require.NoError(t, err)
	assert.Contains(t, out, "processed 3: 2 inserted, 0 updated, 1 unchanged")

	out, err = run(t, "ingest", "-f", "testdata/oem.xml")
	require.NoError(t, err)
	assert.Contains(t, out, "0 inserted, 0 updated, 3 unchanged")
}

func TestIngestConfiguredFeedMissing(t *testing.T) {
	setup(t)

	_, err := run(t, "ingest")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	setup(t)

	_, err := run(t, "ingest", "--file", "testdata/oem.xml")
	require.NoError(t, err)

	out, err := run(t, "verify")
	require.NoError(t, err)

	var report storage.VerifyReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.IndexEntries)
	assert.Equal(t, 2, report.Samples)
}

func TestNow(t *testing.T) {
	setup(t)

	_, err := run(t, "now")
	assert.Error(t, err, "empty cache")

	_, err = run(t, "ingest", "--file", "testdata/oem.xml")
	require.NoError(t, err)

	out, err := run(t, "now")
	require.NoError(t, err)

	var result types.NowResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "2025-063T12:01:00.000Z", result.Epoch)
	assert.Equal(t, "Somewhere, Earth", result.NearestGeolocation)
}

func TestBadConfigFile(t *testing.T) {
	setup(t)

	_, err := run(t, "--config", "testdata/missing.yml", "verify")
	assert.Error(t, err)
}
