package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjranagit/isstracker/pkg/fault"
	"github.com/vjranagit/isstracker/pkg/types"
)

func readFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "oem.xml"))
	require.NoError(t, err)
	return data
}

func TestDecode(t *testing.T) {
	vectors, err := Decode(strings.NewReader(string(readFixture(t))))
	require.NoError(t, err)

	// duplicates are kept; the reconciler deals with them
	require.Len(t, vectors, 3)
	assert.Equal(t, "2025-063T12:00:00.000Z", vectors[0].Epoch)
	assert.Equal(t, "2025-063T12:01:00.000Z", vectors[1].Epoch)
	assert.Equal(t, vectors[0], vectors[2])

	assert.Equal(t, types.Quantity{Value: 1100, Units: "km"}, vectors[1].X)
	assert.Equal(t, types.Quantity{Value: 4, Units: "km/s"}, vectors[1].ZDot)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"not xml":      "this is not xml",
		"wrong root":   `<root><oem/></root>`,
		"no segments":  `<ndm><oem><body></body></oem></ndm>`,
		"bad number":   `<ndm><oem><body><segment><data><stateVector><EPOCH>2025-063T12:00:00.000Z</EPOCH><X>abc</X><Y>1</Y><Z>1</Z><X_DOT>1</X_DOT><Y_DOT>1</Y_DOT><Z_DOT>1</Z_DOT></stateVector></data></segment></body></oem></ndm>`,
		"missing item": `<ndm><oem><body><segment><data><stateVector><EPOCH>2025-063T12:00:00.000Z</EPOCH><X>1</X></stateVector></data></segment></body></oem></ndm>`,
		"bad epoch":    `<ndm><oem><body><segment><data><stateVector><EPOCH>2025-400T12:00:00.000Z</EPOCH><X>1</X><Y>1</Y><Z>1</Z><X_DOT>1</X_DOT><Y_DOT>1</Y_DOT><Z_DOT>1</Z_DOT></stateVector></data></segment></body></oem></ndm>`,
		"infinite":     `<ndm><oem><body><segment><data><stateVector><EPOCH>2025-063T12:00:00.000Z</EPOCH><X>Inf</X><Y>1</Y><Z>1</Z><X_DOT>1</X_DOT><Y_DOT>1</Y_DOT><Z_DOT>1</Z_DOT></stateVector></data></segment></body></oem></ndm>`,
	}
	for name, doc := range cases {
		_, err := Decode(strings.NewReader(doc))
		var pe *fault.ParseError
		assert.ErrorAs(t, err, &pe, name)
	}
}

func TestDecodeEmptyFeed(t *testing.T) {
	_, err := Decode(strings.NewReader(`<ndm><oem><body><segment><data></data></segment></body></oem></ndm>`))
	assert.ErrorIs(t, err, fault.ErrEmptyFeed)
}

func TestClientFetch(t *testing.T) {
	fixture := readFixture(t)
	var agent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.Header.Get("User-Agent"))
		w.Write(fixture)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Timeout: time.Second, UserAgent: "isstracker-test"})
	vectors, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, "isstracker-test", agent.Load())
}

func TestClientFetchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Timeout: time.Second})
	_, err := client.Fetch(context.Background())

	var fe *fault.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusServiceUnavailable, fe.Status)
}

func TestClientFetchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(Config{URL: url, Timeout: time.Second})
	_, err := client.Fetch(context.Background())

	var fe *fault.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestClientFetchFile(t *testing.T) {
	client := NewClient(Config{URL: filepath.Join("testdata", "oem.xml")})
	vectors, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, vectors, 3)

	client = NewClient(Config{URL: filepath.Join("testdata", "missing.xml")})
	_, err = client.Fetch(context.Background())
	var fe *fault.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestClientCollapsesConcurrentPulls(t *testing.T) {
	fixture := readFixture(t)
	release := make(chan struct{})
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write(fixture)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Timeout: 5 * time.Second})

	const callers = 8
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer done.Done()
			started.Done()
			vectors, err := client.Fetch(context.Background())
			assert.NoError(t, err)
			assert.Len(t, vectors, 3)
		}()
	}
	started.Wait()

	// give every caller time to join the in-flight pull
	time.Sleep(200 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
