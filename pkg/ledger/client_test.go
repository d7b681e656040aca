package ledger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/ledger"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(endpoints ...string) *ledger.Client {
	return ledger.NewWithOpts(ledger.Opts{
		Endpoints: endpoints,
		Timeout:   2 * time.Second,
		RPS:       1000,
	})
}

func window() (time.Time, time.Time) {
	until := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	return until.AddDate(0, 0, -6), until
}

func TestFetchVolumeSortsDays(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/volume", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"days":[
			{"day":"2025-08-19","amount":8},
			{"day":"2025-08-14","amount":3},
			{"day":"2025-08-20","amount":10}
		]}`))
	}))
	defer srv.Close()

	since, until := window()
	days, err := newClient(srv.URL).FetchVolume(context.Background(), "0xAbCd", since, until)
	require.NoError(t, err)

	require.Len(t, days, 3)
	assert.Equal(t, "2025-08-14", days[0].Day.Format("2006-01-02"))
	assert.Equal(t, "2025-08-19", days[1].Day.Format("2006-01-02"))
	assert.Equal(t, "2025-08-20", days[2].Day.Format("2006-01-02"))
	assert.Equal(t, 10.0, days[2].Amount)

	// The request carries a lowercased address and the inclusive day bounds.
	assert.Equal(t, "0xabcd", gotBody["address"])
	assert.Equal(t, "2025-08-14", gotBody["from_day"])
	assert.Equal(t, "2025-08-20", gotBody["until_day"])
}

func TestFetchVolumeNoActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"days":[]}`))
	}))
	defer srv.Close()

	since, until := window()
	days, err := newClient(srv.URL).FetchVolume(context.Background(), "0xabcd", since, until)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestFetchVolumeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	since, until := window()
	_, err := newClient(srv.URL).FetchVolume(context.Background(), "0xabcd", since, until)
	require.ErrorIs(t, err, ledger.ErrUnavailable)
}

func TestFetchVolumeMalformedDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"days":[{"day":"20-08-2025","amount":1}]}`))
	}))
	defer srv.Close()

	since, until := window()
	_, err := newClient(srv.URL).FetchVolume(context.Background(), "0xabcd", since, until)
	require.ErrorIs(t, err, ledger.ErrUnavailable)
}

func TestFetchVolumeHonorsCancellationWhileThrottled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"days":[]}`))
	}))
	defer srv.Close()

	// One token per second, burst of one: the first fetch drains the bucket.
	c := ledger.NewWithOpts(ledger.Opts{
		Endpoints: []string{srv.URL},
		Timeout:   2 * time.Second,
		RPS:       1,
		Burst:     1,
	})

	since, until := window()
	_, err := c.FetchVolume(context.Background(), "0xabcd", since, until)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err = c.FetchVolume(ctx, "0xabcd", since, until)
	require.Error(t, err)
	// The throttled wait must end with the context, not with the next refill.
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFetchVolumeFailsOverToHealthyEndpoint(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"days":[{"day":"2025-08-20","amount":5}]}`))
	}))
	defer healthy.Close()

	since, until := window()
	days, err := newClient(broken.URL, healthy.URL).FetchVolume(context.Background(), "0xabcd", since, until)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 5.0, days[0].Amount)
}
