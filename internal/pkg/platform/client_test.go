package platform

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/campus-simulator/internal/pkg/config"
	"github.com/anicoll/campus-simulator/internal/pkg/generator"
	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

type recordedCall struct {
	procedure string
	query     string
	header    http.Header
	body      []byte
}

type fakePlatform struct {
	mu     sync.Mutex
	calls  []recordedCall
	status map[string]int
}

func newFakePlatform(t *testing.T) (*fakePlatform, *httptest.Server) {
	t.Helper()
	fp := &fakePlatform{status: map[string]int{}}
	r := mux.NewRouter()
	r.HandleFunc("/api/trpc/{procedure}", fp.handle).Methods(http.MethodPost).Queries("batch", "1")
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return fp, srv
}

func (fp *fakePlatform) handle(w http.ResponseWriter, r *http.Request) {
	procedure := mux.Vars(r)["procedure"]
	body, _ := io.ReadAll(r.Body)

	fp.mu.Lock()
	fp.calls = append(fp.calls, recordedCall{procedure: procedure, query: r.URL.RawQuery, header: r.Header.Clone(), body: body})
	status, ok := fp.status[procedure]
	fp.mu.Unlock()

	if !ok {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = w.Write([]byte(`[{"result":{"data":{"json":{"success":true}}}}]`))
		return
	}
	_, _ = w.Write([]byte(`[{"error":{"json":{"message":"invalid input"}}}]`))
}

func (fp *fakePlatform) last(t *testing.T) recordedCall {
	t.Helper()
	fp.mu.Lock()
	defer fp.mu.Unlock()
	require.NotEmpty(t, fp.calls)
	return fp.calls[len(fp.calls)-1]
}

func newTestClient(t *testing.T, baseURL string) *client {
	t.Helper()
	c, err := New(&config.PlatformConfig{BaseURL: baseURL, Timeout: 2 * time.Second, UserAgent: "campus-simulator-test"})
	require.NoError(t, err)
	return c
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var batch model.BatchRequest[T]
	require.NoError(t, json.Unmarshal(body, &batch))
	payload, ok := batch.Payload()
	require.True(t, ok, "missing call under key 0: %s", body)
	return payload
}

func TestClient_Register(t *testing.T) {
	fp, srv := newFakePlatform(t)
	c := newTestClient(t, srv.URL+"/")

	res := c.Register(context.Background(), model.Device{ID: "temp-01", Name: "Lab", Type: model.Temperature, Location: "Building A"})
	require.True(t, res.OK(), res.String())
	assert.Equal(t, http.StatusOK, res.StatusCode)

	call := fp.last(t)
	assert.Equal(t, RegisterProcedure, call.procedure)
	assert.Equal(t, "batch=1", call.query)
	assert.Equal(t, "application/json", call.header.Get("Content-Type"))
	assert.Equal(t, "campus-simulator-test", call.header.Get("User-Agent"))
	assert.JSONEq(t, `{"0":{"json":{"deviceId":"temp-01","name":"Lab","type":"temperature","location":"Building A"}}}`, string(call.body))
}

func TestClient_UpdateStatus(t *testing.T) {
	fp, srv := newFakePlatform(t)
	c := newTestClient(t, srv.URL)

	res := c.UpdateStatus(context.Background(), "temp-01", model.StatusOffline)
	require.True(t, res.OK(), res.String())

	call := fp.last(t)
	assert.Equal(t, UpdateStatusProcedure, call.procedure)
	assert.JSONEq(t, `{"0":{"json":{"deviceId":"temp-01","status":"offline"}}}`, string(call.body))
}

func TestClient_NonOKStatusIsFailure(t *testing.T) {
	fp, srv := newFakePlatform(t)
	fp.status[SubmitProcedure] = http.StatusBadRequest
	c := newTestClient(t, srv.URL)

	res := c.SubmitReading(context.Background(), "temp-01", model.Reading{Value: "21.3", Unit: model.UnitDegreeC})
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.ErrorIs(t, res.Err, ErrUnexpectedStatus)
	assert.Contains(t, res.Err.Error(), "invalid input")
}

func TestClient_ConnectionFaultIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()
	c := newTestClient(t, baseURL)

	res := c.Register(context.Background(), model.Device{ID: "temp-01"})
	assert.False(t, res.OK())
	assert.Zero(t, res.StatusCode)
	assert.Error(t, res.Err)
}

func TestClient_TokenAndOmittedUnit(t *testing.T) {
	fp, srv := newFakePlatform(t)
	c, err := New(&config.PlatformConfig{BaseURL: srv.URL, Timeout: time.Second, Token: "abc"})
	require.NoError(t, err)

	res := c.SubmitReading(context.Background(), "dev", model.Reading{Value: "on,80"})
	require.True(t, res.OK(), res.String())

	call := fp.last(t)
	assert.Equal(t, "Bearer abc", call.header.Get("Authorization"))
	assert.JSONEq(t, `{"0":{"json":{"deviceId":"dev","value":"on,80"}}}`, string(call.body))
}

func TestClient_RequestEditorError(t *testing.T) {
	fp, srv := newFakePlatform(t)
	c, err := New(&config.PlatformConfig{BaseURL: srv.URL, Timeout: time.Second},
		WithRequestEditorFn(func(ctx context.Context, req *http.Request) error {
			return assert.AnError
		}))
	require.NoError(t, err)

	res := c.UpdateStatus(context.Background(), "dev", model.StatusOnline)
	assert.ErrorIs(t, res.Err, assert.AnError)
	assert.Empty(t, fp.calls)
}

func TestClient_ReadingRoundTrip(t *testing.T) {
	fp, srv := newFakePlatform(t)
	c := newTestClient(t, srv.URL)
	g := generator.New(generator.WithRand(rand.New(rand.NewPCG(7, 8))))

	for _, dt := range model.DeviceTypes {
		for hour := 0; hour < 24; hour++ {
			reading, err := g.GenerateAt(dt, hour)
			require.NoError(t, err)

			res := c.SubmitReading(context.Background(), "dev-"+dt.String(), reading)
			require.True(t, res.OK(), res.String())

			got := decode[model.ReadingPayload](t, fp.last(t).body)
			assert.Equal(t, []byte(reading.Value), []byte(got.Value))
			assert.Equal(t, []byte(reading.Unit), []byte(got.Unit))
			assert.Equal(t, "dev-"+dt.String(), got.DeviceID)
		}
	}
}
