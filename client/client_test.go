package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/config"
	"github.com/goliatone/go-formflow/internal/sheetfake"
	"github.com/goliatone/go-formflow/logging"
	"github.com/goliatone/go-formflow/urls"
)

func TestClientRoundTrip(t *testing.T) {
	fake := sheetfake.New()
	fake.SetSchema("intake", []byte(`{"columns":[{"id":"site","type":"text"}]}`))
	srv := fake.Start()
	defer srv.Close()

	c := New(WithBaseURL(srv.URL+"/"), WithLogger(logging.Nop{}))

	data, err := c.Do(context.Background(), formflow.NewGet(urls.SchemaURL("intake")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[{"id":"site","type":"text"}]}`, string(data))

	body, _ := json.Marshal([][]any{{"ts", "north"}})
	_, err = c.Do(context.Background(), formflow.NewPostJSON(urls.SubmitURL("intake", ""), body))
	require.NoError(t, err)
	require.Len(t, fake.Appends(), 1)
	assert.Equal(t, []any{"ts", "north"}, fake.Appends()[0].Rows[0])
}

func TestClientDecodesRemoteMessage(t *testing.T) {
	fake := sheetfake.New()
	fake.Fail("/api/intake/schema", http.StatusServiceUnavailable, "sheet is being rebuilt")
	srv := fake.Start()
	defer srv.Close()

	c := New(WithConfig(config.Config{BaseURL: srv.URL}), WithLogger(logging.Nop{}))

	_, err := c.Do(context.Background(), formflow.NewGet(urls.SchemaURL("intake")))
	require.Error(t, err)
	assert.Equal(t, formflow.ErrCodeRemoteRequestFailed, formflow.ErrorCode(err))
	assert.Equal(t, "sheet is being rebuilt", formflow.UserMessage(err))
}

func TestClientFallsBackToStatusText(t *testing.T) {
	srv := sheetfake.New().Start()
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithLogger(logging.Nop{}))
	_, err := c.Do(context.Background(), formflow.NewGet("/nowhere"))
	require.Error(t, err)
	assert.Equal(t, http.StatusText(http.StatusNotFound), formflow.UserMessage(err))
}

func TestClientSendsConfiguredHeaders(t *testing.T) {
	var got http.Header
	srv := sheetfake.New()
	ts := srv.Start()
	defer ts.Close()

	c := New(
		WithBaseURL(ts.URL),
		WithLogger(logging.Nop{}),
		WithHeaders(map[string]string{"X-Api-Key": "k1"}),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			got = r.Header.Clone()
			return http.DefaultTransport.RoundTrip(r)
		})}),
	)
	_, err := c.Do(context.Background(), formflow.NewPostJSON(urls.SubmitURL("intake", ""), []byte(`[[1]]`)))
	require.NoError(t, err)
	assert.Equal(t, "k1", got.Get("X-Api-Key"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
}

func TestClientTimeout(t *testing.T) {
	c := New(
		WithLogger(logging.Nop{}),
		WithTimeout(10*time.Millisecond),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			<-r.Context().Done()
			return nil, r.Context().Err()
		})}),
	)
	_, err := c.Do(context.Background(), formflow.NewGet("http://sheets.invalid/api/x/schema"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
