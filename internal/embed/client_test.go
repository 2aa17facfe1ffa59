// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

const baseURL = "http://embedder.test"

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	goleak.VerifyTestMain(m)
}

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func newTestClient(opts ...func(*types.EmbeddingConfig)) *Client {
	cfg := types.EmbeddingConfig{
		BaseURL:     baseURL + "/",
		Model:       "all-minilm",
		Concurrency: 2,
		MaxRetries:  2,
		Timeout:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg)
}

// echoResponder returns, for each input text, a vector whose first element
// is the text length so tests can check ordering.
func echoResponder(t *testing.T, calls *int32) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		var body embedRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
		}
		assert.Equal(t, "all-minilm", body.Model)
		vecs := make([][]float32, len(body.Input))
		for i, text := range body.Input {
			vecs[i] = []float32{float32(len(text)), 1}
		}
		return httpmock.NewJsonResponse(http.StatusOK, embedResponse{Embeddings: vecs})
	}
}

func TestProbe(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, baseURL+"/api/tags",
		httpmock.NewStringResponder(http.StatusOK, `{"models":[{"name":"llama3:8b"},{"name":"all-minilm:latest"}]}`))
	assert.NoError(t, newTestClient().Probe(context.Background()))

	err := newTestClient(func(c *types.EmbeddingConfig) { c.Model = "nomic-embed-text" }).Probe(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "nomic-embed-text")
}

func TestProbeBackendDown(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, baseURL+"/api/tags",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	err := newTestClient().Probe(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEmbed(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, baseURL+"/api/embed", echoResponder(t, nil))

	vec, err := newTestClient().Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, vec)
}

func TestEmbedSendsBearerToken(t *testing.T) {
	setupHTTPMock(t)

	var auth string
	httpmock.RegisterResponder(http.MethodPost, baseURL+"/api/embed",
		func(req *http.Request) (*http.Response, error) {
			auth = req.Header.Get("Authorization")
			return httpmock.NewJsonResponse(http.StatusOK, embedResponse{Embeddings: [][]float32{{1}}})
		})

	c := newTestClient(func(c *types.EmbeddingConfig) { c.APIKey = "ek_test" })
	_, err := c.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Bearer ek_test", auth)
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	setupHTTPMock(t)

	var calls int32
	httpmock.RegisterResponder(http.MethodPost, baseURL+"/api/embed", echoResponder(t, &calls))

	texts := make([]string, BatchSize*2+5)
	for i := range texts {
		texts[i] = string(make([]byte, i+1))
	}

	vecs, err := newTestClient().EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for i, v := range vecs {
		assert.Equal(t, float32(i+1), v[0], "vector %d", i)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEmbedBatchEmpty(t *testing.T) {
	vecs, err := newTestClient().EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedBatchBoundsConcurrency(t *testing.T) {
	setupHTTPMock(t)

	var inFlight, peak int32
	httpmock.RegisterResponder(http.MethodPost, baseURL+"/api/embed",
		func(req *http.Request) (*http.Response, error) {
			n := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return echoResponder(t, nil)(req)
		})

	texts := make([]string, BatchSize*6)
	for i := range texts {
		texts[i] = "finding"
	}
	_, err := newTestClient().EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestEmbedRetriesUnavailable(t *testing.T) {
	setupHTTPMock(t)

	var calls int32
	httpmock.RegisterResponder(http.MethodPost, baseURL+"/api/embed",
		func(req *http.Request) (*http.Response, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return httpmock.NewStringResponse(http.StatusServiceUnavailable, "loading model"), nil
			}
			return echoResponder(t, nil)(req)
		})

	vec, err := newTestClient().Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, float32(3), vec[0])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEmbedBatchPropagatesErrors(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, baseURL+"/api/embed",
		httpmock.NewStringResponder(http.StatusBadRequest, `{"error":"bad input"}`))

	_, err := newTestClient().EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}

func TestEmbedRejectsShortResponse(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, baseURL+"/api/embed",
		httpmock.NewStringResponder(http.StatusOK, `{"embeddings":[[1,2]]}`))

	_, err := newTestClient().EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}
