package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeil/syfix"
)

func TestListNotebooks(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epListNotebooks: `{"code":0,"msg":"","data":{"notebooks":[
			{"id":"20250210000000-aaaaaaa","name":"journal","icon":"1f4d4","sort":0,"closed":false},
			{"id":"20250210000000-bbbbbbb","name":"notion","icon":"","sort":1,"closed":false}
		]}}`,
	})
	c := newTestClient(t, srv.URL, 0)

	notebooks, err := c.ListNotebooks(context.Background())
	require.NoError(t, err)
	require.Len(t, notebooks, 2)
	assert.Equal(t, "notion", notebooks[1].Name)
	assert.Equal(t, "20250210000000-bbbbbbb", notebooks[1].ID)

	req := srv.last(epListNotebooks)
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "application/json", req.contentType)
	assert.Equal(t, "Token secret", req.auth)
	assert.JSONEq(t, `{}`, req.body)
}

func TestResolveHomeWithClient(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epListNotebooks: `{"code":0,"msg":"","data":{"notebooks":[{"id":"nb1","name":"notion"}]}}`,
	})
	c := newTestClient(t, srv.URL, 0)

	h, err := syfix.ResolveHome(context.Background(), c, "/data", "notion")
	require.NoError(t, err)
	assert.Equal(t, "nb1", h.Notebook.ID)

	_, err = syfix.ResolveHome(context.Background(), c, "/data", "other")
	assert.True(t, syfix.IsNotFound(err))
}

func TestPathByID(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epPathByID: `{"code":0,"msg":"","data":"/20250211145209-ncpw7tz.sy"}`,
	})
	c := newTestClient(t, srv.URL, 0)

	p, err := c.PathByID(context.Background(), "20250211145209-ncpw7tz")
	require.NoError(t, err)
	assert.Equal(t, "/20250211145209-ncpw7tz.sy", p)
	assert.JSONEq(t, `{"id":"20250211145209-ncpw7tz"}`, srv.last(epPathByID).body)
}

func TestPathByIDUnknown(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epPathByID: `{"code":-1,"msg":"tree not found","data":null}`,
	})
	c := newTestClient(t, srv.URL, 0)

	_, err := c.PathByID(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, syfix.IsLookup(err))
	assert.Contains(t, err.Error(), "tree not found")
}

func TestKramdown(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epKramdown: `{"code":0,"msg":"","data":{"id":"blk","kramdown":"plain text\n{: id=\"blk\" updated=\"20250212\"}"}}`,
	})
	c := newTestClient(t, srv.URL, 0)

	k, err := c.Kramdown(context.Background(), "blk")
	require.NoError(t, err)
	assert.Equal(t, "plain text\n{: id=\"blk\" updated=\"20250212\"}", k)
}

func TestUpdateBlock(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epUpdate: `{"code":0,"msg":"","data":[{"doOperations":[{"action":"update","id":"blk"}]}]}`,
	})
	c := newTestClient(t, srv.URL, 0)

	err := c.UpdateBlock(context.Background(), "plain text", "blk")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":"plain text","dataType":"markdown","id":"blk"}`, srv.last(epUpdate).body)
}

func TestRemoteError(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epUpdate:   `{"code":-1,"msg":"block not found","data":null}`,
		epKramdown: `{"code":-1,"msg":"not found block","data":null}`,
		epDelete:   `{"code":-1,"msg":"readonly mode","data":null}`,
		epChildren: `{"code":-1,"msg":"invalid ID","data":null}`,
		epInsert:   `{"code":-1,"msg":"invalid ID","data":null}`,
	})
	c := newTestClient(t, srv.URL, 0)
	ctx := context.Background()

	err := c.UpdateBlock(ctx, "x", "blk")
	var re *syfix.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, -1, re.Code)
	assert.Equal(t, "block not found", re.Msg)
	assert.Equal(t, epUpdate, re.Endpoint)

	_, err = c.Kramdown(ctx, "blk")
	assert.True(t, syfix.IsRemote(err))
	err = c.DeleteBlock(ctx, "blk")
	assert.True(t, syfix.IsRemote(err))
	_, err = c.ChildBlocks(ctx, "blk")
	assert.True(t, syfix.IsRemote(err))
	_, err = c.InsertBlock(ctx, "x", "", "", "parent")
	assert.True(t, syfix.IsRemote(err))
}

func TestInsertBlock(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"object", `{"code":0,"msg":"","data":{"doOperations":{"id":"20250212000000-newblck"}}}`},
		{"transactions", `{"code":0,"msg":"","data":[{"doOperations":[{"action":"insert","id":"20250212000000-newblck"}],"undoOperations":null}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, map[string]string{epInsert: tt.response})
			c := newTestClient(t, srv.URL, 0)

			id, err := c.InsertBlock(context.Background(), "new", "", "prev", "")
			require.NoError(t, err)
			assert.Equal(t, "20250212000000-newblck", id)
			assert.JSONEq(t, `{"data":"new","dataType":"markdown","nextID":"","previousID":"prev","parentID":""}`,
				srv.last(epInsert).body)
		})
	}
}

func TestInsertBlockWithoutID(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epInsert: `{"code":0,"msg":"","data":[]}`,
	})
	c := newTestClient(t, srv.URL, 0)

	_, err := c.InsertBlock(context.Background(), "new", "", "", "parent")
	assert.True(t, syfix.IsTransport(err))
}

func TestDeleteBlock(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epDelete: `{"code":0,"msg":"","data":null}`,
	})
	c := newTestClient(t, srv.URL, 0)

	err := c.DeleteBlock(context.Background(), "blk")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"blk"}`, srv.last(epDelete).body)
}

func TestChildBlocks(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epChildren: `{"code":0,"msg":"","data":[
			{"id":"c1","type":"p","subType":""},
			{"id":"c2","type":"l","subType":"u"}
		]}`,
	})
	c := newTestClient(t, srv.URL, 0)

	children, err := c.ChildBlocks(context.Background(), "parent")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "c1", children[0].ID)
	assert.Equal(t, "u", children[1].SubType)
}

func TestTransportErrors(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epKramdown: `this is not json`,
	})
	c := newTestClient(t, srv.URL, 0)

	// not JSON
	_, err := c.Kramdown(context.Background(), "blk")
	assert.True(t, syfix.IsTransport(err))
	assert.False(t, syfix.IsRemote(err))

	// HTTP status
	_, err = c.ChildBlocks(context.Background(), "blk")
	assert.True(t, syfix.IsTransport(err))
	assert.False(t, syfix.IsNotFound(err))
	var se *syfix.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Kramdown(context.Background(), "blk")
	var te *syfix.TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout())
}

// TestConcurrencyLimit asserts that the number of requests in flight never
// exceeds the configured limit, even with many concurrent callers.
func TestConcurrencyLimit(t *testing.T) {
	const limit = 3
	var inFlight, maxInFlight int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		// failing requests must release their slot, too
		if r.URL.Path == epUpdate {
			fmt.Fprint(w, `{"code":-1,"msg":"failed","data":null}`)
			return
		}
		fmt.Fprint(w, `{"code":0,"msg":"","data":{"kramdown":"x\n{: id=\"a\"}"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, limit)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("blk-%d", i)
			if i%2 == 0 {
				c.UpdateBlock(context.Background(), "x", id)
			} else {
				c.Kramdown(context.Background(), id)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(limit))
	assert.Greater(t, atomic.LoadInt32(&maxInFlight), int32(0))

	// all slots are free again
	assert.True(t, c.sem.TryAcquire(limit))
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		epDelete: `{"code":0,"msg":"","data":null}`,
	})
	c, err := NewClient(Config{BaseURL: srv.URL, RequestsPerSecond: 20})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, c.DeleteBlock(context.Background(), "blk"))
	}
	// first request passes immediately, four more at 50ms intervals
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)

	cfg := c.Config()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, int64(DefaultConcurrency), cfg.Concurrency)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Nil(t, c.limiter)

	_, err = NewClient(Config{BaseURL: "127.0.0.1:6806"})
	assert.Error(t, err)
	_, err = NewClient(Config{RequestsPerSecond: -1})
	assert.Error(t, err)
}

// Test helpers ---------------------------------------------------------------

type recordedRequest struct {
	method      string
	contentType string
	auth        string
	body        string
}

// testServer answers each endpoint with a fixed response body.
// Unknown endpoints get a 404.
type testServer struct {
	*httptest.Server
	mx       sync.Mutex
	requests map[string][]recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	s := &testServer{requests: make(map[string][]recordedRequest)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mx.Lock()
		s.requests[r.URL.Path] = append(s.requests[r.URL.Path], recordedRequest{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			body:        string(body),
		})
		s.mx.Unlock()

		res, ok := responses[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, res)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *testServer) last(endpoint string) recordedRequest {
	s.mx.Lock()
	defer s.mx.Unlock()
	r := s.requests[endpoint]
	if len(r) == 0 {
		return recordedRequest{}
	}
	return r[len(r)-1]
}

func newTestClient(t *testing.T, baseURL string, concurrency int64) *Client {
	c, err := NewClient(Config{
		BaseURL:     baseURL,
		Token:       "secret",
		Concurrency: concurrency,
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestEnvelopeEmpty(t *testing.T) {
	cases := map[string]bool{
		`{"code":0,"msg":""}`:                true,
		`{"code":0,"msg":"","data":null}`:    true,
		`{"code":0,"msg":"","data":{}}`:      false,
		`{"code":0,"msg":"","data":"/x.sy"}`: false,
	}
	for raw, expected := range cases {
		var e envelope
		require.NoError(t, json.Unmarshal([]byte(raw), &e))
		assert.Equal(t, expected, e.empty(), raw)
	}
}
