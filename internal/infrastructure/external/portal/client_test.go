package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/escrow-portal/internal/domain/money"
)

func newTestClient(t *testing.T, handler http.Handler, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:    srv.URL,
		APIToken:   "secret",
		Timeout:    2 * time.Second,
		MaxPages:   5,
		MaxRetries: retries,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresAbsoluteURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "/relative"}, nil)
	assert.Error(t, err)
}

func TestListMilestones_BareArray(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathMilestones, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"id": 1, "amount": "100.10"}, {"id": 2, "amount": 0.1}]`)
	}), 0)

	records, err := c.ListMilestones(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].String("id"))
	assert.Equal(t, int64(10), money.Of(records[1]).Cents)
}

func TestListInvoices_FollowsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(pathInvoices, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprintf(w, `{"results": [{"id": 1}], "next": "%s?page=2"}`, pathInvoices)
		case "2":
			fmt.Fprint(w, `{"results": [{"id": 2}, {"id": 3}], "next": null}`)
		}
	})
	c := newTestClient(t, mux, 0)

	records, err := c.ListInvoices(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestList_StopsAtPageLimit(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprintf(w, `{"results": [{"id": 1}], "next": "%s"}`, r.URL.Path)
	}), 0)

	records, err := c.ListDisputes(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestList_EmptyBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `null`)
	}), 0)

	records, err := c.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestList_RetriesUnavailable(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{{"name": "Dana"}})
	}), 3)

	records, err := c.ListHomeowners(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestList_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), 1)

	_, err := c.ListMilestones(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestList_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"detail": "no"}`)
	}), 3)

	_, err := c.ListMilestones(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetAgreement(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects/agreements/42/":
			fmt.Fprint(w, `{"id": 42, "escrow_funded": true, "status": "funded"}`)
		default:
			http.NotFound(w, r)
		}
	}), 0)

	rec, err := c.GetAgreement(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, rec.Bool("escrow_funded"))

	_, err = c.GetAgreement(context.Background(), "7")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetAgreement(context.Background(), " ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = c.ListInvoices(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestDecodeList_RejectsGarbage(t *testing.T) {
	_, _, err := decodeList([]byte(`{"results": 5}`))
	assert.Error(t, err)
}
