package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopfront/src/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newTestServer(t *testing.T, configure func(*settings.Arguments)) *Server {
	args := settings.Defaults()
	args.DataDir = t.TempDir()
	args.Port = 0
	if configure != nil {
		configure(args)
	}

	srv, err := NewServer(args, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Stop() })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, "GET", "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"Hello":"World!"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, func(a *settings.Arguments) { a.StorageEngine = settings.StorageEngineSQLite })

	rec := do(t, srv, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","storage_engine":"sqlite","accessories":3}`, rec.Body.String())
}

func TestItems(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("read without q", func(t *testing.T) {
		rec := do(t, srv, "GET", "/items/5", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"item_id":5,"q":null}`, rec.Body.String())
	})

	t.Run("read with q", func(t *testing.T) {
		rec := do(t, srv, "GET", "/items/5?q=somequery", "")
		assert.JSONEq(t, `{"item_id":5,"q":"somequery"}`, rec.Body.String())
	})

	t.Run("non integer id", func(t *testing.T) {
		rec := do(t, srv, "GET", "/items/foo", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body struct {
			Detail []struct {
				Type string        `json:"type"`
				Loc  []interface{} `json:"loc"`
			} `json:"detail"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Detail, 1)
		assert.Equal(t, "int_parsing", body.Detail[0].Type)
		assert.Equal(t, []interface{}{"path", "item_id"}, body.Detail[0].Loc)
	})

	t.Run("update", func(t *testing.T) {
		rec := do(t, srv, "PUT", "/items/7", `{"name":"Foo","price":12.5,"is_offer":true}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"item_name":"Foo","item_id":7}`, rec.Body.String())
	})

	t.Run("update missing price", func(t *testing.T) {
		rec := do(t, srv, "PUT", "/items/7", `{"name":"Foo"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `"loc":["body","price"]`)
	})

	t.Run("update without body", func(t *testing.T) {
		rec := do(t, srv, "PUT", "/items/7", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `"loc":["body"]`)
	})
}

func TestAccessoriesLifecycle(t *testing.T) {
	for _, engineName := range []string{settings.StorageEngineBSON, settings.StorageEngineSQLite} {
		t.Run(engineName, func(t *testing.T) {
			srv := newTestServer(t, func(a *settings.Arguments) { a.StorageEngine = engineName })

			rec := do(t, srv, "GET", "/accessories", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"accessories":[
				{"id":1,"name":"Coque iPhone 14","color":"Noir","in_stock":true},
				{"id":2,"name":"Chargeur Samsung","color":"Blanc","in_stock":false},
				{"id":3,"name":"Écouteurs Bluetooth","color":"Bleu","in_stock":true}]}`, rec.Body.String())

			rec = do(t, srv, "GET", "/accessories/2", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"id":2,"name":"Chargeur Samsung","color":"Blanc","in_stock":false}`, rec.Body.String())

			rec = do(t, srv, "POST", "/accessories", `{"name":"Support voiture","color":"Gris"}`)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"id":4,"name":"Support voiture","color":"Gris","in_stock":null}`, rec.Body.String())

			rec = do(t, srv, "PUT", "/accessories/4", `{"name":"Support magnétique","color":"Noir","in_stock":true}`)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"accessory_name":"Support magnétique","accessory_id":4}`, rec.Body.String())

			rec = do(t, srv, "GET", "/accessories/4", "")
			assert.JSONEq(t, `{"id":4,"name":"Support magnétique","color":"Noir","in_stock":true}`, rec.Body.String())

			rec = do(t, srv, "DELETE", "/accessories/2", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"result":"deleted"}`, rec.Body.String())

			rec = do(t, srv, "POST", "/accessories", `{"name":"Câble USB-C","color":"Blanc","in_stock":false}`)
			assert.JSONEq(t, `{"id":5,"name":"Câble USB-C","color":"Blanc","in_stock":false}`, rec.Body.String())
		})
	}
}

func TestAccessoryFilters(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, "GET", "/accessories?name=ecouteurs", "")
	assert.JSONEq(t, `{"accessories":[{"id":3,"name":"Écouteurs Bluetooth","color":"Bleu","in_stock":true}]}`, rec.Body.String())

	rec = do(t, srv, "GET", "/accessories?in_stock=false", "")
	assert.JSONEq(t, `{"accessories":[{"id":2,"name":"Chargeur Samsung","color":"Blanc","in_stock":false}]}`, rec.Body.String())

	rec = do(t, srv, "GET", "/accessories?name=zzz", "")
	assert.JSONEq(t, `{"accessories":[]}`, rec.Body.String())

	rec = do(t, srv, "GET", "/accessories?in_stock=maybe", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"loc":["query","in_stock"]`)
}

func TestAccessoryNotFoundBodies(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, "GET", "/accessories/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"Error":"Not Found!"}`, rec.Body.String())

	rec = do(t, srv, "PUT", "/accessories/99", `{"name":"a","color":"b"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found!"}`, rec.Body.String())

	rec = do(t, srv, "DELETE", "/accessories/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"result":"not found!"}`, rec.Body.String())

	rec = do(t, srv, "PUT", "/accessories/99", `{"name":"a"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUnknownRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, "GET", "/nothing/here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, rec.Body.String())
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	rec = do(t, srv, "PATCH", "/accessories/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"detail":"Method Not Allowed"}`, rec.Body.String())
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}

func newObservedServer(t *testing.T) (*Server, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	args := settings.Defaults()
	args.DataDir = t.TempDir()
	args.Port = 0

	srv, err := NewServer(args, zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Stop() })
	return srv, logs
}

func TestFallbackResponsesAreAccessLogged(t *testing.T) {
	srv, logs := newObservedServer(t)

	req := httptest.NewRequest("GET", "/nothing/here", nil)
	req.Header.Set(requestIDHeader, "missing-route")
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("Handled request").FilterField(zap.String("request_id", "missing-route")).All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, http.StatusNotFound, entries[0].ContextMap()["status"])
}

func TestPanicsBecomeInternalServerErrors(t *testing.T) {
	srv, logs := newObservedServer(t)
	srv.router.HandleFunc("/explode", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}).Methods("GET")

	req := httptest.NewRequest("GET", "/explode", nil)
	req.Header.Set(requestIDHeader, "req-panic")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, rec.Body.String())
	assert.Equal(t, "req-panic", rec.Header().Get(requestIDHeader))

	panics := logs.FilterMessage("Handler panicked").FilterField(zap.String("request_id", "req-panic")).All()
	assert.Len(t, panics, 1)
	handled := logs.FilterMessage("Handled request").FilterField(zap.String("request_id", "req-panic")).All()
	require.Len(t, handled, 1)
	assert.EqualValues(t, http.StatusInternalServerError, handled[0].ContextMap()["status"])

	rec = do(t, srv, "GET", "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPathAndBodyErrorsAreReportedTogether(t *testing.T) {
	srv := newTestServer(t, nil)

	cases := []struct {
		path, param, field string
	}{
		{"/accessories/abc", "accessory_id", "color"},
		{"/items/abc", "item_id", "price"},
	}
	for _, c := range cases {
		rec := do(t, srv, "PUT", c.path, `{"name":"a"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, c.path)

		var body struct {
			Detail []struct {
				Loc []interface{} `json:"loc"`
			} `json:"detail"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), c.path)
		require.Len(t, body.Detail, 2, c.path)
		assert.Equal(t, []interface{}{"path", c.param}, body.Detail[0].Loc, c.path)
		assert.Equal(t, []interface{}{"body", c.field}, body.Detail[1].Loc, c.path)
	}
}
