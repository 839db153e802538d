package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"result":"error","kind":"unauthorized","message":"Please log in first"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "wwg_session", Value: "tok", Path: "/"})
		_, _ = w.Write([]byte(`{"result":"success","data":{"student_uid":1,"name":"Ann"}}`))
	})
	mux.HandleFunc("/api/student/search", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("wwg_session"); err != nil || c.Value != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"result":"error","kind":"unauthorized","message":"Please log in first"}`))
			return
		}
		q := r.URL.Query()
		assert.Equal(t, "5", q.Get("offset"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "ann", q.Get("value"))
		_, _ = w.Write([]byte(`{"result":"success","data":[{"student_uid":7,"name":"Ann Lee"}]}`))
	})
	mux.HandleFunc("/api/school/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"success"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginThenSearch(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(srv.URL + "/")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.SearchStudents(ctx, search.Query{Offset: 5, Limit: 5, Text: "ann"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	student, err := c.Login(ctx, "ann@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Ann", student.Name)

	items, err := c.SearchStudents(ctx, search.Query{Offset: 5, Limit: 5, Text: "ann"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].UID)
}

func TestLoginFailure(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "ann@example.com", "nope")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Please log in first", apiErr.Message)
}

func TestEmptyDataIsNilPage(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)

	items, err := c.SearchSchools(context.Background(), search.Query{Limit: 5, Text: "x"})
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:8080")
	assert.Error(t, err)
}
