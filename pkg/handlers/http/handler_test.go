package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/scoala-bot/scoala/pkg/repository"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type fakeStatus time.Duration

func (s fakeStatus) Uptime() time.Duration {
	return time.Duration(s)
}

type fakeRepository struct {
	homeworks []repository.Homework
	err       error
}

func (r *fakeRepository) Get(_ context.Context, id string) (repository.Homework, error) {
	if r.err != nil {
		return repository.Homework{}, r.err
	}
	for _, homework := range r.homeworks {
		if homework.ID == id {
			return homework, nil
		}
	}
	return repository.Homework{}, repository.ErrNotFound
}

func (r *fakeRepository) List(context.Context) ([]repository.Homework, error) {
	return r.homeworks, r.err
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func testHandler(t *testing.T, uptime time.Duration, repo *fakeRepository) http.Handler {
	h := New(zaptest.NewLogger(t), fakeStatus(uptime), repo)
	h.(*handler).now = func() time.Time { return testNow }
	return h
}

func testRepository() *fakeRepository {
	return &fakeRepository{homeworks: []repository.Homework{
		{ID: "1", Subject: "Matematică", Assignment: "ex. 1", ExpirationDate: timePtr(testNow.Add(49 * time.Hour))},
		{ID: "2", Subject: "Română", Assignment: "eseu"},
		{ID: "3", Subject: "Istorie", Assignment: "expirată", ExpirationDate: timePtr(testNow.Add(-time.Hour))},
	}}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestStatus(t *testing.T) {
	h := testHandler(t, 90*time.Minute, testRepository())

	for _, target := range []string{"/", "/status"} {
		rec := get(t, h, target)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp statusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, statusResponse{
			Status:        "ok",
			Uptime:        "1 hours 30 minutes",
			UptimeSeconds: 5400,
			Homeworks:     2,
		}, resp)
	}
}

func TestStatusStarting(t *testing.T) {
	rec := get(t, testHandler(t, 0, &fakeRepository{}), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "starting", resp.Status)
	assert.Empty(t, resp.Uptime)
}

func TestHomeworks(t *testing.T) {
	h := testHandler(t, time.Minute, testRepository())

	rec := get(t, h, "/homeworks")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp []homeworkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "1", resp[0].ID)
	assert.Equal(t, "2 days from now", resp[0].Expires)
	assert.Equal(t, "2", resp[1].ID)
	assert.Empty(t, resp[1].Expires)

	rec = get(t, h, "/homeworks?materie=rom")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Română", resp[0].Subject)
}

func TestHomework(t *testing.T) {
	h := testHandler(t, time.Minute, testRepository())

	rec := get(t, h, "/homeworks/2")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp homeworkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "eseu", resp.Assignment)

	rec = get(t, h, "/homeworks/42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no homework with id: 42")
}

func TestRepositoryError(t *testing.T) {
	h := testHandler(t, time.Minute, &fakeRepository{err: errors.New("connection refused")})

	rec := get(t, h, "/homeworks")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = get(t, h, "/homeworks/1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
