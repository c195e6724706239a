//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/gymrank/internal/calendar"
	"github.com/2beens/gymrank/internal/records"
	"github.com/2beens/gymrank/internal/session"
	"github.com/2beens/gymrank/internal/store"
	"github.com/2beens/gymrank/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) do(ctx context.Context, method, path string, body any) (int, []byte) {
	t := s.T()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("X-GYMRANK-TOKEN", testToken)
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) storedDocument(ctx context.Context, key string) []byte {
	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value::text FROM kv_document WHERE key = $1`, key).Scan(&value)
	require.NoError(s.T(), err)
	return []byte(value)
}

func (s *IntegrationTestSuite) TestUnauthorized() {
	resp, err := s.httpClient.Get(serverEndpoint + "/summary")
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestWorkoutFlow() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t := s.T()

	status, _ := s.do(ctx, http.MethodPost, "/session/finish", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(ctx, http.MethodPost, "/session/start/B", nil)
	require.Equal(t, http.StatusOK, status)

	var menus map[string]records.MenuDefinition
	status, body := s.do(ctx, http.MethodGet, "/menus", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &menus))

	for i, item := range menus["B"].Items {
		for set := 0; set < item.SetCount; set++ {
			status, _ = s.do(ctx, http.MethodPost, fmt.Sprintf("/session/toggle/%d/%d", i, set), nil)
			require.Equal(t, http.StatusOK, status)
		}
	}

	var state session.State
	status, body = s.do(ctx, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &state))
	assert.True(t, state.Complete)

	var summary tracker.Summary
	status, body = s.do(ctx, http.MethodPost, "/session/finish", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, "B", summary.TodayMenuID)
	assert.GreaterOrEqual(t, summary.MonthlyActiveDays, 1)
	assert.False(t, summary.Session.Active)

	// the attendance went through to postgres
	var attendance map[records.Date]string
	require.NoError(t, json.Unmarshal(s.storedDocument(ctx, store.KeyAttendance), &attendance))
	assert.Equal(t, "B", attendance[summary.Today])

	var month calendar.Month
	status, body = s.do(ctx, http.MethodGet, fmt.Sprintf("/calendar/%d/%d", summary.Today.Year, summary.Today.Month), nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &month))
	assert.Equal(t, summary.MonthlyScore, month.Score)
}

func (s *IntegrationTestSuite) TestActivityAndExport() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t := s.T()

	day := records.NewDate(2023, time.March, 7)

	var entry records.ActivityEntry
	status, body := s.do(ctx, http.MethodPost, "/activity/"+day.String(), map[string]int{"reps": 40, "sets": 3})
	require.Equal(t, http.StatusCreated, status, string(body))
	require.NoError(t, json.Unmarshal(body, &entry))
	assert.Equal(t, 120, entry.Total())

	status, _ = s.do(ctx, http.MethodPost, "/activity/"+day.String(), map[string]int{"reps": -1})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(ctx, http.MethodPut, "/attendance/"+day.String(), map[string]string{"menuId": "A"})
	require.Equal(t, http.StatusNoContent, status)

	status, body = s.do(ctx, http.MethodGet, "/export/2023/3", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "day1: 3/7(Tue) Menu A & Bodyweight squat(120reps)")
	assert.Contains(t, string(body), "Activity total: 120reps")

	status, _ = s.do(ctx, http.MethodDelete, fmt.Sprintf("/activity/%s/%d", day, entry.ID), nil)
	require.Equal(t, http.StatusNoContent, status)

	var series struct {
		Max int `json:"max"`
	}
	status, body = s.do(ctx, http.MethodGet, "/activity/2023/3/series", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &series))
	assert.Equal(t, 1, series.Max)

	status, _ = s.do(ctx, http.MethodPost, "/reservations/"+day.String()+"/toggle", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func (s *IntegrationTestSuite) TestRedisStoreRoundTrip() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := s.T()

	repo := store.NewRepo(store.NewRedisStore(s.redisClient))
	snapshot := repo.Load(ctx)
	assert.Equal(t, records.DefaultMenus(), snapshot.Menus())

	menuID := "C"
	snapshot = snapshot.SetAttendance(records.NewDate(2024, time.February, 29), &menuID)
	snapshot, _ = snapshot.AddEntry(records.NewDate(2024, time.February, 29), 10, 2)
	require.NoError(t, repo.Save(ctx, snapshot))

	loaded := repo.Load(ctx)
	got, ok := loaded.AttendanceOn(records.NewDate(2024, time.February, 29))
	require.True(t, ok)
	assert.Equal(t, "C", got)
	assert.Len(t, loaded.EntriesOn(records.NewDate(2024, time.February, 29)), 1)
}
