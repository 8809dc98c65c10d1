package repo

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"go-mlwrapper/internal/domain"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logColumns = []string{
	"id", "request_id", "flight_number", "request", "outcome",
	"status_code", "result", "latency_ms", "created_at",
}

func intPtr(v int) *int { return &v }

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestNullableJSON(t *testing.T) {
	assert.Nil(t, nullableJSON(nil))
	assert.Nil(t, nullableJSON(json.RawMessage{}))
	assert.Equal(t, json.RawMessage(`{"prediction":1}`), nullableJSON(json.RawMessage(`{"prediction":1}`)))
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, q := range schema {
		assert.True(t, strings.Contains(q, "IF NOT EXISTS"), q)
	}
}

func TestInitDB(t *testing.T) {
	mock := newMockPool(t)
	for _, q := range schema {
		mock.ExpectExec(regexp.QuoteMeta(q)).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, InitDB(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInitDB_Error(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS prediction_log").WillReturnError(errors.New("permission denied"))

	err := InitDB(context.Background(), mock)
	require.EqualError(t, err, "permission denied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionLogRepo_Insert(t *testing.T) {
	request := json.RawMessage(`{"flightNumber":"AA1234"}`)

	testCases := []struct {
		name     string
		entry    domain.PredictionLog
		wantArgs []any
	}{
		{
			name: "success",
			entry: domain.PredictionLog{
				RequestID: "req-1", FlightNumber: "AA1234", Request: request,
				Outcome: "success", Result: json.RawMessage(`{"prediction":1,"probability":0.85}`), LatencyMs: 12,
			},
			wantArgs: []any{
				"req-1", "AA1234", request, "success", (*int)(nil),
				json.RawMessage(`{"prediction":1,"probability":0.85}`), int64(12),
			},
		},
		{
			name: "http_error",
			entry: domain.PredictionLog{
				RequestID: "req-2", FlightNumber: "AA1234", Request: request,
				Outcome: "http_error", StatusCode: intPtr(502), Result: json.RawMessage(`{"detail":"model crashed"}`), LatencyMs: 40,
			},
			wantArgs: []any{
				"req-2", "AA1234", request, "http_error", intPtr(502),
				json.RawMessage(`{"detail":"model crashed"}`), int64(40),
			},
		},
		{
			name: "timeout_without_result",
			entry: domain.PredictionLog{
				RequestID: "req-3", FlightNumber: "AA1234", Request: request,
				Outcome: "timeout", LatencyMs: 30000,
			},
			wantArgs: []any{
				"req-3", "AA1234", request, "timeout", (*int)(nil), nil, int64(30000),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMockPool(t)
			mock.ExpectExec("INSERT INTO prediction_log").
				WithArgs(tc.wantArgs...).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))

			err := NewPredictionLogRepo(mock).Insert(context.Background(), tc.entry)
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPredictionLogRepo_InsertError(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectExec("INSERT INTO prediction_log").WillReturnError(errors.New("connection lost"))

	err := NewPredictionLogRepo(mock).Insert(context.Background(), domain.PredictionLog{RequestID: "req-1"})
	require.EqualError(t, err, "connection lost")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionLogRepo_ListRecent(t *testing.T) {
	mock := newMockPool(t)
	created := time.Date(2025, 12, 20, 14, 30, 0, 0, time.UTC)

	rows := pgxmock.NewRows(logColumns).
		AddRow(int64(2), "req-2", "AA1234", json.RawMessage(`{"flightNumber":"AA1234"}`), "http_error",
			intPtr(502), json.RawMessage(`{"detail":"model crashed"}`), int64(40), created).
		AddRow(int64(1), "req-1", "DL42", json.RawMessage(`{"flightNumber":"DL42"}`), "timeout",
			nil, nil, int64(30000), created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM prediction_log ORDER BY id DESC LIMIT $1")).
		WithArgs(5).
		WillReturnRows(rows)

	items, err := NewPredictionLogRepo(mock).ListRecent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, int64(2), items[0].ID)
	require.Equal(t, "http_error", items[0].Outcome)
	require.NotNil(t, items[0].StatusCode)
	require.Equal(t, 502, *items[0].StatusCode)
	require.JSONEq(t, `{"detail":"model crashed"}`, string(items[0].Result))
	require.Equal(t, created, items[0].CreatedAt)

	require.Equal(t, "DL42", items[1].FlightNumber)
	require.Nil(t, items[1].StatusCode)
	require.Empty(t, items[1].Result)
	require.JSONEq(t, `{"flightNumber":"DL42"}`, string(items[1].Request))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionLogRepo_ListRecentEmpty(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("FROM prediction_log").WithArgs(20).WillReturnRows(pgxmock.NewRows(logColumns))

	items, err := NewPredictionLogRepo(mock).ListRecent(context.Background(), 20)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionLogRepo_ListRecentErrors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery("FROM prediction_log").WithArgs(20).WillReturnError(errors.New("relation does not exist"))

		_, err := NewPredictionLogRepo(mock).ListRecent(context.Background(), 20)
		require.EqualError(t, err, "relation does not exist")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rows", func(t *testing.T) {
		mock := newMockPool(t)
		rows := pgxmock.NewRows(logColumns).
			AddRow(int64(1), "req-1", "AA1234", json.RawMessage(`{}`), "success",
				nil, json.RawMessage(`{"prediction":0}`), int64(8), time.Now()).
			RowError(0, errors.New("connection reset"))
		mock.ExpectQuery("FROM prediction_log").WithArgs(20).WillReturnRows(rows)

		_, err := NewPredictionLogRepo(mock).ListRecent(context.Background(), 20)
		require.EqualError(t, err, "connection reset")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
