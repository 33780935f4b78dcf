package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVerdict(t *testing.T) {
	v, err := DecodeVerdict(`{"isCorrect": false, "feedback": "", "problems": ["off by one"], "stdout": "3\n"}`)
	require.NoError(t, err)
	assert.False(t, v.IsCorrect)
	assert.Equal(t, []string{"off by one"}, v.Problems)
	assert.Equal(t, "3\n", v.Stdout)

	invalid := []string{
		"",
		"not json",
		"```json\n{\"isCorrect\": true, \"feedback\": \"ok\"}\n```",
		`{"feedback": "missing verdict"}`,
		`{"isCorrect": true}`,
		`{"isCorrect": "yes", "feedback": "wrong type"}`,
		`{"isCorrect": true, "feedback": "ok"} trailing`,
		`[true, "ok"]`,
		`{"isCorrect": true, "feedback": "ok", "score": 10}`,
	}
	for _, s := range invalid {
		_, err := DecodeVerdict(s)
		assert.Error(t, err, s)
	}
}

// chatServer answers like a chat completions endpoint; reply picks the
// content per model.
func chatServer(t *testing.T, reply func(model string) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json_object", req.ResponseFormat["type"])

		status, content := reply(req.Model)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"unavailable"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPOracle_TriesBackendsInOrder(t *testing.T) {
	var seen []string
	srv := chatServer(t, func(model string) (int, string) {
		seen = append(seen, model)
		switch model {
		case "broken":
			return http.StatusBadGateway, ""
		case "chatty":
			return http.StatusOK, "Sure! ```json\n{\"isCorrect\": true, \"feedback\": \"ok\"}\n```"
		default:
			return http.StatusOK, `{"isCorrect": true, "feedback": "Nice work"}`
		}
	})

	o := NewHTTPOracle(srv.URL, "secret", []string{"broken", "chatty", "good", "unused"}, 2*time.Second)
	v, err := o.Grade(context.Background(), GradeRequest{SubmittedCode: "print(1)"})
	require.NoError(t, err)

	assert.True(t, v.IsCorrect)
	assert.Equal(t, "Nice work", v.Feedback)
	assert.Equal(t, "good", v.GradedBy)
	assert.Equal(t, []string{"broken", "chatty", "good"}, seen)
}

func TestHTTPOracle_ExhaustionIsOracleFailure(t *testing.T) {
	srv := chatServer(t, func(string) (int, string) {
		return http.StatusOK, `{"verdict": "yes"}`
	})

	o := NewHTTPOracle(srv.URL, "secret", []string{"a", "b"}, time.Second)
	_, err := o.Grade(context.Background(), GradeRequest{})

	var failure *OracleFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "b", failure.Backend)
}

func TestHTTPOracle_EachBackendIsTimeBounded(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	o := NewHTTPOracle(srv.URL, "secret", []string{"slow-1", "slow-2"}, 100*time.Millisecond)
	start := time.Now()
	_, err := o.Grade(context.Background(), GradeRequest{})

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPOracle_NotConfigured(t *testing.T) {
	o := NewHTTPOracle("", "", nil, time.Second)
	_, err := o.Grade(context.Background(), GradeRequest{})
	assert.True(t, errors.Is(err, ErrOracleNotConfigured))
}
