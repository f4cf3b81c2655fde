package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menjil-org/menjil-backend/internal/errordata"
	"github.com/menjil-org/menjil-backend/internal/logger"
)

func TestSimilarityService_FindSimilar(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/flask", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[
			{"question_origin":"q1","question_summary":"s1","answer":"a1","answer_time":"2023-12-01 09:00:00","similarity_percent":87.5},
			{"question_origin":"q2","question_summary":"s2","answer":"a2"}
		]`))
	}))
	defer srv.Close()

	ss, err := NewSimilarityService(logger.NewNop(), srv.URL+"/", time.Second)
	require.NoError(t, err)
	records, err := ss.FindSimilar(context.Background(), SimilarityRequest{
		MentorNickname: "t1",
		MenteeNickname: "m1",
		OriginMessage:  "How do I learn Go?",
		SummaryMessage: "learning Go basics",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"mentor_nickname":            "t1",
		"mentee_nickname":            "m1",
		"origin_message":             "How do I learn Go?",
		"three_line_summary_message": "learning Go basics",
	}, got)
	require.Len(t, records, 2)
	assert.Equal(t, "a1", records[0].MatchedAnswer)
	assert.Equal(t, 87.5, records[0].Similarity)
	assert.Equal(t, "s2", records[1].SummarizedQuestion)
}

func TestSimilarityService_EmptyResults(t *testing.T) {
	for _, body := range []string{"[]", "null", ""} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		ss, err := NewSimilarityService(logger.NewNop(), srv.URL, time.Second)
		require.NoError(t, err)
		records, err := ss.FindSimilar(context.Background(), SimilarityRequest{})
		srv.Close()
		require.NoError(t, err, "body %q", body)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	}
}

func TestSimilarityService_Failures(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()
		ss, err := NewSimilarityService(logger.NewNop(), srv.URL, time.Second)
		require.NoError(t, err)
		_, err = ss.FindSimilar(context.Background(), SimilarityRequest{})
		require.Error(t, err)
		assert.Equal(t, errordata.KindUpstreamError, errordata.KindOf(errordata.Upstream("similarity service", err)))
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not":"a list"}`))
		}))
		defer srv.Close()
		ss, err := NewSimilarityService(logger.NewNop(), srv.URL, time.Second)
		require.NoError(t, err)
		_, err = ss.FindSimilar(context.Background(), SimilarityRequest{})
		assert.Error(t, err)
	})

	t.Run("deadline", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)
		ss, err := NewSimilarityService(logger.NewNop(), srv.URL, time.Second)
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = ss.FindSimilar(ctx, SimilarityRequest{})
		require.Error(t, err)
		assert.Equal(t, errordata.KindUpstreamTimeout, errordata.KindOf(errordata.Upstream("similarity service", err)))
	})

	t.Run("missing base url", func(t *testing.T) {
		_, err := NewSimilarityService(logger.NewNop(), "", time.Second)
		assert.Error(t, err)
	})
}
