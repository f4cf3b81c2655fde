package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/types"
)

const similarityPath = "/api/chat/flask"

type SimilarityRequest struct {
	MentorNickname string `json:"mentor_nickname"`
	MenteeNickname string `json:"mentee_nickname"`
	OriginMessage  string `json:"origin_message"`
	SummaryMessage string `json:"three_line_summary_message"`
}

// SimilarityService finds previously answered questions for a mentor that
// resemble a new one. An empty result is not an error.
type SimilarityService interface {
	FindSimilar(ctx context.Context, req SimilarityRequest) ([]types.SummaryRecord, error)
}

type similarityService struct {
	log     *logger.Logger
	client  *http.Client
	baseURL string
}

func NewSimilarityService(log *logger.Logger, baseURL string, timeout time.Duration) (SimilarityService, error) {
	serviceLog := log.With("service", "SimilarityService")
	if baseURL == "" {
		return nil, fmt.Errorf("missing SIMILARITY_BASE_URL")
	}
	return &similarityService{
		log:     serviceLog,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (ss *similarityService) FindSimilar(ctx context.Context, in SimilarityRequest) ([]types.SummaryRecord, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ss.baseURL+similarityPath, bytes.NewReader(body))
	if err != nil {
		ss.log.Warn("failed to build similarity request", "error", err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := ss.client.Do(req)
	if err != nil {
		ss.log.Warn("failed to call similarity service", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		ss.log.Warn("failed to read similarity response body", "error", err)
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ss.log.Warn("similarity service responded with non-2xx", "statusCode", resp.StatusCode, "body", string(bodyBytes))
		return nil, fmt.Errorf("similarity service HTTP %d", resp.StatusCode)
	}
	records := make([]types.SummaryRecord, 0)
	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(bodyBytes, &records); err != nil {
		ss.log.Warn("failed to decode similarity response", "error", err)
		return nil, fmt.Errorf("decode similarity response: %w", err)
	}
	if records == nil {
		records = make([]types.SummaryRecord, 0)
	}
	ss.log.Debug("similarity call success", "records", len(records))
	return records, nil
}
