package utils

import (
	"sort"

	"github.com/menjil-org/menjil-backend/internal/types"
)

// SortNewestFirst orders msgs by (time DESC, id DESC) in place.
func SortNewestFirst(msgs []*types.ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return NewerThan(msgs[i], msgs[j])
	})
}

// NewerThan reports whether a sorts before b in newest-first order.
func NewerThan(a, b *types.ChatMessage) bool {
	if !a.Time.Equal(b.Time) {
		return a.Time.After(b.Time)
	}
	return a.ID > b.ID
}

// Chronological returns a copy of a newest-first page in oldest-first order.
func Chronological(newestFirst []*types.ChatMessage) []*types.ChatMessage {
	out := make([]*types.ChatMessage, len(newestFirst))
	for i, m := range newestFirst {
		out[len(newestFirst)-1-i] = m
	}
	return out
}

// NumberedResponses renders msgs left to right with order 1..N.
func NumberedResponses(msgs []*types.ChatMessage, render func(*types.ChatMessage, *int) types.MessageResponse) []types.MessageResponse {
	out := make([]types.MessageResponse, 0, len(msgs))
	for i, m := range msgs {
		order := i + 1
		out = append(out, render(m, &order))
	}
	return out
}
