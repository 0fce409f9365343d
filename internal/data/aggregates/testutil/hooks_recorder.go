package testutil

import (
	"sync"

	"github.com/yungbote/skillhub-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
)

// HooksRecorder keeps every observed aggregate write for assertions.
type HooksRecorder struct {
	mu     sync.Mutex
	writes []aggregates.WriteObservation
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveWrite(obs aggregates.WriteObservation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writes = append(h.writes, obs)
}

// Writes returns a copy of the observations so far.
func (h *HooksRecorder) Writes() []aggregates.WriteObservation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]aggregates.WriteObservation(nil), h.writes...)
}

// CountCode counts writes that failed with code.
func (h *HooksRecorder) CountCode(code domainagg.ErrorCode) int {
	n := 0
	for _, w := range h.Writes() {
		if w.Code == code {
			n++
		}
	}
	return n
}
