package game

import (
	"sync"
	"time"

	"arcade-defense/internal/game/spatial"
)

// Leaderboard ranks finished runs by final score using a skip list.
//
// Operations:
//   - Record: O(log n)
//   - Rank: O(log n)
//   - Top: O(log n + k)
type Leaderboard struct {
	skipList *spatial.SkipList
	mu       sync.RWMutex
	runs     map[string]RunRecord
	capacity int
}

// RunRecord is a finished run.
type RunRecord struct {
	RunID      string    `json:"runId"`
	Score      int64     `json:"score"`
	Level      int       `json:"level"`
	Difficulty string    `json:"difficulty"`
	EndedAt    time.Time `json:"endedAt"`
}

// LeaderboardEntry is a ranked run.
type LeaderboardEntry struct {
	RunRecord
	Rank int `json:"rank"`
}

// NewLeaderboard creates a leaderboard that keeps at most capacity runs.
// A non-positive capacity keeps everything.
func NewLeaderboard(capacity int) *Leaderboard {
	return &Leaderboard{
		skipList: spatial.NewSkipList(time.Now().UnixNano()),
		runs:     make(map[string]RunRecord),
		capacity: capacity,
	}
}

// Record adds a finished run, evicting the lowest ranked run when full.
func (lb *Leaderboard) Record(r RunRecord) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.runs[r.RunID] = r
	lb.skipList.Insert(r.RunID, float64(r.Score))

	if lb.capacity > 0 && lb.skipList.Length() > lb.capacity {
		for _, e := range lb.skipList.GetRange(lb.capacity+1, lb.skipList.Length()) {
			lb.skipList.Remove(e.Key)
			delete(lb.runs, e.Key)
		}
	}
}

// Rank returns a run's rank (1-indexed, 1 = best), or 0 if unknown.
func (lb *Leaderboard) Rank(runID string) int {
	return lb.skipList.GetRank(runID)
}

// Top returns the best n runs.
func (lb *Leaderboard) Top(n int) []LeaderboardEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	entries := lb.skipList.GetRange(1, n)
	result := make([]LeaderboardEntry, 0, len(entries))
	for i, e := range entries {
		result = append(result, LeaderboardEntry{RunRecord: lb.runs[e.Key], Rank: i + 1})
	}
	return result
}

// Best returns the top score, or 0 when empty.
func (lb *Leaderboard) Best() int64 {
	top := lb.skipList.GetRange(1, 1)
	if len(top) == 0 {
		return 0
	}
	return int64(top[0].Score)
}

// Length returns the number of recorded runs
func (lb *Leaderboard) Length() int {
	return lb.skipList.Length()
}
