package spatial

// Ranked skip list with span counts for O(log n) rank queries.
//
// Origin: Pugh (1990), "Skip Lists: A Probabilistic Alternative to Balanced Trees".
// Redis ZSET uses the same span trick. Ordering is score descending, then
// key ascending, so equal scores rank in a stable order.

import (
	"math/rand"
	"sync"
)

const (
	maxLevel         = 32
	levelProbability = 0.25
)

// SkipListEntry is a scored key.
type SkipListEntry struct {
	Key   string
	Score float64
}

type skipNode struct {
	entry SkipListEntry
	next  []*skipNode
	span  []int
}

// SkipList is a ranked set safe for concurrent use.
type SkipList struct {
	mu     sync.RWMutex
	head   *skipNode
	level  int
	length int
	scores map[string]float64
	rng    *rand.Rand
}

// NewSkipList creates an empty list. seed drives node heights only.
func NewSkipList(seed int64) *SkipList {
	return &SkipList{
		head: &skipNode{
			next: make([]*skipNode, maxLevel),
			span: make([]int, maxLevel),
		},
		level:  1,
		scores: make(map[string]float64),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// before reports whether a ranks ahead of (score, key).
func before(a SkipListEntry, score float64, key string) bool {
	if a.Score != score {
		return a.Score > score
	}
	return a.Key < key
}

func (sl *SkipList) randomLevel() int {
	level := 1
	for level < maxLevel && sl.rng.Float64() < levelProbability {
		level++
	}
	return level
}

// Insert adds key or moves it to its new score.
func (sl *SkipList) Insert(key string, score float64) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if old, ok := sl.scores[key]; ok {
		if old == score {
			return
		}
		sl.remove(key, old)
	}

	var update [maxLevel]*skipNode
	var rank [maxLevel]int

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		if i < sl.level-1 {
			rank[i] = rank[i+1]
		}
		for x.next[i] != nil && before(x.next[i].entry, score, key) {
			rank[i] += x.span[i]
			x = x.next[i]
		}
		update[i] = x
	}

	level := sl.randomLevel()
	if level > sl.level {
		for i := sl.level; i < level; i++ {
			rank[i] = 0
			update[i] = sl.head
			update[i].span[i] = sl.length
		}
		sl.level = level
	}

	node := &skipNode{
		entry: SkipListEntry{Key: key, Score: score},
		next:  make([]*skipNode, level),
		span:  make([]int, level),
	}
	for i := 0; i < level; i++ {
		node.next[i] = update[i].next[i]
		update[i].next[i] = node
		node.span[i] = update[i].span[i] - (rank[0] - rank[i])
		update[i].span[i] = (rank[0] - rank[i]) + 1
	}
	for i := level; i < sl.level; i++ {
		update[i].span[i]++
	}

	sl.length++
	sl.scores[key] = score
}

// Remove deletes key. Returns false if it was not present.
func (sl *SkipList) Remove(key string) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	score, ok := sl.scores[key]
	if !ok {
		return false
	}
	sl.remove(key, score)
	return true
}

func (sl *SkipList) remove(key string, score float64) {
	var update [maxLevel]*skipNode
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && before(x.next[i].entry, score, key) {
			x = x.next[i]
		}
		update[i] = x
	}

	node := x.next[0]
	if node == nil || node.entry.Key != key {
		return
	}
	for i := 0; i < sl.level; i++ {
		if update[i].next[i] == node {
			update[i].span[i] += node.span[i] - 1
			update[i].next[i] = node.next[i]
		} else {
			update[i].span[i]--
		}
	}
	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		sl.level--
	}
	sl.length--
	delete(sl.scores, key)
}

// GetRank returns the 1-indexed rank of key, or 0 if absent.
func (sl *SkipList) GetRank(key string) int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	score, ok := sl.scores[key]
	if !ok {
		return 0
	}

	rank := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && before(x.next[i].entry, score, key) {
			rank += x.span[i]
			x = x.next[i]
		}
	}
	return rank + 1
}

// GetScore returns the score stored for key.
func (sl *SkipList) GetScore(key string) (float64, bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	s, ok := sl.scores[key]
	return s, ok
}

// GetRange returns entries with rank in [start, end] (1-indexed, inclusive).
func (sl *SkipList) GetRange(start, end int) []SkipListEntry {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if start <= 0 {
		start = 1
	}
	if end > sl.length {
		end = sl.length
	}
	if start > end {
		return nil
	}

	traversed := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && traversed+x.span[i] < start {
			traversed += x.span[i]
			x = x.next[i]
		}
	}

	result := make([]SkipListEntry, 0, end-start+1)
	for x = x.next[0]; x != nil && traversed < end; x = x.next[0] {
		traversed++
		result = append(result, x.entry)
	}
	return result
}

// Length returns the number of entries.
func (sl *SkipList) Length() int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.length
}
