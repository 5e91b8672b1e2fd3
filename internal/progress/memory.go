package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/studycoach/internal/llm"
)

// MemoryStore is a volatile Store used when the database cannot be
// opened and in tests. Nothing survives the process.
type MemoryStore struct {
	mu       sync.Mutex
	attempts []Attempt
	sessions []Session
	stats    map[string]map[string]*QuestionAggregate // topic -> question_id
	order    map[string][]string                      // topic -> question_ids, most recent first
	requests []llm.RequestEntry
}

var _ Store = (*MemoryStore)(nil)
var _ llm.RequestLog = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stats: make(map[string]map[string]*QuestionAggregate),
		order: make(map[string][]string),
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) RecordAttempt(_ context.Context, a *Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := *a
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.attempts = append(m.attempts, rec)

	byID, ok := m.stats[a.Topic]
	if !ok {
		byID = make(map[string]*QuestionAggregate)
		m.stats[a.Topic] = byID
	}

	agg, ok := byID[a.QuestionID]
	if !ok {
		agg = &QuestionAggregate{QuestionID: a.QuestionID, Prompt: a.Prompt}
		byID[a.QuestionID] = agg
	}
	agg.TimesAsked++
	if a.Correct {
		agg.TimesCorrect++
	}
	agg.AvgResponseMs += (float64(a.ResponseMs) - agg.AvgResponseMs) / float64(agg.TimesAsked)
	agg.LastCorrect = a.Correct

	ids := m.order[a.Topic]
	for i, id := range ids {
		if id == a.QuestionID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	m.order[a.Topic] = append([]string{a.QuestionID}, ids...)

	return nil
}

func (m *MemoryStore) RecordSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, *s)
	return nil
}

func (m *MemoryStore) HistoryForTopic(_ context.Context, topic string, mode AvoidMode) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var prompts []string
	for _, id := range m.order[topic] {
		agg := m.stats[topic][id]
		if mode == AvoidCorrect && !agg.LastCorrect {
			continue
		}
		prompts = append(prompts, agg.Prompt)
	}
	return prompts, nil
}

func (m *MemoryStore) AccuracyForTopic(_ context.Context, topic string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total, correct int
	for _, a := range m.attempts {
		if a.Topic != topic {
			continue
		}
		total++
		if a.Correct {
			correct++
		}
	}
	if total == 0 {
		return 0, false, nil
	}
	return float64(correct) / float64(total), true, nil
}

func (m *MemoryStore) FrequentlyMissed(_ context.Context, topic string, topK int) ([]QuestionAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if topK <= 0 {
		return nil, nil
	}

	var out []QuestionAggregate
	for _, agg := range m.stats[topic] {
		if agg.TimesCorrect < agg.TimesAsked {
			out = append(out, *agg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].ErrorRate(), out[j].ErrorRate()
		if ri != rj {
			return ri > rj
		}
		return out[i].TimesAsked > out[j].TimesAsked
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (m *MemoryStore) StatsByTopic(_ context.Context) ([]TopicStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byTopic := make(map[string]*TopicStats)
	seenSessions := make(map[string]map[string]bool)
	for _, a := range m.attempts {
		ts, ok := byTopic[a.Topic]
		if !ok {
			ts = &TopicStats{Topic: a.Topic}
			byTopic[a.Topic] = ts
			seenSessions[a.Topic] = make(map[string]bool)
		}
		if !seenSessions[a.Topic][a.SessionID] {
			seenSessions[a.Topic][a.SessionID] = true
			ts.Sessions++
		}
		ts.Attempts++
		if a.Correct {
			ts.Correct++
		}
		ts.AvgResponseMs += (float64(a.ResponseMs) - ts.AvgResponseMs) / float64(ts.Attempts)
		if a.CreatedAt.After(ts.LastSessionAt) {
			ts.LastSessionAt = a.CreatedAt
		}
	}

	out := make([]TopicStats, 0, len(byTopic))
	for _, ts := range byTopic {
		out = append(out, *ts)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSessionAt.After(out[j].LastSessionAt)
	})
	return out, nil
}

// AppendLLMRequest implements llm.RequestLog.
func (m *MemoryStore) AppendLLMRequest(_ context.Context, entry llm.RequestEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, entry)
	return nil
}

// Sessions returns recorded sessions, oldest first.
func (m *MemoryStore) Sessions() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Session, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// Attempts returns recorded attempts, oldest first.
func (m *MemoryStore) Attempts() []Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Attempt, len(m.attempts))
	copy(out, m.attempts)
	return out
}
