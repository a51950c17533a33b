package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"insightboard/internal/analysis"
	"insightboard/internal/queue"
	"insightboard/internal/store"
)

type memStore struct {
	mu          sync.Mutex
	users       map[string]store.User
	transcripts map[string]store.Transcript
	items       map[string]store.ActionItem
	seq         int
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]store.User{},
		transcripts: map[string]store.Transcript{},
		items:       map[string]store.ActionItem{},
	}
}

func (m *memStore) tick() time.Time {
	m.seq++
	return time.Unix(int64(1_700_000_000+m.seq), 0).UTC()
}

func (m *memStore) CreateUser(ctx context.Context, email, passwordHash, name string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return store.User{}, store.ErrDuplicate
	}
	u := store.User{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash, Name: name, CreatedAt: m.tick()}
	m.users[email] = u
	return u, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memStore) CreateTranscriptWithItems(ctx context.Context, userID, title, content string, result analysis.AnalysisResult) (store.Transcript, []store.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.addTranscript(userID, title, content, store.TranscriptAnalyzed, result)
	return t, m.addItems(userID, t.ID, result.ActionItems), nil
}

func (m *memStore) CreatePendingTranscript(ctx context.Context, userID, title, content string) (store.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addTranscript(userID, title, content, store.TranscriptPending, analysis.AnalysisResult{}), nil
}

func (m *memStore) DeletePendingTranscript(ctx context.Context, transcriptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transcripts[transcriptID]
	if !ok || t.Status != store.TranscriptPending {
		return store.ErrNotFound
	}
	delete(m.transcripts, transcriptID)
	return nil
}

func (m *memStore) CompleteTranscriptAnalysis(ctx context.Context, transcriptID string, result analysis.AnalysisResult) ([]store.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transcripts[transcriptID]
	if !ok || t.Status != store.TranscriptPending {
		return nil, store.ErrNotFound
	}
	t.Status = store.TranscriptAnalyzed
	t.Sentiment = string(result.Sentiment)
	t.Summary = result.Summary
	m.transcripts[transcriptID] = t
	return m.addItems(t.UserID, t.ID, result.ActionItems), nil
}

func (m *memStore) GetTranscript(ctx context.Context, id string) (store.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transcripts[id]
	if !ok {
		return store.Transcript{}, store.ErrNotFound
	}
	return t, nil
}

func (m *memStore) CreateActionItem(ctx context.Context, userID string, draft analysis.ActionItemDraft) (store.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addItems(userID, "", []analysis.ActionItemDraft{draft})[0], nil
}

func (m *memStore) ToggleActionItem(ctx context.Context, userID, id string) (store.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.UserID != userID {
		return store.ActionItem{}, store.ErrNotFound
	}
	if item.Status == store.StatusCompleted {
		item.Status = store.StatusPending
		item.CompletedAt = nil
	} else {
		now := m.tick()
		item.Status = store.StatusCompleted
		item.CompletedAt = &now
	}
	m.items[id] = item
	return item, nil
}

func (m *memStore) UpdateActionItemPriority(ctx context.Context, userID, id string, priority analysis.Priority) (store.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.UserID != userID {
		return store.ActionItem{}, store.ErrNotFound
	}
	item.Priority = priority
	m.items[id] = item
	return item, nil
}

func (m *memStore) DeleteActionItem(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memStore) ListActionItems(ctx context.Context, userID string, filter store.ActionItemFilter) ([]store.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.ActionItem
	for _, item := range m.items {
		if item.UserID != userID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && item.Priority != filter.Priority {
			continue
		}
		if filter.Tag != "" && !hasTag(item.Tags, filter.Tag) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.SortBy == "priority" && out[i].Priority != out[j].Priority {
			return out[i].Priority.Rank() < out[j].Priority.Rank()
		}
		if filter.Ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memStore) ActionItemStats(ctx context.Context, userID string) (store.ActionItemStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := store.ActionItemStats{ByPriority: map[analysis.Priority]int{
		analysis.PriorityHigh: 0, analysis.PriorityMedium: 0, analysis.PriorityLow: 0,
	}}
	for _, item := range m.items {
		if item.UserID != userID {
			continue
		}
		stats.Total++
		if item.Status == store.StatusCompleted {
			stats.Completed++
		}
		stats.ByPriority[item.Priority]++
	}
	stats.Pending = stats.Total - stats.Completed
	return stats, nil
}

func (m *memStore) RecentTranscripts(ctx context.Context, userID string, limit int) ([]store.TranscriptSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.TranscriptSummary
	for _, t := range m.transcripts {
		if t.UserID != userID {
			continue
		}
		count := 0
		for _, item := range m.items {
			if item.TranscriptID == t.ID {
				count++
			}
		}
		out = append(out, store.TranscriptSummary{ID: t.ID, Title: t.Title, Status: t.Status, Sentiment: t.Sentiment, CreatedAt: t.CreatedAt, ActionItemCount: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) addTranscript(userID, title, content, status string, result analysis.AnalysisResult) store.Transcript {
	t := store.Transcript{
		ID: uuid.NewString(), UserID: userID, Title: title, Content: content, Status: status,
		Sentiment: string(result.Sentiment), Summary: result.Summary, CreatedAt: m.tick(),
	}
	m.transcripts[t.ID] = t
	return t
}

func (m *memStore) addItems(userID, transcriptID string, drafts []analysis.ActionItemDraft) []store.ActionItem {
	out := make([]store.ActionItem, 0, len(drafts))
	for _, d := range drafts {
		d = analysis.NormalizeDraft(d)
		item := store.ActionItem{
			ID: uuid.NewString(), UserID: userID, TranscriptID: transcriptID, Text: d.Text,
			Priority: d.Priority, Status: store.StatusPending, Tags: d.Tags, CreatedAt: m.tick(),
		}
		m.items[item.ID] = item
		out = append(out, item)
	}
	return out
}

// flakyStore fails the next completeFailures calls to CompleteTranscriptAnalysis.
type flakyStore struct {
	*memStore
	completeFailures int
}

func (f *flakyStore) CompleteTranscriptAnalysis(ctx context.Context, transcriptID string, result analysis.AnalysisResult) ([]store.ActionItem, error) {
	if f.completeFailures > 0 {
		f.completeFailures--
		return nil, errors.New("connection reset")
	}
	return f.memStore.CompleteTranscriptAnalysis(ctx, transcriptID, result)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

type memQueue struct {
	jobs []queue.AnalysisJob
	err  error
}

func (q *memQueue) PushAnalysisJob(ctx context.Context, job queue.AnalysisJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type countingRecorder struct {
	modes []string
}

func (r *countingRecorder) TranscriptSubmitted(mode string) {
	r.modes = append(r.modes, mode)
}
