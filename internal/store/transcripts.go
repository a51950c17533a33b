package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"insightboard/internal/analysis"
)

const (
	TranscriptPending  = "pending"
	TranscriptAnalyzed = "analyzed"
)

type Transcript struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	Status    string
	Sentiment string
	Summary   string
	CreatedAt time.Time
}

// TranscriptSummary is a dashboard row without the transcript body.
type TranscriptSummary struct {
	ID              string
	Title           string
	Status          string
	Sentiment       string
	CreatedAt       time.Time
	ActionItemCount int
}

// CreateTranscriptWithItems stores an analyzed transcript and its drafts in
// one transaction.
func (s *Store) CreateTranscriptWithItems(ctx context.Context, userID, title, content string, result analysis.AnalysisResult) (Transcript, []ActionItem, error) {
	if !validID(userID) {
		return Transcript{}, nil, ErrNotFound
	}
	var (
		t     Transcript
		items []ActionItem
	)
	err := s.withTx(ctx, func(tx *Store) error {
		var err error
		t, err = tx.insertTranscript(ctx, userID, title, content, TranscriptAnalyzed, result)
		if err != nil {
			return err
		}
		items, err = tx.insertDrafts(ctx, userID, t.ID, result.ActionItems)
		return err
	})
	if err != nil {
		return Transcript{}, nil, err
	}
	return t, items, nil
}

// CreatePendingTranscript stores a transcript whose analysis runs later.
func (s *Store) CreatePendingTranscript(ctx context.Context, userID, title, content string) (Transcript, error) {
	if !validID(userID) {
		return Transcript{}, ErrNotFound
	}
	return s.insertTranscript(ctx, userID, title, content, TranscriptPending, analysis.AnalysisResult{})
}

// DeletePendingTranscript removes a transcript that was never analyzed.
func (s *Store) DeletePendingTranscript(ctx context.Context, transcriptID string) error {
	if !validID(transcriptID) {
		return ErrNotFound
	}
	return requireRow(s.q.ExecContext(ctx, `DELETE FROM transcripts WHERE id = $1 AND status = $2`, transcriptID, TranscriptPending))
}

// CompleteTranscriptAnalysis attaches an analysis to a pending transcript.
// Transcripts that are already analyzed return ErrNotFound so a redelivered
// job cannot insert items twice.
func (s *Store) CompleteTranscriptAnalysis(ctx context.Context, transcriptID string, result analysis.AnalysisResult) ([]ActionItem, error) {
	if !validID(transcriptID) {
		return nil, ErrNotFound
	}
	var items []ActionItem
	err := s.withTx(ctx, func(tx *Store) error {
		var userID string
		row := tx.q.QueryRowContext(ctx, `
			UPDATE transcripts
			SET status = $2, sentiment = $3, summary = $4, updated_at = now()
			WHERE id = $1 AND status = $5
			RETURNING user_id
		`, transcriptID, TranscriptAnalyzed, nullIfEmpty(string(result.Sentiment)), nullIfEmpty(result.Summary), TranscriptPending)
		if err := row.Scan(&userID); err != nil {
			return notFound(err)
		}
		var err error
		items, err = tx.insertDrafts(ctx, userID, transcriptID, result.ActionItems)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetTranscript(ctx context.Context, id string) (Transcript, error) {
	if !validID(id) {
		return Transcript{}, ErrNotFound
	}
	var t Transcript
	var sentiment, summary sql.NullString
	row := s.q.QueryRowContext(ctx, `
		SELECT id, user_id, title, content, status, sentiment, summary, created_at
		FROM transcripts WHERE id = $1
	`, id)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Content, &t.Status, &sentiment, &summary, &t.CreatedAt); err != nil {
		return Transcript{}, notFound(err)
	}
	t.Sentiment = sentiment.String
	t.Summary = summary.String
	return t, nil
}

// RecentTranscripts returns the newest transcripts of a user with their
// action item counts.
func (s *Store) RecentTranscripts(ctx context.Context, userID string, limit int) ([]TranscriptSummary, error) {
	if !validID(userID) {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT t.id, t.title, t.status, t.sentiment, t.created_at, count(a.id)
		FROM transcripts t
		LEFT JOIN action_items a ON a.transcript_id = t.id
		WHERE t.user_id = $1
		GROUP BY t.id
		ORDER BY t.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TranscriptSummary
	for rows.Next() {
		var ts TranscriptSummary
		var sentiment sql.NullString
		if err := rows.Scan(&ts.ID, &ts.Title, &ts.Status, &sentiment, &ts.CreatedAt, &ts.ActionItemCount); err != nil {
			return nil, err
		}
		ts.Sentiment = sentiment.String
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *Store) insertTranscript(ctx context.Context, userID, title, content, status string, result analysis.AnalysisResult) (Transcript, error) {
	t := Transcript{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		Status:    status,
		Sentiment: string(result.Sentiment),
		Summary:   result.Summary,
	}
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO transcripts (id, user_id, title, content, status, sentiment, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, t.ID, t.UserID, t.Title, t.Content, t.Status, nullIfEmpty(t.Sentiment), nullIfEmpty(t.Summary))
	if err := row.Scan(&t.CreatedAt); err != nil {
		return Transcript{}, err
	}
	return t, nil
}
