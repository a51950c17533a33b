package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"insightboard/internal/analysis"
)

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
)

type ActionItem struct {
	ID              string
	UserID          string
	TranscriptID    string
	TranscriptTitle string
	Text            string
	Priority        analysis.Priority
	Status          string
	Tags            []string
	CompletedAt     *time.Time
	CreatedAt       time.Time
}

// ActionItemFilter narrows ListActionItems. Empty fields do not filter.
// SortBy is "created_at", "priority" or "status".
type ActionItemFilter struct {
	Status    string
	Priority  analysis.Priority
	Tag       string
	SortBy    string
	Ascending bool
}

// ActionItemStats aggregates one user's action items.
type ActionItemStats struct {
	Total      int
	Completed  int
	Pending    int
	ByPriority map[analysis.Priority]int
}

const actionItemColumns = `a.id, a.user_id, a.transcript_id, t.title, a.text, a.priority, a.status, a.tags, a.completed_at, a.created_at`

const actionItemFrom = `FROM action_items a LEFT JOIN transcripts t ON t.id = a.transcript_id`

// CreateActionItem stores one item that is not linked to a transcript.
func (s *Store) CreateActionItem(ctx context.Context, userID string, draft analysis.ActionItemDraft) (ActionItem, error) {
	if !validID(userID) {
		return ActionItem{}, ErrNotFound
	}
	items, err := s.insertDrafts(ctx, userID, "", []analysis.ActionItemDraft{draft})
	if err != nil {
		return ActionItem{}, err
	}
	return items[0], nil
}

// GetActionItem returns ErrNotFound for ids owned by other users.
func (s *Store) GetActionItem(ctx context.Context, userID, id string) (ActionItem, error) {
	if !validID(userID) || !validID(id) {
		return ActionItem{}, ErrNotFound
	}
	return scanActionItem(s.q.QueryRowContext(ctx, `SELECT `+actionItemColumns+` `+actionItemFrom+`
		WHERE a.id = $1 AND a.user_id = $2`, id, userID))
}

// ToggleActionItem flips PENDING and COMPLETED and keeps completed_at in step.
func (s *Store) ToggleActionItem(ctx context.Context, userID, id string) (ActionItem, error) {
	if !validID(userID) || !validID(id) {
		return ActionItem{}, ErrNotFound
	}
	res, err := s.q.ExecContext(ctx, `
		UPDATE action_items
		SET status = CASE WHEN status = $3 THEN $4 ELSE $3 END,
		    completed_at = CASE WHEN status = $3 THEN NULL ELSE now() END,
		    updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, id, userID, StatusCompleted, StatusPending)
	if err := requireRow(res, err); err != nil {
		return ActionItem{}, err
	}
	return s.GetActionItem(ctx, userID, id)
}

func (s *Store) UpdateActionItemPriority(ctx context.Context, userID, id string, priority analysis.Priority) (ActionItem, error) {
	if !priority.Valid() {
		return ActionItem{}, fmt.Errorf("invalid priority %q", priority)
	}
	if !validID(userID) || !validID(id) {
		return ActionItem{}, ErrNotFound
	}
	res, err := s.q.ExecContext(ctx, `
		UPDATE action_items SET priority = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, id, userID, string(priority))
	if err := requireRow(res, err); err != nil {
		return ActionItem{}, err
	}
	return s.GetActionItem(ctx, userID, id)
}

func (s *Store) DeleteActionItem(ctx context.Context, userID, id string) error {
	if !validID(userID) || !validID(id) {
		return ErrNotFound
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM action_items WHERE id = $1 AND user_id = $2`, id, userID)
	return requireRow(res, err)
}

func (s *Store) ListActionItems(ctx context.Context, userID string, filter ActionItemFilter) ([]ActionItem, error) {
	if !validID(userID) {
		return nil, nil
	}
	query := `SELECT ` + actionItemColumns + ` ` + actionItemFrom + ` WHERE a.user_id = $1`
	args := []any{userID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		query += fmt.Sprintf(" AND a.priority = $%d", len(args))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		query += fmt.Sprintf(" AND a.tags ? $%d", len(args))
	}
	query += " ORDER BY " + orderClause(filter)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionItem
	for rows.Next() {
		item, err := scanActionItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) ActionItemStats(ctx context.Context, userID string) (ActionItemStats, error) {
	stats := ActionItemStats{ByPriority: map[analysis.Priority]int{
		analysis.PriorityHigh:   0,
		analysis.PriorityMedium: 0,
		analysis.PriorityLow:    0,
	}}
	if !validID(userID) {
		return stats, nil
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT status, priority, count(*) FROM action_items
		WHERE user_id = $1
		GROUP BY status, priority
	`, userID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var status, priority string
		var n int
		if err := rows.Scan(&status, &priority, &n); err != nil {
			return stats, err
		}
		stats.Total += n
		if status == StatusCompleted {
			stats.Completed += n
		}
		stats.ByPriority[analysis.Priority(priority)] += n
	}
	stats.Pending = stats.Total - stats.Completed
	return stats, rows.Err()
}

func (s *Store) insertDrafts(ctx context.Context, userID, transcriptID string, drafts []analysis.ActionItemDraft) ([]ActionItem, error) {
	out := make([]ActionItem, 0, len(drafts))
	for _, d := range drafts {
		d = analysis.NormalizeDraft(d)
		tagsJSON, err := json.Marshal(d.Tags)
		if err != nil {
			return nil, err
		}
		item := ActionItem{
			ID:           uuid.NewString(),
			UserID:       userID,
			TranscriptID: transcriptID,
			Text:         d.Text,
			Priority:     d.Priority,
			Status:       StatusPending,
			Tags:         d.Tags,
		}
		row := s.q.QueryRowContext(ctx, `
			INSERT INTO action_items (id, user_id, transcript_id, text, priority, status, tags)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at
		`, item.ID, userID, nullIfEmpty(transcriptID), item.Text, string(item.Priority), item.Status, tagsJSON)
		if err := row.Scan(&item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func orderClause(filter ActionItemFilter) string {
	dir := "DESC"
	if filter.Ascending {
		dir = "ASC"
	}
	switch strings.ToLower(filter.SortBy) {
	case "priority":
		// rank 0 is HIGH, so descending order means HIGH first
		flip := "ASC"
		if filter.Ascending {
			flip = "DESC"
		}
		return "CASE a.priority WHEN 'HIGH' THEN 0 WHEN 'MEDIUM' THEN 1 ELSE 2 END " + flip + ", a.created_at DESC, a.id"
	case "status":
		return "a.status " + dir + ", a.created_at DESC, a.id"
	default:
		return "a.created_at " + dir + ", a.id"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActionItem(row rowScanner) (ActionItem, error) {
	var item ActionItem
	var transcriptID, transcriptTitle sql.NullString
	var priority string
	var tagsJSON []byte
	var completedAt sql.NullTime
	if err := row.Scan(&item.ID, &item.UserID, &transcriptID, &transcriptTitle, &item.Text, &priority, &item.Status, &tagsJSON, &completedAt, &item.CreatedAt); err != nil {
		return ActionItem{}, notFound(err)
	}
	item.TranscriptID = transcriptID.String
	item.TranscriptTitle = transcriptTitle.String
	item.Priority = analysis.Priority(priority)
	item.Tags = []string{}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &item.Tags); err != nil {
			return ActionItem{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	if completedAt.Valid {
		ts := completedAt.Time
		item.CompletedAt = &ts
	}
	return item, nil
}

func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
