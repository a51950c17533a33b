package service

import (
	"context"
	"strings"

	"insightboard/internal/analysis"
	"insightboard/internal/store"
)

// ManualItem is an action item typed in by the user rather than extracted.
type ManualItem struct {
	Title       string
	Description string
	Priority    string
	Assignee    string
}

// ListOptions are the raw query parameters of an action item listing.
type ListOptions struct {
	Status   string
	Priority string
	Tag      string
	SortBy   string
	Order    string
}

type DashboardStats struct {
	TotalTasks     int                       `json:"totalTasks"`
	CompletedTasks int                       `json:"completedTasks"`
	PendingTasks   int                       `json:"pendingTasks"`
	CompletionRate int                       `json:"completionRate"`
	PriorityStats  map[analysis.Priority]int `json:"priorityStats"`
}

type Dashboard struct {
	ActionItems []store.ActionItem
	Transcripts []store.TranscriptSummary
	Stats       DashboardStats
}

func (s *Service) ToggleTaskStatus(ctx context.Context, userID, taskID string) (store.ActionItem, error) {
	item, err := s.Store.ToggleActionItem(ctx, userID, taskID)
	return item, mapStoreErr(err)
}

func (s *Service) UpdateTaskPriority(ctx context.Context, userID, taskID, priority string) (store.ActionItem, error) {
	p, ok := analysis.ParsePriority(priority)
	if !ok {
		return store.ActionItem{}, invalid("Priority must be LOW, MEDIUM or HIGH")
	}
	item, err := s.Store.UpdateActionItemPriority(ctx, userID, taskID, p)
	return item, mapStoreErr(err)
}

func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) error {
	return mapStoreErr(s.Store.DeleteActionItem(ctx, userID, taskID))
}

// CreateActionItem stores a manual task. Unknown priorities become MEDIUM and
// an assignee becomes an "@Assignee:<name>" tag.
func (s *Service) CreateActionItem(ctx context.Context, userID string, in ManualItem) (store.ActionItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return store.ActionItem{}, invalid("Task title is required")
	}
	text := title
	if desc := strings.TrimSpace(in.Description); desc != "" {
		text = title + " - " + desc
	}
	priority, _ := analysis.ParsePriority(in.Priority)
	tags := []string{}
	if assignee := strings.TrimSpace(in.Assignee); assignee != "" {
		tags = append(tags, "@Assignee:"+assignee)
	}
	item, err := s.Store.CreateActionItem(ctx, userID, analysis.ActionItemDraft{Text: text, Priority: priority, Tags: tags})
	return item, mapStoreErr(err)
}

func (s *Service) ListActionItems(ctx context.Context, userID string, opts ListOptions) ([]store.ActionItem, error) {
	filter := store.ActionItemFilter{Tag: strings.TrimSpace(opts.Tag)}

	switch status := strings.ToUpper(strings.TrimSpace(opts.Status)); status {
	case "", "ALL":
	case store.StatusPending, store.StatusCompleted:
		filter.Status = status
	default:
		return nil, invalid("Status must be PENDING or COMPLETED")
	}

	if raw := strings.TrimSpace(opts.Priority); raw != "" && !strings.EqualFold(raw, "all") {
		p, ok := analysis.ParsePriority(raw)
		if !ok {
			return nil, invalid("Priority must be LOW, MEDIUM or HIGH")
		}
		filter.Priority = p
	}

	switch sortBy := strings.ToLower(strings.TrimSpace(opts.SortBy)); sortBy {
	case "", "created_at", "createdat", "date":
		filter.SortBy = "created_at"
	case "priority", "status":
		filter.SortBy = sortBy
	default:
		return nil, invalid("Sort must be created_at, priority or status")
	}

	switch order := strings.ToLower(strings.TrimSpace(opts.Order)); order {
	case "", "desc":
	case "asc":
		filter.Ascending = true
	default:
		return nil, invalid("Order must be asc or desc")
	}

	items, err := s.Store.ListActionItems(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.ActionItem{}
	}
	return items, nil
}

func (s *Service) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	items, err := s.Store.ListActionItems(ctx, userID, store.ActionItemFilter{SortBy: "created_at"})
	if err != nil {
		return Dashboard{}, err
	}
	transcripts, err := s.Store.RecentTranscripts(ctx, userID, recentTranscriptLimit)
	if err != nil {
		return Dashboard{}, err
	}
	stats, err := s.Store.ActionItemStats(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	if items == nil {
		items = []store.ActionItem{}
	}
	if transcripts == nil {
		transcripts = []store.TranscriptSummary{}
	}
	return Dashboard{
		ActionItems: items,
		Transcripts: transcripts,
		Stats: DashboardStats{
			TotalTasks:     stats.Total,
			CompletedTasks: stats.Completed,
			PendingTasks:   stats.Pending,
			CompletionRate: completionRate(stats.Completed, stats.Total),
			PriorityStats:  stats.ByPriority,
		},
	}, nil
}
