package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"insightboard/internal/analysis"
	"insightboard/internal/auth"
	"insightboard/internal/queue"
	"insightboard/internal/ratelimit"
	"insightboard/internal/store"
)

const (
	defaultTranscriptTitle = "Untitled Transcript"
	recentTranscriptLimit  = 5
	maxAnalysisAttempts    = 5
)

type Store interface {
	CreateUser(ctx context.Context, email, passwordHash, name string) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateTranscriptWithItems(ctx context.Context, userID, title, content string, result analysis.AnalysisResult) (store.Transcript, []store.ActionItem, error)
	CreatePendingTranscript(ctx context.Context, userID, title, content string) (store.Transcript, error)
	DeletePendingTranscript(ctx context.Context, transcriptID string) error
	CompleteTranscriptAnalysis(ctx context.Context, transcriptID string, result analysis.AnalysisResult) ([]store.ActionItem, error)
	GetTranscript(ctx context.Context, id string) (store.Transcript, error)
	CreateActionItem(ctx context.Context, userID string, draft analysis.ActionItemDraft) (store.ActionItem, error)
	ToggleActionItem(ctx context.Context, userID, id string) (store.ActionItem, error)
	UpdateActionItemPriority(ctx context.Context, userID, id string, priority analysis.Priority) (store.ActionItem, error)
	DeleteActionItem(ctx context.Context, userID, id string) error
	ListActionItems(ctx context.Context, userID string, filter store.ActionItemFilter) ([]store.ActionItem, error)
	ActionItemStats(ctx context.Context, userID string) (store.ActionItemStats, error)
	RecentTranscripts(ctx context.Context, userID string, limit int) ([]store.TranscriptSummary, error)
}

type Analyzer interface {
	AnalyzeTranscript(ctx context.Context, transcript string) (analysis.AnalysisResult, error)
	SuggestActionItems(ctx context.Context, contextText string) ([]analysis.ActionItemDraft, error)
	Providers() []analysis.ProviderConfig
}

type JobQueue interface {
	PushAnalysisJob(ctx context.Context, job queue.AnalysisJob) error
}

type SubmissionRecorder interface {
	TranscriptSubmitted(mode string)
}

type Service struct {
	Store    Store
	Analyzer Analyzer
	Queue    JobQueue
	Limiter  *ratelimit.Limiter
	Metrics  SubmissionRecorder
	Logger   *zap.Logger
	// Async queues analysis jobs instead of analyzing inline. It has no
	// effect without a Queue.
	Async bool

	HashPassword  func(password string) (string, error)
	CheckPassword func(hash, password string) bool
}

func New(st Store, analyzer Analyzer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Store:         st,
		Analyzer:      analyzer,
		Logger:        logger,
		HashPassword:  auth.HashPassword,
		CheckPassword: auth.CheckPassword,
	}
}

func (s *Service) RegisterUser(ctx context.Context, email, password, name string) (store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return store.User{}, invalid("Email and password are required")
	}
	if _, err := s.Store.GetUserByEmail(ctx, email); err == nil {
		return store.User{}, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.User{}, err
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.Store.CreateUser(ctx, email, hash, name)
	if errors.Is(err, store.ErrDuplicate) {
		return store.User{}, ErrUserExists
	}
	if err != nil {
		return store.User{}, err
	}
	s.Logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Authenticate never tells callers whether the email exists.
func (s *Service) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}
	user, err := s.Store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, err
	}
	if !s.CheckPassword(user.PasswordHash, password) {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Submission is the outcome of SubmitTranscript. ActionItems is empty when
// the analysis was queued.
type Submission struct {
	Transcript  store.Transcript
	ActionItems []store.ActionItem
	Queued      bool
}

func (s *Service) SubmitTranscript(ctx context.Context, userID, title, content string) (Submission, error) {
	if strings.TrimSpace(content) == "" {
		return Submission{}, invalid("Transcript content is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTranscriptTitle
	}
	if err := s.Limiter.Check(userID); err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	if s.Async && s.Queue != nil {
		t, err := s.Store.CreatePendingTranscript(ctx, userID, title, content)
		if err != nil {
			return Submission{}, mapStoreErr(err)
		}
		if err := s.Queue.PushAnalysisJob(ctx, queue.AnalysisJob{TranscriptID: t.ID, UserID: userID}); err != nil {
			s.Logger.Error("enqueue analysis job failed", zap.String("transcript_id", t.ID), zap.Error(err))
			if derr := s.Store.DeletePendingTranscript(context.WithoutCancel(ctx), t.ID); derr != nil {
				s.Logger.Error("remove unqueued transcript failed", zap.String("transcript_id", t.ID), zap.Error(derr))
			}
			return Submission{}, fmt.Errorf("enqueue analysis: %w", err)
		}
		s.recordSubmission("async")
		s.Logger.Info("transcript queued for analysis", zap.String("transcript_id", t.ID), zap.String("user_id", userID))
		return Submission{Transcript: t, Queued: true}, nil
	}

	result, err := s.Analyzer.AnalyzeTranscript(ctx, content)
	if err != nil {
		return Submission{}, err
	}
	t, items, err := s.Store.CreateTranscriptWithItems(ctx, userID, title, content, result)
	if err != nil {
		return Submission{}, mapStoreErr(err)
	}
	s.recordSubmission("sync")
	s.Logger.Info("transcript analyzed",
		zap.String("transcript_id", t.ID),
		zap.String("user_id", userID),
		zap.Int("action_items", len(items)),
	)
	return Submission{Transcript: t, ActionItems: items}, nil
}

// ProcessAnalysisJob analyzes a queued transcript. Jobs for transcripts that
// are gone or already analyzed are dropped. A job that fails on a store error
// is pushed back until it has run maxAnalysisAttempts times.
func (s *Service) ProcessAnalysisJob(ctx context.Context, job queue.AnalysisJob) error {
	err := s.processAnalysisJob(ctx, job)
	if err == nil || s.Queue == nil {
		return err
	}
	var verr *analysis.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	job.Attempts++
	if job.Attempts >= maxAnalysisAttempts {
		return fmt.Errorf("analysis job gave up after %d attempts: %w", job.Attempts, err)
	}
	if perr := s.Queue.PushAnalysisJob(context.WithoutCancel(ctx), job); perr != nil {
		return fmt.Errorf("requeue analysis job: %w (after %w)", perr, err)
	}
	s.Logger.Warn("analysis job requeued",
		zap.String("transcript_id", job.TranscriptID),
		zap.Int("attempts", job.Attempts),
		zap.Error(err),
	)
	return nil
}

func (s *Service) processAnalysisJob(ctx context.Context, job queue.AnalysisJob) error {
	t, err := s.Store.GetTranscript(ctx, job.TranscriptID)
	if errors.Is(err, store.ErrNotFound) {
		s.Logger.Warn("dropping analysis job for missing transcript", zap.String("transcript_id", job.TranscriptID))
		return nil
	}
	if err != nil {
		return err
	}
	if t.Status != store.TranscriptPending {
		s.Logger.Debug("transcript already analyzed", zap.String("transcript_id", t.ID))
		return nil
	}
	result, err := s.Analyzer.AnalyzeTranscript(ctx, t.Content)
	if err != nil {
		return err
	}
	items, err := s.Store.CompleteTranscriptAnalysis(ctx, t.ID, result)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.Logger.Info("queued transcript analyzed", zap.String("transcript_id", t.ID), zap.Int("action_items", len(items)))
	return nil
}

// Analyze runs the analysis pipeline without storing anything.
func (s *Service) Analyze(ctx context.Context, transcript string) (analysis.AnalysisResult, error) {
	result, err := s.Analyzer.AnalyzeTranscript(ctx, transcript)
	if errors.Is(err, analysis.ErrEmptyTranscript) {
		return analysis.AnalysisResult{}, invalid("Transcript content is required")
	}
	return result, err
}

func (s *Service) SuggestActionItems(ctx context.Context, contextText string) ([]analysis.ActionItemDraft, error) {
	items, err := s.Analyzer.SuggestActionItems(ctx, contextText)
	if errors.Is(err, analysis.ErrEmptyContext) {
		return nil, invalid("Context is required")
	}
	return items, err
}

func (s *Service) Providers() []analysis.ProviderConfig {
	return s.Analyzer.Providers()
}

func (s *Service) recordSubmission(mode string) {
	if s.Metrics != nil {
		s.Metrics.TranscriptSubmitted(mode)
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func completionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
