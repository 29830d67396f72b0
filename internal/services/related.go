package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// RelatedStore is the read side the resolver needs.
type RelatedStore interface {
	PublishedOnDay(dbc dbctx.Context, t content.Type, day string, limit int) ([]*content.Document, error)
	PublishedLatest(dbc dbctx.Context, t content.Type, onOrBefore string, limit int) ([]*content.Document, error)
	PublishedBySubject(dbc dbctx.Context, t content.Type, subject string, limit int) ([]*content.Document, error)
	PublishedQuizzes(dbc dbctx.Context, category, day string, limit int) ([]*content.Document, error)
	PublishedRecentlyUpdated(dbc dbctx.Context, t content.Type, limit int) ([]*content.Document, error)
}

type RelatedRequest struct {
	PageType    content.Type
	PageDate    string
	Subject     string
	// Tags is accepted from pages but does not influence selection.
	Tags        []string
	ManualCA    []content.RelatedRef
	ManualNotes []content.RelatedRef
	Mobile      bool
}

// RelatedService resolves the cross-links shown alongside a page. It never
// fails: an unavailable store yields an empty bundle.
type RelatedService interface {
	Resolve(ctx context.Context, req RelatedRequest) content.Bundle
	Invalidate(ctx context.Context)
}

type RelatedServiceConfig struct {
	Location *time.Location
	TTL      time.Duration
	Now      func() time.Time
	// ComputeTimeout bounds one shared bundle computation.
	ComputeTimeout time.Duration
}

type relatedService struct {
	log     *logger.Logger
	store   RelatedStore
	cache   RelatedCache
	metrics *observability.Metrics
	group   singleflight.Group
	cfg     RelatedServiceConfig
}

func NewRelatedService(baseLog *logger.Logger, store RelatedStore, cache RelatedCache, metrics *observability.Metrics, cfg RelatedServiceConfig) RelatedService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultRelatedTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ComputeTimeout <= 0 {
		cfg.ComputeTimeout = DefaultRelatedComputeTimeout
	}
	if cache == nil {
		cache = NewMemoryRelatedCache(cfg.Now)
	}
	return &relatedService{
		log:     baseLog.With("service", "RelatedService"),
		store:   store,
		cache:   cache,
		metrics: metrics,
		cfg:     cfg,
	}
}

func (s *relatedService) Resolve(ctx context.Context, req RelatedRequest) content.Bundle {
	if len(req.ManualCA) > 0 || len(req.ManualNotes) > 0 {
		s.metrics.IncRelatedCache("bypass")
		return content.ManualBundle(req.ManualCA, req.ManualNotes)
	}
	if s.store == nil {
		return content.EmptyBundle()
	}
	if _, ok := content.ParseType(string(req.PageType)); !ok {
		return content.EmptyBundle()
	}

	pageDay := ""
	if d, err := content.ParseDay(req.PageDate); err == nil {
		pageDay = d.Format(content.DayLayout)
	}
	key := content.CacheKey(req.PageType, pageDay, req.Subject)

	if b, ok := s.cache.Get(ctx, key); ok {
		s.metrics.IncRelatedCache("hit")
		return s.shape(b, req)
	}
	s.metrics.IncRelatedCache("miss")

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Waiters share this computation, so it must not die with the
		// first caller's request.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ComputeTimeout)
		defer cancel()
		ctx, span := observability.Tracer("related").Start(ctx, "related.compute")
		defer span.End()
		b, err := s.compute(ctx, req.PageType, pageDay, req.Subject)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, key, b, s.cfg.TTL)
		return b, nil
	})
	if err != nil {
		s.log.Ctx(ctx).Warn("related content unavailable; returning empty bundle", "page_type", req.PageType, "error", err)
		return content.EmptyBundle()
	}
	return s.shape(v.(content.Bundle), req)
}

func (s *relatedService) shape(b content.Bundle, req RelatedRequest) content.Bundle {
	if req.Mobile {
		return content.TrimForMobile(b, req.PageType)
	}
	return b
}

func (s *relatedService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Ctx(ctx).Warn("related cache invalidation failed", "error", err)
	}
}

// compute builds the desktop-sized bundle for a page.
func (s *relatedService) compute(ctx context.Context, pageType content.Type, pageDay, subject string) (content.Bundle, error) {
	today := content.Day(s.cfg.Now(), s.cfg.Location)
	todayStr := today.Format(content.DayLayout)
	out := content.EmptyBundle()

	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Of(gctx)

	var (
		daily   [2][]*content.Document
		monthly []*content.Document
		notes   []*content.Document
		pyqs    []*content.Document
		quizzes []content.RelatedQuiz
	)

	switch pageType {
	case content.TypeDaily:
		var page time.Time
		if pageDay != "" {
			page, _ = content.ParseDay(pageDay)
		}
		days := content.DailyCandidateDays(page, today)
		for i, d := range days {
			i, day := i, d.Format(content.DayLayout)
			g.Go(func() error {
				docs, err := s.store.PublishedOnDay(dbc, content.TypeDaily, day, 1)
				daily[i] = docs
				return err
			})
		}
		g.Go(func() error {
			q, err := s.dailyQuizzes(dbc, todayStr, pageDay)
			quizzes = q
			return err
		})
	case content.TypeMonthly, content.TypeNotes:
		n := content.MonthlyLimit(pageType, false)
		g.Go(func() error {
			docs, err := s.store.PublishedLatest(dbc, content.TypeMonthly, todayStr, n+1)
			monthly = docs
			return err
		})
		if pageType == content.TypeMonthly {
			g.Go(func() error {
				docs, err := s.store.PublishedQuizzes(dbc, content.QuizCategoryMonthlyCA, "", 1)
				for _, d := range docs {
					quizzes = append(quizzes, quizOf(d, content.QuizMatchLatest))
				}
				return err
			})
		}
	}

	g.Go(func() error {
		docs, err := s.store.PublishedBySubject(dbc, content.TypeNotes, subject, content.NotesRelatedDesktop)
		notes = docs
		return err
	})
	g.Go(func() error {
		docs, err := s.store.PublishedRecentlyUpdated(dbc, content.TypePyq, content.PyqRelatedDesktop)
		pyqs = docs
		return err
	})

	if err := g.Wait(); err != nil {
		return content.Bundle{}, err
	}

	for _, docs := range daily {
		for _, d := range docs {
			out.CurrentAffairs = append(out.CurrentAffairs, content.ItemOf(d))
		}
	}
	if monthly != nil {
		items := make([]content.RelatedItem, 0, len(monthly))
		for _, d := range monthly {
			items = append(items, content.ItemOf(d))
		}
		exclude := ""
		if pageType == content.TypeMonthly {
			exclude = pageDay
		}
		out.CurrentAffairs = content.ExcludeDay(items, exclude, content.MonthlyLimit(pageType, false))
	}
	for _, d := range notes {
		out.ImportantNotes = append(out.ImportantNotes, content.ItemOf(d))
	}
	out.Quizzes = content.DedupeQuizzes(append(out.Quizzes, quizzes...))
	for _, d := range pyqs {
		out.Pyqs = append(out.Pyqs, content.PyqSummaryOf(d))
	}
	return out, nil
}

// dailyQuizzes prefers today's quiz and the page's own day, falling back to
// the most recent daily quiz when neither exists.
func (s *relatedService) dailyQuizzes(dbc dbctx.Context, today, pageDay string) ([]content.RelatedQuiz, error) {
	var out []content.RelatedQuiz
	docs, err := s.store.PublishedQuizzes(dbc, content.QuizCategoryDailyCA, today, 1)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		out = append(out, quizOf(d, content.QuizMatchToday))
	}
	if pageDay != "" && pageDay != today {
		docs, err := s.store.PublishedQuizzes(dbc, content.QuizCategoryDailyCA, pageDay, 1)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			out = append(out, quizOf(d, content.QuizMatchSameDay))
		}
	}
	if len(out) == 0 {
		docs, err := s.store.PublishedQuizzes(dbc, content.QuizCategoryDailyCA, "", 1)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			out = append(out, quizOf(d, content.QuizMatchLatest))
		}
	}
	return out, nil
}

func quizOf(d *content.Document, match content.QuizMatch) content.RelatedQuiz {
	return content.RelatedQuiz{RelatedItem: content.ItemOf(d), QuizDate: d.AnchorDay, MatchType: match}
}

// ParseRelatedRequest reads the public query parameters.
func ParseRelatedRequest(pageType, date, subject, mobile string) RelatedRequest {
	t, _ := content.ParseType(pageType)
	m, _ := strconv.ParseBool(strings.TrimSpace(mobile))
	return RelatedRequest{PageType: t, PageDate: strings.TrimSpace(date), Subject: strings.TrimSpace(subject), Mobile: m}
}
