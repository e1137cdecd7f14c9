package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
	appErrors "github.com/mahfuz-dev/edupanel-api/pkg/errors"
)

type studentCounter interface {
	Count(ctx context.Context) (int, error)
}

type teacherCounter interface {
	Count(ctx context.Context) (int, error)
}

type classCounter interface {
	CountClasses(ctx context.Context) (int, error)
}

type pendingCounter interface {
	CountPending(ctx context.Context) (int, error)
}

type attendanceCounter interface {
	CountByStatusOn(ctx context.Context, date time.Time) (map[models.AttendanceStatus]int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the admin dashboard payload from counts across
// the school tables, with a short-lived cache in front.
type DashboardService struct {
	students   studentCounter
	teachers   teacherCounter
	classes    classCounter
	pending    pendingCounter
	attendance attendanceCounter
	cache      *CacheService
	logger     *zap.Logger
	now        func() time.Time
	cfg        DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students   studentCounter
	Teachers   teacherCounter
	Classes    classCounter
	Pending    pendingCounter
	Attendance attendanceCounter
	Cache      *CacheService
	Logger     *zap.Logger
	Config     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:   params.Students,
		teachers:   params.Teachers,
		classes:    params.Classes,
		pending:    params.Pending,
		attendance: params.Attendance,
		cache:      params.Cache,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

// Stats returns the dashboard summary and indicates cache utilisation.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	const cacheKey = "dash:stats"
	if s.cache != nil {
		var cached models.DashboardStats
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	stats, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, false, nil
}

// Invalidate drops cached dashboard payloads. Called after writes that move
// the headline numbers.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context) (*models.DashboardStats, error) {
	students, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	teachers, err := s.teachers.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	classes, err := s.classes.CountClasses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	pending, err := s.pending.CountPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending registrations")
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	counts, err := s.attendance.CountByStatusOn(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count today's attendance")
	}

	stats := &models.DashboardStats{
		TotalStudents:        students,
		TotalTeachers:        teachers,
		TotalClasses:         classes,
		PendingRegistrations: pending,
		TodayPresent:         counts[models.AttendanceStatusPresent],
		TodayAbsent:          counts[models.AttendanceStatusAbsent],
		TodayLate:            counts[models.AttendanceStatusLate],
		GeneratedAt:          s.now().UTC(),
	}
	if total := stats.TodayPresent + stats.TodayAbsent + stats.TodayLate; total > 0 {
		stats.TodayAttendanceRate = float64(stats.TodayPresent+stats.TodayLate) / float64(total) * 100
	}
	return stats, nil
}
