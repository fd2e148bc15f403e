package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/pkg/export"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
)

// scheduleCachePattern matches every cached schedule view. Lesson and attendance writes drop them all.
const scheduleCachePattern = "schedule:*"

type scheduleReader interface {
	ListForOwner(ctx context.Context, ownerID int64, window dto.ScheduleWindow) ([]dto.ScheduleRow, error)
	ListForParticipant(ctx context.Context, participantID int64, window dto.ScheduleWindow) ([]dto.ScheduleRow, error)
}

type datasetRenderer interface {
	Render(format export.Format, data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered schedule export.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ScheduleService assembles read-only session views from flattened schedule rows.
type ScheduleService struct {
	reader   scheduleReader
	cache    *CacheService
	cacheTTL time.Duration
	renderer datasetRenderer
	location *time.Location
	logger   *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(reader scheduleReader, cache *CacheService, cacheTTL time.Duration, renderer datasetRenderer, loc *time.Location, logger *zap.Logger) *ScheduleService {
	if renderer == nil {
		renderer = export.NewExporter()
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{reader: reader, cache: cache, cacheTTL: cacheTTL, renderer: renderer, location: loc, logger: logger}
}

// ForOwner returns the owner's sessions ordered by start, each with its enrolled participants.
func (s *ScheduleService) ForOwner(ctx context.Context, ownerID int64, window dto.ScheduleWindow) ([]dto.SessionView, error) {
	if ownerID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid owner id")
	}
	return s.cached(ctx, scheduleCacheKey("owner", ownerID, window), window, func() ([]dto.ScheduleRow, error) {
		return s.reader.ListForOwner(ctx, ownerID, window)
	})
}

// ForParticipant returns the sessions the participant is enrolled in, listing only that participant.
func (s *ScheduleService) ForParticipant(ctx context.Context, participantID int64, window dto.ScheduleWindow) ([]dto.SessionView, error) {
	if participantID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid participant id")
	}
	return s.cached(ctx, scheduleCacheKey("participant", participantID, window), window, func() ([]dto.ScheduleRow, error) {
		return s.reader.ListForParticipant(ctx, participantID, window)
	})
}

func (s *ScheduleService) cached(ctx context.Context, key string, window dto.ScheduleWindow, load func() ([]dto.ScheduleRow, error)) ([]dto.SessionView, error) {
	if window.From != nil && window.To != nil && !window.To.After(*window.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be after from")
	}

	var views []dto.SessionView
	if hit, _ := s.cache.Get(ctx, key, &views); hit {
		return views, nil
	}

	// Rows loaded before a concurrent write's invalidation must not outlive it in the cache.
	gen := s.cache.Generation()
	rows, err := load()
	if err != nil {
		return nil, storeError(err, "failed to load schedule")
	}
	views = GroupSessions(rows)
	_ = s.cache.SetIfCurrent(ctx, key, views, s.cacheTTL, gen)
	return views, nil
}

// ExportOwner renders the owner's schedule as an attendance summary, one line per enrolled participant.
func (s *ScheduleService) ExportOwner(ctx context.Context, ownerID int64, window dto.ScheduleWindow, format export.Format) (*ExportFile, error) {
	views, err := s.ForOwner(ctx, ownerID, window)
	if err != nil {
		return nil, err
	}
	payload, err := s.renderer.Render(format, s.exportDataset(ownerID, views))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
	}
	s.logger.Info("schedule exported", zap.Int64("owner_id", ownerID), zap.String("format", string(format)), zap.Int("sessions", len(views)))
	return &ExportFile{
		Filename:    fmt.Sprintf("schedule-owner-%d.%s", ownerID, format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *ScheduleService) exportDataset(ownerID int64, views []dto.SessionView) export.Dataset {
	data := export.Dataset{
		Title:   fmt.Sprintf("Schedule for owner %d", ownerID),
		Headers: []string{"Date", "Start", "End", "Subject", "Status", "Participant", "Attendance", "Attendance Notes", "Guardian", "Guardian Email", "Guardian Phone"},
	}
	for _, v := range views {
		start := v.StartAt.In(s.location)
		session := []string{start.Format("2006-01-02"), start.Format("15:04"), v.EndAt.In(s.location).Format("15:04"), deref(v.SubjectName), string(v.Status)}
		if len(v.Participants) == 0 {
			data.Rows = append(data.Rows, session)
			continue
		}
		for _, p := range v.Participants {
			row := append(append([]string{}, session...),
				p.ParticipantName,
				deref((*string)(p.AttendanceStatus)),
				deref(p.AttendanceNotes),
				deref(p.GuardianName),
				deref(p.GuardianEmail),
				deref(p.GuardianPhone),
			)
			data.Rows = append(data.Rows, row)
		}
	}
	return data
}

// GroupSessions folds rows ordered by lesson into one view per lesson, keeping the row order. Rows
// without an enrollment contribute a session with no participants.
func GroupSessions(rows []dto.ScheduleRow) []dto.SessionView {
	views := []dto.SessionView{}
	index := make(map[int64]int)
	for _, row := range rows {
		i, ok := index[row.LessonID]
		if !ok {
			i = len(views)
			index[row.LessonID] = i
			views = append(views, dto.SessionView{
				LessonID:          row.LessonID,
				OwnerID:           row.OwnerID,
				SubjectID:         row.SubjectID,
				SubjectName:       row.SubjectName,
				StartAt:           row.StartAt,
				EndAt:             row.EndAt,
				DurationMinutes:   row.DurationMinutes,
				Status:            row.Status,
				RecurrenceGroupID: row.RecurrenceGroupID,
				Participants:      []dto.ScheduleParticipant{},
			})
		}
		if row.EnrollmentID == nil || row.ParticipantID == nil {
			continue
		}
		views[i].Participants = append(views[i].Participants, dto.ScheduleParticipant{
			EnrollmentID:     *row.EnrollmentID,
			ParticipantID:    *row.ParticipantID,
			ParticipantName:  deref(row.ParticipantName),
			GuardianNote:     row.GuardianNote,
			AttendanceStatus: row.AttendanceStatus,
			AttendanceNotes:  row.AttendanceNotes,
			GuardianName:     row.GuardianName,
			GuardianEmail:    row.GuardianEmail,
			GuardianPhone:    row.GuardianPhone,
			SelfManaged:      row.SelfManaged != nil && *row.SelfManaged,
		})
	}
	return views
}

func scheduleCacheKey(scope string, id int64, window dto.ScheduleWindow) string {
	return fmt.Sprintf("schedule:%s:%d:%s:%s", scope, id, windowBound(window.From), windowBound(window.To))
}

func windowBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%d", t.Unix())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
