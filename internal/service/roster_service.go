package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/oncall-roster-api/internal/dto"
	"github.com/noah-isme/oncall-roster-api/internal/models"
	appErrors "github.com/noah-isme/oncall-roster-api/pkg/errors"
)

type rosterRepository interface {
	ReplaceMonth(ctx context.Context, year, month int, rows []models.ShiftAssignment) error
	ListMonth(ctx context.Context, year, month int) ([]models.ShiftAssignment, error)
}

// RosterService persists and retrieves accepted monthly rosters.
type RosterService struct {
	repo     rosterRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRosterService constructs the service.
func NewRosterService(repo rosterRepository, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, validate: validate, logger: logger}
}

// Save stores an accepted schedule, replacing any earlier save for the same
// month.
func (s *RosterService) Save(ctx context.Context, req *dto.SaveRosterRequest) (*dto.SaveRosterResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster payload")
	}

	rows := make([]models.ShiftAssignment, 0, len(req.Schedule)*2)
	for _, entry := range req.Schedule {
		if entry.NightShift == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "schedule entry missing night shift")
		}
		if err := checkDoctorIndex(*entry.NightShift, req.NumDoctors); err != nil {
			return nil, err
		}
		rows = append(rows, models.ShiftAssignment{
			Year: req.Year, Month: req.Month, Day: entry.Day,
			ShiftType: models.ShiftTypeNight, DoctorIndex: *entry.NightShift,
		})
		if entry.DayShift != nil {
			if err := checkDoctorIndex(*entry.DayShift, req.NumDoctors); err != nil {
				return nil, err
			}
			rows = append(rows, models.ShiftAssignment{
				Year: req.Year, Month: req.Month, Day: entry.Day,
				ShiftType: models.ShiftTypeDay, DoctorIndex: *entry.DayShift,
			})
		}
	}

	if err := s.repo.ReplaceMonth(ctx, req.Year, req.Month, rows); err != nil {
		s.logger.Error("roster save failed",
			zap.Int("year", req.Year),
			zap.Int("month", req.Month),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save roster")
	}

	s.logger.Info("roster saved",
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.Int("rows", len(rows)))
	return &dto.SaveRosterResponse{SavedCount: len(rows)}, nil
}

// Get reconstructs the stored schedule for a month.
func (s *RosterService) Get(ctx context.Context, year, month int) ([]dto.ScheduleEntry, error) {
	if year < 1 || month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid year or month")
	}

	rows, err := s.repo.ListMonth(ctx, year, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load roster")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no roster saved for this month")
	}

	byDay := make(map[int]*dto.ScheduleEntry)
	order := make([]int, 0, len(rows))
	for _, row := range rows {
		entry, ok := byDay[row.Day]
		if !ok {
			entry = &dto.ScheduleEntry{Day: row.Day}
			byDay[row.Day] = entry
			order = append(order, row.Day)
		}
		idx := row.DoctorIndex
		switch row.ShiftType {
		case models.ShiftTypeNight:
			entry.NightShift = &idx
		case models.ShiftTypeDay:
			entry.DayShift = &idx
			// Day shifts exist only on Sunday/holiday days.
			entry.IsHoliday = true
		}
	}

	schedule := make([]dto.ScheduleEntry, 0, len(order))
	for _, day := range order {
		schedule = append(schedule, *byDay[day])
	}
	return schedule, nil
}

func checkDoctorIndex(idx, numDoctors int) error {
	if idx < 0 || idx >= numDoctors {
		return appErrors.Clone(appErrors.ErrValidation, "doctor index outside the roster range")
	}
	return nil
}
