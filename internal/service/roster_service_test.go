package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/oncall-roster-api/internal/dto"
	"github.com/noah-isme/oncall-roster-api/internal/models"
	appErrors "github.com/noah-isme/oncall-roster-api/pkg/errors"
)

type mockRosterRepo struct {
	replaced   []models.ShiftAssignment
	listed     []models.ShiftAssignment
	replaceErr error
	listErr    error
}

func (m *mockRosterRepo) ReplaceMonth(_ context.Context, _, _ int, rows []models.ShiftAssignment) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaced = rows
	return nil
}

func (m *mockRosterRepo) ListMonth(_ context.Context, _, _ int) ([]models.ShiftAssignment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listed, nil
}

func intPtr(v int) *int { return &v }

func TestRosterServiceSave(t *testing.T) {
	repo := &mockRosterRepo{}
	svc := NewRosterService(repo, validator.New(), zap.NewNop())

	resp, err := svc.Save(context.Background(), &dto.SaveRosterRequest{
		Year: 2024, Month: 4, NumDoctors: 8,
		Schedule: []dto.ScheduleEntry{
			{Day: 1, NightShift: intPtr(0)},
			{Day: 7, NightShift: intPtr(1), DayShift: intPtr(2), IsHoliday: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.SavedCount)
	require.Len(t, repo.replaced, 3)
	assert.Equal(t, models.ShiftTypeNight, repo.replaced[0].ShiftType)
	assert.Equal(t, models.ShiftTypeDay, repo.replaced[2].ShiftType)
	assert.Equal(t, 2, repo.replaced[2].DoctorIndex)
}

func TestRosterServiceSaveRejectsBadIndex(t *testing.T) {
	svc := NewRosterService(&mockRosterRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Save(context.Background(), &dto.SaveRosterRequest{
		Year: 2024, Month: 4, NumDoctors: 2,
		Schedule: []dto.ScheduleEntry{{Day: 1, NightShift: intPtr(5)}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRosterServiceSaveRejectsMissingNight(t *testing.T) {
	svc := NewRosterService(&mockRosterRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Save(context.Background(), &dto.SaveRosterRequest{
		Year: 2024, Month: 4, NumDoctors: 2,
		Schedule: []dto.ScheduleEntry{{Day: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRosterServiceGet(t *testing.T) {
	repo := &mockRosterRepo{listed: []models.ShiftAssignment{
		{Year: 2024, Month: 4, Day: 1, ShiftType: models.ShiftTypeNight, DoctorIndex: 0},
		{Year: 2024, Month: 4, Day: 7, ShiftType: models.ShiftTypeNight, DoctorIndex: 1},
		{Year: 2024, Month: 4, Day: 7, ShiftType: models.ShiftTypeDay, DoctorIndex: 3},
	}}
	svc := NewRosterService(repo, validator.New(), zap.NewNop())

	schedule, err := svc.Get(context.Background(), 2024, 4)
	require.NoError(t, err)
	require.Len(t, schedule, 2)

	assert.Equal(t, 1, schedule[0].Day)
	assert.False(t, schedule[0].IsHoliday)
	require.NotNil(t, schedule[1].DayShift)
	assert.Equal(t, 3, *schedule[1].DayShift)
	assert.True(t, schedule[1].IsHoliday)
}

func TestRosterServiceGetNotFound(t *testing.T) {
	svc := NewRosterService(&mockRosterRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), 2024, 4)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
