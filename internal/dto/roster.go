package dto

// SaveRosterRequest persists an accepted schedule for a month.
type SaveRosterRequest struct {
	Year       int             `json:"year" validate:"required"`
	Month      int             `json:"month" validate:"required,min=1,max=12"`
	NumDoctors int             `json:"num_doctors" validate:"required,min=1,max=64"`
	Schedule   []ScheduleEntry `json:"schedule" validate:"required,min=1,dive"`
}

// SaveRosterResponse reports how many shift rows were written.
type SaveRosterResponse struct {
	SavedCount int `json:"savedCount"`
}
