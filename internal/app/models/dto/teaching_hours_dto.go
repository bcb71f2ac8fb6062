package dto

// TeachingHourMethod selects the minute weighting of the teaching-hours aggregate
const TeachingHourMethod = "teaching_hour"

// TeachingHoursResponse reports a teacher's workload
type TeachingHoursResponse struct {
	TeacherID       int64   `json:"teacherId" example:"7"`
	Method          string  `json:"method" example:"teaching_hour"`
	SessionCount    int     `json:"sessionCount" example:"4"`
	RawMinutes      float64 `json:"rawMinutes" example:"240"`
	WeightedMinutes float64 `json:"weightedMinutes" example:"180"`
	TotalHours      float64 `json:"totalHours" example:"3"`
}
