package resources

import (
	"strings"
	"time"

	"github.com/justifica/datacache/internal/remote"
)

// RecentLimit is how many justifications the dashboard lists.
const RecentLimit = 5

const (
	notAvailable  = "No disponible"
	noDescription = "Sin descripción"
	displayDate   = "02/01/2006"
	labelPending  = "Pendiente"
	labelApproved = "Aprobada"
	labelRejected = "Rechazada"
)

// Dashboard is the composed view served under datacache.KeyDashboard.
type Dashboard struct {
	Stats  DashboardStats
	Recent []ReviewSummary
}

// DashboardStats merges justification and student counters.
type DashboardStats struct {
	Total          int
	Pending        int
	Approved       int
	Rejected       int
	TotalStudents  int
	ActiveStudents int
}

// ReviewSummary is a justification prepared for display.
type ReviewSummary struct {
	ID                 int
	Student            string
	Code               string
	Email              string
	Phone              string
	Career             string
	Semester           string
	Date               string
	Course             string
	Reason             string
	Description        string
	AttachmentPath     string
	AttachmentFilename string
	AttachmentType     string
	Sent               string
	Status             string
}

// Pending reports whether the justification still awaits review.
func (r ReviewSummary) Pending() bool {
	return r.Status == labelPending
}

// BuildDashboard composes the dashboard from the three API payloads.
func BuildDashboard(js remote.JustificationStats, all []remote.Justification, ss remote.StudentStats) Dashboard {
	n := min(len(all), RecentLimit)
	recent := make([]ReviewSummary, 0, n)
	for _, j := range all[:n] {
		recent = append(recent, Summarize(j))
	}
	return Dashboard{
		Stats: DashboardStats{
			Total:          js.Total,
			Pending:        js.Pending,
			Approved:       js.Approved,
			Rejected:       js.Rejected,
			TotalStudents:  ss.Total,
			ActiveStudents: ss.Active,
		},
		Recent: recent,
	}
}

// Summarize maps one justification to its display form.
func Summarize(j remote.Justification) ReviewSummary {
	return ReviewSummary{
		ID:                 j.ID,
		Student:            j.StudentName,
		Code:               j.StudentCode,
		Email:              orDefault(j.StudentEmail, notAvailable),
		Phone:              orDefault(j.StudentPhone, notAvailable),
		Career:             orDefault(j.StudentCareer, notAvailable),
		Semester:           orDefault(j.StudentSemester, notAvailable),
		Date:               FormatDate(j.AbsenceDate),
		Course:             j.CourseName,
		Reason:             j.ReasonType,
		Description:        orDefault(j.ReasonDescription, noDescription),
		AttachmentPath:     j.AttachmentPath,
		AttachmentFilename: j.AttachmentFilename,
		AttachmentType:     j.AttachmentType,
		Sent:               FormatDate(j.SubmissionDate),
		Status:             StatusLabel(j.Status),
	}
}

// StatusLabel maps an API status to its display label. Anything that is
// neither pending nor approved is shown as rejected.
func StatusLabel(status string) string {
	switch status {
	case remote.StatusPending:
		return labelPending
	case remote.StatusApproved:
		return labelApproved
	default:
		return labelRejected
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	"2006-01-02",
}

// FormatDate renders an API timestamp as dd/mm/yyyy. Values in an
// unrecognized layout are returned unchanged.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(displayDate)
		}
	}
	return s
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
