package remote

// Justification review states as reported by the API.
const (
	StatusPending  = "PENDIENTE"
	StatusApproved = "APROBADA"
	StatusRejected = "RECHAZADA"
)

// StatusActive marks an enrolled student.
const StatusActive = "A"

// envelope is the response wrapper every endpoint uses.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// JustificationStats holds the review counters shown on the dashboard.
type JustificationStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// StudentStats holds enrolment counters.
type StudentStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// Justification is an absence justification submitted by a student.
type Justification struct {
	ID                 int    `json:"id"`
	StudentName        string `json:"student_name"`
	StudentCode        string `json:"student_code"`
	StudentEmail       string `json:"student_email,omitempty"`
	StudentPhone       string `json:"student_phone,omitempty"`
	StudentCareer      string `json:"student_career,omitempty"`
	StudentSemester    string `json:"student_semester,omitempty"`
	AbsenceDate        string `json:"absence_date"`
	CourseName         string `json:"course_name"`
	ReasonType         string `json:"reason_type"`
	ReasonDescription  string `json:"reason_description,omitempty"`
	AttachmentPath     string `json:"attachment_path,omitempty"`
	AttachmentFilename string `json:"attachment_filename,omitempty"`
	AttachmentType     string `json:"attachment_type,omitempty"`
	SubmissionDate     string `json:"submission_date"`
	Status             string `json:"status"`
}

// Student is an enrolled student with attendance figures.
type Student struct {
	ID                   int     `json:"id"`
	FirstName            string  `json:"first_name"`
	LastName             string  `json:"last_name"`
	FullName             string  `json:"full_name,omitempty"`
	StudentCode          string  `json:"student_code"`
	Email                string  `json:"email"`
	Career               string  `json:"career"`
	Semester             string  `json:"semester"`
	Status               string  `json:"status,omitempty"`
	AttendancePercentage float64 `json:"attendance_percentage,omitempty"`
	RiskLevel            string  `json:"risk_level,omitempty"`
}

// StudentList is the payload of the students endpoint.
type StudentList struct {
	Students []Student `json:"students"`
}

// NewStudent is the payload for creating a student.
type NewStudent struct {
	FirstName   string `json:"first_name" yaml:"first_name"`
	LastName    string `json:"last_name" yaml:"last_name"`
	StudentCode string `json:"student_code" yaml:"student_code"`
	Email       string `json:"email" yaml:"email"`
	Career      string `json:"career" yaml:"career"`
	Semester    string `json:"semester" yaml:"semester"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
}

// StudentQuery filters the student list.
type StudentQuery struct {
	IncludeInactive bool
	Status          string
	Search          string
}

type reviewRequest struct {
	AdminID int `json:"admin_id"`
}

type importRequest struct {
	Students []NewStudent `json:"students"`
}
