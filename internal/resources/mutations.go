package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/justifica/datacache"
	"github.com/justifica/datacache/internal/remote"
)

// Review decisions accepted by Review.
const (
	DecisionApproved = labelApproved
	DecisionRejected = labelRejected
)

var (
	// ErrInvalidDecision is returned by Review for anything other than
	// DecisionApproved or DecisionRejected.
	ErrInvalidDecision = errors.New("resources: invalid review decision")

	// ErrMissingFields is returned by CreateStudent when a required field
	// is empty.
	ErrMissingFields = errors.New("resources: missing required fields")
)

// MissingFields returns the API names of the required fields st leaves
// empty.
func MissingFields(st remote.NewStudent) []string {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", st.FirstName},
		{"last_name", st.LastName},
		{"student_code", st.StudentCode},
		{"email", st.Email},
		{"career", st.Career},
		{"semester", st.Semester},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Review records decision for justification id and refreshes the
// justifications and dashboard resources.
func (s *Set) Review(ctx context.Context, id, adminID int, decision string) error {
	var err error
	switch decision {
	case DecisionApproved:
		err = s.api.ApproveJustification(ctx, id, adminID)
	case DecisionRejected:
		err = s.api.RejectJustification(ctx, id, adminID)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}
	if err != nil {
		return fmt.Errorf("reviewing justification %d: %w", id, err)
	}

	s.logger.Info("justification reviewed", zap.Int("id", id), zap.String("decision", decision))
	s.refresh(ctx, datacache.KeyJustifications, datacache.KeyDashboard)
	return nil
}

// Approve is Review with DecisionApproved.
func (s *Set) Approve(ctx context.Context, id, adminID int) error {
	return s.Review(ctx, id, adminID, DecisionApproved)
}

// Reject is Review with DecisionRejected.
func (s *Set) Reject(ctx context.Context, id, adminID int) error {
	return s.Review(ctx, id, adminID, DecisionRejected)
}

// CreateStudent registers a student and refreshes the students and
// dashboard resources. A student with empty required fields is rejected
// with ErrMissingFields before reaching the API.
func (s *Set) CreateStudent(ctx context.Context, st remote.NewStudent) error {
	if missing := MissingFields(st); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if err := s.api.CreateStudent(ctx, st); err != nil {
		return fmt.Errorf("creating student %s: %w", st.StudentCode, err)
	}
	s.refresh(ctx, datacache.KeyStudents, datacache.KeyDashboard)
	return nil
}

// UpdateStudent replaces the details of student id and refreshes the
// students and dashboard resources.
func (s *Set) UpdateStudent(ctx context.Context, id int, st remote.NewStudent) error {
	if err := s.api.UpdateStudent(ctx, id, st); err != nil {
		return fmt.Errorf("updating student %d: %w", id, err)
	}
	s.refresh(ctx, datacache.KeyStudents, datacache.KeyDashboard)
	return nil
}

// DeleteStudent deactivates a student and refreshes the students and
// dashboard resources.
func (s *Set) DeleteStudent(ctx context.Context, id int) error {
	if err := s.api.DeleteStudent(ctx, id); err != nil {
		return fmt.Errorf("deleting student %d: %w", id, err)
	}
	s.refresh(ctx, datacache.KeyStudents, datacache.KeyDashboard)
	return nil
}

// RestoreStudent reactivates a student and refreshes the students and
// dashboard resources.
func (s *Set) RestoreStudent(ctx context.Context, id int) error {
	if err := s.api.RestoreStudent(ctx, id); err != nil {
		return fmt.Errorf("restoring student %d: %w", id, err)
	}
	s.refresh(ctx, datacache.KeyStudents, datacache.KeyDashboard)
	return nil
}

// ImportStudents creates students in bulk. A bulk import can touch any
// view, so every entry is invalidated before the bound resources refresh.
func (s *Set) ImportStudents(ctx context.Context, students []remote.NewStudent) error {
	if len(students) == 0 {
		return nil
	}
	if err := s.api.ImportStudents(ctx, students); err != nil {
		return fmt.Errorf("importing %d students: %w", len(students), err)
	}
	s.store.InvalidateAll()
	s.refresh(ctx, s.Bound()...)
	return nil
}
