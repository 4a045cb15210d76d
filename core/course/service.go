package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/studiumhq/studium/core"
	"github.com/studiumhq/studium/core/user"
)

var (
	ErrNotFound     = errors.New("course not found")
	ErrPinNotFound  = errors.New("course with this PIN not found")
	ErrOnlyStudents = errors.New(`only users with the role "student" can be enrolled`)
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, filter GetFilter) (Course, error)
		// QueryAllCourses returns all courses, newest first unless an ordering
		// is given. Unknown ordering fields are ignored.
		QueryAllCourses(ctx context.Context, ordering []core.DBOrdering) ([]Course, error)
		QueryCoursesByOwner(ctx context.Context, ownerID string) ([]Course, error)
		QueryCoursesByStudent(ctx context.Context, studentID string) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
		// EnrollStudent is idempotent: enrolling an already-enrolled student is a no-op.
		EnrollStudent(ctx context.Context, courseID, studentID string) error
		RemoveStudent(ctx context.Context, courseID, studentID string) error
		ListStudents(ctx context.Context, courseID string) ([]user.User, error)
	}

	Service interface {
		Create(ctx context.Context, ownerID string, nc NewCourse) (Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Course, error)
		QueryTaught(ctx context.Context, ownerID string) ([]Course, error)
		QueryEnrolled(ctx context.Context, studentID string) ([]Course, error)
		Update(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		ChangePin(ctx context.Context, id string) (Course, error)
		Delete(ctx context.Context, id string) error
		EnrollWithPin(ctx context.Context, student user.User, pin string) (Course, error)
		EnrollStudent(ctx context.Context, crs Course, student user.User) error
		RemoveStudent(ctx context.Context, crs Course, studentID string) error
		ListStudents(ctx context.Context, courseID string) ([]user.User, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ownerID string, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:       nc.Title,
		Description: nc.Description,
		OwnerID:     ownerID,
		PinCode:     GeneratePin(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

func (svc *service) QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx, ordering)
}

func (svc *service) QueryTaught(ctx context.Context, ownerID string) ([]Course, error) {
	return svc.repo.QueryCoursesByOwner(ctx, ownerID)
}

func (svc *service) QueryEnrolled(ctx context.Context, studentID string) ([]Course, error) {
	return svc.repo.QueryCoursesByStudent(ctx, studentID)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, GetFilter{ID: id})
	if err != nil {
		return Course{}, err
	}
	crs.Title = uc.Title
	crs.Description = uc.Description
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) ChangePin(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, GetFilter{ID: id})
	if err != nil {
		return Course{}, err
	}
	crs.PinCode = GeneratePin()
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

// EnrollWithPin enrolls a student into the course matching the submitted PIN.
// Enrolling twice is a no-op.
func (svc *service) EnrollWithPin(ctx context.Context, student user.User, pin string) (Course, error) {
	if !student.IsStudent() {
		return Course{}, ErrOnlyStudents
	}
	crs, err := svc.repo.GetCourse(ctx, GetFilter{PinCode: pin})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Course{}, ErrPinNotFound
		}
		return Course{}, err
	}
	if err := svc.repo.EnrollStudent(ctx, crs.ID, student.ID); err != nil {
		return Course{}, errors.Wrap(err, "enrolling student")
	}
	return crs, nil
}

func (svc *service) EnrollStudent(ctx context.Context, crs Course, student user.User) error {
	if !student.IsStudent() {
		return ErrOnlyStudents
	}
	return svc.repo.EnrollStudent(ctx, crs.ID, student.ID)
}

func (svc *service) RemoveStudent(ctx context.Context, crs Course, studentID string) error {
	return svc.repo.RemoveStudent(ctx, crs.ID, studentID)
}

func (svc *service) ListStudents(ctx context.Context, courseID string) ([]user.User, error) {
	return svc.repo.ListStudents(ctx, courseID)
}
