package course

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiumhq/studium/core"
	"github.com/studiumhq/studium/core/user"
)

type fakeCourseRepo struct {
	courses    map[string]Course
	enrollment map[string][]string // courseID -> studentIDs
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{
		courses:    make(map[string]Course),
		enrollment: make(map[string][]string),
	}
}

func (r *fakeCourseRepo) CreateCourse(ctx context.Context, crs Course) (Course, error) {
	crs.ID = uuid.New().String()
	r.courses[crs.ID] = crs
	return crs, nil
}

func (r *fakeCourseRepo) GetCourse(ctx context.Context, filter GetFilter) (Course, error) {
	for _, crs := range r.courses {
		if (filter.ID != "" && crs.ID == filter.ID) ||
			(filter.PinCode != "" && crs.PinCode == filter.PinCode) {
			return crs, nil
		}
	}
	return Course{}, ErrNotFound
}

func (r *fakeCourseRepo) QueryAllCourses(ctx context.Context, ordering []core.DBOrdering) ([]Course, error) {
	all := make([]Course, 0, len(r.courses))
	for _, crs := range r.courses {
		all = append(all, crs)
	}
	return all, nil
}

func (r *fakeCourseRepo) QueryCoursesByOwner(ctx context.Context, ownerID string) ([]Course, error) {
	var res []Course
	for _, crs := range r.courses {
		if crs.OwnerID == ownerID {
			res = append(res, crs)
		}
	}
	return res, nil
}

func (r *fakeCourseRepo) QueryCoursesByStudent(ctx context.Context, studentID string) ([]Course, error) {
	var res []Course
	for courseID, students := range r.enrollment {
		for _, sid := range students {
			if sid == studentID {
				res = append(res, r.courses[courseID])
			}
		}
	}
	return res, nil
}

func (r *fakeCourseRepo) UpdateCourse(ctx context.Context, crs Course) (Course, error) {
	if _, ok := r.courses[crs.ID]; !ok {
		return Course{}, ErrNotFound
	}
	r.courses[crs.ID] = crs
	return crs, nil
}

func (r *fakeCourseRepo) DeleteCourse(ctx context.Context, id string) error {
	delete(r.courses, id)
	delete(r.enrollment, id)
	return nil
}

func (r *fakeCourseRepo) EnrollStudent(ctx context.Context, courseID, studentID string) error {
	for _, sid := range r.enrollment[courseID] {
		if sid == studentID {
			return nil
		}
	}
	r.enrollment[courseID] = append(r.enrollment[courseID], studentID)
	return nil
}

func (r *fakeCourseRepo) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	students := r.enrollment[courseID]
	for i, sid := range students {
		if sid == studentID {
			r.enrollment[courseID] = append(students[:i], students[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeCourseRepo) ListStudents(ctx context.Context, courseID string) ([]user.User, error) {
	students := make([]user.User, 0, len(r.enrollment[courseID]))
	for _, sid := range r.enrollment[courseID] {
		students = append(students, user.User{ID: sid, Role: user.RoleStudent})
	}
	return students, nil
}

func TestGeneratePin(t *testing.T) {
	format := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pin := GeneratePin()
		assert.Regexp(t, format, pin)
		seen[pin] = true
	}
	// 100 draws from a 36^6 space should not all collide
	assert.Greater(t, len(seen), 1)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCourseRepo()
	svc := NewService(repo)

	crs, err := svc.Create(ctx, "prof-id", NewCourse{Title: "Algebra I", Description: "Linear algebra basics"})
	require.NoError(t, err)
	assert.NotEmpty(t, crs.ID)
	assert.Equal(t, "prof-id", crs.OwnerID)
	assert.Len(t, crs.PinCode, 6)
	assert.WithinDuration(t, time.Now().UTC(), crs.CreatedAt, time.Minute)
}

func TestService_ChangePin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCourseRepo()
	svc := NewService(repo)

	crs, err := svc.Create(ctx, "prof-id", NewCourse{Title: "Algebra I", Description: "desc"})
	require.NoError(t, err)

	oldPin := crs.PinCode
	updated, err := svc.ChangePin(ctx, crs.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldPin, updated.PinCode)
	assert.Len(t, updated.PinCode, 6)

	// the old pin no longer resolves
	_, err = svc.EnrollWithPin(ctx, user.User{ID: "s1", Role: user.RoleStudent}, oldPin)
	assert.Equal(t, ErrPinNotFound, errors.Cause(err))
}

func TestService_EnrollWithPin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCourseRepo()
	svc := NewService(repo)

	crs, err := svc.Create(ctx, "prof-id", NewCourse{Title: "Algebra I", Description: "desc"})
	require.NoError(t, err)

	student := user.User{ID: "student-id", Role: user.RoleStudent}

	t.Run("unknown pin", func(t *testing.T) {
		_, err := svc.EnrollWithPin(ctx, student, "ZZZZZZ")
		assert.Equal(t, ErrPinNotFound, errors.Cause(err))
	})

	t.Run("professors cannot enroll", func(t *testing.T) {
		prof := user.User{ID: "prof-id", Role: user.RoleProfessor}
		_, err := svc.EnrollWithPin(ctx, prof, crs.PinCode)
		assert.Equal(t, ErrOnlyStudents, errors.Cause(err))
	})

	t.Run("valid pin enrolls", func(t *testing.T) {
		got, err := svc.EnrollWithPin(ctx, student, crs.PinCode)
		require.NoError(t, err)
		assert.Equal(t, crs.ID, got.ID)

		enrolled, err := svc.QueryEnrolled(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, enrolled, 1)
		assert.Equal(t, crs.ID, enrolled[0].ID)
	})

	t.Run("enrolling twice is a no-op", func(t *testing.T) {
		_, err := svc.EnrollWithPin(ctx, student, crs.PinCode)
		require.NoError(t, err)

		students, err := svc.ListStudents(ctx, crs.ID)
		require.NoError(t, err)
		assert.Len(t, students, 1)
	})
}

func TestService_RemoveStudent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCourseRepo()
	svc := NewService(repo)

	crs, err := svc.Create(ctx, "prof-id", NewCourse{Title: "Algebra I", Description: "desc"})
	require.NoError(t, err)

	student := user.User{ID: "student-id", Role: user.RoleStudent}
	require.NoError(t, svc.EnrollStudent(ctx, crs, student))

	require.NoError(t, svc.RemoveStudent(ctx, crs, student.ID))

	students, err := svc.ListStudents(ctx, crs.ID)
	require.NoError(t, err)
	assert.Empty(t, students)
}
