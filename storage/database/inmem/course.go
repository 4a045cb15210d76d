package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/studiumhq/studium/core"
	"github.com/studiumhq/studium/core/course"
	"github.com/studiumhq/studium/core/user"
)

type courseRepository struct {
	db    *courseTable
	users *userTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course, users: db.user}
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, crs := range repo.db.table {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs.ID = uuid.New().String()
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, crs := range repo.db.table {
		if (filter.ID != "" && crs.ID == filter.ID) ||
			(filter.PinCode != "" && crs.PinCode == filter.PinCode) {
			return *crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := repo.query()
	orderCourses(courses, ordering)
	return courses, nil
}

// orderCourses sorts in place per the given ordering terms. Unknown fields
// are ignored; without any valid term the newest-first order from query() stands.
func orderCourses(courses []course.Course, ordering []core.DBOrdering) {
	less := func(a, b course.Course, ord core.DBOrdering) (bool, bool) {
		switch ord.Field {
		case "title":
			if a.Title != b.Title {
				return (a.Title < b.Title) == ord.Ascending, true
			}
		case "created_at":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt) == ord.Ascending, true
			}
		case "updated_at":
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt) == ord.Ascending, true
			}
		}
		return false, false
	}

	valid := false
	for _, ord := range ordering {
		switch ord.Field {
		case "title", "created_at", "updated_at":
			valid = true
		}
	}
	if !valid {
		return
	}

	sort.SliceStable(courses, func(i, j int) bool {
		for _, ord := range ordering {
			if res, decided := less(courses[i], courses[j], ord); decided {
				return res
			}
		}
		return false
	})
}

func (repo *courseRepository) QueryCoursesByOwner(ctx context.Context, ownerID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var courses []course.Course
	for _, crs := range repo.query() {
		if crs.OwnerID == ownerID {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) QueryCoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var courses []course.Course
	for _, crs := range repo.query() {
		if repo.db.enrollment[crs.ID][studentID] {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.table, id)
	delete(repo.db.enrollment, id)
	return nil
}

func (repo *courseRepository) EnrollStudent(ctx context.Context, courseID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[courseID]; !ok {
		return course.ErrNotFound
	}
	if repo.db.enrollment[courseID] == nil {
		repo.db.enrollment[courseID] = make(map[string]bool)
	}
	repo.db.enrollment[courseID][studentID] = true
	return nil
}

func (repo *courseRepository) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.enrollment[courseID], studentID)
	return nil
}

func (repo *courseRepository) ListStudents(ctx context.Context, courseID string) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	repo.users.mutex.RLock()
	defer repo.users.mutex.RUnlock()

	students := make([]user.User, 0, len(repo.db.enrollment[courseID]))
	for studentID := range repo.db.enrollment[courseID] {
		if usr, ok := repo.users.table[studentID]; ok {
			students = append(students, *usr)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}
