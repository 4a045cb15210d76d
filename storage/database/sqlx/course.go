package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/studiumhq/studium/core"
	"github.com/studiumhq/studium/core/course"
	"github.com/studiumhq/studium/core/user"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

const courseColumns = `id, title, description, owner_id, pin_code, created_at, updated_at`

type dbCourse struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	OwnerID     string    `db:"owner_id"`
	PinCode     string    `db:"pin_code"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (dc dbCourse) toCourse() course.Course {
	return course.Course{
		ID:          dc.ID,
		Title:       dc.Title,
		Description: dc.Description,
		OwnerID:     dc.OwnerID,
		PinCode:     dc.PinCode,
		CreatedAt:   dc.CreatedAt.UTC(),
		UpdatedAt:   dc.UpdatedAt.UTC(),
	}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `
	INSERT INTO course (title, description, owner_id, pin_code, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + courseColumns
	var dc dbCourse
	err := repo.db.GetContext(ctx, &dc, q,
		crs.Title, crs.Description, crs.OwnerID, crs.PinCode, crs.CreatedAt, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return dc.toCourse(), nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM course WHERE `
	var arg interface{}
	switch {
	case filter.ID != "":
		q += `id = $1`
		arg = filter.ID
	case filter.PinCode != "":
		q += `pin_code = $1`
		arg = filter.PinCode
	default:
		return course.Course{}, course.ErrNotFound
	}

	var dc dbCourse
	if err := repo.db.GetContext(ctx, &dc, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return dc.toCourse(), nil
}

// orderableCourseColumns are the columns the `ordering` query param may sort by.
var orderableCourseColumns = map[string]struct{}{
	"title":      {},
	"created_at": {},
	"updated_at": {},
}

func courseOrderBy(ordering []core.DBOrdering) string {
	var terms []string
	for _, ord := range ordering {
		if _, ok := orderableCourseColumns[ord.Field]; ok {
			terms = append(terms, ord.String())
		}
	}
	if len(terms) == 0 {
		return "created_at DESC"
	}
	return strings.Join(terms, ", ")
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context, ordering []core.DBOrdering) ([]course.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM course ORDER BY ` + courseOrderBy(ordering)
	var dcs []dbCourse
	if err := repo.db.SelectContext(ctx, &dcs, q); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return toCourses(dcs), nil
}

func (repo *courseRepository) QueryCoursesByOwner(ctx context.Context, ownerID string) ([]course.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM course WHERE owner_id = $1 ORDER BY created_at DESC`
	var dcs []dbCourse
	if err := repo.db.SelectContext(ctx, &dcs, q, ownerID); err != nil {
		return nil, errors.Wrap(err, "querying courses by owner")
	}
	return toCourses(dcs), nil
}

func (repo *courseRepository) QueryCoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	q := `
	SELECT c.id, c.title, c.description, c.owner_id, c.pin_code, c.created_at, c.updated_at
	FROM course c
	JOIN course_user cu ON cu.course_id = c.id
	WHERE cu.user_id = $1
	ORDER BY c.created_at DESC`
	var dcs []dbCourse
	if err := repo.db.SelectContext(ctx, &dcs, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying courses by student")
	}
	return toCourses(dcs), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `
	UPDATE course
	SET title = $2, description = $3, pin_code = $4, updated_at = $5
	WHERE id = $1
	RETURNING ` + courseColumns
	var dc dbCourse
	err := repo.db.GetContext(ctx, &dc, q, crs.ID, crs.Title, crs.Description, crs.PinCode, crs.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return dc.toCourse(), nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

func (repo *courseRepository) EnrollStudent(ctx context.Context, courseID, studentID string) error {
	q := `INSERT INTO course_user (course_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, q, courseID, studentID); err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return nil
}

func (repo *courseRepository) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	q := `DELETE FROM course_user WHERE course_id = $1 AND user_id = $2`
	if _, err := repo.db.ExecContext(ctx, q, courseID, studentID); err != nil {
		return errors.Wrap(err, "removing student")
	}
	return nil
}

func (repo *courseRepository) ListStudents(ctx context.Context, courseID string) ([]user.User, error) {
	q := `
	SELECT u.id, u.name, u.email, u.role, u.is_active, u.password_hash, u.face_embedding,
	       u.created_at, u.updated_at, u.last_login
	FROM "user" u
	JOIN course_user cu ON cu.user_id = u.id
	WHERE cu.course_id = $1
	ORDER BY u.name`
	var dus []dbUser
	if err := repo.db.SelectContext(ctx, &dus, q, courseID); err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	return toUsers(dus)
}

func toCourses(dcs []dbCourse) []course.Course {
	courses := make([]course.Course, 0, len(dcs))
	for _, dc := range dcs {
		courses = append(courses, dc.toCourse())
	}
	return courses
}
