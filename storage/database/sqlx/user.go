package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studiumhq/studium/core/biometric"
	"github.com/studiumhq/studium/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var (
	_ user.Repository              = (*userRepository)(nil)
	_ biometric.TemplateRepository = (*userRepository)(nil)
)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// dbUser maps a "user" row. face_embedding is stored as a JSON array so
// templates of any dimensionality live side by side.
type dbUser struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	Role         string      `db:"role"`
	IsActive     bool        `db:"is_active"`
	PasswordHash null.Bytes  `db:"password_hash"`
	FaceTemplate null.JSON   `db:"face_embedding"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (du dbUser) toUser() (user.User, error) {
	usr := user.User{
		ID:           du.ID,
		Name:         du.Name,
		Email:        du.Email,
		Role:         du.Role,
		PasswordHash: du.PasswordHash.Bytes,
		CreatedAt:    du.CreatedAt.UTC(),
		UpdatedAt:    du.UpdatedAt.UTC(),
		LastLogin:    du.LastLogin.Time.UTC(),
	}
	usr.SetActive(du.IsActive)
	if du.FaceTemplate.Valid {
		if err := json.Unmarshal(du.FaceTemplate.JSON, &usr.Template); err != nil {
			return user.User{}, errors.Wrapf(err, "decoding face template for user %s", du.ID)
		}
	}
	return usr, nil
}

func templateJSON(tpl biometric.Embedding) (null.JSON, error) {
	if len(tpl) == 0 {
		return null.JSON{}, nil
	}
	raw, err := json.Marshal(tpl)
	if err != nil {
		return null.JSON{}, errors.Wrap(err, "encoding face template")
	}
	return null.JSONFrom(raw), nil
}

const userColumns = `id, name, email, role, is_active, password_hash, face_embedding, created_at, updated_at, last_login`

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := `SELECT COUNT(*) FROM "user" WHERE email = $1`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		var err error
		q, args, err = sqlx.In(`SELECT COUNT(*) FROM "user" WHERE email = ? AND id NOT IN (?)`, email, ids)
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		q = repo.db.Rebind(q)
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	tpl, err := templateJSON(usr.Template)
	if err != nil {
		return user.User{}, err
	}

	q := `
	INSERT INTO "user" (name, email, role, is_active, password_hash, face_embedding, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING ` + userColumns
	var du dbUser
	err = repo.db.GetContext(ctx, &du, q,
		usr.Name, usr.Email, usr.Role, usr.Active(), null.BytesFrom(usr.PasswordHash), tpl, usr.CreatedAt, usr.UpdatedAt)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return du.toUser()
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	q := `SELECT ` + userColumns + ` FROM "user" ORDER BY created_at DESC`
	var dus []dbUser
	if err := repo.db.SelectContext(ctx, &dus, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return toUsers(dus)
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := `SELECT ` + userColumns + ` FROM "user" WHERE `
	var arg interface{}
	switch {
	case filter.ID != "":
		q += `id = $1`
		arg = filter.ID
	case filter.Email != "":
		q += `email = $1`
		arg = filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}

	var du dbUser
	if err := repo.db.GetContext(ctx, &du, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return du.toUser()
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	tpl, err := templateJSON(usr.Template)
	if err != nil {
		return user.User{}, err
	}

	lastLogin := null.Time{}
	if !usr.LastLogin.IsZero() {
		lastLogin = null.TimeFrom(usr.LastLogin)
	}

	q := `
	UPDATE "user"
	SET name = $2, email = $3, role = $4, is_active = $5, password_hash = $6, face_embedding = $7,
	    updated_at = $8, last_login = $9
	WHERE id = $1
	RETURNING ` + userColumns
	var du dbUser
	err = repo.db.GetContext(ctx, &du, q,
		usr.ID, usr.Name, usr.Email, usr.Role, usr.Active(), null.BytesFrom(usr.PasswordHash), tpl,
		usr.UpdatedAt, lastLogin)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return du.toUser()
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

// SetTemplate stores usr's face template, replacing any previous one.
func (repo *userRepository) SetTemplate(ctx context.Context, userID string, tpl biometric.Embedding) error {
	raw, err := templateJSON(tpl)
	if err != nil {
		return err
	}
	res, err := repo.db.ExecContext(ctx,
		`UPDATE "user" SET face_embedding = $2, updated_at = NOW() WHERE id = $1`, userID, raw)
	if err != nil {
		return errors.Wrap(err, "storing face template")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

// ListEnrolled returns the templates of all active users with a face template.
func (repo *userRepository) ListEnrolled(ctx context.Context) ([]biometric.Enrollment, error) {
	q := `SELECT id, face_embedding FROM "user" WHERE face_embedding IS NOT NULL AND is_active ORDER BY id`
	rows, err := repo.db.QueryxContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "listing enrolled users")
	}
	defer func() { _ = rows.Close() }()

	var enrolled []biometric.Enrollment
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err = rows.Scan(&id, &raw); err != nil {
			return nil, errors.Wrap(err, "listing enrolled users")
		}
		var tpl biometric.Embedding
		if err = json.Unmarshal(raw, &tpl); err != nil {
			return nil, errors.Wrapf(err, "decoding face template for user %s", id)
		}
		enrolled = append(enrolled, biometric.Enrollment{UserID: id, Template: tpl})
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "listing enrolled users")
	}
	return enrolled, nil
}

func toUsers(dus []dbUser) ([]user.User, error) {
	users := make([]user.User, 0, len(dus))
	for _, du := range dus {
		usr, err := du.toUser()
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}
