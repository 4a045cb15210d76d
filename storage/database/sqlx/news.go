package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/studiumhq/studium/core/news"
)

type newsRepository struct {
	db *sqlx.DB
}

var _ news.Repository = (*newsRepository)(nil)

func NewNewsRepository(db *sqlx.DB) *newsRepository {
	return &newsRepository{db: db}
}

type dbNews struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Content     string    `db:"content"`
	AuthorID    string    `db:"author_id"`
	CourseID    string    `db:"course_id"`
	AuthorName  string    `db:"author_name"`
	CourseTitle string    `db:"course_title"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (dn dbNews) toNews() news.News {
	return news.News{
		ID:          dn.ID,
		Title:       dn.Title,
		Content:     dn.Content,
		AuthorID:    dn.AuthorID,
		CourseID:    dn.CourseID,
		AuthorName:  dn.AuthorName,
		CourseTitle: dn.CourseTitle,
		CreatedAt:   dn.CreatedAt.UTC(),
		UpdatedAt:   dn.UpdatedAt.UTC(),
	}
}

const newsSelect = `
	SELECT n.id, n.title, n.content, n.author_id, n.course_id,
	       u.name AS author_name, c.title AS course_title,
	       n.created_at, n.updated_at
	FROM news n
	JOIN "user" u ON u.id = n.author_id
	JOIN course c ON c.id = n.course_id`

func (repo *newsRepository) CreateNews(ctx context.Context, n *news.News, tagIDs []string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting tx")
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	INSERT INTO news (title, content, author_id, course_id)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at`
	if err = tx.QueryRowxContext(ctx, q, n.Title, n.Content, n.AuthorID, n.CourseID).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return errors.Wrap(err, "creating news")
	}

	if err = setNewsTags(ctx, tx, n.ID, tagIDs); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing tx")
	}

	n.Tags, err = repo.queryTagsFor(ctx, n.ID)
	return err
}

func (repo *newsRepository) GetNews(ctx context.Context, id string) (news.News, error) {
	var dn dbNews
	if err := repo.db.GetContext(ctx, &dn, newsSelect+` WHERE n.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return news.News{}, news.ErrNotFound
		}
		return news.News{}, errors.Wrap(err, "getting news")
	}
	n := dn.toNews()

	var err error
	n.Tags, err = repo.queryTagsFor(ctx, n.ID)
	return n, err
}

func (repo *newsRepository) QueryNewsByCourse(ctx context.Context, courseID string) ([]news.News, error) {
	return repo.queryNews(ctx, newsSelect+` WHERE n.course_id = $1 ORDER BY n.created_at DESC`, courseID)
}

func (repo *newsRepository) QueryNewsByCourses(ctx context.Context, courseIDs []string) ([]news.News, error) {
	if len(courseIDs) == 0 {
		return []news.News{}, nil
	}
	q, args, err := sqlx.In(newsSelect+` WHERE n.course_id IN (?) ORDER BY n.created_at DESC`, courseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return repo.queryNews(ctx, repo.db.Rebind(q), args...)
}

func (repo *newsRepository) UpdateNews(ctx context.Context, n news.News, tagIDs *[]string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting tx")
	}
	defer func() { _ = tx.Rollback() }()

	q := `UPDATE news SET title = $2, content = $3, updated_at = NOW() WHERE id = $1`
	res, err := tx.ExecContext(ctx, q, n.ID, n.Title, n.Content)
	if err != nil {
		return errors.Wrap(err, "updating news")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return news.ErrNotFound
	}

	if tagIDs != nil {
		if _, err = tx.ExecContext(ctx, `DELETE FROM news_tag WHERE news_id = $1`, n.ID); err != nil {
			return errors.Wrap(err, "clearing news tags")
		}
		if err = setNewsTags(ctx, tx, n.ID, *tagIDs); err != nil {
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "committing tx")
}

func (repo *newsRepository) DeleteNews(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting news")
	}
	return nil
}

func (repo *newsRepository) QueryAllTags(ctx context.Context) ([]news.Tag, error) {
	var tags []news.Tag
	if err := repo.db.SelectContext(ctx, &tags, `SELECT id, name FROM tag ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying tags")
	}
	return tags, nil
}

func (repo *newsRepository) queryNews(ctx context.Context, q string, args ...interface{}) ([]news.News, error) {
	var dns []dbNews
	if err := repo.db.SelectContext(ctx, &dns, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying news")
	}

	items := make([]news.News, 0, len(dns))
	for _, dn := range dns {
		n := dn.toNews()
		tags, err := repo.queryTagsFor(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		n.Tags = tags
		items = append(items, n)
	}
	return items, nil
}

func (repo *newsRepository) queryTagsFor(ctx context.Context, newsID string) ([]news.Tag, error) {
	q := `
	SELECT t.id, t.name
	FROM tag t
	JOIN news_tag nt ON nt.tag_id = t.id
	WHERE nt.news_id = $1
	ORDER BY t.name`
	var tags []news.Tag
	if err := repo.db.SelectContext(ctx, &tags, q, newsID); err != nil {
		return nil, errors.Wrap(err, "querying news tags")
	}
	return tags, nil
}

func setNewsTags(ctx context.Context, tx *sqlx.Tx, newsID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		q := `INSERT INTO news_tag (news_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, q, newsID, tagID); err != nil {
			return errors.Wrap(err, "tagging news")
		}
	}
	return nil
}
