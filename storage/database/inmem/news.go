package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/studiumhq/studium/core/news"
)

type newsRepository struct {
	db      *newsTable
	users   *userTable
	courses *courseTable
}

var _ news.Repository = (*newsRepository)(nil)

func NewNewsRepository(db *DB) *newsRepository {
	return &newsRepository{db: db.news, users: db.user, courses: db.course}
}

// AddTag registers a tag so it can be attached to news. Test seeding helper.
func (repo *newsRepository) AddTag(name string) news.Tag {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tag := news.Tag{ID: uuid.New().String(), Name: name}
	repo.db.tags[tag.ID] = tag
	return tag
}

func (repo *newsRepository) CreateNews(ctx context.Context, n *news.News, tagIDs []string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	n.ID = uuid.New().String()
	n.CreatedAt = now
	n.UpdatedAt = now
	n.Tags = repo.resolveTags(tagIDs)
	repo.annotate(n)
	repo.db.table[n.ID] = n
	return nil
}

func (repo *newsRepository) GetNews(ctx context.Context, id string) (news.News, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return news.News{}, news.ErrNotFound
}

func (repo *newsRepository) QueryNewsByCourse(ctx context.Context, courseID string) ([]news.News, error) {
	return repo.QueryNewsByCourses(ctx, []string{courseID})
}

func (repo *newsRepository) QueryNewsByCourses(ctx context.Context, courseIDs []string) ([]news.News, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}

	var items []news.News
	for _, n := range repo.db.table {
		if wanted[n.CourseID] {
			items = append(items, *n)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (repo *newsRepository) UpdateNews(ctx context.Context, n news.News, tagIDs *[]string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[n.ID]
	if !ok {
		return news.ErrNotFound
	}
	orig.Title = n.Title
	orig.Content = n.Content
	orig.UpdatedAt = time.Now().UTC()
	if tagIDs != nil {
		orig.Tags = repo.resolveTags(*tagIDs)
	}
	return nil
}

func (repo *newsRepository) DeleteNews(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.table, id)
	return nil
}

func (repo *newsRepository) QueryAllTags(ctx context.Context) ([]news.Tag, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tags := make([]news.Tag, 0, len(repo.db.tags))
	for _, tag := range repo.db.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (repo *newsRepository) resolveTags(tagIDs []string) []news.Tag {
	var tags []news.Tag
	for _, id := range tagIDs {
		if tag, ok := repo.db.tags[id]; ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (repo *newsRepository) annotate(n *news.News) {
	repo.users.mutex.RLock()
	if usr, ok := repo.users.table[n.AuthorID]; ok {
		n.AuthorName = usr.Name
	}
	repo.users.mutex.RUnlock()

	repo.courses.mutex.RLock()
	if crs, ok := repo.courses.table[n.CourseID]; ok {
		n.CourseTitle = crs.Title
	}
	repo.courses.mutex.RUnlock()
}
