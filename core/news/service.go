package news

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("news not found")

type (
	Repository interface {
		CreateNews(ctx context.Context, n *News, tagIDs []string) error
		GetNews(ctx context.Context, id string) (News, error)
		QueryNewsByCourse(ctx context.Context, courseID string) ([]News, error)
		QueryNewsByCourses(ctx context.Context, courseIDs []string) ([]News, error)
		UpdateNews(ctx context.Context, n News, tagIDs *[]string) error
		DeleteNews(ctx context.Context, id string) error
		QueryAllTags(ctx context.Context) ([]Tag, error)
	}

	Service interface {
		Create(ctx context.Context, nn NewNews, authorID string) (News, error)
		GetByID(ctx context.Context, id string) (News, error)
		QueryByCourse(ctx context.Context, courseID string) ([]News, error)
		// Announcements returns the news feed across all given courses,
		// newest first, with course titles attached.
		Announcements(ctx context.Context, courseIDs []string) ([]News, error)
		Update(ctx context.Context, n News, un UpdateNews) (News, error)
		Delete(ctx context.Context, id string) error
		QueryTags(ctx context.Context) ([]Tag, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, nn NewNews, authorID string) (News, error) {
	n := News{
		Title:    nn.Title,
		Content:  nn.Content,
		AuthorID: authorID,
		CourseID: nn.CourseID,
	}
	if err := s.repo.CreateNews(ctx, &n, nn.TagIDs); err != nil {
		return News{}, errors.Wrap(err, "creating news")
	}
	return n, nil
}

func (s *service) GetByID(ctx context.Context, id string) (News, error) {
	return s.repo.GetNews(ctx, id)
}

func (s *service) QueryByCourse(ctx context.Context, courseID string) ([]News, error) {
	return s.repo.QueryNewsByCourse(ctx, courseID)
}

func (s *service) Announcements(ctx context.Context, courseIDs []string) ([]News, error) {
	if len(courseIDs) == 0 {
		return []News{}, nil
	}
	return s.repo.QueryNewsByCourses(ctx, courseIDs)
}

func (s *service) Update(ctx context.Context, n News, un UpdateNews) (News, error) {
	n.Title = un.Title
	n.Content = un.Content
	if err := s.repo.UpdateNews(ctx, n, un.TagIDs); err != nil {
		return News{}, errors.Wrap(err, "updating news")
	}
	return s.repo.GetNews(ctx, n.ID)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteNews(ctx, id)
}

func (s *service) QueryTags(ctx context.Context) ([]Tag, error) {
	return s.repo.QueryAllTags(ctx)
}
