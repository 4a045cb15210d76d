package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studiumhq/studium/core/course"
	"github.com/studiumhq/studium/core/news"
	"github.com/studiumhq/studium/core/user"
)

type newsApi struct {
	svc       news.Service
	courseSvc course.Service
	usrSvc    user.Service
	validate  *validator.Validate
}

func registerNewsAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := newsApi{
		svc:       deps.NewsSvc,
		courseSvc: deps.CourseSvc,
		usrSvc:    deps.UserSvc,
		validate:  deps.Validate,
	}

	g.GET("/tags", api.queryTags, jwt)
	g.GET("/announcements", api.announcements, jwt)
	g.GET("/courses/:id/news", api.queryByCourse, jwt)

	ng := g.Group("/news", jwt)
	ng.POST("", api.create, professorMiddleware())
	ng.GET("/:id", api.retrieve)
	ng.PUT("/:id", api.update, professorMiddleware())
	ng.DELETE("/:id", api.destroy, professorMiddleware())
}

// Handlers

func (api *newsApi) create(ctx echo.Context) error {
	var data news.NewNews
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNews")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// only the course professor may post news on it
	crs, err := api.courseSvc.GetByID(ctx.Request().Context(), data.CourseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}
	if crs.OwnerID != ctxUsr.ID {
		return errHttpForbidden
	}

	n, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "creating news")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *newsApi) retrieve(ctx echo.Context) error {
	n, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == news.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding news by ID")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *newsApi) update(ctx echo.Context) error {
	n, err := api.getOwnNews(ctx)
	if err != nil {
		return err
	}

	var data news.UpdateNews
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNews")
	}
	if err := data.Validate(n, api.validate); err != nil {
		return err
	}

	n, err = api.svc.Update(ctx.Request().Context(), n, data)
	if err != nil {
		return errors.Wrap(err, "updating news")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *newsApi) destroy(ctx echo.Context) error {
	n, err := api.getOwnNews(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), n.ID); err != nil {
		return errors.Wrap(err, "deleting news")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *newsApi) queryByCourse(ctx echo.Context) error {
	if _, err := api.courseSvc.GetByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}

	items, err := api.svc.QueryByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying course news")
	}
	if items == nil {
		items = []news.News{}
	}
	return ctx.JSON(http.StatusOK, items)
}

// announcements returns the news feed across the user's taught or enrolled courses.
func (api *newsApi) announcements(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var courses []course.Course
	if ctxUsr.IsProfessor() {
		courses, err = api.courseSvc.QueryTaught(ctx.Request().Context(), ctxUsr.ID)
	} else {
		courses, err = api.courseSvc.QueryEnrolled(ctx.Request().Context(), ctxUsr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "querying user courses")
	}

	courseIDs := make([]string, 0, len(courses))
	for _, crs := range courses {
		courseIDs = append(courseIDs, crs.ID)
	}

	items, err := api.svc.Announcements(ctx.Request().Context(), courseIDs)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if items == nil {
		items = []news.News{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *newsApi) queryTags(ctx echo.Context) error {
	tags, err := api.svc.QueryTags(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying tags")
	}
	if tags == nil {
		tags = []news.Tag{}
	}
	return ctx.JSON(http.StatusOK, tags)
}

// getOwnNews loads the news item and checks the caller authored it.
func (api *newsApi) getOwnNews(ctx echo.Context) (news.News, error) {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return news.News{}, errors.Wrap(err, "getting context user")
	}

	n, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == news.ErrNotFound {
			return news.News{}, errHttpNotFound
		}
		return news.News{}, errors.Wrap(err, "finding news by ID")
	}
	if n.AuthorID != ctxUsr.ID {
		return news.News{}, errHttpForbidden
	}
	return n, nil
}
