package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studiumhq/studium/core/course"
	"github.com/studiumhq/studium/core/user"
)

type courseApi struct {
	svc      course.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		svc:      deps.CourseSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	g.POST("/enroll", api.enrollWithPin, jwt)

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, professorMiddleware())
	cg.GET("/mine", api.mine)
	cg.GET("/taught", api.taughtWithStudents, professorMiddleware())

	// detail endpoints
	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, courseOwnerMiddleware(api.svc, api.usrSvc))
	dg.DELETE("", api.destroy, courseOwnerMiddleware(api.svc, api.usrSvc))
	dg.POST("/change-pin", api.changePin, courseOwnerMiddleware(api.svc, api.usrSvc))
	dg.GET("/students", api.listStudents, courseOwnerMiddleware(api.svc, api.usrSvc))
	dg.POST("/students/:studentID", api.enrollStudent, courseOwnerMiddleware(api.svc, api.usrSvc))
	dg.DELETE("/students/:studentID", api.removeStudent, courseOwnerMiddleware(api.svc, api.usrSvc))
}

// courseOwnerMiddleware loads the course and lets only its owner through.
func courseOwnerMiddleware(svc course.Service, usrSvc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, usrSvc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			crs, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == course.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding course by ID")
			}
			if crs.OwnerID != ctxUsr.ID {
				return errHttpForbidden
			}
			ctx.Set("object", crs)
			return next(ctx)
		}
	}
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.svc.Create(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.QueryAll(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

// mine returns the courses a student is enrolled in, or a professor teaches.
func (api *courseApi) mine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var courses []course.Course
	if ctxUsr.IsProfessor() {
		courses, err = api.svc.QueryTaught(ctx.Request().Context(), ctxUsr.ID)
	} else {
		courses, err = api.svc.QueryEnrolled(ctx.Request().Context(), ctxUsr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) taughtWithStudents(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	courses, err := api.svc.QueryTaught(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying taught courses")
	}

	payload := make([]CourseWithStudents, 0, len(courses))
	for _, crs := range courses {
		students, err := api.svc.ListStudents(ctx.Request().Context(), crs.ID)
		if err != nil {
			return errors.Wrap(err, "listing students")
		}
		if students == nil {
			students = []user.User{}
		}
		payload = append(payload, CourseWithStudents{Course: crs, Students: students})
	}
	return ctx.JSON(http.StatusOK, payload)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs := ctx.Get("object").(course.Course)

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(crs, api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) changePin(ctx echo.Context) error {
	crs := ctx.Get("object").(course.Course)

	crs, err := api.svc.ChangePin(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "changing course pin")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs := ctx.Get("object").(course.Course)

	if err := api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) listStudents(ctx echo.Context) error {
	crs := ctx.Get("object").(course.Course)

	students, err := api.svc.ListStudents(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *courseApi) enrollStudent(ctx echo.Context) error {
	crs := ctx.Get("object").(course.Course)

	student, err := api.usrSvc.GetByID(ctx.Request().Context(), ctx.Param("studentID"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	if err = api.svc.EnrollStudent(ctx.Request().Context(), crs, student); err != nil {
		if errors.Cause(err) == course.ErrOnlyStudents {
			return errHttpForbidden
		}
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) removeStudent(ctx echo.Context) error {
	crs := ctx.Get("object").(course.Course)

	if err := api.svc.RemoveStudent(ctx.Request().Context(), crs, ctx.Param("studentID")); err != nil {
		return errors.Wrap(err, "removing student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) enrollWithPin(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data course.EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.EnrollWithPin(ctx.Request().Context(), ctxUsr, data.PinCode)
	if err != nil {
		switch errors.Cause(err) {
		case course.ErrPinNotFound:
			return echo.NewHTTPError(http.StatusNotFound, course.ErrPinNotFound.Error())
		case course.ErrOnlyStudents:
			return errHttpForbidden
		}
		return errors.Wrap(err, "enrolling with pin")
	}

	return ctx.JSON(http.StatusOK, EnrollResponse{
		Message: "Enrolled successfully.",
		Course:  crs,
	})
}

type (
	CourseWithStudents struct {
		course.Course
		Students []user.User `json:"students"`
	}

	EnrollResponse struct {
		Message string        `json:"message"`
		Course  course.Course `json:"course"`
	}
)
