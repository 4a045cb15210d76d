package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studiumhq/studium/core/biometric"
	"github.com/studiumhq/studium/core/user"
)

type biometricApi struct {
	svc    biometric.Service
	usrSvc user.Service
}

func registerBiometricAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := biometricApi{
		svc:    deps.BiometricSvc,
		usrSvc: deps.UserSvc,
	}

	g.POST("/login/biometric", api.login)
	g.POST("/user/register-face", api.registerFace, jwt)
}

// FaceRequest carries a face embedding vector captured by the client.
type FaceRequest struct {
	FaceEmbedding biometric.Embedding `json:"face_embedding"`
}

// Handlers

func (api *biometricApi) login(ctx echo.Context) error {
	var data FaceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FaceRequest")
	}

	match, err := api.svc.Identify(ctx.Request().Context(), data.FaceEmbedding)
	if err != nil {
		if errors.Cause(err) == biometric.ErrNoMatch {
			// same response whether no one is enrolled or nothing matched
			return errFaceNotRecognized
		}
		return err
	}

	usr, err := api.usrSvc.GetByID(ctx.Request().Context(), match.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errFaceNotRecognized
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if !usr.Active() {
		return errFaceNotRecognized
	}

	usr, err = api.usrSvc.SetLastLogin(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Message:     "Login successful.",
		AccessToken: token,
		TokenType:   "Bearer",
		User:        newUserPayload(usr),
	})
}

func (api *biometricApi) registerFace(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data FaceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FaceRequest")
	}

	if err := api.svc.Enroll(ctx.Request().Context(), usr.ID, data.FaceEmbedding); err != nil {
		return err
	}

	// re-read so the payload reflects the stored template
	usr, err = api.usrSvc.GetByID(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)

	return ctx.JSON(http.StatusOK, FaceRegisterResponse{
		Message: "Face registered successfully.",
		User:    newUserPayload(usr),
	})
}

type FaceRegisterResponse struct {
	Message string      `json:"message"`
	User    UserPayload `json:"user"`
}
