package user

import (
	"context"

	"github.com/studiumhq/studium/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose password-reset mail is sent
// synchronously so tests can assert on it.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	secretKey = conf.SecretKey
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	return &serviceMock{
		service: service{
			repo:            repo,
			mailSvc:         mailSvc,
			appName:         conf.AppName,
			frontendBaseURL: conf.FrontendBaseURL,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
