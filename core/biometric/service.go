package biometric

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// ErrNoMatch is returned when no enrolled template came within threshold of
// the probe. Callers must surface it as a generic authentication failure:
// the response is identical whether nothing matched or no one is enrolled,
// so enrollment state cannot be probed.
var ErrNoMatch = errors.New("no enrolled template matched")

type (
	// TemplateRepository persists at most one template per user. Absence of a
	// template means biometric login is not enabled for that account.
	TemplateRepository interface {
		// SetTemplate unconditionally overwrites the user's stored template.
		SetTemplate(ctx context.Context, userID string, template Embedding) error
		// ListEnrolled returns every user holding a template, in unspecified order.
		ListEnrolled(ctx context.Context) ([]Enrollment, error)
	}

	// Service orchestrates face enrollment and face login against the
	// template store. Each call is stateless: identification runs over a
	// snapshot of the enrolled set read at request start, so calls may
	// proceed concurrently without locking.
	Service interface {
		Enroll(ctx context.Context, userID string, sample Embedding) error
		Identify(ctx context.Context, probe Embedding) (Match, error)
	}

	service struct {
		repo      TemplateRepository
		matcher   Matcher
		threshold float64
	}
)

func NewService(repo TemplateRepository, matcher Matcher, threshold float64) Service {
	return &service{repo: repo, matcher: matcher, threshold: threshold}
}

// Enroll validates the captured sample and stores it as the user's template,
// replacing any previous one. Samples are never merged or averaged.
func (svc *service) Enroll(ctx context.Context, userID string, sample Embedding) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	if err := svc.repo.SetTemplate(ctx, userID, sample); err != nil {
		return pkgerrors.Wrap(err, "storing face template")
	}
	return nil
}

// Identify resolves a login probe to an enrolled user, or ErrNoMatch.
func (svc *service) Identify(ctx context.Context, probe Embedding) (Match, error) {
	if err := probe.Validate(); err != nil {
		return Match{}, err
	}

	enrolled, err := svc.repo.ListEnrolled(ctx)
	if err != nil {
		return Match{}, pkgerrors.Wrap(err, "listing enrolled users")
	}

	match, ok := svc.matcher.Match(probe, enrolled, svc.threshold)
	if !ok {
		return Match{}, ErrNoMatch
	}
	return match, nil
}
