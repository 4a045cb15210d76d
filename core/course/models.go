package course

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/studiumhq/studium/core"
)

const pinLen = 6

const pinCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"` // the professor teaching the course
	PinCode     string    `json:"pin_code"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// GeneratePin returns a new 6-character uppercase alphanumeric enrollment PIN.
func GeneratePin() string {
	buf := make([]byte, pinLen)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	for i, b := range buf {
		buf[i] = pinCharset[int(b)%len(pinCharset)]
	}
	return string(buf)
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title       string `json:"title" validate:"omitempty,max=255"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(origCourse Course, validate *validator.Validate) error {
	title := core.CleanString(uc.Title)
	if title != "" {
		uc.Title = title
	} else {
		uc.Title = origCourse.Title
	}

	desc := core.CleanString(uc.Description)
	if desc != "" {
		uc.Description = desc
	} else {
		uc.Description = origCourse.Description
	}

	return validate.Struct(uc)
}

// EnrollRequest is a student's PIN enrollment submission.
type EnrollRequest struct {
	PinCode string `json:"pin_code" validate:"required,len=6"`
}

func (er *EnrollRequest) Validate(validate *validator.Validate) error {
	er.PinCode = strings.ToUpper(core.CleanString(er.PinCode))
	return validate.Struct(er)
}

// GetFilter selects a single course; the first non-empty field applies.
type GetFilter struct {
	ID      string
	PinCode string
}
