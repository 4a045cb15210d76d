package news

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/studiumhq/studium/core"
)

type (
	Tag struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// News is a course announcement.
	News struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Content  string `json:"content"`
		AuthorID string `json:"author_id"`
		CourseID string `json:"course_id"`
		Tags     []Tag  `json:"tags"`

		// populated on reads only
		AuthorName  string `json:"author_name,omitempty"`
		CourseTitle string `json:"course_title,omitempty"`

		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}
)

// NewNews contains information needed to publish a News item.
type NewNews struct {
	Title    string   `json:"title" validate:"required,max=255"`
	Content  string   `json:"content" validate:"required"`
	CourseID string   `json:"course_id" validate:"required"`
	TagIDs   []string `json:"tags" validate:"omitempty,dive,required"`
}

func (nn *NewNews) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Content = core.CleanString(nn.Content)
	return validate.Struct(nn)
}

// UpdateNews defines what may change on an existing News item. A nil TagIDs
// leaves the tag set untouched; an empty non-nil slice clears it.
type UpdateNews struct {
	Title   string    `json:"title" validate:"omitempty,max=255"`
	Content string    `json:"content"`
	TagIDs  *[]string `json:"tags"`
}

func (un *UpdateNews) Validate(orig News, validate *validator.Validate) error {
	title := core.CleanString(un.Title)
	if title != "" {
		un.Title = title
	} else {
		un.Title = orig.Title
	}

	content := core.CleanString(un.Content)
	if content != "" {
		un.Content = content
	} else {
		un.Content = orig.Content
	}

	return validate.Struct(un)
}
