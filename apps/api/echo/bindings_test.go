package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/studiumhq/studium/core"
)

func TestOrdering_Bind(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []core.DBOrdering
	}{
		{name: "no param", path: "/"},
		{name: "empty param", path: "/?ordering="},
		{
			name: "single ascending",
			path: "/?ordering=title",
			want: []core.DBOrdering{{Field: "title", Ascending: true}},
		},
		{
			name: "single descending",
			path: "/?ordering=-created_at",
			want: []core.DBOrdering{{Field: "created_at", Ascending: false}},
		},
		{
			name: "multiple fields",
			path: "/?ordering=title,-updated_at",
			want: []core.DBOrdering{
				{Field: "title", Ascending: true},
				{Field: "updated_at", Ascending: false},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			ctx := echo.New().NewContext(req, httptest.NewRecorder())

			ord := new(Ordering)
			ord.Bind(ctx)
			assert.Equal(t, tt.want, ord.Orderings)
		})
	}
}

func TestDBOrdering_String(t *testing.T) {
	assert.Equal(t, "title ASC", core.DBOrdering{Field: "title", Ascending: true}.String())
	assert.Equal(t, "created_at DESC", core.DBOrdering{Field: "created_at"}.String())
}
