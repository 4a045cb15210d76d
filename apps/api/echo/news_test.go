package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiumhq/studium/core/course"
	"github.com/studiumhq/studium/core/news"
)

func Test_newsApi(t *testing.T) {
	srv, deps := newTestServer(t)
	ctx := context.Background()

	prof := createUser(t, deps, "Prof Doe", "prof@test.cm", "PassW0rd!", "professor", true)
	other := createUser(t, deps, "Other Prof", "other@test.cm", "PassW0rd!", "professor", true)
	student := createUser(t, deps, "Alice Doe", "alice@test.cm", "PassW0rd!", "student", true)

	crs, err := deps.courseSvc.Create(ctx, prof.ID, course.NewCourse{Title: "Algebra I", Description: "desc"})
	require.NoError(t, err)
	require.NoError(t, deps.courseSvc.EnrollStudent(ctx, crs, student))

	exams := deps.newsRepo.AddTag("exams")

	var created news.News

	t.Run("students cannot post news", func(t *testing.T) {
		body := marchallObj(t, news.NewNews{Title: "T", Content: "C", CourseID: crs.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/news", getToken(t, student), body)
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("only the course professor may post on it", func(t *testing.T) {
		body := marchallObj(t, news.NewNews{Title: "T", Content: "C", CourseID: crs.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/news", getToken(t, other), body)
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("professor posts tagged news", func(t *testing.T) {
		body := marchallObj(t, news.NewNews{
			Title:    "Midterm moved",
			Content:  "The midterm is now on Friday.",
			CourseID: crs.ID,
			TagIDs:   []string{exams.ID},
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/news", getToken(t, prof), body)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, prof.ID, created.AuthorID)
		assert.Equal(t, []news.Tag{exams}, created.Tags)
	})

	t.Run("course feed lists the item", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/news", getToken(t, student))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var items []news.News
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		require.Len(t, items, 1)
		assert.Equal(t, created.ID, items[0].ID)
	})

	t.Run("announcements span the student's courses", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/announcements", getToken(t, student))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var items []news.News
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		require.Len(t, items, 1)
		assert.Equal(t, crs.Title, items[0].CourseTitle)
	})

	t.Run("unenrolled user gets an empty feed", func(t *testing.T) {
		loner := createUser(t, deps, "Loner Doe", "loner@test.cm", "PassW0rd!", "student", true)
		req, rec := newAuthRequest(http.MethodGet, "/v1/announcements", getToken(t, loner))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("tags endpoint lists the taxonomy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/tags", getToken(t, student))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var tags []news.Tag
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tags))
		assert.Equal(t, []news.Tag{exams}, tags)
	})

	t.Run("only the author may update or delete", func(t *testing.T) {
		body := marchallObj(t, news.UpdateNews{Title: "Changed", Content: created.Content})
		req, rec := newAuthRequest(http.MethodPut, "/v1/news/"+created.ID, getToken(t, other), body)
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodPut, "/v1/news/"+created.ID, getToken(t, prof), body)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated news.News
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Changed", updated.Title)
		assert.Equal(t, []news.Tag{exams}, updated.Tags) // tags untouched

		req, rec = newAuthRequest(http.MethodDelete, "/v1/news/"+created.ID, getToken(t, prof))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}
