// Package inmemdb provides in-memory repository implementations for tests.
package inmemdb

import (
	"sync"

	"github.com/studiumhq/studium/core/course"
	"github.com/studiumhq/studium/core/news"
	"github.com/studiumhq/studium/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		mutex      sync.RWMutex
		table      map[string]*course.Course
		enrollment map[string]map[string]bool // courseID -> studentID set
	}

	newsTable struct {
		mutex sync.RWMutex
		table map[string]*news.News
		tags  map[string]news.Tag
	}

	DB struct {
		user   *userTable
		course *courseTable
		news   *newsTable
	}
)

func NewDB() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			table:      make(map[string]*course.Course),
			enrollment: make(map[string]map[string]bool),
		},
		news: &newsTable{
			table: make(map[string]*news.News),
			tags:  make(map[string]news.Tag),
		},
	}
}
