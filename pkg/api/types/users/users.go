package users

import (
	"time"

	"github.com/opst/podconsole/pkg/api/types/internal/cmp"
)

type User struct {
	Id        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
	Groups    []string  `json:"groups,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Equal(o User) bool {
	return u.Id == o.Id &&
		u.Username == o.Username &&
		u.Email == o.Email &&
		u.IsAdmin == o.IsAdmin &&
		u.CreatedAt.Equal(o.CreatedAt) &&
		cmp.StringsEqualUnordered(u.Groups, o.Groups)
}

// List is the response of GET /users .
type List struct {
	Users []User `json:"users"`
}

func (l List) Equal(o List) bool {
	return cmp.SliceEqual(l.Users, o.Users)
}

type Group struct {
	Id      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

func (g Group) Equal(o Group) bool {
	return g.Id == o.Id &&
		g.Name == o.Name &&
		cmp.StringsEqualUnordered(g.Members, o.Members)
}

// GroupList is the response of GET /groups .
type GroupList struct {
	Groups []Group `json:"groups"`
}

func (l GroupList) Equal(o GroupList) bool {
	return cmp.SliceEqual(l.Groups, o.Groups)
}
