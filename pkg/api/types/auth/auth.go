package auth

// Session is the response of the identity check, GET /auth/session .
type Session struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	IsAdmin       bool   `json:"isAdmin,omitempty"`
}

func (s *Session) Equal(o *Session) bool {
	if s == nil || o == nil {
		return s == nil && o == nil
	}
	return *s == *o
}
