package domain

// RequestContext carries authenticated user info extracted from the JWT.
type RequestContext struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

func (rc RequestContext) IsAdmin() bool {
	return rc.Role == "admin"
}
