package client

import (
	"slices"

	"paperless/internal/model"
)

// View names a screen of the client.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewDocuments View = "documents"
	ViewDocument  View = "document"
	ViewUpload    View = "upload"
	ViewUsers     View = "users"
)

// Access lists the roles allowed on a view. Empty means any logged in user.
type Access struct {
	Roles []model.Role
}

// Views is the route table consulted by Guard. The server enforces the
// same rules; this only keeps users away from screens they cannot use.
var Views = map[View]Access{
	ViewDashboard: {},
	ViewDocuments: {},
	ViewDocument:  {},
	ViewUpload:    {},
	ViewUsers:     {Roles: []model.Role{model.RoleBoss}},
}

// Guard decides whether the session may open view.
func Guard(session *Session, view View) error {
	access, ok := Views[view]
	if !ok {
		return ErrUnknownView
	}
	user := session.User()
	if user == nil || !session.Authenticated() {
		return ErrLoginRequired
	}
	if len(access.Roles) > 0 && !slices.Contains(access.Roles, user.Role) {
		return ErrRedirectHome
	}
	return nil
}
