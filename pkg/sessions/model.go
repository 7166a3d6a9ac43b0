package sessions

import "time"

// Session is one installed shop. The shop domain is the tenant identity;
// the access token authorizes downstream Admin API calls on its behalf.
type Session struct {
	Shop        string   // myshopify domain, primary key
	AccessToken string   // opaque bearer credential, never logged
	Scopes      []string // capabilities granted at install time, informational
	CreatedAt   time.Time
}
