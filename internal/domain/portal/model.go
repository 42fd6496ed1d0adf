package portal

// Portal is a stored login for a client-facing external system.
type Portal struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Client groups the portals of one customer.
type Client struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Portals []Portal `json:"portals"`
}

// PortalUpdate carries the fields to change; nil fields are left untouched.
type PortalUpdate struct {
	Name     *string `json:"name,omitempty"`
	URL      *string `json:"url,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}
