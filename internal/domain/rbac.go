package domain

// EnforceRequest is the neutral authorization query shared by the rbac
// service and the HTTP middleware, so neither imports the other.
type EnforceRequest struct {
	Role     string `json:"role"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
