package rbac

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}
