package model

// Employee roles are department names plus the special "Partner" and "Admin"
// tags. The role set is never empty for a valid record.
type Employee struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Avatar        string   `json:"avatar,omitempty"`
	Roles         []string `json:"roles"`
	ManagerID     string   `json:"managerId,omitempty"`
	ChargeOutRate float64  `json:"chargeOutRate,omitempty"`
}

const (
	RolePartner = "Partner"
	RoleAdmin   = "Admin"
)

// HasRole reports whether the employee carries the given role tag.
func (e *Employee) HasRole(role string) bool {
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Department returns the employee's first role, which the review flow treats
// as their department.
func (e *Employee) Department() string {
	if len(e.Roles) == 0 {
		return ""
	}
	return e.Roles[0]
}
