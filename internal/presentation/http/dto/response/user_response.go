package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
)

// UserResponse is the public view of a cashier account.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	BranchID    *uuid.UUID `json:"branch_id,omitempty"`
	BranchName  string     `json:"branch_name,omitempty"`
	Roles       []string   `json:"roles"`
	Permissions []string   `json:"permissions"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewUserResponse maps a user entity.
func NewUserResponse(u *entity.User) *UserResponse {
	r := &UserResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		Email:       u.Email,
		BranchID:    u.BranchID,
		Roles:       u.GetRoleNames(),
		Permissions: u.GetPermissions(),
		CreatedAt:   u.CreatedAt,
	}
	if u.Branch != nil {
		r.BranchName = u.Branch.Name
	}
	return r
}
