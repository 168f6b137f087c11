package auth

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the stored identity. It is never serialized directly; handlers
// always go through Public.
type User struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	Mobile           string
	PasswordHash     string
	Role             Role
	Blocked          bool
	RefreshToken     string
	RefreshExpiresAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type PublicUser struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile"`
	Role      Role      `json:"role"`
	Blocked   bool      `json:"isBlocked"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Mobile:    u.Mobile,
		Role:      u.Role,
		Blocked:   u.Blocked,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type Registration struct {
	FirstName string `json:"firstname" validate:"max=100"`
	LastName  string `json:"lastname" validate:"max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Mobile    string `json:"mobile" validate:"omitempty,e164|numeric,max=20"`
	Password  string `json:"password" validate:"required,min=2,max=72"`
}

// ProfileUpdate carries the self-service profile fields. Empty fields keep
// their stored value; a non-empty Password is re-hashed on write.
type ProfileUpdate struct {
	FirstName string `json:"firstname" validate:"max=100"`
	LastName  string `json:"lastname" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Mobile    string `json:"mobile" validate:"omitempty,e164|numeric,max=20"`
	Password  string `json:"password" validate:"omitempty,min=2,max=72"`
}

type Session struct {
	User             PublicUser
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}
