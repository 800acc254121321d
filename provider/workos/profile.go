package workos

import "github.com/goliatone/go-authkit"

// userPayload is the wire shape of a WorkOS user object.
type userPayload struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	EmailVerified     bool   `json:"email_verified"`
	ProfilePictureURL string `json:"profile_picture_url"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
}

func (u *userPayload) toProfile() authkit.UserProfile {
	return authkit.UserProfile{
		ID:                u.ID,
		Email:             u.Email,
		EmailVerified:     u.EmailVerified,
		ProfilePictureURL: u.ProfilePictureURL,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
	}
}
