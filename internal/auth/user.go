package auth

// User is the signed-in account as returned by the profile and auth endpoints.
type User struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	ProfileName    string `json:"profile_name,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Followers      int    `json:"followersCount,omitempty"`
	Following      int    `json:"followingCount,omitempty"`
}

// Complete reports whether the profile carries more than the bare identity
// returned by a token refresh.
func (u *User) Complete() bool {
	return u != nil && u.ID != "" && u.Username != ""
}

// DisplayName prefers the profile name, then the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.ProfileName != "" {
		return u.ProfileName
	}
	return u.Username
}
