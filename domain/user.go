package domain

// UserProfile is the stored projection of an authenticated user. The ID is
// the subject claim issued by the identity provider.
type UserProfile struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	Picture       string `json:"picture,omitempty"`
	CustomPicture bool   `json:"customPicture,omitempty"`
}
