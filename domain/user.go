package domain

// User is the boundary shape of a registered account. The password credential
// is never part of this shape.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// UserRecord is the persisted account, including the derived password
// credential. It stays below the API boundary.
type UserRecord struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    int64
}

// View renders the record for the API boundary.
func (r UserRecord) View() User {
	return User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		CreatedAt: RenderTimestamp(r.CreatedAt),
	}
}
