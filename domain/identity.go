package domain

// Identity is the authenticated principal resolved for a single request. It
// is minted at login, persisted in the session store and carried into every
// operation that requires one.
type Identity struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
}

// View renders the identity as the boundary user shape.
func (i Identity) View() User {
	return User{
		ID:        i.ID,
		Username:  i.Username,
		Email:     i.Email,
		CreatedAt: RenderTimestamp(i.CreatedAt),
	}
}
