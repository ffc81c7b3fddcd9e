package domain

// Snapshot es la vista sincrona del estado de sesion: {user, isLoading}.
type Snapshot struct {
	User      *User `json:"user"`
	IsLoading bool  `json:"is_loading"`
}

// Authenticated indica si hay un usuario en la sesion.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}
