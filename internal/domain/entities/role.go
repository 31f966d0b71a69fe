package entities

// Role is a named role shared by users. Names are globally unique.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
