package location

import "fmt"

// Location is an upstream venue/region a tournament is played in.
type Location struct {
	ID       int64
	Code     string
	Name     string
	Color    string
	StatusID int
}

func (l Location) Validate() error {
	if l.ID <= 0 {
		return fmt.Errorf("location id is required")
	}
	if l.Code == "" {
		return fmt.Errorf("location code is required")
	}

	return nil
}

// DisplayName prefers the international name and falls back to the code.
func (l Location) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Code
}
