package team

import "fmt"

// Team is an upstream club a participant plays as.
type Team struct {
	ID    int64
	Name  string
	Token string
}

func (t Team) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("team id is required")
	}

	return nil
}

func (t Team) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Token
}
