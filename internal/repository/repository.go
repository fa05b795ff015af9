package repository

import (
	"github.com/vaultgate/card-token-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User      UserRepository
	CardToken CardTokenRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db),
		CardToken: NewCardTokenRepository(db),
	}
}
