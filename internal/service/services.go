package service

import (
	"github.com/dtran/focus-rival/internal/config"
	"github.com/dtran/focus-rival/internal/events"
	"github.com/dtran/focus-rival/internal/repository"
	"github.com/rs/zerolog"
)

type Services struct {
	Auth     *AuthService
	Group    *GroupService
	Ledger   *LedgerService
	Pairing  *PairingService
	Resolver *ChallengeResolver
}

func NewServices(repos *repository.Repositories, cfg *config.Config, bus *events.Bus, log zerolog.Logger) *Services {
	ledger := NewLedgerService(repos.Transaction, repos.User)
	return &Services{
		Auth:     NewAuthService(repos.User, repos.Session, cfg),
		Group:    NewGroupService(repos.Group, repos.User),
		Ledger:   ledger,
		Pairing:  NewPairingService(repos.Group, repos.Pair, repos.User),
		Resolver: NewChallengeResolver(repos.User, repos.Outcome, ledger, bus, log),
	}
}
