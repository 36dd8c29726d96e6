package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/repository"
	"github.com/google/uuid"
)

// PairingService builds a group's daily matchups. Pair shape is deterministic
// (floor(N/2) regular pairs, plus one extra pair iff N is odd); pair content
// is randomized by a uniform shuffle.
type PairingService struct {
	groupRepo repository.GroupRepository
	pairRepo  repository.PairRepository
	userRepo  repository.UserRepository
}

func NewPairingService(groupRepo repository.GroupRepository, pairRepo repository.PairRepository, userRepo repository.UserRepository) *PairingService {
	return &PairingService{
		groupRepo: groupRepo,
		pairRepo:  pairRepo,
		userRepo:  userRepo,
	}
}

// GeneratePairs pairs up the given members. Duplicate and nil ids are
// dropped; fewer than 2 valid members yields an empty set. For an odd count,
// the leftover member is re-paired against a uniformly chosen side of a
// uniformly chosen regular pair, flagged as the extra pair.
func GeneratePairs(memberIDs []uuid.UUID) []*domain.PairAssignment {
	seen := make(map[uuid.UUID]bool, len(memberIDs))
	members := make([]uuid.UUID, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}

	if len(members) < 2 {
		return nil
	}

	rand.Shuffle(len(members), func(i, j int) {
		members[i], members[j] = members[j], members[i]
	})

	pairs := make([]*domain.PairAssignment, 0, len(members)/2+1)
	for i := 0; i+1 < len(members); i += 2 {
		pairs = append(pairs, &domain.PairAssignment{
			ID:      uuid.New(),
			MemberA: members[i],
			MemberB: members[i+1],
		})
	}

	if len(members)%2 == 1 {
		leftover := members[len(members)-1]
		partner := pairs[rand.Intn(len(pairs))]
		opponent := partner.MemberA
		if rand.Intn(2) == 1 {
			opponent = partner.MemberB
		}
		pairs = append(pairs, &domain.PairAssignment{
			ID:          uuid.New(),
			MemberA:     leftover,
			MemberB:     opponent,
			IsExtraPair: true,
		})
	}

	return pairs
}

// GeneratePairsForGroup regenerates the group's pairing set for the day,
// replacing any previously persisted set.
func (s *PairingService) GeneratePairsForGroup(ctx context.Context, groupID uuid.UUID, day string) ([]*domain.PairAssignment, error) {
	memberIDs, err := s.groupRepo.MemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}

	pairs := GeneratePairs(memberIDs)
	now := time.Now()
	for _, p := range pairs {
		p.GroupID = groupID
		p.Day = day
		p.CreatedAt = now
	}

	if err := s.pairRepo.ReplaceForDay(ctx, groupID, day, pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// PairsForDay returns the persisted pairing set, generating it on first use.
func (s *PairingService) PairsForDay(ctx context.Context, groupID uuid.UUID, day string) ([]*domain.PairAssignment, error) {
	pairs, err := s.pairRepo.GetForDay(ctx, groupID, day)
	if err != nil {
		return nil, err
	}
	if len(pairs) > 0 {
		return pairs, nil
	}
	return s.GeneratePairsForGroup(ctx, groupID, day)
}

// NextOpponent picks the user's rotated opponent for the day: their partner
// in the day's pairing set, or a random other group member when the user has
// no assignment (for example, they joined after today's set was generated).
func (s *PairingService) NextOpponent(ctx context.Context, userID uuid.UUID, day string) (uuid.UUID, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if user.GroupID == nil {
		return uuid.Nil, domain.ErrNoOpponent
	}

	pairs, err := s.PairsForDay(ctx, *user.GroupID, day)
	if err != nil {
		return uuid.Nil, err
	}
	for _, p := range pairs {
		if partner, ok := p.Partner(userID); ok {
			return partner, nil
		}
	}

	memberIDs, err := s.groupRepo.MemberIDs(ctx, *user.GroupID)
	if err != nil {
		return uuid.Nil, err
	}
	candidates := make([]uuid.UUID, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != userID {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return uuid.Nil, domain.ErrNotEnoughMembers
	}
	return candidates[rand.Intn(len(candidates))], nil
}
