package domain

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedBy uuid.UUID `json:"createdBy" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"createdAt"`

	Members []*User `json:"members,omitempty" gorm:"foreignKey:GroupID"`
}

// PairAssignment is one matchup in a group's daily pairing set. A member may
// appear in at most two assignments for the same day, and at most one
// assignment per group-day carries IsExtraPair. The extra pair exists only for
// odd-sized groups: the leftover member is re-paired against someone already
// placed in a regular pair.
type PairAssignment struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	GroupID     uuid.UUID `json:"groupId" gorm:"type:uuid;not null;index:idx_pair_group_day"`
	MemberA     uuid.UUID `json:"memberA" gorm:"type:uuid;not null"`
	MemberB     uuid.UUID `json:"memberB" gorm:"type:uuid;not null"`
	IsExtraPair bool      `json:"isExtraPair" gorm:"not null;default:false"`
	Day         string    `json:"day" gorm:"not null;index:idx_pair_group_day"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Involves reports whether the assignment includes the given member.
func (p *PairAssignment) Involves(memberID uuid.UUID) bool {
	return p.MemberA == memberID || p.MemberB == memberID
}

// Partner returns the other side of the assignment for the given member.
func (p *PairAssignment) Partner(memberID uuid.UUID) (uuid.UUID, bool) {
	switch memberID {
	case p.MemberA:
		return p.MemberB, true
	case p.MemberB:
		return p.MemberA, true
	}
	return uuid.Nil, false
}
