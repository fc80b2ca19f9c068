package models

import "github.com/google/uuid"

type Project struct {
	BaseModel

	Title       string `gorm:"not null"`
	Description string
	OwnerID     uuid.UUID `gorm:"type:char(36);not null;index"`

	// Relationships
	Memberships []ProjectMembership `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tasks       []Task              `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// MemberIDs returns the member user ids in insertion order. The owner is
// only included if it was added explicitly.
func (p *Project) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Memberships))
	for _, m := range p.Memberships {
		ids = append(ids, m.UserID)
	}
	return ids
}

func (p *Project) HasMember(userID uuid.UUID) bool {
	for _, m := range p.Memberships {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (p *Project) TaskIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
