package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleTrainer Role = "trainer"
	RoleEditor  Role = "editor" // Curates the exercise library
	RoleClient  Role = "client"
)

// User represents a user in the system (trainer, editor or client).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Trainer-specific ---
	ClientIDs []primitive.ObjectID `bson:"clientIds,omitempty" json:"clientIds,omitempty"`

	// --- Client-specific ---
	TrainerID  *primitive.ObjectID `bson:"trainerId,omitempty" json:"trainerId,omitempty"`
	IsPregnant bool                `bson:"isPregnant" json:"isPregnant"` // Selects prenatal over postnatal media
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

func (u *User) IsEditor() bool {
	return u.Role == RoleEditor
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// ManagesClient reports whether the trainer has the client on their roster.
func (u *User) ManagesClient(clientID primitive.ObjectID) bool {
	for _, id := range u.ClientIDs {
		if id == clientID {
			return true
		}
	}
	return false
}
