package user

import (
	"time"
)

// Location is where a user operates, either detected or entered by hand.
type Location struct {
	City       string     `json:"city" bson:"city"`
	State      string     `json:"state" bson:"state"`
	Pincode    string     `json:"pincode" bson:"pincode"`
	Address    string     `json:"address" bson:"address"`
	Latitude   *float64   `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty" bson:"longitude,omitempty"`
	IsManual   bool       `json:"isManual" bson:"isManual"`
	DetectedAt *time.Time `json:"detectedAt,omitempty" bson:"detectedAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// User is a marketplace account, either a vendor or a wholesaler.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"passwordHash,omitempty" bson:"passwordHash,omitempty"`
	Role         string    `json:"role" bson:"role"`
	PhotoURL     string    `json:"photoURL,omitempty" bson:"photoURL,omitempty"`
	Location     *Location `json:"location,omitempty" bson:"location,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) DocumentID() string      { return u.ID }
func (u *User) SetDocumentID(id string) { u.ID = id }

// Profile is the public view of a user.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	Location  *Location `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		PhotoURL:  u.PhotoURL,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
	}
}
