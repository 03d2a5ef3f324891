package customer

import (
	"time"
)

// Customer represents a museum visitor able to buy tickets online or at
// the counter. The auth collaborator owns the user account; this row only
// carries the profile the ticketing flows need.
type Customer struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Account reference supplied by the auth collaborator.
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`

	FullName    string  `gorm:"type:varchar(255);not null" json:"fullname"`
	Phone       string  `gorm:"type:varchar(20)" json:"phone"`
	Email       string  `gorm:"type:varchar(255)" json:"email"`
	IDNumber    *string `gorm:"type:varchar(50)" json:"id_number,omitempty"`
	Nationality *string `gorm:"type:varchar(100)" json:"nationality,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
