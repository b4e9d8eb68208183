package entity

import (
	"time"

	"github.com/lib/pq"
)

// DefaultProfilePicURL is used when an account is created without a picture.
const DefaultProfilePicURL = "https://tinyurl.com/4dzr8d73"

// Account represents a row in the `accounts` table.
//
// Password holds the plaintext only between assignment and the next persist;
// after the pre-persist hook runs it holds the bcrypt hash. It is never serialized.
type Account struct {
	ID               string         `db:"id" json:"id"`
	Username         string         `db:"username" json:"username"`
	Email            string         `db:"email" json:"email"`
	Password         string         `db:"password" json:"-"`
	IsEmailConfirmed bool           `db:"is_email_confirmed" json:"isEmailConfirmed"`
	Biography        string         `db:"biography" json:"biography,omitempty"`
	FavoriteSubjects pq.StringArray `db:"favorite_subjects" json:"favoriteSubjects"`
	ProfilePicURL    string         `db:"profile_pic_url" json:"userProfilePicURL"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}
