package models

// User is an administrator allowed into the admin panel.
type User struct {
	ID           uint   `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Username     string `json:"username" db:"username" gorm:"type:text;not null;uniqueIndex:idx_users_username"`
	PasswordHash string `json:"-" db:"password" gorm:"column:password;type:text;not null"`
}
