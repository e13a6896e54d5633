package models

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	FirstName    string     `json:"firstName" gorm:"size:100;not null"`
	LastName     string     `json:"lastName" gorm:"size:100;not null"`
	Phone        string     `json:"phone,omitempty" gorm:"size:30"`
	ProfileImage string     `json:"profileImage,omitempty" gorm:"size:500"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'BUYER'"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Rating       float64    `json:"rating"`
	ReviewCount  int        `json:"reviewCount"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
