package model

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role is the access level of a user.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleBoss     Role = "boss"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleBoss
}

// PasswordCost is the bcrypt cost used when hashing passwords.
const PasswordCost = 12

// User represents an authenticated user in the system.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role       `json:"role" gorm:"size:20;not null;default:employee"`
	Department   string     `json:"department" gorm:"size:100;not null"`
	Active       bool       `json:"active" gorm:"not null;default:true"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" gorm:"<-:create"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns an id and normalises the email.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleEmployee
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// SetPassword hashes plain and stores the hash. Call it only when the
// password actually changes.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

var (
	decoyOnce sync.Once
	decoyHash []byte
)

func decoyPasswordHash() []byte {
	decoyOnce.Do(func() {
		decoyHash, _ = bcrypt.GenerateFromPassword([]byte("paperless-decoy-password"), PasswordCost)
	})
	return decoyHash
}

// CheckDecoyPassword runs one bcrypt comparison against a fixed hash of the
// same cost. Call it when no user matched a login so that path pays the
// same hashing cost as a wrong password.
func CheckDecoyPassword(plain string) {
	_ = bcrypt.CompareHashAndPassword(decoyPasswordHash(), []byte(plain))
}

// IsBoss reports whether the user may approve documents.
func (u *User) IsBoss() bool {
	return u.Role == RoleBoss
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
