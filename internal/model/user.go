package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles carried in the bearer token's role claim.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Address is the delivery address embedded in a user document.
type Address struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	Region  string `bson:"region" json:"region"`
	Country string `bson:"country" json:"country"`
}

// User is stored in the `users` collection.  Email is unique.  The
// password hash and passcode fields never leave the server.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      Address            `bson:"address" json:"address"`
	Photo        string             `bson:"photo,omitempty" json:"photo,omitempty"`
	IsVerified   bool               `bson:"isVerified" json:"isVerified"`
	OTP          string             `bson:"otp,omitempty" json:"-"`
	OTPExpiresAt *time.Time         `bson:"otpExpiresAt,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// OTPValid reports whether code matches the stored passcode and the
// passcode has not expired at now.
func (u *User) OTPValid(code string, now time.Time) bool {
	if u.OTP == "" || code == "" || u.OTP != code {
		return false
	}
	return u.OTPExpiresAt != nil && now.Before(*u.OTPExpiresAt)
}

// UserPatch is a partial update of a user profile.  Nil fields are left
// unchanged.  Role may only be applied by an admin; the handler enforces it.
type UserPatch struct {
	Name    *string  `json:"name"`
	Phone   *string  `json:"phone"`
	Address *Address `json:"address"`
	Photo   *string  `json:"photo"`
	Role    *string  `json:"role"`
}

// Set returns the $set document for the non-nil fields.
func (p UserPatch) Set() bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.Photo != nil {
		set["photo"] = *p.Photo
	}
	if p.Role != nil {
		set["role"] = *p.Role
	}
	return set
}
