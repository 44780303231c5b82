package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID        int        `gorm:"primary_key" json:"id"`
	Username  string     `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	FullName  string     `gorm:"size:200;not null" json:"full_name" binding:"required"`
	Email     *string    `gorm:"size:100;unique" json:"email"`
	Password  string     `gorm:"size:255;not null" json:"-"`
	Role      UserRole   `gorm:"type:enum('admin','accountant','auditor','user');size:20;not null;default:'user'" json:"role"`
	IsActive  *bool      `gorm:"not null;default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" binding:"required"`
	FullName string   `json:"full_name" binding:"required"`
	Email    string   `json:"email"`
	Password string   `json:"password" binding:"required,min=8"`
	Role     UserRole `json:"role" binding:"required"`
}

type LoginInfo struct {
	Token    string   `json:"token"`
	Username string   `json:"username"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

func (input *NewUser) validate(ctx context.Context, id int) error {
	if !input.Role.IsValid() {
		return utils.NewValidationError("role", "invalid role")
	}
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, id); err != nil {
		return err
	}
	if input.Email != "" {
		if !utils.IsValidEmail(input.Email) {
			return utils.NewValidationError("email", "invalid email")
		}
		if err := utils.ValidateUnique[User](ctx, "email", input.Email, id); err != nil {
			return err
		}
	}
	return nil
}

func CreateUser(ctx context.Context, input *NewUser, actorId int) (*User, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username: html.EscapeString(strings.TrimSpace(input.Username)),
		FullName: input.FullName,
		Email:    utils.NilIfEmpty(input.Email),
		Password: string(hashed),
		Role:     input.Role,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionCreate, "users", user.ID, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return &user, nil
}

// Authenticate checks credentials, stamps last_login and hands back a JWT.
func Authenticate(ctx context.Context, username string, password string) (*LoginInfo, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		return nil, errors.New("invalid username or password")
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, errors.New("account is disabled")
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, errors.New("invalid username or password")
	}

	now := time.Now()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, user.ID, AuditActionLogin, "users", user.ID, nil, nil)
	})
	if err != nil {
		return nil, err
	}

	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token:    token,
		Username: user.Username,
		FullName: user.FullName,
		Role:     user.Role,
	}, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}
