package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dhaqane/shop-backend/internal/config"
	"github.com/dhaqane/shop-backend/internal/logging"
	"github.com/dhaqane/shop-backend/internal/mail"
	"github.com/dhaqane/shop-backend/internal/middleware"
	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/repository"
	"github.com/dhaqane/shop-backend/internal/utils"
)

// UserStore is the users collection as the account endpoints use it.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id primitive.ObjectID, p model.UserPatch) (*model.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetOTP(ctx context.Context, id primitive.ObjectID, code string, exp time.Time) error
	MarkVerified(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

// UserHandler bundles dependencies for account endpoints.
type UserHandler struct {
	Cfg    config.Config
	Users  UserStore
	Mailer mail.Mailer
}

func NewUserHandler(cfg config.Config, u UserStore, m mail.Mailer) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Mailer: m}
}

// ----- DTOs -----

type registerReq struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Phone    string        `json:"phone"`
	Address  model.Address `json:"address"`
	Photo    string        `json:"photo"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetReq struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	Access  tokenPart   `json:"access"`
}

func (h *UserHandler) present(u *model.User) *model.User {
	u.Photo = utils.ResolveImageURL(h.Cfg.ImageBaseURL, u.Photo)
	return u
}

// Register creates an unverified account, mails a verification passcode
// and returns a token straight away.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if strings.TrimSpace(req.Name) == "" || req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "name, email and password are required")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return internalError(c, "hash password", err)
	}
	code, err := utils.NewOTP(6)
	if err != nil {
		return internalError(c, "generate passcode", err)
	}
	exp := time.Now().UTC().Add(h.Cfg.OTPTTL)

	u := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Phone:        req.Phone,
		Address:      req.Address,
		Photo:        req.Photo,
		OTP:          code,
		OTPExpiresAt: &exp,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fail(c, http.StatusBadRequest, "User already exists")
		}
		return internalError(c, "create user", err)
	}

	h.sendPasscode(c, u, code, "verification")

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID.Hex(), u.Email, u.Role, h.Cfg.TokenTTL)
	if err != nil {
		return internalError(c, "issue token", err)
	}
	return c.JSON(http.StatusCreated, authResp{
		Success: true,
		Message: "User created successfully, verification code sent",
		User:    h.present(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// sendPasscode mails code.  Delivery failure is logged; the passcode can
// be re-requested through forgotPassword.
func (h *UserHandler) sendPasscode(c echo.Context, u *model.User, code, purpose string) {
	ctx := c.Request().Context()
	if err := h.Mailer.Send(ctx, u.Email, "Your "+purpose+" code", mail.PasscodeBody(u.Name, code, purpose)); err != nil {
		logging.FromContext(ctx).Warn("passcode mail failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
}

// VerifyOTP marks the account verified when the passcode matches.
func (h *UserHandler) VerifyOTP(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.OTP == "" {
		return fail(c, http.StatusBadRequest, "email and otp are required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return storeError(c, "get user", err, repository.ErrUserNotFound, "User not found")
	}
	if !u.OTPValid(strings.TrimSpace(req.OTP), time.Now().UTC()) {
		return fail(c, http.StatusBadRequest, "Invalid or expired code")
	}
	u, err = h.Users.MarkVerified(ctx, u.ID)
	if err != nil {
		return storeError(c, "verify user", err, repository.ErrUserNotFound, "User not found")
	}
	return success(c, "Account verified", h.present(u))
}

// Login checks credentials and issues a token.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusUnauthorized, "Invalid credentials")
		}
		return internalError(c, "get user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID.Hex(), u.Email, u.Role, h.Cfg.TokenTTL)
	if err != nil {
		return internalError(c, "issue token", err)
	}
	return c.JSON(http.StatusOK, authResp{
		Success: true,
		Message: "Login successful",
		User:    h.present(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// ForgotPassword issues a new passcode.  The answer is the same whether or
// not the email is registered.
func (h *UserHandler) ForgotPassword(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return fail(c, http.StatusBadRequest, "email is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return success(c, "If the account exists a code has been sent", nil)
	case err != nil:
		return internalError(c, "get user", err)
	}

	code, err := utils.NewOTP(6)
	if err != nil {
		return internalError(c, "generate passcode", err)
	}
	if err := h.Users.SetOTP(ctx, u.ID, code, time.Now().UTC().Add(h.Cfg.OTPTTL)); err != nil {
		return internalError(c, "store passcode", err)
	}
	h.sendPasscode(c, u, code, "password reset")
	return success(c, "If the account exists a code has been sent", nil)
}

// ResetPassword replaces the password when the passcode matches.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		return fail(c, http.StatusBadRequest, "email, otp and newPassword are required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusBadRequest, "Invalid or expired code")
		}
		return internalError(c, "get user", err)
	}
	if !u.OTPValid(strings.TrimSpace(req.OTP), time.Now().UTC()) {
		return fail(c, http.StatusBadRequest, "Invalid or expired code")
	}
	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return internalError(c, "hash password", err)
	}
	if err := h.Users.ResetPassword(ctx, u.ID, hash); err != nil {
		return storeError(c, "reset password", err, repository.ErrUserNotFound, "User not found")
	}
	return success(c, "Password updated", nil)
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "invalid token")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(c, "get user", err, repository.ErrUserNotFound, "User not found")
	}
	return success(c, "User found", h.present(u))
}

// List returns every user (admin).
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return internalError(c, "list users", err)
	}
	for i := range users {
		h.present(&users[i])
	}
	return list(c, users)
}

// Update applies a partial profile update.  Users may edit themselves;
// admins may edit anyone and are the only ones who may change a role.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "User not found")
	}
	caller, _ := middleware.UserID(c)
	admin := middleware.IsAdmin(c)
	if caller != id && !admin {
		return fail(c, http.StatusForbidden, "forbidden")
	}

	var p model.UserPatch
	if msg := decodePatch(c, &p); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if p.Role != nil {
		if !admin {
			return fail(c, http.StatusForbidden, "only admins may change roles")
		}
		if *p.Role != model.RoleAdmin && *p.Role != model.RoleUser {
			return fail(c, http.StatusBadRequest, "role must be admin or user")
		}
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, id, p)
	if err != nil {
		return storeError(c, "update user", err, repository.ErrUserNotFound, "User not found")
	}
	return success(c, "User updated successfully", h.present(u))
}

// Delete removes a user (admin).
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "User not found")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return storeError(c, "delete user", err, repository.ErrUserNotFound, "User not found")
	}
	return success(c, "User deleted successfully", nil)
}
