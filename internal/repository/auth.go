package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yatrinivas/internal/database"
	"yatrinivas/internal/models"
)

// Auth holds the single session record. There is no credential check.
type Auth struct {
	kv    database.KV
	delay time.Duration
}

func NewAuth(kv database.KV, delay time.Duration) *Auth {
	return &Auth{kv: kv, delay: delay}
}

// Me returns the session user, or nil when logged out.
func (a *Auth) Me(ctx context.Context) (*models.User, error) {
	if err := sleep(ctx, a.delay); err != nil {
		return nil, err
	}
	raw, err := a.kv.Get(ctx, database.KeyUser)
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var user *models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode %s: %w", database.KeyUser, err)
	}
	return user, nil
}

// Login writes the admin session record.
func (a *Auth) Login(ctx context.Context) (*models.User, error) {
	if err := sleep(ctx, a.delay); err != nil {
		return nil, err
	}
	user := models.AdminUser()
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := a.kv.Set(ctx, database.KeyUser, raw); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout clears the session record.
func (a *Auth) Logout(ctx context.Context) error {
	if err := sleep(ctx, a.delay); err != nil {
		return err
	}
	return a.kv.Set(ctx, database.KeyUser, []byte("null"))
}
