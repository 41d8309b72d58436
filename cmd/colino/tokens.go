package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Token is the locally persisted credential for one user id.
type Token struct {
	ID           uint
	UserID       string `gorm:"uniqueIndex"`
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func defaultDbPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config dir: %w", err)
	}

	dir = filepath.Join(dir, "colino")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("could not create config dir: %w", err)
	}

	return filepath.Join(dir, "colino.db"), nil
}

func openDb(path string) (*gorm.DB, error) {
	if path == "" {
		p, err := defaultDbPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not open token database: %w", err)
	}

	if err := db.AutoMigrate(&Token{}); err != nil {
		return nil, fmt.Errorf("could not migrate token database: %w", err)
	}

	return db, nil
}

func saveToken(db *gorm.DB, userId string, payload *tokenPayload) error {
	tok := &Token{
		UserID:       userId,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
		Scope:        payload.Scope,
		ExpiresAt:    time.Unix(payload.ExpiresAt, 0),
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(tok).Error; err != nil {
		return fmt.Errorf("could not save token: %w", err)
	}

	return nil
}

func getToken(db *gorm.DB, userId string) (*Token, error) {
	var tok Token
	if err := db.Raw("SELECT * FROM tokens WHERE user_id = ?", userId).Scan(&tok).Error; err != nil {
		return nil, fmt.Errorf("could not read token: %w", err)
	}

	if tok.UserID == "" {
		return nil, fmt.Errorf("no tokens found for user %s; run `colino auth` first", userId)
	}

	return &tok, nil
}

// freshToken returns the stored token for userId, refreshing it through the
// broker when it is about to expire. A rotated refresh token replaces the
// stored one; when the broker returns none, the old one is kept.
func freshToken(ctx context.Context, db *gorm.DB, broker *brokerClient, userId string) (*Token, error) {
	tok, err := getToken(db, userId)
	if err != nil {
		return nil, err
	}

	if time.Until(tok.ExpiresAt) > time.Minute {
		return tok, nil
	}

	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("access token expired and no refresh token stored; run `colino auth` again")
	}

	if broker == nil {
		return nil, fmt.Errorf("access token expired; set --broker-url to refresh or run `colino auth` again")
	}

	payload, err := broker.refresh(ctx, tok.RefreshToken)
	if err != nil {
		return nil, err
	}

	if payload.RefreshToken == "" {
		payload.RefreshToken = tok.RefreshToken
	}

	if err := saveToken(db, userId, payload); err != nil {
		return nil, err
	}

	return getToken(db, userId)
}
