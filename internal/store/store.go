package store

import (
	"errors"
	"log"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/models"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.Principal{},
		&models.Client{},
	); err != nil {
		return nil, err
	}

	store := &Store{db: db}

	// Seed default data
	if err := store.seedData(); err != nil {
		log.Printf("Warning: failed to seed data: %v", err)
	}

	return store, nil
}

func (s *Store) seedData() error {
	var clientCount int64
	s.db.Model(&models.Client{}).Count(&clientCount)
	if clientCount == 0 {
		clientID := uuid.New().String()
		clientSecret := uuid.New().String()
		salt, err := util.CryptoRandomString(20)
		if err != nil {
			return err
		}
		client := &models.Client{
			ClientID:         clientID,
			ClientName:       "ViTransfer Player",
			ClientSecretHash: util.HashPassword(clientSecret, salt),
			ClientSecretSalt: salt,
			IsActive:         true,
		}
		if err := s.db.Create(client).Error; err != nil {
			return err
		}
		log.Printf("Created default client: %s (ViTransfer Player)", clientID)
		log.Printf("Client Secret (save this): %s", clientSecret)
	}

	return nil
}

// Client operations

func (s *Store) GetClient(clientID string) (*models.Client, error) {
	var client models.Client
	if err := s.db.Where("client_id = ?", clientID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (s *Store) CreateClient(client *models.Client) error {
	return s.db.Create(client).Error
}

// Principal operations

func (s *Store) GetPrincipal(id string) (*models.Principal, error) {
	var principal models.Principal
	if err := s.db.Where("id = ?", id).First(&principal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &principal, nil
}

func (s *Store) GetPrincipalByEmail(email string) (*models.Principal, error) {
	var principal models.Principal
	if err := s.db.Where("email = ?", email).First(&principal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &principal, nil
}

func (s *Store) CreatePrincipal(principal *models.Principal) error {
	var count int64
	s.db.Model(&models.Principal{}).Where("email = ?", principal.Email).Count(&count)
	if count > 0 {
		return ErrEmailConflict
	}
	if principal.ID == "" {
		principal.ID = uuid.New().String()
	}
	return s.db.Create(principal).Error
}

// UpdatePassword replaces a principal's password hash and salt.
func (s *Store) UpdatePassword(principalID, newPassword string) error {
	salt, err := util.CryptoRandomString(20)
	if err != nil {
		return err
	}

	result := s.db.Model(&models.Principal{}).
		Where("id = ?", principalID).
		Updates(map[string]any{
			"password_hash": util.HashPassword(newPassword, salt),
			"password_salt": salt,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
