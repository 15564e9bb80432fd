package apitest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrDuplicateEmail is returned when a user with the same email exists.
var ErrDuplicateEmail = errors.New("email already exists")

// ErrUnknownUser is returned when an order references a missing user.
var ErrUnknownUser = errors.New("user not found")

// UserRecord is the users table.
type UserRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for UserRecord.
func (UserRecord) TableName() string {
	return "users"
}

// OrderRecord is the orders table.
type OrderRecord struct {
	ID          int64       `gorm:"primaryKey;autoIncrement"`
	UserID      int64       `gorm:"not null;index"`
	User        *UserRecord `gorm:"foreignKey:UserID"`
	ProductName string      `gorm:"not null"`
	Amount      float64     `gorm:"not null"`
	CreatedAt   time.Time   `gorm:"not null"`
}

// TableName specifies the table name for OrderRecord.
func (OrderRecord) TableName() string {
	return "orders"
}

// Store is an in-memory SQLite database behind the fake backend.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// NewStore opens a private in-memory database and migrates the schema.
func NewStore(log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: NewGormLogger(log, 200*time.Millisecond, "warn"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// One connection keeps the in-memory database alive and shared.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&UserRecord{}, &OrderRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	// Creation times are strictly increasing so newest-first order is stable.
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	var tick int64
	return &Store{
		db:  db,
		log: log,
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser inserts a user; email must be unique.
func (s *Store) CreateUser(ctx context.Context, name, email string) (*UserRecord, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&UserRecord{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateEmail
	}

	rec := UserRecord{Name: name, Email: email, CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &rec, nil
}

// GetUser returns the user with id, or nil when it does not exist.
func (s *Store) GetUser(ctx context.Context, id int64) (*UserRecord, error) {
	var rec UserRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &rec, nil
}

// ListUsers returns one page of users, newest first, filtered by name or email.
func (s *Store) ListUsers(ctx context.Context, q string, page, limit int64) ([]UserRecord, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if like := likePattern(q); like != "" {
			return db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&UserRecord{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var recs []UserRecord
	err := s.db.WithContext(ctx).Scopes(filter, paginate(page, limit)).Order("created_at DESC").Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return recs, total, nil
}

// AllUsers returns every user ordered by id.
func (s *Store) AllUsers(ctx context.Context) ([]UserRecord, error) {
	var recs []UserRecord
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	return recs, nil
}

// CreateOrder inserts an order for an existing user.
func (s *Store) CreateOrder(ctx context.Context, userID int64, product string, amount float64) (*OrderRecord, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnknownUser
	}

	rec := OrderRecord{UserID: userID, ProductName: product, Amount: amount, CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	rec.User = u
	return &rec, nil
}

// ListOrders returns one page of orders with their users, newest first,
// filtered by product name or user name/email.
func (s *Store) ListOrders(ctx context.Context, q string, page, limit int64) ([]OrderRecord, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if like := likePattern(q); like != "" {
			return db.
				Joins("LEFT JOIN users ON users.id = orders.user_id").
				Where("LOWER(orders.product_name) LIKE ? OR LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?", like, like, like)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&OrderRecord{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var recs []OrderRecord
	err := s.db.WithContext(ctx).Model(&OrderRecord{}).Scopes(filter, paginate(page, limit)).
		Preload("User").Order("orders.created_at DESC").Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return recs, total, nil
}

// OrdersOfUser returns every order of one user, newest first.
func (s *Store) OrdersOfUser(ctx context.Context, userID int64) ([]OrderRecord, error) {
	var recs []OrderRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	return recs, nil
}

// AllOrders returns every order ordered by id.
func (s *Store) AllOrders(ctx context.Context) ([]OrderRecord, error) {
	var recs []OrderRecord
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to export orders: %w", err)
	}
	return recs, nil
}

func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return ""
	}
	return "%" + q + "%"
}

func paginate(page, limit int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(int((page - 1) * limit)).Limit(int(limit))
	}
}
