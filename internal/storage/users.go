package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStore はユーザーレコードの作成と検索を担います。
// 一意性はデータベースの一意インデックスで保証し、アプリ側ではロックしません。
type UserStore struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewUserStore は UserStore を作成します。
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// NormalizeEmail はメールアドレスを比較用に正規化します（前後の空白除去と小文字化）。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create はユーザーを1件保存します。
// 入力がスキーマ規則に反する場合は *ValidationError、一意制約に違反した場合は ErrDuplicateKey を返します。
func (s *UserStore) Create(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}

	user.Username = strings.TrimSpace(user.Username)
	user.Email = NormalizeEmail(user.Email)
	if err := s.check(user); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを検索します。存在しない場合は nil, nil を返します。
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, "email = ?", NormalizeEmail(email))
}

// FindByID は ID でユーザーを検索します。存在しない場合は nil, nil を返します。
func (s *UserStore) FindByID(ctx context.Context, id string) (*User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *UserStore) findOne(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *UserStore) check(user *User) error {
	if err := s.validate.Struct(user); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return toValidationError(fieldErrs[0])
		}
		return err
	}
	// 平文のパスワードが紛れ込んでいないことを確認する
	if _, err := bcrypt.Cost([]byte(user.PasswordHash)); err != nil {
		return &ValidationError{Field: "passwordHash", Message: "Password hash is malformed."}
	}
	return nil
}

func toValidationError(fe validator.FieldError) *ValidationError {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("Please provide a %s.", field)
	case "email":
		msg = "Please provide a valid email address."
	case "max":
		msg = fmt.Sprintf("The %s must be at most %s characters.", field, fe.Param())
	default:
		msg = fmt.Sprintf("The %s is invalid.", field)
	}
	return &ValidationError{Field: field, Message: msg}
}
