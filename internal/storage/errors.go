package storage

import (
	"errors"
	"fmt"
)

// ErrDuplicateKey はユーザー名またはメールアドレスが既に登録されている場合に返されます。
var ErrDuplicateKey = errors.New("username or email already exists")

// ValidationError はスキーマ規則に違反した入力を表します。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}
