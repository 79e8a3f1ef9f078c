package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeTTL is the validity window of an email verification code.
const CodeTTL = 10 * time.Minute

var ErrCodeInvalid = errors.New("verification code invalid or expired")

// VerificationService hands out short-lived 6-digit codes backed by Redis.
type VerificationService struct {
	rdb *redis.Client
}

func NewVerificationService(rdb *redis.Client) *VerificationService {
	return &VerificationService{rdb: rdb}
}

func codeKey(email string) string {
	return "verify:" + email
}

// IssueCode generates a code for the address and stores it for CodeTTL.
// Re-issuing replaces any previous code.
func (v *VerificationService) IssueCode(ctx context.Context, email string) (string, error) {
	code := fmt.Sprintf("%06d", rand.Intn(1000000))
	if err := v.rdb.Set(ctx, codeKey(email), code, CodeTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return code, nil
}

// VerifyCode checks the code and consumes it on success.
func (v *VerificationService) VerifyCode(ctx context.Context, email, code string) error {
	stored, err := v.rdb.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to load verification code: %w", err)
	}
	if stored != code {
		return ErrCodeInvalid
	}
	if err := v.rdb.Del(ctx, codeKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}
	return nil
}
