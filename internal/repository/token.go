package repository

import (
	"encoding/base64"
	"fmt"

	apperrors "github.com/camilomoreno07/gorkis-api/pkg/errors"
)

// EncodeToken turns the last key of a page into an opaque continuation token.
func EncodeToken(lastServiceID string) string {
	if lastServiceID == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(lastServiceID))
}

// DecodeToken returns the key a continuation token resumes after.
func DecodeToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) == 0 {
		return "", fmt.Errorf("%w: malformed nextToken", apperrors.ErrInvalidInput)
	}
	return string(raw), nil
}
