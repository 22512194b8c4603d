package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	// Security failures keep their own sentinels so callers can tell them
	// apart from "no results". Never remap these to ErrInternal.
	ErrAttestationFailed = errors.New("attestation failed, key release denied")
	ErrIntegrity         = errors.New("ciphertext integrity check failed")
	ErrScopeReleased     = errors.New("confidential scope already released")

	ErrExtraction = errors.New("text extraction failed")
	ErrEmbedding  = errors.New("embedding generation failed")
	ErrStorage    = errors.New("blob storage failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
