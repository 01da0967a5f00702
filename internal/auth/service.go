package auth

import (
	"context"
	"sync"
	"time"

	"oilcert/internal/auth/secrets"
	jwttoken "oilcert/internal/jwt_token"
	id "oilcert/pkg/domain"
	dErrors "oilcert/pkg/domain-errors"
)

// tokenTTL bounds how long an issued actor token stays usable.
const tokenTTL = time.Hour

// ServiceAccount is a machine identity that can exchange its secret for an
// actor token. Role membership is managed separately by the rbac service.
type ServiceAccount struct {
	Identity   id.Identity
	SecretHash string
}

// Service implements the client-credentials exchange for the HTTP adapter.
// Accounts live in memory: they are few, configured at startup, and the
// source of truth for what they may do is the role store, not this table.
type Service struct {
	mu       sync.RWMutex
	accounts map[id.Identity]ServiceAccount
	tokens   *jwttoken.JWTService
}

func New(tokens *jwttoken.JWTService) *Service {
	return &Service{
		accounts: make(map[id.Identity]ServiceAccount),
		tokens:   tokens,
	}
}

// Register adds a service account with a pre-hashed secret.
func (s *Service) Register(identity id.Identity, secretHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[identity] = ServiceAccount{Identity: identity, SecretHash: secretHash}
}

// RegisterWithSecret hashes and stores a plaintext secret. Used by startup
// seeding.
func (s *Service) RegisterWithSecret(identity id.Identity, secret string) error {
	hash, err := secrets.Hash(secret)
	if err != nil {
		return err
	}
	s.Register(identity, hash)
	return nil
}

// Authenticate verifies the identity/secret pair and returns a signed actor
// token. Unknown identities and bad secrets both report unauthorized so the
// endpoint does not leak which accounts exist.
func (s *Service) Authenticate(_ context.Context, identity id.Identity, secret string) (string, error) {
	s.mu.RLock()
	account, ok := s.accounts[identity]
	s.mu.RUnlock()
	if !ok {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := secrets.Verify(secret, account.SecretHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credentials")
	}

	token, err := s.tokens.GenerateActorToken(identity.String(), tokenTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return token, nil
}
