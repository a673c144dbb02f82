package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultAccessTTL = 60 * time.Minute

// Errores de validacion de tokens. Todos envuelven ErrTokenInvalid.
var (
	ErrTokenInvalid     = errors.New("token invalid")
	ErrTokenMalformed   = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrTokenSignature   = fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	ErrTokenExpired     = fmt.Errorf("%w: expired", ErrTokenInvalid)
	ErrTokenUnsupported = fmt.Errorf("%w: unsupported", ErrTokenInvalid)
)

// TokenIssuer emite access tokens para un userId.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// TokenService emite y valida access tokens HS256 con claims {sub, iat, exp}.
// Es inmutable despues de construido y seguro para uso concurrente.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// TTL devuelve la duracion fija de los tokens emitidos.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Issue(userID string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(userID) == "" {
		return "", ErrTokenUnsupported
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate verifica firma y vigencia y devuelve el subject.
func (s *TokenService) Validate(token string) (string, error) {
	claims, err := s.parse(token, true)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExpiryOf devuelve el exp de un token con firma valida, este vencido o no.
func (s *TokenService) ExpiryOf(token string) (time.Time, error) {
	claims, err := s.parse(token, false)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

// IsExpired indica si un token con firma valida ya vencio.
func (s *TokenService) IsExpired(token string) (bool, error) {
	exp, err := s.ExpiryOf(token)
	if err != nil {
		return false, err
	}
	return s.now().After(exp), nil
}

func (s *TokenService) parse(tokenString string, validateTimes bool) (jwt.RegisteredClaims, error) {
	if len(s.secret) == 0 {
		return jwt.RegisteredClaims{}, ErrTokenUnsupported
	}
	if strings.TrimSpace(tokenString) == "" {
		return jwt.RegisteredClaims{}, ErrTokenMalformed
	}

	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if validateTimes {
		opts = append(opts, jwt.WithExpirationRequired(), jwt.WithIssuedAt())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	parser := jwt.NewParser(opts...)

	var claims jwt.RegisteredClaims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return jwt.RegisteredClaims{}, classifyJWTError(err)
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ExpiresAt == nil {
		return jwt.RegisteredClaims{}, ErrTokenUnsupported
	}
	return claims, nil
}

// classifyJWTError colapsa los errores de jwt/v5 en la taxonomia del servicio.
// jwt/v5 verifica la firma antes que los claims, por lo que un token vencido
// con firma invalida se reporta como ErrTokenSignature.
func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenUnsupported
	}
}
