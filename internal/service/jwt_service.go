package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"estate-market/internal/domain"
)

// TokenTTL es la vigencia de un token de sesion.
const TokenTTL = 24 * time.Hour

// JWTService emite y valida tokens JWT.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type Claims struct {
	AdminID int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = TokenTTL
	}
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "estate-market",
		now:    time.Now,
	}
}

// Issue firma un token para el administrador autenticado.
func (s *JWTService) Issue(admin domain.Admin) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrJWTInvalid
	}
	now := s.now().UTC()
	claims := Claims{
		AdminID: admin.ID,
		Email:   admin.Email,
		Name:    admin.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(admin.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) Verify(tokenString string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) parseToken(tokenString string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if claims.AdminID <= 0 {
		return false
	}
	if claims.Subject != strconv.FormatInt(claims.AdminID, 10) {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
