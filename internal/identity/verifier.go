// Package identity 校验外部身份提供者签发的 token，并在本地镜像用户资料
package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// minSecretLength HS256 密钥最小长度
const minSecretLength = 32

// Claims 身份提供者 token 中我们关心的字段
type Claims struct {
	Subject string `mapstructure:"sub" json:"sub"`
	Name    string `mapstructure:"name" json:"name"`
	Email   string `mapstructure:"email" json:"email"`
	Picture string `mapstructure:"picture" json:"picture"`
}

// Verifier HS256 token 校验器
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier issuer 为空时不校验 iss
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("identity secret must be at least %d characters long, got %d", minSecretLength, len(secret))
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify 校验签名与有效期，返回身份声明
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := v.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}

	var claims Claims
	if err := mapstructure.Decode(map[string]interface{}(mapClaims), &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}
