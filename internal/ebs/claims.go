package ebs

import (
	"context"

	jwt "github.com/dgrijalva/jwt-go"
)

type contextKey string

const (
	authClaimsKey contextKey = "ebsAuthClaims"
	bitsClaimsKey contextKey = "ebsBitsClaims"
)

// AuthClaims are carried by the extension's Authorization header and by the
// tokens the service signs for PubSub.
type AuthClaims struct {
	OpaqueUserID string      `json:"opaque_user_id,omitempty"`
	UserID       string      `json:"user_id"`
	ChannelID    string      `json:"channel_id,omitempty"`
	Role         string      `json:"role"`
	Permissions  Permissions `json:"pubsub_perms"`
	jwt.StandardClaims
}

// Permissions lists the PubSub targets a token may use.
type Permissions struct {
	Send   []string `json:"send,omitempty"`
	Listen []string `json:"listen,omitempty"`
}

// BitsClaims is a Bits transaction receipt.
type BitsClaims struct {
	Topic string      `json:"topic"`
	Data  Transaction `json:"data"`
	jwt.StandardClaims
}

// Transaction describes one Bits purchase.
type Transaction struct {
	Product       Product `json:"product"`
	Time          string  `json:"time"`
	TransactionID string  `json:"transactionId"`
	UserID        string  `json:"userId"`
}

// Product is the purchased extension product.
type Product struct {
	DomainID      string `json:"domainId"`
	SKU           string `json:"sku"`
	DisplayName   string `json:"displayName"`
	Cost          Cost   `json:"cost"`
	InDevelopment bool   `json:"inDevelopment"`
}

// Cost is the price of a product.
type Cost struct {
	Amount int64  `json:"amount"`
	Type   string `json:"type"`
}

func withAuthClaims(ctx context.Context, c *AuthClaims) context.Context {
	return context.WithValue(ctx, authClaimsKey, c)
}

// AuthClaimsFrom returns the verified auth claims of a request, or empty
// claims when none were attached.
func AuthClaimsFrom(ctx context.Context) *AuthClaims {
	if c, ok := ctx.Value(authClaimsKey).(*AuthClaims); ok {
		return c
	}
	return &AuthClaims{}
}

func withBitsClaims(ctx context.Context, c *BitsClaims) context.Context {
	return context.WithValue(ctx, bitsClaimsKey, c)
}

// BitsClaimsFrom returns the verified Bits receipt of a request.
func BitsClaimsFrom(ctx context.Context) *BitsClaims {
	if c, ok := ctx.Value(bitsClaimsKey).(*BitsClaims); ok {
		return c
	}
	return &BitsClaims{}
}
