// Package ebs is the extension backend: it verifies Bits receipts sent by the
// viewer panel and broadcasts the purchased SKU to the channel over PubSub.
package ebs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

const (
	authHeaderName      = "Authorization"
	authHeaderPrefix    = "Bearer "
	minLegalTokenLength = len(authHeaderPrefix) + 5

	// DefaultPubSubURL is prefixed to the channel ID.
	DefaultPubSubURL = "https://api.twitch.tv/extensions/message/"
	// DefaultCooldown is the per-channel minimum gap between broadcasts.
	DefaultCooldown = time.Second

	tokenLifetime = 3 * time.Minute
)

var (
	// ErrCooldown is returned by Send while the channel is cooling down.
	ErrCooldown = errors.New("ebs: channel in cooldown")
	// ErrMissingCredentials is returned by New when an identity field is empty.
	ErrMissingCredentials = errors.New("ebs: client ID, owner ID and secret are required")
)

// Message is the PubSub payload.
type Message struct {
	ContentType string   `json:"content_type"`
	Targets     []string `json:"targets"`
	Message     string   `json:"message"`
}

// Service holds the extension identity and per-channel cooldowns.
type Service struct {
	parser    jwt.Parser
	clientID  string
	ownerID   string
	secret    []byte
	pubsubURL string
	cooldown  time.Duration
	client    *http.Client
	now       func() time.Time

	mu       sync.Mutex
	nextSend map[string]time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPubSubURL overrides the PubSub endpoint prefix.
func WithPubSubURL(url string) Option {
	return func(s *Service) { s.pubsubURL = url }
}

// WithCooldown overrides the per-channel cooldown.
func WithCooldown(d time.Duration) Option {
	return func(s *Service) { s.cooldown = d }
}

// WithHTTPClient sets the client used for PubSub requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// WithClock replaces time.Now for cooldown and token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// DecodeSecret decodes the base64 extension secret.
func DecodeSecret(b64 string) ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("ebs: decode secret: %w", err)
	}
	return secret, nil
}

// New creates a Service.
func New(clientID, ownerID string, secret []byte, opts ...Option) (*Service, error) {
	if clientID == "" || ownerID == "" || len(secret) == 0 {
		return nil, ErrMissingCredentials
	}
	s := &Service{
		parser:    jwt.Parser{ValidMethods: []string{"HS256"}},
		clientID:  clientID,
		ownerID:   ownerID,
		secret:    secret,
		pubsubURL: DefaultPubSubURL,
		cooldown:  DefaultCooldown,
		client:    http.DefaultClient,
		now:       time.Now,
		nextSend:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler routes the API and, when clientDir is set, the static viewer panel.
func (s *Service) Handler(clientDir string) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/fireworks", s.fireworksHandler).Methods(http.MethodPost)
	api.Use(s.verifyAuthJWT)
	api.Use(s.verifyBitsJWT)

	if clientDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(clientDir)))
	}

	return handlers.CORS(handlers.AllowedHeaders([]string{authHeaderName}))(r)
}

func (s *Service) fireworksHandler(w http.ResponseWriter, r *http.Request) {
	auth := AuthClaimsFrom(r.Context())
	bits := BitsClaimsFrom(r.Context())

	err := s.Send(r.Context(), auth.ChannelID, bits.Data.Product.SKU)
	switch {
	case errors.Is(err, ErrCooldown):
		log.Printf("[EBS] channel %s in cooldown, dropped %q", auth.ChannelID, bits.Data.Product.SKU)
	case err != nil:
		log.Printf("[EBS] pubsub: %v", err)
		http.Error(w, "Could not broadcast purchase", http.StatusBadGateway)
		return
	}
	_, _ = w.Write([]byte(http.StatusText(http.StatusOK)))
}

func (s *Service) key(*jwt.Token) (interface{}, error) {
	return s.secret, nil
}

func (s *Service) verifyBitsJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		b, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var body struct {
			TransactionToken string `json:"token"`
		}
		if err := json.Unmarshal(b, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		parsed, err := s.parser.ParseWithClaims(body.TransactionToken, &BitsClaims{}, s.key)
		if err != nil {
			log.Printf("[EBS] bits token: %v", err)
			http.Error(w, "Could not parse Bits transaction token", http.StatusInternalServerError)
			return
		}

		claims, ok := parsed.Claims.(*BitsClaims)
		if !ok || !parsed.Valid {
			log.Println("[EBS] invalid Bits claims")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withBitsClaims(r.Context(), claims)))
	})
}

func (s *Service) verifyAuthJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens, ok := r.Header[authHeaderName]
		if !ok {
			log.Println("[EBS] missing authorization header")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if len(tokens) != 1 {
			log.Println("[EBS] multiple authorization headers")
			http.Error(w, "Multiple authorization headers found; only one header should be sent", http.StatusUnauthorized)
			return
		}

		token := tokens[0]
		if !strings.HasPrefix(token, authHeaderPrefix) || len(token) < minLegalTokenLength {
			log.Println("[EBS] malformed authorization header")
			http.Error(w, "Malformed authorization header", http.StatusUnauthorized)
			return
		}
		token = strings.TrimPrefix(token, authHeaderPrefix)

		parsed, err := s.parser.ParseWithClaims(token, &AuthClaims{}, s.key)
		if err != nil {
			log.Printf("[EBS] auth token: %v", err)
			http.Error(w, "Could not parse authorization header", http.StatusInternalServerError)
			return
		}

		claims, ok := parsed.Claims.(*AuthClaims)
		if !ok || !parsed.Valid {
			log.Println("[EBS] invalid auth claims")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withAuthClaims(r.Context(), claims)))
	})
}

// SignToken creates a service-signed token allowed to broadcast on channelID.
func (s *Service) SignToken(channelID string) (string, error) {
	claims := AuthClaims{
		UserID:    s.ownerID,
		ChannelID: channelID,
		Role:      "external",
		Permissions: Permissions{
			Send: []string{"broadcast"},
		},
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: s.now().Add(tokenLifetime).Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("ebs: sign token: %w", err)
	}
	return signed, nil
}

// InCooldown reports whether channelID sent recently. When it did not, the
// cooldown window is started.
func (s *Service) InCooldown(channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if next, found := s.nextSend[channelID]; found && next.After(now) {
		return true
	}
	s.nextSend[channelID] = now.Add(s.cooldown)
	return false
}

// Send broadcasts sku to channelID.
func (s *Service) Send(ctx context.Context, channelID, sku string) error {
	if s.InCooldown(channelID) {
		return ErrCooldown
	}

	body, err := json.Marshal(Message{
		ContentType: "application/json",
		Targets:     []string{"broadcast"},
		Message:     sku,
	})
	if err != nil {
		return fmt.Errorf("ebs: encode message: %w", err)
	}

	token, err := s.SignToken(channelID)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.pubsubURL+channelID, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ebs: build request: %w", err)
	}
	req.Header.Set("Client-Id", s.clientID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authHeaderName, authHeaderPrefix+token)

	log.Printf("[EBS] sending SKU %s via PubSub for channel %s", sku, channelID)
	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ebs: pubsub request: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.StatusCode >= 300 {
		return fmt.Errorf("ebs: pubsub status %d", res.StatusCode)
	}
	return nil
}
