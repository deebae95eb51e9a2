package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

var (
	ErrInvalidAuthCode = errors.New("invalid authorization code")
	ErrProviderError   = errors.New("OAuth provider error")
)

// TokenIssuer signs API tokens for a user id
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// OAuthConfig holds the login provider settings
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// OAuthService runs the authorization code flow against one provider and
// exchanges the provider identity for an API token
type OAuthService struct {
	oauth       *oauth2.Config
	userInfoURL string
	tokens      TokenIssuer
	httpClient  *http.Client
	logger      *slog.Logger
}

// OAuthServiceConfig holds configuration for the OAuth service
type OAuthServiceConfig struct {
	Config     OAuthConfig
	Tokens     TokenIssuer
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewOAuthService creates a new OAuth service
func NewOAuthService(cfg OAuthServiceConfig) *OAuthService {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OAuthService{
		oauth: &oauth2.Config{
			ClientID:     cfg.Config.ClientID,
			ClientSecret: cfg.Config.ClientSecret,
			RedirectURL:  cfg.Config.RedirectURL,
			Scopes:       cfg.Config.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.Config.AuthURL,
				TokenURL: cfg.Config.TokenURL,
			},
		},
		userInfoURL: cfg.Config.UserInfoURL,
		tokens:      cfg.Tokens,
		httpClient:  client,
		logger:      logger,
	}
}

// OAuthLogin is the result of a completed login
type OAuthLogin struct {
	UserID string
	Token  string
}

// AuthCodeURL returns the provider consent page for state
func (s *OAuthService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Authenticate exchanges an authorization code, looks up the provider's
// user id and signs an API token for it
func (s *OAuthService) Authenticate(ctx context.Context, code string) (*OAuthLogin, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("oauth code exchange failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrInvalidAuthCode, err)
	}

	userID, err := s.fetchUserID(ctx, tok)
	if err != nil {
		s.logger.Warn("oauth user lookup failed", slog.String("error", err.Error()))
		return nil, err
	}

	token, err := s.tokens.GenerateToken(userID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("oauth login", slog.String("user_id", userID))
	return &OAuthLogin{UserID: userID, Token: token}, nil
}

// providerUser accepts both the "id" and the OpenID "sub" spelling
type providerUser struct {
	ID  string `json:"id"`
	Sub string `json:"sub"`
}

func (s *OAuthService) fetchUserID(ctx context.Context, tok *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: user info returned %d: %s", ErrProviderError, resp.StatusCode, body)
	}

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("%w: decode user info: %v", ErrProviderError, err)
	}

	id := user.ID
	if id == "" {
		id = user.Sub
	}
	if id == "" {
		return "", fmt.Errorf("%w: user info has no id", ErrProviderError)
	}
	return id, nil
}
