package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-listing-server/accounts"
	"github.com/jrsteele09/go-listing-server/internal/config"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
	"github.com/jrsteele09/go-listing-server/storage"
	"github.com/jrsteele09/go-listing-server/token"
	"github.com/jrsteele09/go-listing-server/token/refresh"
	"github.com/jrsteele09/go-listing-server/users"
	"github.com/rs/zerolog/log"
)

// Provider is the identity provider side of the authorization-code flow.
type Provider interface {
	ConsentURL(state string) string
	Exchange(ctx context.Context, code string) (oauthmodel.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (oauthmodel.TokenSet, error)
	FetchProfile(ctx context.Context, accessToken string) (oauthmodel.IdentityProfile, error)
}

// Config is the configuration the service reads.
type Config interface {
	config.OAuthConfig
	config.ProviderConfig
}

// CallbackResult is the outcome of a successful callback.
type CallbackResult struct {
	SessionToken  string
	SessionMaxAge time.Duration
	RedirectPath  string
	User          *users.User
	Account       *accounts.Account
	// DirectAuth is set when the state did not verify and the flow continued
	// on the selling partner id alone.
	DirectAuth bool
}

// AuthorizationService runs the marketplace login flow.
type AuthorizationService struct {
	provider   Provider
	tokens     *token.Manager
	repos      storage.Repos
	transactor storage.Transactor
	config     Config
	nowTime    func() time.Time
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

// WithTransactor makes the user and account upserts of a callback atomic.
func WithTransactor(tx storage.Transactor) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.transactor = tx
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
func NewAuthorizationService(provider Provider, tokens *token.Manager, repos storage.Repos, cfg Config, options ...AuthorizationServiceOption) (*AuthorizationService, error) {
	if provider == nil || tokens == nil || repos.Users == nil || repos.Accounts == nil || cfg == nil {
		return nil, fmt.Errorf("[NewAuthorizationService] %w: missing dependency", liberrors.ErrNotInitialized)
	}
	as := &AuthorizationService{
		provider: provider,
		tokens:   tokens,
		repos:    repos,
		config:   cfg,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(as)
	}
	return as, nil
}

// BeginAuthorization signs a state token for the seller and returns the
// provider consent URL to redirect to.
func (as *AuthorizationService) BeginAuthorization(params oauthmodel.AuthorizationParameters) (string, error) {
	if err := ValidateAuthorizationParameters(params); err != nil {
		return "", err
	}

	state, err := as.tokens.IssueState(token.StateData{
		SellerID:            params.SellerID,
		OriginalRedirectURI: params.RedirectURI,
		Timestamp:           as.nowTime(),
	})
	if err != nil {
		return "", liberrors.Wrapf(err, "[BeginAuthorization] issue state")
	}

	log.Info().Str("seller_id", params.SellerID).Bool("draft", as.config.IsDraftApplication()).Msg("starting marketplace authorization")
	return as.provider.ConsentURL(state), nil
}

// HandleCallback runs the callback state machine. Every failure is returned
// as a *CallbackError.
func (as *AuthorizationService) HandleCallback(ctx context.Context, params oauthmodel.CallbackParameters) (*CallbackResult, error) {
	logger := log.With().
		Bool("has_state", params.State != "").
		Bool("has_code", params.Code != "").
		Str("selling_partner_id", params.SellingPartnerID).
		Logger()

	if params.Error != "" {
		logger.Warn().Str("error", params.Error).Str("error_description", params.ErrorDescription).Msg("provider returned an authorization error")
		return nil, callbackError(params.Error, params.ErrorDescription, nil)
	}

	if params.State == "" || params.Code == "" {
		logger.Warn().Msg("callback missing required parameters")
		return nil, callbackError(CodeMissingParameters, "Missing required authorization parameters", liberrors.ErrMissingParameter)
	}

	result := &CallbackResult{SessionMaxAge: as.tokens.SessionExpiry()}

	state, err := as.tokens.VerifyState(params.State)
	if err != nil {
		// Seller Central initiated flows carry no state issued by us
		logger.Warn().Err(err).Str("auth_source", "direct_auth").Msg("state did not verify, continuing as direct authorization")
		state = &token.StateData{
			SellerID:            params.SellingPartnerID,
			OriginalRedirectURI: as.config.GetDefaultCallbackPath(),
			Timestamp:           as.nowTime(),
		}
		result.DirectAuth = true
	}

	tokens, err := as.provider.Exchange(ctx, params.Code)
	if err != nil {
		logger.Err(err).Msg("token exchange failed")
		return nil, callbackError(CodeTokenExchangeFailed, exchangeDescription(err), err)
	}

	profile, err := as.provider.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		logger.Err(err).Msg("profile fetch failed")
		return nil, callbackError(CodeProfileFetchFailed, "Failed to fetch user profile", err)
	}

	sellerID := params.SellingPartnerID
	if sellerID == "" {
		sellerID = state.SellerID
	}

	user, account, err := as.persist(ctx, profile, sellerID, tokens)
	if err != nil {
		logger.Err(err).Str("provider_account_id", profile.ExternalUserID).Msg("persisting login failed")
		return nil, callbackError(CodePersistFailed, err.Error(), err)
	}
	result.User = user
	result.Account = account

	result.SessionToken, err = as.tokens.MintSession(token.SessionData{
		UserID:            user.ID,
		Email:             user.Email,
		SellerID:          sellerID,
		ProviderAccountID: profile.ExternalUserID,
		Tokens:            tokens,
	})
	if err != nil {
		logger.Err(err).Msg("session mint failed")
		return nil, callbackError(CodeSessionMintFailed, "Session token creation failed", err)
	}

	result.RedirectPath = PostLoginPath(state.OriginalRedirectURI, as.config.GetDefaultCallbackPath())
	logger.Info().
		Str("user_id", user.ID).
		Bool("direct_auth", result.DirectAuth).
		Str("redirect", result.RedirectPath).
		Msg("marketplace login completed")
	return result, nil
}

// persist upserts the user and then the account. With a transactor both
// writes share one transaction.
func (as *AuthorizationService) persist(ctx context.Context, profile oauthmodel.IdentityProfile, sellerID string, tokens oauthmodel.TokenSet) (*users.User, *accounts.Account, error) {
	var (
		user    *users.User
		account *accounts.Account
	)
	write := func(repos storage.Repos) error {
		var err error
		user, err = repos.Users.UpsertByEmail(ctx, profile.Email, users.Fields{
			Name:                profile.DisplayName,
			AmazonSellerID:      sellerID,
			AmazonMarketplaceID: as.config.GetMarketplaceID(),
			AmazonRegion:        as.config.GetRegion(),
		})
		if err != nil {
			return fmt.Errorf("%w: %w: %w", liberrors.ErrPersistFailed, liberrors.ErrUserUpsert, err)
		}

		tokens.TokenType = oauthmodel.BearerTokenType
		if tokens.Scope == "" {
			tokens.Scope = as.config.GetScope()
		}
		account, err = repos.Accounts.Upsert(ctx,
			accounts.Key{Provider: oauthmodel.ProviderAmazon, ProviderAccountID: profile.ExternalUserID},
			accounts.Fields{UserID: user.ID, Tokens: tokens},
		)
		if err != nil {
			return fmt.Errorf("%w: %w: %w", liberrors.ErrPersistFailed, liberrors.ErrAccountUpsert, err)
		}
		return nil
	}

	var err error
	if as.transactor != nil {
		err = as.transactor.InTx(ctx, write)
	} else {
		err = write(as.repos)
	}
	if err != nil {
		return nil, nil, err
	}
	return user, account, nil
}

func exchangeDescription(err error) string {
	var described interface{ ProviderDescription() string }
	if liberrors.As(err, &described) {
		return described.ProviderDescription()
	}
	return err.Error()
}

// TokenAccessor returns an accessor for the session's tokens. Refreshed
// tokens are written back to the account row, then passed to onRefresh.
func (as *AuthorizationService) TokenAccessor(session *token.SessionData, onRefresh refresh.Hook) *refresh.Accessor {
	key := accounts.Key{Provider: oauthmodel.ProviderAmazon, ProviderAccountID: session.ProviderAccountID}
	return refresh.NewAccessor(session.Tokens, as.provider,
		refresh.WithSkew(as.config.GetRefreshSkew()),
		refresh.WithRefreshHook(func(ctx context.Context, tokens oauthmodel.TokenSet) {
			if key.ProviderAccountID != "" {
				if err := as.repos.Accounts.UpdateTokens(ctx, key, tokens); err != nil {
					log.Warn().Err(err).Str("provider_account_id", key.ProviderAccountID).Msg("failed to store refreshed tokens")
				}
			}
			if onRefresh != nil {
				onRefresh(ctx, tokens)
			}
		}),
	)
}

// SessionFromToken verifies a session credential.
func (as *AuthorizationService) SessionFromToken(raw string) (*token.SessionData, error) {
	return as.tokens.ParseSession(raw)
}

// ReissueSession mints a fresh credential for session carrying tokens.
func (as *AuthorizationService) ReissueSession(session *token.SessionData, tokens oauthmodel.TokenSet) (string, error) {
	updated := *session
	updated.Tokens = tokens
	return as.tokens.MintSession(updated)
}

// SessionMaxAge is the lifetime of session credentials.
func (as *AuthorizationService) SessionMaxAge() time.Duration {
	return as.tokens.SessionExpiry()
}
