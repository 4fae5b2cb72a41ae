package stepup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/quorum/model"
	"github.com/viant/scy"
	sjwt "github.com/viant/scy/auth/jwt"
	"github.com/viant/scy/auth/jwt/signer"
	"github.com/viant/scy/auth/jwt/verifier"
)

// TokensConfig locates the signing key. The key may live behind any scy
// resource URL and can be encrypted with KeySecret.
type TokensConfig struct {
	HMACKeyURL string
	RSAKeyURL  string
	KeySecret  string
	TTL        time.Duration
}

// Tokens signs and verifies step-up JWTs. The registered jti claim keys the
// stored context; operation and resource travel in the data claim.
type Tokens struct {
	config   TokensConfig
	signer   *signer.Service
	verifier *verifier.Service
	initOnce sync.Once
	initErr  error
}

// NewTokens creates a signer/verifier pair for step-up tokens.
func NewTokens(config TokensConfig) (*Tokens, error) {
	if config.HMACKeyURL == "" && config.RSAKeyURL == "" {
		return nil, fmt.Errorf("either HMACKeyURL or RSAKeyURL must be provided")
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	signerConfig := &signer.Config{}
	verifierConfig := &verifier.Config{}
	if config.RSAKeyURL != "" {
		signerConfig.RSA = &scy.Resource{URL: config.RSAKeyURL, Key: config.KeySecret}
		verifierConfig.RSA = []*scy.Resource{{URL: config.RSAKeyURL, Key: config.KeySecret}}
	} else {
		signerConfig.HMAC = &scy.Resource{URL: config.HMACKeyURL, Key: config.KeySecret}
		verifierConfig.HMAC = &scy.Resource{URL: config.HMACKeyURL, Key: config.KeySecret}
	}
	return &Tokens{
		config:   config,
		signer:   signer.New(signerConfig),
		verifier: verifier.New(verifierConfig),
	}, nil
}

func (t *Tokens) init(ctx context.Context) error {
	t.initOnce.Do(func() {
		if err := t.signer.Init(ctx); err != nil {
			t.initErr = fmt.Errorf("failed to initialize step-up signer: %w", err)
			return
		}
		if err := t.verifier.Init(ctx); err != nil {
			t.initErr = fmt.Errorf("failed to initialize step-up verifier: %w", err)
		}
	})
	return t.initErr
}

// Sign mints a JWT carrying the step-up context claim.
func (t *Tokens) Sign(ctx context.Context, c *model.StepUpContext) (string, error) {
	if err := t.init(ctx); err != nil {
		return "", err
	}
	claims := map[string]interface{}{
		"jti": c.JTI,
		"sub": c.SubjectID,
		"data": map[string]interface{}{
			"operation": c.Operation,
			"resource":  c.Resource,
		},
	}
	token, err := t.signer.Create(t.config.TTL, claims)
	if err != nil {
		return "", fmt.Errorf("failed to create step-up token: %w", err)
	}
	return token, nil
}

// Verify validates a presented token and extracts the step-up claim.
func (t *Tokens) Verify(ctx context.Context, token string) (*model.StepUpContext, error) {
	if err := t.init(ctx); err != nil {
		return nil, err
	}
	claims, err := t.verifier.VerifyClaims(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("invalid step-up token: %w", err)
	}
	return contextFromClaims(claims)
}

func contextFromClaims(claims *sjwt.Claims) (*model.StepUpContext, error) {
	if claims == nil || claims.ID == "" {
		return nil, fmt.Errorf("step-up token is missing the jti claim")
	}
	ret := &model.StepUpContext{JTI: claims.ID, SubjectID: claims.Subject}
	if data, ok := claims.Data.(map[string]interface{}); ok {
		if operation, ok := data["operation"].(string); ok {
			ret.Operation = operation
		}
		if resource, ok := data["resource"].(string); ok {
			ret.Resource = resource
		}
	}
	return ret, nil
}
