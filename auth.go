package goCare

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goCare/codec"
	"github.com/MrEthical07/goCare/session"
	"github.com/sirupsen/logrus"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// TokenEnvelope is the backend's answer to login and register. When IV is set, Token
// is already sealed with the shared key; otherwise Token is a plaintext compact token.
type TokenEnvelope struct {
	Token string `json:"token"`
	IV    string `json:"iv,omitempty"`
}

// Login authenticates against the backend and stores the resulting session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (session.Credential, error) {
	cred, err := c.authenticate(ctx, c.config.API.LoginPath, req)
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		return session.Credential{}, err
	}
	c.metrics.Inc(MetricLoginSuccess)
	c.authLog(cred).Info("login succeeded")
	return cred, nil
}

// Register creates an account and stores the resulting session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (session.Credential, error) {
	cred, err := c.authenticate(ctx, c.config.API.RegisterPath, req)
	if err != nil {
		c.metrics.Inc(MetricRegisterFailure)
		return session.Credential{}, err
	}
	c.metrics.Inc(MetricRegisterSuccess)
	c.authLog(cred).Info("registration succeeded")
	return cred, nil
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (session.Credential, error) {
	resp, err := c.Create(ctx, path, JSON(payload))
	if err != nil {
		return session.Credential{}, err
	}

	var env TokenEnvelope
	if err := resp.Decode(&env); err != nil {
		return session.Credential{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return c.HandleToken(ctx, env)
}

// HandleToken turns a token envelope into the active session.
//
// A sealed token (IV present) is opened to validate it and stored as received. A
// plaintext token is decoded, sealed under a fresh IV and stored in sealed form. The
// durable write happens only after decoding succeeded; on any error the previous
// session is left in place.
func (c *Client) HandleToken(ctx context.Context, env TokenEnvelope) (session.Credential, error) {
	if env.Token == "" {
		return session.Credential{}, fmt.Errorf("%w: missing token", ErrInvalidEnvelope)
	}

	var cred session.Credential
	if env.IV != "" {
		sealed := codec.SealedToken(env.Token)
		_, claims, err := c.codec.Open(sealed, env.IV)
		if err != nil {
			return session.Credential{}, err
		}
		cred = session.Credential{Token: sealed, IV: env.IV, Claims: claims}
	} else {
		plain := codec.BearerToken(env.Token)
		claims, err := codec.DecodeClaims(plain)
		if err != nil {
			return session.Credential{}, err
		}
		sealed, iv, err := c.codec.Seal(plain)
		if err != nil {
			return session.Credential{}, err
		}
		cred = session.Credential{Token: sealed, IV: iv, Claims: claims}
	}

	if err := c.store.Set(ctx, cred); err != nil {
		return session.Credential{}, err
	}
	return cred, nil
}

// Logout clears the session from memory and durable storage. Logout is idempotent;
// the backend is not contacted.
func (c *Client) Logout(ctx context.Context) error {
	c.metrics.Inc(MetricLogout)
	if err := c.store.Clear(ctx); err != nil {
		c.logger.WithField("component", "auth").WithError(err).Warn("could not clear stored credential")
		return err
	}
	c.logger.WithField("component", "auth").Info("logged out")
	return nil
}

// Hydrate restores a stored session at startup. It returns true when a session was
// restored. An unusable stored credential is cleared and its error returned; the
// client then continues unauthenticated. A storage read failure counts as no stored
// session.
func (c *Client) Hydrate(ctx context.Context) (bool, error) {
	var log logrus.FieldLogger = c.logger.WithField("component", "auth")

	ok, err := c.store.Hydrate(ctx)
	switch {
	case ok:
		c.metrics.Inc(MetricHydrateRestored)
		if cred, present := c.store.Get(); present {
			log = c.authLog(cred)
		}
		log.Info("session restored")
	case err == nil:
		c.metrics.Inc(MetricHydrateEmpty)
		log.Debug("no stored session")
	case errors.Is(err, ErrDecryption), errors.Is(err, ErrMalformedToken):
		c.metrics.Inc(MetricHydrateCleared)
		log.WithError(err).Warn("discarded unusable stored credential")
	case errors.Is(err, ErrStorageUnavailable):
		c.metrics.Inc(MetricHydrateEmpty)
		log.WithError(err).Warn("could not read stored credential, continuing without a session")
		return false, nil
	default:
		log.WithError(err).Warn("could not read stored credential")
	}
	return ok, err
}

func (c *Client) authLog(cred session.Credential) logrus.FieldLogger {
	fields := logrus.Fields{"component": "auth"}
	if cred.Claims != nil {
		fields["user_id"] = cred.Claims.UserID
		fields["role"] = cred.Claims.Role
	}
	return c.logger.WithFields(fields)
}
