package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/ride-booking/internal/auth"
	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/gocomet/ride-booking/internal/service/policy"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
	"github.com/gocomet/ride-booking/pkg/logger"
)

const (
	identityKey = "identity"
	actorKey    = "actor"
)

// TokenVerifier is satisfied by *auth.Verifier
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Authenticate verifies the bearer token and stores the identity on the context.
// Each request carries its own token; nothing is remembered between requests.
func Authenticate(verifier TokenVerifier, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := verifier.Verify(auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			log.Debug("Token rejected", logger.String("path", c.FullPath()), logger.Err(err))
			abort(c, apperrors.Unauthorized("Not authorized, token failed", err))
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// LoadActor resolves the authenticated identity to a stored user
func LoadActor(users user.Repository, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			abort(c, apperrors.Unauthorized("Not authorized", nil))
			return
		}

		u, err := users.GetBySubject(c.Request.Context(), identity.Subject)
		if errors.Is(err, user.ErrUserNotFound) {
			abort(c, apperrors.ErrUserNotFound)
			return
		}
		if err != nil {
			log.Error("Failed to load user", logger.String("subject", identity.Subject), logger.Err(err))
			abort(c, apperrors.Internal("Failed to load user", err))
			return
		}

		c.Set(actorKey, policy.NewActor(u))
		c.Next()
	}
}

// RequireRoles admits actors holding at least one of roles
func RequireRoles(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, apperrors.Unauthorized("Not authorized", nil))
			return
		}
		for _, r := range roles {
			if actor.HasRole(r) {
				c.Next()
				return
			}
		}
		abort(c, apperrors.ErrInsufficientPermissions)
	}
}

// IdentityFrom returns the identity set by Authenticate
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

// ActorFrom returns the actor set by LoadActor
func ActorFrom(c *gin.Context) (policy.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	return actor, ok
}

func abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.Status, err)
}
