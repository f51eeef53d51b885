package mw

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"garage-backend/internal/model"
	"garage-backend/internal/workorder"
)

const actorContextKey = "actor"

// ActorClaims is the JWT payload issued by the identity service. The subject
// is the user id; employee/customer ids are present per role.
type ActorClaims struct {
	UserType   string `json:"userType"`
	EmployeeID int64  `json:"employeeId,omitempty"`
	CustomerID int64  `json:"customerId,omitempty"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and stores the resolved Actor in the gin
// context. Token issuance lives outside this service; only HS256 verification
// happens here.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		var claims ActorClaims
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), &claims,
			func(t *jwt.Token) (interface{}, error) { return []byte(secret), nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID, _ := strconv.ParseInt(claims.Subject, 10, 64)
		c.Set(actorContextKey, workorder.Actor{
			UserType:   model.UserType(claims.UserType),
			UserID:     userID,
			EmployeeID: claims.EmployeeID,
			CustomerID: claims.CustomerID,
		})
		c.Next()
	}
}

// ActorFrom returns the authenticated actor placed by Auth.
func ActorFrom(c *gin.Context) (workorder.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return workorder.Actor{}, false
	}
	actor, ok := v.(workorder.Actor)
	return actor, ok
}

// RequireTypes aborts with 403 unless the actor's role is one of the given
// types. The coordinator re-checks roles; this only fails fast at the edge.
func RequireTypes(types ...model.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		for _, t := range types {
			if actor.UserType == t {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}
