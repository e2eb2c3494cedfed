package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"serio/internal/core/apperror"
	appctx "serio/internal/core/context"
	"serio/internal/core/security"
)

// RequireAction middleware evaluates the action policy for a series
// operation. The number comes from the :number path parameter when the
// route has one; otherwise the policy sees zero.
func RequireAction(policy *security.ActionPolicy, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		op := appctx.GetOperator(c.Request.Context())
		if op == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		var number int64
		if raw := c.Param("number"); raw != "" {
			number, _ = strconv.ParseInt(raw, 10, 64)
		}

		allowed, err := policy.Allow(op, action, number)
		if err != nil {
			_ = c.Error(apperror.NewInternal(err))
			c.Abort()
			return
		}
		if !allowed {
			_ = c.Error(
				apperror.NewForbidden("action not permitted").
					WithDetail("action", action),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}
