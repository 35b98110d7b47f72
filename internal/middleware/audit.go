package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tikrar-dev/tikrar-api/internal/models"
	"github.com/tikrar-dev/tikrar-api/pkg/jobs"
)

type auditQueue interface {
	Enqueue(job jobs.Job) error
}

// Audit records an audit log entry after each successful request. Entries go
// through the background queue so the request never waits on the insert; a
// saturated queue drops the entry. Pairing mutations pass the submission or
// batch id route param so the trail links back to the affected resource.
func Audit(queue auditQueue, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if claims, ok := c.Get(ContextUserKey); ok {
			user := claims.(*models.JWTClaims)
			userID = &user.UserID
		}

		var resourceID *string
		for _, param := range []string{"submissionId", "batchId", "id"} {
			if v := c.Param(param); v != "" {
				resourceID = &v
				break
			}
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		_ = queue.Enqueue(jobs.Job{
			ID:   uuid.NewString(),
			Kind: action,
			Payload: &models.AuditLog{
				UserID:     userID,
				Action:     action,
				Resource:   resource,
				ResourceID: resourceID,
				NewValues:  body,
				IPAddress:  c.ClientIP(),
				UserAgent:  c.GetHeader("User-Agent"),
			},
		})
	}
}
