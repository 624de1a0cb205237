// app/seenmw.go
package app

import (
	"time"

	"equipment_lending_tool/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// TouchLastSeen refreshes users.last_seen_at at most once per throttle
// window. A Redis SetNX key is the gate, so the DB write only happens when
// the window opens. Runs after AuthRequired, which puts userID in context.
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("userID")
		if uid == "" {
			c.Next()
			return
		}
		key := "user:lastseen:" + uid
		if fresh, _ := rdb.SetNX(c, key, "1", throttle).Result(); fresh {
			_ = repo.TouchUserSeen(c, uid) // 审计字段，失败不阻塞请求
		}
		c.Next()
	}
}
