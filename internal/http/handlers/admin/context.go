package admin

import (
	handlershared "github.com/affiliate-engine/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.RequireContextID(c, handlershared.AdminIDKeys)
}

func currentUsername(c *gin.Context) string {
	return c.GetString("username")
}

func currentAdminID(c *gin.Context) uint {
	return c.GetUint("admin_id")
}
