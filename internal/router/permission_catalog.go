package router

import (
	"net/http"
	"sort"
	"strings"

	"github.com/affiliate-engine/internal/authz"
	"github.com/affiliate-engine/internal/http/response"

	"github.com/gin-gonic/gin"
)

const adminRoutePrefix = "/api/v1/admin/"

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// permissionCatalogHandler 列出可授权的后台接口
func permissionCatalogHandler(engine *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, buildAdminPermissionCatalog(engine))
	}
}

// buildAdminPermissionCatalog 由已注册路由生成权限目录，登录接口除外
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	items := []adminPermissionCatalogItem{}
	if engine == nil {
		return items
	}
	seen := map[string]bool{}
	for _, route := range engine.Routes() {
		method := strings.ToUpper(strings.TrimSpace(route.Method))
		if !catalogMethod(method) || !strings.HasPrefix(route.Path, adminRoutePrefix) {
			continue
		}
		if route.Path == adminRoutePrefix+"login" {
			continue
		}
		object := authz.NormalizeObject(route.Path)
		permission := method + ":" + object
		if seen[permission] {
			continue
		}
		seen[permission] = true
		items = append(items, adminPermissionCatalogItem{
			Module:     permissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.Object != b.Object {
			return a.Object < b.Object
		}
		return a.Method < b.Method
	})
	return items
}

func catalogMethod(method string) bool {
	switch method {
	case "", http.MethodOptions, http.MethodHead:
		return false
	}
	return true
}

// permissionModule 取 /admin 之后的第一段作为模块名
func permissionModule(object string) string {
	segments := strings.Split(strings.Trim(strings.TrimSpace(object), "/"), "/")
	if segments[0] == "" {
		return "system"
	}
	if segments[0] == "admin" && len(segments) > 1 {
		return segments[1]
	}
	return segments[0]
}
