package admin

import (
	"net/url"
	"strings"

	"github.com/affiliate-engine/internal/authz"
	handlershared "github.com/affiliate-engine/internal/http/handlers/shared"
	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/service"

	"github.com/gin-gonic/gin"
)

type setAdminRolesRequest struct {
	Roles []string `json:"roles"`
}

// authzAdminItem 管理员及其角色
type authzAdminItem struct {
	models.Admin
	Roles []string `json:"roles"`
}

// GetAuthzMe 当前管理员的角色与能力
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondAdminAuthzError(c, err)
		return
	}
	isSuper := c.GetBool("admin_is_super")

	var capabilities map[string]bool
	if isSuper {
		capabilities = make(map[string]bool, len(authz.AffiliateCapabilities))
		for _, item := range authz.AffiliateCapabilities {
			capabilities[item.Name] = true
		}
	} else if capabilities, err = h.AuthzService.Capabilities(adminID); err != nil {
		respondAdminAuthzError(c, err)
		return
	}

	response.Success(c, gin.H{
		"admin_id":     adminID,
		"username":     currentUsername(c),
		"is_super":     isSuper,
		"roles":        roles,
		"capabilities": capabilities,
	})
}

// ListAuthzRoles 角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondAdminAuthzError(c, err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 角色规则
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.GetRolePolicies(decodeRoleParam(c.Param("role")))
	if err != nil {
		respondAdminAuthzError(c, err)
		return
	}
	response.Success(c, policies)
}

// ListAuthzAdmins 管理员列表，附带各自角色
func (h *Handler) ListAuthzAdmins(c *gin.Context) {
	admins, err := h.AdminRepo.List()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	items := make([]authzAdminItem, 0, len(admins))
	for _, admin := range admins {
		roles, err := h.AuthzService.GetAdminRoles(admin.ID)
		if err != nil {
			respondAdminAuthzError(c, err)
			return
		}
		items = append(items, authzAdminItem{Admin: admin, Roles: roles})
	}
	response.Success(c, items)
}

// GetAuthzAdminRoles 指定管理员的角色
func (h *Handler) GetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := parseAdminIDParam(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondAdminAuthzError(c, err)
		return
	}
	response.Success(c, roles)
}

// SetAuthzAdminRoles 替换指定管理员的角色
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := parseAdminIDParam(c)
	if !ok {
		return
	}
	var req setAdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	target, err := h.AdminRepo.GetByID(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if target == nil {
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", nil)
		return
	}
	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		respondAdminAuthzError(c, err)
		return
	}
	requestLog(c).Infow("admin_authz_admin_roles_updated",
		"operator_admin_id", currentAdminID(c),
		"target_admin_id", adminID,
		"roles", req.Roles,
	)
	h.audit(c, service.AuditAdminRolesChanged, "admin", adminID, map[string]interface{}{
		"roles": req.Roles,
	})
	response.Success(c, nil)
}

func parseAdminIDParam(c *gin.Context) (uint, bool) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", nil)
	}
	return id, ok
}

func decodeRoleParam(value string) string {
	if decoded, err := url.PathUnescape(value); err == nil {
		value = decoded
	}
	return strings.TrimSpace(value)
}
