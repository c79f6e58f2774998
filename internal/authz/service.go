package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	adminSubjectFmt = "admin:%d"
	rolePrefix      = "role:"
	// roleAnchor 所有角色都挂在该锚点下，用于枚举角色
	roleAnchor = "role:__anchor__"
)

// rbacModel 主体可直接授权或经角色继承；路径按 keyMatch2 匹配，* 代表任意动作
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	ErrUnavailable     = errors.New("authz service unavailable")
	ErrUnknownRole     = errors.New("unknown role")
	ErrAdminIDRequired = errors.New("admin id is required")
)

// Policy 单条授权规则
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Capability 后台界面按钮级能力，对应一条受保护的接口
type Capability struct {
	Name   string
	Object string
	Action string
}

// AffiliateCapabilities 推广后台能力清单
var AffiliateCapabilities = []Capability{
	{Name: "edit_affiliates", Object: "/admin/affiliates/:id", Action: "PATCH"},
	{Name: "approve_commissions", Object: "/admin/commissions/:id/approve", Action: "POST"},
	{Name: "grant_bonus", Object: "/admin/commissions/bonus", Action: "POST"},
	{Name: "reverse_commissions", Object: "/admin/commissions/reverse", Action: "POST"},
	{Name: "process_payouts", Object: "/admin/payouts/:id/process", Action: "POST"},
	{Name: "edit_settings", Object: "/admin/settings/affiliate", Action: "PUT"},
}

// Service 基于 casbin 的后台授权，规则存于 casbin_rule 表
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 加载模型与已持久化规则
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("authz adapter: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("authz enforcer: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz load policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// EnforceAdmin 判定管理员能否以 act 访问 obj
func (s *Service) EnforceAdmin(adminID uint, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(SubjectForAdmin(adminID), NormalizeObject(obj), NormalizeAction(act))
}

// Capabilities 返回管理员在能力清单上的授权情况
func (s *Service) Capabilities(adminID uint) (map[string]bool, error) {
	result := make(map[string]bool, len(AffiliateCapabilities))
	for _, capability := range AffiliateCapabilities {
		allowed, err := s.EnforceAdmin(adminID, capability.Object, capability.Action)
		if err != nil {
			return nil, err
		}
		result[capability.Name] = allowed
	}
	return result, nil
}

// ListRoles 枚举锚点下的全部角色
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 1, roleAnchor)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) > 0 && isAssignableRole(rule[0]) {
			roles = append(roles, rule[0])
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// GetRolePolicies 角色自身的规则，不展开继承
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, normalized)
	if err != nil {
		return nil, fmt.Errorf("role policies: %w", err)
	}
	return toPolicies(rules), nil
}

// SetAdminRoles 以给定列表整体替换管理员角色，未知角色直接拒绝
func (s *Service) SetAdminRoles(adminID uint, roles []string) error {
	if adminID == 0 {
		return ErrAdminIDRequired
	}
	if err := s.ready(); err != nil {
		return err
	}

	wanted := make([]string, 0, len(roles))
	for _, raw := range roles {
		role, err := NormalizeRole(raw)
		if err != nil {
			return err
		}
		known, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("lookup role: %w", err)
		}
		if !known {
			return fmt.Errorf("%w: %s", ErrUnknownRole, role)
		}
		wanted = append(wanted, role)
	}

	subject := SubjectForAdmin(adminID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear admin roles: %w", err)
	}
	for _, role := range wanted {
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, role); err != nil {
			return fmt.Errorf("assign admin role: %w", err)
		}
	}
	return nil
}

// GetAdminRoles 管理员直接持有的角色
func (s *Service) GetAdminRoles(adminID uint) ([]string, error) {
	if adminID == 0 {
		return nil, ErrAdminIDRequired
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	assigned, err := s.enforcer.GetRolesForUser(SubjectForAdmin(adminID))
	if err != nil {
		return nil, fmt.Errorf("admin roles: %w", err)
	}
	roles := make([]string, 0, len(assigned))
	for _, role := range assigned {
		if isAssignableRole(role) {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles, nil
}

func isAssignableRole(role string) bool {
	return strings.HasPrefix(role, rolePrefix) && role != roleAnchor
}

func toPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		})
	}
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Object != policies[j].Object {
			return policies[i].Object < policies[j].Object
		}
		return policies[i].Action < policies[j].Action
	})
	return policies
}

// SubjectForAdmin casbin 主体名
func SubjectForAdmin(adminID uint) string {
	return fmt.Sprintf(adminSubjectFmt, adminID)
}

// NormalizeRole 空格转下划线并补齐 role: 前缀
func NormalizeRole(role string) (string, error) {
	name := strings.ReplaceAll(strings.TrimSpace(role), " ", "_")
	if !strings.HasPrefix(name, rolePrefix) {
		name = rolePrefix + name
	}
	switch {
	case name == rolePrefix:
		return "", errors.New("role is required")
	case name == roleAnchor:
		return "", errors.New("reserved role is not allowed")
	}
	return name, nil
}

// NormalizeObject 资源路径统一为不带 /api/v1 的绝对路径
func NormalizeObject(object string) string {
	path := strings.TrimSpace(object)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path == apiV1Prefix {
		return "/"
	}
	if strings.HasPrefix(path, apiV1Prefix+"/") {
		return path[len(apiV1Prefix):]
	}
	return path
}

// NormalizeAction 动作统一为大写
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
