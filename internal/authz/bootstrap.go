package authz

import "fmt"

// 预置角色
const (
	RoleAffiliateAuditor = "affiliate_auditor"
	RoleAffiliateManager = "affiliate_manager"
	RoleAffiliateFinance = "affiliate_finance"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

func allow(action string, objects ...string) []Policy {
	policies := make([]Policy, 0, len(objects))
	for _, object := range objects {
		policies = append(policies, Policy{Object: object, Action: action})
	}
	return policies
}

// BuiltinRoleSeeds 推广后台预置角色：审核员只读，运营管理推广与佣金，财务处理提现
func BuiltinRoleSeeds() []RoleSeed {
	auditor := append(allow("GET", "/admin/*"), allow("PUT", "/admin/password")...)

	manager := allow("POST",
		"/admin/commissions/:id/approve",
		"/admin/commissions/:id/cancel",
		"/admin/commissions/bonus",
		"/admin/commissions/reverse",
	)
	manager = append(manager, allow("PATCH", "/admin/affiliates/:id")...)
	manager = append(manager, allow("PUT", "/admin/settings/affiliate")...)
	manager = append(manager, allow("DELETE", "/admin/settings/affiliate")...)

	finance := allow("POST",
		"/admin/payouts/:id/process",
		"/admin/payouts/:id/complete",
		"/admin/payouts/:id/fail",
	)

	return []RoleSeed{
		{Role: RoleAffiliateAuditor, Policies: auditor},
		{Role: RoleAffiliateManager, Inherits: []string{RoleAffiliateAuditor}, Policies: manager},
		{Role: RoleAffiliateFinance, Inherits: []string{RoleAffiliateAuditor}, Policies: finance},
	}
}

// BootstrapBuiltinRoles 写入预置角色、继承关系与策略，重复执行不会产生重复规则
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		if err := s.seedRole(seed); err != nil {
			return fmt.Errorf("seed role %s: %w", seed.Role, err)
		}
	}
	return nil
}

func (s *Service) seedRole(seed RoleSeed) error {
	role, err := NormalizeRole(seed.Role)
	if err != nil {
		return err
	}
	parents := []string{roleAnchor}
	for _, parent := range seed.Inherits {
		parentRole, err := NormalizeRole(parent)
		if err != nil {
			return err
		}
		parents = append(parents, parentRole)
	}
	for _, parent := range parents {
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parent); err != nil {
			return err
		}
	}
	for _, policy := range seed.Policies {
		action := NormalizeAction(policy.Action)
		if action == "" {
			return fmt.Errorf("policy on %s has no action", policy.Object)
		}
		if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
			return err
		}
	}
	return nil
}
