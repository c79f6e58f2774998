package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	return svc
}

func TestBootstrapBuiltinRolesIsIdempotent(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	want := []string{"role:affiliate_auditor", "role:affiliate_finance", "role:affiliate_manager"}
	if strings.Join(roles, ",") != strings.Join(want, ",") {
		t.Fatalf("roles want %v, got %v", want, roles)
	}

	policies, err := svc.GetRolePolicies(RoleAffiliateFinance)
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("expected 3 finance policies, got %v", policies)
	}
}

func TestAuditorIsReadOnly(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(1, []string{RoleAffiliateAuditor}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	allow, err := svc.EnforceAdmin(1, "/api/v1/admin/affiliates", "get")
	if err != nil {
		t.Fatalf("enforce read failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected auditor read allowed")
	}

	allow, err = svc.EnforceAdmin(1, "/api/v1/admin/affiliates/7", "PATCH")
	if err != nil {
		t.Fatalf("enforce write failed: %v", err)
	}
	if allow {
		t.Fatalf("expected auditor write denied")
	}
}

func TestManagerAndFinanceSeparation(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(2, []string{RoleAffiliateManager}); err != nil {
		t.Fatalf("set manager role failed: %v", err)
	}
	if err := svc.SetAdminRoles(3, []string{"affiliate finance"}); err != nil {
		t.Fatalf("set finance role failed: %v", err)
	}

	cases := []struct {
		adminID uint
		path    string
		method  string
		allow   bool
	}{
		{2, "/api/v1/admin/commissions/5/approve", "POST", true},
		{2, "/api/v1/admin/payouts/5/process", "POST", false},
		{2, "/api/v1/admin/payouts", "GET", true},
		{3, "/api/v1/admin/payouts/5/process", "POST", true},
		{3, "/api/v1/admin/settings/affiliate", "PUT", false},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceAdmin(tc.adminID, tc.path, tc.method)
		if err != nil {
			t.Fatalf("enforce %s %s failed: %v", tc.method, tc.path, err)
		}
		if allow != tc.allow {
			t.Fatalf("admin %d %s %s: want allow=%v, got %v", tc.adminID, tc.method, tc.path, tc.allow, allow)
		}
	}
}

func TestSetAdminRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(4, []string{RoleAffiliateManager}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	if err := svc.SetAdminRoles(4, []string{RoleAffiliateFinance}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(4)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:affiliate_finance" {
		t.Fatalf("roles want [role:affiliate_finance], got=%v", roles)
	}

	if err := svc.SetAdminRoles(4, []string{"superuser"}); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	roles, _ = svc.GetAdminRoles(4)
	if len(roles) != 1 {
		t.Fatalf("expected roles untouched after rejected update, got %v", roles)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/payouts/:id", want: "/admin/payouts/:id"},
		{in: "/admin/payouts/:id", want: "/admin/payouts/:id"},
		{in: "admin/payouts", want: "/admin/payouts"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestCapabilitiesFollowRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(8, []string{RoleAffiliateFinance}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}
	caps, err := svc.Capabilities(8)
	if err != nil {
		t.Fatalf("capabilities failed: %v", err)
	}
	if len(caps) != len(AffiliateCapabilities) {
		t.Fatalf("expected %d capabilities, got %v", len(AffiliateCapabilities), caps)
	}
	if !caps["process_payouts"] || caps["approve_commissions"] || caps["edit_settings"] {
		t.Fatalf("unexpected finance capabilities %v", caps)
	}
}
