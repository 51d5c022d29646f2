package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orchidcommerce/orchidbe/internal/domain"
	"github.com/orchidcommerce/orchidbe/internal/storage/memory"
)

func newTestService() *Service {
	tokens := NewTokenIssuer([]byte("test-secret"), time.Hour)
	return NewService(memory.NewAccountRepository(), memory.NewRoleRepository(), tokens, nil)
}

func TestRegisterAssignsUserRole(t *testing.T) {
	svc := newTestService()

	view, err := svc.Register(RegisterRequest{Name: "Lena", Email: "Lena@Orchid.Test", Password: "secret-1"})
	require.NoError(t, err)
	require.NotEmpty(t, view.ID)
	require.Equal(t, "lena@orchid.test", view.Email)
	require.Equal(t, domain.RoleUser, view.Role)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := newTestService()

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"empty name", RegisterRequest{Email: "a@b.c", Password: "secret-1"}},
		{"bad email", RegisterRequest{Name: "x", Email: "not-an-email", Password: "secret-1"}},
		{"short password", RegisterRequest{Name: "x", Email: "a@b.c", Password: "123"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(tc.req)
			require.ErrorIs(t, err, domain.ErrInvalidCredentials)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService()

	_, err := svc.Register(RegisterRequest{Name: "Lena", Email: "lena@orchid.test", Password: "secret-1"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterRequest{Name: "Other", Email: "LENA@orchid.test", Password: "secret-2"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService()

	_, err := svc.Register(RegisterRequest{Name: "Lena", Email: "lena@orchid.test", Password: "secret-1"})
	require.NoError(t, err)

	// Неверный пароль и несуществующий email дают одну и ту же ошибку.
	_, wrongPassword := svc.Login("lena@orchid.test", "wrong")
	_, unknownEmail := svc.Login("nobody@orchid.test", "secret-1")
	require.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, domain.ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginIssuesIdentifiableToken(t *testing.T) {
	svc := newTestService()

	view, err := svc.Register(RegisterRequest{Name: "Lena", Email: "lena@orchid.test", Password: "secret-1"})
	require.NoError(t, err)

	result, err := svc.Login("Lena@Orchid.Test", "secret-1")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	identity, err := svc.Identify(result.Token)
	require.NoError(t, err)
	require.Equal(t, view.ID, identity.ID)
	require.True(t, identity.HasRole(domain.RoleUser))
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc := newTestService()

	require.NoError(t, svc.EnsureAdmin("admin@orchid.test", "admin-secret"))
	require.NoError(t, svc.EnsureAdmin("admin@orchid.test", "admin-secret"))

	result, err := svc.Login("admin@orchid.test", "admin-secret")
	require.NoError(t, err)

	identity, err := svc.Identify(result.Token)
	require.NoError(t, err)
	require.True(t, identity.HasRole(domain.RoleAdmin))
}

func TestGetAccountAuthorization(t *testing.T) {
	svc := newTestService()

	owner, err := svc.Register(RegisterRequest{Name: "Lena", Email: "lena@orchid.test", Password: "secret-1"})
	require.NoError(t, err)
	other, err := svc.Register(RegisterRequest{Name: "Ivan", Email: "ivan@orchid.test", Password: "secret-2"})
	require.NoError(t, err)

	_, err = svc.Get(domain.NewIdentity(owner.ID, domain.RoleUser), owner.ID)
	require.NoError(t, err)

	_, err = svc.Get(domain.NewIdentity(other.ID, domain.RoleUser), owner.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Get(domain.NewIdentity("admin", domain.RoleAdmin), owner.ID)
	require.NoError(t, err)
}

func TestListAccountsAdminOnly(t *testing.T) {
	svc := newTestService()

	_, err := svc.Register(RegisterRequest{Name: "Lena", Email: "lena@orchid.test", Password: "secret-1"})
	require.NoError(t, err)

	_, err = svc.List(domain.NewIdentity("acc-1", domain.RoleUser))
	require.ErrorIs(t, err, domain.ErrForbidden)

	views, err := svc.List(domain.NewIdentity("admin", domain.RoleAdmin))
	require.NoError(t, err)
	require.Len(t, views, 1)
}

func TestUpdateAccount(t *testing.T) {
	svc := newTestService()

	owner, err := svc.Register(RegisterRequest{Name: "Lena", Email: "lena@orchid.test", Password: "secret-1"})
	require.NoError(t, err)
	other, err := svc.Register(RegisterRequest{Name: "Ivan", Email: "ivan@orchid.test", Password: "secret-2"})
	require.NoError(t, err)

	// Чужой аккаунт менять нельзя.
	_, err = svc.Update(domain.NewIdentity(other.ID, domain.RoleUser), owner.ID, UpdateRequest{Name: "Mallory"})
	require.ErrorIs(t, err, domain.ErrForbidden)

	// Пустые поля не затирают текущие значения.
	view, err := svc.Update(domain.NewIdentity(owner.ID, domain.RoleUser), owner.ID, UpdateRequest{Name: "Elena"})
	require.NoError(t, err)
	require.Equal(t, "Elena", view.Name)
	require.Equal(t, "lena@orchid.test", view.Email)

	_, err = svc.Update(domain.NewIdentity(owner.ID, domain.RoleUser), owner.ID, UpdateRequest{Password: "123"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Update(domain.NewIdentity(owner.ID, domain.RoleUser), owner.ID, UpdateRequest{Password: "new-secret"})
	require.NoError(t, err)

	// Старый пароль больше не действует.
	_, err = svc.Login("lena@orchid.test", "secret-1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login("lena@orchid.test", "new-secret")
	require.NoError(t, err)

	// Администратор может править любой аккаунт.
	view, err = svc.Update(domain.NewIdentity("admin", domain.RoleAdmin), owner.ID, UpdateRequest{Name: "Lena"})
	require.NoError(t, err)
	require.Equal(t, "Lena", view.Name)
}

func TestRoleManagementAdminOnly(t *testing.T) {
	svc := newTestService()

	user := domain.NewIdentity("acc-1", domain.RoleUser)
	admin := domain.NewIdentity("admin", domain.RoleAdmin)

	_, err := svc.ListRoles(user)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.CreateRole(user, "MANAGER")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.CreateRole(admin, "   ")
	require.ErrorIs(t, err, domain.ErrRoleNameRequired)

	role, err := svc.CreateRole(admin, "MANAGER")
	require.NoError(t, err)
	require.NotEmpty(t, role.ID)

	// Повторное создание возвращает существующую роль.
	again, err := svc.CreateRole(admin, "MANAGER")
	require.NoError(t, err)
	require.Equal(t, role.ID, again.ID)

	roles, err := svc.ListRoles(admin)
	require.NoError(t, err)
	require.Len(t, roles, 1)

	require.ErrorIs(t, svc.DeleteRole(user, role.ID), domain.ErrForbidden)
	require.NoError(t, svc.DeleteRole(admin, role.ID))
	require.ErrorIs(t, svc.DeleteRole(admin, role.ID), domain.ErrRoleNotFound)
}
