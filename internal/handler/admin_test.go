package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fishmapai/fishmap-server/internal/middleware"
	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/repository"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

type fakeAdminStore struct {
	admins map[uint64]*model.Admin
	nextID uint64
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{admins: map[uint64]*model.Admin{}, nextID: 1}
}

func (s *fakeAdminStore) add(a model.Admin) *model.Admin {
	if a.ID == 0 {
		a.ID = s.nextID
	}
	if a.ID >= s.nextID {
		s.nextID = a.ID + 1
	}
	cp := a
	s.admins[cp.ID] = &cp
	return s.admins[cp.ID]
}

func (s *fakeAdminStore) Create(ctx context.Context, name, phone, em, gender, password, role string, createdBy *uint64, cost int) (uint64, error) {
	for _, a := range s.admins {
		if a.Email == em {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	a := s.add(model.Admin{
		Name: name, Phone: phone, Email: em, Gender: gender,
		PasswordHash: hash, Role: role, Status: model.AdminActive,
		CreatedBy: createdBy,
	})
	return a.ID, nil
}

func (s *fakeAdminStore) GetByEmail(ctx context.Context, em string) (model.Admin, error) {
	for _, a := range s.admins {
		if a.Email == em {
			return *a, nil
		}
	}
	return model.Admin{}, sql.ErrNoRows
}

func (s *fakeAdminStore) GetByID(ctx context.Context, id uint64) (model.Admin, error) {
	if a, ok := s.admins[id]; ok {
		return *a, nil
	}
	return model.Admin{}, sql.ErrNoRows
}

func (s *fakeAdminStore) GetByRefreshToken(ctx context.Context, token string) (model.Admin, error) {
	for _, a := range s.admins {
		if a.RefreshToken != nil && *a.RefreshToken == token {
			return *a, nil
		}
	}
	return model.Admin{}, sql.ErrNoRows
}

func (s *fakeAdminStore) SetRefreshToken(ctx context.Context, id uint64, token string) error {
	if a, ok := s.admins[id]; ok {
		now := time.Now().UTC()
		a.RefreshToken = &token
		a.LastLogin = &now
	}
	return nil
}

func (s *fakeAdminStore) ClearRefreshToken(ctx context.Context, token string) error {
	for _, a := range s.admins {
		if a.RefreshToken != nil && *a.RefreshToken == token {
			a.RefreshToken = nil
		}
	}
	return nil
}

func (s *fakeAdminStore) UpdateStatus(ctx context.Context, id uint64, status string, updatedBy uint64) error {
	a, ok := s.admins[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = status
	a.UpdatedBy = &updatedBy
	if status != model.AdminActive {
		a.RefreshToken = nil
	}
	return nil
}

func (s *fakeAdminStore) UpdatePassword(ctx context.Context, id uint64, hash string, updatedBy uint64) error {
	a, ok := s.admins[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.PasswordHash = hash
	a.UpdatedBy = &updatedBy
	a.RefreshToken = nil
	return nil
}

func (s *fakeAdminStore) ListAll(ctx context.Context) ([]model.Admin, error) {
	out := make([]model.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, *a)
	}
	return out, nil
}

type adminEnv struct {
	h     *AdminHandler
	store *fakeAdminStore
	e     *echo.Echo
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	iss := &utils.Issuer{
		UserAccessSecret:   "ua",
		UserRefreshSecret:  "ur",
		AdminAccessSecret:  "aa",
		AdminRefreshSecret: "ar",
		UserAccessTTL:      15 * time.Minute,
		AdminAccessTTL:     8 * time.Hour,
		RefreshTTL:         7 * 24 * time.Hour,
	}
	store := newFakeAdminStore()
	return &adminEnv{h: NewAdminHandler(testConfig(), store, iss), store: store, e: echo.New()}
}

func (env *adminEnv) seedAdmin(t *testing.T, role, status string) *model.Admin {
	t.Helper()
	hash, err := utils.HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	return env.store.add(model.Admin{
		Name: "Root", Phone: "0899999999", Email: "root@example.com",
		Gender: "male", PasswordHash: hash, Role: role, Status: status,
	})
}

func (env *adminEnv) request(method, body string, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return env.e.NewContext(req, rec), rec
}

func asAdmin(c echo.Context, a *model.Admin) {
	c.Set(middleware.CtxAdminID, a.ID)
	c.Set(middleware.CtxAdminRole, a.Role)
}

func TestAdminLogin(t *testing.T) {
	t.Parallel()

	t.Run("unknown email", func(t *testing.T) {
		env := newAdminEnv(t)
		c, rec := env.request(http.MethodPost, `{"email":"ghost@example.com","password":"secret1"}`)
		require.NoError(t, env.h.Login(c))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newAdminEnv(t)
		env.seedAdmin(t, model.RoleAdmin, model.AdminActive)
		c, rec := env.request(http.MethodPost, `{"email":"root@example.com","password":"wrong"}`)
		require.NoError(t, env.h.Login(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("suspended account rejected after password check", func(t *testing.T) {
		env := newAdminEnv(t)
		a := env.seedAdmin(t, model.RoleAdmin, model.AdminSuspended)
		c, rec := env.request(http.MethodPost, `{"email":"root@example.com","password":"secret1"}`)
		require.NoError(t, env.h.Login(c))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, decodeBody(t, rec)["error"], "suspended")
		require.Nil(t, env.store.admins[a.ID].RefreshToken)
	})

	t.Run("active admin gets cookies with short access max-age", func(t *testing.T) {
		env := newAdminEnv(t)
		a := env.seedAdmin(t, model.RoleAdmin, model.AdminActive)
		c, rec := env.request(http.MethodPost, `{"email":"root@example.com","password":"secret1"}`)
		require.NoError(t, env.h.Login(c))
		require.Equal(t, http.StatusOK, rec.Code)

		access := cookieByName(rec, "adminAccessToken")
		refresh := cookieByName(rec, "adminRefreshToken")
		require.NotNil(t, access)
		require.NotNil(t, refresh)
		require.Equal(t, int(15*time.Minute/time.Second), access.MaxAge)

		stored := env.store.admins[a.ID]
		require.NotNil(t, stored.RefreshToken)
		require.NotNil(t, stored.LastLogin)
	})
}

func TestAdminRefresh(t *testing.T) {
	t.Parallel()

	login := func(t *testing.T, env *adminEnv) *http.Cookie {
		t.Helper()
		c, rec := env.request(http.MethodPost, `{"email":"root@example.com","password":"secret1"}`)
		require.NoError(t, env.h.Login(c))
		require.Equal(t, http.StatusOK, rec.Code)
		ck := cookieByName(rec, "adminRefreshToken")
		require.NotNil(t, ck)
		return ck
	}

	t.Run("valid refresh", func(t *testing.T) {
		env := newAdminEnv(t)
		env.seedAdmin(t, model.RoleAdmin, model.AdminActive)
		ck := login(t, env)

		c, rec := env.request(http.MethodPost, "", &http.Cookie{Name: "adminRefreshToken", Value: ck.Value})
		require.NoError(t, env.h.Refresh(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, decodeBody(t, rec)["accessToken"])
	})

	t.Run("suspension mid-session blocks refresh", func(t *testing.T) {
		env := newAdminEnv(t)
		a := env.seedAdmin(t, model.RoleAdmin, model.AdminActive)
		ck := login(t, env)
		env.store.admins[a.ID].Status = model.AdminSuspended

		c, rec := env.request(http.MethodPost, "", &http.Cookie{Name: "adminRefreshToken", Value: ck.Value})
		require.NoError(t, env.h.Refresh(c))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, true, decodeBody(t, rec)["needLogin"])
	})

	t.Run("missing cookie", func(t *testing.T) {
		env := newAdminEnv(t)
		c, rec := env.request(http.MethodPost, "")
		require.NoError(t, env.h.Refresh(c))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAdminUpdateStatus(t *testing.T) {
	t.Parallel()

	t.Run("cannot change own status", func(t *testing.T) {
		env := newAdminEnv(t)
		a := env.seedAdmin(t, model.RoleSuperAdmin, model.AdminActive)

		c, rec := env.request(http.MethodPatch, `{"status":"inactive"}`)
		c.SetParamNames("id")
		c.SetParamValues("1")
		asAdmin(c, a)
		require.NoError(t, env.h.UpdateStatus(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, model.AdminActive, env.store.admins[a.ID].Status)
	})

	t.Run("suspending another admin drops their session", func(t *testing.T) {
		env := newAdminEnv(t)
		super := env.seedAdmin(t, model.RoleSuperAdmin, model.AdminActive)
		tok := "other-session"
		other := env.store.add(model.Admin{
			Name: "Ops", Email: "ops@example.com", Role: model.RoleAdmin,
			Status: model.AdminActive, RefreshToken: &tok,
		})

		c, rec := env.request(http.MethodPatch, `{"status":"suspended"}`)
		c.SetParamNames("id")
		c.SetParamValues("2")
		asAdmin(c, super)
		require.NoError(t, env.h.UpdateStatus(c))
		require.Equal(t, http.StatusOK, rec.Code)

		stored := env.store.admins[other.ID]
		require.Equal(t, model.AdminSuspended, stored.Status)
		require.Nil(t, stored.RefreshToken)
		require.Equal(t, super.ID, *stored.UpdatedBy)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		env := newAdminEnv(t)
		a := env.seedAdmin(t, model.RoleSuperAdmin, model.AdminActive)
		c, rec := env.request(http.MethodPatch, `{"status":"banned"}`)
		c.SetParamNames("id")
		c.SetParamValues("2")
		asAdmin(c, a)
		require.NoError(t, env.h.UpdateStatus(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminUpdatePassword(t *testing.T) {
	t.Parallel()

	t.Run("self change requires correct current password", func(t *testing.T) {
		env := newAdminEnv(t)
		a := env.seedAdmin(t, model.RoleAdmin, model.AdminActive)

		c, rec := env.request(http.MethodPut, `{"current_password":"wrong","new_password":"newsecret"}`)
		c.SetParamNames("id")
		c.SetParamValues("1")
		asAdmin(c, a)
		require.NoError(t, env.h.UpdatePassword(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("self change ends the session", func(t *testing.T) {
		env := newAdminEnv(t)
		a := env.seedAdmin(t, model.RoleAdmin, model.AdminActive)
		tok := "session"
		a.RefreshToken = &tok

		c, rec := env.request(http.MethodPut, `{"current_password":"secret1","new_password":"newsecret"}`)
		c.SetParamNames("id")
		c.SetParamValues("1")
		asAdmin(c, a)
		require.NoError(t, env.h.UpdatePassword(c))
		require.Equal(t, http.StatusOK, rec.Code)

		stored := env.store.admins[a.ID]
		require.Nil(t, stored.RefreshToken)
		require.True(t, utils.VerifyPassword(stored.PasswordHash, "newsecret"))
	})

	t.Run("plain admin cannot reset another admin", func(t *testing.T) {
		env := newAdminEnv(t)
		a := env.seedAdmin(t, model.RoleAdmin, model.AdminActive)
		env.store.add(model.Admin{Name: "Ops", Email: "ops@example.com", Role: model.RoleAdmin, Status: model.AdminActive})

		c, rec := env.request(http.MethodPut, `{"new_password":"newsecret"}`)
		c.SetParamNames("id")
		c.SetParamValues("2")
		asAdmin(c, a)
		require.NoError(t, env.h.UpdatePassword(c))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("super admin resets without current password", func(t *testing.T) {
		env := newAdminEnv(t)
		super := env.seedAdmin(t, model.RoleSuperAdmin, model.AdminActive)
		other := env.store.add(model.Admin{Name: "Ops", Email: "ops@example.com", Role: model.RoleAdmin, Status: model.AdminActive})

		c, rec := env.request(http.MethodPut, `{"new_password":"newsecret"}`)
		c.SetParamNames("id")
		c.SetParamValues("2")
		asAdmin(c, super)
		require.NoError(t, env.h.UpdatePassword(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, utils.VerifyPassword(env.store.admins[other.ID].PasswordHash, "newsecret"))
	})
}

func TestAdminCreate(t *testing.T) {
	t.Parallel()

	t.Run("defaults role to admin", func(t *testing.T) {
		env := newAdminEnv(t)
		c, rec := env.request(http.MethodPost, `{"name":"Ops","phone":"0833333333","email":"ops@example.com","gender":"male","password":"secret1"}`)
		require.NoError(t, env.h.Create(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		a, err := env.store.GetByEmail(context.Background(), "ops@example.com")
		require.NoError(t, err)
		require.Equal(t, model.RoleAdmin, a.Role)
		require.Equal(t, model.AdminActive, a.Status)
		require.Nil(t, a.CreatedBy)
	})

	t.Run("records creator when called by an admin", func(t *testing.T) {
		env := newAdminEnv(t)
		super := env.seedAdmin(t, model.RoleSuperAdmin, model.AdminActive)

		c, rec := env.request(http.MethodPost, `{"name":"Ops","phone":"0833333333","email":"ops@example.com","gender":"male","password":"secret1","role":"admin"}`)
		asAdmin(c, super)
		require.NoError(t, env.h.Create(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		a, err := env.store.GetByEmail(context.Background(), "ops@example.com")
		require.NoError(t, err)
		require.NotNil(t, a.CreatedBy)
		require.Equal(t, super.ID, *a.CreatedBy)
	})

	t.Run("rejects invalid role", func(t *testing.T) {
		env := newAdminEnv(t)
		c, rec := env.request(http.MethodPost, `{"name":"Ops","phone":"0833333333","email":"ops@example.com","gender":"male","password":"secret1","role":"owner"}`)
		require.NoError(t, env.h.Create(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
