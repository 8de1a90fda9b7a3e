package permissions_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/bluestream/channelhub/internal/app/features/permissions"
	"github.com/bluestream/channelhub/internal/app/store/permissions"
	"github.com/bluestream/channelhub/internal/app/system/auth"
	"github.com/bluestream/channelhub/internal/app/system/paging"
	"github.com/bluestream/channelhub/internal/domain/models"
	"github.com/bluestream/channelhub/internal/domain/usererrors"
)

type stubService struct {
	createFn         func(ctx context.Context, grant models.UserPermissions, user string, sys bool) (models.UserPermissions, error)
	updateFn         func(ctx context.Context, requester, user string, channel primitive.ObjectID, perms []models.PermissionType, sys bool) (models.UserPermissions, bool, error)
	deleteFn         func(ctx context.Context, requester, user string, channel primitive.ObjectID, sys bool) (models.UserPermissions, bool, error)
	getOneFn         func(ctx context.Context, user string, channel primitive.ObjectID) (models.UserPermissions, bool, error)
	usersFn          func(ctx context.Context, user string, channel primitive.ObjectID, w paging.Window) ([]models.UserPermissions, error)
	usersAmountFn    func(ctx context.Context, user string, channel primitive.ObjectID) (int64, error)
	channelsFn       func(ctx context.Context, user string, perms []models.PermissionType, search string, w paging.Window) ([]permissionstore.PermittedChannel, error)
	channelsAmountFn func(ctx context.Context, user string, perms []models.PermissionType, search string) (int64, error)
}

func (s *stubService) Create(ctx context.Context, grant models.UserPermissions, user string, sys bool) (models.UserPermissions, error) {
	return s.createFn(ctx, grant, user, sys)
}
func (s *stubService) UpdateOne(ctx context.Context, requester, user string, channel primitive.ObjectID, perms []models.PermissionType, sys bool) (models.UserPermissions, bool, error) {
	return s.updateFn(ctx, requester, user, channel, perms, sys)
}
func (s *stubService) DeleteOne(ctx context.Context, requester, user string, channel primitive.ObjectID, sys bool) (models.UserPermissions, bool, error) {
	return s.deleteFn(ctx, requester, user, channel, sys)
}
func (s *stubService) GetOne(ctx context.Context, user string, channel primitive.ObjectID) (models.UserPermissions, bool, error) {
	return s.getOneFn(ctx, user, channel)
}
func (s *stubService) GetChannelPermittedUsers(ctx context.Context, user string, channel primitive.ObjectID, w paging.Window) ([]models.UserPermissions, error) {
	return s.usersFn(ctx, user, channel, w)
}
func (s *stubService) GetChannelPermittedUsersAmount(ctx context.Context, user string, channel primitive.ObjectID) (int64, error) {
	return s.usersAmountFn(ctx, user, channel)
}
func (s *stubService) GetUserPermittedChannels(ctx context.Context, user string, perms []models.PermissionType, search string, w paging.Window) ([]permissionstore.PermittedChannel, error) {
	return s.channelsFn(ctx, user, perms, search, w)
}
func (s *stubService) GetUserPermittedChannelsAmount(ctx context.Context, user string, perms []models.PermissionType, search string) (int64, error) {
	return s.channelsAmountFn(ctx, user, perms, search)
}

func router(svc *stubService) http.Handler {
	return permissions.Routes(permissions.NewHandler(svc, 20, zap.NewNop()))
}

func signedIn(req *http.Request, user string) *http.Request {
	return auth.WithTestUser(req, &auth.SessionUser{ID: user})
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("error body not JSON: %v (%s)", err, rr.Body.String())
	}
	return env.Error.Code
}

func TestCreate(t *testing.T) {
	channel := primitive.NewObjectID()
	var got models.UserPermissions
	var gotRequester string
	svc := &stubService{
		createFn: func(_ context.Context, grant models.UserPermissions, user string, sys bool) (models.UserPermissions, error) {
			got, gotRequester = grant, user
			grant.ID = primitive.NewObjectID()
			return grant, nil
		},
	}

	body := `{"user":"viewer@example.com","channel":"` + channel.Hex() + `","permissions":["EDIT","UPLOAD"]}`
	req := signedIn(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "owner@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	if got.User != "viewer@example.com" || got.Channel != channel {
		t.Errorf("grant: got %+v", got)
	}
	if len(got.Permissions) != 2 || got.Permissions[0] != models.PermissionEdit {
		t.Errorf("permissions: got %v", got.Permissions)
	}
	if gotRequester != "owner@example.com" {
		t.Errorf("requester: got %q", gotRequester)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := &stubService{
		createFn: func(context.Context, models.UserPermissions, string, bool) (models.UserPermissions, error) {
			t.Fatal("service must not be called for invalid input")
			return models.UserPermissions{}, nil
		},
	}
	channel := primitive.NewObjectID().Hex()

	tests := []struct {
		name string
		body string
		code usererrors.Kind
	}{
		{"missing user", `{"channel":"` + channel + `","permissions":["EDIT"]}`, usererrors.KindPropertyInvalid},
		{"bad user shape", `{"user":"not-an-address","channel":"` + channel + `","permissions":["EDIT"]}`, usererrors.KindPropertyInvalid},
		{"missing channel", `{"user":"u@example.com","permissions":["EDIT"]}`, usererrors.KindPropertyInvalid},
		{"bad channel id", `{"user":"u@example.com","channel":"nope","permissions":["EDIT"]}`, usererrors.KindIDInvalid},
		{"missing permissions", `{"user":"u@example.com","channel":"` + channel + `"}`, usererrors.KindPropertyInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := signedIn(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)), "u@example.com")
			rr := httptest.NewRecorder()
			router(svc).ServeHTTP(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400 (%s)", rr.Code, rr.Body.String())
			}
			if code := errCode(t, rr); code != string(tt.code) {
				t.Errorf("code: got %q, want %q", code, tt.code)
			}
		})
	}
}

func TestAnonymousRejected(t *testing.T) {
	svc := &stubService{}
	for _, ep := range []struct{ method, path string }{
		{http.MethodPost, "/"},
		{http.MethodPut, "/one"},
		{http.MethodDelete, "/one"},
		{http.MethodGet, "/one"},
		{http.MethodGet, "/my-channels"},
	} {
		req := httptest.NewRequest(ep.method, ep.path, strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		router(svc).ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: got %d, want 401", ep.method, ep.path, rr.Code)
		}
	}
}

func TestUpdateOne_NotFound(t *testing.T) {
	channel := primitive.NewObjectID()
	svc := &stubService{
		updateFn: func(context.Context, string, string, primitive.ObjectID, []models.PermissionType, bool) (models.UserPermissions, bool, error) {
			return models.UserPermissions{}, false, nil
		},
	}

	body := `{"user":"viewer@example.com","channel":"` + channel.Hex() + `","permissions":["EDIT"]}`
	req := signedIn(httptest.NewRequest(http.MethodPut, "/one", strings.NewReader(body)), "admin@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404 (%s)", rr.Code, rr.Body.String())
	}
	if code := errCode(t, rr); code != string(usererrors.KindPermissionsNotFound) {
		t.Errorf("code: got %q, want user_permissions_not_found", code)
	}
}

func TestDeleteOne(t *testing.T) {
	channel := primitive.NewObjectID()
	var gotRequester, gotTarget string
	svc := &stubService{
		deleteFn: func(_ context.Context, requester, user string, ch primitive.ObjectID, sys bool) (models.UserPermissions, bool, error) {
			gotRequester, gotTarget = requester, user
			return models.UserPermissions{User: user, Channel: ch}, true, nil
		},
	}

	req := signedIn(httptest.NewRequest(http.MethodDelete, "/one?user=viewer@example.com&channel="+channel.Hex(), nil), "owner@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	if gotRequester != "owner@example.com" || gotTarget != "viewer@example.com" {
		t.Errorf("requester/target: got %q/%q", gotRequester, gotTarget)
	}
}

func TestDeleteOne_PolicyErrorSurfaces(t *testing.T) {
	svc := &stubService{
		deleteFn: func(context.Context, string, string, primitive.ObjectID, bool) (models.UserPermissions, bool, error) {
			return models.UserPermissions{}, false, usererrors.OwnerPermissionsNotRemovable()
		},
	}

	req := signedIn(httptest.NewRequest(http.MethodDelete, "/one?user=owner@example.com&channel="+primitive.NewObjectID().Hex(), nil), "admin@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", rr.Code)
	}
	if code := errCode(t, rr); code != string(usererrors.KindOwnerPermissionsNotRemovable) {
		t.Errorf("code: got %q", code)
	}
}

func TestGetOne_SelfScoped(t *testing.T) {
	channel := primitive.NewObjectID()
	svc := &stubService{
		getOneFn: func(_ context.Context, user string, ch primitive.ObjectID) (models.UserPermissions, bool, error) {
			if user != "me@example.com" {
				t.Errorf("user: got %q, want the requester", user)
			}
			return models.UserPermissions{User: user, Channel: ch, Permissions: []models.PermissionType{models.PermissionAdmin}}, true, nil
		},
	}

	req := signedIn(httptest.NewRequest(http.MethodGet, "/one?channel="+channel.Hex(), nil), "me@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestGetUserPermittedChannels_Params(t *testing.T) {
	svc := &stubService{
		channelsFn: func(_ context.Context, user string, perms []models.PermissionType, search string, w paging.Window) ([]permissionstore.PermittedChannel, error) {
			if user != "me@example.com" {
				t.Errorf("user: got %q", user)
			}
			if len(perms) != 2 || perms[0] != models.PermissionAdmin || perms[1] != models.PermissionEdit {
				t.Errorf("permissions: got %v", perms)
			}
			if search != "cats" {
				t.Errorf("search: got %q", search)
			}
			return []permissionstore.PermittedChannel{}, nil
		},
	}

	req := signedIn(httptest.NewRequest(http.MethodGet, "/my-channels?permission=ADMIN&permission=EDIT&searchFilter=cats", nil), "me@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
}

func TestGetChannelPermittedUsersAmount(t *testing.T) {
	channel := primitive.NewObjectID()
	svc := &stubService{
		usersAmountFn: func(_ context.Context, user string, ch primitive.ObjectID) (int64, error) {
			if ch != channel {
				t.Errorf("channel: got %s", ch.Hex())
			}
			return 3, nil
		},
	}

	req := signedIn(httptest.NewRequest(http.MethodGet, "/channel/"+channel.Hex()+"/users/amount", nil), "admin@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	var out struct {
		Amount int64 `json:"amount"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil || out.Amount != 3 {
		t.Fatalf("amount: got %s", rr.Body.String())
	}
}
