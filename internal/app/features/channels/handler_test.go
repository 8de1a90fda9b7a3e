package channels_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/bluestream/channelhub/internal/app/features/channels"
	"github.com/bluestream/channelhub/internal/app/store/channels"
	"github.com/bluestream/channelhub/internal/app/system/auth"
	"github.com/bluestream/channelhub/internal/app/system/paging"
	"github.com/bluestream/channelhub/internal/app/system/validators"
	"github.com/bluestream/channelhub/internal/domain/models"
	"github.com/bluestream/channelhub/internal/domain/usererrors"
)

// stubService lets each test pin down just the calls it cares about.
type stubService struct {
	createFn        func(ctx context.Context, ch models.Channel, user string) (models.Channel, error)
	createProfileFn func(ctx context.Context, owner, name, description string) (models.Channel, error)
	updateFn     func(ctx context.Context, id primitive.ObjectID, u channelstore.Update, user string, sys bool) (models.Channel, error)
	deleteFn     func(ctx context.Context, id primitive.ObjectID, user string, sys bool) (models.Channel, error)
	getByIDFn    func(ctx context.Context, id primitive.ObjectID) (models.Channel, bool, error)
	getByIDsFn   func(ctx context.Context, ids []primitive.ObjectID) ([]models.Channel, error)
	getManyFn    func(ctx context.Context, f channelstore.Filter, w paging.Window) ([]models.Channel, error)
	getAmountFn  func(ctx context.Context, f channelstore.Filter) (int64, error)
	searchFn     func(ctx context.Context, s string, w paging.Window) ([]models.Channel, error)
	searchAmtFn  func(ctx context.Context, s string) (int64, error)
}

func (s *stubService) Create(ctx context.Context, ch models.Channel, user string) (models.Channel, error) {
	return s.createFn(ctx, ch, user)
}
func (s *stubService) CreateProfile(ctx context.Context, owner, name, description string) (models.Channel, error) {
	return s.createProfileFn(ctx, owner, name, description)
}
func (s *stubService) UpdateByID(ctx context.Context, id primitive.ObjectID, u channelstore.Update, user string, sys bool) (models.Channel, error) {
	return s.updateFn(ctx, id, u, user, sys)
}
func (s *stubService) DeleteByID(ctx context.Context, id primitive.ObjectID, user string, sys bool) (models.Channel, error) {
	return s.deleteFn(ctx, id, user, sys)
}
func (s *stubService) GetByID(ctx context.Context, id primitive.ObjectID) (models.Channel, bool, error) {
	return s.getByIDFn(ctx, id)
}
func (s *stubService) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Channel, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *stubService) GetMany(ctx context.Context, f channelstore.Filter, w paging.Window) ([]models.Channel, error) {
	return s.getManyFn(ctx, f, w)
}
func (s *stubService) GetAmount(ctx context.Context, f channelstore.Filter) (int64, error) {
	return s.getAmountFn(ctx, f)
}
func (s *stubService) GetSearched(ctx context.Context, q string, w paging.Window) ([]models.Channel, error) {
	return s.searchFn(ctx, q, w)
}
func (s *stubService) GetSearchedAmount(ctx context.Context, q string) (int64, error) {
	return s.searchAmtFn(ctx, q)
}

func router(svc *stubService) http.Handler {
	h := channels.NewHandler(svc, validators.DefaultBounds(), 20, zap.NewNop())
	return channels.Routes(h)
}

func signedIn(req *http.Request, user string) *http.Request {
	return auth.WithTestUser(req, &auth.SessionUser{ID: user})
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("error body not JSON: %v (%s)", err, rr.Body.String())
	}
	return env.Error.Code
}

func TestCreate(t *testing.T) {
	var gotName, gotDesc, gotUser string
	svc := &stubService{
		createFn: func(_ context.Context, ch models.Channel, user string) (models.Channel, error) {
			gotName, gotDesc, gotUser = ch.Name, ch.Description, user
			ch.ID = primitive.NewObjectID()
			ch.User = user
			return ch, nil
		},
	}

	body := `{"name":"  <b>My Channel</b> ","description":"All about things"}`
	req := signedIn(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "owner@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	if gotName != "My Channel" {
		t.Errorf("name should be sanitized and trimmed, got %q", gotName)
	}
	if gotDesc != "All about things" {
		t.Errorf("description: got %q", gotDesc)
	}
	if gotUser != "owner@example.com" {
		t.Errorf("requesting user: got %q", gotUser)
	}

	var out models.Channel
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("response not a channel: %v", err)
	}
	if out.User != "owner@example.com" {
		t.Errorf("response user: got %q", out.User)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := &stubService{
		createFn: func(context.Context, models.Channel, string) (models.Channel, error) {
			t.Fatal("service must not be called for invalid input")
			return models.Channel{}, nil
		},
	}

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"description":"long enough"}`},
		{"missing description", `{"name":"a name"}`},
		{"name too short", `{"name":"x","description":"long enough"}`},
		{"name too long", `{"name":"` + strings.Repeat("a", 33) + `","description":"long enough"}`},
		{"description too long", `{"name":"a name","description":"` + strings.Repeat("d", 129) + `"}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := signedIn(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)), "u@example.com")
			rr := httptest.NewRecorder()
			router(svc).ServeHTTP(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rr.Code)
			}
			if code := errCode(t, rr); code != string(usererrors.KindPropertyInvalid) {
				t.Errorf("code: got %q, want property_invalid", code)
			}
		})
	}
}

func TestCreateProfile(t *testing.T) {
	svc := &stubService{
		createProfileFn: func(_ context.Context, owner, name, description string) (models.Channel, error) {
			if owner != "me@example.com" {
				t.Errorf("owner: got %q, want the requester", owner)
			}
			return models.Channel{ID: primitive.NewObjectID(), User: owner, Name: name, IsProfile: true}, nil
		},
	}

	body := `{"name":"My Profile","description":"personal uploads"}`
	req := signedIn(httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(body)), "me@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	var out models.Channel
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil || !out.IsProfile {
		t.Errorf("expected a profile channel, got %s", rr.Body.String())
	}
}

func TestCreate_RequiresSignIn(t *testing.T) {
	svc := &stubService{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a name","description":"a description"}`))
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestUpdate(t *testing.T) {
	id := primitive.NewObjectID()
	var gotUpdate channelstore.Update
	svc := &stubService{
		updateFn: func(_ context.Context, gotID primitive.ObjectID, u channelstore.Update, user string, sys bool) (models.Channel, error) {
			if gotID != id {
				t.Errorf("id: got %s, want %s", gotID.Hex(), id.Hex())
			}
			gotUpdate = u
			return models.Channel{ID: gotID, Name: *u.Name}, nil
		},
	}

	body := `{"name":"New Name"}`
	req := signedIn(httptest.NewRequest(http.MethodPut, "/"+id.Hex(), strings.NewReader(body)), "u@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	if gotUpdate.Name == nil || *gotUpdate.Name != "New Name" {
		t.Errorf("update name: got %v", gotUpdate.Name)
	}
	if gotUpdate.Description != nil {
		t.Error("description should be left unchanged")
	}
}

func TestUpdate_BadID(t *testing.T) {
	svc := &stubService{}
	req := signedIn(httptest.NewRequest(http.MethodPut, "/not-an-id", strings.NewReader(`{"name":"New Name"}`)), "u@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if code := errCode(t, rr); code != string(usererrors.KindIDInvalid) {
		t.Errorf("code: got %q, want id_invalid", code)
	}
}

func TestUpdate_NoFields(t *testing.T) {
	svc := &stubService{}
	req := signedIn(httptest.NewRequest(http.MethodPut, "/"+primitive.NewObjectID().Hex(), strings.NewReader(`{}`)), "u@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestDelete_PolicyErrorSurfaces(t *testing.T) {
	svc := &stubService{
		deleteFn: func(context.Context, primitive.ObjectID, string, bool) (models.Channel, error) {
			return models.Channel{}, usererrors.UnauthorizedUser()
		},
	}
	req := signedIn(httptest.NewRequest(http.MethodDelete, "/"+primitive.NewObjectID().Hex(), nil), "u@example.com")
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", rr.Code)
	}
	if code := errCode(t, rr); code != string(usererrors.KindUnauthorizedUser) {
		t.Errorf("code: got %q, want unauthorized_user", code)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := &stubService{
		getByIDFn: func(context.Context, primitive.ObjectID) (models.Channel, bool, error) {
			return models.Channel{}, false, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/"+primitive.NewObjectID().Hex(), nil)
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}

func TestGetByIDs(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	svc := &stubService{
		getByIDsFn: func(_ context.Context, ids []primitive.ObjectID) ([]models.Channel, error) {
			if len(ids) != 2 || ids[0] != a || ids[1] != b {
				t.Errorf("ids: got %v", ids)
			}
			return []models.Channel{{ID: a}}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/ids?id="+a.Hex()+"&id="+b.Hex(), nil)
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}

	t.Run("bad id rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ids?id=nope", nil)
		rr := httptest.NewRecorder()
		router(svc).ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status: got %d, want 400", rr.Code)
		}
	})
}

func TestGetMany_Filter(t *testing.T) {
	var gotFilter channelstore.Filter
	var gotWindow paging.Window
	svc := &stubService{
		getManyFn: func(_ context.Context, f channelstore.Filter, w paging.Window) ([]models.Channel, error) {
			gotFilter, gotWindow = f, w
			return []models.Channel{}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/many?user=u@example.com&isProfile=false&startIndex=10&endIndex=30&sortBy=name&sortOrder=-", nil)
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if gotFilter.User != "u@example.com" {
		t.Errorf("filter user: got %q", gotFilter.User)
	}
	if gotFilter.IsProfile == nil || *gotFilter.IsProfile {
		t.Errorf("filter isProfile: got %v", gotFilter.IsProfile)
	}
	if gotWindow.Start != 10 || gotWindow.End != 30 || gotWindow.SortBy != "name" || gotWindow.SortOrder != -1 {
		t.Errorf("window: got %+v", gotWindow)
	}

	t.Run("bad isProfile rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/many?isProfile=maybe", nil)
		rr := httptest.NewRecorder()
		router(svc).ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status: got %d, want 400", rr.Code)
		}
	})
}

func TestGetAmount(t *testing.T) {
	svc := &stubService{
		getAmountFn: func(context.Context, channelstore.Filter) (int64, error) { return 7, nil },
	}
	req := httptest.NewRequest(http.MethodGet, "/amount", nil)
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)

	var out struct {
		Amount int64 `json:"amount"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil || out.Amount != 7 {
		t.Fatalf("amount: got %s", rr.Body.String())
	}
}

func TestGetSearched(t *testing.T) {
	svc := &stubService{
		searchFn: func(_ context.Context, q string, _ paging.Window) ([]models.Channel, error) {
			if q != "cats" {
				t.Errorf("search: got %q, want cats", q)
			}
			return []models.Channel{}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/search?searchFilter=cats", nil)
	rr := httptest.NewRecorder()
	router(svc).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}
