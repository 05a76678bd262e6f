package user

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/hitoshi/eduportal/internal/backend"
	"github.com/hitoshi/eduportal/internal/model"
	"github.com/hitoshi/eduportal/internal/security"
	"github.com/hitoshi/eduportal/internal/validation"
)

// --- モック ---

type mockUserAPI struct {
	getUserFn    func(ctx context.Context, userID string) (*model.UserProfile, error)
	updateUserFn func(ctx context.Context, userID string, update backend.ProfileUpdate) (*model.UserProfile, error)
	updateCalls  int
}

func (m *mockUserAPI) GetUser(ctx context.Context, userID string) (*model.UserProfile, error) {
	return m.getUserFn(ctx, userID)
}

func (m *mockUserAPI) UpdateUser(ctx context.Context, userID string, update backend.ProfileUpdate) (*model.UserProfile, error) {
	m.updateCalls++
	return m.updateUserFn(ctx, userID, update)
}

func newTestService(api *mockUserAPI, gotToken *string) *Service {
	factory := func(token string) UserAPI {
		if gotToken != nil {
			*gotToken = token
		}
		return api
	}
	return NewService(factory, validation.MustNew(), security.NewTextSanitizer())
}

var testSession = model.Session{ID: "sess-1", UserID: "U1", ProfileType: model.ProfileStudent, Token: "tok-U1"}

func validInput() ProfileInput {
	return ProfileInput{FirstName: "Awa", LastName: "Koné", Phone: "+225 01 02 03 04", GradeID: "G10", RegionID: "R1"}
}

// --- テスト ---

func TestService_GetProfile_UsesSessionToken(t *testing.T) {
	var token string
	api := &mockUserAPI{getUserFn: func(_ context.Context, userID string) (*model.UserProfile, error) {
		return &model.UserProfile{UserID: userID, GradeID: "G10"}, nil
	}}
	svc := newTestService(api, &token)

	profile, err := svc.GetProfile(context.Background(), testSession)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "tok-U1" {
		t.Errorf("token = %q, want tok-U1", token)
	}
	if profile.UserID != "U1" {
		t.Errorf("UserID = %q, want U1", profile.UserID)
	}
}

func TestService_GetProfile_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unauthorized", &backend.StatusError{StatusCode: http.StatusUnauthorized}, model.ErrCodeSessionExpired},
		{"not found", &backend.StatusError{StatusCode: http.StatusNotFound}, model.ErrCodeUserNotFound},
		{"empty payload", backend.ErrEmptyUser, model.ErrCodeUserNotFound},
		{"rejected", &backend.StatusError{StatusCode: http.StatusForbidden, Message: "Accès refusé"}, model.ErrCodeBackendRejected},
		{"server error", &backend.StatusError{StatusCode: http.StatusBadGateway}, model.ErrCodeBackendUnavailable},
		{"network error", errors.New("connection reset"), model.ErrCodeBackendUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockUserAPI{getUserFn: func(context.Context, string) (*model.UserProfile, error) {
				return nil, tt.err
			}}
			_, err := newTestService(api, nil).GetProfile(context.Background(), testSession)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *model.APIError", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

func TestService_GetProfile_Canceled(t *testing.T) {
	api := &mockUserAPI{getUserFn: func(context.Context, string) (*model.UserProfile, error) {
		return nil, context.Canceled
	}}
	_, err := newTestService(api, nil).GetProfile(context.Background(), testSession)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestService_UpdateProfile_SanitizesAndForwards(t *testing.T) {
	var got backend.ProfileUpdate
	api := &mockUserAPI{updateUserFn: func(_ context.Context, userID string, update backend.ProfileUpdate) (*model.UserProfile, error) {
		got = update
		return &model.UserProfile{UserID: userID, FirstName: update.FirstName, GradeID: update.GradeID}, nil
	}}
	svc := newTestService(api, nil)

	in := validInput()
	in.FirstName = "<i>Awa</i>"
	in.GradeID = " G11 "
	profile, err := svc.UpdateProfile(context.Background(), testSession, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FirstName != "Awa" {
		t.Errorf("FirstName = %q, want markup stripped", got.FirstName)
	}
	if got.GradeID != "G11" {
		t.Errorf("GradeID = %q, want trimmed", got.GradeID)
	}
	if got.Phone != "+22501020304" {
		t.Errorf("Phone = %q, want spaces removed", got.Phone)
	}
	if !profile.HasGrade() {
		t.Error("updated profile should have a grade")
	}
}

func TestService_UpdateProfile_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *ProfileInput)
		wantField string
	}{
		{"missing grade", func(in *ProfileInput) { in.GradeID = "  " }, "gradeId"},
		{"markup only name", func(in *ProfileInput) { in.LastName = "<b></b>" }, "nom"},
		{"bad phone", func(in *ProfileInput) { in.Phone = "12" }, "telephone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockUserAPI{}
			in := validInput()
			tt.mutate(&in)

			_, err := newTestService(api, nil).UpdateProfile(context.Background(), testSession, in)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
				t.Fatalf("err = %v, want VALIDATION_FAILED", err)
			}
			if _, ok := apiErr.Fields[tt.wantField]; !ok {
				t.Errorf("Fields = %v, want %q", apiErr.Fields, tt.wantField)
			}
			if api.updateCalls != 0 {
				t.Error("backend must not be called on invalid input")
			}
		})
	}
}

func TestService_UpdateProfile_SessionExpired(t *testing.T) {
	api := &mockUserAPI{updateUserFn: func(context.Context, string, backend.ProfileUpdate) (*model.UserProfile, error) {
		return nil, &backend.StatusError{StatusCode: http.StatusUnauthorized}
	}}
	_, err := newTestService(api, nil).UpdateProfile(context.Background(), testSession, validInput())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSessionExpired {
		t.Errorf("err = %v, want SESSION_EXPIRED", err)
	}
}
