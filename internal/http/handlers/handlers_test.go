package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/foodshare/go-donation-backend/internal/chatbot"
	"github.com/foodshare/go-donation-backend/internal/domain"
	"github.com/foodshare/go-donation-backend/internal/http/middleware"
	"github.com/foodshare/go-donation-backend/internal/repo"
	"github.com/foodshare/go-donation-backend/internal/services"
)

var errAny = errors.New("boom")

//
// Fakes
//

type fakeDonationService struct {
	submitOut *domain.Donation
	submitErr error

	viewOut *domain.Donation
	viewErr error

	listOut   []domain.Donation
	listTotal int64
	listErr   error
	gotList   struct {
		statuses       []string
		donorID        string
		agentID        string
		page, pageSize int
	}

	applyOut *domain.Donation
	applyErr error
	gotApply struct {
		id, action, role string
		params           services.TransitionParams
	}
}

func (f *fakeDonationService) Submit(_ context.Context, donorID, foodType, quantity, description string, amount *float64) (*domain.Donation, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	d := f.submitOut
	if d == nil {
		d = &domain.Donation{ID: "d1", DonorID: donorID, FoodType: foodType,
			Quantity: quantity, Description: description, Amount: amount,
			Status: domain.StatusPending}
	}
	return d, nil
}

func (f *fakeDonationService) View(_ context.Context, id string) (*domain.Donation, error) {
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	return f.viewOut, nil
}

func (f *fakeDonationService) ListPage(_ context.Context, statuses []string, donorID, agentID string, page, pageSize int) ([]domain.Donation, int64, error) {
	f.gotList.statuses = statuses
	f.gotList.donorID = donorID
	f.gotList.agentID = agentID
	f.gotList.page = page
	f.gotList.pageSize = pageSize
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.listOut, f.listTotal, nil
}

func (f *fakeDonationService) Apply(_ context.Context, donationID, action, actorRole string, params services.TransitionParams) (*domain.Donation, error) {
	f.gotApply.id = donationID
	f.gotApply.action = action
	f.gotApply.role = actorRole
	f.gotApply.params = params
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	d := f.applyOut
	if d == nil {
		d = &domain.Donation{ID: donationID, Status: domain.StatusAccepted}
	}
	return d, nil
}

type fakeAccountService struct {
	signupOut *domain.User
	signupErr error
	gotSignup struct {
		in   services.SignupInput
		code string
	}

	authOut *domain.User
	authErr error

	updateErr error
	gotUpdate struct {
		userID, firstName, lastName, phone, address string
	}
}

func (f *fakeAccountService) Signup(_ context.Context, in services.SignupInput, otpCode string) (*domain.User, error) {
	f.gotSignup.in = in
	f.gotSignup.code = otpCode
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return f.signupOut, nil
}

func (f *fakeAccountService) Authenticate(_ context.Context, email, password string) (*domain.User, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.authOut, nil
}

func (f *fakeAccountService) UpdateProfile(_ context.Context, userID, firstName, lastName, phone, address string) error {
	f.gotUpdate.userID = userID
	f.gotUpdate.firstName = firstName
	f.gotUpdate.lastName = lastName
	f.gotUpdate.phone = phone
	f.gotUpdate.address = address
	return f.updateErr
}

type fakeOTPService struct {
	issueErr  error
	verifyErr error
	gotEmail  string
	gotCode   string
}

func (f *fakeOTPService) Issue(_ context.Context, email string) error {
	f.gotEmail = email
	return f.issueErr
}

func (f *fakeOTPService) Verify(_ context.Context, email, code string) error {
	f.gotEmail = email
	f.gotCode = code
	return f.verifyErr
}

type fakeAdminService struct {
	stats    *repo.DashboardStats
	statsErr error

	agents    []domain.User
	agentsErr error
}

func (f *fakeAdminService) Dashboard(_ context.Context) (*repo.DashboardStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeAdminService) Agents(_ context.Context) ([]domain.User, error) {
	return f.agents, f.agentsErr
}

type fakeResponder struct {
	reply   string
	gotMsg  string
	gotCtx  chatbot.Context
	invoked bool
}

func (f *fakeResponder) Answer(_ context.Context, message string, c chatbot.Context) string {
	f.invoked = true
	f.gotMsg = message
	f.gotCtx = c
	return f.reply
}

//
// Router plumbing
//

// newTestRouter builds a gin engine with identity resolution over the given
// users and every handler route mounted, mirroring the production layout
// minus the cross-cutting middleware.
func newTestRouter(h *Handlers, users ...*domain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	byID := map[string]*domain.User{}
	for _, u := range users {
		byID[u.ID] = u
	}
	lookup := func(_ context.Context, id string) (*domain.User, error) {
		if u, ok := byID[id]; ok {
			return u, nil
		}
		return nil, errors.New("record not found")
	}

	r := gin.New()
	r.Use(middleware.Identity(lookup))

	r.POST("/donations", h.SubmitDonation)
	r.GET("/donations", h.ListDonations)
	r.GET("/donations/:id", h.GetDonation)
	r.POST("/donations/:id/accept", h.TransitionDonation(services.ActionAccept))
	r.POST("/donations/:id/reject", h.TransitionDonation(services.ActionReject))
	r.POST("/donations/:id/assign", h.TransitionDonation(services.ActionAssign))
	r.POST("/donations/:id/collect", h.TransitionDonation(services.ActionCollect))

	r.POST("/chatbot/message", h.ChatMessage)

	r.POST("/auth/send-otp", h.SendOTP)
	r.POST("/auth/verify-otp", h.VerifyOTP)
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.PUT("/auth/profile", h.UpdateProfile)

	r.GET("/admin/dashboard", h.Dashboard)
	r.GET("/admin/agents", h.ListAgents)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error envelope: %v (body=%s)", err, w.Body.String())
	}
	return e
}
