package session

import (
	"context"
	"sync"

	"github.com/dmaguire/rampart/internal/models"
)

// memStore is an in-memory TokenStore for tests.
type memStore struct {
	mu    sync.Mutex
	token string
	user  *models.User
}

func (s *memStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *memStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *memStore) User() (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.user != nil
}

func (s *memStore) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

func (s *memStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}

// fakeAPI is a scripted AuthAPI for tests.
type fakeAPI struct {
	loginResult  *models.AuthResult
	loginErr     error
	signupResult *models.AuthResult
	signupErr    error
	verifyErr    error
	updateResult *models.User
	updateErr    error
	resendErr    error

	verifyCalls int
	resendCalls int
	lastPatch   *models.ProfilePatch
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAPI) Signup(ctx context.Context, name, email, password, role string) (*models.AuthResult, error) {
	return f.signupResult, f.signupErr
}

func (f *fakeAPI) VerifyToken(ctx context.Context, token string) error {
	f.verifyCalls++
	return f.verifyErr
}

func (f *fakeAPI) UpdateProfile(ctx context.Context, token string, patch *models.ProfilePatch) (*models.User, error) {
	f.lastPatch = patch
	return f.updateResult, f.updateErr
}

func (f *fakeAPI) ResendCode(ctx context.Context, email, purpose string) error {
	f.resendCalls++
	return f.resendErr
}

// recordingNav records navigation targets.
type recordingNav struct {
	routes []string
}

func (n *recordingNav) NavigateTo(route string) {
	n.routes = append(n.routes, route)
}

func (n *recordingNav) last() string {
	if len(n.routes) == 0 {
		return ""
	}
	return n.routes[len(n.routes)-1]
}

// recordingNotifier records emitted messages.
type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(message string) {
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Error(message string) {
	n.errors = append(n.errors, message)
}
