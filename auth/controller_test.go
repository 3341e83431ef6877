package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-hr-portal/access"
	"github.com/jrsteele09/go-hr-portal/auth"
	"github.com/jrsteele09/go-hr-portal/credentials"
	"github.com/jrsteele09/go-hr-portal/credentials/storefake"
	"github.com/jrsteele09/go-hr-portal/internal/utils"
	"github.com/jrsteele09/go-hr-portal/users"
	fakeuserrepo "github.com/jrsteele09/go-hr-portal/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "a@b.com"
	testPassword = "Passw0rd"
	waitFor      = 2 * time.Second
	tick         = 5 * time.Millisecond
)

var (
	adminPage    = access.Requirement{Kind: access.Protected, Roles: []users.Role{users.RoleAdmin}}
	employeePage = access.Requirement{Kind: access.Protected, Roles: []users.Role{users.RoleEmployee}}
	loginPage    = access.Requirement{Kind: access.PublicOnly}
)

// navigations records where the controller sent the browser
type navigations struct {
	mu    sync.Mutex
	paths []string
}

func (n *navigations) NavigateTo(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *navigations) list() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type statuses struct {
	mu   sync.Mutex
	seen []auth.Status
}

func (s *statuses) observe(state auth.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, state.Status)
}

func (s *statuses) list() []auth.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.Status(nil), s.seen...)
}

type testFixture struct {
	store      *storefake.FakeStore
	repo       *fakeuserrepo.FakeUserRepo
	nav        *navigations
	statuses   *statuses
	controller *auth.Controller
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		store:    storefake.New(),
		repo:     fakeuserrepo.NewFakeUserRepo(),
		nav:      &navigations{},
		statuses: &statuses{},
	}
	f.controller = auth.NewController(f.store, f.repo,
		auth.WithNavigator(f.nav),
		auth.WithStateObserver(f.statuses.observe),
	)
	t.Cleanup(f.controller.Close)
	return f
}

// addUser registers an account with role and profile rows
func (f *testFixture) addUser(email string, role users.Role) string {
	id := f.store.AddAccount(email, testPassword)
	f.repo.Seed(id, role, &users.Profile{
		FullName:    "Test User",
		Email:       email,
		CompanyName: "Acme",
		Country:     users.CountrySingapore,
	})
	return id
}

func (f *testFixture) start(t *testing.T) {
	t.Helper()
	f.controller.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, f.controller.Wait(ctx))
}

func decide(c *auth.Controller, req access.Requirement, path string) access.Decision {
	return access.Decide(c.State().Subject(), req, path)
}

func TestStartWithoutSession(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, auth.StatusUnresolved, f.controller.State().Status)
	require.True(t, f.controller.IsResolving())

	f.start(t)

	require.Equal(t, []auth.Status{auth.StatusResolving, auth.StatusAnonymous}, f.statuses.list())
	require.False(t, f.controller.IsResolving())
	require.Equal(t,
		access.Decision{Action: access.Redirect, Location: "/login?redirect=%2Fadmin%2Fdashboard"},
		decide(f.controller, adminPage, "/admin/dashboard"))
}

func TestStartWithExistingSession(t *testing.T) {
	f := setupTestFixture(t)
	id := f.addUser(testEmail, users.RoleEmployee)
	f.store.SetSession(f.store.SessionFor(testEmail))

	f.start(t)

	state := f.controller.State()
	require.Equal(t, auth.StatusAuthenticated, state.Status)
	require.Equal(t, id, state.User.UserID)
	require.Equal(t, users.RoleEmployee, *state.Role)
	require.Equal(t, "Test User", state.Profile.FullName)
	require.Equal(t, 1, f.store.Subscribers())
}

func TestLoadingBeforeStart(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, access.Decision{Action: access.Loading}, decide(f.controller, adminPage, "/admin/dashboard"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, f.controller.Wait(ctx), context.DeadlineExceeded)
}

func TestSignUpAdmin(t *testing.T) {
	f := setupTestFixture(t)
	f.start(t)

	err := f.controller.SignUp(context.Background(), auth.SignUpParameters{
		Email:       testEmail,
		Password:    testPassword,
		FullName:    "Jane Doe",
		CompanyName: "Acme",
		Country:     users.CountrySingapore,
		Role:        users.RoleAdmin,
	})
	require.NoError(t, err)

	state := f.controller.State()
	require.Equal(t, auth.StatusAuthenticated, state.Status)
	require.Equal(t, users.RoleAdmin, *state.Role)
	require.Equal(t, "Jane Doe", state.Profile.FullName)
	require.Equal(t, []string{"/admin/dashboard"}, f.nav.list())

	// in-memory role and profile come from the sign-up itself
	require.Equal(t, 1, f.repo.Calls(fakeuserrepo.OpInsertRole))
	require.Equal(t, 1, f.repo.Calls(fakeuserrepo.OpInsertProfile))

	require.Equal(t,
		access.Decision{Action: access.Redirect, Location: "/admin/dashboard"},
		decide(f.controller, employeePage, "/employee/dashboard"))

	// the resolution started by the store's sign-in event must not undo the sign-up state
	f.controller.Close()
	state = f.controller.State()
	require.Equal(t, users.RoleAdmin, *state.Role)
	require.Equal(t, "Jane Doe", state.Profile.FullName)
}

func TestSignUpRejectsInvalidInput(t *testing.T) {
	f := setupTestFixture(t)
	f.start(t)

	err := f.controller.SignUp(context.Background(), auth.SignUpParameters{
		Email:    testEmail,
		Password: testPassword,
		FullName: "Jane Doe",
		Country:  "Atlantis",
		Role:     users.RoleAdmin,
	})
	require.ErrorIs(t, err, auth.ErrInvalidSignUp)
	require.Empty(t, f.store.Password(testEmail))
	require.Empty(t, f.nav.list())
}

func TestSignUpEmailTaken(t *testing.T) {
	f := setupTestFixture(t)
	f.addUser(testEmail, users.RoleEmployee)
	f.start(t)

	err := f.controller.SignUp(context.Background(), auth.SignUpParameters{
		Email:       testEmail,
		Password:    testPassword,
		FullName:    "Jane Doe",
		CompanyName: "Acme",
		Country:     users.CountryCanada,
		Role:        users.RoleEmployee,
	})
	require.ErrorIs(t, err, credentials.ErrEmailTaken)
	require.Equal(t, 0, f.repo.Calls(fakeuserrepo.OpInsertRole))
}

func TestSignUpPartialFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.start(t)
	f.repo.Fail(fakeuserrepo.OpInsertProfile, errors.New("connection reset"))

	err := f.controller.SignUp(context.Background(), auth.SignUpParameters{
		Email:       testEmail,
		Password:    testPassword,
		FullName:    "Jane Doe",
		CompanyName: "Acme",
		Country:     users.CountryIndia,
		Role:        users.RoleEmployee,
	})
	require.ErrorIs(t, err, auth.ErrPartialSignUp)
	require.Contains(t, err.Error(), "connection reset")

	var partial *auth.PartialSignUpError
	require.True(t, errors.As(err, &partial))
	require.Equal(t, auth.SignUpPhaseProfile, partial.Phase)
	require.NotEmpty(t, partial.UserID)

	// the credential record is left in place
	require.Equal(t, testPassword, f.store.Password(testEmail))
	require.Empty(t, f.nav.list())

	// the user stays signed in with whatever could be resolved
	state := f.controller.State()
	require.Equal(t, auth.StatusAuthenticated, state.Status)
	require.Equal(t, partial.UserID, state.User.UserID)
	require.Equal(t, users.RoleEmployee, *state.Role)
	require.Nil(t, state.Profile)
	require.Equal(t,
		access.Decision{Action: access.Render},
		decide(f.controller, employeePage, "/employee/dashboard"))
}

func TestSignUpRoleFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.start(t)
	f.repo.Fail(fakeuserrepo.OpInsertRole, errors.New("permission denied"))

	err := f.controller.SignUp(context.Background(), auth.SignUpParameters{
		Email:       testEmail,
		Password:    testPassword,
		FullName:    "Jane Doe",
		CompanyName: "Acme",
		Country:     users.CountryIndia,
		Role:        users.RoleEmployee,
	})
	var partial *auth.PartialSignUpError
	require.True(t, errors.As(err, &partial))
	require.Equal(t, auth.SignUpPhaseRole, partial.Phase)
	require.Equal(t, 0, f.repo.Calls(fakeuserrepo.OpInsertProfile))
}

func TestSignInResolvesBeforeReturning(t *testing.T) {
	f := setupTestFixture(t)
	id := f.addUser(testEmail, users.RoleAdmin)
	f.start(t)

	require.NoError(t, f.controller.SignIn(context.Background(), testEmail, testPassword))

	state := f.controller.State()
	require.Equal(t, auth.StatusAuthenticated, state.Status)
	require.Equal(t, id, state.User.UserID)
	require.Equal(t, users.RoleAdmin, *state.Role)
	require.Equal(t, []string{"/admin/dashboard"}, f.nav.list())
}

func TestSignInWithoutRoleGoesHome(t *testing.T) {
	f := setupTestFixture(t)
	f.store.AddAccount(testEmail, testPassword)
	f.start(t)

	require.NoError(t, f.controller.SignIn(context.Background(), testEmail, testPassword))
	state := f.controller.State()
	require.NotNil(t, state.User)
	require.Nil(t, state.Role)
	require.Equal(t, []string{"/"}, f.nav.list())

	// signed in but roleless users may still use public-only pages
	require.Equal(t, access.Decision{Action: access.Render}, decide(f.controller, loginPage, "/login"))
}

func TestSignInWrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.addUser(testEmail, users.RoleEmployee)
	f.start(t)

	err := f.controller.SignIn(context.Background(), testEmail, "wrong")
	require.ErrorIs(t, err, credentials.ErrInvalidCredentials)
	require.Equal(t, auth.StatusAnonymous, f.controller.State().Status)
	require.Nil(t, f.controller.State().User)
	require.Empty(t, f.nav.list())
}

func TestSignInServiceError(t *testing.T) {
	f := setupTestFixture(t)
	f.start(t)
	f.store.FailSignIn(credentials.ErrUnavailable)

	err := f.controller.SignIn(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, credentials.ErrUnavailable)
	require.Equal(t, 1, f.store.SignInCalls())
}

func TestEmployeeOnPublicOnlyPage(t *testing.T) {
	f := setupTestFixture(t)
	f.addUser(testEmail, users.RoleEmployee)
	f.start(t)
	require.NoError(t, f.controller.SignIn(context.Background(), testEmail, testPassword))

	require.Equal(t,
		access.Decision{Action: access.Redirect, Location: "/employee/dashboard"},
		decide(f.controller, loginPage, "/login"))
	require.Equal(t,
		access.Decision{Action: access.Redirect, Location: "/employee/dashboard"},
		decide(f.controller, adminPage, "/admin/dashboard"))
}

func TestSignOut(t *testing.T) {
	f := setupTestFixture(t)
	f.addUser(testEmail, users.RoleAdmin)
	f.start(t)
	require.NoError(t, f.controller.SignIn(context.Background(), testEmail, testPassword))

	require.NoError(t, f.controller.SignOut(context.Background()))
	state := f.controller.State()
	require.Equal(t, auth.StatusAnonymous, state.Status)
	require.Nil(t, state.User)
	require.Nil(t, state.Session)
	require.Nil(t, state.Role)
	require.Nil(t, state.Profile)

	// already signed out
	require.NoError(t, f.controller.SignOut(context.Background()))
	require.Equal(t, auth.StatusAnonymous, f.controller.State().Status)
	require.Equal(t, []string{"/admin/dashboard", "/", "/"}, f.nav.list())
}

func TestSignOutClearsStateWhenStoreFails(t *testing.T) {
	f := setupTestFixture(t)
	f.addUser(testEmail, users.RoleAdmin)
	f.start(t)
	require.NoError(t, f.controller.SignIn(context.Background(), testEmail, testPassword))
	f.store.FailSignOut(credentials.ErrUnavailable)

	require.ErrorIs(t, f.controller.SignOut(context.Background()), credentials.ErrUnavailable)
	require.Equal(t, auth.StatusAnonymous, f.controller.State().Status)
	require.Nil(t, f.controller.State().Role)
}

func TestExternalSignOut(t *testing.T) {
	f := setupTestFixture(t)
	f.addUser(testEmail, users.RoleEmployee)
	f.start(t)
	require.NoError(t, f.controller.SignIn(context.Background(), testEmail, testPassword))

	f.store.Emit(credentials.EventSignedOut, nil)

	state := f.controller.State()
	require.Equal(t, auth.StatusAnonymous, state.Status)
	require.Nil(t, state.Role)
}

func TestTokenRefreshReresolves(t *testing.T) {
	f := setupTestFixture(t)
	f.addUser(testEmail, users.RoleEmployee)
	f.start(t)
	require.NoError(t, f.controller.SignIn(context.Background(), testEmail, testPassword))
	before := f.repo.Calls(fakeuserrepo.OpFetchRole)

	f.store.Emit(credentials.EventTokenRefreshed, f.store.SessionFor(testEmail))

	require.Eventually(t, func() bool {
		return f.repo.Calls(fakeuserrepo.OpFetchRole) > before && !f.controller.IsResolving()
	}, waitFor, tick)
	require.Equal(t, users.RoleEmployee, *f.controller.State().Role)
}

func TestRoleFailureKeepsProfile(t *testing.T) {
	f := setupTestFixture(t)
	id := f.addUser(testEmail, users.RoleAdmin)
	f.repo.Fail(fakeuserrepo.OpFetchRole, errors.New("timeout"))
	f.store.SetSession(f.store.SessionFor(testEmail))

	f.start(t)

	state := f.controller.State()
	require.Equal(t, auth.StatusAuthenticated, state.Status)
	require.Equal(t, id, state.User.UserID)
	require.NotNil(t, state.Session)
	require.Nil(t, state.Role)
	require.Equal(t, "Test User", state.Profile.FullName)

	// no role means no role-gated pages, but the session is not thrown away
	require.Equal(t,
		access.Decision{Action: access.Redirect, Location: "/employee/dashboard"},
		decide(f.controller, adminPage, "/admin/dashboard"))
}

func TestMissingProfileKeepsRole(t *testing.T) {
	f := setupTestFixture(t)
	id := f.store.AddAccount(testEmail, testPassword)
	f.repo.Seed(id, users.RoleEmployee, nil)
	f.store.SetSession(f.store.SessionFor(testEmail))

	f.start(t)

	state := f.controller.State()
	require.Equal(t, users.RoleEmployee, *state.Role)
	require.Nil(t, state.Profile)
}

func TestEventDuringInitialQueryWins(t *testing.T) {
	f := setupTestFixture(t)
	id := f.addUser(testEmail, users.RoleEmployee)
	session := f.store.SessionFor(testEmail)

	var once sync.Once
	f.store.OnCurrentSession(func() {
		// the initial lookup has already read "no session" when this fires
		once.Do(func() { f.store.Emit(credentials.EventSignedIn, session) })
	})

	f.controller.Start(context.Background())

	require.Eventually(t, func() bool {
		s := f.controller.State()
		return s.Status == auth.StatusAuthenticated && s.User != nil && s.User.UserID == id
	}, waitFor, tick)
	require.Equal(t, users.RoleEmployee, *f.controller.State().Role)
}

func TestStaleResolutionIsDiscarded(t *testing.T) {
	f := setupTestFixture(t)
	slowID := f.addUser("slow@b.com", users.RoleAdmin)
	fastID := f.addUser("fast@b.com", users.RoleEmployee)
	f.start(t)

	release := make(chan struct{})
	entered := make(chan struct{})
	f.repo.OnCall(fakeuserrepo.OpFetchRole, func(userID string) {
		if userID == slowID {
			close(entered)
			<-release
		}
	})

	f.store.Emit(credentials.EventSignedIn, f.store.SessionFor("slow@b.com"))
	<-entered
	f.store.Emit(credentials.EventSignedIn, f.store.SessionFor("fast@b.com"))

	require.Eventually(t, func() bool {
		s := f.controller.State()
		return s.Status == auth.StatusAuthenticated && s.User.UserID == fastID
	}, waitFor, tick)

	close(release)
	f.controller.Close()

	state := f.controller.State()
	require.Equal(t, fastID, state.User.UserID)
	require.Equal(t, users.RoleEmployee, *state.Role)
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	require.ErrorIs(t, f.controller.UpdatePassword(ctx, testPassword, "N3wPassword"), auth.ErrNotAuthenticated)

	f.addUser(testEmail, users.RoleEmployee)
	f.start(t)
	require.NoError(t, f.controller.SignIn(ctx, testEmail, testPassword))

	require.ErrorIs(t, f.controller.UpdatePassword(ctx, "wrong", "N3wPassword"), auth.ErrCurrentPasswordIncorrect)
	require.Equal(t, testPassword, f.store.Password(testEmail))

	require.ErrorIs(t, f.controller.UpdatePassword(ctx, testPassword, "weak"), credentials.ErrWeakPassword)

	require.NoError(t, f.controller.UpdatePassword(ctx, testPassword, "N3wPassword"))
	require.Equal(t, "N3wPassword", f.store.Password(testEmail))
}

func TestUpdatePasswordServiceError(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addUser(testEmail, users.RoleEmployee)
	f.start(t)
	require.NoError(t, f.controller.SignIn(ctx, testEmail, testPassword))

	f.store.FailSignIn(credentials.ErrUnavailable)
	err := f.controller.UpdatePassword(ctx, testPassword, "N3wPassword")
	require.ErrorIs(t, err, credentials.ErrUnavailable)
	require.NotErrorIs(t, err, auth.ErrCurrentPasswordIncorrect)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	require.ErrorIs(t, f.controller.UpdateProfile(ctx, users.ProfileUpdate{FullName: utils.Ptr("Jane")}), auth.ErrNotAuthenticated)

	f.addUser(testEmail, users.RoleEmployee)
	f.start(t)
	require.NoError(t, f.controller.SignIn(ctx, testEmail, testPassword))
	require.True(t, f.controller.State().Profile.UpdatedAt.IsZero())

	require.NoError(t, f.controller.UpdateProfile(ctx, users.ProfileUpdate{
		FullName: utils.Ptr("Jane Roe"),
		Country:  utils.Ptr(users.CountryAustralia),
	}))

	profile := f.controller.State().Profile
	require.Equal(t, "Jane Roe", profile.FullName)
	require.Equal(t, users.CountryAustralia, profile.Country)
	require.Equal(t, "Acme", profile.CompanyName)
	// replaced by a fresh read, not merged in memory
	require.False(t, profile.UpdatedAt.IsZero())

	bad := users.Country("Atlantis")
	require.ErrorIs(t, f.controller.UpdateProfile(ctx, users.ProfileUpdate{Country: &bad}), auth.ErrInvalidProfile)

	f.repo.Fail(fakeuserrepo.OpUpdateProfile, errors.New("deadlock detected"))
	require.Error(t, f.controller.UpdateProfile(ctx, users.ProfileUpdate{CompanyName: utils.Ptr("Globex")}))
	require.Equal(t, "Acme", f.controller.State().Profile.CompanyName)
}

func TestCloseUnsubscribes(t *testing.T) {
	f := setupTestFixture(t)
	f.start(t)
	require.Equal(t, 1, f.store.Subscribers())

	f.controller.Close()
	f.controller.Close()
	require.Equal(t, 0, f.store.Subscribers())
}
