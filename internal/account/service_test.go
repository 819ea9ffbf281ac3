package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"weeklychef/internal/auth"
	"weeklychef/internal/config"
	"weeklychef/internal/store"
)

var cheapParams = Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

type recordingPublisher struct {
	keys     []string
	payloads []any
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload any) error {
	p.keys = append(p.keys, key)
	p.payloads = append(p.payloads, payload)
	return p.err
}

type outcomes []string

func (o *outcomes) ObserveLogin(outcome string) { *o = append(*o, outcome) }

type harness struct {
	svc      *Service
	mem      *store.Memory
	sessions *auth.SessionIssuer
	events   *recordingPublisher
	throttle *MemoryThrottle
	outcomes *outcomes
}

func newHarness(t *testing.T) harness {
	t.Helper()
	cfg := config.AuthConfig{JWTSecret: "secret", JWTIssuer: "weeklychef"}
	mem := store.NewMemory()
	codec, err := auth.NewCodec(cfg)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	sessions, err := auth.NewSessionIssuer(codec, mem, cfg)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	h := harness{
		mem:      mem,
		sessions: sessions,
		events:   &recordingPublisher{},
		throttle: NewMemoryThrottle(3, time.Minute),
		outcomes: &outcomes{},
	}
	h.svc = NewService(mem, sessions, NewArgon2Hasher(cheapParams), Options{
		Throttle: h.throttle,
		Events:   h.events,
		Observer: h.outcomes,
	})
	return h
}

func TestRegister_IssuesNonStaffTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pair, err := h.svc.Register(ctx, RegisterRequest{Username: "CoolerTeddy", Password: "mySecretPw", Email: "teddy@email.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	claims, err := h.sessions.VerifyAccess(pair.Token, time.Now())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Staff() {
		t.Fatalf("registered users must not be staff")
	}
	staff, err := h.mem.GetUserStaffFlag(ctx, claims.SubjectID)
	if err != nil || staff {
		t.Fatalf("stored user must not be staff: %v %v", staff, err)
	}

	if len(h.events.keys) != 1 || h.events.keys[0] != RoutingKeyUserCreated {
		t.Fatalf("expected user.created event, got %v", h.events.keys)
	}
	ev, ok := h.events.payloads[0].(UserCreatedEvent)
	if !ok || ev.UserID != claims.SubjectID || ev.Username != "CoolerTeddy" {
		t.Fatalf("unexpected event payload %#v", h.events.payloads[0])
	}
}

func TestRegister_ValidatesInput(t *testing.T) {
	h := newHarness(t)
	cases := []RegisterRequest{
		{Username: "---", Password: "OkayPassword", Email: "a@b.c"},
		{Username: "OkayUsername", Password: "---", Email: "a@b.c"},
		{Username: "OkayUsername", Email: "a@b.c"},
		{Password: "OkayPassword", Email: "a@b.c"},
		{Username: "OkayUsername", Password: "OkayPassword"},
	}
	for i, req := range cases {
		if _, err := h.svc.Register(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
	if len(h.events.keys) != 0 {
		t.Fatalf("no event expected for rejected registrations")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	h := newHarness(t)
	req := RegisterRequest{Username: "teddy", Password: "secret1", Email: "t@e.com"}
	if _, err := h.svc.Register(context.Background(), req); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := h.svc.Register(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate, got %v", err)
	}
}

func TestRegister_PublishFailureDoesNotFailRegistration(t *testing.T) {
	h := newHarness(t)
	h.events.err = errors.New("broker down")
	if _, err := h.svc.Register(context.Background(), RegisterRequest{Username: "teddy", Password: "secret1", Email: "t@e.com"}); err != nil {
		t.Fatalf("expected success despite publish failure, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.svc.Register(ctx, RegisterRequest{Username: "teddy_test", Password: "secret1", Email: "t@e.com"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	pair, err := h.svc.Login(ctx, "teddy_test", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.Token == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}

	if _, err := h.svc.Login(ctx, "teddy_test", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := h.svc.Login(ctx, "nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, err := h.svc.Login(ctx, "", "secret1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLogin_ThrottlesAfterRepeatedFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.svc.Register(ctx, RegisterRequest{Username: "teddy", Password: "secret1", Email: "t@e.com"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := h.svc.Login(ctx, "teddy", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := h.svc.Login(ctx, "teddy", "secret1"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}

	// window passes
	h.throttle.clock = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := h.svc.Login(ctx, "teddy", "secret1"); err != nil {
		t.Fatalf("expected login after window, got %v", err)
	}

	last := (*h.outcomes)[len(*h.outcomes)-1]
	if last != "success" {
		t.Fatalf("expected success outcome, got %q", last)
	}
}

func TestRefresh_RequiresToken(t *testing.T) {
	h := newHarness(t)
	if _, err := h.svc.Refresh(context.Background(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRefresh_PicksUpPromotion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pair, err := h.svc.Register(ctx, RegisterRequest{Username: "teddy", Password: "secret1", Email: "t@e.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	claims, _ := h.sessions.VerifyAccess(pair.Token, time.Now())
	if err := h.mem.SetStaff(claims.SubjectID, true); err != nil {
		t.Fatalf("promote: %v", err)
	}

	next, err := h.svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, _ = h.sessions.VerifyAccess(next.Token, time.Now())
	if !claims.Staff() {
		t.Fatalf("expected refreshed token to carry staff flag")
	}
}

func TestArgon2Hasher(t *testing.T) {
	h := NewArgon2Hasher(cheapParams)
	enc, err := h.Hash("pw-123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ok, err := h.Verify("pw-123", enc); err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	if ok, _ := h.Verify("pw-124", enc); ok {
		t.Fatalf("expected mismatch")
	}
	if _, err := h.Verify("pw", "not-a-hash"); err == nil {
		t.Fatalf("expected malformed hash error")
	}

	again, _ := h.Hash("pw-123")
	if again == enc {
		t.Fatalf("expected distinct salts")
	}
}

func TestMemoryThrottle_ResetClearsFailures(t *testing.T) {
	th := NewMemoryThrottle(1, time.Minute)
	ctx := context.Background()
	_ = th.Fail(ctx, "k")
	if ok, _ := th.Allow(ctx, "k"); ok {
		t.Fatalf("expected throttled after max failures")
	}
	_ = th.Reset(ctx, "k")
	if ok, _ := th.Allow(ctx, "k"); !ok {
		t.Fatalf("expected allowed after reset")
	}
}
