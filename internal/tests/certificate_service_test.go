package tests

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"culturaviva/internal/domain"
	"culturaviva/internal/repository"
	"culturaviva/internal/service"
)

type certificateFixture struct {
	templates *MockTemplateRepository
	certs     *MockCertificateRepository
	cache     *MockCacheStore
	locks     *MockLockStore
	svc       *service.CertificateService
}

func newCertificateFixture() *certificateFixture {
	f := &certificateFixture{
		templates: NewMockTemplateRepository(),
		certs:     NewMockCertificateRepository(),
		cache:     NewMockCacheStore(),
		locks:     NewMockLockStore(),
	}
	f.templates.AddTemplate(NewTestTemplate("tpl-1"))
	tplService := service.NewTemplateService(f.templates, publicBaseURL, nil)
	f.svc = service.NewCertificateService(f.certs, tplService, f.cache, f.locks, nil)
	return f
}

var codePattern = regexp.MustCompile(`^[0-9A-F]{10}$`)

// ──────────────────────────────────────────────
// 1. ISSUANCE
// ──────────────────────────────────────────────

func TestIssue_ValidRequest_Succeeds(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()
	res, err := f.svc.Issue(context.Background(), service.IssueRequest{
		TemplateID:  "tpl-1",
		VisitorName: "  Ana Souza ",
		IssuerName:  "Paço do Frevo",
		Title:       "Oficina de Passo",
		Variables:   map[string]string{"workshop": "Passo"},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	cert := res.Certificate
	if !codePattern.MatchString(cert.Code) {
		t.Errorf("expected 10 upper-case hex chars, got %q", cert.Code)
	}
	if cert.VisitorName != "Ana Souza" {
		t.Errorf("expected trimmed visitor name, got %q", cert.VisitorName)
	}
	if res.ValidationURL != publicBaseURL+"/public/certificates/"+cert.Code {
		t.Errorf("unexpected validation url %q", res.ValidationURL)
	}
	if len(res.UnresolvedTokens) != 0 {
		t.Errorf("expected all tokens resolved, got %v", res.UnresolvedTokens)
	}

	stored := f.certs.GetCertificate(cert.Code)
	if stored == nil {
		t.Fatal("expected certificate persisted")
	}

	values := make(map[string]string)
	for _, el := range stored.Elements {
		values[el.ID] = el.Value
	}
	issuedAt := cert.IssuedAt.Format(service.IssuedAtLayout)
	if want := "Certificamos que Ana Souza participou de Oficina de Passo em " + issuedAt + "."; values["body"] != want {
		t.Errorf("expected body %q, got %q", want, values["body"])
	}
	if values["signature"] != "Paço do Frevo · "+cert.Code {
		t.Errorf("unexpected signature %q", values["signature"])
	}
	if values["qr"] != res.ValidationURL {
		t.Errorf("expected qr to encode validation url, got %q", values["qr"])
	}
	if f.locks.Held() != 0 {
		t.Error("expected issue lock released")
	}
}

func TestIssue_InvalidInput_Fails(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		req     service.IssueRequest
		wantErr error
	}{
		{name: "missing template", req: service.IssueRequest{VisitorName: "Ana"}, wantErr: service.ErrInvalidTemplateID},
		{name: "blank visitor", req: service.IssueRequest{TemplateID: "tpl-1", VisitorName: "  "}, wantErr: service.ErrInvalidVisitorName},
		{name: "unknown template", req: service.IssueRequest{TemplateID: "nope", VisitorName: "Ana"}, wantErr: repository.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newCertificateFixture()
			if _, err := f.svc.Issue(context.Background(), tc.req); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if f.certs.CountCertificates() != 0 {
				t.Error("expected nothing persisted")
			}
		})
	}
}

func TestIssue_CodeCollision_Retries(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()
	f.certs.ConflictsLeft = 2

	res, err := f.svc.Issue(context.Background(), service.IssueRequest{TemplateID: "tpl-1", VisitorName: "Ana"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if f.certs.CreateCallCount != 3 {
		t.Errorf("expected 3 create attempts, got %d", f.certs.CreateCallCount)
	}
	if f.certs.GetCertificate(res.Certificate.Code) == nil {
		t.Error("expected certificate persisted under final code")
	}
}

func TestIssue_PersistentCollision_Fails(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()
	f.certs.ConflictsLeft = 10

	if _, err := f.svc.Issue(context.Background(), service.IssueRequest{TemplateID: "tpl-1", VisitorName: "Ana"}); !errors.Is(err, service.ErrCodeExhausted) {
		t.Fatalf("expected ErrCodeExhausted, got %v", err)
	}
}

func TestIssue_ConcurrentDuplicate_Rejected(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()
	f.locks.Hold("tpl-1:ana souza")

	_, err := f.svc.Issue(context.Background(), service.IssueRequest{TemplateID: "tpl-1", VisitorName: "Ana Souza"})
	if !errors.Is(err, service.ErrIssuanceInProgress) {
		t.Fatalf("expected ErrIssuanceInProgress, got %v", err)
	}
}

func TestIssue_LockStoreDown_StillIssues(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()
	f.locks.AcquireError = ErrMockStorage

	if _, err := f.svc.Issue(context.Background(), service.IssueRequest{TemplateID: "tpl-1", VisitorName: "Ana"}); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestIssue_ManyVisitors_UniqueCodes(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()

	var wg sync.WaitGroup
	var mu sync.Mutex
	codes := make(map[string]bool)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Issue(context.Background(), service.IssueRequest{
				TemplateID:  "tpl-1",
				VisitorName: "Visitante " + strings.Repeat("I", i+1),
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			codes[res.Certificate.Code] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(codes) != 25 || f.certs.CountCertificates() != 25 {
		t.Errorf("expected 25 unique certificates, got %d codes and %d stored", len(codes), f.certs.CountCertificates())
	}
}

// ──────────────────────────────────────────────
// 2. VALIDATION
// ──────────────────────────────────────────────

func TestValidate_KnownCode_IsValid(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()
	f.certs.AddCertificate(&domain.Certificate{
		ID:          "cert-1",
		Code:        "A1B2C3D4E5",
		VisitorName: "Ana Souza",
		IssuerName:  "Paço do Frevo",
		Title:       "Oficina de Passo",
		IssuedAt:    time.Date(2026, 5, 18, 12, 0, 0, 0, time.UTC),
	})

	res, err := f.svc.Validate(context.Background(), "  a1b2c3d4e5 ")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !res.Valid || res.Data == nil || res.Data.VisitorName != "Ana Souza" || res.Data.Code != "A1B2C3D4E5" {
		t.Fatalf("unexpected result %+v", res)
	}

	// A second lookup is served from the cache.
	if _, err := f.svc.Validate(context.Background(), "A1B2C3D4E5"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if f.certs.GetByCodeCallCount != 1 {
		t.Errorf("expected 1 repository lookup, got %d", f.certs.GetByCodeCallCount)
	}
}

func TestValidate_UnknownCode_IsInvalidNotError(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()
	for _, code := range []string{"FFFFFFFFFF", "", "   "} {
		res, err := f.svc.Validate(context.Background(), code)
		if err != nil {
			t.Fatalf("code %q: expected no error, got: %v", code, err)
		}
		if res.Valid || res.Data != nil {
			t.Errorf("code %q: expected invalid result, got %+v", code, res)
		}
	}
}

func TestValidate_StorageFailure_IsError(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()
	f.certs.GetByCodeError = ErrMockStorage

	if _, err := f.svc.Validate(context.Background(), "A1B2C3D4E5"); !errors.Is(err, ErrMockStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestValidate_CacheFailure_FallsBackToRepository(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()
	f.cache.GetError = ErrMockStorage
	f.certs.AddCertificate(&domain.Certificate{Code: "A1B2C3D4E5", VisitorName: "Ana"})

	res, err := f.svc.Validate(context.Background(), "A1B2C3D4E5")
	if err != nil || !res.Valid {
		t.Fatalf("expected valid result, got %+v, %v", res, err)
	}
}

func TestIssuedCertificate_Validates(t *testing.T) {
	t.Parallel()

	f := newCertificateFixture()
	issued, err := f.svc.Issue(context.Background(), service.IssueRequest{TemplateID: "tpl-1", VisitorName: "Ana", Title: "Visita"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	res, err := f.svc.Validate(context.Background(), strings.ToLower(issued.Certificate.Code))
	if err != nil || !res.Valid {
		t.Fatalf("expected valid result, got %+v, %v", res, err)
	}
	if res.Data.Title != "Visita" || res.Data.TemplateID != "tpl-1" {
		t.Errorf("unexpected data %+v", res.Data)
	}
}

func TestNewCode_Format(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		if code := service.NewCode(); !codePattern.MatchString(code) {
			t.Fatalf("unexpected code %q", code)
		}
	}
}

func TestTemplateVariables_BuiltinsWin(t *testing.T) {
	t.Parallel()

	cert := &domain.Certificate{
		Code:        "ABC",
		VisitorName: "Ana",
		IssuedAt:    time.Date(2026, 1, 2, 23, 0, 0, 0, time.UTC),
		Variables:   map[string]string{"visitorName": "Mallory", "hours": "4"},
	}

	vars := service.TemplateVariables(cert)
	if vars["visitorName"] != "Ana" || vars["hours"] != "4" || vars["issuedAt"] != "02/01/2026" || vars["code"] != "ABC" {
		t.Errorf("unexpected vars %v", vars)
	}
}
