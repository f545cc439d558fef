package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"culturaviva/internal/domain"
	"culturaviva/internal/redis"
	"culturaviva/internal/repository"
)

const (
	// CodeLength is the number of hex characters in a certificate code.
	CodeLength = 10

	issueLockTTL    = 30 * time.Second
	maxCodeAttempts = 3
)

// CertificateService handles certificate issuance and public validation.
type CertificateService struct {
	certRepo  repository.CertificateRepository
	templates *TemplateService
	cache     redis.CertificateCacheInterface
	locks     redis.LockStoreInterface
	logger    *slog.Logger
	now       func() time.Time
	newCode   func() string
}

// NewCertificateService creates a new CertificateService. cache and locks
// may be nil.
func NewCertificateService(
	certRepo repository.CertificateRepository,
	templates *TemplateService,
	cache redis.CertificateCacheInterface,
	locks redis.LockStoreInterface,
	logger *slog.Logger,
) *CertificateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CertificateService{
		certRepo:  certRepo,
		templates: templates,
		cache:     cache,
		locks:     locks,
		logger:    logger,
		now:       time.Now,
		newCode:   NewCode,
	}
}

// NewCode returns a random certificate code of CodeLength upper-case hex characters.
func NewCode() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:CodeLength]
}

// NormalizeCode trims and upper-cases a user-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidationResult is the outcome of a public certificate lookup. An
// unknown code is a normal invalid result, not an error.
type ValidationResult struct {
	Valid bool                    `json:"valid"`
	Data  *domain.CertificateData `json:"data,omitempty"`
}

// Validate looks up a certificate by code. Storage failures are returned as
// errors so callers can tell them apart from an invalid code.
func (s *CertificateService) Validate(ctx context.Context, code string) (*ValidationResult, error) {
	code = NormalizeCode(code)
	if code == "" {
		return &ValidationResult{Valid: false}, nil
	}

	if s.cache != nil {
		data, err := s.cache.GetCertificate(ctx, code)
		if err != nil {
			s.logger.Warn("certificate cache read failed", "code", code, "error", err)
		}
		if data != nil {
			return &ValidationResult{Valid: true, Data: data}, nil
		}
	}

	cert, err := s.certRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ValidationResult{Valid: false}, nil
		}
		return nil, err
	}

	data := cert.Data()
	if s.cache != nil {
		if err := s.cache.SetCertificate(ctx, data); err != nil {
			s.logger.Warn("certificate cache write failed", "code", code, "error", err)
		}
	}

	return &ValidationResult{Valid: true, Data: data}, nil
}

// IssueRequest contains the parameters for issuing a certificate.
type IssueRequest struct {
	TemplateID  string
	VisitorName string
	IssuerName  string
	Title       string
	// Variables supplies extra template tokens. Built-in tokens take precedence.
	Variables map[string]string
}

// IssueResult is a newly issued certificate.
type IssueResult struct {
	Certificate      *domain.Certificate
	ValidationURL    string
	UnresolvedTokens []string
}

// Issue renders the template for a visitor and persists the certificate
// under a fresh code.
func (s *CertificateService) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	if req.TemplateID == "" {
		return nil, ErrInvalidTemplateID
	}
	visitor := strings.TrimSpace(req.VisitorName)
	if visitor == "" {
		return nil, ErrInvalidVisitorName
	}

	if s.locks != nil {
		lockKey := req.TemplateID + ":" + strings.ToLower(visitor)
		acquired, err := s.locks.AcquireIssueLock(ctx, lockKey, issueLockTTL)
		switch {
		case err != nil:
			s.logger.Warn("issue lock unavailable", "error", err)
		case !acquired:
			return nil, ErrIssuanceInProgress
		default:
			defer func() {
				if err := s.locks.ReleaseIssueLock(context.WithoutCancel(ctx), lockKey); err != nil {
					s.logger.Warn("issue lock release failed", "error", err)
				}
			}()
		}
	}

	tpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	cert := &domain.Certificate{
		ID:          uuid.New().String(),
		TemplateID:  tpl.ID,
		VisitorName: visitor,
		IssuerName:  strings.TrimSpace(req.IssuerName),
		Title:       strings.TrimSpace(req.Title),
		IssuedAt:    s.now().UTC(),
		Variables:   make(map[string]string, len(req.Variables)),
	}
	for k, v := range req.Variables {
		cert.Variables[k] = v
	}

	var unresolved []string
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		cert.Code = s.newCode()
		cert.Elements, unresolved = s.templates.Render(tpl, TemplateVariables(cert), cert.Code)

		err = s.certRepo.Create(ctx, cert)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		s.logger.Warn("certificate code collision", "attempt", attempt+1)
	}
	if err != nil {
		return nil, ErrCodeExhausted
	}

	if len(unresolved) > 0 {
		s.logger.Warn("certificate issued with unresolved tokens", "code", cert.Code, "tokens", unresolved)
	}
	s.logger.Info("certificate issued", "code", cert.Code, "template_id", tpl.ID)

	return &IssueResult{
		Certificate:      cert,
		ValidationURL:    s.templates.ValidationURL(cert.Code),
		UnresolvedTokens: unresolved,
	}, nil
}

// TemplateVariables returns the token values for rendering cert: its extra
// variables overlaid with the built-in ones.
func TemplateVariables(cert *domain.Certificate) map[string]string {
	vars := make(map[string]string, len(cert.Variables)+5)
	for k, v := range cert.Variables {
		vars[k] = v
	}
	vars[VarVisitorName] = cert.VisitorName
	vars[VarIssuerName] = cert.IssuerName
	vars[VarTitle] = cert.Title
	vars[VarIssuedAt] = cert.IssuedAt.Format(IssuedAtLayout)
	vars[VarCode] = cert.Code
	return vars
}
