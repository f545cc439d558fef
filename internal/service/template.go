package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"culturaviva/internal/domain"
	"culturaviva/internal/repository"
)

// Built-in template variables, always available at issuance.
const (
	VarVisitorName = "visitorName"
	VarIssuerName  = "issuerName"
	VarTitle       = "title"
	VarIssuedAt    = "issuedAt"
	VarCode        = "code"
)

// BuiltInVariables lists the variables every certificate supplies.
func BuiltInVariables() []string {
	return []string{VarVisitorName, VarIssuerName, VarTitle, VarIssuedAt, VarCode}
}

// IssuedAtLayout is the date format of the issuedAt variable (DD/MM/YYYY).
const IssuedAtLayout = "02/01/2006"

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*\}\}`)

// TemplateService handles certificate template operations.
type TemplateService struct {
	repo          repository.TemplateRepository
	publicBaseURL string
	logger        *slog.Logger
	now           func() time.Time
}

// NewTemplateService creates a new TemplateService. publicBaseURL is the
// origin QR code elements point at.
func NewTemplateService(repo repository.TemplateRepository, publicBaseURL string, logger *slog.Logger) *TemplateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateService{
		repo:          repo,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
		now:           time.Now,
	}
}

// ValidateTemplate checks a template document. The returned error wraps
// ErrInvalidTemplate and names the first problem found.
func ValidateTemplate(tpl *domain.CertificateTemplate) error {
	if tpl == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidTemplate)
	}
	if strings.TrimSpace(tpl.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}

	w, h := tpl.Dimensions.Width, tpl.Dimensions.Height
	if !positiveFinite(w) || !positiveFinite(h) {
		return fmt.Errorf("%w: dimensions must be positive", ErrInvalidTemplate)
	}

	seen := make(map[string]bool, len(tpl.Elements))
	for i, el := range tpl.Elements {
		if el.ID == "" {
			return fmt.Errorf("%w: element %d has no id", ErrInvalidTemplate, i)
		}
		if seen[el.ID] {
			return fmt.Errorf("%w: duplicate element id %q", ErrInvalidTemplate, el.ID)
		}
		seen[el.ID] = true

		if !el.Type.Valid() {
			return fmt.Errorf("%w: element %q has unknown type %q", ErrInvalidTemplate, el.ID, el.Type)
		}
		if math.IsNaN(el.X) || math.IsNaN(el.Y) || el.X < 0 || el.Y < 0 || el.X > w || el.Y > h {
			return fmt.Errorf("%w: element %q is outside the canvas", ErrInvalidTemplate, el.ID)
		}
		if el.FontSize < 0 || math.IsNaN(el.FontSize) {
			return fmt.Errorf("%w: element %q has negative font size", ErrInvalidTemplate, el.ID)
		}
	}

	return nil
}

// Create validates and persists a new template.
func (s *TemplateService) Create(ctx context.Context, tpl *domain.CertificateTemplate) (*domain.CertificateTemplate, error) {
	if err := ValidateTemplate(tpl); err != nil {
		return nil, err
	}

	now := s.now()
	created := *tpl
	created.ID = uuid.New().String()
	created.Name = strings.TrimSpace(tpl.Name)
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := s.repo.Create(ctx, &created); err != nil {
		return nil, err
	}

	s.logger.Info("certificate template created", "template_id", created.ID, "elements", len(created.Elements))
	return &created, nil
}

// Get retrieves a template by ID.
func (s *TemplateService) Get(ctx context.Context, id string) (*domain.CertificateTemplate, error) {
	if id == "" {
		return nil, ErrInvalidTemplateID
	}
	return s.repo.GetByID(ctx, id)
}

// List retrieves all templates.
func (s *TemplateService) List(ctx context.Context) ([]*domain.CertificateTemplate, error) {
	templates, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if templates == nil {
		templates = []*domain.CertificateTemplate{}
	}
	return templates, nil
}

// Update replaces the document of an existing template.
func (s *TemplateService) Update(ctx context.Context, id string, tpl *domain.CertificateTemplate) (*domain.CertificateTemplate, error) {
	if id == "" {
		return nil, ErrInvalidTemplateID
	}
	if err := ValidateTemplate(tpl); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *tpl
	updated.ID = existing.ID
	updated.Name = strings.TrimSpace(tpl.Name)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a template. Certificates already issued from it keep
// their rendered elements.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidTemplateID
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("certificate template deleted", "template_id", id)
	return nil
}

// ValidationURL is the public URL that verifies code.
func (s *TemplateService) ValidationURL(code string) string {
	return s.publicBaseURL + "/public/certificates/" + code
}

// Render resolves every element of tpl against vars. Variable elements have
// each {{token}} replaced; unknown tokens are left in place and returned in
// first-seen order. QR code elements encode the validation URL of code, and
// text elements are copied verbatim.
func (s *TemplateService) Render(tpl *domain.CertificateTemplate, vars map[string]string, code string) ([]domain.RenderedElement, []string) {
	rendered := make([]domain.RenderedElement, 0, len(tpl.Elements))
	var unresolved []string
	reported := make(map[string]bool)

	for _, el := range tpl.Elements {
		value := el.Text
		switch el.Type {
		case domain.ElementVariable:
			value = tokenPattern.ReplaceAllStringFunc(el.Text, func(match string) string {
				name := tokenPattern.FindStringSubmatch(match)[1]
				if v, ok := vars[name]; ok {
					return v
				}
				if !reported[name] {
					reported[name] = true
					unresolved = append(unresolved, name)
				}
				return match
			})
		case domain.ElementQRCode:
			value = s.ValidationURL(code)
		}

		rendered = append(rendered, domain.RenderedElement{
			ID:       el.ID,
			Type:     el.Type,
			X:        el.X,
			Y:        el.Y,
			FontSize: el.FontSize,
			Color:    el.Color,
			Value:    value,
		})
	}

	return rendered, unresolved
}

// Tokens lists the distinct variable names referenced by tpl.
func Tokens(tpl *domain.CertificateTemplate) []string {
	var names []string
	seen := make(map[string]bool)
	for _, el := range tpl.Elements {
		if el.Type != domain.ElementVariable {
			continue
		}
		for _, m := range tokenPattern.FindAllStringSubmatch(el.Text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}
	return names
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
