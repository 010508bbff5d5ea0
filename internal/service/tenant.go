// Package service provides business logic for the answering engine.
package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eluia/eluia-api/internal/model"
	"github.com/eluia/eluia-api/pkg/logger"
)

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// Slugify derives a URL-safe slug from a candidate name.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// TenantService manages candidate accounts, personas and document status.
type TenantService struct {
	logger *logger.Logger

	// In-memory storage (would be replaced with a database in production)
	mu      sync.RWMutex
	byID    map[string]*model.Tenant
	byEmail map[string]string
	bySlug  map[string]string
}

// NewTenantService creates a new tenant service.
func NewTenantService(log *logger.Logger) *TenantService {
	return &TenantService{
		logger:  log,
		byID:    make(map[string]*model.Tenant),
		byEmail: make(map[string]string),
		bySlug:  make(map[string]string),
	}
}

// Register creates a new tenant with a unique slug derived from its name.
func (s *TenantService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Tenant, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, model.ErrEmailTaken
	}

	base := Slugify(req.Name)
	if base == "" {
		base = "candidate"
	}
	slug := base
	for i := 1; ; i++ {
		if _, taken := s.bySlug[slug]; !taken {
			break
		}
		slug = base + "-" + strconv.Itoa(i)
	}

	tenant := &model.Tenant{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Email:          email,
		HashedPassword: string(hash),
		Name:           req.Name,
		Slug:           slug,
		Election:       req.Election,
		Persona:        model.DefaultPersona(),
		CreatedAt:      time.Now().UTC(),
		Documents:      make(map[model.Category]*model.Document),
	}

	s.byID[tenant.ID] = tenant
	s.byEmail[email] = tenant.ID
	s.bySlug[slug] = tenant.ID

	s.logger.WithTenant(tenant.ID).Info("tenant registered")

	return tenant.Clone(), nil
}

// Authenticate checks candidate credentials and returns the tenant.
func (s *TenantService) Authenticate(ctx context.Context, email, password string) (*model.Tenant, error) {
	s.mu.RLock()
	var tenant *model.Tenant
	if id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]; ok {
		if t := s.byID[id]; t != nil {
			tenant = t.Clone()
		}
	}
	s.mu.RUnlock()

	if tenant == nil {
		return nil, model.ErrTenantNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.HashedPassword), []byte(password)); err != nil {
		return nil, model.ErrTenantNotFound
	}

	return tenant, nil
}

// Get retrieves a tenant by ID. Like every getter it returns a snapshot;
// the stored tenant is only ever touched under the service lock.
func (s *TenantService) Get(ctx context.Context, tenantID string) (*model.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant := s.byID[tenantID]
	if tenant == nil {
		return nil, model.ErrTenantNotFound
	}
	return tenant.Clone(), nil
}

// GetBySlug retrieves a tenant by its public chat slug.
func (s *TenantService) GetBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant := s.byID[s.bySlug[slug]]
	if tenant == nil {
		return nil, model.ErrTenantNotFound
	}
	return tenant.Clone(), nil
}

// UpdatePersona applies a partial persona update.
func (s *TenantService) UpdatePersona(ctx context.Context, tenantID string, req *model.UpdatePersonaRequest) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant := s.byID[tenantID]
	if tenant == nil {
		return nil, model.ErrTenantNotFound
	}

	if req.AgentName != nil {
		tenant.Persona.AgentName = *req.AgentName
	}
	if req.Tone != nil {
		tenant.Persona.Tone = *req.Tone
	}
	if req.ResponseLength != nil {
		tenant.Persona.ResponseLength = *req.ResponseLength
	}

	return tenant.Clone(), nil
}

// BeginProcessing records a new upload as processing. The previous document
// for the category, if any, stays live until MarkReady.
func (s *TenantService) BeginProcessing(ctx context.Context, tenantID string, category model.Category, filename string, size int64) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant := s.byID[tenantID]
	if tenant == nil {
		return nil, model.ErrTenantNotFound
	}

	doc := &model.Document{
		ID:         uuid.Must(uuid.NewV7()).String(),
		TenantID:   tenantID,
		Category:   category,
		Filename:   filename,
		SizeBytes:  size,
		Status:     model.StatusProcessing,
		UploadedAt: time.Now().UTC(),
	}
	return doc, nil
}

// MarkReady publishes a processed document as the category's single ready
// document, superseding any previous one.
func (s *TenantService) MarkReady(ctx context.Context, tenantID string, doc *model.Document, pages, chunks int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant := s.byID[tenantID]
	if tenant == nil {
		return model.ErrTenantNotFound
	}

	now := time.Now().UTC()
	doc.PageCount = pages
	doc.ChunkCount = chunks
	doc.Status = model.StatusReady
	doc.ProcessedAt = &now
	tenant.Documents[doc.Category] = doc

	return nil
}

// MarkFailed records a processing failure without touching the previous
// ready document for the category.
func (s *TenantService) MarkFailed(ctx context.Context, tenantID string, doc *model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant := s.byID[tenantID]
	if tenant == nil {
		return
	}

	doc.Status = model.StatusFailed
	// Only record the failure if the slot is empty; a ready document from a
	// previous upload must stay queryable.
	if cur := tenant.Documents[doc.Category]; cur == nil || cur.Status != model.StatusReady {
		tenant.Documents[doc.Category] = doc
	}
}
