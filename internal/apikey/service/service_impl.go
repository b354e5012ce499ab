package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/insightboard/insightboard/internal/apikey/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	apiKeyPrefix      = "ib_live_"
	apiKeySecretBytes = 32
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  apikeydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  apikeydomain.Repository
	genID *snowflake.Node
}

func New(p Params) apikeydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("apikey.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Issue(ctx context.Context, tenantID snowflake.ID, req apikeydomain.IssueRequest) (*apikeydomain.SecretResponse, error) {
	if tenantID == 0 {
		return nil, apikeydomain.ErrInvalidTenant
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apikeydomain.ErrInvalidName
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = []string{apikeydomain.ScopeUsageWrite, apikeydomain.ScopeUsageRead}
	}

	now := time.Now().UTC()
	id := s.genID.Generate()
	plain, hash, err := generateAPIKey(id)
	if err != nil {
		return nil, err
	}

	key := &apikeydomain.APIKey{
		ID:        id,
		TenantID:  tenantID,
		Name:      name,
		Prefix:    keyPrefix(plain),
		KeyHash:   hash,
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, key); err != nil {
		return nil, err
	}

	s.log.Info("api key issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("key_id", id.String()),
	)

	return &apikeydomain.SecretResponse{ID: id.String(), APIKey: plain}, nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID) ([]apikeydomain.Response, error) {
	if tenantID == 0 {
		return nil, apikeydomain.ErrInvalidTenant
	}

	keys, err := s.repo.List(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}

	resp := make([]apikeydomain.Response, 0, len(keys))
	for i := range keys {
		resp = append(resp, toResponse(&keys[i]))
	}
	return resp, nil
}

func (s *Service) Revoke(ctx context.Context, tenantID snowflake.ID, keyID snowflake.ID) error {
	if tenantID == 0 {
		return apikeydomain.ErrInvalidTenant
	}

	key, err := s.repo.FindByID(ctx, s.db, tenantID, keyID)
	if err != nil {
		return err
	}
	if key == nil {
		return apikeydomain.ErrNotFound
	}

	now := time.Now().UTC()
	if key.RevokedAt == nil {
		key.RevokedAt = &now
		key.UpdatedAt = now
		if err := s.repo.Update(ctx, s.db, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Verify(ctx context.Context, rawKey string) (*apikeydomain.APIKey, error) {
	raw := strings.TrimSpace(rawKey)
	if raw == "" {
		return nil, apikeydomain.ErrUnauthorized
	}

	hash := apikeydomain.HashAPIKey(raw)
	key, err := s.repo.FindByHash(ctx, s.db, hash)
	if err != nil {
		return nil, err
	}
	if key == nil || key.Revoked(time.Now().UTC()) {
		return nil, apikeydomain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(key.KeyHash), []byte(hash)) != 1 {
		return nil, apikeydomain.ErrUnauthorized
	}

	if err := s.repo.TouchLastUsed(ctx, s.db, key.ID); err != nil {
		s.log.Warn("touch last_used_at failed", zap.Error(err))
	}
	return key, nil
}

func toResponse(key *apikeydomain.APIKey) apikeydomain.Response {
	return apikeydomain.Response{
		ID:         key.ID.String(),
		Name:       key.Name,
		Prefix:     key.Prefix,
		Scopes:     key.Scopes,
		CreatedAt:  key.CreatedAt,
		LastUsedAt: key.LastUsedAt,
		RevokedAt:  key.RevokedAt,
	}
}

func generateAPIKey(id snowflake.ID) (string, string, error) {
	secret := make([]byte, apiKeySecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}

	plain := fmt.Sprintf("%s%s_%s", apiKeyPrefix, id.Base36(), hex.EncodeToString(secret))
	return plain, apikeydomain.HashAPIKey(plain), nil
}

func keyPrefix(plain string) string {
	if len(plain) <= 16 {
		return plain
	}
	return plain[:16]
}
