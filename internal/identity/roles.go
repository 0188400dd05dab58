package identity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const RoleAdmin = "admin"

// источники роли, попадают в логи и метрики
const (
	SourceClaims   = "claims"
	SourceProvider = "provider"
	SourceCache    = "cache"
)

// RoleLookup: результат поиска роли. Found=false означает, что роль неизвестна;
// это не ошибка, а обычный промах.
type RoleLookup struct {
	Role   string
	Source string
	Found  bool
}

type RoleResolver interface {
	ResolveRole(ctx context.Context, caller *Caller) RoleLookup
}

// ClaimsRoleResolver читает роль из claims сессии
type ClaimsRoleResolver struct{}

func (ClaimsRoleResolver) ResolveRole(_ context.Context, caller *Caller) RoleLookup {
	if caller == nil || caller.Role == "" {
		return RoleLookup{Source: SourceClaims}
	}
	return RoleLookup{Role: caller.Role, Source: SourceClaims, Found: true}
}

// ProviderRoleResolver запрашивает пользователя у провайдера идентификации
// и берёт роль из public_metadata, затем из private_metadata.
type ProviderRoleResolver struct {
	log     *slog.Logger
	client  *http.Client
	baseURL string
	secret  string
}

func NewProviderRoleResolver(log *slog.Logger, baseURL, secret string, timeout time.Duration) *ProviderRoleResolver {
	return &ProviderRoleResolver{
		log:     log,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
	}
}

func (p *ProviderRoleResolver) ResolveRole(ctx context.Context, caller *Caller) RoleLookup {
	const op = "identity.ProviderRoleResolver.ResolveRole"
	miss := RoleLookup{Source: SourceProvider}

	if caller == nil || p.baseURL == "" || p.secret == "" {
		return miss
	}
	logger := p.log.With(slog.String("op", op), slog.String("userID", caller.ID))

	body, err := p.fetchUser(ctx, caller.ID)
	if err != nil {
		logger.Warn("provider role lookup failed", slog.Any("error", err))
		return miss
	}

	role := gjson.GetBytes(body, "public_metadata.role").String()
	if role == "" {
		role = gjson.GetBytes(body, "private_metadata.role").String()
	}
	if role == "" {
		logger.Debug("provider has no role for user")
		return miss
	}
	return RoleLookup{Role: role, Source: SourceProvider, Found: true}
}

func (p *ProviderRoleResolver) fetchUser(ctx context.Context, userID string) ([]byte, error) {
	endpoint := p.baseURL + "/v1/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid json in provider response")
	}
	return body, nil
}

// ChainRoleResolver опрашивает резолверы по порядку, побеждает первый найденный.
type ChainRoleResolver []RoleResolver

func (c ChainRoleResolver) ResolveRole(ctx context.Context, caller *Caller) RoleLookup {
	var last RoleLookup
	for _, r := range c {
		last = r.ResolveRole(ctx, caller)
		if last.Found {
			return last
		}
	}
	return RoleLookup{Source: last.Source}
}
