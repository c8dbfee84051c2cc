package claim

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/audit"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/httpserver"
	"github.com/radixpos/controlplane/pkg/store"
	"github.com/radixpos/controlplane/pkg/tenant"
)

// Handler serves POST /cloud/platform/onsite/claim.
type Handler struct {
	service    *Service
	tenantRepo *tenant.Repo
	storeRepo  *store.Repo
	audit      *audit.Writer
	logger     *slog.Logger
}

// NewHandler builds a claim Handler.
func NewHandler(service *Service, tenantRepo *tenant.Repo, storeRepo *store.Repo, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{service: service, tenantRepo: tenantRepo, storeRepo: storeRepo, audit: auditWriter, logger: logger}
}

type claimRequest struct {
	OnsiteBaseURL string     `json:"onsiteBaseUrl" validate:"required,url"`
	ClaimID       string     `json:"claimId" validate:"required"`
	ClaimCode     string     `json:"claimCode" validate:"required"`
	TenantID      *uuid.UUID `json:"tenantId,omitempty"`
	StoreID       *uuid.UUID `json:"storeId,omitempty"`
	StoreName     *string    `json:"storeName,omitempty"`
	StoreCode     *string    `json:"storeCode,omitempty"`
	Timezone      *string    `json:"timezone,omitempty"`
	EdgeBaseURL   *string    `json:"edgeBaseUrl,omitempty" validate:"omitempty,url"`
	CloudBaseURL  *string    `json:"cloudBaseUrl,omitempty" validate:"omitempty,url"`
	NodeLabel     *string    `json:"nodeLabel,omitempty"`
}

// Claim handles POST /cloud/platform/onsite/claim.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	if req.TenantID == nil && req.StoreID == nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("tenantId or storeId is required"))
		return
	}

	session := auth.FromContext(r.Context())

	var tenantRef auth.TenantRef
	switch {
	case req.TenantID != nil:
		t, err := h.tenantRepo.Get(r.Context(), *req.TenantID)
		if err != nil {
			httpserver.RespondErr(w, r, h.logger, err)
			return
		}
		tenantRef = tenant.Ref(t)
	case req.StoreID != nil:
		ref, err := h.storeTenantRef(r, *req.StoreID)
		if err != nil {
			httpserver.RespondErr(w, r, h.logger, err)
			return
		}
		tenantRef = ref
	}
	if !session.CanAccessTenant(tenantRef) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("tenant out of scope"))
		return
	}

	result, err := h.service.Claim(r.Context(), Params{
		OnsiteBaseURL:        req.OnsiteBaseURL,
		ClaimID:              req.ClaimID,
		ClaimCode:            req.ClaimCode,
		TenantID:             req.TenantID,
		StoreID:              req.StoreID,
		StoreName:            req.StoreName,
		StoreCode:            req.StoreCode,
		Timezone:             req.Timezone,
		EdgeBaseURL:          req.EdgeBaseURL,
		CloudBaseURL:         req.CloudBaseURL,
		NodeLabel:            req.NodeLabel,
		LinkedBy:             session.AccountID,
		InferredCloudBaseURL: inferCloudBaseURL(r),
	})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	h.audit.LogFromRequest(r, "claim", "node", result.Node.ID, nil)

	httpserver.Respond(w, http.StatusCreated, map[string]any{
		"store": result.Store,
		"node": map[string]any{
			"id":        result.Node.ID,
			"storeId":   result.Node.StoreID,
			"label":     result.Node.Label,
			"nodeKey":   result.Node.NodeKey,
			"nodeToken": result.NodeToken,
		},
		"onsite": result.Onsite,
	})
}

func (h *Handler) storeTenantRef(r *http.Request, storeID uuid.UUID) (auth.TenantRef, error) {
	st, err := h.storeRepo.Get(r.Context(), storeID)
	if err != nil {
		return auth.TenantRef{}, err
	}
	t, err := h.tenantRepo.Get(r.Context(), st.TenantID)
	if err != nil {
		return auth.TenantRef{}, err
	}
	return tenant.Ref(t), nil
}

// inferCloudBaseURL derives this server's own base URL from the inbound
// request when the operator did not supply one explicitly: x-forwarded-proto
// + x-forwarded-host, or host.
func inferCloudBaseURL(r *http.Request) string {
	proto := r.Header.Get("x-forwarded-proto")
	if proto == "" {
		proto = "https"
	}
	host := r.Header.Get("x-forwarded-host")
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return ""
	}
	return proto + "://" + host
}
