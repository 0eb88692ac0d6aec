package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/darmiel/vigil/internal/access"
	"github.com/darmiel/vigil/internal/audit"
	"github.com/darmiel/vigil/internal/core"
	"github.com/darmiel/vigil/internal/identity"
	"github.com/darmiel/vigil/internal/incident"
	"github.com/darmiel/vigil/internal/policy"
	"github.com/darmiel/vigil/internal/service"
	"github.com/darmiel/vigil/internal/session"
	"github.com/darmiel/vigil/internal/tasks"
	"github.com/darmiel/vigil/internal/zone"
)

var testSigningKey = []byte("test-signing-key")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	resolver, err := zone.NewResolver([]zone.Mapping{
		{CIDR: "10.0.0.0/24", Zone: core.ZoneDMZ},
		{CIDR: "10.0.1.0/24", Zone: core.ZoneInternal},
	}, core.ZoneIsolated)
	if err != nil {
		t.Fatalf("building resolver: %v", err)
	}

	registry := identity.NewRegistry(identity.NewEvaluator(identity.DefaultEvaluatorConfig(), nil), nil)
	policies := policy.NewStore(policy.Defaults(), nil)
	sessions := session.NewManager(nil)
	auditor := audit.NewInMemoryAuditor(0)

	controller := access.NewController(
		registry, resolver, policy.NewMatcher(policies), sessions, auditor,
		incident.NewNoopSink(), 1.1,
	)

	svc := service.NewAccessService(controller, registry, policies, sessions, auditor)
	server := NewServer(svc, tasks.NewManager())

	srv := httptest.NewServer(server.Routes(testSigningKey))
	t.Cleanup(srv.Close)
	return srv
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"roles": []string{"admin"},
	}).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("signing admin token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, method, url, authToken string, payload, dest any) int {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encoding payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	defer resp.Body.Close()

	if dest != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + HealthCheckRoute)
	if err != nil {
		t.Fatalf("GET %s: %v", HealthCheckRoute, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServer_RegisterAndVerify(t *testing.T) {
	srv := newTestServer(t)

	var ident core.NetworkIdentity
	status := doJSON(t, http.MethodPost, srv.URL+RegisterIdentityRoute, "", service.RegisterRequest{
		EntityID:          "web-client",
		IPAddress:         "10.0.0.5",
		MACAddress:        "aa:bb:cc:dd:ee:ff",
		DeviceFingerprint: "fp-1",
		Zone:              "dmz",
	}, &ident)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", status)
	}
	if ident.EntityID != "web-client" || ident.Zone != core.ZoneDMZ {
		t.Errorf("registered identity = %+v", ident)
	}

	// elevate through the admin API so the policy's trust floor is met
	status = doJSON(t, http.MethodPut, srv.URL+"/v1/admin/identities/web-client/trust", adminToken(t),
		service.TrustChangeRequest{Level: "authenticated"}, &ident)
	if status != http.StatusOK {
		t.Fatalf("trust change status = %d, want 200", status)
	}

	var decision access.Decision
	status = doJSON(t, http.MethodPost, srv.URL+VerifyAccessRoute, "", service.VerifyRequest{
		EntityID:        "web-client",
		DestinationIP:   "10.0.1.20",
		DestinationPort: 443,
		Protocol:        "tcp",
	}, &decision)
	if status != http.StatusOK {
		t.Fatalf("verify status = %d, want 200", status)
	}
	if !decision.Granted || decision.PolicyID != "dmz-to-internal" {
		t.Errorf("decision = %+v", decision)
	}
	if decision.Session == nil {
		t.Error("granted decision carries no session")
	}
}

func TestServer_VerifyDenialIs200(t *testing.T) {
	srv := newTestServer(t)

	var decision access.Decision
	status := doJSON(t, http.MethodPost, srv.URL+VerifyAccessRoute, "", service.VerifyRequest{
		EntityID:        "ghost",
		DestinationIP:   "10.0.1.20",
		DestinationPort: 443,
		Protocol:        "tcp",
	}, &decision)
	if status != http.StatusOK {
		t.Fatalf("verify status = %d, want 200", status)
	}
	if decision.Granted || decision.Reason != core.ReasonUnknownEntity {
		t.Errorf("decision = %+v", decision)
	}
}

func TestServer_AdminAuth(t *testing.T) {
	srv := newTestServer(t)

	// no token
	if status := doJSON(t, http.MethodGet, srv.URL+ListPoliciesRoute, "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", status)
	}

	// token without the admin role
	nonAdmin, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"roles": []string{"viewer"},
	}).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	if status := doJSON(t, http.MethodGet, srv.URL+ListPoliciesRoute, nonAdmin, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("status with viewer token = %d, want 401", status)
	}

	// valid admin token
	var policies []core.NetworkPolicy
	if status := doJSON(t, http.MethodGet, srv.URL+ListPoliciesRoute, adminToken(t), nil, &policies); status != http.StatusOK {
		t.Errorf("status with admin token = %d, want 200", status)
	}
	if len(policies) != len(policy.Defaults()) {
		t.Errorf("got %d policies, want %d", len(policies), len(policy.Defaults()))
	}
}

func TestServer_PolicyLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := adminToken(t)

	newPolicy := core.NetworkPolicy{
		PolicyID:           "custom",
		SourceZone:         core.ZoneInternal,
		DestinationZone:    core.ZoneDMZ,
		MinTrustLevel:      core.TrustBasic,
		AllowedPorts:       []int{8080},
		Protocol:           "tcp",
		MaxSessionDuration: 300,
	}

	if status := doJSON(t, http.MethodPost, srv.URL+ListPoliciesRoute, token, newPolicy, nil); status != http.StatusCreated {
		t.Fatalf("add policy status = %d, want 201", status)
	}
	// duplicate IDs conflict
	if status := doJSON(t, http.MethodPost, srv.URL+ListPoliciesRoute, token, newPolicy, nil); status != http.StatusConflict {
		t.Errorf("duplicate add status = %d, want 409", status)
	}
	if status := doJSON(t, http.MethodDelete, srv.URL+"/v1/admin/policies/custom", token, nil, nil); status != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", status)
	}
	if status := doJSON(t, http.MethodDelete, srv.URL+"/v1/admin/policies/custom", token, nil, nil); status != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", status)
	}
}

func TestServer_Explain(t *testing.T) {
	srv := newTestServer(t)

	var trace access.DecisionTrace
	status := doJSON(t, http.MethodPost, srv.URL+ExplainRoute, adminToken(t), service.VerifyRequest{
		EntityID:        "ghost",
		DestinationIP:   "10.0.1.20",
		DestinationPort: 443,
		Protocol:        "tcp",
	}, &trace)
	if status != http.StatusOK {
		t.Fatalf("explain status = %d, want 200", status)
	}
	if trace.Granted || trace.Reason != core.ReasonUnknownEntity {
		t.Errorf("trace = %+v", trace)
	}
	if len(trace.Steps) == 0 || trace.Steps[0].Step != access.StepIdentityLookup {
		t.Errorf("trace steps = %+v", trace.Steps)
	}
}
