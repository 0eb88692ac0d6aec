package api

import (
	"net/http"

	"github.com/darmiel/vigil/internal/api/middleware"
	"github.com/darmiel/vigil/internal/service"
	"github.com/darmiel/vigil/internal/tasks"
)

type Server struct {
	accessService *service.AccessService
	taskManager   *tasks.Manager
}

func NewServer(accessService *service.AccessService, taskManager *tasks.Manager) *Server {
	return &Server{
		accessService: accessService,
		taskManager:   taskManager,
	}
}

func (s *Server) Routes(adminSigningKey []byte) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// decision routes
	mux.HandleFunc("POST "+VerifyAccessRoute, s.handleVerify)
	mux.HandleFunc("POST "+RegisterIdentityRoute, s.handleRegister)

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET "+ListIdentitiesRoute, s.handleListIdentities)
	adminMux.HandleFunc("GET "+IdentityRoute, s.handleGetIdentity)
	adminMux.HandleFunc("DELETE "+IdentityRoute, s.handleRemoveIdentity)
	adminMux.HandleFunc("PUT "+IdentityTrustRoute, s.handleChangeTrust)
	adminMux.HandleFunc("PUT "+IdentityRiskRoute, s.handleUpdateRisk)

	adminMux.HandleFunc("GET "+ListPoliciesRoute, s.handleListPolicies)
	adminMux.HandleFunc("POST "+ListPoliciesRoute, s.handleAddPolicy)
	adminMux.HandleFunc("DELETE "+PolicyRoute, s.handleRemovePolicy)

	adminMux.HandleFunc("GET "+ListSessionsRoute, s.handleListSessions)
	adminMux.HandleFunc("GET "+SessionRoute, s.handleGetSession)

	adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudit)
	adminMux.HandleFunc("POST "+ExplainRoute, s.handleExplain)

	adminMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
	adminMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
	adminMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)

	mux.Handle(AdminParent, middleware.AdminAuth(adminSigningKey)(adminMux))

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
