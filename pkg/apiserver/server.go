package apiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/access"
	"github.com/estagio/estagio/pkg/accounts"
	"github.com/estagio/estagio/pkg/apiserver/handlers"
	"github.com/estagio/estagio/pkg/apiserver/middleware"
	"github.com/estagio/estagio/pkg/auth"
	"github.com/estagio/estagio/pkg/config"
	"github.com/estagio/estagio/pkg/eventbus"
	"github.com/estagio/estagio/pkg/internship"
	"github.com/estagio/estagio/pkg/notification"
	"github.com/estagio/estagio/pkg/registry"
	"github.com/estagio/estagio/pkg/storage"
	"github.com/estagio/estagio/pkg/store"
	"github.com/estagio/estagio/pkg/workflow"
)

// Services is everything the router dispatches to.
type Services struct {
	Accounts      *accounts.Service
	Companies     *registry.CompanyService
	Supervisors   *registry.SupervisorService
	Documents     *workflow.Service
	Internships   *internship.Service
	Notifications store.NotificationStore
	Guard         *access.Guard
	Tokens        *auth.TokenManager
}

// NewServices builds the services over one store. bus may be nil.
func NewServices(st store.Store, files storage.FileStore, mailer notification.Mailer, bus *eventbus.Bus, cfg *config.Config, logger *zap.Logger) Services {
	tokens := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	dispatcher := notification.NewDispatcher(mailer, st, logger)

	documents := workflow.NewService(st, files, storage.NewPolicy(cfg.Storage), dispatcher, logger)
	if bus != nil {
		documents.WithEvents(bus)
	}

	return Services{
		Accounts:      accounts.NewService(st, tokens, logger),
		Companies:     registry.NewCompanyService(st, logger),
		Supervisors:   registry.NewSupervisorService(st, logger),
		Documents:     documents,
		Internships:   internship.NewService(st, dispatcher, logger),
		Notifications: st,
		Guard:         access.NewGuard(st),
		Tokens:        tokens,
	}
}

type Server struct {
	router   *gin.Engine
	services Services
	cfg      *config.Config
	logger   *zap.Logger
}

func NewServer(services Services, cfg *config.Config, logger *zap.Logger) *Server {
	s := &Server{
		services: services,
		cfg:      cfg,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Authenticate(s.services.Tokens))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	redirects := middleware.Redirects{
		LoginURL: s.cfg.Server.LoginURL,
		HomeURL:  s.cfg.Server.HomeURL,
	}
	guard := s.services.Guard

	accountHandler := handlers.NewAccountHandler(s.services.Accounts, s.logger)
	r.POST("/auth/login", accountHandler.Login)
	r.GET("/auth/me", middleware.RequireAuth(), accountHandler.Me)

	api := r.Group("/api")
	{
		api.Use(middleware.RequireAuth())

		companyHandler := handlers.NewCompanyHandler(s.services.Companies, s.logger)
		api.GET("/empresas/", companyHandler.List)
		api.POST("/empresas/", companyHandler.Create)
		api.GET("/empresas/estatisticas/", companyHandler.Stats)
		api.GET("/empresas/:id/", companyHandler.Get)
		api.PUT("/empresas/:id/", companyHandler.Update)
		api.PATCH("/empresas/:id/", companyHandler.Patch)
		api.DELETE("/empresas/:id/", companyHandler.Delete)
		api.GET("/empresas/:id/supervisores/", companyHandler.Supervisors)

		supervisorHandler := handlers.NewSupervisorHandler(s.services.Supervisors, s.logger)
		api.GET("/supervisores/", supervisorHandler.List)
		api.POST("/supervisores/", supervisorHandler.Create)
		api.GET("/supervisores/por_empresa/", supervisorHandler.ByCompany)
		api.GET("/supervisores/:id/", supervisorHandler.Get)
		api.PUT("/supervisores/:id/", supervisorHandler.Update)
		api.PATCH("/supervisores/:id/", supervisorHandler.Patch)
		api.DELETE("/supervisores/:id/", supervisorHandler.Delete)
		api.GET("/supervisores/:id/estagios/", supervisorHandler.Internships)
	}

	documentHandler := handlers.NewDocumentHandler(s.services.Documents, s.logger)
	internshipHandler := handlers.NewInternshipHandler(s.services.Internships, s.logger)

	pages := r.Group("/estagio")
	{
		shared := pages.Group("", middleware.RequireLogin(redirects))
		shared.GET("/documentos/:id/", documentHandler.Get)
		shared.GET("/documentos/:id/historico/", documentHandler.History)
		shared.GET("/documentos/:id/arquivo/", documentHandler.Download)
		shared.GET("/vagas/:id/", internshipHandler.Get)
		// Admins and coordinators both open vacancies; the service decides.
		shared.POST("/vagas/", internshipHandler.Create)

		student := pages.Group("/aluno", middleware.RequireStudent(guard, redirects, s.logger))
		student.GET("/documentos/", documentHandler.Track)
		student.POST("/documentos/", documentHandler.Submit)
		student.POST("/documentos/:id/reenviar/", documentHandler.Resubmit)
		student.GET("/vagas/", internshipHandler.Available)
		student.POST("/vagas/:id/solicitar/", internshipHandler.Request)
		student.GET("/horas/", internshipHandler.ListHours)
		student.POST("/horas/", internshipHandler.LogHours)
		student.GET("/horas/total/", internshipHandler.TotalHours)

		supervisor := pages.Group("/supervisor", middleware.RequireSupervisor(guard, redirects, s.logger))
		supervisor.GET("/documentos/", documentHandler.Track)
		supervisor.POST("/documentos/:id/aprovar/", documentHandler.Approve)
		supervisor.POST("/documentos/:id/reprovar/", documentHandler.Reject)
		supervisor.POST("/documentos/:id/ajustes/", documentHandler.RequestChanges)
		supervisor.GET("/estagios/", internshipHandler.Supervised)
		supervisor.POST("/estagios/:id/iniciar/", internshipHandler.Start)
		supervisor.POST("/estagios/:id/encerrar/", internshipHandler.Close)
		supervisor.POST("/estagios/:id/parecer/", internshipHandler.Parecer)

		coordinator := pages.Group("/coordenador", middleware.RequireCoordinator(guard, redirects, s.logger))
		coordinator.GET("/documentos/", documentHandler.Track)
		coordinator.POST("/documentos/:id/finalizar/", documentHandler.Finalize)
		coordinator.GET("/solicitacoes/", internshipHandler.Pending)
		coordinator.POST("/solicitacoes/:id/decidir/", internshipHandler.Decide)

		admin := pages.Group("/admin", middleware.RequireAdmin(guard, redirects, s.logger))
		admin.POST("/instituicoes/", accountHandler.CreateInstitution)
		admin.POST("/estudantes/", accountHandler.RegisterStudent)
		admin.POST("/coordenadores/", accountHandler.RegisterCoordinator)
	}

	notificationHandler := handlers.NewNotificationHandler(s.services.Notifications, s.logger)
	notifications := r.Group("/notificacoes", middleware.RequireLogin(redirects))
	{
		notifications.GET("/", notificationHandler.List)
		notifications.POST("/:id/lida/", notificationHandler.MarkRead)
	}

	s.router = r
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
