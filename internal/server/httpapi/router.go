// Package httpapi exposes the fintrack JSON API over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/server/auth"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/ratelimit"
	"github.com/dmitrijs2005/fintrack/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Accounts interface {
	Signup(ctx context.Context, in services.SignupInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	GetProfile(ctx context.Context, userID string) (*models.PublicUser, error)
	SetBudget(ctx context.Context, userID string, budget *decimal.Decimal) (*models.PublicUser, error)
	GetBudget(ctx context.Context, userID string) (decimal.Decimal, error)
}

type Ledger interface {
	AddEntry(ctx context.Context, kind models.Kind, ownerID string, in services.EntryInput) (*models.Entry, error)
	ListEntries(ctx context.Context, kind models.Kind, ownerID string) ([]*models.Entry, error)
	DeleteEntry(ctx context.Context, kind models.Kind, ownerID, entryID string) (*models.Entry, error)
	Dashboard(ctx context.Context, ownerID string, year *int) (*models.Dashboard, error)
}

type Exporter interface {
	Export(ctx context.Context, kind models.Kind, ownerID string, year *int) (*services.ExportResult, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Deps are the collaborators of the HTTP layer. Limiter defaults to
// ratelimit.Unlimited and Logger to a no-op logger.
type Deps struct {
	Accounts Accounts
	Ledger   Ledger
	Exporter Exporter
	Tokens   TokenVerifier
	Limiter  ratelimit.Limiter
	Logger   logging.Logger
}

type handler struct {
	accounts Accounts
	ledger   Ledger
	exporter Exporter
	tokens   TokenVerifier
	limiter  ratelimit.Limiter
	logger   logging.Logger
}

// NewRouter registers every route at the root and again under /api/v1.
func NewRouter(d Deps) *gin.Engine {
	h := &handler{
		accounts: d.Accounts,
		ledger:   d.Ledger,
		exporter: d.Exporter,
		tokens:   d.Tokens,
		limiter:  d.Limiter,
		logger:   d.Logger,
	}
	if h.limiter == nil {
		h.limiter = ratelimit.Unlimited{}
	}
	if h.logger == nil {
		h.logger = logging.Nop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(h.requestLogger(), gin.Recovery())

	r.GET("/healthz", h.healthz)
	h.register(&r.RouterGroup)
	h.register(r.Group("/api/v1"))

	return r
}

func (h *handler) register(g *gin.RouterGroup) {
	g.POST("/signup", h.rateLimit("signup"), h.signup)
	g.POST("/login", h.rateLimit("login"), h.login)

	p := g.Group("", h.authGate())
	p.GET("/profile", h.profile)
	p.POST("/budget", h.setBudget)
	p.GET("/getBudget", h.getBudget)

	p.POST("/add-income", h.addEntry(models.KindIncome))
	p.GET("/incomes", h.listEntries(models.KindIncome))
	p.DELETE("/incomes/:id", h.deleteEntry(models.KindIncome))

	p.POST("/add-expense", h.addEntry(models.KindExpense))
	p.GET("/expenses", h.listEntries(models.KindExpense))
	p.DELETE("/expenses/:id", h.deleteEntry(models.KindExpense))

	p.GET("/summary", h.summary)
	p.GET("/export/:kind", h.export)
}

// Server serves the router until its context is cancelled.
type Server struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewServer(address string, handler http.Handler, logger logging.Logger) *Server {
	return &Server{address: address, handler: handler, logger: logger.With("module", "http_server")}
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
