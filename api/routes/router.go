package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lukasbrandt/containerflow-backend/api/controllers"
	"github.com/lukasbrandt/containerflow-backend/api/middleware"
	"github.com/lukasbrandt/containerflow-backend/internal/activity"
	"github.com/lukasbrandt/containerflow-backend/internal/analytics"
	"github.com/lukasbrandt/containerflow-backend/internal/auth"
	"github.com/lukasbrandt/containerflow-backend/internal/containers"
	"github.com/lukasbrandt/containerflow-backend/internal/customers"
	"github.com/lukasbrandt/containerflow-backend/internal/scans"
	"github.com/lukasbrandt/containerflow-backend/internal/tasks"
	"github.com/lukasbrandt/containerflow-backend/internal/users"
	"github.com/lukasbrandt/containerflow-backend/pkg/config"
	"github.com/lukasbrandt/containerflow-backend/pkg/db"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	"github.com/lukasbrandt/containerflow-backend/pkg/logger"
	"github.com/lukasbrandt/containerflow-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Redis      *redis.Client
	Pingers    map[string]db.Pinger
	Registry   *prometheus.Registry
	UsersRepo  *users.Repository
	Auth       auth.Service
	Users      users.Service
	Customers  customers.Service
	Containers containers.Service
	Tasks      tasks.Service
	Scans      scans.Service
	Activity   activity.Service
	Analytics  analytics.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(deps.UsersRepo, logg))
		r.Use(middleware.Idempotency(deps.Redis, cfg.Idempotency.TTL, logg))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", controllers.TasksList(deps.Tasks, logg))
			r.Post("/", controllers.TasksCreate(deps.Tasks, logg))
			r.Route("/{taskId}", func(r chi.Router) {
				r.Get("/", controllers.TasksGet(deps.Tasks, logg))
				r.Patch("/", controllers.TasksUpdate(deps.Tasks, logg))
				r.Delete("/", controllers.TasksDelete(deps.Tasks, logg))
				r.Post("/assign", controllers.TaskAssign(deps.Tasks, logg))
				r.Post("/accept", controllers.TaskAccept(deps.Tasks, logg))
				r.Post("/pickup", controllers.TaskPickup(deps.Tasks, logg))
				r.Post("/deliver", controllers.TaskDeliver(deps.Tasks, logg))
				r.Post("/cancel", controllers.TaskCancel(deps.Tasks, logg))
			})
		})

		r.Route("/containers", func(r chi.Router) {
			r.Route("/customer", func(r chi.Router) {
				r.Get("/", controllers.CustomerContainersList(deps.Containers, logg))
				r.Post("/", controllers.CustomerContainersCreate(deps.Containers, logg))
				r.Get("/{key}", controllers.CustomerContainersGet(deps.Containers, logg))
				r.Patch("/{containerId}", controllers.CustomerContainersUpdate(deps.Containers, logg))
				r.Post("/{containerId}/regenerate-qr", controllers.ContainersRegenerateQR(deps.Containers, enums.ContainerKindCustomer, logg))
			})
			r.Route("/warehouse", func(r chi.Router) {
				r.Get("/", controllers.WarehouseContainersList(deps.Containers, logg))
				r.Post("/", controllers.WarehouseContainersCreate(deps.Containers, logg))
				r.Get("/{key}", controllers.WarehouseContainersGet(deps.Containers, logg))
				r.Patch("/{containerId}", controllers.WarehouseContainersUpdate(deps.Containers, logg))
				r.Post("/{containerId}/regenerate-qr", controllers.ContainersRegenerateQR(deps.Containers, enums.ContainerKindWarehouse, logg))
				r.Post("/{containerId}/reset", controllers.WarehouseContainersReset(deps.Containers, logg))
				r.Get("/{containerId}/fill-history", controllers.WarehouseContainersFillHistory(deps.Containers, logg))
			})
		})

		r.Route("/scans", func(r chi.Router) {
			r.Get("/", controllers.ScansList(deps.Scans, logg))
			r.Post("/", controllers.ScansCreate(deps.Scans, logg))
			r.Get("/{scanId}", controllers.ScansGet(deps.Scans, logg))
		})

		r.Route("/activity-logs", func(r chi.Router) {
			r.Get("/", controllers.ActivityList(deps.Activity, logg))
			r.With(middleware.RequireRole(string(enums.UserRoleAdmin), logg)).
				Get("/export/csv", controllers.ActivityExport(deps.Activity, logg))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/dashboard", controllers.AnalyticsDashboard(deps.Analytics, logg))
			r.Get("/fill-trend", controllers.AnalyticsFillTrend(deps.Analytics, logg))
			r.Get("/drivers", controllers.AnalyticsDrivers(deps.Analytics, logg))
			r.Get("/drivers/{driverId}", controllers.AnalyticsDriver(deps.Analytics, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.UsersList(deps.Users, logg))
			r.Post("/", controllers.UsersCreate(deps.Users, logg))
			r.Route("/{userId}", func(r chi.Router) {
				r.Get("/", controllers.UsersGet(deps.Users, logg))
				r.Patch("/", controllers.UsersUpdate(deps.Users, logg))
				r.Delete("/", controllers.UsersDeactivate(deps.Users, logg))
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomersList(deps.Customers, logg))
			r.Post("/", controllers.CustomersCreate(deps.Customers, logg))
			r.Route("/{customerId}", func(r chi.Router) {
				r.Get("/", controllers.CustomersGet(deps.Customers, logg))
				r.Patch("/", controllers.CustomersUpdate(deps.Customers, logg))
				r.Delete("/", controllers.CustomersDeactivate(deps.Customers, logg))
				r.Get("/containers", controllers.CustomersContainers(deps.Customers, logg))
			})
		})
	})

	return r
}
