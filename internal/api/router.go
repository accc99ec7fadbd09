package api

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/api/handlers"
	"sitetrack-service/internal/catalog"
	"sitetrack-service/internal/hub"
	"sitetrack-service/internal/services"
)

type Deps struct {
	Tracker    *services.Tracker
	Routes     *services.RouteService
	Deliveries *services.DeliveryService
	Alerts     *services.AlertService
	Cameras    *services.CameraService
	Stats      *services.StatsService
	Hub        *hub.Hub
	Site       catalog.Site
	Store      handlers.Pinger

	AllowedOrigins []string
	WSSendBuffer   int
	Log            logrus.FieldLogger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// Credentials only for an explicit origin list.
	credentials := !slices.Contains(origins, "*")

	r := chi.NewRouter()
	r.Use(requestContext(d.Log.WithField("component", "http")))
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: credentials,
		MaxAge:           300,
	}))

	health := &handlers.HealthHandler{
		Store:         d.Store,
		ActiveDrivers: d.Tracker.ActiveDriverCount,
		Drivers:       d.Hub.DriverCount,
		Observers:     d.Hub.ObserverCount,
	}
	routes := &handlers.RouteHandler{Routes: d.Routes}
	deliveries := &handlers.DeliveryHandler{Deliveries: d.Deliveries}
	location := &handlers.LocationHandler{Tracker: d.Tracker}
	alerts := &handlers.AlertHandler{Alerts: d.Alerts, Tracker: d.Tracker}
	site := &handlers.SiteHandler{Cameras: d.Cameras, Stats: d.Stats, Site: d.Site}
	sockets := handlers.NewSocketHandler(d.Tracker, d.WSSendBuffer, origins)

	r.Get("/health", health.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.Health)

		r.Get("/routes", routes.List)
		r.Post("/routes", routes.Create)
		r.Get("/routes/{id}", routes.Get)
		r.Put("/routes/{id}", routes.Update)
		r.Delete("/routes/{id}", routes.Delete)

		r.Get("/deliveries", deliveries.List)
		r.Post("/deliveries", deliveries.Create)
		r.Get("/deliveries/{id}", deliveries.Get)
		r.Put("/deliveries/{id}/status", deliveries.UpdateStatus)
		r.Post("/deliveries/{id}/assign", deliveries.Assign)

		r.Post("/qr/scan", deliveries.ScanQR)
		r.Get("/qr/generate/{id}", deliveries.GenerateQR)

		r.Post("/location/update", location.Update)
		r.Get("/location/active", location.Active)
		r.Get("/location/history/{deliveryID}", location.History)

		r.Get("/alerts", alerts.List)
		r.Post("/alerts/emergency", alerts.Emergency)
		r.Put("/alerts/{id}/resolve", alerts.Resolve)

		r.Get("/cameras", site.ListCameras)
		r.Get("/cameras/nearest", site.NearestCamera)
		r.Get("/site/info", site.Info)
		r.Get("/stats/dashboard", site.Dashboard)
	})

	r.Get("/ws/driver/{driverID}", sockets.Driver)
	r.Get("/ws/admin", sockets.Admin)

	return r
}
