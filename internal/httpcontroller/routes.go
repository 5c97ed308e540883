package httpcontroller

// initRoutes registers the page, the form target, the JSON API and the health check.
func (s *Server) initRoutes() {
	h := s.Handlers
	submit := s.submitMiddleware()

	s.Echo.GET("/", h.WithErrorHandling(h.Index))
	s.Echo.POST("/games", h.WithErrorHandling(h.CreateGame), submit...)

	api := s.Echo.Group("/api/v1")
	api.GET("/games", h.WithAPIErrorHandling(h.ListGames))
	api.POST("/games", h.WithAPIErrorHandling(h.CreateGameAPI), submit...)
	api.GET("/report", h.WithAPIErrorHandling(h.GetReport))

	s.Echo.GET("/healthz", h.Health)
}
