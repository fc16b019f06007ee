package http

import "github.com/labstack/echo/v4"

// Handler registers its routes on the shared Echo instance. The training API
// and the outcome websocket hub both implement it.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
