package handler

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/portfolio/internal/server"
	"github.com/deppfellow/portfolio/internal/validation"
)

type HelloHandler struct {
	Handler
}

func NewHelloHandler(s *server.Server) *HelloHandler {
	return &HelloHandler{Handler: NewHandler(s)}
}

type HelloResponse struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

type HelloRequest struct{}

func (r *HelloRequest) Validate() error {
	return nil
}

// EchoRequest captures an arbitrary JSON object body.
type EchoRequest struct {
	Data map[string]any
}

func (r *EchoRequest) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &r.Data)
}

func (r *EchoRequest) Validate() error {
	if r.Data == nil {
		return validation.CustomValidationErrors{{Field: "body", Message: "a JSON object is required"}}
	}
	return nil
}

func (h *HelloHandler) Hello(c echo.Context, _ *HelloRequest) (HelloResponse, error) {
	return HelloResponse{Message: "Hello, world!"}, nil
}

func (h *HelloHandler) EchoData(c echo.Context, req *EchoRequest) (HelloResponse, error) {
	return HelloResponse{Message: "Got some data!", Data: req.Data}, nil
}
