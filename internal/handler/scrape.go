package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/rentradar/scraper-api/internal/model"
	"github.com/rentradar/scraper-api/internal/service"
	"github.com/rentradar/scraper-api/pkg/response"
)

type ScrapeHandler struct {
	service   *service.ScrapeService
	validator *validator.Validate
}

func NewScrapeHandler(svc *service.ScrapeService, v *validator.Validate) *ScrapeHandler {
	return &ScrapeHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/scrape/start
func (h *ScrapeHandler) Start(c *fiber.Ctx) error {
	var req model.StartScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.StartScrape(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyTargets) {
			return response.ValidationError(c, err.Error(), nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/scrape/status/:jobId
func (h *ScrapeHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Results handles GET /api/scrape/results/:jobId
func (h *ScrapeHandler) Results(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetResults(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		if errors.Is(err, service.ErrJobNotReady) {
			return response.NotReady(c, "Job not completed yet")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Cancel handles POST /api/scrape/cancel/:jobId
func (h *ScrapeHandler) Cancel(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.Cancel(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		if errors.Is(err, service.ErrJobTerminal) {
			return response.InvalidState(c, "Job already in a terminal state")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// List handles GET /api/scrape/jobs
func (h *ScrapeHandler) List(c *fiber.Ctx) error {
	jobs, err := h.service.ListJobs(c.Context())
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, jobs)
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string)
		for _, e := range validationErrors {
			fields[e.Field()] = e.Tag()
		}
		return fields
	}
	return nil
}
