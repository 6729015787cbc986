package handlers

import (
	"errors"
	"io"

	"vademecum/internal/dto"
	"vademecum/internal/models"
	"vademecum/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type VademecumHandler struct {
	ingestion    *service.IngestionService
	retrieval    *service.RetrievalService
	interactions *service.InteractionService
	contexts     *service.ContextService
	logger       *zap.Logger
}

func NewVademecumHandler(
	ingestion *service.IngestionService,
	retrieval *service.RetrievalService,
	interactions *service.InteractionService,
	contexts *service.ContextService,
	logger *zap.Logger,
) *VademecumHandler {
	return &VademecumHandler{
		ingestion:    ingestion,
		retrieval:    retrieval,
		interactions: interactions,
		contexts:     contexts,
		logger:       logger,
	}
}

// Ingest godoc
// @Summary Ingest a vademecum PDF
// @Description Extract, segment, embed and store every medication section of the document
// @Tags vademecum
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Vademecum PDF"
// @Param source formData string false "Source label, defaults to the file name"
// @Security Bearer
// @Success 200 {object} dto.IngestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/vademecum/ingest [post]
func (h *VademecumHandler) Ingest(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "File is required"})
	}

	source := c.FormValue("source")
	if source == "" {
		source = file.Filename
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Failed to open file"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Failed to read file"})
	}

	result, err := h.ingestion.IngestDocument(c.UserContext(), data, source)
	if err != nil {
		return h.fail(c, "ingest", err)
	}

	return c.JSON(dto.IngestResponse{
		Source:    source,
		Processed: result.Processed,
		Errors:    result.Errors,
	})
}

// Search godoc
// @Summary Semantic medication search
// @Tags vademecum
// @Produce json
// @Param q query string true "Free-text query, at least 2 characters"
// @Param limit query int false "Maximum results" default(5)
// @Security Bearer
// @Success 200 {object} dto.SearchResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/vademecum/search [get]
func (h *VademecumHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	hits, err := h.retrieval.Search(c.UserContext(), query, c.QueryInt("limit", 0))
	if err != nil {
		return h.fail(c, "search", err)
	}

	results := make([]dto.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, dto.SearchResult{Medication: hit.Medication, Similarity: hit.Similarity})
	}
	return c.JSON(dto.SearchResponse{Query: query, Results: results})
}

// GetMedication godoc
// @Summary Look up one medication
// @Description Exact name match first, then the nearest semantic match
// @Tags vademecum
// @Produce json
// @Param name path string true "Generic or commercial name"
// @Security Bearer
// @Success 200 {object} models.Medication
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/vademecum/medications/{name} [get]
func (h *VademecumHandler) GetMedication(c *fiber.Ctx) error {
	name := c.Params("name")
	med, found, err := h.retrieval.GetMedication(c.UserContext(), name)
	if err != nil {
		return h.fail(c, "get medication", err)
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Medication not found"})
	}
	return c.JSON(med)
}

// CheckInteractions godoc
// @Summary Check interactions between medications
// @Tags vademecum
// @Accept json
// @Produce json
// @Param request body dto.MedicationNamesRequest true "At least two names"
// @Security Bearer
// @Success 200 {object} dto.InteractionsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/vademecum/interactions [post]
func (h *VademecumHandler) CheckInteractions(c *fiber.Ctx) error {
	var req dto.MedicationNamesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}

	alerts, err := h.interactions.CheckInteractions(c.UserContext(), req.Medications)
	if err != nil {
		return h.fail(c, "check interactions", err)
	}
	if alerts == nil {
		alerts = []models.InteractionAlert{}
	}
	return c.JSON(dto.InteractionsResponse{Alerts: alerts})
}

// BuildContext godoc
// @Summary Build grounding context for a prescription
// @Tags vademecum
// @Accept json
// @Produce json
// @Param request body dto.MedicationNamesRequest true "Medication names"
// @Security Bearer
// @Success 200 {object} dto.ContextResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/vademecum/context [post]
func (h *VademecumHandler) BuildContext(c *fiber.Ctx) error {
	var req dto.MedicationNamesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}

	text, err := h.contexts.BuildContext(c.UserContext(), req.Medications)
	if err != nil {
		return h.fail(c, "build context", err)
	}
	return c.JSON(dto.ContextResponse{Context: text})
}

// Stats godoc
// @Summary Store statistics
// @Tags vademecum
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.StatsResponse
// @Router /api/v1/vademecum/stats [get]
func (h *VademecumHandler) Stats(c *fiber.Ctx) error {
	n, err := h.retrieval.Count(c.UserContext())
	if err != nil {
		return h.fail(c, "stats", err)
	}
	return c.JSON(dto.StatsResponse{Medications: n})
}

func (h *VademecumHandler) fail(c *fiber.Ctx, op string, err error) error {
	var retrievalErr *service.RetrievalError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.As(err, &retrievalErr):
		h.logger.Error("Upstream failure", zap.String("op", op), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "Retrieval backend unavailable"})
	default:
		h.logger.Error("Request failed", zap.String("op", op), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Internal server error"})
	}
}
