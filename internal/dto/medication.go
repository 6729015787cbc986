package dto

import "vademecum/internal/models"

type SearchResult struct {
	Medication *models.Medication `json:"medication"`
	Similarity float64            `json:"similarity"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

type MedicationNamesRequest struct {
	Medications []string `json:"medications" example:"Ibuprofeno,Aspirina"`
}

type InteractionsResponse struct {
	Alerts []models.InteractionAlert `json:"alerts"`
}

type ContextResponse struct {
	Context string `json:"context"`
}

type IngestResponse struct {
	Source    string `json:"source"`
	Processed int    `json:"processed"`
	Errors    int    `json:"errors"`
}

type StatsResponse struct {
	Medications int `json:"medications"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
