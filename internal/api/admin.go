package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"givebox/internal/db"
	"givebox/internal/model"

	"github.com/go-chi/chi/v5"
)

// giveawayDefinitionSchema is what an admin payload must satisfy before any
// row is written.
const giveawayDefinitionSchema = `{
	"type": "object",
	"properties": {
		"botId": {"type": "integer", "minimum": 1},
		"title": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"kind": {"enum": ["standard", "unique"]},
		"requirement": {"enum": ["none", "manual_approval", "questionnaire", "phone_number"]},
		"sequence": {"type": "integer", "minimum": 1},
		"prereqThreshold": {"type": "integer", "minimum": 1},
		"allowRetake": {"type": "boolean"},
		"staticContent": {"type": "string"},
		"approvalTemplate": {"type": "string"},
		"failureTemplate": {"type": "string"},
		"promptTemplate": {"type": "string"},
		"successTemplate": {"type": "string"},
		"followUpText": {"type": "string"},
		"followUpDelaySeconds": {"type": "integer", "minimum": 0},
		"proofPolicy": {"type": "object"},
		"questions": {"type": "array", "items": {"type": "string", "minLength": 1}},
		"items": {"type": "array", "items": {"type": "string", "minLength": 1}}
	},
	"required": ["botId", "title", "kind", "requirement"]
}`

type CreateGiveawayRequest struct {
	BotID                int64                  `json:"botId"`
	Title                string                 `json:"title"`
	Description          string                 `json:"description,omitempty"`
	Kind                 model.GiveawayKind     `json:"kind"`
	Requirement          model.Requirement      `json:"requirement"`
	Sequence             *int                   `json:"sequence,omitempty"`
	PrereqThreshold      *int                   `json:"prereqThreshold,omitempty"`
	AllowRetake          bool                   `json:"allowRetake,omitempty"`
	StaticContent        string                 `json:"staticContent,omitempty"`
	ApprovalTemplate     *string                `json:"approvalTemplate,omitempty"`
	FailureTemplate      *string                `json:"failureTemplate,omitempty"`
	PromptTemplate       *string                `json:"promptTemplate,omitempty"`
	SuccessTemplate      *string                `json:"successTemplate,omitempty"`
	FollowUpText         string                 `json:"followUpText,omitempty"`
	FollowUpDelaySeconds int64                  `json:"followUpDelaySeconds,omitempty"`
	ProofPolicy          map[string]interface{} `json:"proofPolicy,omitempty"`
	Questions            []string               `json:"questions,omitempty"`
	Items                []string               `json:"items,omitempty"`
}

func (d Dependencies) createGiveaway(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if err := d.schemas.Validate(giveawayDefinitionSchema, raw); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "invalid_definition", err.Error(), d.Log)
		return
	}

	var req CreateGiveawayRequest
	rawBytes, _ := json.Marshal(raw)
	if err := json.Unmarshal(rawBytes, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	if req.Kind == model.KindUnique && len(req.Items) == 0 {
		WriteError(w, http.StatusUnprocessableEntity, "invalid_definition", "A unique giveaway needs at least one item", d.Log)
		return
	}
	if req.Requirement == model.RequirementQuestionnaire && len(req.Questions) == 0 {
		WriteError(w, http.StatusUnprocessableEntity, "invalid_definition", "A questionnaire giveaway needs at least one question", d.Log)
		return
	}

	g, err := d.DB.Queries.CreateGiveaway(r.Context(), db.CreateGiveawayParams{
		BotID:            req.BotID,
		Title:            req.Title,
		Description:      req.Description,
		Kind:             req.Kind,
		Requirement:      req.Requirement,
		Sequence:         req.Sequence,
		PrereqThreshold:  req.PrereqThreshold,
		AllowRetake:      req.AllowRetake,
		StaticContent:    req.StaticContent,
		ApprovalTemplate: req.ApprovalTemplate,
		FailureTemplate:  req.FailureTemplate,
		PromptTemplate:   req.PromptTemplate,
		SuccessTemplate:  req.SuccessTemplate,
		FollowUpText:     req.FollowUpText,
		FollowUpDelay:    time.Duration(req.FollowUpDelaySeconds) * time.Second,
		ProofPolicy:      req.ProofPolicy,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to create giveaway", d.Log)
		return
	}

	for i, text := range req.Questions {
		if _, err := d.DB.Queries.CreateQuestion(r.Context(), g.ID, i+1, text); err != nil {
			WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to create question", d.Log)
			return
		}
	}
	for _, content := range req.Items {
		if _, err := d.DB.Queries.CreateItem(r.Context(), g.ID, content); err != nil {
			WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to create item", d.Log)
			return
		}
	}

	_ = d.Bus.PublishBot(r.Context(), g.BotID, map[string]interface{}{
		"type":       "giveaway.created",
		"giveawayId": g.ID,
	})
	writeJSON(w, http.StatusCreated, g)
}

func (d Dependencies) listGiveaways(w http.ResponseWriter, r *http.Request) {
	botID, err := queryInt64(r, "botId")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "botId is required", d.Log)
		return
	}
	giveaways, err := d.DB.Queries.ListGiveawaysByBot(r.Context(), botID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to list giveaways", d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"giveaways": giveaways})
}

func (d Dependencies) listPendingAttempts(w http.ResponseWriter, r *http.Request) {
	botID, err := queryInt64(r, "botId")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "botId is required", d.Log)
		return
	}
	limit := queryIntDefault(r, "limit", 50)
	offset := queryIntDefault(r, "offset", 0)

	attempts, err := d.DB.Queries.ListPendingAttempts(r.Context(), botID, limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to list attempts", d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

type decisionRequest struct {
	Notes string `json:"notes,omitempty"`
}

func (d Dependencies) approveAttempt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req decisionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	outcome, err := d.Approvals.Approve(r.Context(), id, req.Notes)
	if errors.Is(err, model.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "Attempt not found or already decided", d.Log)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to approve attempt", d.Log)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (d Dependencies) rejectAttempt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req decisionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	err := d.Approvals.Reject(r.Context(), id, req.Notes)
	if errors.Is(err, model.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "Attempt not found or already decided", d.Log)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to reject attempt", d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d Dependencies) listUsers(w http.ResponseWriter, r *http.Request) {
	botID, err := queryInt64(r, "botId")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "botId is required", d.Log)
		return
	}
	users, err := d.DB.Queries.ListUsersByBot(r.Context(), botID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to list users", d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

type BroadcastRequest struct {
	BotID   int64   `json:"botId"`
	UserIDs []int64 `json:"userIds"`
	Text    string  `json:"text"`
}

func (d Dependencies) createBroadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if req.BotID == 0 || len(req.UserIDs) == 0 || req.Text == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "botId, userIds and text are required", d.Log)
		return
	}

	if err := d.JobClient.EnqueueBroadcast(req.BotID, req.UserIDs, req.Text); err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to enqueue broadcast", d.Log)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"queued": len(req.UserIDs)})
}

func queryInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
}

func queryIntDefault(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return n
}
