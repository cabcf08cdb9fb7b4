package handlers

import (
	"net/http"
	"strconv"

	"taskDeck/internal/handlers/dto"
	"taskDeck/internal/models/task"

	"github.com/go-chi/chi/v5"
)

func (s *TaskHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := s.TaskService.Templates(r.URL.Query().Get("category"))
	responseWithJSON(w, http.StatusOK,
		toPayload("templates", templates),
		toPayload("categories", s.TaskService.TemplateCategories()),
	)
}

func (s *TaskHandler) TemplateDraft(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		responseWithError(w, http.StatusBadRequest, "неверный id шаблона: "+raw)
		return
	}

	draft, err := s.TaskService.DraftFromTemplate(id)
	if err != nil {
		handleServiceError(w, r, err, "template_draft")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("draft", dto.FromDraft(draft)))
}

func (s *TaskHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("categories", s.TaskService.Categories()))
}

func (s *TaskHandler) PostCategory(w http.ResponseWriter, r *http.Request) {
	var request dto.CategoryRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	created, err := s.TaskService.CreateCategory(r.Context(), task.Category{
		Name:  request.Name,
		Color: request.Color,
		Icon:  request.Icon,
	})
	if err != nil {
		handleServiceError(w, r, err, "create_category")
		return
	}
	responseWithJSON(w, http.StatusCreated, toPayload("category", created))
}

func (s *TaskHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	subs, err := s.TaskService.Subcategories(r.Context(), categoryID)
	if err != nil {
		handleServiceError(w, r, err, "list_subcategories")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("subcategories", subs))
}

func (s *TaskHandler) PostSubcategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.SubcategoryRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	sub, err := s.TaskService.CreateSubcategory(r.Context(), request.Name, categoryID)
	if err != nil {
		handleServiceError(w, r, err, "create_subcategory")
		return
	}
	responseWithJSON(w, http.StatusCreated, toPayload("subcategory", sub))
}
