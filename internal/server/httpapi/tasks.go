package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"taskkeeper/internal/server/models"
	"taskkeeper/internal/server/repositories/tasks"
	"taskkeeper/internal/server/services"
)

type createTaskRequest struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func (s *HTTPServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.tasks.Create(r.Context(), requestUser(r).ID, services.TaskCreate{
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, task)
}

// listFilterFromQuery parses ?completed=true&limit=10&skip=20&sortBy=createdAt:desc.
// Unparseable values fall back to the unfiltered default rather than erroring.
func listFilterFromQuery(r *http.Request) tasks.ListFilter {
	var filter tasks.ListFilter
	q := r.URL.Query()

	if v := q.Get("completed"); v != "" {
		if completed, err := strconv.ParseBool(v); err == nil {
			filter.Completed = &completed
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := q.Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Skip = n
		}
	}
	if v := q.Get("sortBy"); v != "" {
		field, direction, _ := strings.Cut(v, ":")
		filter.SortBy = field
		filter.SortDesc = strings.EqualFold(direction, "desc")
	}

	return filter
}

func (s *HTTPServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := s.tasks.List(r.Context(), requestUser(r).ID, listFilterFromQuery(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Task{} // an empty page is [], not null
	}
	s.writeJSON(w, r, http.StatusOK, list)
}

func (s *HTTPServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), requestUser(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, task)
}

var taskUpdateFields = map[string]bool{
	"description": true,
	"completed":   true,
}

func (s *HTTPServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	for key := range raw {
		if !taskUpdateFields[key] {
			s.writeError(w, r, http.StatusBadRequest, "invalid updates")
			return
		}
	}

	var upd services.TaskUpdate
	if body, ok := raw["description"]; ok {
		if err := json.Unmarshal(body, &upd.Description); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if body, ok := raw["completed"]; ok {
		if err := json.Unmarshal(body, &upd.Completed); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	task, err := s.tasks.Update(r.Context(), requestUser(r).ID, chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, task)
}

func (s *HTTPServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Delete(r.Context(), requestUser(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, task)
}
