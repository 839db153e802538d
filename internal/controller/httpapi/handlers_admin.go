package httpapi

import (
	"net/http"
	"strconv"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/service"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSearchSchools(w http.ResponseWriter, r *http.Request) {
	q, err := searchQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	schools, err := s.Schools.Search(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "", schools)
}

func (s *Server) handleCreateSchool(w http.ResponseWriter, r *http.Request) {
	var in service.SchoolInput
	if err := s.decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	school, err := s.Schools.Create(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "Successfully created the school", school)
}

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.Classes.ListManageable(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "", classes)
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.Keys.List(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "", keys)
}

func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var in service.KeyCreate
	if err := s.decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	key, err := s.Keys.Create(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "Successfully created the registration key", key)
}

func (s *Server) handleUpdateKey(w http.ResponseWriter, r *http.Request) {
	var in service.KeyUpdate
	if err := s.decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	key, err := s.Keys.Update(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "Successfully updated the registration key", key)
}

func (s *Server) handleKeyCard(w http.ResponseWriter, r *http.Request) {
	png, err := s.Keys.Card(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handlePublicFeedback(w http.ResponseWriter, r *http.Request) {
	var in service.PublicFeedbackInput
	if err := s.decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := s.Feedback.SubmitPublic(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "Feedback received", map[string]any{"feedback_uid": f.UID})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var in service.FeedbackInput
	if err := s.decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := s.Feedback.Submit(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "Feedback received", map[string]any{"feedback_uid": f.UID})
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := s.Feedback.ListOwn(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "", items)
}
