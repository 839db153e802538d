package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/service"
	"github.com/Freeeeeet/wherewego/internal/session"
	"go.uber.org/zap"
)

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type validateRequest struct {
	Key string `json:"registration_key" validate:"required"`
}

type deleteRequest struct {
	StudentUID int64 `json:"student_uid" validate:"required,min=1"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeOK(w, "ok", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	student, err := s.Students.Authenticate(r.Context(), req.Identifier, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, s.Sessions.Create(student.UID))
	s.writeOK(w, "Logged in", student)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		s.Sessions.Delete(cookie.Value)
	}
	s.clearSessionCookie(w)
	s.writeOK(w, "Logged out", nil)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	info, err := s.Keys.Validate(r.Context(), req.Key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "Registration key is valid", info)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := s.decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	student, err := s.Students.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, s.Sessions.Create(student.UID))
	s.writeOK(w, "Successfully registered", student)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	if p == nil {
		s.writeError(w, r, auth.ErrUnauthenticated)
		return
	}

	uid := p.StudentUID
	if raw := r.URL.Query().Get("student_uid"); raw != "" {
		v, err := queryInt(r, "student_uid", 0)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		uid = int64(v)
	}

	student, err := s.Students.Get(r.Context(), p, uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "", student)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateInput
	if err := s.decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	student, err := s.Students.Update(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "Successfully updated the student", student)
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if raw := r.URL.Query().Get("student_uid"); raw != "" {
		v, err := queryInt(r, "student_uid", 0)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		req.StudentUID = int64(v)
	} else if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.StudentUID <= 0 {
		s.writeError(w, r, apperr.Validation("student_uid", ""))
		return
	}

	p := auth.FromContext(r.Context())
	deleted, err := s.Students.Delete(r.Context(), p, req.StudentUID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !deleted {
		s.writeOK(w, "No students affected", nil)
		return
	}

	s.Sessions.DeleteStudent(req.StudentUID)
	s.Logger.Info("Student sessions dropped", zap.Int64("student_uid", req.StudentUID))
	s.writeOK(w, "Successfully deleted the student", nil)
}

func (s *Server) handleSearchStudents(w http.ResponseWriter, r *http.Request) {
	q, err := searchQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.Students.Search(r.Context(), auth.FromContext(r.Context()), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "", items)
}

type roleRequest struct {
	StudentUID int64  `json:"student_uid" validate:"required,min=1"`
	Role       string `json:"role" validate:"required,oneof=student class curriculum year system"`
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	err := s.Students.SetRole(r.Context(), auth.FromContext(r.Context()), req.StudentUID, model.Role(req.Role))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "Successfully updated the role", nil)
}
