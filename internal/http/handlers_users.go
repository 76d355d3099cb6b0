package http

import (
	"io"
	"net/http"
	"strings"

	"caixa/internal/users"
)

// maxPhotoBytes bounds uploaded photos before decoding.
const maxPhotoBytes = 8 << 20

type userRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	CPF   string `json:"cpf"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsersJSON(list))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(u))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	u, photo, ok := s.parseUserRequest(w, r)
	if !ok {
		return
	}
	saved, err := s.users.Create(r.Context(), u, photo)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserJSON(saved))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	u, photo, ok := s.parseUserRequest(w, r)
	if !ok {
		return
	}
	saved, err := s.users.Update(r.Context(), id, u, photo)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(saved))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err := s.users.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsersJSON(list))
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.users.Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userStatsJSON{
		Total:        st.Total,
		WithPhoto:    st.WithPhoto,
		WithoutPhoto: st.WithoutPhoto,
	})
}

// parseUserRequest accepts either a JSON body or a multipart form carrying an
// optional "photo" file. It writes the error response itself when parsing
// fails.
func (s *Server) parseUserRequest(w http.ResponseWriter, r *http.Request) (users.User, []byte, bool) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return users.User{}, nil, false
		}
		u := users.User{
			Name:  r.FormValue("name"),
			Email: r.FormValue("email"),
			Phone: r.FormValue("phone"),
			CPF:   r.FormValue("cpf"),
		}
		var photo []byte
		if file, _, err := r.FormFile("photo"); err == nil {
			defer file.Close()
			raw, err := io.ReadAll(file)
			if err != nil {
				writeError(w, http.StatusBadRequest, "failed reading photo upload")
				return users.User{}, nil, false
			}
			photo = raw
		}
		return u, photo, true
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return users.User{}, nil, false
	}
	return users.User{Name: req.Name, Email: req.Email, Phone: req.Phone, CPF: req.CPF}, nil, true
}
