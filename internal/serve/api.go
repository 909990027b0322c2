package serve

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"slipstream/internal/index"
)

type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type postList struct {
	Posts []index.PostMeta `json:"posts"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
	Total int              `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response{Success: true, Data: data})
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response{Success: false, Error: msg})
}

func (s *Server) indexReady(w http.ResponseWriter) bool {
	if s.idx == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "index not available")
		return false
	}
	return true
}

func listOptions(r *http.Request) index.ListOptions {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return index.ListOptions{Page: page, Size: size}
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	if !s.indexReady(w) {
		return
	}
	opt := listOptions(r)
	posts, err := s.idx.List(opt)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.idx.Count()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pageOf(posts, opt, total))
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	if !s.indexReady(w) {
		return
	}
	m, err := s.idx.GetMeta(chi.URLParam(r, "slug"))
	switch {
	case errors.Is(err, index.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "post not found")
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	if !s.indexReady(w) {
		return
	}
	tags, err := s.idx.Tags()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tags == nil {
		tags = []index.TagCount{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleTagPosts(w http.ResponseWriter, r *http.Request) {
	if !s.indexReady(w) {
		return
	}
	tag := chi.URLParam(r, "tag")
	if v, err := url.PathUnescape(tag); err == nil {
		tag = v
	}
	opt := listOptions(r)
	posts, err := s.idx.ListByTag(tag, opt)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pageOf(posts, opt, 0))
}

func pageOf(posts []index.PostMeta, opt index.ListOptions, total int) postList {
	if posts == nil {
		posts = []index.PostMeta{}
	}
	page, size := opt.Page, opt.Size
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return postList{Posts: posts, Page: page, Size: size, Total: total}
}
