// Package lmstest runs an in-process fake of the LMS instructor endpoints
// for tests. Routes follow config.DefaultEndpoints.
package lmstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deevus/instructor-tui/config"
)

// Token is the bearer token the fake server accepts.
const Token = "test-token"

// CourseID is the course the fake server serves.
const CourseID = "course-v1:MITx+6.00x+2026"

// Server is a fake LMS. Individual paths can be overridden with Handle.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	overrides map[string]http.HandlerFunc
	hits      map[string]int
}

// NewServer starts a fake LMS and registers its shutdown with t.Cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		overrides: make(map[string]http.HandlerFunc),
		hits:      make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// ServerConfig returns a config profile pointing at this server.
func (s *Server) ServerConfig() config.ServerConfig {
	return config.ServerConfig{
		BaseURL:  s.URL,
		CourseID: CourseID,
		APIToken: Token,
	}
}

// Handle overrides the handler for an exact request path.
func (s *Server) Handle(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[path] = h
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// CoursePath returns the path of a course-scoped endpoint.
func CoursePath(suffix string) string {
	return "/courses/" + CourseID + "/" + suffix
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.count)
	r.Use(requireToken)
	r.Use(s.override)

	r.Route("/courses/{courseID}", func(r chi.Router) {
		r.Route("/remote_gradebook", func(r chi.Router) {
			r.Post("/get_sections", writeJSON(map[string]any{"data": []string{"Section A", "Section B"}}))
			r.Post("/get_assignments", writeJSON(map[string]any{"data": [][]string{
				{"Hw 01", "[Hw 01] Homework 1"},
				{"Ex 01", "[Ex 01] First Exam"},
			}}))
			r.Post("/list_remote_enrolled_students", writeJSON(studentsTable))
			r.Post("/list_remote_students_in_section", requireParam("section_name", "Section name is required.", studentsTable))
			r.Post("/add_enrollments_using_remote_gradebook", enrollmentResults)
			r.Post("/get_non_staff_enrolled_users", writeJSON(map[string]any{
				"count": 2,
				"users": []string{"alice", "bob"},
			}))
			r.Post("/list_remote_assignments", writeJSON(assignmentsTable))
			r.Post("/list_course_assignments", writeJSON(assignmentsTable))
			r.Post("/display_assignment_grades", assignmentGrades)
			r.Get("/export_assignment_grades_to_rg", requireParam("assignment_name", "", map[string]any{
				"status": "Grade export to the remote gradebook has been submitted.",
			}))
			r.Get("/export_assignment_grades_csv", requireParam("assignment_name", "", map[string]any{
				"status": "Grade CSV generation has been submitted.",
			}))
		})

		r.Route("/instructor/api", func(r chi.Router) {
			r.Post("/list_remote_assignments", writeJSON(assignmentsTable))
			r.Post("/list_remote_enrolled_students", writeJSON(studentsTable))
			r.Post("/list_course_assignments", writeJSON(assignmentsTable))
			r.Post("/display_assignment_grades", assignmentGrades)
			r.Post("/export_assignment_grades_to_rg", requireParam("assignment_name", "Assignment name must be specified.", map[string]any{
				"datatable": map[string]any{"data": []map[string]any{{"email": "alice@example.edu", "result": "posted"}}},
			}))
			r.Get("/export_assignment_grades_csv", gradesCSV)
		})

		r.Route("/canvas/api", func(r chi.Router) {
			r.Get("/list_canvas_enrollments", writeJSON([]map[string]any{
				{"email": "alice@example.edu", "exists_in_edx": true, "enrolled_in_edx": true, "allowed_in_edx": false},
				{"email": "bob@example.edu", "exists_in_edx": false, "enrolled_in_edx": false, "allowed_in_edx": true},
			}))
			r.Post("/add_canvas_enrollments", writeJSON(map[string]any{"status": "success"}))
			r.Post("/push_edx_grades", writeJSON(map[string]any{"status": "success"}))
		})
	})

	r.Post("/videos/{courseID}/hls", linkVideo)
	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) override(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		h, ok := s.overrides[r.URL.Path]
		s.mu.Unlock()
		if ok {
			h(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var studentsTable = map[string]any{
	"datatable": map[string]any{
		"title": "Remote enrolled students",
		"data": []map[string]any{
			{"name": "Alice", "email": "alice@example.edu", "section": "Section A"},
			{"name": "Bob", "email": "bob@example.edu", "section": "Section B"},
		},
	},
}

var assignmentsTable = map[string]any{
	"datatable": map[string]any{
		"header": []string{"assignment", "points"},
		"data":   [][]any{{"Hw 01", 10}, {"Ex 01", 100}},
	},
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSON(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, v)
	}
}

// requireParam answers ok when the form/query parameter is present. When it
// is missing it answers {"errors": [msg]}, or a 400 when msg is empty.
func requireParam(name, msg string, ok any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue(name) != "" {
			WriteJSON(w, http.StatusOK, ok)
			return
		}
		if msg == "" {
			http.Error(w, "missing "+name, http.StatusBadRequest)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"errors": []string{msg}})
	}
}

func enrollmentResults(w http.ResponseWriter, r *http.Request) {
	result := "Enrolled user in the course"
	if r.FormValue("unenroll_current") == "true" {
		result = "Unenrolled user from the course"
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"datatable": map[string]any{
			"data": []map[string]any{
				{"email": "alice@example.edu", "section": r.FormValue("section_name"), "result": result},
			},
		},
	})
}

func assignmentGrades(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("assignment_name")
	switch name {
	case "":
		WriteJSON(w, http.StatusOK, map[string]any{"errors": []string{"Assignment name must be specified."}})
	case "Hw 01", "Ex 01":
		WriteJSON(w, http.StatusOK, map[string]any{
			"datatable": map[string]any{
				"data": []map[string]any{
					{"student": "alice@example.edu", "grade": 0.9},
					{"student": "bob@example.edu", "grade": 0.75},
				},
			},
		})
	default:
		WriteJSON(w, http.StatusOK, map[string]any{"errors": []string{fmt.Sprintf("Assignment %q not found.", name)}})
	}
}

func gradesCSV(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("assignment_name")
	if name == "" {
		http.Error(w, "missing assignment_name", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="grades.csv"`)
	fmt.Fprintf(w, "student,assignment,grade\nalice@example.edu,%s,0.9\n", name)
}

func linkVideo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Filename == "" || body.URL == "" {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "filename and url are required"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"files": []map[string]any{
			{"edx_video_id": "hls-" + body.Filename, "client_video_id": body.Filename, "status": "ready"},
		},
	})
}
