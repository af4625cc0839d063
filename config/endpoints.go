package config

import (
	"fmt"
	"strings"
)

// DefaultEndpoints maps section -> endpoint name -> path template. Paths are
// joined to the server base_url and "{course_id}" is replaced with the
// configured course. Any entry can be overridden per server under
// [servers.<name>.endpoints.<section>].
var DefaultEndpoints = map[string]map[string]string{
	"remote_gradebook": {
		"get_sections":                    "/courses/{course_id}/remote_gradebook/get_sections",
		"get_assignments":                 "/courses/{course_id}/remote_gradebook/get_assignments",
		"list_remote_enrolled_students":   "/courses/{course_id}/remote_gradebook/list_remote_enrolled_students",
		"list_remote_students_in_section": "/courses/{course_id}/remote_gradebook/list_remote_students_in_section",
		"add_enrollments":                 "/courses/{course_id}/remote_gradebook/add_enrollments_using_remote_gradebook",
		"get_non_staff_enrolled_users":    "/courses/{course_id}/remote_gradebook/get_non_staff_enrolled_users",
		"list_remote_assignments":         "/courses/{course_id}/remote_gradebook/list_remote_assignments",
		"list_course_assignments":         "/courses/{course_id}/remote_gradebook/list_course_assignments",
		"display_assignment_grades":       "/courses/{course_id}/remote_gradebook/display_assignment_grades",
		"export_assignment_grades_to_rg":  "/courses/{course_id}/remote_gradebook/export_assignment_grades_to_rg",
		"export_assignment_grades_csv":    "/courses/{course_id}/remote_gradebook/export_assignment_grades_csv",
	},
	"grade_export": {
		"list_remote_assignments":        "/courses/{course_id}/instructor/api/list_remote_assignments",
		"list_remote_enrolled_students":  "/courses/{course_id}/instructor/api/list_remote_enrolled_students",
		"list_course_assignments":        "/courses/{course_id}/instructor/api/list_course_assignments",
		"display_assignment_grades":      "/courses/{course_id}/instructor/api/display_assignment_grades",
		"export_assignment_grades_to_rg": "/courses/{course_id}/instructor/api/export_assignment_grades_to_rg",
		"export_assignment_grades_csv":   "/courses/{course_id}/instructor/api/export_assignment_grades_csv",
	},
	"canvas_integration": {
		"list_canvas_enrollments": "/courses/{course_id}/canvas/api/list_canvas_enrollments",
		"add_canvas_enrollments":  "/courses/{course_id}/canvas/api/add_canvas_enrollments",
		"push_edx_grades":         "/courses/{course_id}/canvas/api/push_edx_grades",
	},
	"link_media": {
		"link_hls_video": "/videos/{course_id}/hls",
	},
}

// Endpoints resolves endpoint names to absolute URLs for one server.
type Endpoints struct {
	baseURL   string
	courseID  string
	overrides map[string]map[string]string
}

// EndpointResolver returns the resolver for this server profile.
func (s ServerConfig) EndpointResolver() *Endpoints {
	return &Endpoints{
		baseURL:   s.BaseURL,
		courseID:  s.CourseID,
		overrides: s.Endpoints,
	}
}

// URL returns the absolute URL for the named endpoint of a section.
// Overrides may be absolute URLs or paths relative to base_url.
func (e *Endpoints) URL(section, name string) (string, error) {
	tmpl := ""
	if o, ok := e.overrides[section]; ok {
		tmpl = o[name]
	}
	if tmpl == "" {
		tmpl = DefaultEndpoints[section][name]
	}
	if tmpl == "" {
		return "", fmt.Errorf("no endpoint %s.%s configured", section, name)
	}
	tmpl = strings.ReplaceAll(tmpl, "{course_id}", e.courseID)
	if strings.HasPrefix(tmpl, "http://") || strings.HasPrefix(tmpl, "https://") {
		return tmpl, nil
	}
	if !strings.HasPrefix(tmpl, "/") {
		tmpl = "/" + tmpl
	}
	return e.baseURL + tmpl, nil
}
