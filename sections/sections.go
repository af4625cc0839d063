// Package sections declares the instructor dashboard sections as panel
// descriptors. Descriptors are built fresh on every call; there is no
// package-level registry.
package sections

import (
	"net/http"
	"sort"

	"github.com/deevus/instructor-tui/lms"
	"github.com/deevus/instructor-tui/panel"
)

const (
	RemoteGradebook   = "remote_gradebook"
	GradeExport       = "grade_export"
	CanvasIntegration = "canvas_integration"
	LinkMedia         = "link_media"
)

const (
	assignmentRequired = "Assignment name must be specified."
	exportRGFailed     = "Error posting grades to remote grade book. Please try again."
	exportCSVFailed    = "Error generating grades. Please try again."
	mediaRequired      = "Required data missing. Please fill the fields and try again."
	mediaFailed        = "Server error, please refresh the page and try again."
)

// All returns every section descriptor in dashboard order.
func All() []panel.Descriptor {
	return []panel.Descriptor{
		remoteGradebook(),
		gradeExport(),
		canvasIntegration(),
		linkMedia(),
	}
}

// Lookup returns the named section descriptor.
func Lookup(name string) (panel.Descriptor, bool) {
	for _, d := range All() {
		if d.Name == name {
			return d, true
		}
	}
	return panel.Descriptor{}, false
}

// Names returns the section names, sorted.
func Names() []string {
	var names []string
	for _, d := range All() {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// Enabled filters All by name, keeping dashboard order. An empty list
// enables everything. Unknown names are returned separately.
func Enabled(names []string) (enabled []panel.Descriptor, unknown []string) {
	if len(names) == 0 {
		return All(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := Lookup(n); !ok {
			unknown = append(unknown, n)
			continue
		}
		want[n] = true
	}
	for _, d := range All() {
		if want[d.Name] {
			enabled = append(enabled, d)
		}
	}
	return enabled, unknown
}

func remoteGradebook() panel.Descriptor {
	return panel.Descriptor{
		Name:  RemoteGradebook,
		Title: "Remote Gradebook",
		Fields: []panel.FieldSpec{
			{Name: "section_name", Label: "Section", Kind: panel.SelectField, OptionsEndpoint: "get_sections"},
			{Name: "assignment_name", Label: "Assignment", Kind: panel.SelectField, OptionsEndpoint: "get_assignments"},
		},
		Actions: []panel.ActionSpec{
			{
				Name:     "list-remote-enrolled-students",
				Label:    "List enrolled students",
				Endpoint: "list_remote_enrolled_students",
			},
			{
				Name:     "list-remote-students-in-section",
				Label:    "List students in section",
				Endpoint: "list_remote_students_in_section",
				Fields:   []string{"section_name"},
			},
			{
				Name:     "merge-enrolled-students-in-section",
				Label:    "Merge section enrollments",
				Endpoint: "add_enrollments",
				Fields:   []string{"section_name"},
				Params:   map[string]string{"unenroll_current": "false"},
			},
			{
				Name:     "overload-enrolled-students-in-section",
				Label:    "Overload section enrollments",
				Endpoint: "add_enrollments",
				Fields:   []string{"section_name"},
				Params:   map[string]string{"unenroll_current": "true"},
				Preflight: &panel.PreflightSpec{
					Endpoint: "get_non_staff_enrolled_users",
				},
			},
			{
				Name:     "list-remote-assignments",
				Label:    "List remote assignments",
				Endpoint: "list_remote_assignments",
			},
			{
				Name:     "list-course-assignments",
				Label:    "List course assignments",
				Endpoint: "list_course_assignments",
			},
			{
				Name:     "display-assignment-grades",
				Label:    "Display assignment grades",
				Endpoint: "display_assignment_grades",
				Fields:   []string{"assignment_name"},
			},
			{
				Name:            "export-assignment-grades-to-rg",
				Label:           "Export grades to remote gradebook",
				Endpoint:        "export_assignment_grades_to_rg",
				Method:          http.MethodGet,
				Encoding:        lms.EncodeQuery,
				Fields:          []string{"assignment_name"},
				Required:        []string{"assignment_name"},
				RequiredMessage: assignmentRequired,
				Result:          panel.ResultStatus,
				Title:           "Status",
				FailureMessage:  exportRGFailed,
				ClearFirst:      true,
			},
			{
				Name:            "export-assignment-grades-csv",
				Label:           "Generate grades CSV",
				Endpoint:        "export_assignment_grades_csv",
				Method:          http.MethodGet,
				Encoding:        lms.EncodeQuery,
				Fields:          []string{"assignment_name"},
				Required:        []string{"assignment_name"},
				RequiredMessage: assignmentRequired,
				Result:          panel.ResultStatus,
				Title:           "Status",
				FailureMessage:  exportCSVFailed,
				ClearFirst:      true,
			},
		},
	}
}

func gradeExport() panel.Descriptor {
	return panel.Descriptor{
		Name:  GradeExport,
		Title: "Grade Export",
		Fields: []panel.FieldSpec{
			{Name: "assignment_name", Label: "Assignment"},
		},
		Actions: []panel.ActionSpec{
			{
				Name:     "list-remote-assignments",
				Label:    "List remote assignments",
				Endpoint: "list_remote_assignments",
			},
			{
				Name:     "list-remote-enrolled-students",
				Label:    "List enrolled students",
				Endpoint: "list_remote_enrolled_students",
			},
			{
				Name:     "list-course-assignments",
				Label:    "List course assignments",
				Endpoint: "list_course_assignments",
			},
			{
				Name:     "display-assignment-grades",
				Label:    "Display assignment grades",
				Endpoint: "display_assignment_grades",
				Fields:   []string{"assignment_name"},
			},
			{
				Name:     "export-assignment-grades-to-rg",
				Label:    "Export grades to remote gradebook",
				Endpoint: "export_assignment_grades_to_rg",
				Fields:   []string{"assignment_name"},
			},
			{
				Name:            "export-assignment-grades-csv",
				Label:           "Download grades CSV",
				Endpoint:        "export_assignment_grades_csv",
				Method:          http.MethodGet,
				Encoding:        lms.EncodeQuery,
				Fields:          []string{"assignment_name"},
				Required:        []string{"assignment_name"},
				RequiredMessage: assignmentRequired,
				Result:          panel.ResultDownload,
				Title:           "Download",
			},
		},
	}
}

func canvasIntegration() panel.Descriptor {
	return panel.Descriptor{
		Name:  CanvasIntegration,
		Title: "Canvas",
		Actions: []panel.ActionSpec{
			{
				Name:     "list-canvas-enrollments",
				Label:    "List Canvas enrollments",
				Endpoint: "list_canvas_enrollments",
				Method:   http.MethodGet,
				Result:   panel.ResultRecords,
				Title:    "Enrollments on Canvas",
			},
			{
				Name:     "merge-canvas-enrollments",
				Label:    "Merge Canvas enrollments",
				Endpoint: "add_canvas_enrollments",
				Params:   map[string]string{"unenroll_current": "false"},
				Result:   panel.ResultRaw,
				Title:    "Status",
			},
			{
				Name:     "overload-canvas-enrollments",
				Label:    "Overload Canvas enrollments",
				Endpoint: "add_canvas_enrollments",
				Params:   map[string]string{"unenroll_current": "true"},
				Result:   panel.ResultRaw,
				Title:    "Status",
			},
			{
				Name:     "push-edx-grades",
				Label:    "Push grades to Canvas",
				Endpoint: "push_edx_grades",
				Result:   panel.ResultStatus,
				Title:    "Status",
			},
		},
	}
}

func linkMedia() panel.Descriptor {
	return panel.Descriptor{
		Name:  LinkMedia,
		Title: "Link Media",
		Fields: []panel.FieldSpec{
			{Name: "filename", Label: "Filename"},
			{Name: "url", Label: "HLS URL"},
		},
		Actions: []panel.ActionSpec{
			{
				Name:            "link-hls-video",
				Label:           "Link video",
				Endpoint:        "link_hls_video",
				Encoding:        lms.EncodeJSON,
				Fields:          []string{"filename", "url"},
				Required:        []string{"filename", "url"},
				RequiredMessage: mediaRequired,
				Result:          panel.ResultFiles,
				Title:           "Linked videos",
				FailureMessage:  mediaFailed,
			},
		},
	}
}
