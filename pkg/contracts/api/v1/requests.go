// Package api contains the request contracts of the MediaPulse REST API.
// Version v1 represents the current stable API version.
package api

// FilterQuery holds the filter query parameters shared by the view routes.
// Dates are YYYY-MM-DD and both bounds are inclusive.
type FilterQuery struct {
	Platform string `json:"platform" query:"platform" validate:"max=200"`
	Start    string `json:"start" query:"start" validate:"omitempty,calendar_date"`
	End      string `json:"end" query:"end" validate:"omitempty,calendar_date"`
}

// UploadRequest describes the multipart upload. The file itself travels in
// the "file" form field; only its base name is validated.
type UploadRequest struct {
	Filename string `json:"filename" validate:"required,filename"`
}

// DatasetIDParam is the {id} path parameter of the dataset routes
type DatasetIDParam struct {
	ID string `json:"id" param:"id" validate:"required,uuid"`
}
