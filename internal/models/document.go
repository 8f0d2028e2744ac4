package models

// DocumentType identifies which kind of Thai document was uploaded
type DocumentType string

const (
	DocumentDrivingLicense  DocumentType = "driving-license"
	DocumentIDCard          DocumentType = "identification-card"
	DocumentCarRegistration DocumentType = "car-registration"
)

// DocumentTypes lists every supported document type in display order
var DocumentTypes = []DocumentType{
	DocumentDrivingLicense,
	DocumentIDCard,
	DocumentCarRegistration,
}

// IsValid reports whether t is one of the supported document types
func (t DocumentType) IsValid() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns a human readable name used by the upload form
func (t DocumentType) Label() string {
	switch t {
	case DocumentDrivingLicense:
		return "Driving License (ใบขับขี่)"
	case DocumentIDCard:
		return "ID Card (บัตรประชาชน)"
	case DocumentCarRegistration:
		return "Car Registration (ทะเบียนรถ)"
	default:
		return string(t)
	}
}

// Document is an uploaded image together with its declared type.
// It lives only for the duration of one request.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
	Type        DocumentType
}
