package services

import (
	"errors"
	"strings"

	"ID-ENRICH/internal/models"
)

// ErrUnknownDocumentType is returned for a document type without a schema
var ErrUnknownDocumentType = errors.New("invalid document type selected")

// SchemaField is one entity the model must extract
type SchemaField struct {
	Name        string
	Instruction string
}

// ExtractionSchema is the fixed field set for one document type
type ExtractionSchema struct {
	Type   models.DocumentType
	Format string // document format the model is told it is an expert in
	Fields []SchemaField
}

const ocrTextPlaceholder = "{ocr_text}"

const extractionFooter = "Instruction: Please extract these entities and provide them strictly as a valid JSON object, " +
	"with proper formatting and correct field names. All details should remain in their original language " +
	"(Thai). Do not translate any content. Do not include any explanation, backticks, or code formatting. " +
	"If you could not find the content that matches the entity return null, do not mock it up. " +
	"The content should come from the OCR text only.\n" +
	"Important: Extract all information exactly as presented in the OCR text. Ensure no details are missed, " +
	"and preserve the full content of the input, including all numbers, names, dates, and other textual data."

// Thai prefixes and name rules shared by person documents
var (
	fieldDob    = SchemaField{"Dob", "Date of Birth in 'DD MMMM YYYY' format in Thai language."}
	fieldPrefix = SchemaField{"Prefix", "The person's titles (e.g., นาย, น.ส., etc.). It should be exact titles from OCR text"}
	fieldName   = SchemaField{"Name", "The person's full name in Thai without any titles."}
	fieldEng    = SchemaField{"Eng_Name", "Extract only the person's full name in uppercase English letters. " +
		"Do not include any titles, prefixes, or words such as 'Mr.', 'Mrs.', 'Miss', or any similar designations. " +
		"The output must strictly be the person's name without these terms."}
)

var schemas = map[models.DocumentType]ExtractionSchema{
	models.DocumentDrivingLicense: {
		Type:   models.DocumentDrivingLicense,
		Format: "Thai driving license",
		Fields: []SchemaField{
			{"License_ID", "The number for Thai Driving License. It typically 8 digits coming after the words 'ฉบับที่' or 'No,', please respond without space"},
			fieldDob,
			fieldPrefix,
			fieldName,
			fieldEng,
		},
	},
	models.DocumentIDCard: {
		Type:   models.DocumentIDCard,
		Format: "Thai identification card",
		Fields: []SchemaField{
			fieldDob,
			fieldPrefix,
			fieldName,
			fieldEng,
			{"Address", "The person's Thai full address including all information regarding address"},
			{"Province", "The person province according to their address"},
			{"Religion", "Their religion (e.g., พุทธ, คริสต์, อิสลาม)"},
		},
	},
	models.DocumentCarRegistration: {
		Type:   models.DocumentCarRegistration,
		Format: "Thai car registration",
		Fields: []SchemaField{
			{"Date_of_Registeration", "The date that the car has been registered in Thai language."},
			{"Car_Plate_Number", "The car plate number"},
			{"Car_Province", "The province that car has been registered"},
			{"Car_Type", "The car type"},
			{"Car_Brand", "The car brand"},
			{"Car_Model", "The car model"},
			{"Car_Year", "The car year"},
			{"Car_Color", "The car color"},
			{"Car_Chassis", "The car chassis number"},
			{"Car_Engine_Number", "The car engine number"},
			{"Car_CC", "The car cc."},
			{"Car_HP", "The car hp."},
			{"Car_Weight", "The car weight in kilogram."},
			{"Owner_Address", "The owner's Thai full address including all information regarding address"},
			{"Owner_Province", "The owner province according to their address"},
			{"Owner_Dob", "The owner Date of Birth in 'DD MMMM YYYY' format in Thai language."},
			{"Name", "The owner's full name in Thai without any titles."},
			{"Owner_Prefix", "The owner's titles (e.g., นาย, น.ส., etc.). It should be exact titles from OCR text"},
		},
	},
}

// SchemaFor selects the extraction schema for a document type
func SchemaFor(t models.DocumentType) (ExtractionSchema, error) {
	s, ok := schemas[t]
	if !ok {
		return ExtractionSchema{}, ErrUnknownDocumentType
	}
	return s, nil
}

// FieldNames returns the schema field names in prompt order
func (s ExtractionSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Template returns the instruction with a single OCR text placeholder
func (s ExtractionSchema) Template() string {
	var b strings.Builder
	b.WriteString("You are the professional in " + s.Format + " format for 10 years. ")
	b.WriteString("You are here to help to processes OCR information to extract specific entities and output them as JSON. ")
	b.WriteString("The entities you need to extract are:\n")
	for _, f := range s.Fields {
		b.WriteString("- " + f.Name + ": " + f.Instruction + "\n")
	}
	b.WriteString("\nHere is the OCR text to analyze:\n")
	b.WriteString(ocrTextPlaceholder)
	b.WriteString("\n\n")
	b.WriteString(extractionFooter)
	return b.String()
}

// Instructions interpolates the recognized text into the template
func (s ExtractionSchema) Instructions(text string) string {
	return strings.Replace(s.Template(), ocrTextPlaceholder, text, 1)
}
