package schemas

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSON_ValidJSON(t *testing.T) {
	schemaPath := filepath.Join("testdata", "valid_schema.json")
	jsonPath := filepath.Join("testdata", "valid_json.json")

	err := ValidateJSON(schemaPath, jsonPath)
	assert.NoError(t, err)
}

func TestValidateJSON_InvalidJSON_MissingField(t *testing.T) {
	schemaPath := filepath.Join("testdata", "valid_schema.json")
	jsonPath := filepath.Join("testdata", "invalid_json.json")

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSON_InvalidJSON_WrongType(t *testing.T) {
	schemaPath := filepath.Join("testdata", "valid_schema.json")
	jsonPath := filepath.Join("testdata", "type_mismatch.json")

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "score", validationErr.Errors[0].Field)
}

func TestValidateJSON_NonExistentSchema(t *testing.T) {
	err := ValidateJSON("testdata/nonexistent_schema.json", filepath.Join("testdata", "valid_json.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["question"], "properties": {"question": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"question": "Why Go?"}`))

	err := ValidateJSONString(schema, `{}`)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestListFlowSchemas(t *testing.T) {
	names, err := ListFlowSchemas()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"mentor_guidance",
		"resume_analysis",
		"interview_question",
		"final_report",
		"role_compatibility",
		"job_trends",
	}, names)

	for _, name := range names {
		_, err := loadFlowSchema(name)
		assert.NoError(t, err, "schema %s should compile", name)
	}
}

func TestFlowSchema_Unknown(t *testing.T) {
	_, err := FlowSchema("does_not_exist")
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestValidateFlowOutput_NotJSON(t *testing.T) {
	err := ValidateFlowOutput("interview_question", "this is not json")
	var docErr *DocumentError
	assert.ErrorAs(t, err, &docErr)
}

func TestValidateFlowOutput_ResumeAnalysis(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{
			name:  "rejection with reason only",
			doc:   `{"isResume": false, "rejectionReason": "This is a recipe."}`,
			valid: true,
		},
		{
			name:  "rejection without reason",
			doc:   `{"isResume": false}`,
			valid: false,
		},
		{
			name:  "rejection with empty reason",
			doc:   `{"isResume": false, "rejectionReason": ""}`,
			valid: false,
		},
		{
			name:  "rejection carrying analysis fields",
			doc:   `{"isResume": false, "rejectionReason": "Not a CV", "summary": "x"}`,
			valid: false,
		},
		{
			name: "full analysis",
			doc: `{"isResume": true, "summary": "Backend engineer", "extractedSkills": ["Go", "SQL"],
				"suggestedRoles": [{"title": "SRE", "description": "ops heavy", "confidence": 80}]}`,
			valid: true,
		},
		{
			name: "six skills",
			doc: `{"isResume": true, "summary": "s", "extractedSkills": ["a","b","c","d","e","f"],
				"suggestedRoles": []}`,
			valid: false,
		},
		{
			name: "confidence out of range",
			doc: `{"isResume": true, "summary": "s", "extractedSkills": [],
				"suggestedRoles": [{"title": "SRE", "description": "d", "confidence": 140}]}`,
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFlowOutput("resume_analysis", tt.doc)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				var validationErr *ValidationError
				assert.ErrorAs(t, err, &validationErr)
			}
		})
	}
}

func TestValidateFlowOutput_FinalReportStatusEnum(t *testing.T) {
	doc := `{"overallScore": 10, "summary": {"status": "Abandoned", "overview": "x"}}`
	var validationErr *ValidationError
	assert.ErrorAs(t, ValidateFlowOutput("final_report", doc), &validationErr)
}
