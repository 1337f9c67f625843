package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docmerge/internal/domain"
)

func inputErr(t *testing.T, err error) *domain.InputError {
	t.Helper()
	var ie *domain.InputError
	require.True(t, errors.As(err, &ie), "expected InputError, got %v", err)
	return ie
}

func TestValidateMergeRequest_Valid(t *testing.T) {
	p, err := ValidateMergeRequest([]byte(`{"template":"UEsDBA==","data":{"client_name":"Acme","date":"2024-01-01"}}`))
	require.NoError(t, err)
	assert.Equal(t, "UEsDBA==", p.Template)
	assert.Equal(t, map[string]string{"client_name": "Acme", "date": "2024-01-01"}, p.Data)
}

func TestValidateMergeRequest_EmptyDataAndEscapes(t *testing.T) {
	p, err := ValidateMergeRequest([]byte(`{"template":"","data":{}}`))
	require.NoError(t, err)
	assert.Empty(t, p.Data)

	p, err = ValidateMergeRequest([]byte(`{"template":"x","data":{"na\"me":"line1\nline2"}}`))
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", p.Data[`na"me`])
}

func TestValidateMergeRequest_Missing(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"template":"abc"}`,
		`{"data":{}}`,
		`null`,
		`[]`,
		`"template"`,
		`42`,
	}
	for _, b := range bodies {
		t.Run(b, func(t *testing.T) {
			_, err := ValidateMergeRequest([]byte(b))
			assert.Equal(t, domain.MissingParams().Message, inputErr(t, err).Message)
		})
	}
}

func TestValidateMergeRequest_InvalidJSON(t *testing.T) {
	for _, b := range []string{``, `{`, `{"template":}`, `not json`} {
		_, err := ValidateMergeRequest([]byte(b))
		assert.Equal(t, "Request body must be valid JSON", inputErr(t, err).Message, b)
	}
}

func TestValidateMergeRequest_DataNotObject(t *testing.T) {
	for _, d := range []string{`[]`, `"x"`, `1`, `null`, `true`} {
		_, err := ValidateMergeRequest([]byte(`{"template":"abc","data":` + d + `}`))
		assert.Equal(t, "Data must be an object", inputErr(t, err).Message, d)
	}
}

func TestValidateMergeRequest_NonStringValues(t *testing.T) {
	for _, v := range []string{`42`, `4.2`, `true`, `false`, `null`, `{}`, `["a"]`} {
		_, err := ValidateMergeRequest([]byte(`{"template":"abc","data":{"ok":"yes","amount":` + v + `}}`))
		ie := inputErr(t, err)
		assert.Equal(t, "amount", ie.Key, v)
		assert.Contains(t, ie.Message, "'amount'", v)
	}
}

func TestValidateMergeRequest_FirstOffendingKeyInDocumentOrder(t *testing.T) {
	_, err := ValidateMergeRequest([]byte(`{"template":"abc","data":{"b":1,"a":2}}`))
	assert.Equal(t, "b", inputErr(t, err).Key)
}

func TestValidateMergeRequest_NonStringTemplate(t *testing.T) {
	for _, v := range []string{`123`, `null`, `{}`, `["a"]`} {
		_, err := ValidateMergeRequest([]byte(`{"template":` + v + `,"data":{}}`))
		assert.Equal(t, "Invalid base64 encoded template", inputErr(t, err).Message, v)
	}
}

func TestValidateMergeRequest_DuplicateKeysKeepLastValue(t *testing.T) {
	p, err := ValidateMergeRequest([]byte(`{"template":1,"template":"abc","data":1,"data":{"a":"b"}}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", p.Template)
	assert.Equal(t, map[string]string{"a": "b"}, p.Data)

	p, err = ValidateMergeRequest([]byte(`{"template":"abc","data":{"a":1,"a":"x"}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "x"}, p.Data)

	_, err = ValidateMergeRequest([]byte(`{"template":"abc","data":{"a":"x","a":1}}`))
	assert.Equal(t, "a", inputErr(t, err).Key)

	_, err = ValidateMergeRequest([]byte(`{"template":"abc","data":{"a":"x"},"data":[]}`))
	assert.Equal(t, "Data must be an object", inputErr(t, err).Message)
}
