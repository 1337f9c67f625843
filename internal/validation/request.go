// Package validation checks the shape of incoming merge requests before any
// document work is done.
package validation

import (
	"github.com/tidwall/gjson"

	"docmerge/internal/domain"
)

// MergeParams holds the validated, still encoded, request fields.
type MergeParams struct {
	Template string
	Data     map[string]string
}

// InvalidJSON is returned when the body is not parseable JSON.
func InvalidJSON() *domain.InputError {
	return &domain.InputError{Message: "Request body must be valid JSON"}
}

// ValidateMergeRequest inspects the raw JSON body by value kind. It never
// touches the template payload beyond checking that it is a string.
func ValidateMergeRequest(body []byte) (*MergeParams, error) {
	if !gjson.ValidBytes(body) {
		return nil, InvalidJSON()
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, domain.MissingParams()
	}

	// Duplicate keys resolve to their last occurrence.
	var tmpl, data gjson.Result
	root.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "template":
			tmpl = value
		case "data":
			data = value
		}
		return true
	})
	if !tmpl.Exists() || !data.Exists() {
		return nil, domain.MissingParams()
	}

	if !data.IsObject() {
		return nil, domain.DataNotObject()
	}

	// Keys keep the position of their first occurrence and the value of
	// their last.
	var order []string
	last := make(map[string]gjson.Result)
	data.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, seen := last[k]; !seen {
			order = append(order, k)
		}
		last[k] = value
		return true
	})

	values := make(map[string]string, len(order))
	for _, k := range order {
		v := last[k]
		if v.Type != gjson.String {
			return nil, domain.NonStringValue(k)
		}
		values[k] = v.String()
	}

	// Non-string templates cannot be base64 text.
	if tmpl.Type != gjson.String {
		return nil, domain.InvalidBase64()
	}

	return &MergeParams{Template: tmpl.String(), Data: values}, nil
}
