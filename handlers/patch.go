package handlers

import (
	"bytes"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/kevinaaaquil/bookmemory/models"
)

// patch applies a JSON object field by field. Only keys present in the body
// are touched; an explicit null clears nullable fields. Failures are
// collected per field so the client sees every problem at once.
type patch struct {
	fields map[string]json.RawMessage
	errs   map[string]string
}

func decodePatch(r *http.Request) (*patch, error) {
	fields := map[string]json.RawMessage{}
	if err := decodeJSON(r, &fields); err != nil {
		return nil, err
	}
	return &patch{fields: fields, errs: map[string]string{}}, nil
}

func (p *patch) has(key string) bool {
	_, ok := p.fields[key]
	return ok
}

func (p *patch) raw(key string) (json.RawMessage, bool) {
	v, ok := p.fields[key]
	if !ok {
		return nil, false
	}
	return v, true
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func (p *patch) fail(key, msg string) {
	if _, seen := p.errs[key]; !seen {
		p.errs[key] = msg
	}
}

// optStr sets a nullable string field.
func (p *patch) optStr(key string, dst **string, tag string) {
	v, ok := p.raw(key)
	if !ok {
		return
	}
	if isNull(v) {
		*dst = nil
		return
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		p.fail(key, "must be a string")
		return
	}
	if tag != "" {
		if msg := validateVar(s, tag); msg != "" {
			p.fail(key, msg)
			return
		}
	}
	*dst = &s
}

// str sets a non-nullable string field.
func (p *patch) str(key string, dst *string, tag string) {
	v, ok := p.raw(key)
	if !ok {
		return
	}
	if isNull(v) {
		p.fail(key, "may not be null")
		return
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		p.fail(key, "must be a string")
		return
	}
	if msg := validateVar(s, tag); msg != "" {
		p.fail(key, msg)
		return
	}
	*dst = s
}

func (p *patch) integer(key string, dst *int) {
	v, ok := p.raw(key)
	if !ok {
		return
	}
	if isNull(v) {
		p.fail(key, "may not be null")
		return
	}
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		p.fail(key, "must be an integer")
		return
	}
	*dst = n
}

func (p *patch) date(key string, dst **models.Date) {
	v, ok := p.raw(key)
	if !ok {
		return
	}
	if isNull(v) {
		*dst = nil
		return
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		p.fail(key, "must be a YYYY-MM-DD string")
		return
	}
	d, err := models.ParseDate(s)
	if err != nil {
		p.fail(key, "must be a YYYY-MM-DD date")
		return
	}
	*dst = &d
}

func (p *patch) status(key string, dst *models.BookStatus) {
	var s string
	if !p.has(key) {
		return
	}
	p.str(key, &s, "required")
	if _, failed := p.errs[key]; failed {
		return
	}
	st := models.BookStatus(s)
	if !st.Valid() {
		p.fail(key, "must be one of: read want_to_read")
		return
	}
	*dst = st
}

// require records an error for every key missing from the body.
func (p *patch) require(keys ...string) {
	for _, k := range keys {
		if !p.has(k) {
			p.fail(k, "is required")
		}
	}
}

// ok writes a 400 listing the collected errors and reports false if any.
func (p *patch) ok(w http.ResponseWriter) bool {
	if len(p.errs) == 0 {
		return true
	}
	writeValidation(w, p.errs)
	return false
}
