package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mdrdcalc/mdrdcalc/server/internal/egfr"
)

const (
	maxBodyBytes  = 1 << 20
	maxFormMemory = 1 << 20
)

// errBadBody marks request bodies that cannot be decoded at all, as opposed
// to bodies that decode but fail validation.
var errBadBody = errors.New("bad request body")

// decodeFormFields reads the four calculator fields from a url-encoded or
// multipart form body.
func decodeFormFields(w http.ResponseWriter, r *http.Request) (egfr.Fields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return egfr.Fields{}, fmt.Errorf("%w: parse form: %v", errBadBody, err)
	}

	return egfr.Fields{
		SerumCreatinine: r.PostForm.Get(egfr.FieldSerumCreatinine),
		Age:             r.PostForm.Get(egfr.FieldAge),
		Sex:             r.PostForm.Get(egfr.FieldSex),
		Race:            r.PostForm.Get(egfr.FieldRace),
		RaceIsBlack:     r.PostForm.Get(egfr.FieldRaceIsBlack),
	}, nil
}

// decodeJSONFields reads a CalculateRequest-shaped JSON object from r.
func decodeJSONFields(r io.Reader) (egfr.Fields, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return egfr.Fields{}, fmt.Errorf("%w: read: %v", errBadBody, err)
	}
	return FieldsFromJSON(data)
}

// FieldsFromJSON converts a JSON object into raw textual fields. Numbers and
// booleans keep their literal text; strings are unquoted; null is absent.
// "biological_sex" takes precedence over "sex" when both are present, and
// sex errors are then reported under that key.
func FieldsFromJSON(data []byte) (egfr.Fields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return egfr.Fields{}, fmt.Errorf("%w: invalid JSON: %v", errBadBody, err)
	}
	if raw == nil {
		return egfr.Fields{}, fmt.Errorf("%w: JSON body must be an object", errBadBody)
	}

	f := egfr.Fields{
		SerumCreatinine: scalarText(raw[egfr.FieldSerumCreatinine]),
		Age:             scalarText(raw[egfr.FieldAge]),
		Sex:             scalarText(raw[egfr.FieldBiologicalSex]),
		Race:            scalarText(raw[egfr.FieldRace]),
		RaceIsBlack:     scalarText(raw[egfr.FieldRaceIsBlack]),
	}
	_, hasBiological := raw[egfr.FieldBiologicalSex]
	_, hasSex := raw[egfr.FieldSex]
	switch {
	case f.Sex != "" || (hasBiological && !hasSex):
		f.SexKey = egfr.FieldBiologicalSex
	default:
		f.Sex = scalarText(raw[egfr.FieldSex])
	}
	return f, nil
}

func scalarText(m json.RawMessage) string {
	m = bytes.TrimSpace(m)
	if len(m) == 0 || bytes.Equal(m, []byte("null")) {
		return ""
	}
	if m[0] == '"' {
		var s string
		if err := json.Unmarshal(m, &s); err == nil {
			return s
		}
	}
	return string(m)
}
