package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/trackrank/internal/domain/model"
)

// listParam collects a multi-value query parameter. Values may be repeated
// keys or ',' / ';' separated lists; blanks are dropped.
func listParam(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.FieldsFunc(raw, func(c rune) bool { return c == ',' || c == ';' }) {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func stringParam(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func requiredParam(r *http.Request, key string) (string, error) {
	v := stringParam(r, key)
	if v == "" {
		return "", fmt.Errorf("missing %s: %w", key, ErrBadRequest)
	}
	return v, nil
}

// intParam parses an optional integer; absent yields 0.
func intParam(r *http.Request, key string) (int, error) {
	v := stringParam(r, key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, ErrBadRequest)
	}
	return n, nil
}

func parseID(s, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, ErrBadRequest)
	}
	return id, nil
}

func intList(r *http.Request, key string) ([]int, error) {
	raw := listParam(r, key)
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", key, v, ErrBadRequest)
		}
		out = append(out, n)
	}
	return out, nil
}

func floatList(r *http.Request, key string) ([]float64, error) {
	raw := listParam(r, key)
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", key, v, ErrBadRequest)
		}
		out = append(out, f)
	}
	return out, nil
}

// genderParam parses an optional gender.
func genderParam(r *http.Request, key string) (model.Gender, error) {
	v := stringParam(r, key)
	if v == "" {
		return "", nil
	}
	g, ok := model.ParseGender(v)
	if !ok {
		return "", fmt.Errorf("invalid %s %q: %w", key, v, ErrBadRequest)
	}
	return g, nil
}

func genderList(r *http.Request, key string) ([]model.Gender, error) {
	var out []model.Gender
	for _, v := range listParam(r, key) {
		g, ok := model.ParseGender(v)
		if !ok {
			return nil, fmt.Errorf("invalid %s %q: %w", key, v, ErrBadRequest)
		}
		out = append(out, g)
	}
	return out, nil
}

// meetTypeParam matches the postseason tiers case-insensitively. Any other
// meet type is passed through as given.
func meetTypeParam(v string) model.MeetType {
	v = strings.TrimSpace(v)
	for _, t := range model.Stages {
		if strings.EqualFold(string(t), v) {
			return t
		}
	}
	return model.MeetType(v)
}

func meetTypeList(r *http.Request, key string) []model.MeetType {
	var out []model.MeetType
	for _, v := range listParam(r, key) {
		out = append(out, meetTypeParam(v))
	}
	return out
}

func kindParam(r *http.Request, key string) (model.Kind, error) {
	v := stringParam(r, key)
	switch {
	case v == "":
		return "", nil
	case strings.EqualFold(v, string(model.KindFinal)):
		return model.KindFinal, nil
	case strings.EqualFold(v, string(model.KindPrelim)):
		return model.KindPrelim, nil
	}
	return "", fmt.Errorf("invalid %s %q: %w", key, v, ErrBadRequest)
}

func categoryParam(r *http.Request, key string) (model.Category, error) {
	v := stringParam(r, key)
	if v == "" {
		return "", nil
	}
	for _, c := range []model.Category{model.CategoryTrack, model.CategoryHurdle, model.CategoryRelay, model.CategoryField} {
		if strings.EqualFold(string(c), v) {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q: %w", key, v, ErrBadRequest)
}
