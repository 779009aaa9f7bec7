package model

import (
	"net/url"
	"strconv"
	"strings"
)

// FilterField names one of the four filter criteria.
type FilterField string

// Filter fields.
const (
	FieldName     FilterField = "name"
	FieldCategory FilterField = "category"
	FieldColor    FilterField = "color"
	FieldBrand    FilterField = "brand"
)

// FilterFields lists all filter fields.
var FilterFields = []FilterField{FieldName, FieldCategory, FieldColor, FieldBrand}

// ParseFilterField parses a field name.
func ParseFilterField(s string) (FilterField, error) {
	f := FilterField(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldName, FieldCategory, FieldColor, FieldBrand:
		return f, nil
	}
	return "", &ValidationError{Field: "filter", Reason: "unknown field " + s}
}

// FilterCriteria narrows the clothing collection. An empty field imposes no
// filter. The zero value matches everything.
type FilterCriteria struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Brand    string `json:"brand"`
}

// Get returns the value of field f.
func (c FilterCriteria) Get(f FilterField) string {
	switch f {
	case FieldName:
		return c.Name
	case FieldCategory:
		return c.Category
	case FieldColor:
		return c.Color
	case FieldBrand:
		return c.Brand
	}
	return ""
}

// With returns a copy of c with field f set to value.
func (c FilterCriteria) With(f FilterField, value string) FilterCriteria {
	switch f {
	case FieldName:
		c.Name = value
	case FieldCategory:
		c.Category = value
	case FieldColor:
		c.Color = value
	case FieldBrand:
		c.Brand = value
	}
	return c
}

// IsZero reports whether no field is set.
func (c FilterCriteria) IsZero() bool {
	return c == FilterCriteria{}
}

// Key returns a canonical string for c. Two criteria have the same key iff
// all four fields are equal.
func (c FilterCriteria) Key() string {
	var b strings.Builder
	for _, v := range []string{c.Name, c.Category, c.Color, c.Brand} {
		// Length-prefixed so that separators inside values can't collide.
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte(';')
	}
	return b.String()
}

// Values encodes the non-empty fields as URL query parameters.
func (c FilterCriteria) Values() url.Values {
	v := url.Values{}
	for _, f := range FilterFields {
		if s := c.Get(f); s != "" {
			v.Set(string(f), s)
		}
	}
	return v
}

// FilterFromValues is the inverse of Values.
func FilterFromValues(v url.Values) FilterCriteria {
	return FilterCriteria{
		Name:     v.Get(string(FieldName)),
		Category: v.Get(string(FieldCategory)),
		Color:    v.Get(string(FieldColor)),
		Brand:    v.Get(string(FieldBrand)),
	}
}
