// Package record defines the structured result of extracting one SCP page.
package record

import (
	"strconv"
	"strings"
)

// Image is the optional main image of a page. Src and Caption are resolved
// independently and either may be nil.
type Image struct {
	Src     *string `json:"src"`
	Caption *string `json:"caption"`
}

// Record is the structured content of a single SCP page.
type Record struct {
	ID         int               `json:"id"`
	Rating     int               `json:"rating"`
	Image      Image             `json:"image"`
	Content    map[string]string `json:"content"`
	Revision   int               `json:"revision"`
	LastEdited int64             `json:"last_edited"`
	Tags       []string          `json:"tags"`
	Discussion string            `json:"discussion"`
	Name       *string           `json:"name,omitempty"`
}

const (
	// Placeholder replaces the padded identifier in dataset output.
	Placeholder = "XXXX"
	// AccessDenied marks series entries that are listed but not public yet.
	AccessDenied = "[ACCESS DENIED]"
)

// PadID renders an identifier the way the wiki names its pages: values below
// 100 are zero-padded to three digits.
func PadID(id int) string {
	if id >= 0 && id < 100 {
		return strconv.Itoa(1000 + id)[1:]
	}
	return strconv.Itoa(id)
}

// HasAnyTag reports whether the record carries at least one of the given tags.
// An empty allow-list matches every record.
func (r *Record) HasAnyTag(allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, want := range allow {
		for _, t := range r.Tags {
			if t == want {
				return true
			}
		}
	}
	return false
}

// Redacted returns a copy of the record with every occurrence of the padded
// identifier in section text and name replaced by Placeholder. Labels are
// kept as-is so distinct sections never collapse onto one key.
func (r *Record) Redacted() *Record {
	out := *r
	token := PadID(r.ID)
	out.Content = make(map[string]string, len(r.Content))
	for k, v := range r.Content {
		out.Content[k] = strings.ReplaceAll(v, token, Placeholder)
	}
	if r.Name != nil {
		n := strings.ReplaceAll(*r.Name, token, Placeholder)
		out.Name = &n
	}
	out.Tags = append([]string(nil), r.Tags...)
	return &out
}
