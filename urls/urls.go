// Package urls resolves the request targets of the remote data service.
// Identifiers and ranges are inserted as given; callers are responsible for
// passing well formed values.
package urls

import (
	"fmt"
	"net/url"

	"github.com/goliatone/go-formflow/coerce"
)

// Requirement narrows an options request to rows matching a dependency value.
type Requirement struct {
	Requires     string
	RequireValue any
}

// SchemaURL targets the schema document of form id.
func SchemaURL(id string) string {
	return fmt.Sprintf("/api/%s/schema", id)
}

// OptionsURL targets the option list stored at range. Without a requirement
// key no query string is added.
func OptionsURL(id, rng string, req Requirement) string {
	base := fmt.Sprintf("/api/%s/sheet/%s", id, rng)
	if req.Requires == "" {
		return base
	}
	qs := url.Values{req.Requires: []string{coerce.Format(req.RequireValue)}}
	return base + "?" + qs.Encode()
}

// LoadIndexURL targets the existing record keyed by the composite index value.
func LoadIndexURL(id, index string) string {
	qs := url.Values{"index": []string{index}}
	return fmt.Sprintf("/api/%s/current?%s", id, qs.Encode())
}

// SubmitURL targets the primary entry range, or rng when given.
func SubmitURL(id, rng string) string {
	base := fmt.Sprintf("/api/%s/entry", id)
	if rng == "" {
		return base
	}
	qs := url.Values{"range": []string{rng}}
	return base + "?" + qs.Encode()
}
