package catalog

import (
	"strings"

	"github.com/kyleking/cas-sdss-mcp/internal/errors"
)

const identifierSeparator = "."

// TableIdentifier is a qualified "<database>.<table>" name.
type TableIdentifier struct {
	Catalog string
	Table   string
}

func (id TableIdentifier) String() string {
	return id.Catalog + identifierSeparator + id.Table
}

// ParseTableIdentifier splits raw into its database and table parts. Exactly
// one separator is accepted; the parts are returned verbatim, empty parts
// included. Any other shape is an ErrTypeFormat error.
func ParseTableIdentifier(raw string) (TableIdentifier, error) {
	parts := strings.Split(raw, identifierSeparator)
	if len(parts) != 2 {
		return TableIdentifier{}, errors.Newf(
			errors.ErrTypeFormat,
			"Table name '%s' is not in the correct format. Use [Database].[Table].",
			raw,
		)
	}

	return TableIdentifier{Catalog: parts[0], Table: parts[1]}, nil
}
