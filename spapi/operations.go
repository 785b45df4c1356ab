package spapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Operation names one SP-API call.
type Operation struct {
	Name   string
	Method string
	// Path may contain {placeholders} filled from Params.Path
	Path string
}

var (
	GetMarketplaceParticipations = Operation{
		Name:   "getMarketplaceParticipations",
		Method: http.MethodGet,
		Path:   "/sellers/v1/marketplaceParticipations",
	}
	GetDefinitionsProductType = Operation{
		Name:   "getDefinitionsProductType",
		Method: http.MethodGet,
		Path:   "/definitions/2020-09-01/productTypes/{productType}",
	}
	GetListingsItem = Operation{
		Name:   "getListingsItem",
		Method: http.MethodGet,
		Path:   "/listings/2021-08-01/items/{sellerId}/{sku}",
	}
	PutListingsItem = Operation{
		Name:   "putListingsItem",
		Method: http.MethodPut,
		Path:   "/listings/2021-08-01/items/{sellerId}/{sku}",
	}
)

// Params are the per-call inputs of an Operation.
type Params struct {
	Path  map[string]string
	Query url.Values
	Body  any
}

func (o Operation) resolve(params Params) (string, error) {
	path := o.Path
	for k, v := range params.Path {
		path = strings.ReplaceAll(path, "{"+k+"}", url.PathEscape(v))
	}
	if strings.Contains(path, "{") {
		return "", fmt.Errorf("operation %s: unresolved path parameter in %s", o.Name, path)
	}
	if len(params.Query) > 0 {
		path += "?" + params.Query.Encode()
	}
	return path, nil
}
