package spapi

import "strings"

// Region is an SP-API regional deployment.
type Region string

const (
	RegionNorthAmerica Region = "na"
	RegionEurope       Region = "eu"
	RegionFarEast      Region = "fe"
)

var productionHosts = map[Region]string{
	RegionNorthAmerica: "https://sellingpartnerapi-na.amazon.com",
	RegionEurope:       "https://sellingpartnerapi-eu.amazon.com",
	RegionFarEast:      "https://sellingpartnerapi-fe.amazon.com",
}

var sandboxHosts = map[Region]string{
	RegionNorthAmerica: "https://sandbox.sellingpartnerapi-na.amazon.com",
	RegionEurope:       "https://sandbox.sellingpartnerapi-eu.amazon.com",
	RegionFarEast:      "https://sandbox.sellingpartnerapi-fe.amazon.com",
}

// Endpoint returns the base URL for region. Unknown regions use North America.
func Endpoint(region string, sandbox bool) string {
	r := Region(strings.ToLower(strings.TrimSpace(region)))
	hosts := productionHosts
	if sandbox {
		hosts = sandboxHosts
	}
	if host, ok := hosts[r]; ok {
		return host
	}
	return hosts[RegionNorthAmerica]
}
