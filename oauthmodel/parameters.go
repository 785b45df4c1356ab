package oauthmodel

import "net/url"

// AuthorizationParameters are received at the login initiation endpoint.
type AuthorizationParameters struct {
	// SellerID identifies the selling partner starting the consent flow.
	// Required: Yes
	// Example: "A2EUQ1WTGCTBG2"
	SellerID string

	// RedirectURI is where the user should land after a successful login.
	// Required: No (defaults to the configured post-login path)
	// Example: "/amazon-listing?tab=drafts" or a full URL on the same site
	// Only the path and query survive; scheme and host are discarded on return
	RedirectURI string
}

// ParseAuthorizationParameters reads the login initiation query/form values.
func ParseAuthorizationParameters(values url.Values) AuthorizationParameters {
	return AuthorizationParameters{
		SellerID:    values.Get("seller_id"),
		RedirectURI: values.Get("redirect_uri"),
	}
}

// CallbackParameters are received on the provider redirect back to the application.
type CallbackParameters struct {
	// State is the signed StateToken issued at initiation, or an arbitrary
	// value when Seller Central starts the flow itself.
	State string

	// Code is the one-time authorization code.
	// Seller Central sends spapi_oauth_code; plain Login with Amazon sends code.
	// spapi_oauth_code wins when both are present
	Code string

	// SellingPartnerID is the provider-assigned partner identifier.
	// Required: No
	SellingPartnerID string

	// Error and ErrorDescription are set when the provider reports a failure.
	// Example: error=access_denied&error_description=User+cancelled
	Error            string
	ErrorDescription string
}

// ParseCallbackParameters reads the callback query/form values.
func ParseCallbackParameters(values url.Values) CallbackParameters {
	code := values.Get("spapi_oauth_code")
	if code == "" {
		code = values.Get("code")
	}
	return CallbackParameters{
		State:            values.Get("state"),
		Code:             code,
		SellingPartnerID: values.Get("selling_partner_id"),
		Error:            values.Get("error"),
		ErrorDescription: values.Get("error_description"),
	}
}
