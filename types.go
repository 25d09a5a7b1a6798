package shopgraph

import "github.com/vektah/gqlparser/v2/gqlerror"

// graphQLResponse is the standard GraphQL response envelope.
type graphQLResponse struct {
	Data   map[string]interface{} `json:"data"`
	Errors gqlerror.List          `json:"errors"`
}

// MerchantConnection is the result of ConnectMerchant.
type MerchantConnection struct {
	Token string `json:"token"`
}
