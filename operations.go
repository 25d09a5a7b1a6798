package shopgraph

import (
	"context"
	"fmt"
)

var (
	orderFields    = []string{"id"}
	customerFields = []string{"id"}
	countryFields  = []string{"id", "name", "codeIso2", "codeIso3"}
	zoneFields     = []string{"id", "name", "code"}
)

const (
	createOrderMutation = `mutation CreateOrder($orderInput: OrderInput!) {
	createOrder(input: $orderInput) {
		status
		%s
	}
}`
	createCustomerMutation = `mutation CreateCustomer($customerInput: CustomerInput!) {
	createCustomer(input: $customerInput) {
		status
		customer {
			%s
		}
	}
}`
	connectMerchantMutation = `mutation ConnectMerchant($baseUrl: String!, $vendor: String!) {
	connectMerchant(baseUrl: $baseUrl, vendor: $vendor) {
		status
		token
	}
}`
	countriesQuery = `query Countries {
	countries {
		%s
	}
}`
	zonesQuery = `query Zones($countryId: ID!) {
	zones(countryId: $countryId) {
		%s
	}
}`
)

// CreateOrder creates an order from params and returns the fields selected
// on it: id plus extraFields. An order without an id is reported as a
// *DomainError carrying the API status.
func (c *Client) CreateOrder(ctx context.Context, params map[string]interface{}, extraFields ...string) (map[string]interface{}, error) {
	const op = "createOrder"
	fields, err := NewFieldList(orderFields, extraFields...)
	if err != nil {
		c.metrics.ObserveInvalidArgument(op)
		return nil, err
	}
	data, err := c.execute(ctx, op, fmt.Sprintf(createOrderMutation, fields.Selection()),
		map[string]interface{}{"orderInput": params})
	if err != nil {
		return nil, err
	}
	payload, err := selectObject(data, op)
	if err != nil {
		return nil, err
	}
	if payload["id"] == nil {
		return nil, c.domainError(op, payload)
	}
	return toMapping(payload), nil
}

// CreateCustomer creates a customer from params and returns the customer
// object with id plus extraFields selected.
func (c *Client) CreateCustomer(ctx context.Context, params map[string]interface{}, extraFields ...string) (map[string]interface{}, error) {
	const op = "createCustomer"
	fields, err := NewFieldList(customerFields, extraFields...)
	if err != nil {
		c.metrics.ObserveInvalidArgument(op)
		return nil, err
	}
	data, err := c.execute(ctx, op, fmt.Sprintf(createCustomerMutation, fields.Selection()),
		map[string]interface{}{"customerInput": params})
	if err != nil {
		return nil, err
	}
	payload, err := selectObject(data, op)
	if err != nil {
		return nil, err
	}
	if payload["customer"] == nil {
		return nil, c.domainError(op, payload)
	}
	customer, ok := payload["customer"].(map[string]interface{})
	if !ok {
		return nil, unexpectedResponse(op + ".customer")
	}
	return toMapping(customer), nil
}

// ConnectMerchant links the merchant store at baseURL, run by vendor, and
// returns the issued token.
func (c *Client) ConnectMerchant(ctx context.Context, baseURL, vendor string) (*MerchantConnection, error) {
	const op = "connectMerchant"
	data, err := c.execute(ctx, op, connectMerchantMutation, map[string]interface{}{
		"baseUrl": baseURL,
		"vendor":  vendor,
	})
	if err != nil {
		return nil, err
	}
	payload, err := selectObject(data, op)
	if err != nil {
		return nil, err
	}
	if payload["token"] == nil {
		return nil, c.domainError(op, payload)
	}
	token, ok := payload["token"].(string)
	if !ok {
		return nil, unexpectedResponse(op + ".token")
	}
	return &MerchantConnection{Token: token}, nil
}

// GetCountries returns data.countries as sent by the API.
func (c *Client) GetCountries(ctx context.Context, extraFields ...string) ([]interface{}, error) {
	const op = "countries"
	fields, err := NewFieldList(countryFields, extraFields...)
	if err != nil {
		c.metrics.ObserveInvalidArgument(op)
		return nil, err
	}
	data, err := c.execute(ctx, op, fmt.Sprintf(countriesQuery, fields.Selection()), nil)
	if err != nil {
		return nil, err
	}
	return selectList(data, op)
}

// GetZones returns data.zones for countryID as sent by the API.
func (c *Client) GetZones(ctx context.Context, countryID string, extraFields ...string) ([]interface{}, error) {
	const op = "zones"
	fields, err := NewFieldList(zoneFields, extraFields...)
	if err != nil {
		c.metrics.ObserveInvalidArgument(op)
		return nil, err
	}
	data, err := c.execute(ctx, op, fmt.Sprintf(zonesQuery, fields.Selection()),
		map[string]interface{}{"countryId": countryID})
	if err != nil {
		return nil, err
	}
	return selectList(data, op)
}

func (c *Client) domainError(op string, payload map[string]interface{}) error {
	c.metrics.ObserveDomainFailure(op)
	status, _ := payload["status"].(string)
	return &DomainError{Operation: op, Status: status}
}

func selectObject(data map[string]interface{}, key string) (map[string]interface{}, error) {
	obj, ok := data[key].(map[string]interface{})
	if !ok {
		return nil, unexpectedResponse(key)
	}
	return obj, nil
}

func selectList(data map[string]interface{}, key string) ([]interface{}, error) {
	list, ok := data[key].([]interface{})
	if !ok {
		return nil, unexpectedResponse(key)
	}
	return list, nil
}

func unexpectedResponse(path string) error {
	return &RequestError{Message: fmt.Sprintf("unexpected response from API: data.%s is missing or has the wrong type", path)}
}

// toMapping copies the top level of obj. Nested objects and lists are shared,
// not copied or flattened.
func toMapping(obj map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out
}
