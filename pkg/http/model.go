package http

// ErrorBody is the JSON shape of every 4xx/5xx response.
type ErrorBody struct {
	Error   string `json:"error" example:"Bad Request"`
	Message string `json:"message" example:"region must be one of: US, EMEA, ALL"`
}
