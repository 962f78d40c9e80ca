package openapi

import "maps"

func errorResponse(description string) *Response {
	return ResponseJSON(description, &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"error": {Type: "string", Description: "Error message"},
		},
	})
}

// NewComponents creates Components with the shared pagination schemas,
// error responses, and the bearer security scheme.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":     {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"pageSize": {Type: "integer", Description: "Results per page", Example: 20},
					"search":   {Type: "string", Description: "Search query"},
					"sort":     {Type: "string", Description: "Comma-separated sort fields, - prefix for descending"},
				},
			},
			"CursorRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"cursor":   {Type: "string", Description: "Opaque position returned as nextCursor by the previous page"},
					"pageSize": {Type: "integer", Description: "Results per page; 0 selects the default, values above the cap are rejected", Example: 12},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":      errorResponse("Invalid request"),
			"Unauthorized":    errorResponse("Missing or invalid bearer token"),
			"Forbidden":       errorResponse("Caller may not act on this resource"),
			"NotFound":        errorResponse("Resource not found"),
			"Conflict":        errorResponse("Resource conflict"),
			"PayloadTooLarge": errorResponse("Upload exceeds the size limit"),
			"TooManyRequests": errorResponse("Rate limit exceeded"),
			"BadGateway":      errorResponse("Upstream model call failed"),
		},
		SecuritySchemes: map[string]*SecurityScheme{
			"bearerAuth": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
