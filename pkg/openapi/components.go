package openapi

import "maps"

// messageSchema is the {"message": "..."} error body.
var messageSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"message": {Type: "string", Description: "User-facing error message"},
	},
	Required: []string{"message"},
}

func messageResponse(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef("Message")},
		},
	}
}

// NewComponents creates Components with the shared message schema and the
// error responses of the relay and weather endpoints.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Message": messageSchema,
		},
		Responses: map[string]*Response{
			"BadRequest":         messageResponse("Invalid request"),
			"PayloadTooLarge":    messageResponse("Request body exceeds the configured limit"),
			"UpstreamFailure":    messageResponse("Prediction service failed; the X-Error-Category header names the cause"),
			"BadGateway":         messageResponse("Weather provider request failed"),
			"ServiceUnavailable": messageResponse("Weather provider is not configured"),
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
