// Package docs registers the OpenAPI document served by the Swagger UI.
// Regenerate with `swag init -g cmd/api/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/healthchecker": {"get": {"tags": ["health"], "summary": "Database health check", "responses": {"200": {"description": "OK"}, "500": {"description": "Database unavailable"}}}},
        "/api/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "Created"}, "403": {"description": "Admin role requested while admin signup is disabled"}, "409": {"description": "Email or username already exists"}, "422": {"description": "Validation failed"}}}},
        "/api/auth/login": {"post": {"tags": ["auth"], "summary": "User login", "consumes": ["application/x-www-form-urlencoded"], "responses": {"200": {"description": "Bearer access token"}, "401": {"description": "Wrong credentials or email not verified"}}}},
        "/api/auth/confirmed_email/{token}": {"get": {"tags": ["auth"], "summary": "Confirm email address", "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown user"}, "422": {"description": "Invalid token"}}}},
        "/api/auth/request_email": {"post": {"tags": ["auth"], "summary": "Resend verification email", "responses": {"200": {"description": "OK"}}}},
        "/api/auth/reset_password": {"post": {"tags": ["auth"], "summary": "Request password reset", "responses": {"200": {"description": "OK"}, "400": {"description": "Email not verified"}}}},
        "/api/auth/confirm_reset_password/{token}": {"get": {"tags": ["auth"], "summary": "Confirm password reset", "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid or expired token"}, "404": {"description": "User not found"}}}},
        "/api/users/me": {"get": {"tags": ["users"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Not authenticated"}, "429": {"description": "Rate limit exceeded"}}}},
        "/api/users/avatar": {"patch": {"tags": ["users"], "summary": "Upload avatar", "security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "parameters": [{"name": "file", "in": "formData", "required": true, "type": "file"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Insufficient access rights"}}}},
        "/api/contacts": {
            "get": {"tags": ["contacts"], "summary": "List contacts", "security": [{"BearerAuth": []}], "parameters": [{"name": "name", "in": "query", "type": "string"}, {"name": "surname", "in": "query", "type": "string"}, {"name": "email", "in": "query", "type": "string"}, {"name": "skip", "in": "query", "type": "integer", "default": 0}, {"name": "limit", "in": "query", "type": "integer", "default": 100}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["contacts"], "summary": "Create contact", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Email or phone already used"}, "422": {"description": "Validation failed"}}}
        },
        "/api/contacts/birthdays": {"get": {"tags": ["contacts"], "summary": "Upcoming birthdays", "security": [{"BearerAuth": []}], "parameters": [{"name": "days", "in": "query", "type": "integer", "default": 7}], "responses": {"200": {"description": "OK"}}}},
        "/api/contacts/{contactID}": {
            "get": {"tags": ["contacts"], "summary": "Get contact", "security": [{"BearerAuth": []}], "parameters": [{"name": "contactID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Contact not found"}}},
            "put": {"tags": ["contacts"], "summary": "Update contact", "security": [{"BearerAuth": []}], "parameters": [{"name": "contactID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Contact not found"}}},
            "delete": {"tags": ["contacts"], "summary": "Delete contact", "security": [{"BearerAuth": []}], "parameters": [{"name": "contactID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Contact not found"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the access token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Contacts API",
	Description:      "Contact book REST API with email verification, password reset and per-user contacts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
