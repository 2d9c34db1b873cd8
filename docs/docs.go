// Package docs registers the OpenAPI document served under /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/users.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Authenticate a user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/send-reset-otp": {
            "post": {
                "tags": ["auth"],
                "summary": "Request a password reset code",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.SendResetOTPRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/reset-password-otp": {
            "post": {
                "tags": ["auth"],
                "summary": "Reset password with a code",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.ResetPasswordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["users"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/{id}": {
            "get": {
                "tags": ["users"],
                "summary": "Get a profile",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.UserResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/update/{id}": {
            "put": {
                "security": [{"Bearer": []}],
                "tags": ["users"],
                "summary": "Update a profile",
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/users.UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/upload/{id}": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["users"],
                "summary": "Add a section",
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/users.AddSectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/section/{userId}/{sectionId}": {
            "delete": {
                "security": [{"Bearer": []}],
                "tags": ["users"],
                "summary": "Delete a section",
                "parameters": [
                    {"in": "path", "name": "userId", "type": "string", "required": true},
                    {"in": "path", "name": "sectionId", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.UserResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/like/{id}": {
            "put": {
                "security": [{"Bearer": []}],
                "tags": ["users"],
                "summary": "Toggle like",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/liked": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["users"],
                "summary": "Liked profiles",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/users.LikedUser"}}}
                }
            }
        },
        "/search": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["users"],
                "summary": "Search profiles",
                "parameters": [
                    {"in": "query", "name": "profession", "type": "string"},
                    {"in": "query", "name": "minFee", "type": "number"},
                    {"in": "query", "name": "maxFee", "type": "number"},
                    {"in": "query", "name": "locationFilter", "type": "string", "enum": ["same-city", "same-country", "different-country"]},
                    {"in": "query", "name": "likesSort", "type": "string", "enum": ["highest", "lowest"]},
                    {"in": "query", "name": "accountAgeSort", "type": "string", "enum": ["new", "old"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.SearchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/suggest": {
            "post": {
                "tags": ["users"],
                "summary": "Suggest professions and names",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/users.SuggestRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.SuggestResponse"}}
                }
            }
        },
        "/upload-url": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["media"],
                "summary": "Presigned upload URL",
                "parameters": [
                    {"in": "query", "name": "filename", "type": "string", "required": true},
                    {"in": "query", "name": "contentType", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/media.PresignResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/upload-file": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/octet-stream", "multipart/form-data"],
                "tags": ["media"],
                "summary": "Upload a file",
                "parameters": [
                    {"in": "query", "name": "filename", "type": "string"},
                    {"in": "query", "name": "contentType", "type": "string"},
                    {"in": "formData", "name": "file", "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/media.UploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "413": {"description": "Payload Too Large", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/image": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["media"],
                "summary": "Fetch an uploaded object",
                "parameters": [{"in": "query", "name": "key", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        }
    },
    "definitions": {
        "httperr.E": {"type": "object", "properties": {"error": {"type": "string", "example": "Bad Request"}}},
        "auth.RegisterRequest": {"type": "object", "required": ["name", "email", "password"], "properties": {"name": {"type": "string", "example": "alice"}, "email": {"type": "string", "example": "alice@example.com"}, "password": {"type": "string", "minLength": 6}}},
        "auth.LoginRequest": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "auth.LoginResponse": {"type": "object", "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/users.User"}}},
        "auth.SendResetOTPRequest": {"type": "object", "required": ["email"], "properties": {"email": {"type": "string"}}},
        "auth.ResetPasswordRequest": {"type": "object", "required": ["email", "otp", "newPassword"], "properties": {"email": {"type": "string"}, "otp": {"type": "string", "example": "042917"}, "newPassword": {"type": "string"}}},
        "auth.MessageResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
        "users.Section": {"type": "object", "properties": {"_id": {"type": "string"}, "title": {"type": "string"}, "description": {"type": "string"}, "images": {"type": "array", "items": {"type": "string"}}, "videos": {"type": "array", "items": {"type": "string"}}}},
        "users.User": {"type": "object", "properties": {"_id": {"type": "string"}, "name": {"type": "string"}, "email": {"type": "string"}, "profession": {"type": "string"}, "bio": {"type": "string"}, "location": {"type": "string"}, "city": {"type": "string"}, "country": {"type": "string"}, "timing": {"type": "string"}, "fee": {"type": "number"}, "contact": {"type": "string"}, "profilePic": {"type": "string"}, "sections": {"type": "array", "items": {"$ref": "#/definitions/users.Section"}}, "likes": {"type": "integer"}, "likedUsers": {"type": "array", "items": {"type": "string"}}, "createdAt": {"type": "string"}, "updatedAt": {"type": "string"}}},
        "users.UserResponse": {"type": "object", "properties": {"message": {"type": "string"}, "user": {"$ref": "#/definitions/users.User"}}},
        "users.UpdateProfileRequest": {"type": "object", "properties": {"name": {"type": "string"}, "profession": {"type": "string"}, "bio": {"type": "string"}, "location": {"type": "string"}, "city": {"type": "string"}, "country": {"type": "string"}, "timing": {"type": "string"}, "contact": {"type": "string"}, "fee": {"type": "number"}, "profilePicUrl": {"type": "string"}, "removeProfilePic": {"type": "boolean"}}},
        "users.AddSectionRequest": {"type": "object", "required": ["title"], "properties": {"title": {"type": "string"}, "description": {"type": "string"}, "images": {"type": "array", "maxItems": 4, "items": {"type": "string"}}, "videos": {"type": "array", "maxItems": 4, "items": {"type": "string"}}}},
        "users.LikedUser": {"type": "object", "properties": {"_id": {"type": "string"}, "name": {"type": "string"}, "profilePic": {"type": "string"}, "profession": {"type": "string"}}},
        "users.SearchResponse": {"type": "object", "properties": {"users": {"type": "array", "items": {"$ref": "#/definitions/users.User"}}}},
        "users.SuggestRequest": {"type": "object", "properties": {"query": {"type": "string"}}},
        "users.Suggestion": {"type": "object", "properties": {"type": {"type": "string"}, "value": {"type": "string"}}},
        "users.SuggestResponse": {"type": "object", "properties": {"suggestions": {"type": "array", "items": {"$ref": "#/definitions/users.Suggestion"}}}},
        "media.PresignResponse": {"type": "object", "properties": {"url": {"type": "string"}, "key": {"type": "string"}, "publicUrl": {"type": "string"}}},
        "media.UploadResponse": {"type": "object", "properties": {"key": {"type": "string"}, "publicUrl": {"type": "string"}}}
    },
    "securityDefinitions": {
        "Bearer": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/user",
	Schemes:          []string{"http", "https"},
	Title:            "Skillmart API",
	Description:      "Service marketplace: provider profiles, work samples, likes and search.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
