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
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/httpserver.loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpserver.tokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpserver.errorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Get Current User",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/view.UserSummary"}}}
            }
        },
        "/chat/conversations": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["chat"],
                "summary": "Start a conversation",
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/httpserver.conversationCreateRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/view.Conversation"}}}
            }
        },
        "/chat/conversations/{conversationID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["chat"],
                "summary": "Get a conversation",
                "parameters": [{"type": "integer", "name": "conversationID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/view.Conversation"}}}
            }
        },
        "/chat/conversation/{conversationID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["chat"],
                "summary": "List messages of a conversation",
                "parameters": [{"type": "integer", "name": "conversationID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/view.Message"}}}}
            }
        },
        "/chat/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["chat"],
                "summary": "List my conversations",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/view.Conversation"}}}}
            }
        },
        "/chat/send": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["chat"],
                "summary": "Send a text message",
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/httpserver.sendMessageRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/view.Message"}}}
            }
        },
        "/chat/send-media": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["chat"],
                "summary": "Send media",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"type": "integer", "name": "conversationId", "in": "formData", "required": true},
                    {"type": "file", "name": "mediaFiles", "in": "formData", "required": true}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/view.Message"}}}
            }
        },
        "/chat/react": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["chat"],
                "summary": "Toggle a reaction on a message",
                "parameters": [
                    {"type": "integer", "name": "messageId", "in": "query", "required": true},
                    {"type": "string", "name": "type", "in": "query", "required": true, "enum": ["LIKE", "LOVE", "HAHA", "WOW", "SAD", "ANGRY"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/view.Message"}}}
            }
        },
        "/chat/{messageID}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["chat"],
                "summary": "Delete a message",
                "parameters": [{"type": "integer", "name": "messageID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/notifications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["notifications"],
                "summary": "List my notifications",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/view.Notification"}}}}
            }
        },
        "/posts/{postID}/react": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["posts"],
                "summary": "Toggle a like on a post",
                "parameters": [{"type": "integer", "name": "postID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/view.PostReactions"}}}
            }
        }
    },
    "definitions": {
        "httpserver.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}}
        },
        "httpserver.loginRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "httpserver.tokenResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "tokenType": {"type": "string"},
                "expiresAt": {"type": "string"},
                "user": {"$ref": "#/definitions/view.UserSummary"}
            }
        },
        "httpserver.conversationCreateRequest": {
            "type": "object",
            "properties": {"participantIds": {"type": "array", "items": {"type": "integer"}}, "isGroup": {"type": "boolean"}}
        },
        "httpserver.sendMessageRequest": {
            "type": "object",
            "properties": {"conversationId": {"type": "integer"}, "content": {"type": "string"}}
        },
        "view.UserSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "fullName": {"type": "string"},
                "avatarUrl": {"type": "string"}
            }
        },
        "view.Reaction": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "userId": {"type": "integer"},
                "username": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "view.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "conversationId": {"type": "integer"},
                "sender": {"$ref": "#/definitions/view.UserSummary"},
                "content": {"type": "string"},
                "mediaUrls": {"type": "array", "items": {"type": "string"}},
                "reactions": {"type": "array", "items": {"$ref": "#/definitions/view.Reaction"}},
                "createdAt": {"type": "string"}
            }
        },
        "view.Conversation": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "createdAt": {"type": "string"},
                "isGroup": {"type": "boolean"},
                "participants": {"type": "array", "items": {"$ref": "#/definitions/view.UserSummary"}},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/view.Message"}}
            }
        },
        "view.Notification": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "message": {"type": "string"},
                "isRead": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "sender": {"$ref": "#/definitions/view.UserSummary"},
                "conversationId": {"type": "integer"}
            }
        },
        "view.PostReactions": {
            "type": "object",
            "properties": {
                "outcome": {"type": "string"},
                "reacted": {"type": "boolean"},
                "totalReactions": {"type": "integer"},
                "reactions": {"type": "array", "items": {"$ref": "#/definitions/view.Reaction"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "chatcore API",
	Description:      "Conversations, reactions and notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
