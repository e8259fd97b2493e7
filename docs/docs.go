// Package docs registers the OpenAPI description served under /swagger.
// Regenerate from the handler annotations with `swag init -g cmd/server/main.go --v3.1`.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "servers": [{"url": "{{.BasePath}}"}],
    "components": {
        "securitySchemes": {
            "BearerAuth": {"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}
        },
        "schemas": {
            "Error": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "error": {
                        "type": "object",
                        "properties": {
                            "code": {"type": "string", "examples": ["overpayment"]},
                            "message": {"type": "string"},
                            "request_id": {"type": "string"},
                            "details": {"type": "array", "items": {"type": "object"}}
                        }
                    }
                }
            },
            "CustomerRequest": {
                "type": "object",
                "required": ["fullname"],
                "properties": {
                    "fullname": {"type": "string"},
                    "phone": {"type": "string"},
                    "email": {"type": "string"},
                    "address": {"type": "string"},
                    "credit_limit": {"type": "string", "examples": ["500.00"]}
                }
            },
            "RecordSaleRequest": {
                "type": "object",
                "required": ["customer_id", "total_amount"],
                "properties": {
                    "customer_id": {"type": "string", "format": "uuid"},
                    "total_amount": {"type": "string", "examples": ["120.50"]},
                    "sale_date": {"type": "string", "format": "date-time"},
                    "due_date": {"type": "string", "format": "date-time"}
                }
            },
            "RecordPaymentRequest": {
                "type": "object",
                "required": ["customer_id", "transaction_id", "amount", "payment_method"],
                "properties": {
                    "customer_id": {"type": "string", "format": "uuid"},
                    "transaction_id": {"type": "string", "format": "uuid"},
                    "amount": {"type": "string", "examples": ["40.00"]},
                    "payment_method": {"type": "string", "enum": ["Cash", "Bank Transfer", "POS", "Cheque", "Internal Transfer"]},
                    "proof": {"type": "string"},
                    "proof_kind": {"type": "string", "enum": ["reference", "receipt"]},
                    "payment_date": {"type": "string", "format": "date-time"}
                }
            }
        },
        "responses": {
            "Error": {
                "description": "Error envelope",
                "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Error"}}}
            }
        }
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/customers": {
            "get": {"operationId": "listCustomers", "tags": ["customers"], "summary": "List customers",
                "parameters": [
                    {"name": "search", "in": "query", "schema": {"type": "string"}},
                    {"name": "with_balance", "in": "query", "schema": {"type": "boolean"}},
                    {"name": "page", "in": "query", "schema": {"type": "integer", "default": 1}},
                    {"name": "page_size", "in": "query", "schema": {"type": "integer", "default": 20, "maximum": 100}}
                ],
                "responses": {"200": {"description": "Paged customers"}, "400": {"$ref": "#/components/responses/Error"}}},
            "post": {"operationId": "createCustomer", "tags": ["customers"], "summary": "Create a customer",
                "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/CustomerRequest"}}}},
                "responses": {"201": {"description": "Created customer"}, "400": {"$ref": "#/components/responses/Error"}, "403": {"$ref": "#/components/responses/Error"}}}
        },
        "/customers/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
            "get": {"operationId": "getCustomer", "tags": ["customers"], "summary": "Get a customer",
                "responses": {"200": {"description": "Customer"}, "404": {"$ref": "#/components/responses/Error"}}},
            "put": {"operationId": "updateCustomer", "tags": ["customers"], "summary": "Update a customer",
                "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/CustomerRequest"}}}},
                "responses": {"200": {"description": "Updated customer"}, "404": {"$ref": "#/components/responses/Error"}, "409": {"$ref": "#/components/responses/Error"}}}
        },
        "/customers/{id}/ledger": {
            "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
            "get": {"operationId": "getCustomerLedger", "tags": ["customers"], "summary": "Balance, due date and overdue flag derived from the customer's sales",
                "responses": {"200": {"description": "Ledger"}, "404": {"$ref": "#/components/responses/Error"}}}
        },
        "/customers/{id}/sales": {
            "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
            "get": {"operationId": "listCustomerSales", "tags": ["sales"], "summary": "List a customer's sales",
                "responses": {"200": {"description": "Sales"}}}
        },
        "/customers/{id}/outstanding-sales": {
            "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
            "get": {"operationId": "listOutstandingSales", "tags": ["sales"], "summary": "Sales a payment can be applied to",
                "responses": {"200": {"description": "Outstanding sales"}, "404": {"$ref": "#/components/responses/Error"}}}
        },
        "/customers/{id}/payments": {
            "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
            "get": {"operationId": "listCustomerPayments", "tags": ["payments"], "summary": "List a customer's payments",
                "responses": {"200": {"description": "Payments"}, "404": {"$ref": "#/components/responses/Error"}}}
        },
        "/sales": {
            "post": {"operationId": "recordCreditSale", "tags": ["sales"], "summary": "Record a credit sale",
                "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/RecordSaleRequest"}}}},
                "responses": {"201": {"description": "Sale"}, "400": {"$ref": "#/components/responses/Error"}, "404": {"$ref": "#/components/responses/Error"}}}
        },
        "/sales/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
            "get": {"operationId": "getSale", "tags": ["sales"], "summary": "Get a sale with its payment totals",
                "responses": {"200": {"description": "Sale"}, "404": {"$ref": "#/components/responses/Error"}}}
        },
        "/sales/{id}/cancel": {
            "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
            "post": {"operationId": "cancelSale", "tags": ["sales"], "summary": "Cancel a sale without payments",
                "responses": {"200": {"description": "Cancelled sale"}, "422": {"$ref": "#/components/responses/Error"}}}
        },
        "/payments": {
            "get": {"operationId": "listPayments", "tags": ["payments"], "summary": "Payment history",
                "parameters": [
                    {"name": "customer_id", "in": "query", "schema": {"type": "string", "format": "uuid"}},
                    {"name": "transaction_id", "in": "query", "schema": {"type": "string", "format": "uuid"}},
                    {"name": "start_date", "in": "query", "schema": {"type": "string"}},
                    {"name": "end_date", "in": "query", "schema": {"type": "string"}},
                    {"name": "payment_method", "in": "query", "schema": {"type": "string"}},
                    {"name": "sort_by", "in": "query", "schema": {"type": "string", "enum": ["id", "payment_date", "customer_name", "transaction_id", "amount"]}},
                    {"name": "sort_order", "in": "query", "schema": {"type": "string", "enum": ["asc", "desc"]}},
                    {"name": "page", "in": "query", "schema": {"type": "integer", "default": 1}},
                    {"name": "page_size", "in": "query", "schema": {"type": "integer", "default": 20, "maximum": 100}}
                ],
                "responses": {"200": {"description": "Paged payments"}, "400": {"$ref": "#/components/responses/Error"}}},
            "post": {"operationId": "recordPayment", "tags": ["payments"], "summary": "Record a payment against a credit sale",
                "requestBody": {"required": true, "content": {
                    "application/json": {"schema": {"$ref": "#/components/schemas/RecordPaymentRequest"}},
                    "multipart/form-data": {"schema": {"allOf": [
                        {"$ref": "#/components/schemas/RecordPaymentRequest"},
                        {"type": "object", "properties": {"receipt": {"type": "string", "format": "binary"}}}
                    ]}}
                }},
                "responses": {
                    "201": {"description": "Payment, updated sale and customer ledger"},
                    "400": {"$ref": "#/components/responses/Error"},
                    "404": {"$ref": "#/components/responses/Error"},
                    "409": {"$ref": "#/components/responses/Error"},
                    "422": {"$ref": "#/components/responses/Error"},
                    "429": {"$ref": "#/components/responses/Error"},
                    "502": {"$ref": "#/components/responses/Error"}
                }}
        },
        "/receipts": {
            "post": {"operationId": "uploadReceipt", "tags": ["receipts"], "summary": "Upload a receipt",
                "requestBody": {"required": true, "content": {"multipart/form-data": {"schema": {"type": "object", "properties": {"file": {"type": "string", "format": "binary"}}}}}},
                "responses": {"201": {"description": "Stored receipt"}, "400": {"$ref": "#/components/responses/Error"}, "502": {"$ref": "#/components/responses/Error"}}}
        },
        "/system/info": {
            "get": {"operationId": "getSystemInfo", "tags": ["system"], "summary": "Service version and uptime", "security": [],
                "responses": {"200": {"description": "System info"}}}
        },
        "/system/outbox/dead": {
            "get": {"operationId": "getOutboxDeadLetterEntries", "tags": ["outbox"], "summary": "List dead letter entries",
                "responses": {"200": {"description": "Paged entries"}, "403": {"$ref": "#/components/responses/Error"}}}
        },
        "/system/outbox/dead/retry": {
            "post": {"operationId": "retryAllOutboxDeadEntries", "tags": ["outbox"], "summary": "Retry every dead letter entry",
                "responses": {"200": {"description": "Number of entries requeued"}, "403": {"$ref": "#/components/responses/Error"}}}
        },
        "/system/outbox/stats": {
            "get": {"operationId": "getOutboxStats", "tags": ["outbox"], "summary": "Outbox statistics",
                "responses": {"200": {"description": "Counts by status"}, "403": {"$ref": "#/components/responses/Error"}}}
        },
        "/system/outbox/entries/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
            "get": {"operationId": "getOutboxEntry", "tags": ["outbox"], "summary": "Get an outbox entry",
                "responses": {"200": {"description": "Entry"}, "404": {"$ref": "#/components/responses/Error"}}}
        },
        "/system/outbox/entries/{id}/retry": {
            "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
            "post": {"operationId": "retryOutboxDeadEntry", "tags": ["outbox"], "summary": "Retry a dead letter entry",
                "responses": {"200": {"description": "Requeued entry"}, "422": {"$ref": "#/components/responses/Error"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Bakery Ledger API",
	Description:      "Customer credit and payment ledger for the bakery point of sale",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
