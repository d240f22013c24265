package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SSP Workflow API",
        "description": "Scholarship application lifecycle and disbursement engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Applications", "description": "Application views and audit ledger"},
        {"name": "Institute", "description": "Stage-1 institute review"},
        {"name": "Department", "description": "Stage-2 department decision and finance hand-off"},
        {"name": "Finance", "description": "Amount calculation and disbursement processing"}
    ],
    "paths": {
        "/applications/{id}": {
            "get": {
                "tags": ["Applications"],
                "summary": "Get application detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/applications/{id}/decisions": {
            "get": {
                "tags": ["Applications"],
                "summary": "List the decision ledger for an application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{id}/review": {
            "post": {
                "tags": ["Institute"],
                "summary": "Apply an institute review action",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InstituteReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition or already processed"}
                }
            }
        },
        "/applications/bulk-review": {
            "patch": {
                "tags": ["Institute"],
                "summary": "Apply one institute action to many applications",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkInstituteReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-item batch report", "schema": {"$ref": "#/definitions/BatchResult"}}
                }
            }
        },
        "/applications/{id}/department-review": {
            "post": {
                "tags": ["Department"],
                "summary": "Record the department decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DepartmentReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already processed"},
                    "412": {"description": "Not eligible"}
                }
            }
        },
        "/applications/forward-to-finance": {
            "post": {
                "tags": ["Department"],
                "summary": "Forward department-approved applications to finance",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ForwardRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-item batch report", "schema": {"$ref": "#/definitions/BatchResult"}}
                }
            }
        },
        "/applications/{id}/calculate": {
            "post": {
                "tags": ["Finance"],
                "summary": "Calculate the scholarship amount for an application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalculateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Deterministic calculation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{id}/disbursements": {
            "post": {
                "tags": ["Finance"],
                "summary": "Create a disbursement for a forwarded application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDisbursementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already disbursed"},
                    "412": {"description": "Not eligible"}
                }
            },
            "get": {
                "tags": ["Finance"],
                "summary": "Get the live disbursement for an application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/disbursements/{id}/transfer": {
            "post": {
                "tags": ["Finance"],
                "summary": "Execute (or manually retry) the funds transfer",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ExecuteTransferRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Incomplete bank details"},
                    "502": {"description": "Transfer failed"}
                }
            }
        },
        "/disbursements/bulk": {
            "post": {
                "tags": ["Finance"],
                "summary": "Create and transfer disbursements for a batch of applications",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkDisbursementRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-item batch report", "schema": {"$ref": "#/definitions/BatchResult"}}
                }
            }
        }
    },
    "definitions": {
        "InstituteReviewRequest": {
            "type": "object",
            "required": ["action", "remarks"],
            "properties": {
                "action": {"type": "string", "enum": ["approve", "reject", "request_documents", "hold"]},
                "remarks": {"type": "string"},
                "approvedAmount": {"type": "string"}
            }
        },
        "BulkInstituteReviewRequest": {
            "type": "object",
            "required": ["applicationIds", "action", "remarks"],
            "properties": {
                "applicationIds": {"type": "array", "items": {"type": "string"}},
                "action": {"type": "string"},
                "remarks": {"type": "string"},
                "approvedAmount": {"type": "string"}
            }
        },
        "DepartmentReviewRequest": {
            "type": "object",
            "required": ["action", "remarks"],
            "properties": {
                "action": {"type": "string", "enum": ["dept_approve", "dept_reject"]},
                "remarks": {"type": "string"},
                "finalAmount": {"type": "string"}
            }
        },
        "ForwardRequest": {
            "type": "object",
            "required": ["applicationIds"],
            "properties": {
                "applicationIds": {"type": "array", "items": {"type": "string"}},
                "remarks": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "urgent"]}
            }
        },
        "CalculateRequest": {
            "type": "object",
            "required": ["strategy"],
            "properties": {
                "strategy": {"type": "string", "enum": ["standard", "need_based", "merit_based", "government_scheme", "custom"]},
                "customFactors": {"type": "object"}
            }
        },
        "CreateDisbursementRequest": {
            "type": "object",
            "required": ["method"],
            "properties": {
                "method": {"type": "string", "enum": ["bank_transfer", "cheque", "cash", "fee_adjustment"]},
                "remarks": {"type": "string"}
            }
        },
        "BulkDisbursementRequest": {
            "type": "object",
            "required": ["applicationIds", "method"],
            "properties": {
                "applicationIds": {"type": "array", "items": {"type": "string"}},
                "method": {"type": "string"},
                "remarks": {"type": "string"}
            }
        },
        "ExecuteTransferRequest": {
            "type": "object",
            "properties": {
                "batchId": {"type": "string"}
            }
        },
        "BatchResult": {
            "type": "object",
            "properties": {
                "batchId": {"type": "string"},
                "processed": {"type": "integer"},
                "failed": {"type": "integer"},
                "totalAmount": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/BatchItem"}}
            }
        },
        "BatchItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["success", "failed"]},
                "errorCode": {"type": "string"},
                "message": {"type": "string"},
                "amount": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
