package config

// Schema is the JSON schema for validating configuration files.
// It checks structure and types only; required fields and cross-entry
// rules are enforced by Load so errors can name the offending entry.
const Schema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "definitions": {
        "database": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "database_name": {"type": "string"},
                "url": {"type": "string"},
                "container_name": {"type": "string"},
                "master_password": {"type": "string"},
                "backup_format": {"type": "string"},
                "output_path": {"type": "string"},
                "retention_days": {"type": "integer"}
            }
        },
        "databases": {
            "type": "array",
            "items": {"$ref": "#/definitions/database"}
        }
    },
    "oneOf": [
        {"$ref": "#/definitions/databases"},
        {
            "type": "object",
            "properties": {
                "backup_dir": {"type": "string"},
                "step_timeout": {"type": "string"},
                "log_level": {
                    "type": "string",
                    "enum": ["debug", "info", "warn", "error"]
                },
                "log_format": {
                    "type": "string",
                    "enum": ["json", "console"]
                },
                "destinations": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "name": {"type": "string", "pattern": "^[a-zA-Z0-9_-]+$"},
                            "type": {
                                "type": "string",
                                "enum": ["local", "s3", "ssh", "backblaze"]
                            },
                            "enabled": {"type": "boolean"},
                            "options": {"type": "object"}
                        },
                        "required": ["name", "type"]
                    }
                },
                "databases": {"$ref": "#/definitions/databases"}
            },
            "required": ["databases"]
        }
    ]
}`
