// Package api embeds the service's HTTP and event contracts.
package api

import _ "embed"

// OpenAPI is the HTTP contract of the planning API.
//
//go:embed openapi.yaml
var OpenAPI []byte

// AsyncAPI describes the CloudEvents published on wms.workload.events.
//
//go:embed asyncapi.yaml
var AsyncAPI []byte
